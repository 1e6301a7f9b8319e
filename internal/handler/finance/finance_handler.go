// Package finance 提供充值提现相关的 HTTP Handler
package finance

import (
	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/handler"
	"github.com/jojomine/mining-platform-backend/internal/common/metrics"
	"github.com/jojomine/mining-platform-backend/internal/common/response"
	financeService "github.com/jojomine/mining-platform-backend/internal/service/finance"
	"github.com/jojomine/mining-platform-backend/pkg/pricefeed"
)

// Handler 财务处理器（用户端）
type Handler struct {
	withdrawalService *financeService.WithdrawalService
	refillService     *financeService.RefillService
	priceClient       *pricefeed.Client
}

// NewHandler 创建财务处理器
func NewHandler(
	withdrawalSvc *financeService.WithdrawalService,
	refillSvc *financeService.RefillService,
	priceClient *pricefeed.Client,
) *Handler {
	return &Handler{
		withdrawalService: withdrawalSvc,
		refillService:     refillSvc,
		priceClient:       priceClient,
	}
}

// GetPrice 当前币价
// @Summary JOJO/USDT 实时币价
// @Tags 财务
// @Produce json
// @Success 200 {object} response.Response
// @Router /finance/price [get]
func (h *Handler) GetPrice(c *gin.Context) {
	response.Success(c, gin.H{
		"price": h.priceClient.GetPrice(c.Request.Context()),
	})
}

// RequestWithdrawal 发起提现
// @Summary 发起提现申请
// @Tags 财务
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body financeService.RequestParams true "请求参数"
// @Success 200 {object} response.Response
// @Router /finance/withdrawals [post]
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req financeService.RequestParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	request, err := h.withdrawalService.Request(c.Request.Context(), userID, &req)
	if handler.HandleError(c, err) {
		return
	}
	metrics.Get().RecordWithdrawal("requested")
	response.Success(c, request)
}

// ListWithdrawals 我的提现记录
// @Summary 我的提现申请列表
// @Tags 财务
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /finance/withdrawals [get]
func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.withdrawalService.ListByUser(c.Request.Context(), userID, (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequestRefill 发起充值
// @Summary 提交充值申请（链上转账凭证）
// @Tags 财务
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body financeService.RefillParams true "请求参数"
// @Success 200 {object} response.Response
// @Router /finance/refills [post]
func (h *Handler) RequestRefill(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req financeService.RefillParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	request, err := h.refillService.Request(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, request)
}

// ListRefills 我的充值记录
// @Summary 我的充值申请列表
// @Tags 财务
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /finance/refills [get]
func (h *Handler) ListRefills(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.refillService.ListByUser(c.Request.Context(), userID, (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}
