// Package wallet 提供钱包相关的 HTTP Handler
package wallet

import (
	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/handler"
	"github.com/jojomine/mining-platform-backend/internal/common/response"
	walletService "github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// Handler 钱包处理器
type Handler struct {
	walletService *walletService.Service
}

// NewHandler 创建钱包处理器
func NewHandler(walletSvc *walletService.Service) *Handler {
	return &Handler{walletService: walletSvc}
}

// GetBalance 查询余额
// @Summary 查询余额与可提现余额
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /wallet/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}
	withdrawable, err := h.walletService.GetWithdrawableBalance(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{
		"balance":              balance,
		"withdrawable_balance": withdrawable,
	})
}

// ListTransactions 流水列表
// @Summary 钱包流水列表
// @Tags 钱包
// @Produce json
// @Security BearerAuth
// @Param type query string false "流水类型"
// @Success 200 {object} response.Response
// @Router /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.walletService.ListTransactions(
		c.Request.Context(), userID, c.Query("type"), (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// TransferRequest 转账请求
type TransferRequest struct {
	ToUsername string  `json:"to_username" binding:"required"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
}

// Transfer 用户间转账
// @Summary 余额转账（入账方不可提现）
// @Tags 钱包
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "请求参数"
// @Success 200 {object} response.Response{data=walletService.TransferResult}
// @Router /wallet/transfer [post]
func (h *Handler) Transfer(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.walletService.Transfer(c.Request.Context(), userID, req.ToUsername, req.Amount)
	handler.MustSucceed(c, err, result)
}
