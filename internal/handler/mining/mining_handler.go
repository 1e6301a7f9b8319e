// Package mining 提供矿机包相关的 HTTP Handler
package mining

import (
	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/handler"
	"github.com/jojomine/mining-platform-backend/internal/common/metrics"
	"github.com/jojomine/mining-platform-backend/internal/common/response"
	miningService "github.com/jojomine/mining-platform-backend/internal/service/mining"
)

// Handler 矿机包处理器
type Handler struct {
	packageService   *miningService.PackageService
	purchaseService  *miningService.PurchaseService
	lifecycleService *miningService.LifecycleService
}

// NewHandler 创建矿机包处理器
func NewHandler(
	packageSvc *miningService.PackageService,
	purchaseSvc *miningService.PurchaseService,
	lifecycleSvc *miningService.LifecycleService,
) *Handler {
	return &Handler{
		packageService:   packageSvc,
		purchaseService:  purchaseSvc,
		lifecycleService: lifecycleSvc,
	}
}

// ListPackages 矿机包目录
// @Summary 在售矿机包列表
// @Tags 矿机包
// @Produce json
// @Success 200 {object} response.Response
// @Router /packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	list, err := h.packageService.ListActive(c.Request.Context())
	handler.MustSucceed(c, err, list)
}

// GetPackage 矿机包详情
// @Summary 矿机包详情
// @Tags 矿机包
// @Produce json
// @Param id path int true "矿机包ID"
// @Success 200 {object} response.Response
// @Router /packages/{id} [get]
func (h *Handler) GetPackage(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}
	pkg, err := h.packageService.GetByID(c.Request.Context(), id)
	handler.MustSucceed(c, err, pkg)
}

// PurchaseRequest 购买请求
type PurchaseRequest struct {
	PackageID int64 `json:"package_id" binding:"required,gt=0"`
}

// Purchase 购买矿机包
// @Summary 购买矿机包
// @Tags 矿机包
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PurchaseRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /packages/purchase [post]
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.purchaseService.Purchase(c.Request.Context(), userID, req.PackageID)
	if handler.HandleError(c, err) {
		return
	}

	metrics.Get().RecordPurchase(result.UserPackage.Package.Mode)
	for _, commission := range result.Commissions {
		metrics.Get().RecordCommission(commission.Level)
	}
	response.Success(c, result)
}

// ListMyPackages 我的矿机包
// @Summary 我的矿机包列表
// @Tags 矿机包
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /packages/mine [get]
func (h *Handler) ListMyPackages(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.lifecycleService.ListMyPackages(c.Request.Context(), userID, (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// PullOut 拔出矿机包
// @Summary 拔出到期矿机包（退还本金，终态）
// @Tags 矿机包
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户矿机包ID"
// @Success 200 {object} response.Response
// @Router /packages/mine/{id}/pullout [post]
func (h *Handler) PullOut(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}
	handler.MustSucceed(c, h.lifecycleService.PullOut(c.Request.Context(), userID, id), nil)
}

// Retain 续期月结矿机包
// @Summary 续期到期月结包（不动本金，周期重置）
// @Tags 矿机包
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户矿机包ID"
// @Success 200 {object} response.Response
// @Router /packages/mine/{id}/retain [post]
func (h *Handler) Retain(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}
	handler.MustSucceed(c, h.lifecycleService.Retain(c.Request.Context(), userID, id), nil)
}

// Recycle 复投日结矿机包
// @Summary 复投到期日结包（重新扣款，周期重置）
// @Tags 矿机包
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户矿机包ID"
// @Success 200 {object} response.Response
// @Router /packages/mine/{id}/recycle [post]
func (h *Handler) Recycle(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}
	handler.MustSucceed(c, h.lifecycleService.Recycle(c.Request.Context(), userID, id), nil)
}
