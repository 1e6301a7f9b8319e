// Package admin 提供管理端的 HTTP Handler
package admin

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/handler"
	"github.com/jojomine/mining-platform-backend/internal/common/metrics"
	"github.com/jojomine/mining-platform-backend/internal/common/response"
	financeService "github.com/jojomine/mining-platform-backend/internal/service/finance"
	miningService "github.com/jojomine/mining-platform-backend/internal/service/mining"
	settingsService "github.com/jojomine/mining-platform-backend/internal/service/settings"
)

// Handler 管理端处理器
type Handler struct {
	packageService    *miningService.PackageService
	settingsService   *settingsService.Service
	withdrawalService *financeService.WithdrawalService
	refillService     *financeService.RefillService
	dashboardService  *financeService.DashboardService
}

// NewHandler 创建管理端处理器
func NewHandler(
	packageSvc *miningService.PackageService,
	settingsSvc *settingsService.Service,
	withdrawalSvc *financeService.WithdrawalService,
	refillSvc *financeService.RefillService,
	dashboardSvc *financeService.DashboardService,
) *Handler {
	return &Handler{
		packageService:    packageSvc,
		settingsService:   settingsSvc,
		withdrawalService: withdrawalSvc,
		refillService:     refillSvc,
		dashboardService:  dashboardSvc,
	}
}

// ---- 矿机包管理 ----

// CreatePackage 新建矿机包
// @Summary 新建矿机包
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body miningService.CreateRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/packages [post]
func (h *Handler) CreatePackage(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var req miningService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	pkg, err := h.packageService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, err, pkg)
}

// ListPackages 矿机包列表（含下架）
// @Summary 矿机包列表
// @Tags 管理端
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.packageService.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// UpdatePackage 更新矿机包
// @Summary 更新矿机包
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "矿机包ID"
// @Param request body miningService.UpdateRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/packages/{id} [put]
func (h *Handler) UpdatePackage(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req miningService.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	pkg, err := h.packageService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, pkg)
}

// UpdatePackageStatusRequest 上下架请求
type UpdatePackageStatusRequest struct {
	Status *int8 `json:"status" binding:"required"`
}

// UpdatePackageStatus 矿机包上下架
// @Summary 矿机包上下架
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "矿机包ID"
// @Param request body UpdatePackageStatusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/packages/{id}/status [put]
func (h *Handler) UpdatePackageStatus(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePackageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.packageService.UpdateStatus(c.Request.Context(), id, *req.Status), nil)
}

// DeletePackage 删除矿机包
// @Summary 删除矿机包（已有购买记录时拒绝）
// @Tags 管理端
// @Produce json
// @Security BearerAuth
// @Param id path int true "矿机包ID"
// @Success 200 {object} response.Response
// @Router /admin/packages/{id} [delete]
func (h *Handler) DeletePackage(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}
	handler.MustSucceed(c, h.packageService.Delete(c.Request.Context(), id), nil)
}

// ---- 系统配置管理 ----

// ListSettings 配置列表
// @Summary 系统配置列表
// @Tags 管理端
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/settings [get]
func (h *Handler) ListSettings(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	list, err := h.settingsService.GetAll(c.Request.Context())
	handler.MustSucceed(c, err, list)
}

// UpdateSettingRequest 配置更新请求
type UpdateSettingRequest struct {
	Key         string `json:"key" binding:"required"`
	Value       string `json:"value" binding:"required"`
	Description string `json:"description"`
}

// UpdateSetting 写入配置
// @Summary 写入系统配置（新增或覆盖）
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateSettingRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/settings [put]
func (h *Handler) UpdateSetting(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.settingsService.Update(c.Request.Context(), req.Key, req.Value, req.Description), nil)
}

// DeleteSetting 删除配置
// @Summary 删除系统配置（回落到默认值）
// @Tags 管理端
// @Produce json
// @Security BearerAuth
// @Param key path string true "配置键"
// @Success 200 {object} response.Response
// @Router /admin/settings/{key} [delete]
func (h *Handler) DeleteSetting(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	key := c.Param("key")
	if key == "" {
		response.BadRequest(c, "无效的配置键")
		return
	}
	handler.MustSucceed(c, h.settingsService.Delete(c.Request.Context(), key), nil)
}

// ---- 提现/充值审核 ----

// AuditRequest 审核请求
type AuditRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// ListPendingWithdrawals 待审核提现
// @Summary 待审核提现申请
// @Tags 管理端
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/withdrawals/pending [get]
func (h *Handler) ListPendingWithdrawals(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.withdrawalService.ListPending(c.Request.Context(), (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ApproveWithdrawal 审批通过提现
// @Summary 审批通过提现申请
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "提现申请ID"
// @Param request body AuditRequest false "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/withdrawals/{id}/approve [post]
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req AuditRequest
	_ = c.ShouldBindJSON(&req)

	if handler.HandleError(c, h.withdrawalService.Approve(c.Request.Context(), adminID, id, req.Notes)) {
		return
	}
	metrics.Get().RecordWithdrawal("approved")
	response.Success(c, nil)
}

// RejectWithdrawal 审批拒绝提现
// @Summary 审批拒绝提现申请
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "提现申请ID"
// @Param request body AuditRequest false "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/withdrawals/{id}/reject [post]
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req AuditRequest
	_ = c.ShouldBindJSON(&req)

	if handler.HandleError(c, h.withdrawalService.Reject(c.Request.Context(), adminID, id, req.Notes)) {
		return
	}
	metrics.Get().RecordWithdrawal("rejected")
	response.Success(c, nil)
}

// ListPendingRefills 待审核充值
// @Summary 待审核充值申请
// @Tags 管理端
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/refills/pending [get]
func (h *Handler) ListPendingRefills(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.refillService.ListPending(c.Request.Context(), (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ApproveRefill 审批通过充值
// @Summary 审批通过充值申请
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "充值申请ID"
// @Param request body AuditRequest false "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/refills/{id}/approve [post]
func (h *Handler) ApproveRefill(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req AuditRequest
	_ = c.ShouldBindJSON(&req)

	handler.MustSucceed(c, h.refillService.Approve(c.Request.Context(), adminID, id, req.Notes), nil)
}

// RejectRefill 审批拒绝充值
// @Summary 审批拒绝充值申请
// @Tags 管理端
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "充值申请ID"
// @Param request body AuditRequest false "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/refills/{id}/reject [post]
func (h *Handler) RejectRefill(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req AuditRequest
	_ = c.ShouldBindJSON(&req)

	handler.MustSucceed(c, h.refillService.Reject(c.Request.Context(), adminID, id, req.Notes), nil)
}

// ---- 财务概览 ----

// GetFinanceOverview 财务概览
// @Summary 平台财务概览
// @Tags 管理端
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "起始日期 2006-01-02"
// @Param end_date query string false "结束日期 2006-01-02"
// @Success 200 {object} response.Response{data=financeService.Overview}
// @Router /admin/finance/overview [get]
func (h *Handler) GetFinanceOverview(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var startDate, endDate *time.Time
	if s := c.Query("start_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			startDate = &t
		}
	}
	if s := c.Query("end_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			end := t.AddDate(0, 0, 1).Add(-time.Second)
			endDate = &end
		}
	}

	overview, err := h.dashboardService.GetOverview(c.Request.Context(), startDate, endDate)
	handler.MustSucceed(c, err, overview)
}
