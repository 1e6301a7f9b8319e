// Package referral 提供推荐关系相关的 HTTP Handler
package referral

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/handler"
	"github.com/jojomine/mining-platform-backend/internal/common/response"
	"github.com/jojomine/mining-platform-backend/internal/service/commission"
	userService "github.com/jojomine/mining-platform-backend/internal/service/user"
)

// Handler 推荐处理器
type Handler struct {
	userService       *userService.UserService
	referralService   *commission.ReferralService
	leadershipService *commission.LeadershipService
}

// NewHandler 创建推荐处理器
func NewHandler(
	userSvc *userService.UserService,
	referralSvc *commission.ReferralService,
	leadershipSvc *commission.LeadershipService,
) *Handler {
	return &Handler{
		userService:       userSvc,
		referralService:   referralSvc,
		leadershipService: leadershipSvc,
	}
}

// GetInviteInfo 邀请信息
// @Summary 邀请码、邀请链接与二维码
// @Tags 推荐
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=userService.InviteInfo}
// @Router /referral/invite [get]
func (h *Handler) GetInviteInfo(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	info, err := h.userService.GetInviteInfo(c.Request.Context(), userID)
	handler.MustSucceed(c, err, info)
}

// InviteQRCode 邀请二维码图片
// @Summary 邀请二维码 PNG
// @Tags 推荐
// @Produce png
// @Security BearerAuth
// @Success 200 {string} binary "PNG 图片"
// @Router /referral/invite/qrcode [get]
func (h *Handler) InviteQRCode(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	png, err := h.userService.InviteQRCodePNG(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ListDownline 直推列表
// @Summary 直推用户列表
// @Tags 推荐
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /referral/downline [get]
func (h *Handler) ListDownline(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	members, total, err := h.userService.ListDownline(c.Request.Context(), userID, (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, members, total, page, pageSize)
}

// ListCommissions 推荐佣金记录
// @Summary 我的推荐佣金记录
// @Tags 推荐
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /referral/commissions [get]
func (h *Handler) ListCommissions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.referralService.ListByBeneficiary(c.Request.Context(), userID, (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ListLeadershipBonuses 领导奖记录
// @Summary 我的领导奖记录
// @Tags 推荐
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /referral/leadership [get]
func (h *Handler) ListLeadershipBonuses(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	page, pageSize := handler.ParsePagination(c)

	list, total, err := h.leadershipService.ListByBeneficiary(c.Request.Context(), userID, (page-1)*pageSize, pageSize)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}
