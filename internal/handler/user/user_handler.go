// Package user 提供用户资料相关的 HTTP Handler
package user

import (
	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/handler"
	userService "github.com/jojomine/mining-platform-backend/internal/service/user"
)

// Handler 用户处理器
type Handler struct {
	userService *userService.UserService
}

// NewHandler 创建用户处理器
func NewHandler(userSvc *userService.UserService) *Handler {
	return &Handler{userService: userSvc}
}

// GetProfile 用户资料
// @Summary 当前用户资料
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=userService.Profile}
// @Router /user/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	handler.MustSucceed(c, err, profile)
}

// GetDashboard 收益面板
// @Summary 当前用户收益面板
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=userService.Dashboard}
// @Router /user/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.userService.GetDashboard(c.Request.Context(), userID)
	handler.MustSucceed(c, err, dashboard)
}
