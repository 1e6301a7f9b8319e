// Package auth 提供认证相关的 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/handler"
	"github.com/jojomine/mining-platform-backend/internal/common/response"
	authService "github.com/jojomine/mining-platform-backend/internal/service/auth"
)

// Handler 认证处理器
type Handler struct {
	authService *authService.AuthService
}

// NewHandler 创建认证处理器
func NewHandler(authSvc *authService.AuthService) *Handler {
	return &Handler{authService: authSvc}
}

// Register 注册
// @Summary 用户注册（需邀请码）
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.RegisterRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req authService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// Login 用户登录
// @Summary 用户登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// AdminLogin 管理员登录
// @Summary 管理员登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/admin/login [post]
func (h *Handler) AdminLogin(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	pair, err := h.authService.AdminLogin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, pair)
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, pair)
}
