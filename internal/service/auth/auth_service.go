// Package auth 提供认证服务
package auth

import (
	"context"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/common/crypto"
	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/jwt"
	"github.com/jojomine/mining-platform-backend/internal/common/utils"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
)

// InviteCodeLength 邀请码长度
const InviteCodeLength = 8

// AuthService 认证服务
// 注册必须携带有效邀请码，新用户挂到邀请人名下形成推荐树
type AuthService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	adminRepo  *repository.AdminRepository
	jwtManager *jwt.Manager
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	adminRepo *repository.AdminRepository,
	jwtManager *jwt.Manager,
) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		adminRepo:  adminRepo,
		jwtManager: jwtManager,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username   string  `json:"username" binding:"required,min=3,max=50"`
	Password   string  `json:"password" binding:"required,min=6,max=64"`
	Email      *string `json:"email,omitempty" binding:"omitempty,email"`
	InviteCode string  `json:"invite_code" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User      *UserInfo      `json:"user"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	Email      *string `json:"email,omitempty"`
	InviteCode string  `json:"invite_code"`
	Status     int8    `json:"status"`
}

// Register 注册新用户
// 新用户初始为未激活状态，购买矿机包后激活
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperrors.ErrUserExists
	} else if err != gorm.ErrRecordNotFound {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}

	sponsor, err := s.userRepo.GetByInviteCode(ctx, req.InviteCode)
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrInviteCodeInvalid
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		SponsorID:    &sponsor.ID,
		InviteCode:   s.newInviteCode(ctx),
		Status:       models.UserStatusInactive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(user).Error; err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		wallet := &models.UserWallet{UserID: user.ID}
		if err := tx.WithContext(ctx).Create(wallet).Error; err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, jwt.UserTypeUser, "")
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}

	return &LoginResponse{User: s.toUserInfo(user), TokenPair: tokenPair}, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrPasswordError
	}
	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.ErrAccountDisabled
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, jwt.UserTypeUser, "")
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}

	return &LoginResponse{User: s.toUserInfo(user), TokenPair: tokenPair}, nil
}

// AdminLogin 管理员登录
func (s *AuthService) AdminLogin(ctx context.Context, req *LoginRequest) (*jwt.TokenPair, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.Password, admin.PasswordHash) {
		return nil, apperrors.ErrPasswordError
	}
	if admin.Status == models.AdminStatusDisabled {
		return nil, apperrors.ErrAccountDisabled
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(admin.ID, jwt.UserTypeAdmin, admin.Role)
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}
	return tokenPair, nil
}

// RefreshToken 刷新令牌
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ParseToken(refreshToken)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}
	return s.jwtManager.GenerateTokenPair(claims.UserID, claims.UserType, claims.Role)
}

// newInviteCode 生成未占用的邀请码
func (s *AuthService) newInviteCode(ctx context.Context) string {
	for {
		code := utils.GenerateInviteCode(InviteCodeLength)
		if _, err := s.userRepo.GetByInviteCode(ctx, code); err == gorm.ErrRecordNotFound {
			return code
		}
	}
}

func (s *AuthService) toUserInfo(user *models.User) *UserInfo {
	return &UserInfo{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		InviteCode: user.InviteCode,
		Status:     user.Status,
	}
}
