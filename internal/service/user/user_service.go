// Package user 提供用户资料与邀请服务
package user

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/qrcode"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// UserService 用户服务
type UserService struct {
	userRepo        *repository.UserRepository
	userPackageRepo *repository.UserPackageRepository
	bonusRepo       *repository.BonusRepository
	commissionRepo  *repository.CommissionRepository
	leadershipRepo  *repository.LeadershipRepository
	walletSvc       *wallet.Service
	qrGenerator     *qrcode.Generator
	inviteBaseURL   string
}

// NewUserService 创建用户服务
func NewUserService(
	userRepo *repository.UserRepository,
	userPackageRepo *repository.UserPackageRepository,
	bonusRepo *repository.BonusRepository,
	commissionRepo *repository.CommissionRepository,
	leadershipRepo *repository.LeadershipRepository,
	walletSvc *wallet.Service,
	inviteBaseURL string,
) *UserService {
	return &UserService{
		userRepo:        userRepo,
		userPackageRepo: userPackageRepo,
		bonusRepo:       bonusRepo,
		commissionRepo:  commissionRepo,
		leadershipRepo:  leadershipRepo,
		walletSvc:       walletSvc,
		qrGenerator:     qrcode.NewGenerator(),
		inviteBaseURL:   inviteBaseURL,
	}
}

// Profile 用户资料
type Profile struct {
	ID                  int64   `json:"id"`
	Username            string  `json:"username"`
	Email               *string `json:"email,omitempty"`
	InviteCode          string  `json:"invite_code"`
	Status              int8    `json:"status"`
	Balance             float64 `json:"balance"`
	WithdrawableBalance float64 `json:"withdrawable_balance"`
}

// Dashboard 用户收益面板
type Dashboard struct {
	Balance             float64 `json:"balance"`
	WithdrawableBalance float64 `json:"withdrawable_balance"`
	TotalMined          float64 `json:"total_mined"`
	ReferralEarnings    float64 `json:"referral_earnings"`
	LeadershipEarnings  float64 `json:"leadership_earnings"`
	ActivePackages      int64   `json:"active_packages"`
	DirectReferrals     int64   `json:"direct_referrals"`
}

// InviteInfo 邀请信息
type InviteInfo struct {
	InviteCode string `json:"invite_code"`
	InviteURL  string `json:"invite_url"`
	QRCode     string `json:"qr_code"` // Data URL 格式 PNG
}

// GetProfile 获取用户资料（含余额）
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.walletSvc.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	withdrawable, err := s.walletSvc.GetWithdrawableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:                  user.ID,
		Username:            user.Username,
		Email:               user.Email,
		InviteCode:          user.InviteCode,
		Status:              user.Status,
		Balance:             balance,
		WithdrawableBalance: withdrawable,
	}, nil
}

// GetDashboard 获取用户收益面板
func (s *UserService) GetDashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	dashboard := &Dashboard{}

	var err error
	if dashboard.Balance, err = s.walletSvc.GetBalance(ctx, userID); err != nil {
		return nil, err
	}
	if dashboard.WithdrawableBalance, err = s.walletSvc.GetWithdrawableBalance(ctx, userID); err != nil {
		return nil, err
	}
	if dashboard.TotalMined, err = s.bonusRepo.SumByUser(ctx, userID); err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	if dashboard.ReferralEarnings, err = s.commissionRepo.SumByBeneficiary(ctx, userID); err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	if dashboard.LeadershipEarnings, err = s.leadershipRepo.SumByBeneficiary(ctx, userID); err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	if dashboard.DirectReferrals, err = s.userRepo.CountDirectReferrals(ctx, userID); err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}

	packages, _, err := s.userPackageRepo.ListByUser(ctx, userID, 0, 1000)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	for _, up := range packages {
		if up.Status == models.UserPackageStatusActive {
			dashboard.ActivePackages++
		}
	}

	return dashboard, nil
}

// GetInviteInfo 获取邀请链接与二维码
func (s *UserService) GetInviteInfo(ctx context.Context, userID int64) (*InviteInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	inviteURL := fmt.Sprintf("%s?invite_code=%s", s.inviteBaseURL, user.InviteCode)
	dataURL, err := s.qrGenerator.GenerateDataURL(inviteURL)
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}

	return &InviteInfo{
		InviteCode: user.InviteCode,
		InviteURL:  inviteURL,
		QRCode:     dataURL,
	}, nil
}

// InviteQRCodePNG 生成邀请二维码 PNG 字节
func (s *UserService) InviteQRCodePNG(ctx context.Context, userID int64) ([]byte, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	inviteURL := fmt.Sprintf("%s?invite_code=%s", s.inviteBaseURL, user.InviteCode)
	data, err := s.qrGenerator.GeneratePNG(inviteURL)
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}
	return data, nil
}

// DownlineMember 直推成员概要
type DownlineMember struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Status     int8   `json:"status"`
	HasPackage bool   `json:"has_package"`
	JoinedAt   string `json:"joined_at"`
}

// ListDownline 获取直推用户列表
func (s *UserService) ListDownline(ctx context.Context, userID int64, offset, limit int) ([]*DownlineMember, int64, error) {
	users, total, err := s.userRepo.ListDirectReferrals(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, apperrors.ErrDatabaseError.WithError(err)
	}

	members := make([]*DownlineMember, 0, len(users))
	for _, u := range users {
		hasPackage, err := s.userPackageRepo.HasActivePackage(ctx, u.ID)
		if err != nil {
			return nil, 0, apperrors.ErrDatabaseError.WithError(err)
		}
		members = append(members, &DownlineMember{
			ID:         u.ID,
			Username:   u.Username,
			Status:     u.Status,
			HasPackage: hasPackage,
			JoinedAt:   u.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return members, total, nil
}

func (s *UserService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}
