// Package mining 矿机包目录与生命周期服务
package mining

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/commission"
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// PurchaseService 矿机包购买服务
type PurchaseService struct {
	userRepo        *repository.UserRepository
	packageRepo     *repository.PackageRepository
	userPackageRepo *repository.UserPackageRepository
	walletSvc       *wallet.Service
	referralSvc     *commission.ReferralService
	settingsSvc     *settings.Service
	db              *gorm.DB
	bonusDays       int // 日结包总周期数
	bonusMonths     int // 月结包总周期数
}

// NewPurchaseService 创建购买服务
func NewPurchaseService(
	userRepo *repository.UserRepository,
	packageRepo *repository.PackageRepository,
	userPackageRepo *repository.UserPackageRepository,
	walletSvc *wallet.Service,
	referralSvc *commission.ReferralService,
	settingsSvc *settings.Service,
	db *gorm.DB,
	bonusDays, bonusMonths int,
) *PurchaseService {
	return &PurchaseService{
		userRepo:        userRepo,
		packageRepo:     packageRepo,
		userPackageRepo: userPackageRepo,
		walletSvc:       walletSvc,
		referralSvc:     referralSvc,
		settingsSvc:     settingsSvc,
		db:              db,
		bonusDays:       bonusDays,
		bonusMonths:     bonusMonths,
	}
}

// PurchaseResult 购买结果
type PurchaseResult struct {
	UserPackage *models.UserPackage          `json:"user_package"`
	Commissions []*models.ReferralCommission `json:"commissions,omitempty"`
}

// Purchase 购买矿机包
//
// 扣款、订单创建与推荐佣金派发在同一事务内完成：佣金写入失败回滚
// 整笔购买。未激活用户购买后恢复激活；若买的是日结包，同时强制拔出
// 其名下其他仍在运行/已到期的日结包，保证复活后只有一条日结链
func (s *PurchaseService) Purchase(ctx context.Context, userID, packageID int64) (*PurchaseResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}

	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrPackageNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	if pkg.Status != models.PackageStatusActive {
		return nil, apperrors.ErrPackageOffShelf
	}

	snap, err := s.settingsSvc.Load(ctx)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}

	totalCycles := s.bonusMonths
	if pkg.Mode == models.PackageModeDaily {
		totalCycles = s.bonusDays
	}
	if pkg.MaturityPeriod > 0 {
		totalCycles = pkg.MaturityPeriod
	}

	var result *PurchaseResult
	err = s.walletSvc.WithWalletLock(ctx, userID, func() error {
		// 复活购买日结包：先取出名下其他存活日结包，进事务后统一强制拔出
		var staleDaily []*models.UserPackage
		if user.Status == models.UserStatusInactive && pkg.Mode == models.PackageModeDaily {
			var err error
			staleDaily, err = s.userPackageRepo.ListLiveDailyByUser(ctx, userID)
			if err != nil {
				return apperrors.ErrDatabaseError.WithError(err)
			}
		}

		return s.db.Transaction(func(tx *gorm.DB) error {
			now := time.Now()
			next := nextBonusDate(now, pkg.Mode)
			up := &models.UserPackage{
				UserID:        userID,
				PackageID:     pkg.ID,
				Status:        models.UserPackageStatusActive,
				CurrentCycle:  1,
				TotalCycles:   totalCycles,
				PurchaseDate:  now,
				NextBonusDate: &next,
			}
			if err := tx.WithContext(ctx).Create(up).Error; err != nil {
				return apperrors.ErrDatabaseError.WithError(err)
			}

			if _, err := s.walletSvc.Spend(ctx, tx, &wallet.SpendEntry{
				UserID:      userID,
				Type:        models.WalletTxTypePurchase,
				Amount:      pkg.Price,
				Description: fmt.Sprintf("购买矿机包「%s」", pkg.Name),
				ReferenceID: &up.ID,
			}); err != nil {
				return err
			}

			// 未激活用户复活
			if user.Status == models.UserStatusInactive {
				if err := tx.WithContext(ctx).Model(&models.User{}).
					Where("id = ?", userID).
					Update("status", models.UserStatusActive).Error; err != nil {
					return apperrors.ErrDatabaseError.WithError(err)
				}
				for _, stale := range staleDaily {
					if err := s.withdrawStale(ctx, tx, stale.ID); err != nil {
						return err
					}
				}
			}

			commissions, err := s.referralSvc.DisburseOnPurchase(ctx, tx, snap, user, up.ID, pkg.Price)
			if err != nil {
				return err
			}

			up.Package = pkg
			result = &PurchaseResult{UserPackage: up, Commissions: commissions}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withdrawStale 强制拔出单个日结包（不退本金）
// 状态条件兜底：列表快照与事务之间状态已变的记录不再重复拔出
func (s *PurchaseService) withdrawStale(ctx context.Context, tx *gorm.DB, id int64) error {
	err := tx.WithContext(ctx).Model(&models.UserPackage{}).
		Where("id = ? AND status IN ?", id,
			[]int8{models.UserPackageStatusActive, models.UserPackageStatusCompleted}).
		Updates(map[string]interface{}{
			"status":          models.UserPackageStatusWithdrawn,
			"next_bonus_date": nil,
		}).Error
	if err != nil {
		return apperrors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// nextBonusDate 计算首个结算时间
func nextBonusDate(from time.Time, mode string) time.Time {
	if mode == models.PackageModeDaily {
		return from.AddDate(0, 0, 1)
	}
	return from.AddDate(0, 1, 0)
}
