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
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// LifecycleService 矿机包生命周期服务
// 状态机：active -> completed（日结包跑满周期）-> withdrawn（终态），
// 或 active -> withdrawn（拔出）；retain/recycle 把到期的包重置回 active
type LifecycleService struct {
	userRepo        *repository.UserRepository
	userPackageRepo *repository.UserPackageRepository
	bonusRepo       *repository.BonusRepository
	walletSvc       *wallet.Service
	db              *gorm.DB
}

// NewLifecycleService 创建生命周期服务
func NewLifecycleService(
	userRepo *repository.UserRepository,
	userPackageRepo *repository.UserPackageRepository,
	bonusRepo *repository.BonusRepository,
	walletSvc *wallet.Service,
	db *gorm.DB,
) *LifecycleService {
	return &LifecycleService{
		userRepo:        userRepo,
		userPackageRepo: userPackageRepo,
		bonusRepo:       bonusRepo,
		walletSvc:       walletSvc,
		db:              db,
	}
}

// loadOwned 加载矿机包并校验归属
func (s *LifecycleService) loadOwned(ctx context.Context, userID, userPackageID int64) (*models.UserPackage, error) {
	up, err := s.userPackageRepo.GetByID(ctx, userPackageID)
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrUserPackageNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	if up.UserID != userID {
		return nil, apperrors.ErrPackageNotOwned
	}
	if up.Package == nil {
		return nil, apperrors.ErrPackageNotFound
	}
	return up, nil
}

// isMature 矿机包是否已跑满全部周期
func isMature(up *models.UserPackage) bool {
	return up.CurrentCycle > up.TotalCycles
}

// PullOut 拔出矿机包（终态）
// 退回全额本金，记录状态置为 withdrawn；重复拔出会被状态条件更新拦截
func (s *LifecycleService) PullOut(ctx context.Context, userID, userPackageID int64) error {
	up, err := s.loadOwned(ctx, userID, userPackageID)
	if err != nil {
		return err
	}
	if up.Status == models.UserPackageStatusWithdrawn {
		return apperrors.ErrPackageStateInvalid
	}
	if !isMature(up) {
		return apperrors.ErrPackageNotMature
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// 状态条件更新兜底并发重复拔出，保证恰好一笔退款
		result := tx.WithContext(ctx).Model(&models.UserPackage{}).
			Where("id = ? AND status != ?", up.ID, models.UserPackageStatusWithdrawn).
			Updates(map[string]interface{}{
				"status":          models.UserPackageStatusWithdrawn,
				"next_bonus_date": nil,
			})
		if result.Error != nil {
			return apperrors.ErrDatabaseError.WithError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrPackageStateInvalid
		}

		_, err := s.walletSvc.Credit(ctx, tx, &wallet.CreditEntry{
			UserID:       userID,
			Type:         models.WalletTxTypeRefund,
			Amount:       up.Package.Price,
			Description:  fmt.Sprintf("拔出矿机包「%s」本金退回", up.Package.Name),
			ReferenceID:  &up.ID,
			Withdrawable: true,
		})
		return err
	})
}

// Retain 留存续挖（仅月结包）
// 周期重置为 1、购买时间刷新、清空累计收益记录；不退回本金
func (s *LifecycleService) Retain(ctx context.Context, userID, userPackageID int64) error {
	up, err := s.loadOwned(ctx, userID, userPackageID)
	if err != nil {
		return err
	}
	if up.Package.Mode != models.PackageModeMonthly {
		return apperrors.ErrPackageModeInvalid
	}
	if up.Status != models.UserPackageStatusActive {
		return apperrors.ErrPackageStateInvalid
	}
	if !isMature(up) {
		return apperrors.ErrPackageNotMature
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := s.userPackageRepo.ResetForRestart(ctx, tx, up.ID, now, now.AddDate(0, 1, 0)); err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		if err := s.bonusRepo.DeleteByUserPackage(ctx, tx, up.ID); err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

// Recycle 回收重挖（仅日结包）
// 等价于按原价重新购买：余额不足则整体失败，周期不变
func (s *LifecycleService) Recycle(ctx context.Context, userID, userPackageID int64) error {
	up, err := s.loadOwned(ctx, userID, userPackageID)
	if err != nil {
		return err
	}
	if up.Package.Mode != models.PackageModeDaily {
		return apperrors.ErrPackageModeInvalid
	}
	if up.Status == models.UserPackageStatusWithdrawn {
		return apperrors.ErrPackageStateInvalid
	}
	if !isMature(up) {
		return apperrors.ErrPackageNotMature
	}

	return s.walletSvc.WithWalletLock(ctx, userID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if _, err := s.walletSvc.Spend(ctx, tx, &wallet.SpendEntry{
				UserID:      userID,
				Type:        models.WalletTxTypePurchase,
				Amount:      up.Package.Price,
				Description: fmt.Sprintf("回收矿机包「%s」", up.Package.Name),
				ReferenceID: &up.ID,
			}); err != nil {
				return err
			}
			now := time.Now()
			if err := s.userPackageRepo.ResetForRestart(ctx, tx, up.ID, now, now.AddDate(0, 0, 1)); err != nil {
				return apperrors.ErrDatabaseError.WithError(err)
			}
			if err := s.bonusRepo.DeleteByUserPackage(ctx, tx, up.ID); err != nil {
				return apperrors.ErrDatabaseError.WithError(err)
			}
			return nil
		})
	})
}

// DisplayStatus 日结包展示状态（纯派生，永不落库）
// mature：已跑满全部周期；否则跟随持有人账号状态
func DisplayStatus(up *models.UserPackage, owner *models.User) string {
	if isMature(up) {
		return models.DisplayStatusMature
	}
	if owner != nil && owner.Status == models.UserStatusActive {
		return models.DisplayStatusActive
	}
	return models.DisplayStatusInactive
}

// PackageView 用户矿机包视图
type PackageView struct {
	*models.UserPackage
	DisplayStatus string  `json:"display_status"`
	TotalMined    float64 `json:"total_mined"`
}

// ListMyPackages 获取用户矿机包列表（含展示状态与累计挖出）
func (s *LifecycleService) ListMyPackages(ctx context.Context, userID int64, offset, limit int) ([]*PackageView, int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, apperrors.ErrUserNotFound
	}

	list, total, err := s.userPackageRepo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, apperrors.ErrDatabaseError.WithError(err)
	}

	views := make([]*PackageView, 0, len(list))
	for _, up := range list {
		mined, err := s.bonusRepo.SumByUserPackage(ctx, up.ID)
		if err != nil {
			return nil, 0, apperrors.ErrDatabaseError.WithError(err)
		}
		views = append(views, &PackageView{
			UserPackage:   up,
			DisplayStatus: DisplayStatus(up, user),
			TotalMined:    mined,
		})
	}
	return views, total, nil
}
