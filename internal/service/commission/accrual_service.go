// Package commission 推荐佣金与收益结算引擎
package commission

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/logger"
	"github.com/jojomine/mining-platform-backend/internal/common/metrics"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// DefaultAccrualBatchSize 每轮结算最多处理的矿机包数
const DefaultAccrualBatchSize = 500

// AccrualService 周期收益结算服务
// 日结/月结矿机包按 next_bonus_date 到期逐个结算，每个包一个事务：
// 单个包失败只跳过该包，不影响本轮其余结算
type AccrualService struct {
	userPackageRepo *repository.UserPackageRepository
	bonusRepo       *repository.BonusRepository
	walletSvc       *wallet.Service
	settingsSvc     *settings.Service
	db              *gorm.DB
	batchSize       int
}

// NewAccrualService 创建收益结算服务
func NewAccrualService(
	userPackageRepo *repository.UserPackageRepository,
	bonusRepo *repository.BonusRepository,
	walletSvc *wallet.Service,
	settingsSvc *settings.Service,
	db *gorm.DB,
) *AccrualService {
	return &AccrualService{
		userPackageRepo: userPackageRepo,
		bonusRepo:       bonusRepo,
		walletSvc:       walletSvc,
		settingsSvc:     settingsSvc,
		db:              db,
		batchSize:       DefaultAccrualBatchSize,
	}
}

// SettleDue 结算指定模式下所有到期的矿机包，返回成功结算的数量
func (s *AccrualService) SettleDue(ctx context.Context, mode string) (int, error) {
	snap, err := s.settingsSvc.Load(ctx)
	if err != nil {
		return 0, apperrors.ErrDatabaseError.WithError(err)
	}

	due, err := s.userPackageRepo.ListDueForAccrual(ctx, mode, time.Now(), s.batchSize)
	if err != nil {
		return 0, apperrors.ErrDatabaseError.WithError(err)
	}

	settled := 0
	for _, up := range due {
		if err := s.SettleOne(ctx, snap, up); err != nil {
			logger.Errorf("矿机包 %d 周期结算失败: %v", up.ID, err)
			continue
		}
		settled++
	}
	return settled, nil
}

// SettleOne 结算单个矿机包的当前周期
// 收益记录、账本入账与周期推进在同一事务内完成
func (s *AccrualService) SettleOne(ctx context.Context, snap *settings.Snapshot, up *models.UserPackage) error {
	if up.Package == nil {
		return apperrors.ErrPackageNotFound
	}
	if up.Status != models.UserPackageStatusActive {
		return apperrors.ErrPackageStateInvalid
	}

	var rate float64
	if up.Package.Mode == models.PackageModeDaily {
		rate = up.Package.DailyPercentage
	} else {
		rate = snap.MonthlyBonusRate()
	}
	amount := up.Package.Price * rate / 100
	if amount <= 0 {
		// 零收益也推进周期，否则该包永远卡在队列里
		return s.advance(ctx, up)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		record := &models.BonusRecord{
			UserPackageID: up.ID,
			UserID:        up.UserID,
			Amount:        amount,
			Cycle:         up.CurrentCycle,
		}
		if err := tx.WithContext(ctx).Create(record).Error; err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}

		if _, err := s.walletSvc.Credit(ctx, tx, &wallet.CreditEntry{
			UserID:       up.UserID,
			Type:         models.WalletTxTypeBonus,
			Amount:       amount,
			Description:  fmt.Sprintf("矿机包「%s」第 %d 周期收益", up.Package.Name, up.CurrentCycle),
			ReferenceID:  &up.ID,
			Withdrawable: true,
		}); err != nil {
			return err
		}

		return s.advanceTx(ctx, tx, up)
	})
	if err != nil {
		return err
	}

	metrics.Get().RecordBonusPayout(amount)
	return nil
}

// advance 不产生收益时单独推进周期
func (s *AccrualService) advance(ctx context.Context, up *models.UserPackage) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.advanceTx(ctx, tx, up)
	})
}

// advanceTx 推进周期号与下次结算时间
// 跑满全部周期后：日结包置为 completed，月结包保持 active 等待
// retain/pullout，两者都停止继续结算
func (s *AccrualService) advanceTx(ctx context.Context, tx *gorm.DB, up *models.UserPackage) error {
	newCycle := up.CurrentCycle + 1
	status := up.Status
	var next *time.Time

	if newCycle > up.TotalCycles {
		if up.Package.Mode == models.PackageModeDaily {
			status = models.UserPackageStatusCompleted
		}
	} else {
		base := time.Now()
		if up.NextBonusDate != nil {
			base = *up.NextBonusDate
		}
		var n time.Time
		if up.Package.Mode == models.PackageModeDaily {
			n = base.AddDate(0, 0, 1)
		} else {
			n = base.AddDate(0, 1, 0)
		}
		next = &n
	}

	return s.userPackageRepo.AdvanceCycle(ctx, tx, up.ID, newCycle, status, next)
}
