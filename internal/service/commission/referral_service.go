// Package commission 推荐佣金与收益结算引擎
package commission

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// ReferralMaxDepth 推荐链上溯的硬上限
// 无论配置写多少层，遍历都在这里截断
const ReferralMaxDepth = 5

// ReferralService 推荐佣金服务
type ReferralService struct {
	commissionRepo *repository.CommissionRepository
	walletSvc      *wallet.Service
}

// NewReferralService 创建推荐佣金服务
func NewReferralService(
	commissionRepo *repository.CommissionRepository,
	walletSvc *wallet.Service,
) *ReferralService {
	return &ReferralService{
		commissionRepo: commissionRepo,
		walletSvc:      walletSvc,
	}
}

// DisburseOnPurchase 购买成交时沿推荐链向上派发佣金
//
// 层级约定：购买人自身是第 1 级，直接推荐人是第 2 级，依次向上，
// 上限 ReferralMaxDepth 级。referral_level_1_percentage 默认缺席，
// 显式配置后作为购买返现发给购买人本人。
//
// 与购买在同一事务内执行：任何一笔佣金写入失败都回滚整笔购买。
// 迭代上溯而非递归；推荐人缺失（根用户）正常终止；某层费率缺失
// 或上级无在挖矿机包则跳过该层继续上溯
func (s *ReferralService) DisburseOnPurchase(
	ctx context.Context,
	tx *gorm.DB,
	snap *settings.Snapshot,
	buyer *models.User,
	userPackageID int64,
	packageAmount float64,
) ([]*models.ReferralCommission, error) {
	var disbursed []*models.ReferralCommission

	// 第 1 级：购买人返现
	if rate, ok := snap.ReferralRate(1); ok {
		c, err := s.disburseOne(ctx, tx, buyer.ID, buyer, userPackageID, 1, rate, packageAmount)
		if err != nil {
			return nil, err
		}
		if c != nil {
			disbursed = append(disbursed, c)
		}
	}

	sponsorID := buyer.SponsorID
	for level := 2; level <= ReferralMaxDepth && sponsorID != nil; level++ {
		var sponsor models.User
		err := tx.WithContext(ctx).First(&sponsor, *sponsorID).Error
		if err == gorm.ErrRecordNotFound {
			break
		}
		if err != nil {
			return nil, apperrors.ErrDatabaseError.WithError(err)
		}
		sponsorID = sponsor.SponsorID

		rate, ok := snap.ReferralRate(level)
		if !ok {
			continue
		}

		// 资格门槛：该上级必须持有运行中的矿机包
		var activeCount int64
		if err := tx.WithContext(ctx).Model(&models.UserPackage{}).
			Where("user_id = ? AND status = ?", sponsor.ID, models.UserPackageStatusActive).
			Count(&activeCount).Error; err != nil {
			return nil, apperrors.ErrDatabaseError.WithError(err)
		}
		if activeCount == 0 {
			continue
		}

		c, err := s.disburseOne(ctx, tx, sponsor.ID, buyer, userPackageID, level, rate, packageAmount)
		if err != nil {
			return nil, err
		}
		if c != nil {
			disbursed = append(disbursed, c)
		}
	}

	return disbursed, nil
}

// disburseOne 写入一条佣金记录并同步入账
func (s *ReferralService) disburseOne(
	ctx context.Context,
	tx *gorm.DB,
	beneficiaryID int64,
	buyer *models.User,
	userPackageID int64,
	level int,
	rate, packageAmount float64,
) (*models.ReferralCommission, error) {
	amount := packageAmount * rate / 100
	if amount <= 0 {
		return nil, nil
	}

	commission := &models.ReferralCommission{
		BeneficiaryID: beneficiaryID,
		SourceUserID:  buyer.ID,
		UserPackageID: userPackageID,
		Level:         level,
		PackageAmount: packageAmount,
		Rate:          rate,
		Amount:        amount,
	}
	if err := tx.WithContext(ctx).Create(commission).Error; err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}

	if _, err := s.walletSvc.Credit(ctx, tx, &wallet.CreditEntry{
		UserID:       beneficiaryID,
		Type:         models.WalletTxTypeBonus,
		Amount:       amount,
		Description:  fmt.Sprintf("%d 级推荐佣金（来自 %s）", level, buyer.Username),
		ReferenceID:  &commission.ID,
		Withdrawable: true,
	}); err != nil {
		return nil, err
	}
	return commission, nil
}

// ListByBeneficiary 获取受益人的佣金记录
func (s *ReferralService) ListByBeneficiary(ctx context.Context, beneficiaryID int64, offset, limit int) ([]*models.ReferralCommission, int64, error) {
	return s.commissionRepo.ListByBeneficiary(ctx, beneficiaryID, offset, limit)
}

// SumByBeneficiary 统计受益人的累计佣金
func (s *ReferralService) SumByBeneficiary(ctx context.Context, beneficiaryID int64) (float64, error) {
	return s.commissionRepo.SumByBeneficiary(ctx, beneficiaryID)
}
