// Package commission 推荐佣金与收益结算引擎
package commission

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/logger"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// LeadershipService 领导奖结算服务
// 每月按（受益人, 层级, 月份）恰好结算一次；门槛为直推人数与
// 当月直推业绩，达标后按层级比例提成对应深度下线的当月业绩
type LeadershipService struct {
	userRepo        *repository.UserRepository
	userPackageRepo *repository.UserPackageRepository
	leadershipRepo  *repository.LeadershipRepository
	walletSvc       *wallet.Service
	settingsSvc     *settings.Service
	db              *gorm.DB
}

// NewLeadershipService 创建领导奖结算服务
func NewLeadershipService(
	userRepo *repository.UserRepository,
	userPackageRepo *repository.UserPackageRepository,
	leadershipRepo *repository.LeadershipRepository,
	walletSvc *wallet.Service,
	settingsSvc *settings.Service,
	db *gorm.DB,
) *LeadershipService {
	return &LeadershipService{
		userRepo:        userRepo,
		userPackageRepo: userPackageRepo,
		leadershipRepo:  leadershipRepo,
		walletSvc:       walletSvc,
		settingsSvc:     settingsSvc,
		db:              db,
	}
}

// SettleMonth 结算指定月份（格式 2006-01）的领导奖，返回写入的奖金笔数
func (s *LeadershipService) SettleMonth(ctx context.Context, monthCycle string) (int, error) {
	snap, err := s.settingsSvc.Load(ctx)
	if err != nil {
		return 0, apperrors.ErrDatabaseError.WithError(err)
	}
	if !snap.LeadershipEnabled() {
		return 0, nil
	}

	since, until, err := monthWindow(monthCycle)
	if err != nil {
		return 0, apperrors.ErrInvalidParams.WithError(err)
	}

	levels := snap.LeadershipLevels()
	if levels > ReferralMaxDepth {
		levels = ReferralMaxDepth
	}

	// 候选受益人：当月有下线购买记录的推荐人
	candidates, err := s.listCandidates(ctx, since, until)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, beneficiaryID := range candidates {
		n, err := s.settleBeneficiary(ctx, snap, beneficiaryID, monthCycle, since, until, levels)
		if err != nil {
			logger.Errorf("用户 %d 领导奖结算失败: %v", beneficiaryID, err)
			continue
		}
		settled += n
	}
	return settled, nil
}

// settleBeneficiary 结算单个受益人，返回写入的奖金笔数
func (s *LeadershipService) settleBeneficiary(
	ctx context.Context,
	snap *settings.Snapshot,
	beneficiaryID int64,
	monthCycle string,
	since, until time.Time,
	levels int,
) (int, error) {
	// 门槛一：直推人数
	directCount, err := s.userRepo.CountDirectReferrals(ctx, beneficiaryID)
	if err != nil {
		return 0, apperrors.ErrDatabaseError.WithError(err)
	}
	if directCount < int64(snap.MinDirectCount()) {
		return 0, nil
	}

	// 门槛二：当月直推业绩
	directVolume, err := s.userPackageRepo.SumPackageVolumeBySponsor(ctx, beneficiaryID, since, until)
	if err != nil {
		return 0, apperrors.ErrDatabaseError.WithError(err)
	}
	if directVolume < snap.DirectPackageQuota() {
		return 0, nil
	}

	// 按层级向下展开下线，逐层计算当月业绩
	currentLevel := []int64{beneficiaryID}
	settled := 0
	for level := 1; level <= levels; level++ {
		downline, err := s.listChildren(ctx, currentLevel)
		if err != nil {
			return settled, err
		}
		if len(downline) == 0 {
			break
		}
		currentLevel = downline

		rate, ok := snap.LeadershipRate(level)
		if !ok {
			continue
		}

		volume, err := s.sumVolume(ctx, downline, since, until)
		if err != nil {
			return settled, err
		}
		amount := volume * rate / 100
		if amount <= 0 {
			continue
		}

		exists, err := s.leadershipRepo.Exists(ctx, beneficiaryID, level, monthCycle)
		if err != nil {
			return settled, apperrors.ErrDatabaseError.WithError(err)
		}
		if exists {
			continue
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			bonus := &models.LeadershipBonus{
				BeneficiaryID: beneficiaryID,
				Level:         level,
				MonthCycle:    monthCycle,
				DownlineTotal: volume,
				Rate:          rate,
				Amount:        amount,
			}
			if err := tx.WithContext(ctx).Create(bonus).Error; err != nil {
				return apperrors.ErrDatabaseError.WithError(err)
			}
			// 同步镜像进账本
			if _, err := s.walletSvc.Credit(ctx, tx, &wallet.CreditEntry{
				UserID:       beneficiaryID,
				Type:         models.WalletTxTypeBonus,
				Amount:       amount,
				Description:  fmt.Sprintf("%s 第 %d 级领导奖", monthCycle, level),
				ReferenceID:  &bonus.ID,
				Withdrawable: true,
			}); err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			return settled, err
		}
		settled++
	}
	return settled, nil
}

// listCandidates 当月有下线购买记录的推荐人
func (s *LeadershipService) listCandidates(ctx context.Context, since, until time.Time) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&models.UserPackage{}).
		Joins("JOIN users ON users.id = user_packages.user_id").
		Where("user_packages.purchase_date >= ? AND user_packages.purchase_date < ?", since, until).
		Where("users.sponsor_id IS NOT NULL").
		Distinct().
		Pluck("users.sponsor_id", &ids).Error
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return ids, nil
}

// listChildren 取一批用户的全部直推下线
func (s *LeadershipService) listChildren(ctx context.Context, parentIDs []int64) ([]int64, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("sponsor_id IN ?", parentIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return ids, nil
}

// sumVolume 一批用户在窗口内的矿机包购买总额
func (s *LeadershipService) sumVolume(ctx context.Context, userIDs []int64, since, until time.Time) (float64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var total float64
	err := s.db.WithContext(ctx).Model(&models.UserPackage{}).
		Joins("JOIN mining_packages ON mining_packages.id = user_packages.package_id").
		Where("user_packages.user_id IN ?", userIDs).
		Where("user_packages.purchase_date >= ? AND user_packages.purchase_date < ?", since, until).
		Select("COALESCE(SUM(mining_packages.price), 0)").
		Row().Scan(&total)
	if err != nil {
		return 0, apperrors.ErrDatabaseError.WithError(err)
	}
	return total, nil
}

// ListByBeneficiary 获取受益人的领导奖记录
func (s *LeadershipService) ListByBeneficiary(ctx context.Context, beneficiaryID int64, offset, limit int) ([]*models.LeadershipBonus, int64, error) {
	return s.leadershipRepo.ListByBeneficiary(ctx, beneficiaryID, offset, limit)
}

// monthWindow 把 2006-01 形式的月份换算成起止时间
func monthWindow(monthCycle string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", monthCycle)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}
