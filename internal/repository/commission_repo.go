// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

// CommissionRepository 推荐佣金仓储
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建推荐佣金仓储
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create 创建佣金记录
func (r *CommissionRepository) Create(ctx context.Context, commission *models.ReferralCommission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

// CreateBatch 批量创建佣金记录
func (r *CommissionRepository) CreateBatch(ctx context.Context, commissions []*models.ReferralCommission) error {
	if len(commissions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&commissions).Error
}

// ListByBeneficiary 获取受益人的佣金记录
func (r *CommissionRepository) ListByBeneficiary(ctx context.Context, beneficiaryID int64, offset, limit int) ([]*models.ReferralCommission, int64, error) {
	var list []*models.ReferralCommission
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Where("beneficiary_id = ?", beneficiaryID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// ListByUserPackage 获取某笔购买派发的全部佣金
func (r *CommissionRepository) ListByUserPackage(ctx context.Context, userPackageID int64) ([]*models.ReferralCommission, error) {
	var list []*models.ReferralCommission
	err := r.db.WithContext(ctx).
		Where("user_package_id = ?", userPackageID).
		Order("level ASC").
		Find(&list).Error
	return list, err
}

// SumByBeneficiary 统计受益人的累计佣金
func (r *CommissionRepository) SumByBeneficiary(ctx context.Context, beneficiaryID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Where("beneficiary_id = ?", beneficiaryID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// LeadershipRepository 领导奖仓储
type LeadershipRepository struct {
	db *gorm.DB
}

// NewLeadershipRepository 创建领导奖仓储
func NewLeadershipRepository(db *gorm.DB) *LeadershipRepository {
	return &LeadershipRepository{db: db}
}

// Create 创建领导奖记录
func (r *LeadershipRepository) Create(ctx context.Context, bonus *models.LeadershipBonus) error {
	return r.db.WithContext(ctx).Create(bonus).Error
}

// Exists 某（受益人, 层级, 月份）是否已结算
func (r *LeadershipRepository) Exists(ctx context.Context, beneficiaryID int64, level int, monthCycle string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LeadershipBonus{}).
		Where("beneficiary_id = ? AND level = ? AND month_cycle = ?", beneficiaryID, level, monthCycle).
		Count(&count).Error
	return count > 0, err
}

// SumByBeneficiary 统计受益人的累计领导奖
func (r *LeadershipRepository) SumByBeneficiary(ctx context.Context, beneficiaryID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.LeadershipBonus{}).
		Where("beneficiary_id = ?", beneficiaryID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// ListByBeneficiary 获取受益人的领导奖记录
func (r *LeadershipRepository) ListByBeneficiary(ctx context.Context, beneficiaryID int64, offset, limit int) ([]*models.LeadershipBonus, int64, error) {
	var list []*models.LeadershipBonus
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LeadershipBonus{}).
		Where("beneficiary_id = ?", beneficiaryID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("month_cycle DESC, level ASC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}
