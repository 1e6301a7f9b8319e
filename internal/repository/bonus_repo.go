// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

// BonusRepository 周期收益记录仓储
type BonusRepository struct {
	db *gorm.DB
}

// NewBonusRepository 创建周期收益仓储
func NewBonusRepository(db *gorm.DB) *BonusRepository {
	return &BonusRepository{db: db}
}

// Create 创建收益记录
func (r *BonusRepository) Create(ctx context.Context, record *models.BonusRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// SumByUserPackage 统计某矿机包累计已挖出金额
func (r *BonusRepository) SumByUserPackage(ctx context.Context, userPackageID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.BonusRecord{}).
		Where("user_package_id = ?", userPackageID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// SumByUser 统计用户全部矿机包累计收益
func (r *BonusRepository) SumByUser(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.BonusRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// ListByUserPackage 获取某矿机包的收益记录
func (r *BonusRepository) ListByUserPackage(ctx context.Context, userPackageID int64, offset, limit int) ([]*models.BonusRecord, int64, error) {
	var list []*models.BonusRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.BonusRecord{}).
		Where("user_package_id = ?", userPackageID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("cycle DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// DeleteByUserPackage 清空某矿机包的收益记录（retain/recycle 重置，随事务执行）
func (r *BonusRepository) DeleteByUserPackage(ctx context.Context, tx *gorm.DB, userPackageID int64) error {
	return tx.WithContext(ctx).
		Where("user_package_id = ?", userPackageID).
		Delete(&models.BonusRecord{}).Error
}
