// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

// UserPackageRepository 用户矿机包仓储
type UserPackageRepository struct {
	db *gorm.DB
}

// NewUserPackageRepository 创建用户矿机包仓储
func NewUserPackageRepository(db *gorm.DB) *UserPackageRepository {
	return &UserPackageRepository{db: db}
}

// Create 创建用户矿机包
func (r *UserPackageRepository) Create(ctx context.Context, up *models.UserPackage) error {
	return r.db.WithContext(ctx).Create(up).Error
}

// GetByID 根据 ID 获取用户矿机包
func (r *UserPackageRepository) GetByID(ctx context.Context, id int64) (*models.UserPackage, error) {
	var up models.UserPackage
	err := r.db.WithContext(ctx).Preload("Package").First(&up, id).Error
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// ListByUser 获取用户的矿机包列表
func (r *UserPackageRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.UserPackage, int64, error) {
	var list []*models.UserPackage
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UserPackage{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Package").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// HasActivePackage 用户是否持有运行中的矿机包（推荐佣金资格门槛）
func (r *UserPackageRepository) HasActivePackage(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserPackage{}).
		Where("user_id = ? AND status = ?", userID, models.UserPackageStatusActive).
		Count(&count).Error
	return count > 0, err
}

// ListLiveDailyByUser 获取用户未拔出的日结包（active 或 completed）
func (r *UserPackageRepository) ListLiveDailyByUser(ctx context.Context, userID int64) ([]*models.UserPackage, error) {
	var list []*models.UserPackage
	err := r.db.WithContext(ctx).
		Joins("JOIN mining_packages ON mining_packages.id = user_packages.package_id").
		Where("user_packages.user_id = ? AND mining_packages.mode = ?", userID, models.PackageModeDaily).
		Where("user_packages.status IN ?", []int8{models.UserPackageStatusActive, models.UserPackageStatusCompleted}).
		Preload("Package").
		Find(&list).Error
	return list, err
}

// ListDueForAccrual 获取应当结算下一周期收益的矿机包
// next_bonus_date 已到且仍在运行中的记录，按到期时间排序分批处理
func (r *UserPackageRepository) ListDueForAccrual(ctx context.Context, mode string, now time.Time, limit int) ([]*models.UserPackage, error) {
	var list []*models.UserPackage
	err := r.db.WithContext(ctx).
		Joins("JOIN mining_packages ON mining_packages.id = user_packages.package_id").
		Where("mining_packages.mode = ?", mode).
		Where("user_packages.status = ?", models.UserPackageStatusActive).
		Where("user_packages.next_bonus_date IS NOT NULL AND user_packages.next_bonus_date <= ?", now).
		Order("user_packages.next_bonus_date ASC").
		Limit(limit).
		Preload("Package").
		Find(&list).Error
	return list, err
}

// UpdateStatus 更新矿机包状态
func (r *UserPackageRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status int8) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&models.UserPackage{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// AdvanceCycle 周期结算后推进进度
// 周期号与下次结算时间一并写入；到期时由调用方传入 completed 状态
func (r *UserPackageRepository) AdvanceCycle(ctx context.Context, tx *gorm.DB, id int64, cycle int, status int8, nextBonusDate *time.Time) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&models.UserPackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_cycle":   cycle,
			"status":          status,
			"next_bonus_date": nextBonusDate,
		}).Error
}

// ResetForRestart 重置矿机包重新开始挖矿（留存/回收）
func (r *UserPackageRepository) ResetForRestart(ctx context.Context, tx *gorm.DB, id int64, purchaseDate time.Time, nextBonusDate time.Time) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&models.UserPackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          models.UserPackageStatusActive,
			"current_cycle":   1,
			"purchase_date":   purchaseDate,
			"next_bonus_date": nextBonusDate,
		}).Error
}

// CountActive 统计运行中的矿机包总数
func (r *UserPackageRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserPackage{}).
		Where("status = ?", models.UserPackageStatusActive).
		Count(&count).Error
	return count, err
}

// SumPackageVolumeBySponsor 统计某推荐人直推用户的矿机包总投入（领导奖业绩门槛）
func (r *UserPackageRepository) SumPackageVolumeBySponsor(ctx context.Context, sponsorID int64, since, until time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.UserPackage{}).
		Joins("JOIN mining_packages ON mining_packages.id = user_packages.package_id").
		Joins("JOIN users ON users.id = user_packages.user_id").
		Where("users.sponsor_id = ?", sponsorID).
		Where("user_packages.purchase_date >= ? AND user_packages.purchase_date < ?", since, until).
		Select("COALESCE(SUM(mining_packages.price), 0)").
		Row().Scan(&total)
	return total, err
}
