// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
)

// PackageRepository 矿机包目录仓储
type PackageRepository struct {
	db *gorm.DB
}

// NewPackageRepository 创建矿机包目录仓储
func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// Create 创建矿机包
func (r *PackageRepository) Create(ctx context.Context, pkg *models.MiningPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

// GetByID 根据 ID 获取矿机包
func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*models.MiningPackage, error) {
	var pkg models.MiningPackage
	err := r.db.WithContext(ctx).First(&pkg, id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetActive 获取所有上架矿机包
func (r *PackageRepository) GetActive(ctx context.Context) ([]*models.MiningPackage, error) {
	var packages []*models.MiningPackage
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PackageStatusActive).
		Order("sort DESC, id ASC").
		Find(&packages).Error
	if err != nil {
		return nil, err
	}
	return packages, nil
}

// List 分页获取矿机包
func (r *PackageRepository) List(ctx context.Context, offset, limit int) ([]*models.MiningPackage, int64, error) {
	var packages []*models.MiningPackage
	var total int64

	query := r.db.WithContext(ctx).Model(&models.MiningPackage{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("sort DESC, id ASC").Offset(offset).Limit(limit).Find(&packages).Error
	if err != nil {
		return nil, 0, err
	}

	return packages, total, nil
}

// Update 更新矿机包
func (r *PackageRepository) Update(ctx context.Context, pkg *models.MiningPackage) error {
	return r.db.WithContext(ctx).Save(pkg).Error
}

// UpdateStatus 更新矿机包上下架状态
func (r *PackageRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.MiningPackage{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete 删除矿机包
// 已有购买记录的矿机包不可删除，保证目录条目对历史订单不可变
func (r *PackageRepository) Delete(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserPackage{}).
		Where("package_id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.ErrPackageReferenced
	}
	return r.db.WithContext(ctx).Delete(&models.MiningPackage{}, id).Error
}
