// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

// RefillRepository 充值申请仓储
type RefillRepository struct {
	db *gorm.DB
}

// NewRefillRepository 创建充值申请仓储
func NewRefillRepository(db *gorm.DB) *RefillRepository {
	return &RefillRepository{db: db}
}

// Create 创建充值申请
func (r *RefillRepository) Create(ctx context.Context, req *models.RefillRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID 根据 ID 获取充值申请
func (r *RefillRepository) GetByID(ctx context.Context, id int64) (*models.RefillRequest, error) {
	var req models.RefillRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByUser 获取用户的充值申请
func (r *RefillRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.RefillRequest, int64, error) {
	var list []*models.RefillRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RefillRequest{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// ListByStatus 按状态获取充值申请（管理员审核列表）
func (r *RefillRepository) ListByStatus(ctx context.Context, status int8, offset, limit int) ([]*models.RefillRequest, int64, error) {
	var list []*models.RefillRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RefillRequest{}).Where("status = ?", status)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").Order("created_at ASC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// MarkProcessed 将申请流转到终态，仅对仍处于 pending 的行生效
func (r *RefillRepository) MarkProcessed(ctx context.Context, tx *gorm.DB, id int64, status int8, operatorID int64, notes *string) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	now := time.Now()
	result := db.WithContext(ctx).Model(&models.RefillRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"operator_id":  operatorID,
			"admin_notes":  notes,
			"processed_at": now,
		})
	return result.RowsAffected, result.Error
}
