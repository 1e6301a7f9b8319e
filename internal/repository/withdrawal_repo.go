// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

// WithdrawalRepository 提现申请仓储
type WithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现申请仓储
func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create 创建提现申请
func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID 根据 ID 获取提现申请
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByUser 获取用户的提现申请
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	var list []*models.WithdrawalRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// ListByStatus 按状态获取提现申请（管理员审核列表）
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status int8, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	var list []*models.WithdrawalRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).Where("status = ?", status)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").Order("created_at ASC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// CountPendingByUser 统计用户待处理提现数
func (r *WithdrawalRepository) CountPendingByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("user_id = ? AND status = ?", userID, models.RequestStatusPending).
		Count(&count).Error
	return count, err
}

// MarkProcessed 将申请流转到终态
// 仅对仍处于 pending 的行生效，返回受影响行数供调用方判断是否已被处理
func (r *WithdrawalRepository) MarkProcessed(ctx context.Context, tx *gorm.DB, id int64, status int8, operatorID int64, notes *string) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	now := time.Now()
	result := db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"operator_id":  operatorID,
			"admin_notes":  notes,
			"processed_at": now,
		})
	return result.RowsAffected, result.Error
}
