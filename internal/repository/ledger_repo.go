// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

// LedgerRepository 钱包账本仓储
// 账本只追加；余额永远由 completed 流水实时求和得出
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建账本仓储
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create 追加流水
func (r *LedgerRepository) Create(ctx context.Context, tx *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID 根据 ID 获取流水
func (r *LedgerRepository) GetByID(ctx context.Context, id int64) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	err := r.db.WithContext(ctx).First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// SumCompletedByUser 用户余额（completed 流水之和）
func (r *LedgerRepository) SumCompletedByUser(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("user_id = ? AND status = ?", userID, models.WalletTxStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// SumWithdrawableByUser 用户可提现余额
// 转账入账的流水在写入时被标记为不可提现，求和时排除
func (r *LedgerRepository) SumWithdrawableByUser(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("user_id = ? AND status = ? AND withdrawable = ?",
			userID, models.WalletTxStatusCompleted, true).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// UpdateStatusByReference 按关联单据翻转 pending 流水状态
// 账本唯一允许的改写：充值/提现审批时 pending -> completed/failed，
// 且仅对仍处于 pending 的行生效
func (r *LedgerRepository) UpdateStatusByReference(ctx context.Context, txType string, referenceID int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("type = ? AND reference_id = ? AND status = ?",
			txType, referenceID, models.WalletTxStatusPending).
		Update("status", status).Error
}

// LedgerFilter 流水查询过滤条件
type LedgerFilter struct {
	UserID    *int64
	Type      string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// List 获取流水列表
func (r *LedgerRepository) List(ctx context.Context, filter *LedgerFilter, offset, limit int) ([]*models.WalletTransaction, int64, error) {
	var list []*models.WalletTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{})

	if filter != nil {
		if filter.UserID != nil {
			query = query.Where("user_id = ?", *filter.UserID)
		}
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.StartDate != nil {
			query = query.Where("created_at >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("created_at <= ?", *filter.EndDate)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// SumByType 按类型求和（财务概览）
func (r *LedgerRepository) SumByType(ctx context.Context, txType string, startDate, endDate *time.Time) (float64, error) {
	var total float64
	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("type = ? AND status = ?", txType, models.WalletTxStatusCompleted)
	if startDate != nil {
		query = query.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("created_at <= ?", *endDate)
	}
	err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total)
	return total, err
}

// SumCreditsByType 按类型统计入账侧（amount > 0）总额
// 手续费等双边记账的类型正负相抵，净额统计不出收入，只看入账侧
func (r *LedgerRepository) SumCreditsByType(ctx context.Context, txType string, startDate, endDate *time.Time) (float64, error) {
	var total float64
	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("type = ? AND status = ? AND amount > 0", txType, models.WalletTxStatusCompleted)
	if startDate != nil {
		query = query.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("created_at <= ?", *endDate)
	}
	err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total)
	return total, err
}

// SumByUserAndType 按用户和类型求和（用户收益汇总）
func (r *LedgerRepository) SumByUserAndType(ctx context.Context, userID int64, txType string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("user_id = ? AND type = ? AND status = ?",
			userID, txType, models.WalletTxStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}

// CountByTypeAndReference 统计某单据关联的某类型流水数
func (r *LedgerRepository) CountByTypeAndReference(ctx context.Context, txType string, referenceID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("type = ? AND reference_id = ?", txType, referenceID).
		Count(&count).Error
	return count, err
}
