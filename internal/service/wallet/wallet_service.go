// Package wallet 钱包账本服务
//
// 余额唯一事实来源是账本：balance = SUM(amount) over completed 流水。
// user_wallets 表只充当带乐观锁的扣款闸口，所有扣款路径必须经过
// Spend：Redis 互斥锁 + version 条件更新，冲突即中止，保证并发扣款
// 不会把余额打负。
package wallet

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/common/cache"
	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/utils"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
)

const (
	walletLockTTL     = 5 * time.Second
	walletLockRetries = 20
)

// txNoPrefixes 各流水类型的单号前缀
var txNoPrefixes = map[string]string{
	models.WalletTxTypeDeposit:          "DP",
	models.WalletTxTypeWithdrawal:       "WD",
	models.WalletTxTypePurchase:         "PU",
	models.WalletTxTypeBonus:            "BN",
	models.WalletTxTypeRefund:           "RF",
	models.WalletTxTypeTransfer:         "TR",
	models.WalletTxTypeTransferCharge:   "TC",
	models.WalletTxTypeWithdrawalCharge: "WC",
}

// Service 钱包服务
type Service struct {
	userRepo    *repository.UserRepository
	ledgerRepo  *repository.LedgerRepository
	settingsSvc *settings.Service
	db          *gorm.DB
	feeUserID   int64 // 手续费归集账户
}

// NewService 创建钱包服务
func NewService(
	userRepo *repository.UserRepository,
	ledgerRepo *repository.LedgerRepository,
	settingsSvc *settings.Service,
	db *gorm.DB,
	feeUserID int64,
) *Service {
	return &Service{
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
		settingsSvc: settingsSvc,
		db:          db,
		feeUserID:   feeUserID,
	}
}

// GetBalance 获取用户余额
func (s *Service) GetBalance(ctx context.Context, userID int64) (float64, error) {
	return s.ledgerRepo.SumCompletedByUser(ctx, userID)
}

// GetWithdrawableBalance 获取用户可提现余额
func (s *Service) GetWithdrawableBalance(ctx context.Context, userID int64) (float64, error) {
	return s.ledgerRepo.SumWithdrawableByUser(ctx, userID)
}

// ListTransactions 获取用户流水
func (s *Service) ListTransactions(ctx context.Context, userID int64, txType string, offset, limit int) ([]*models.WalletTransaction, int64, error) {
	return s.ledgerRepo.List(ctx, &repository.LedgerFilter{
		UserID: &userID,
		Type:   txType,
	}, offset, limit)
}

// NewTxNo 生成流水单号
func NewTxNo(txType string) string {
	prefix, ok := txNoPrefixes[txType]
	if !ok {
		prefix = "TX"
	}
	return utils.GenerateTxNo(prefix)
}

// WithWalletLock 持有用户钱包互斥锁执行 fn
func (s *Service) WithWalletLock(ctx context.Context, userID int64, fn func() error) error {
	unlock, err := cache.Lock(ctx, fmt.Sprintf("wallet:lock:%d", userID), walletLockTTL, walletLockRetries)
	if err != nil {
		return apperrors.ErrWalletConflict
	}
	defer unlock()
	return fn()
}

// CreditEntry 入账参数
type CreditEntry struct {
	UserID       int64
	Type         string
	Amount       float64 // 正数
	Description  string
	ReferenceID  *int64
	Status       string // 为空默认 completed
	Withdrawable bool
}

// Credit 在事务内追加一笔入账流水
func (s *Service) Credit(ctx context.Context, tx *gorm.DB, entry *CreditEntry) (*models.WalletTransaction, error) {
	status := entry.Status
	if status == "" {
		status = models.WalletTxStatusCompleted
	}
	record := &models.WalletTransaction{
		TransactionNo: NewTxNo(entry.Type),
		UserID:        entry.UserID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		Description:   entry.Description,
		ReferenceID:   entry.ReferenceID,
		Status:        status,
		Withdrawable:  entry.Withdrawable,
	}
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return record, nil
}

// SpendEntry 扣款参数
type SpendEntry struct {
	UserID      int64
	Type        string
	Amount      float64 // 正数，写入账本时取负
	Description string
	ReferenceID *int64
	Status      string // 为空默认 completed；提现申请写 pending
	// Withdrawable 约束扣款来源：true 时要求可提现余额充足（提现路径）
	RequireWithdrawable bool
}

// Spend 在事务内执行一笔扣款
// 余额校验、乐观锁闸口与账本写入必须在同一事务内完成；
// 调用方需已持有该用户的钱包互斥锁
func (s *Service) Spend(ctx context.Context, tx *gorm.DB, entry *SpendEntry) (*models.WalletTransaction, error) {
	if entry.Amount <= 0 {
		return nil, apperrors.ErrInvalidParams
	}

	wallet, err := s.ensureWallet(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}

	balance, err := s.sumCompleted(ctx, tx, entry.UserID, entry.RequireWithdrawable)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	// pending 扣款（在途提现）同样占用余额
	pending, err := s.sumPendingDebits(ctx, tx, entry.UserID)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	available := balance + pending
	if available < entry.Amount {
		return nil, apperrors.ErrBalanceInsufficient
	}

	// 乐观锁闸口：version 不匹配说明并发扣款，整个事务回滚
	result := tx.WithContext(ctx).Model(&models.UserWallet{}).
		Where("user_id = ? AND version = ?", entry.UserID, wallet.Version).
		Updates(map[string]interface{}{
			"version": wallet.Version + 1,
			"balance": available - entry.Amount,
		})
	if result.Error != nil {
		return nil, apperrors.ErrDatabaseError.WithError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrWalletConflict
	}

	status := entry.Status
	if status == "" {
		status = models.WalletTxStatusCompleted
	}
	record := &models.WalletTransaction{
		TransactionNo: NewTxNo(entry.Type),
		UserID:        entry.UserID,
		Type:          entry.Type,
		Amount:        -entry.Amount,
		Description:   entry.Description,
		ReferenceID:   entry.ReferenceID,
		Status:        status,
		Withdrawable:  true,
	}
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return record, nil
}

// TransferResult 转账结果
type TransferResult struct {
	Amount  float64 `json:"amount"`
	Fee     float64 `json:"fee"`
	ToUser  string  `json:"to_user"`
	TransNo string  `json:"transaction_no"`
}

// Transfer 用户间转账
// 入账方的流水标记为不可提现；手续费归集到平台手续费账户
func (s *Service) Transfer(ctx context.Context, fromID int64, toUsername string, amount float64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidParams
	}

	toUser, err := s.userRepo.GetByUsername(ctx, toUsername)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}
	if toUser.ID == fromID {
		return nil, apperrors.ErrTransferToSelf
	}

	snap, err := s.settingsSvc.Load(ctx)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	if max := snap.MaxTransfer(); max > 0 && amount > max {
		return nil, apperrors.ErrTransferLimitExceed
	}
	fee := amount * snap.TransferFeeRate() / 100

	var result *TransferResult
	err = s.WithWalletLock(ctx, fromID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			out, err := s.Spend(ctx, tx, &SpendEntry{
				UserID:      fromID,
				Type:        models.WalletTxTypeTransfer,
				Amount:      amount,
				Description: fmt.Sprintf("转账给 %s", toUser.Username),
			})
			if err != nil {
				return err
			}
			if fee > 0 {
				if _, err := s.Spend(ctx, tx, &SpendEntry{
					UserID:      fromID,
					Type:        models.WalletTxTypeTransferCharge,
					Amount:      fee,
					Description: "转账手续费",
					ReferenceID: &out.ID,
				}); err != nil {
					return err
				}
				if _, err := s.Credit(ctx, tx, &CreditEntry{
					UserID:       s.feeUserID,
					Type:         models.WalletTxTypeTransferCharge,
					Amount:       fee,
					Description:  "转账手续费收入",
					ReferenceID:  &out.ID,
					Withdrawable: true,
				}); err != nil {
					return err
				}
			}
			if _, err := s.Credit(ctx, tx, &CreditEntry{
				UserID:       toUser.ID,
				Type:         models.WalletTxTypeTransfer,
				Amount:       amount,
				Description:  "转账入账",
				ReferenceID:  &out.ID,
				Withdrawable: false,
			}); err != nil {
				return err
			}
			result = &TransferResult{
				Amount:  amount,
				Fee:     fee,
				ToUser:  toUser.Username,
				TransNo: out.TransactionNo,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ensureWallet 获取用户钱包聚合行，不存在则创建
func (s *Service) ensureWallet(ctx context.Context, tx *gorm.DB, userID int64) (*models.UserWallet, error) {
	var wallet models.UserWallet
	err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err == gorm.ErrRecordNotFound {
		wallet = models.UserWallet{UserID: userID}
		if err := tx.WithContext(ctx).Create(&wallet).Error; err != nil {
			return nil, apperrors.ErrDatabaseError.WithError(err)
		}
		return &wallet, nil
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return &wallet, nil
}

// sumCompleted 事务内求余额
func (s *Service) sumCompleted(ctx context.Context, tx *gorm.DB, userID int64, withdrawableOnly bool) (float64, error) {
	var total float64
	query := tx.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("user_id = ? AND status = ?", userID, models.WalletTxStatusCompleted)
	if withdrawableOnly {
		query = query.Where("withdrawable = ?", true)
	}
	err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total)
	return total, err
}

// sumPendingDebits 事务内求在途扣款（负数之和）
func (s *Service) sumPendingDebits(ctx context.Context, tx *gorm.DB, userID int64) (float64, error) {
	var total float64
	err := tx.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("user_id = ? AND status = ? AND amount < 0", userID, models.WalletTxStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}
