// Package finance 充值提现审核服务
package finance

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/utils"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

// RefillService 充值服务
// 用户提交链上转账凭证，管理员核对后入账；拒绝时 pending 入账作废
type RefillService struct {
	refillRepo *repository.RefillRepository
	walletSvc  *wallet.Service
	db         *gorm.DB
}

// NewRefillService 创建充值服务
func NewRefillService(
	refillRepo *repository.RefillRepository,
	walletSvc *wallet.Service,
	db *gorm.DB,
) *RefillService {
	return &RefillService{
		refillRepo: refillRepo,
		walletSvc:  walletSvc,
		db:         db,
	}
}

// RefillParams 充值申请参数
type RefillParams struct {
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	TransactionHash string  `json:"transaction_hash" binding:"required"`
}

// Request 发起充值申请
// 入账先以 pending 流水记账，不计入余额，审批通过后转正
func (s *RefillService) Request(ctx context.Context, userID int64, params *RefillParams) (*models.RefillRequest, error) {
	var request *models.RefillRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		request = &models.RefillRequest{
			RefillNo:        utils.GenerateTxNo("RR"),
			UserID:          userID,
			Amount:          params.Amount,
			TransactionHash: params.TransactionHash,
			Status:          models.RequestStatusPending,
		}
		if err := tx.WithContext(ctx).Create(request).Error; err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}

		if _, err := s.walletSvc.Credit(ctx, tx, &wallet.CreditEntry{
			UserID:       userID,
			Type:         models.WalletTxTypeDeposit,
			Amount:       params.Amount,
			Description:  fmt.Sprintf("充值申请 %s", request.RefillNo),
			ReferenceID:  &request.ID,
			Status:       models.WalletTxStatusPending,
			Withdrawable: true,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Approve 审批通过：充值流水 pending -> completed
func (s *RefillService) Approve(ctx context.Context, adminID, requestID int64, notes *string) error {
	return s.process(ctx, adminID, requestID, notes, models.RequestStatusApproved, models.WalletTxStatusCompleted)
}

// Reject 审批拒绝：充值流水 pending -> failed
func (s *RefillService) Reject(ctx context.Context, adminID, requestID int64, notes *string) error {
	return s.process(ctx, adminID, requestID, notes, models.RequestStatusRejected, models.WalletTxStatusFailed)
}

func (s *RefillService) process(ctx context.Context, adminID, requestID int64, notes *string, reqStatus int8, txStatus string) error {
	request, err := s.refillRepo.GetByID(ctx, requestID)
	if err == gorm.ErrRecordNotFound {
		return apperrors.ErrRefillNotFound
	}
	if err != nil {
		return apperrors.ErrDatabaseError.WithError(err)
	}
	if request.Status != models.RequestStatusPending {
		return apperrors.ErrRefillProcessed
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.refillRepo.MarkProcessed(ctx, tx, requestID, reqStatus, adminID, notes)
		if err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		if affected == 0 {
			return apperrors.ErrRefillProcessed
		}

		err = tx.WithContext(ctx).Model(&models.WalletTransaction{}).
			Where("type = ? AND reference_id = ? AND status = ?",
				models.WalletTxTypeDeposit, requestID, models.WalletTxStatusPending).
			Update("status", txStatus).Error
		if err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

// ListByUser 用户的充值申请
func (s *RefillService) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.RefillRequest, int64, error) {
	return s.refillRepo.ListByUser(ctx, userID, offset, limit)
}

// ListPending 待审核充值申请（管理端）
func (s *RefillService) ListPending(ctx context.Context, offset, limit int) ([]*models.RefillRequest, int64, error) {
	return s.refillRepo.ListByStatus(ctx, models.RequestStatusPending, offset, limit)
}
