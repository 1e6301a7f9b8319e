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
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
	"github.com/jojomine/mining-platform-backend/pkg/pricefeed"
)

// WithdrawalService 提现服务
// 申请时冻结在途扣款（pending 流水），管理员恰好一次地审批：
// 通过则流水转正、手续费入平台账户；拒绝则流水作废、额度自动释放
type WithdrawalService struct {
	withdrawalRepo *repository.WithdrawalRepository
	ledgerRepo     *repository.LedgerRepository
	walletSvc      *wallet.Service
	settingsSvc    *settings.Service
	priceClient    *pricefeed.Client
	db             *gorm.DB
	feeUserID      int64
}

// NewWithdrawalService 创建提现服务
func NewWithdrawalService(
	withdrawalRepo *repository.WithdrawalRepository,
	ledgerRepo *repository.LedgerRepository,
	walletSvc *wallet.Service,
	settingsSvc *settings.Service,
	priceClient *pricefeed.Client,
	db *gorm.DB,
	feeUserID int64,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		ledgerRepo:     ledgerRepo,
		walletSvc:      walletSvc,
		settingsSvc:    settingsSvc,
		priceClient:    priceClient,
		db:             db,
		feeUserID:      feeUserID,
	}
}

// RequestParams 提现申请参数
type RequestParams struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Method        string  `json:"method" binding:"required,oneof=usdt jojo"`
	WalletAddress string  `json:"wallet_address" binding:"required"`
}

// Request 发起提现申请
// 手续费从申请金额中扣除：实际到账 = 金额 - 手续费；
// USDT 方式按实时币价折算到账 USDT 数量
func (s *WithdrawalService) Request(ctx context.Context, userID int64, params *RequestParams) (*models.WithdrawalRequest, error) {
	snap, err := s.settingsSvc.Load(ctx)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	if params.Amount < snap.MinWithdraw() {
		return nil, apperrors.ErrWithdrawBelowMinimum
	}

	fee := params.Amount * snap.WithdrawFeeRate() / 100
	actual := params.Amount - fee

	var usdtAmount float64
	if params.Method == models.WithdrawMethodUSDT {
		usdtAmount = actual * s.priceClient.GetPrice(ctx)
	}

	var request *models.WithdrawalRequest
	err = s.walletSvc.WithWalletLock(ctx, userID, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			request = &models.WithdrawalRequest{
				WithdrawalNo:  utils.GenerateTxNo("WR"),
				UserID:        userID,
				Amount:        params.Amount,
				Fee:           fee,
				ActualAmount:  actual,
				UsdtAmount:    usdtAmount,
				Method:        params.Method,
				WalletAddress: params.WalletAddress,
				Status:        models.RequestStatusPending,
			}
			if err := tx.WithContext(ctx).Create(request).Error; err != nil {
				return apperrors.ErrDatabaseError.WithError(err)
			}

			// 在途扣款：pending 流水冻结额度，审批时一次性转正或作废
			if _, err := s.walletSvc.Spend(ctx, tx, &wallet.SpendEntry{
				UserID:              userID,
				Type:                models.WalletTxTypeWithdrawal,
				Amount:              actual,
				Description:         fmt.Sprintf("提现申请 %s", request.WithdrawalNo),
				ReferenceID:         &request.ID,
				Status:              models.WalletTxStatusPending,
				RequireWithdrawable: true,
			}); err != nil {
				return err
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Approve 审批通过
// 提现流水 pending -> completed，手续费入平台账户
func (s *WithdrawalService) Approve(ctx context.Context, adminID, requestID int64, notes *string) error {
	request, err := s.withdrawalRepo.GetByID(ctx, requestID)
	if err == gorm.ErrRecordNotFound {
		return apperrors.ErrWithdrawalNotFound
	}
	if err != nil {
		return apperrors.ErrDatabaseError.WithError(err)
	}
	if request.Status != models.RequestStatusPending {
		return apperrors.ErrWithdrawalProcessed
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.withdrawalRepo.MarkProcessed(ctx, tx, requestID, models.RequestStatusApproved, adminID, notes)
		if err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		if affected == 0 {
			return apperrors.ErrWithdrawalProcessed
		}

		if err := s.flipLedgerStatus(ctx, tx, requestID, models.WalletTxStatusCompleted); err != nil {
			return err
		}

		if request.Fee > 0 {
			if _, err := s.walletSvc.Credit(ctx, tx, &wallet.CreditEntry{
				UserID:       s.feeUserID,
				Type:         models.WalletTxTypeWithdrawalCharge,
				Amount:       request.Fee,
				Description:  fmt.Sprintf("提现手续费 %s", request.WithdrawalNo),
				ReferenceID:  &request.ID,
				Withdrawable: true,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reject 审批拒绝
// 提现流水 pending -> failed，冻结额度自动释放，不收手续费
func (s *WithdrawalService) Reject(ctx context.Context, adminID, requestID int64, notes *string) error {
	request, err := s.withdrawalRepo.GetByID(ctx, requestID)
	if err == gorm.ErrRecordNotFound {
		return apperrors.ErrWithdrawalNotFound
	}
	if err != nil {
		return apperrors.ErrDatabaseError.WithError(err)
	}
	if request.Status != models.RequestStatusPending {
		return apperrors.ErrWithdrawalProcessed
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.withdrawalRepo.MarkProcessed(ctx, tx, requestID, models.RequestStatusRejected, adminID, notes)
		if err != nil {
			return apperrors.ErrDatabaseError.WithError(err)
		}
		if affected == 0 {
			return apperrors.ErrWithdrawalProcessed
		}
		return s.flipLedgerStatus(ctx, tx, requestID, models.WalletTxStatusFailed)
	})
}

// flipLedgerStatus 翻转申请关联的 pending 提现流水
func (s *WithdrawalService) flipLedgerStatus(ctx context.Context, tx *gorm.DB, requestID int64, status string) error {
	err := tx.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("type = ? AND reference_id = ? AND status = ?",
			models.WalletTxTypeWithdrawal, requestID, models.WalletTxStatusPending).
		Update("status", status).Error
	if err != nil {
		return apperrors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ListByUser 用户的提现申请
func (s *WithdrawalService) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	return s.withdrawalRepo.ListByUser(ctx, userID, offset, limit)
}

// ListPending 待审核提现申请（管理端）
func (s *WithdrawalService) ListPending(ctx context.Context, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	return s.withdrawalRepo.ListByStatus(ctx, models.RequestStatusPending, offset, limit)
}
