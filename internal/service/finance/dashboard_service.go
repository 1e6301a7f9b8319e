// Package finance 充值提现审核服务
package finance

import (
	"context"
	"time"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
)

// DashboardService 财务概览服务（管理端）
type DashboardService struct {
	ledgerRepo      *repository.LedgerRepository
	userPackageRepo *repository.UserPackageRepository
}

// NewDashboardService 创建财务概览服务
func NewDashboardService(
	ledgerRepo *repository.LedgerRepository,
	userPackageRepo *repository.UserPackageRepository,
) *DashboardService {
	return &DashboardService{
		ledgerRepo:      ledgerRepo,
		userPackageRepo: userPackageRepo,
	}
}

// Overview 财务概览
type Overview struct {
	TotalDeposits    float64 `json:"total_deposits"`
	TotalWithdrawals float64 `json:"total_withdrawals"`
	TotalPurchases   float64 `json:"total_purchases"`
	TotalBonuses     float64 `json:"total_bonuses"`
	TotalFees        float64 `json:"total_fees"`
	ActivePackages   int64   `json:"active_packages"`
}

// GetOverview 统计指定时间窗口的财务概览，startDate/endDate 可为空
func (s *DashboardService) GetOverview(ctx context.Context, startDate, endDate *time.Time) (*Overview, error) {
	overview := &Overview{}

	sums := []struct {
		txType string
		dest   *float64
	}{
		{models.WalletTxTypeDeposit, &overview.TotalDeposits},
		{models.WalletTxTypeWithdrawal, &overview.TotalWithdrawals},
		{models.WalletTxTypePurchase, &overview.TotalPurchases},
		{models.WalletTxTypeBonus, &overview.TotalBonuses},
	}
	for _, item := range sums {
		total, err := s.ledgerRepo.SumByType(ctx, item.txType, startDate, endDate)
		if err != nil {
			return nil, apperrors.ErrDatabaseError.WithError(err)
		}
		*item.dest = total
	}

	// 手续费双边记账正负相抵，收入只统计入账侧
	withdrawCharge, err := s.ledgerRepo.SumCreditsByType(ctx, models.WalletTxTypeWithdrawalCharge, startDate, endDate)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	transferCharge, err := s.ledgerRepo.SumCreditsByType(ctx, models.WalletTxTypeTransferCharge, startDate, endDate)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	overview.TotalFees = withdrawCharge + transferCharge

	active, err := s.userPackageRepo.CountActive(ctx)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	overview.ActivePackages = active

	return overview, nil
}
