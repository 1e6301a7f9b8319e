// Package finance 充值提现流程单元测试
package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jojomine/mining-platform-backend/internal/common/cache"
	"github.com/jojomine/mining-platform-backend/internal/common/config"
	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
	"github.com/jojomine/mining-platform-backend/pkg/pricefeed"
)

const feeAccountID = int64(1)

type financeTestEnv struct {
	db            *gorm.DB
	walletSvc     *wallet.Service
	settingsSvc   *settings.Service
	withdrawalSvc *WithdrawalService
	refillSvc     *RefillService
	dashboardSvc  *DashboardService
}

// 固定币价 1:1 的行情服务
func setupFinanceTest(t *testing.T) *financeTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.UserWallet{}, &models.WalletTransaction{},
		&models.WithdrawalRequest{}, &models.RefillRequest{},
		&models.UserPackage{}, &models.MiningPackage{}, &models.SystemConfig{}, &models.Admin{},
	)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price": 1.0}`))
	}))
	t.Cleanup(server.Close)

	priceClient := pricefeed.NewClient(&config.PriceFeedConfig{
		URL: server.URL, CacheSeconds: 30, TimeoutSecond: 2, FallbackPrice: 0.05,
	})

	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	refillRepo := repository.NewRefillRepository(db)
	userPackageRepo := repository.NewUserPackageRepository(db)
	settingsSvc := settings.NewService(repository.NewSystemConfigRepository(db))

	walletSvc := wallet.NewService(userRepo, ledgerRepo, settingsSvc, db, feeAccountID)

	return &financeTestEnv{
		db:            db,
		walletSvc:     walletSvc,
		settingsSvc:   settingsSvc,
		withdrawalSvc: NewWithdrawalService(withdrawalRepo, ledgerRepo, walletSvc, settingsSvc, priceClient, db, feeAccountID),
		refillSvc:     NewRefillService(refillRepo, walletSvc, db),
		dashboardSvc:  NewDashboardService(ledgerRepo, userPackageRepo),
	}
}

func (e *financeTestEnv) seedBalance(t *testing.T, userID int64, amount float64) {
	require.NoError(t, e.db.Create(&models.WalletTransaction{
		TransactionNo: wallet.NewTxNo(models.WalletTxTypeDeposit),
		UserID:        userID,
		Type:          models.WalletTxTypeDeposit,
		Amount:        amount,
		Status:        models.WalletTxStatusCompleted,
		Withdrawable:  true,
	}).Error)
}

// 提现 20、手续费 10%：usdt_amount = 18，用户扣 18，平台手续费收 2
func TestWithdrawal_FeeSplit(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	env.seedBalance(t, 10, 100.0)

	request, err := env.withdrawalSvc.Request(ctx, 10, &RequestParams{
		Amount:        20.0,
		Method:        models.WithdrawMethodUSDT,
		WalletAddress: "0xabc",
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, request.Fee)
	assert.Equal(t, 18.0, request.ActualAmount)
	assert.Equal(t, 18.0, request.UsdtAmount)

	// 申请阶段：pending 扣款 -18
	var pending models.WalletTransaction
	require.NoError(t, env.db.Where("type = ? AND reference_id = ?",
		models.WalletTxTypeWithdrawal, request.ID).First(&pending).Error)
	assert.Equal(t, -18.0, pending.Amount)
	assert.Equal(t, models.WalletTxStatusPending, pending.Status)

	require.NoError(t, env.withdrawalSvc.Approve(ctx, 9, request.ID, nil))

	// 审批后：用户余额 100 - 18 = 82，平台手续费 +2
	balance, _ := env.walletSvc.GetBalance(ctx, 10)
	assert.Equal(t, 82.0, balance)

	feeBalance, _ := env.walletSvc.GetBalance(ctx, feeAccountID)
	assert.Equal(t, 2.0, feeBalance)
}

func TestWithdrawal_BelowMinimum(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	env.seedBalance(t, 10, 100.0)

	_, err := env.withdrawalSvc.Request(ctx, 10, &RequestParams{
		Amount: 5.0, Method: models.WithdrawMethodJOJO, WalletAddress: "0xabc",
	})
	assert.ErrorIs(t, err, apperrors.ErrWithdrawBelowMinimum)
}

// 转账入账不可提现，不能用于提现
func TestWithdrawal_NonWithdrawableExcluded(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	// 全部余额来自转账入账
	require.NoError(t, env.db.Create(&models.WalletTransaction{
		TransactionNo: wallet.NewTxNo(models.WalletTxTypeTransfer),
		UserID:        10,
		Type:          models.WalletTxTypeTransfer,
		Amount:        100.0,
		Status:        models.WalletTxStatusCompleted,
		Withdrawable:  false,
	}).Error)

	_, err := env.withdrawalSvc.Request(ctx, 10, &RequestParams{
		Amount: 20.0, Method: models.WithdrawMethodJOJO, WalletAddress: "0xabc",
	})
	assert.ErrorIs(t, err, apperrors.ErrBalanceInsufficient)
}

// 拒绝提现：流水作废，额度释放，不收手续费
func TestWithdrawal_Reject(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	env.seedBalance(t, 10, 100.0)

	request, err := env.withdrawalSvc.Request(ctx, 10, &RequestParams{
		Amount: 20.0, Method: models.WithdrawMethodJOJO, WalletAddress: "0xabc",
	})
	require.NoError(t, err)

	require.NoError(t, env.withdrawalSvc.Reject(ctx, 9, request.ID, nil))

	var flipped models.WalletTransaction
	env.db.Where("type = ? AND reference_id = ?",
		models.WalletTxTypeWithdrawal, request.ID).First(&flipped)
	assert.Equal(t, models.WalletTxStatusFailed, flipped.Status)

	// 余额完整释放
	balance, _ := env.walletSvc.GetBalance(ctx, 10)
	assert.Equal(t, 100.0, balance)

	feeBalance, _ := env.walletSvc.GetBalance(ctx, feeAccountID)
	assert.Equal(t, 0.0, feeBalance)

	// 终态不可回退
	err = env.withdrawalSvc.Approve(ctx, 9, request.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalProcessed)
}

// 重复审批被拦截，手续费只入账一次
func TestWithdrawal_ApproveIdempotence(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	env.seedBalance(t, 10, 100.0)

	request, err := env.withdrawalSvc.Request(ctx, 10, &RequestParams{
		Amount: 20.0, Method: models.WithdrawMethodJOJO, WalletAddress: "0xabc",
	})
	require.NoError(t, err)

	require.NoError(t, env.withdrawalSvc.Approve(ctx, 9, request.ID, nil))
	err = env.withdrawalSvc.Approve(ctx, 9, request.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrWithdrawalProcessed)

	feeBalance, _ := env.walletSvc.GetBalance(ctx, feeAccountID)
	assert.Equal(t, 2.0, feeBalance)
}

func TestRefill_ApproveFlow(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	request, err := env.refillSvc.Request(ctx, 10, &RefillParams{
		Amount: 500.0, TransactionHash: "0xdeadbeef",
	})
	require.NoError(t, err)

	// 审批前不计入余额
	balance, _ := env.walletSvc.GetBalance(ctx, 10)
	assert.Equal(t, 0.0, balance)

	require.NoError(t, env.refillSvc.Approve(ctx, 9, request.ID, nil))

	balance, _ = env.walletSvc.GetBalance(ctx, 10)
	assert.Equal(t, 500.0, balance)

	// 重复审批被拦截
	err = env.refillSvc.Approve(ctx, 9, request.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrRefillProcessed)
}

func TestRefill_RejectFlow(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	request, err := env.refillSvc.Request(ctx, 10, &RefillParams{
		Amount: 500.0, TransactionHash: "0xdeadbeef",
	})
	require.NoError(t, err)

	require.NoError(t, env.refillSvc.Reject(ctx, 9, request.ID, nil))

	balance, _ := env.walletSvc.GetBalance(ctx, 10)
	assert.Equal(t, 0.0, balance)

	var flipped models.WalletTransaction
	env.db.Where("type = ? AND reference_id = ?",
		models.WalletTxTypeDeposit, request.ID).First(&flipped)
	assert.Equal(t, models.WalletTxStatusFailed, flipped.Status)
}

func TestDashboard_Overview(t *testing.T) {
	env := setupFinanceTest(t)
	ctx := context.Background()

	env.seedBalance(t, 10, 100.0)

	request, err := env.withdrawalSvc.Request(ctx, 10, &RequestParams{
		Amount: 20.0, Method: models.WithdrawMethodJOJO, WalletAddress: "0xabc",
	})
	require.NoError(t, err)
	require.NoError(t, env.withdrawalSvc.Approve(ctx, 9, request.ID, nil))

	overview, err := env.dashboardSvc.GetOverview(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, overview.TotalDeposits)
	assert.Equal(t, -18.0, overview.TotalWithdrawals)
	assert.Equal(t, 2.0, overview.TotalFees)
}
