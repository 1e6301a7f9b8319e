// Package mining 购买流程单元测试
package mining

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jojomine/mining-platform-backend/internal/common/cache"
	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/commission"
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

type miningTestEnv struct {
	db           *gorm.DB
	walletSvc    *wallet.Service
	purchaseSvc  *PurchaseService
	lifecycleSvc *LifecycleService
}

func setupMiningTest(t *testing.T) *miningTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{}, &models.UserWallet{}, &models.WalletTransaction{},
		&models.MiningPackage{}, &models.UserPackage{}, &models.BonusRecord{},
		&models.ReferralCommission{}, &models.SystemConfig{},
	)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	userRepo := repository.NewUserRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	userPackageRepo := repository.NewUserPackageRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	bonusRepo := repository.NewBonusRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	settingsSvc := settings.NewService(repository.NewSystemConfigRepository(db))

	walletSvc := wallet.NewService(userRepo, ledgerRepo, settingsSvc, db, 1)
	referralSvc := commission.NewReferralService(commissionRepo, walletSvc)

	return &miningTestEnv{
		db:           db,
		walletSvc:    walletSvc,
		purchaseSvc:  NewPurchaseService(userRepo, packageRepo, userPackageRepo, walletSvc, referralSvc, settingsSvc, db, 200, 12),
		lifecycleSvc: NewLifecycleService(userRepo, userPackageRepo, bonusRepo, walletSvc, db),
	}
}

func (e *miningTestEnv) seedUser(t *testing.T, username string, sponsorID *int64, status int8) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		InviteCode:   username + "-code",
		SponsorID:    sponsorID,
		Status:       status,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *miningTestEnv) seedBalance(t *testing.T, userID int64, amount float64) {
	require.NoError(t, e.db.Create(&models.WalletTransaction{
		TransactionNo: wallet.NewTxNo(models.WalletTxTypeDeposit),
		UserID:        userID,
		Type:          models.WalletTxTypeDeposit,
		Amount:        amount,
		Status:        models.WalletTxStatusCompleted,
		Withdrawable:  true,
	}).Error)
}

func (e *miningTestEnv) seedPackage(t *testing.T, mode string, price float64, maturity int) *models.MiningPackage {
	pkg := &models.MiningPackage{
		Name:           "矿机包",
		Price:          price,
		Mode:           mode,
		MaturityPeriod: maturity,
		Status:         models.PackageStatusActive,
	}
	if mode == models.PackageModeDaily {
		pkg.DailyPercentage = 1.0
	}
	require.NoError(t, e.db.Create(pkg).Error)
	return pkg
}

func (e *miningTestEnv) seedActivePackage(t *testing.T, userID, packageID int64) *models.UserPackage {
	up := &models.UserPackage{
		UserID: userID, PackageID: packageID,
		Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 12, PurchaseDate: time.Now(),
	}
	require.NoError(t, e.db.Create(up).Error)
	return up
}

// 推荐链 A -> B -> C，费率 {2:10%, 3:1%}：
// B（直接推荐人，第 2 级）得 10，C（第 3 级）得 1，A 余额 150 -> 50
func TestPurchase_ReferralCascade(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	c := env.seedUser(t, "c", nil, models.UserStatusActive)
	b := env.seedUser(t, "b", &c.ID, models.UserStatusActive)
	a := env.seedUser(t, "a", &b.ID, models.UserStatusActive)

	pkg := env.seedPackage(t, models.PackageModeMonthly, 100.0, 12)

	// B、C 各持有一个在挖矿机包（资格门槛）
	env.seedActivePackage(t, b.ID, pkg.ID)
	env.seedActivePackage(t, c.ID, pkg.ID)

	env.seedBalance(t, a.ID, 150.0)

	result, err := env.purchaseSvc.Purchase(ctx, a.ID, pkg.ID)
	require.NoError(t, err)
	require.Equal(t, 2, len(result.Commissions))

	assert.Equal(t, b.ID, result.Commissions[0].BeneficiaryID)
	assert.Equal(t, 2, result.Commissions[0].Level)
	assert.Equal(t, 10.0, result.Commissions[0].Amount)

	assert.Equal(t, c.ID, result.Commissions[1].BeneficiaryID)
	assert.Equal(t, 3, result.Commissions[1].Level)
	assert.Equal(t, 1.0, result.Commissions[1].Amount)

	aBalance, _ := env.walletSvc.GetBalance(ctx, a.ID)
	assert.Equal(t, 50.0, aBalance)

	bBalance, _ := env.walletSvc.GetBalance(ctx, b.ID)
	assert.Equal(t, 10.0, bBalance)

	cBalance, _ := env.walletSvc.GetBalance(ctx, c.ID)
	assert.Equal(t, 1.0, cBalance)
}

// 推荐链深于 5 级时派发止步于第 5 级：
// 7 人链 a -> b -> ... -> f -> g 全员合格，仅 2~5 级（b/c/d/e）得佣金
func TestPurchase_CascadeDepthCap(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	g := env.seedUser(t, "g", nil, models.UserStatusActive)
	f := env.seedUser(t, "f", &g.ID, models.UserStatusActive)
	e := env.seedUser(t, "e", &f.ID, models.UserStatusActive)
	d := env.seedUser(t, "d", &e.ID, models.UserStatusActive)
	c := env.seedUser(t, "c", &d.ID, models.UserStatusActive)
	b := env.seedUser(t, "b", &c.ID, models.UserStatusActive)
	a := env.seedUser(t, "a", &b.ID, models.UserStatusActive)

	pkg := env.seedPackage(t, models.PackageModeMonthly, 100.0, 12)
	for _, upline := range []*models.User{b, c, d, e, f, g} {
		env.seedActivePackage(t, upline.ID, pkg.ID)
	}
	env.seedBalance(t, a.ID, 100.0)

	result, err := env.purchaseSvc.Purchase(ctx, a.ID, pkg.ID)
	require.NoError(t, err)
	require.Equal(t, 4, len(result.Commissions))

	wantBeneficiaries := []int64{b.ID, c.ID, d.ID, e.ID}
	wantAmounts := []float64{10.0, 1.0, 1.0, 1.0}
	for i, comm := range result.Commissions {
		assert.Equal(t, wantBeneficiaries[i], comm.BeneficiaryID)
		assert.Equal(t, i+2, comm.Level)
		assert.Equal(t, wantAmounts[i], comm.Amount)
	}

	// 第 5 级之外的祖先分文未得
	for _, beyond := range []*models.User{f, g} {
		balance, _ := env.walletSvc.GetBalance(ctx, beyond.ID)
		assert.Equal(t, 0.0, balance)

		var count int64
		env.db.Model(&models.ReferralCommission{}).
			Where("beneficiary_id = ?", beyond.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	}
}

// 余额不足的购买整体失败：不产生任何流水与订单
func TestPurchase_InsufficientBalance(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	pkg := env.seedPackage(t, models.PackageModeMonthly, 100.0, 12)
	env.seedBalance(t, a.ID, 99.0)

	_, err := env.purchaseSvc.Purchase(ctx, a.ID, pkg.ID)
	assert.ErrorIs(t, err, apperrors.ErrBalanceInsufficient)

	var upCount, txCount int64
	env.db.Model(&models.UserPackage{}).Where("user_id = ?", a.ID).Count(&upCount)
	env.db.Model(&models.WalletTransaction{}).
		Where("user_id = ? AND type = ?", a.ID, models.WalletTxTypePurchase).Count(&txCount)
	assert.Equal(t, int64(0), upCount)
	assert.Equal(t, int64(0), txCount)
}

// 无在挖矿机包的上级被跳过，继续向更上层派发
func TestPurchase_SkipsUnqualifiedUpline(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	c := env.seedUser(t, "c", nil, models.UserStatusActive)
	b := env.seedUser(t, "b", &c.ID, models.UserStatusActive)
	a := env.seedUser(t, "a", &b.ID, models.UserStatusActive)

	pkg := env.seedPackage(t, models.PackageModeMonthly, 100.0, 12)
	// 只有 C 持有在挖矿机包，B 不合格
	env.seedActivePackage(t, c.ID, pkg.ID)
	env.seedBalance(t, a.ID, 150.0)

	result, err := env.purchaseSvc.Purchase(ctx, a.ID, pkg.ID)
	require.NoError(t, err)
	require.Equal(t, 1, len(result.Commissions))
	assert.Equal(t, c.ID, result.Commissions[0].BeneficiaryID)
	assert.Equal(t, 3, result.Commissions[0].Level)

	bBalance, _ := env.walletSvc.GetBalance(ctx, b.ID)
	assert.Equal(t, 0.0, bBalance)
}

// 下架矿机包不可购买
func TestPurchase_OffShelf(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	pkg := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)
	env.db.Model(pkg).Update("status", models.PackageStatusInactive)
	env.seedBalance(t, a.ID, 200.0)

	_, err := env.purchaseSvc.Purchase(ctx, a.ID, pkg.ID)
	assert.ErrorIs(t, err, apperrors.ErrPackageOffShelf)
}

// 未激活用户购买日结包：账号复活，其他存活日结包被强制拔出
func TestPurchase_ReactivationWithdrawsStaleDaily(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusInactive)
	daily := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)

	stale := &models.UserPackage{
		UserID: a.ID, PackageID: daily.ID,
		Status: models.UserPackageStatusCompleted,
		CurrentCycle: 201, TotalCycles: 200, PurchaseDate: time.Now().AddDate(0, 0, -201),
	}
	require.NoError(t, env.db.Create(stale).Error)

	env.seedBalance(t, a.ID, 100.0)

	result, err := env.purchaseSvc.Purchase(ctx, a.ID, daily.ID)
	require.NoError(t, err)

	var user models.User
	env.db.First(&user, a.ID)
	assert.Equal(t, int8(models.UserStatusActive), user.Status)

	var found models.UserPackage
	env.db.First(&found, stale.ID)
	assert.Equal(t, int8(models.UserPackageStatusWithdrawn), found.Status)

	// 新买的包不受影响
	env.db.First(&found, result.UserPackage.ID)
	assert.Equal(t, int8(models.UserPackageStatusActive), found.Status)

	// 强制拔出不退本金
	var refunds int64
	env.db.Model(&models.WalletTransaction{}).
		Where("user_id = ? AND type = ?", a.ID, models.WalletTxTypeRefund).Count(&refunds)
	assert.Equal(t, int64(0), refunds)
}

// 总周期数跟随矿机包自身的 maturity_period
func TestPurchase_TotalCycles(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	pkg := env.seedPackage(t, models.PackageModeDaily, 50.0, 90)
	env.seedBalance(t, a.ID, 50.0)

	result, err := env.purchaseSvc.Purchase(ctx, a.ID, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, result.UserPackage.TotalCycles)
	assert.Equal(t, 1, result.UserPackage.CurrentCycle)
	require.NotNil(t, result.UserPackage.NextBonusDate)
}
