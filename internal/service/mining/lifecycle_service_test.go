// Package mining 生命周期状态机单元测试
package mining

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
)

// 拔出退回全额本金并进入终态；重复拔出失败且退款恰好一笔
func TestLifecycle_PullOutIdempotence(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	pkg := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)

	up := &models.UserPackage{
		UserID: a.ID, PackageID: pkg.ID,
		Status: models.UserPackageStatusCompleted,
		CurrentCycle: 201, TotalCycles: 200, PurchaseDate: time.Now().AddDate(0, 0, -201),
	}
	require.NoError(t, env.db.Create(up).Error)

	require.NoError(t, env.lifecycleSvc.PullOut(ctx, a.ID, up.ID))

	var found models.UserPackage
	env.db.First(&found, up.ID)
	assert.Equal(t, int8(models.UserPackageStatusWithdrawn), found.Status)

	balance, _ := env.walletSvc.GetBalance(ctx, a.ID)
	assert.Equal(t, 100.0, balance)

	// 第二次拔出失败
	err := env.lifecycleSvc.PullOut(ctx, a.ID, up.ID)
	assert.ErrorIs(t, err, apperrors.ErrPackageStateInvalid)

	// 账本上恰好一笔退款
	var refunds int64
	env.db.Model(&models.WalletTransaction{}).
		Where("user_id = ? AND type = ? AND reference_id = ?", a.ID, models.WalletTxTypeRefund, up.ID).
		Count(&refunds)
	assert.Equal(t, int64(1), refunds)
}

func TestLifecycle_PullOut_NotMature(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	pkg := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)

	up := &models.UserPackage{
		UserID: a.ID, PackageID: pkg.ID,
		Status: models.UserPackageStatusActive,
		CurrentCycle: 50, TotalCycles: 200, PurchaseDate: time.Now(),
	}
	require.NoError(t, env.db.Create(up).Error)

	err := env.lifecycleSvc.PullOut(ctx, a.ID, up.ID)
	assert.ErrorIs(t, err, apperrors.ErrPackageNotMature)
}

func TestLifecycle_PullOut_NotOwned(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	b := env.seedUser(t, "b", nil, models.UserStatusActive)
	pkg := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)

	up := &models.UserPackage{
		UserID: a.ID, PackageID: pkg.ID,
		Status: models.UserPackageStatusCompleted,
		CurrentCycle: 201, TotalCycles: 200, PurchaseDate: time.Now(),
	}
	require.NoError(t, env.db.Create(up).Error)

	err := env.lifecycleSvc.PullOut(ctx, b.ID, up.ID)
	assert.ErrorIs(t, err, apperrors.ErrPackageNotOwned)
}

// 模式互斥：月结包不能回收，日结包不能留存
func TestLifecycle_ModeExclusivity(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	monthly := env.seedPackage(t, models.PackageModeMonthly, 500.0, 12)
	daily := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)

	monthlyUp := &models.UserPackage{
		UserID: a.ID, PackageID: monthly.ID,
		Status: models.UserPackageStatusActive,
		CurrentCycle: 13, TotalCycles: 12, PurchaseDate: time.Now(),
	}
	require.NoError(t, env.db.Create(monthlyUp).Error)

	dailyUp := &models.UserPackage{
		UserID: a.ID, PackageID: daily.ID,
		Status: models.UserPackageStatusCompleted,
		CurrentCycle: 201, TotalCycles: 200, PurchaseDate: time.Now(),
	}
	require.NoError(t, env.db.Create(dailyUp).Error)

	err := env.lifecycleSvc.Recycle(ctx, a.ID, monthlyUp.ID)
	assert.ErrorIs(t, err, apperrors.ErrPackageModeInvalid)

	err = env.lifecycleSvc.Retain(ctx, a.ID, dailyUp.ID)
	assert.ErrorIs(t, err, apperrors.ErrPackageModeInvalid)
}

// 余额为 0 的回收失败，周期不变
func TestLifecycle_Recycle_InsufficientBalance(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	daily := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)

	up := &models.UserPackage{
		UserID: a.ID, PackageID: daily.ID,
		Status: models.UserPackageStatusCompleted,
		CurrentCycle: 201, TotalCycles: 200, PurchaseDate: time.Now(),
	}
	require.NoError(t, env.db.Create(up).Error)

	err := env.lifecycleSvc.Recycle(ctx, a.ID, up.ID)
	assert.ErrorIs(t, err, apperrors.ErrBalanceInsufficient)

	var found models.UserPackage
	env.db.First(&found, up.ID)
	assert.Equal(t, 201, found.CurrentCycle)
	assert.Equal(t, int8(models.UserPackageStatusCompleted), found.Status)
}

// 回收成功：扣款、周期重置、收益记录清空
func TestLifecycle_Recycle(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	daily := env.seedPackage(t, models.PackageModeDaily, 100.0, 200)

	up := &models.UserPackage{
		UserID: a.ID, PackageID: daily.ID,
		Status: models.UserPackageStatusCompleted,
		CurrentCycle: 201, TotalCycles: 200, PurchaseDate: time.Now().AddDate(0, 0, -201),
	}
	require.NoError(t, env.db.Create(up).Error)
	require.NoError(t, env.db.Create(&models.BonusRecord{
		UserPackageID: up.ID, UserID: a.ID, Amount: 1.0, Cycle: 1,
	}).Error)

	env.seedBalance(t, a.ID, 120.0)

	require.NoError(t, env.lifecycleSvc.Recycle(ctx, a.ID, up.ID))

	var found models.UserPackage
	env.db.First(&found, up.ID)
	assert.Equal(t, int8(models.UserPackageStatusActive), found.Status)
	assert.Equal(t, 1, found.CurrentCycle)

	balance, _ := env.walletSvc.GetBalance(ctx, a.ID)
	assert.Equal(t, 20.0, balance)

	var bonusCount int64
	env.db.Model(&models.BonusRecord{}).Where("user_package_id = ?", up.ID).Count(&bonusCount)
	assert.Equal(t, int64(0), bonusCount)
}

// 留存：周期重置、购买时间刷新、收益清空，不动本金
func TestLifecycle_Retain(t *testing.T) {
	env := setupMiningTest(t)
	ctx := context.Background()

	a := env.seedUser(t, "a", nil, models.UserStatusActive)
	monthly := env.seedPackage(t, models.PackageModeMonthly, 500.0, 12)

	oldDate := time.Now().AddDate(-1, 0, 0)
	up := &models.UserPackage{
		UserID: a.ID, PackageID: monthly.ID,
		Status: models.UserPackageStatusActive,
		CurrentCycle: 13, TotalCycles: 12, PurchaseDate: oldDate,
	}
	require.NoError(t, env.db.Create(up).Error)
	require.NoError(t, env.db.Create(&models.BonusRecord{
		UserPackageID: up.ID, UserID: a.ID, Amount: 40.0, Cycle: 1,
	}).Error)

	require.NoError(t, env.lifecycleSvc.Retain(ctx, a.ID, up.ID))

	var found models.UserPackage
	env.db.First(&found, up.ID)
	assert.Equal(t, 1, found.CurrentCycle)
	assert.True(t, found.PurchaseDate.After(oldDate))
	require.NotNil(t, found.NextBonusDate)

	var bonusCount int64
	env.db.Model(&models.BonusRecord{}).Where("user_package_id = ?", up.ID).Count(&bonusCount)
	assert.Equal(t, int64(0), bonusCount)

	// 留存不产生任何账本流水
	var txCount int64
	env.db.Model(&models.WalletTransaction{}).Where("user_id = ?", a.ID).Count(&txCount)
	assert.Equal(t, int64(0), txCount)
}

func TestDisplayStatus(t *testing.T) {
	activeUser := &models.User{Status: models.UserStatusActive}
	inactiveUser := &models.User{Status: models.UserStatusInactive}

	running := &models.UserPackage{CurrentCycle: 50, TotalCycles: 200}
	mature := &models.UserPackage{CurrentCycle: 201, TotalCycles: 200}

	assert.Equal(t, models.DisplayStatusActive, DisplayStatus(running, activeUser))
	assert.Equal(t, models.DisplayStatusInactive, DisplayStatus(running, inactiveUser))
	// 到期状态优先于账号状态
	assert.Equal(t, models.DisplayStatusMature, DisplayStatus(mature, activeUser))
	assert.Equal(t, models.DisplayStatusMature, DisplayStatus(mature, inactiveUser))
}
