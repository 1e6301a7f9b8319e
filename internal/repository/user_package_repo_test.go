// Package repository 用户矿机包仓储单元测试
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

func setupUserPackageTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.MiningPackage{}, &models.UserPackage{})
	require.NoError(t, err)

	return db
}

func createTestPackage(t *testing.T, db *gorm.DB, mode string, price float64) *models.MiningPackage {
	pkg := &models.MiningPackage{
		Name:   "测试矿机包",
		Price:  price,
		Mode:   mode,
		Status: models.PackageStatusActive,
	}
	if mode == models.PackageModeDaily {
		pkg.DailyPercentage = 1.0
		pkg.MaturityPeriod = 200
	} else {
		pkg.TargetValue = price * 2
		pkg.MaturityPeriod = 12
	}
	require.NoError(t, db.Create(pkg).Error)
	return pkg
}

func TestUserPackageRepository_CreateAndGet(t *testing.T) {
	db := setupUserPackageTestDB(t)
	repo := NewUserPackageRepository(db)
	ctx := context.Background()

	pkg := createTestPackage(t, db, models.PackageModeDaily, 100.0)

	next := time.Now().Add(24 * time.Hour)
	up := &models.UserPackage{
		UserID:        1,
		PackageID:     pkg.ID,
		Status:        models.UserPackageStatusActive,
		CurrentCycle:  1,
		TotalCycles:   200,
		PurchaseDate:  time.Now(),
		NextBonusDate: &next,
	}

	err := repo.Create(ctx, up)
	require.NoError(t, err)
	assert.NotZero(t, up.ID)

	found, err := repo.GetByID(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, up.ID, found.ID)
	require.NotNil(t, found.Package)
	assert.Equal(t, models.PackageModeDaily, found.Package.Mode)
}

func TestUserPackageRepository_HasActivePackage(t *testing.T) {
	db := setupUserPackageTestDB(t)
	repo := NewUserPackageRepository(db)
	ctx := context.Background()

	pkg := createTestPackage(t, db, models.PackageModeDaily, 100.0)

	has, err := repo.HasActivePackage(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)

	db.Create(&models.UserPackage{
		UserID: 1, PackageID: pkg.ID, Status: models.UserPackageStatusWithdrawn,
		CurrentCycle: 1, TotalCycles: 200, PurchaseDate: time.Now(),
	})

	// 已拔出的包不算持有
	has, err = repo.HasActivePackage(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)

	db.Create(&models.UserPackage{
		UserID: 1, PackageID: pkg.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 200, PurchaseDate: time.Now(),
	})

	has, err = repo.HasActivePackage(ctx, 1)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestUserPackageRepository_ListLiveDailyByUser(t *testing.T) {
	db := setupUserPackageTestDB(t)
	repo := NewUserPackageRepository(db)
	ctx := context.Background()

	daily := createTestPackage(t, db, models.PackageModeDaily, 100.0)
	monthly := createTestPackage(t, db, models.PackageModeMonthly, 500.0)

	db.Create(&models.UserPackage{
		UserID: 1, PackageID: daily.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 200, PurchaseDate: time.Now(),
	})
	db.Create(&models.UserPackage{
		UserID: 1, PackageID: daily.ID, Status: models.UserPackageStatusCompleted,
		CurrentCycle: 200, TotalCycles: 200, PurchaseDate: time.Now(),
	})
	// 已拔出的与月结的都不在列
	db.Create(&models.UserPackage{
		UserID: 1, PackageID: daily.ID, Status: models.UserPackageStatusWithdrawn,
		CurrentCycle: 5, TotalCycles: 200, PurchaseDate: time.Now(),
	})
	db.Create(&models.UserPackage{
		UserID: 1, PackageID: monthly.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 12, PurchaseDate: time.Now(),
	})

	list, err := repo.ListLiveDailyByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, len(list))
}

func TestUserPackageRepository_ListDueForAccrual(t *testing.T) {
	db := setupUserPackageTestDB(t)
	repo := NewUserPackageRepository(db)
	ctx := context.Background()

	daily := createTestPackage(t, db, models.PackageModeDaily, 100.0)

	past := time.Now().Add(-1 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	db.Create(&models.UserPackage{
		UserID: 1, PackageID: daily.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 3, TotalCycles: 200, PurchaseDate: time.Now(), NextBonusDate: &past,
	})
	db.Create(&models.UserPackage{
		UserID: 2, PackageID: daily.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 200, PurchaseDate: time.Now(), NextBonusDate: &future,
	})
	// 已拔出的包即使到期也不结算
	db.Create(&models.UserPackage{
		UserID: 3, PackageID: daily.ID, Status: models.UserPackageStatusWithdrawn,
		CurrentCycle: 5, TotalCycles: 200, PurchaseDate: time.Now(), NextBonusDate: &past,
	})

	due, err := repo.ListDueForAccrual(ctx, models.PackageModeDaily, time.Now(), 100)
	require.NoError(t, err)
	require.Equal(t, 1, len(due))
	assert.Equal(t, int64(1), due[0].UserID)
	require.NotNil(t, due[0].Package)
}

func TestUserPackageRepository_AdvanceCycle(t *testing.T) {
	db := setupUserPackageTestDB(t)
	repo := NewUserPackageRepository(db)
	ctx := context.Background()

	daily := createTestPackage(t, db, models.PackageModeDaily, 100.0)
	next := time.Now().Add(24 * time.Hour)

	up := &models.UserPackage{
		UserID: 1, PackageID: daily.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 200, PurchaseDate: time.Now(), NextBonusDate: &next,
	}
	db.Create(up)

	newNext := time.Now().Add(48 * time.Hour)
	err := repo.AdvanceCycle(ctx, nil, up.ID, 2, models.UserPackageStatusActive, &newNext)
	require.NoError(t, err)

	var found models.UserPackage
	db.First(&found, up.ID)
	assert.Equal(t, 2, found.CurrentCycle)
	assert.Equal(t, int8(models.UserPackageStatusActive), found.Status)

	// 最后一个周期结算后置为 completed 且清空下次结算时间
	err = repo.AdvanceCycle(ctx, nil, up.ID, 200, models.UserPackageStatusCompleted, nil)
	require.NoError(t, err)
	db.First(&found, up.ID)
	assert.Equal(t, int8(models.UserPackageStatusCompleted), found.Status)
	assert.Nil(t, found.NextBonusDate)
}

func TestUserPackageRepository_ResetForRestart(t *testing.T) {
	db := setupUserPackageTestDB(t)
	repo := NewUserPackageRepository(db)
	ctx := context.Background()

	daily := createTestPackage(t, db, models.PackageModeDaily, 100.0)

	up := &models.UserPackage{
		UserID: 1, PackageID: daily.ID, Status: models.UserPackageStatusCompleted,
		CurrentCycle: 200, TotalCycles: 200, PurchaseDate: time.Now().AddDate(0, 0, -200),
	}
	db.Create(up)

	restart := time.Now()
	err := repo.ResetForRestart(ctx, nil, up.ID, restart, restart.Add(24*time.Hour))
	require.NoError(t, err)

	var found models.UserPackage
	db.First(&found, up.ID)
	assert.Equal(t, int8(models.UserPackageStatusActive), found.Status)
	assert.Equal(t, 1, found.CurrentCycle)
	require.NotNil(t, found.NextBonusDate)
}

func TestUserPackageRepository_SumPackageVolumeBySponsor(t *testing.T) {
	db := setupUserPackageTestDB(t)
	repo := NewUserPackageRepository(db)
	ctx := context.Background()

	sponsorID := int64(1)
	db.Create(&models.User{Username: "sponsor", PasswordHash: "x", InviteCode: "AAA111", Status: models.UserStatusActive})
	db.Create(&models.User{Username: "child_a", PasswordHash: "x", InviteCode: "BBB222", SponsorID: &sponsorID, Status: models.UserStatusActive})
	db.Create(&models.User{Username: "child_b", PasswordHash: "x", InviteCode: "CCC333", SponsorID: &sponsorID, Status: models.UserStatusActive})
	db.Create(&models.User{Username: "other", PasswordHash: "x", InviteCode: "DDD444", Status: models.UserStatusActive})

	pkg := createTestPackage(t, db, models.PackageModeMonthly, 500.0)

	monthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	db.Create(&models.UserPackage{
		UserID: 2, PackageID: pkg.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 12, PurchaseDate: monthStart.AddDate(0, 0, 5),
	})
	db.Create(&models.UserPackage{
		UserID: 3, PackageID: pkg.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 12, PurchaseDate: monthStart.AddDate(0, 0, 10),
	})
	// 非直推用户与窗口外的购买都不计入业绩
	db.Create(&models.UserPackage{
		UserID: 4, PackageID: pkg.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 12, PurchaseDate: monthStart.AddDate(0, 0, 5),
	})
	db.Create(&models.UserPackage{
		UserID: 2, PackageID: pkg.ID, Status: models.UserPackageStatusActive,
		CurrentCycle: 1, TotalCycles: 12, PurchaseDate: monthStart.AddDate(0, -1, 0),
	})

	total, err := repo.SumPackageVolumeBySponsor(ctx, sponsorID, monthStart, monthEnd)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, total)
}
