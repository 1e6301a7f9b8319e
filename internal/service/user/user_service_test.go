package user

import (
	"context"
	"strings"
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
	"github.com/jojomine/mining-platform-backend/internal/service/settings"
	"github.com/jojomine/mining-platform-backend/internal/service/wallet"
)

func setupUserTest(t *testing.T) (*UserService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.UserWallet{}, &models.WalletTransaction{},
		&models.MiningPackage{}, &models.UserPackage{}, &models.BonusRecord{},
		&models.ReferralCommission{}, &models.LeadershipBonus{}, &models.SystemConfig{},
	))

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	userRepo := repository.NewUserRepository(db)
	settingsSvc := settings.NewService(repository.NewSystemConfigRepository(db))
	walletSvc := wallet.NewService(userRepo, repository.NewLedgerRepository(db), settingsSvc, db, 1)

	svc := NewUserService(
		userRepo,
		repository.NewUserPackageRepository(db),
		repository.NewBonusRepository(db),
		repository.NewCommissionRepository(db),
		repository.NewLeadershipRepository(db),
		walletSvc,
		"https://app.example.com/register",
	)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, id int64, username, inviteCode string, sponsorID *int64) {
	require.NoError(t, db.Create(&models.User{
		ID: id, Username: username, PasswordHash: "x",
		InviteCode: inviteCode, SponsorID: sponsorID,
		Status: models.UserStatusActive,
	}).Error)
}

func TestGetProfile(t *testing.T) {
	svc, db := setupUserTest(t)
	ctx := context.Background()
	seedUser(t, db, 10, "alice", "ALICE234", nil)

	require.NoError(t, db.Create(&models.WalletTransaction{
		TransactionNo: "DP1", UserID: 10, Type: models.WalletTxTypeDeposit,
		Amount: 80.0, Status: models.WalletTxStatusCompleted, Withdrawable: true,
	}).Error)
	require.NoError(t, db.Create(&models.WalletTransaction{
		TransactionNo: "TR1", UserID: 10, Type: models.WalletTxTypeTransfer,
		Amount: 20.0, Status: models.WalletTxStatusCompleted, Withdrawable: false,
	}).Error)

	profile, err := svc.GetProfile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, 100.0, profile.Balance)
	assert.Equal(t, 80.0, profile.WithdrawableBalance)

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestGetDashboard(t *testing.T) {
	svc, db := setupUserTest(t)
	ctx := context.Background()
	seedUser(t, db, 10, "alice", "ALICE234", nil)
	sponsorID := int64(10)
	seedUser(t, db, 11, "bob", "BOB23456", &sponsorID)

	require.NoError(t, db.Create(&models.MiningPackage{
		ID: 1, Name: "日结100", Price: 100, Mode: models.PackageModeDaily,
		DailyPercentage: 1, Status: models.PackageStatusActive,
	}).Error)
	require.NoError(t, db.Create(&models.UserPackage{
		ID: 1, UserID: 10, PackageID: 1, TotalCycles: 200, CurrentCycle: 3,
		Status: models.UserPackageStatusActive, PurchaseDate: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.BonusRecord{
		UserPackageID: 1, UserID: 10, Amount: 1.0, Cycle: 1,
	}).Error)
	require.NoError(t, db.Create(&models.BonusRecord{
		UserPackageID: 1, UserID: 10, Amount: 1.0, Cycle: 2,
	}).Error)
	require.NoError(t, db.Create(&models.ReferralCommission{
		UserPackageID: 1, SourceUserID: 11, BeneficiaryID: 10, Level: 2,
		PackageAmount: 100, Rate: 10, Amount: 10.0,
	}).Error)
	require.NoError(t, db.Create(&models.LeadershipBonus{
		BeneficiaryID: 10, Level: 1, MonthCycle: "2025-06", DownlineTotal: 3000,
		Rate: 2, Amount: 60.0,
	}).Error)

	dashboard, err := svc.GetDashboard(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2.0, dashboard.TotalMined)
	assert.Equal(t, 10.0, dashboard.ReferralEarnings)
	assert.Equal(t, 60.0, dashboard.LeadershipEarnings)
	assert.Equal(t, int64(1), dashboard.ActivePackages)
	assert.Equal(t, int64(1), dashboard.DirectReferrals)
}

func TestGetInviteInfo(t *testing.T) {
	svc, db := setupUserTest(t)
	ctx := context.Background()
	seedUser(t, db, 10, "alice", "ALICE234", nil)

	info, err := svc.GetInviteInfo(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "ALICE234", info.InviteCode)
	assert.Equal(t, "https://app.example.com/register?invite_code=ALICE234", info.InviteURL)
	assert.True(t, strings.HasPrefix(info.QRCode, "data:image/png;base64,"))

	png, err := svc.InviteQRCodePNG(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestListDownline(t *testing.T) {
	svc, db := setupUserTest(t)
	ctx := context.Background()
	seedUser(t, db, 10, "alice", "ALICE234", nil)
	sponsorID := int64(10)
	seedUser(t, db, 11, "bob", "BOB23456", &sponsorID)
	seedUser(t, db, 12, "carol", "CAROL234", &sponsorID)

	require.NoError(t, db.Create(&models.UserPackage{
		UserID: 11, PackageID: 1, TotalCycles: 200, CurrentCycle: 1,
		Status: models.UserPackageStatusActive, PurchaseDate: time.Now(),
	}).Error)

	members, total, err := svc.ListDownline(ctx, 10, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	byName := make(map[string]*DownlineMember)
	for _, m := range members {
		byName[m.Username] = m
	}
	assert.True(t, byName["bob"].HasPackage)
	assert.False(t, byName["carol"].HasPackage)
}
