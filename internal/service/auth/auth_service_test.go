package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jojomine/mining-platform-backend/internal/common/crypto"
	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/jwt"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
)

func setupAuthTest(t *testing.T) (*AuthService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserWallet{}, &models.Admin{}))

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "mining-test",
	})

	svc := NewAuthService(db, repository.NewUserRepository(db), repository.NewAdminRepository(db), jwtManager)
	return svc, db
}

func seedRootUser(t *testing.T, db *gorm.DB) *models.User {
	hash, err := crypto.HashPassword("root123456")
	require.NoError(t, err)
	user := &models.User{
		Username:     "root",
		PasswordHash: hash,
		InviteCode:   "ROOT2345",
		Status:       models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRegister_BindsSponsor(t *testing.T) {
	svc, db := setupAuthTest(t)
	ctx := context.Background()
	root := seedRootUser(t, db)

	resp, err := svc.Register(ctx, &RegisterRequest{
		Username: "alice", Password: "secret123", InviteCode: root.InviteCode,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.TokenPair.AccessToken)
	assert.Len(t, resp.User.InviteCode, InviteCodeLength)
	assert.Equal(t, int8(models.UserStatusInactive), resp.User.Status)

	var created models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&created).Error)
	require.NotNil(t, created.SponsorID)
	assert.Equal(t, root.ID, *created.SponsorID)

	// 钱包随注册建立
	var wallet models.UserWallet
	require.NoError(t, db.Where("user_id = ?", created.ID).First(&wallet).Error)
}

func TestRegister_InvalidInviteCode(t *testing.T) {
	svc, _ := setupAuthTest(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "alice", Password: "secret123", InviteCode: "NOSUCH99",
	})
	assert.ErrorIs(t, err, apperrors.ErrInviteCodeInvalid)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, db := setupAuthTest(t)
	ctx := context.Background()
	root := seedRootUser(t, db)

	_, err := svc.Register(ctx, &RegisterRequest{
		Username: "alice", Password: "secret123", InviteCode: root.InviteCode,
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{
		Username: "alice", Password: "other456", InviteCode: root.InviteCode,
	})
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, db := setupAuthTest(t)
	ctx := context.Background()
	seedRootUser(t, db)

	resp, err := svc.Login(ctx, &LoginRequest{Username: "root", Password: "root123456"})
	require.NoError(t, err)
	assert.Equal(t, "root", resp.User.Username)

	_, err = svc.Login(ctx, &LoginRequest{Username: "root", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrPasswordError)

	_, err = svc.Login(ctx, &LoginRequest{Username: "ghost", Password: "root123456"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestLogin_SuspendedAccount(t *testing.T) {
	svc, db := setupAuthTest(t)
	ctx := context.Background()
	root := seedRootUser(t, db)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", root.ID).
		Update("status", models.UserStatusSuspended).Error)

	_, err := svc.Login(ctx, &LoginRequest{Username: "root", Password: "root123456"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestAdminLogin(t *testing.T) {
	svc, db := setupAuthTest(t)
	ctx := context.Background()

	hash, err := crypto.HashPassword("admin123")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Admin{
		Username: "admin", PasswordHash: hash, Role: "admin",
		Status: models.AdminStatusActive,
	}).Error)

	pair, err := svc.AdminLogin(ctx, &LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	claims, err := svc.jwtManager.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwt.UserTypeAdmin, claims.UserType)
	assert.Equal(t, "admin", claims.Role)
}

func TestRefreshToken(t *testing.T) {
	svc, db := setupAuthTest(t)
	ctx := context.Background()
	seedRootUser(t, db)

	resp, err := svc.Login(ctx, &LoginRequest{Username: "root", Password: "root123456"})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(ctx, resp.TokenPair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = svc.RefreshToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}
