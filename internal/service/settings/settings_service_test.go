// Package settings 配置快照单元测试
package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
)

func setupSettingsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.SystemConfig{})
	require.NoError(t, err)

	return db
}

func TestSnapshot_ReferralRate_Defaults(t *testing.T) {
	snap := NewSnapshot(nil)

	// 一级默认不派发
	_, ok := snap.ReferralRate(1)
	assert.False(t, ok)

	rate, ok := snap.ReferralRate(2)
	assert.True(t, ok)
	assert.Equal(t, 10.0, rate)

	for _, level := range []int{3, 4, 5} {
		rate, ok := snap.ReferralRate(level)
		assert.True(t, ok)
		assert.Equal(t, 1.0, rate)
	}

	// 超出 5 级没有比例
	_, ok = snap.ReferralRate(6)
	assert.False(t, ok)
}

func TestSnapshot_ReferralRate_Configured(t *testing.T) {
	snap := NewSnapshot(map[string]string{
		"referral_level_1_percentage": "5",
		"referral_level_2_percentage": "12",
		"referral_level_3_percentage": "0",
	})

	// 显式配置后一级才派发
	rate, ok := snap.ReferralRate(1)
	assert.True(t, ok)
	assert.Equal(t, 5.0, rate)

	rate, ok = snap.ReferralRate(2)
	assert.True(t, ok)
	assert.Equal(t, 12.0, rate)

	// 显式配置为 0 表示关闭该层级，不回落默认表
	_, ok = snap.ReferralRate(3)
	assert.False(t, ok)

	// 未配置的层级仍用默认表
	rate, ok = snap.ReferralRate(4)
	assert.True(t, ok)
	assert.Equal(t, 1.0, rate)
}

func TestSnapshot_FeeDefaults(t *testing.T) {
	snap := NewSnapshot(nil)

	assert.Equal(t, DefaultWithdrawFeeRate, snap.WithdrawFeeRate())
	assert.Equal(t, DefaultMinWithdraw, snap.MinWithdraw())
	assert.Equal(t, DefaultMonthlyBonusRate, snap.MonthlyBonusRate())
	assert.False(t, snap.LeadershipEnabled())
	assert.Equal(t, 0.0, snap.MaxTransfer())
}

func TestSnapshot_LeadershipGates(t *testing.T) {
	snap := NewSnapshot(map[string]string{
		"leadership_enabled":            "true",
		"leadership_levels":             "2",
		"leadership_level_1_percentage": "2",
		"min_direct_count":              "5",
		"direct_package_quota":          "3000",
	})

	assert.True(t, snap.LeadershipEnabled())
	assert.Equal(t, 2, snap.LeadershipLevels())
	assert.Equal(t, 5, snap.MinDirectCount())
	assert.Equal(t, 3000.0, snap.DirectPackageQuota())

	rate, ok := snap.LeadershipRate(1)
	assert.True(t, ok)
	assert.Equal(t, 2.0, rate)

	_, ok = snap.LeadershipRate(2)
	assert.False(t, ok)
}

func TestSnapshot_InvalidValueFallsBack(t *testing.T) {
	snap := NewSnapshot(map[string]string{
		"withdraw_fee_percentage": "not-a-number",
		"leadership_levels":       "abc",
	})

	assert.Equal(t, DefaultWithdrawFeeRate, snap.WithdrawFeeRate())
	assert.Equal(t, DefaultLeadershipLevels, snap.LeadershipLevels())
}

func TestService_LoadFromRepository(t *testing.T) {
	db := setupSettingsTestDB(t)
	configRepo := repository.NewSystemConfigRepository(db)
	svc := NewService(configRepo)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, "referral_level_2_percentage", "10", "二级佣金"))
	require.NoError(t, svc.Update(ctx, "withdraw_fee_percentage", "10", "提现手续费"))

	snap, err := svc.Load(ctx)
	require.NoError(t, err)

	rate, ok := snap.ReferralRate(2)
	assert.True(t, ok)
	assert.Equal(t, 10.0, rate)
	assert.Equal(t, 10.0, snap.WithdrawFeeRate())
}
