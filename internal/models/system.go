// Package models 定义数据模型
package models

import (
	"time"
)

// SystemConfig 系统配置（键值对）
// 佣金比例、领导奖阈值、手续费等都存放在这里，由管理员维护
type SystemConfig struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConfigKey   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"config_key"`
	ConfigValue string    `gorm:"type:varchar(255);not null" json:"config_value"`
	Description string    `gorm:"type:varchar(255);not null;default:''" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (SystemConfig) TableName() string {
	return "system_configs"
}

// 配置键
// 推荐佣金仅定义了 2-5 级；1 级（直推）默认不派发，显式配置
// referral_level_1_percentage 后才生效
const (
	ConfigKeyReferralLevelPrefix   = "referral_level_"            // referral_level_{L}_percentage
	ConfigKeyMonthlyBonus          = "monthly_bonus_percentage"   // 月结包自身收益比例
	ConfigKeyLeadershipEnabled     = "leadership_enabled"         // 领导奖开关
	ConfigKeyLeadershipLevels      = "leadership_levels"          // 领导奖层级数
	ConfigKeyLeadershipLevelPrefix = "leadership_level_"          // leadership_level_{L}_percentage
	ConfigKeyMinDirectCount        = "min_direct_count"           // 领导奖直推人数门槛
	ConfigKeyDirectPackageQuota    = "direct_package_quota"       // 领导奖直推业绩门槛
	ConfigKeyWithdrawFee           = "withdraw_fee_percentage"    // 提现手续费比例
	ConfigKeyMinWithdraw           = "min_withdraw_amount"        // 最低提现金额
	ConfigKeyTransferFee           = "transfer_fee_percentage"    // 转账手续费比例
	ConfigKeyMaxTransfer           = "max_transfer_amount"        // 单笔转账上限
)
