// Package settings 系统费率与阈值配置服务
package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
)

// 未配置时的默认值
const (
	DefaultMonthlyBonusRate = 8.0  // 月结包每月收益比例 8%
	DefaultWithdrawFeeRate  = 10.0 // 提现手续费比例 10%
	DefaultMinWithdraw      = 10.0 // 最低提现金额
	DefaultTransferFeeRate  = 0.0  // 转账手续费比例
	DefaultMaxTransfer      = 0.0  // 单笔转账上限，0 表示不限
	DefaultLeadershipLevels = 3    // 领导奖层数
	DefaultMinDirectCount   = 3    // 领导奖直推人数门槛
	DefaultDirectQuota      = 1000 // 领导奖直推业绩门槛
)

// defaultReferralRates 推荐佣金默认比例表（按层级，百分比）
// 一级佣金默认缺席：仅当管理员显式配置 referral_level_1_percentage 时才派发
var defaultReferralRates = map[int]float64{
	2: 10.0,
	3: 1.0,
	4: 1.0,
	5: 1.0,
}

// Snapshot 配置快照
// 每次结算开始前整表读取一次，同一笔业务全程使用同一份快照，
// 避免结算中途管理员改价导致同一单内费率不一致
type Snapshot struct {
	raw map[string]string
}

// Service 系统配置服务
type Service struct {
	configRepo *repository.SystemConfigRepository
}

// NewService 创建系统配置服务
func NewService(configRepo *repository.SystemConfigRepository) *Service {
	return &Service{configRepo: configRepo}
}

// Load 加载配置快照
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := s.configRepo.GetAllAsMap(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{raw: raw}, nil
}

// NewSnapshot 从键值映射直接构造快照
func NewSnapshot(raw map[string]string) *Snapshot {
	if raw == nil {
		raw = map[string]string{}
	}
	return &Snapshot{raw: raw}
}

// floatOr 读取浮点配置，缺失或非法时返回默认值
func (s *Snapshot) floatOr(key string, def float64) float64 {
	v, ok := s.raw[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// intOr 读取整型配置，缺失或非法时返回默认值
func (s *Snapshot) intOr(key string, def int) int {
	v, ok := s.raw[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// boolOr 读取布尔配置，缺失或非法时返回默认值
func (s *Snapshot) boolOr(key string, def bool) bool {
	v, ok := s.raw[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ReferralRate 第 level 级推荐佣金比例（百分比）
// 返回 false 表示该层级不派发佣金；一级在未显式配置时不派发
func (s *Snapshot) ReferralRate(level int) (float64, bool) {
	key := fmt.Sprintf("%s%d_percentage", models.ConfigKeyReferralLevelPrefix, level)
	if v, ok := s.raw[key]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil && f > 0 {
			return f, true
		}
		return 0, false
	}
	if rate, ok := defaultReferralRates[level]; ok {
		return rate, true
	}
	return 0, false
}

// MonthlyBonusRate 月结包每月收益比例（百分比）
func (s *Snapshot) MonthlyBonusRate() float64 {
	return s.floatOr(models.ConfigKeyMonthlyBonus, DefaultMonthlyBonusRate)
}

// LeadershipEnabled 领导奖开关
func (s *Snapshot) LeadershipEnabled() bool {
	return s.boolOr(models.ConfigKeyLeadershipEnabled, false)
}

// LeadershipLevels 领导奖层数（上限由调用方另行钳制）
func (s *Snapshot) LeadershipLevels() int {
	return s.intOr(models.ConfigKeyLeadershipLevels, DefaultLeadershipLevels)
}

// LeadershipRate 第 level 级领导奖比例（百分比）
func (s *Snapshot) LeadershipRate(level int) (float64, bool) {
	key := fmt.Sprintf("%s%d_percentage", models.ConfigKeyLeadershipLevelPrefix, level)
	f := s.floatOr(key, 0)
	if f <= 0 {
		return 0, false
	}
	return f, true
}

// MinDirectCount 领导奖直推人数门槛
func (s *Snapshot) MinDirectCount() int {
	return s.intOr(models.ConfigKeyMinDirectCount, DefaultMinDirectCount)
}

// DirectPackageQuota 领导奖当月直推业绩门槛
func (s *Snapshot) DirectPackageQuota() float64 {
	return s.floatOr(models.ConfigKeyDirectPackageQuota, DefaultDirectQuota)
}

// WithdrawFeeRate 提现手续费比例（百分比）
func (s *Snapshot) WithdrawFeeRate() float64 {
	return s.floatOr(models.ConfigKeyWithdrawFee, DefaultWithdrawFeeRate)
}

// MinWithdraw 最低提现金额
func (s *Snapshot) MinWithdraw() float64 {
	return s.floatOr(models.ConfigKeyMinWithdraw, DefaultMinWithdraw)
}

// TransferFeeRate 转账手续费比例（百分比）
func (s *Snapshot) TransferFeeRate() float64 {
	return s.floatOr(models.ConfigKeyTransferFee, DefaultTransferFeeRate)
}

// MaxTransfer 单笔转账上限，0 表示不限
func (s *Snapshot) MaxTransfer() float64 {
	return s.floatOr(models.ConfigKeyMaxTransfer, DefaultMaxTransfer)
}

// GetAll 获取全部配置（管理端展示）
func (s *Service) GetAll(ctx context.Context) ([]*models.SystemConfig, error) {
	return s.configRepo.GetAll(ctx)
}

// Update 写入或更新配置项
func (s *Service) Update(ctx context.Context, key, value, description string) error {
	return s.configRepo.Upsert(ctx, key, value, description)
}

// Delete 删除配置项
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.configRepo.Delete(ctx, key)
}
