// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jojomine/mining-platform-backend/internal/models"
)

// SystemConfigRepository 系统配置仓储
type SystemConfigRepository struct {
	db *gorm.DB
}

// NewSystemConfigRepository 创建系统配置仓储
func NewSystemConfigRepository(db *gorm.DB) *SystemConfigRepository {
	return &SystemConfigRepository{db: db}
}

// GetByKey 根据键获取配置
func (r *SystemConfigRepository) GetByKey(ctx context.Context, key string) (*models.SystemConfig, error) {
	var config models.SystemConfig
	err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetAll 获取全部配置
func (r *SystemConfigRepository) GetAll(ctx context.Context) ([]*models.SystemConfig, error) {
	var list []*models.SystemConfig
	err := r.db.WithContext(ctx).Order("config_key ASC").Find(&list).Error
	return list, err
}

// GetAllAsMap 获取全部配置并转为键值映射
// 费率解析每次结算前整表读取一次，之后全程使用同一份快照
func (r *SystemConfigRepository) GetAllAsMap(ctx context.Context) (map[string]string, error) {
	list, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(list))
	for _, config := range list {
		m[config.ConfigKey] = config.ConfigValue
	}
	return m, nil
}

// Upsert 写入或更新配置
func (r *SystemConfigRepository) Upsert(ctx context.Context, key, value, description string) error {
	config := &models.SystemConfig{
		ConfigKey:   key,
		ConfigValue: value,
		Description: description,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_value", "description", "updated_at"}),
	}).Create(config).Error
}

// Delete 删除配置
func (r *SystemConfigRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("config_key = ?", key).Delete(&models.SystemConfig{}).Error
}
