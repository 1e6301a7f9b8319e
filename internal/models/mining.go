// Package models 定义数据模型
package models

import (
	"time"
)

// MiningPackage 矿机包（商品目录）
// 一旦存在购买记录即视为不可变，删除会被仓储层拦截
type MiningPackage struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	Price           float64   `gorm:"type:decimal(12,2);not null" json:"price"`
	Mode            string    `gorm:"type:varchar(10);not null" json:"mode"`
	DailyPercentage float64   `gorm:"type:decimal(6,3);not null;default:0" json:"daily_percentage"`
	TargetValue     float64   `gorm:"type:decimal(12,2);not null;default:0" json:"target_value"`
	MaturityPeriod  int       `gorm:"not null;default:0" json:"maturity_period"`
	Status          int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	Sort            int       `gorm:"not null;default:0" json:"sort"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (MiningPackage) TableName() string {
	return "mining_packages"
}

// PackageMode 矿机包收益模式
const (
	PackageModeMonthly = "monthly" // 月结包
	PackageModeDaily   = "daily"   // 日结包
)

// PackageStatus 矿机包状态
const (
	PackageStatusInactive = 0 // 下架
	PackageStatusActive   = 1 // 上架
)

// UserPackage 用户购买的矿机包实例
// current_cycle 在 active 状态下单调递增；状态只能单向流转：
// active -> completed -> withdrawn，或 active -> withdrawn（拔出）
// recycle/retain 将 current_cycle 重置为 1，记录本身永不删除
type UserPackage struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64      `gorm:"index;not null" json:"user_id"`
	PackageID     int64      `gorm:"index;not null" json:"package_id"`
	Status        int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	CurrentCycle  int        `gorm:"not null;default:1" json:"current_cycle"`
	TotalCycles   int        `gorm:"not null" json:"total_cycles"`
	PurchaseDate  time.Time  `gorm:"not null" json:"purchase_date"`
	NextBonusDate *time.Time `json:"next_bonus_date,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User    *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Package *MiningPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

// TableName 表名
func (UserPackage) TableName() string {
	return "user_packages"
}

// UserPackageStatus 用户矿机包状态
const (
	UserPackageStatusActive    = 1 // 运行中
	UserPackageStatusCompleted = 2 // 已到期（日结包跑满周期）
	UserPackageStatusWithdrawn = 3 // 已拔出（终态）
)

// UserPackageDisplayStatus 日结包的展示状态（只读派生，不落库）
const (
	DisplayStatusActive   = "active"
	DisplayStatusInactive = "inactive"
	DisplayStatusMature   = "mature"
)

// BonusRecord 每周期产出记录（挖矿钱包）
// 按 user_package 维度累计展示「已挖出」总额，retain/recycle 时清空
type BonusRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserPackageID int64     `gorm:"index;not null" json:"user_package_id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Cycle         int       `gorm:"not null" json:"cycle"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (BonusRecord) TableName() string {
	return "bonus_records"
}
