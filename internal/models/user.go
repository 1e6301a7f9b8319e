// Package models 定义数据模型
package models

import (
	"time"
)

// User 用户模型
// SponsorID 指向推荐人，形成自引用推荐树；根用户（管理员）没有推荐人
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Email        *string   `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	SponsorID    *int64    `gorm:"index" json:"sponsor_id,omitempty"`
	InviteCode   string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"invite_code"`
	Status       int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Sponsor *User       `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	Wallet  *UserWallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserStatus 用户状态
const (
	UserStatusInactive  = 0 // 未激活（无在挖矿机包）
	UserStatusActive    = 1 // 正常
	UserStatusSuspended = 2 // 已停用
)

// UserWallet 用户钱包聚合
// 余额以账本（wallet_transactions）为准，本表仅作为带乐观锁的扣款闸口：
// 所有扣款路径先以 version 条件更新本表，冲突即中止
type UserWallet struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   float64   `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	Version   int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (UserWallet) TableName() string {
	return "user_wallets"
}

// Admin 管理员模型
type Admin struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;default:'admin'" json:"role"`
	Status       int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Admin) TableName() string {
	return "admins"
}

// AdminStatus 管理员状态
const (
	AdminStatusDisabled = 0 // 禁用
	AdminStatusActive   = 1 // 正常
)
