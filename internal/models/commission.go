// Package models 定义数据模型
package models

import (
	"time"
)

// ReferralCommission 推荐佣金记录
// 购买事件沿推荐链向上逐级派发：购买人自身占第 1 级，直接推荐人为第 2 级
type ReferralCommission struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BeneficiaryID int64     `gorm:"index;not null" json:"beneficiary_id"`
	SourceUserID  int64     `gorm:"index;not null" json:"source_user_id"`
	UserPackageID int64     `gorm:"index;not null" json:"user_package_id"`
	Level         int       `gorm:"not null" json:"level"`
	PackageAmount float64   `gorm:"type:decimal(12,2);not null" json:"package_amount"`
	Rate          float64   `gorm:"type:decimal(6,3);not null" json:"rate"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Beneficiary *User `gorm:"foreignKey:BeneficiaryID" json:"beneficiary,omitempty"`
	SourceUser  *User `gorm:"foreignKey:SourceUserID" json:"source_user,omitempty"`
}

// TableName 表名
func (ReferralCommission) TableName() string {
	return "referral_commissions"
}

// LeadershipBonus 领导奖（被动收益）记录
// 每个（受益人, 层级, 月份）至多一条
type LeadershipBonus struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BeneficiaryID int64     `gorm:"uniqueIndex:uk_leader_level_month;not null" json:"beneficiary_id"`
	Level         int       `gorm:"uniqueIndex:uk_leader_level_month;not null" json:"level"`
	MonthCycle    string    `gorm:"type:varchar(7);uniqueIndex:uk_leader_level_month;not null" json:"month_cycle"`
	DownlineTotal float64   `gorm:"type:decimal(14,2);not null" json:"downline_total"`
	Rate          float64   `gorm:"type:decimal(6,3);not null" json:"rate"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (LeadershipBonus) TableName() string {
	return "leadership_bonuses"
}
