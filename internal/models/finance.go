// Package models 定义数据模型
package models

import (
	"time"
)

// WalletTransaction 钱包账本流水（只追加）
// 余额 = 该用户所有 status=completed 流水的 amount 之和；
// 流水写入后不改写不删除，冲正以新流水表达。唯一允许的例外：
// 充值/提现申请关联的 pending 流水在审批时一次性翻转为 completed/failed
type WalletTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	Type          string    `gorm:"type:varchar(20);index;not null" json:"type"`
	Amount        float64   `gorm:"type:decimal(14,2);not null" json:"amount"`
	Description   string    `gorm:"type:varchar(255);not null;default:''" json:"description"`
	ReferenceID   *int64    `gorm:"index" json:"reference_id,omitempty"`
	Status        string    `gorm:"type:varchar(10);index;not null;default:'completed'" json:"status"`
	Withdrawable  bool      `gorm:"not null;default:true" json:"withdrawable"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// WalletTxType 流水类型
const (
	WalletTxTypeDeposit          = "deposit"           // 充值
	WalletTxTypeWithdrawal       = "withdrawal"        // 提现
	WalletTxTypePurchase         = "purchase"          // 购买矿机包
	WalletTxTypeBonus            = "bonus"             // 收益/佣金
	WalletTxTypeRefund           = "refund"            // 本金拔出退回
	WalletTxTypeTransfer         = "transfer"          // 转账
	WalletTxTypeTransferCharge   = "transfer_charge"   // 转账手续费
	WalletTxTypeWithdrawalCharge = "withdrawal_charge" // 提现手续费
)

// WalletTxStatus 流水状态
const (
	WalletTxStatusPending   = "pending"
	WalletTxStatusCompleted = "completed"
	WalletTxStatusFailed    = "failed"
)

// WithdrawalRequest 提现申请
// 由用户创建，管理员恰好一次地流转到终态，终态不可回退
type WithdrawalRequest struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	WithdrawalNo  string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdrawal_no"`
	UserID        int64      `gorm:"index;not null" json:"user_id"`
	Amount        float64    `gorm:"type:decimal(14,2);not null" json:"amount"`
	Fee           float64    `gorm:"type:decimal(12,2);not null;default:0" json:"fee"`
	ActualAmount  float64    `gorm:"type:decimal(14,2);not null" json:"actual_amount"`
	UsdtAmount    float64    `gorm:"type:decimal(14,2);not null;default:0" json:"usdt_amount"`
	Method        string     `gorm:"type:varchar(20);not null" json:"method"`
	WalletAddress string     `gorm:"type:varchar(128);not null;default:''" json:"wallet_address"`
	Status        int8       `gorm:"type:smallint;not null;default:0" json:"status"`
	AdminNotes    *string    `gorm:"type:varchar(255)" json:"admin_notes,omitempty"`
	OperatorID    *int64     `json:"operator_id,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User     *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Operator *Admin `gorm:"foreignKey:OperatorID" json:"operator,omitempty"`
}

// TableName 表名
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// WithdrawMethod 提现方式
const (
	WithdrawMethodUSDT = "usdt" // USDT（按实时价折算）
	WithdrawMethodJOJO = "jojo" // 平台币
)

// RefillRequest 充值申请
type RefillRequest struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RefillNo        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"refill_no"`
	UserID          int64      `gorm:"index;not null" json:"user_id"`
	Amount          float64    `gorm:"type:decimal(14,2);not null" json:"amount"`
	TransactionHash string     `gorm:"type:varchar(128);not null;default:''" json:"transaction_hash"`
	Status          int8       `gorm:"type:smallint;not null;default:0" json:"status"`
	AdminNotes      *string    `gorm:"type:varchar(255)" json:"admin_notes,omitempty"`
	OperatorID      *int64     `json:"operator_id,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User     *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Operator *Admin `gorm:"foreignKey:OperatorID" json:"operator,omitempty"`
}

// TableName 表名
func (RefillRequest) TableName() string {
	return "refill_requests"
}

// RequestStatus 充值/提现申请状态
const (
	RequestStatusPending  = 0 // 待审核
	RequestStatusApproved = 1 // 已通过（终态）
	RequestStatusRejected = 2 // 已拒绝（终态）
)
