// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrOperationFailed = New(1008, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2003, "权限不足")
	ErrAccountDisabled  = New(2004, "账号已停用")
	ErrPasswordError    = New(2005, "密码错误")
)

// 用户/钱包错误码 (3000-3999)
var (
	ErrUserNotFound        = New(3000, "用户不存在")
	ErrUserExists          = New(3001, "用户名已被注册")
	ErrInviteCodeInvalid   = New(3002, "邀请码无效")
	ErrBalanceInsufficient = New(3003, "余额不足")
	ErrWalletConflict      = New(3004, "钱包正忙，请稍后重试")
	ErrWalletNotFound      = New(3005, "钱包不存在")
	ErrTransferToSelf      = New(3006, "不能转账给自己")
	ErrTransferLimitExceed = New(3007, "超出单笔转账上限")
)

// 矿机包错误码 (4000-4999)
var (
	ErrPackageNotFound      = New(4000, "矿机包不存在")
	ErrPackageOffShelf      = New(4001, "矿机包已下架")
	ErrPackageReferenced    = New(4002, "矿机包已有购买记录，禁止删除")
	ErrUserPackageNotFound  = New(4003, "矿机包订单不存在")
	ErrPackageModeInvalid   = New(4004, "该操作不适用于此收益模式")
	ErrPackageStateInvalid  = New(4005, "矿机包状态不允许该操作")
	ErrPackageNotMature     = New(4006, "矿机包尚未到期")
	ErrPackageNotOwned      = New(4007, "不能操作他人的矿机包")
)

// 佣金错误码 (5000-5999)
var (
	ErrCommissionDisabled = New(5000, "佣金发放未开启")
	ErrLeadershipSettled  = New(5001, "本月领导奖已结算")
)

// 财务错误码 (6000-6999)
var (
	ErrWithdrawalNotFound   = New(6000, "提现申请不存在")
	ErrWithdrawalProcessed  = New(6001, "提现申请已处理")
	ErrWithdrawBelowMinimum = New(6002, "低于最低提现金额")
	ErrRefillNotFound       = New(6003, "充值申请不存在")
	ErrRefillProcessed      = New(6004, "充值申请已处理")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
