// Package handler 提供 API Handler 的通用辅助函数
// 统一错误处理、认证检查、分页参数解析，减少 Handler 层的重复代码
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/common/response"
	"github.com/jojomine/mining-platform-backend/internal/middleware"
)

// HandleError 处理错误并发送适当的响应
// err 为 nil 时返回 false；否则发送错误响应并返回 true，调用方应当 return
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, err.Error())
	return true
}

// HandleErrorWithMessage 处理错误，对非 AppError 使用自定义消息
// 适用于需要隐藏内部错误详情的场景
func HandleErrorWithMessage(c *gin.Context, err error, message string) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, message)
	return true
}

// MustSucceed 便捷封装：如果有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// RequireUserID 获取当前用户ID，如果未登录则返回401响应
func RequireUserID(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID <= 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// RequireAdminID 获取当前管理员ID，如果未登录则返回401响应
func RequireAdminID(c *gin.Context) (int64, bool) {
	userType, _ := c.Get(middleware.ContextKeyUserType)
	if userType != "admin" {
		response.Forbidden(c, "无权访问")
		return 0, false
	}
	return RequireUserID(c)
}

// ParsePagination 解析分页参数
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// ParseIDParam 解析路径中的 ID 参数
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的ID")
		return 0, false
	}
	return id, true
}
