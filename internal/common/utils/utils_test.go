// Package utils 工具函数单元测试
package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTxNo(t *testing.T) {
	no := GenerateTxNo("WD")
	assert.True(t, strings.HasPrefix(no, "WD"))
	assert.Len(t, no, 2+14+6)

	// 两次生成不应相同
	assert.NotEqual(t, no, GenerateTxNo("WD"))
}

func TestGenerateInviteCode(t *testing.T) {
	code := GenerateInviteCode(8)
	assert.Len(t, code, 8)
	// 不包含易混淆字符
	for _, ch := range "0OI1" {
		assert.NotContains(t, code, string(ch))
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "100.00", FormatCurrency(100))
	assert.Equal(t, "0.05", FormatCurrency(0.05))
	assert.Equal(t, "-18.00", FormatCurrency(-18))
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "刚刚", TimeAgo(time.Now().Add(-10*time.Second)))
	assert.Equal(t, "5分钟前", TimeAgo(time.Now().Add(-5*time.Minute)))
	assert.Equal(t, "3小时前", TimeAgo(time.Now().Add(-3*time.Hour)))
	assert.Equal(t, "2天前", TimeAgo(time.Now().Add(-49*time.Hour)))
}

func TestMonthCycle(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08", MonthCycle(ts))
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "", SafeString(nil))
	s := "x"
	assert.Equal(t, "x", SafeString(&s))
}
