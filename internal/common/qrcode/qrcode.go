// Package qrcode 提供二维码生成功能
package qrcode

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// RecoveryLevel 纠错级别
type RecoveryLevel int

const (
	// Low 7% 纠错
	Low RecoveryLevel = iota
	// Medium 15% 纠错
	Medium
	// High 25% 纠错
	High
	// Highest 30% 纠错
	Highest
)

// Generator 二维码生成器
type Generator struct {
	size          int           // 二维码尺寸（像素）
	recoveryLevel RecoveryLevel // 纠错级别
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 设置二维码尺寸
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithRecoveryLevel 设置纠错级别
func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(g *Generator) {
		g.recoveryLevel = level
	}
}

// NewGenerator 创建二维码生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:          256,
		recoveryLevel: Medium,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// toQRCodeLevel 转换纠错级别
func (g *Generator) toQRCodeLevel() qrcode.RecoveryLevel {
	switch g.recoveryLevel {
	case Low:
		return qrcode.Low
	case Medium:
		return qrcode.Medium
	case High:
		return qrcode.High
	case Highest:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// GeneratePNG 生成 PNG 格式二维码
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, g.toQRCodeLevel(), g.size)
}

// GenerateBase64 生成 Base64 编码的二维码
func (g *Generator) GenerateBase64(content string) (string, error) {
	data, err := g.GeneratePNG(content)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// GenerateDataURL 生成 Data URL 格式的二维码
func (g *Generator) GenerateDataURL(content string) (string, error) {
	b64, err := g.GenerateBase64(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + b64, nil
}
