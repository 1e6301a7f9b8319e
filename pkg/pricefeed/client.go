// Package pricefeed 提供 JOJO 币价行情客户端
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jojomine/mining-platform-backend/internal/common/cache"
	"github.com/jojomine/mining-platform-backend/internal/common/config"
	"github.com/jojomine/mining-platform-backend/internal/common/logger"
)

const priceCacheKey = "pricefeed:jojo_usdt"

// Client 行情客户端
// 行情接口不稳定也不能拖垮提现流程：结果在 Redis 缓存约 30 秒，
// 请求失败时退回固定兜底价
type Client struct {
	cfg        *config.PriceFeedConfig
	httpClient *http.Client
}

// NewClient 创建行情客户端
func NewClient(cfg *config.PriceFeedConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecond) * time.Second,
		},
	}
}

// priceResponse 行情接口响应
type priceResponse struct {
	Price float64 `json:"price"`
}

// GetPrice 获取 JOJO/USDT 价格
func (c *Client) GetPrice(ctx context.Context) float64 {
	if cached, err := cache.GetString(ctx, priceCacheKey); err == nil {
		if price, err := strconv.ParseFloat(cached, 64); err == nil && price > 0 {
			return price
		}
	}

	price, err := c.fetch(ctx)
	if err != nil {
		logger.Errorf("获取币价失败，使用兜底价 %.4f: %v", c.cfg.FallbackPrice, err)
		return c.cfg.FallbackPrice
	}

	if err := cache.SetString(ctx, priceCacheKey,
		strconv.FormatFloat(price, 'f', -1, 64), c.cfg.CacheTTL()); err != nil {
		logger.Errorf("写入币价缓存失败: %v", err)
	}
	return price
}

// fetch 请求行情接口
func (c *Client) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if body.Price <= 0 {
		return 0, fmt.Errorf("invalid price %f", body.Price)
	}
	return body.Price, nil
}
