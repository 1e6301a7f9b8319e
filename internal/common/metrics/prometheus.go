// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	purchasesTotal       *prometheus.CounterVec
	bonusPayoutsTotal    prometheus.Counter
	bonusPayoutAmount    prometheus.Counter
	commissionsTotal     *prometheus.CounterVec
	withdrawalsTotal     *prometheus.CounterVec
	activePackages       prometheus.Gauge
}

var defaultMetrics *Metrics

// Init 初始化指标收集器
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mining_platform"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		purchasesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "package_purchases_total",
				Help:      "Total number of mining package purchases",
			},
			[]string{"mode"},
		),
		bonusPayoutsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bonus_payouts_total",
				Help:      "Total number of accrual bonus payouts",
			},
		),
		bonusPayoutAmount: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bonus_payout_amount_total",
				Help:      "Cumulative accrual bonus amount paid out",
			},
		),
		commissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "referral_commissions_total",
				Help:      "Total number of referral commission payouts",
			},
			[]string{"level"},
		),
		withdrawalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withdrawals_total",
				Help:      "Total number of withdrawal requests by status",
			},
			[]string{"status"},
		),
		activePackages: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_packages",
				Help:      "Current number of active user packages",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get 获取默认指标收集器
func Get() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}

// RecordPurchase 记录矿机包购买
func (m *Metrics) RecordPurchase(mode string) {
	m.purchasesTotal.WithLabelValues(mode).Inc()
}

// RecordBonusPayout 记录收益发放
func (m *Metrics) RecordBonusPayout(amount float64) {
	m.bonusPayoutsTotal.Inc()
	m.bonusPayoutAmount.Add(amount)
}

// RecordCommission 记录推荐佣金发放
func (m *Metrics) RecordCommission(level int) {
	m.commissionsTotal.WithLabelValues(strconv.Itoa(level)).Inc()
}

// RecordWithdrawal 记录提现申请状态变化
func (m *Metrics) RecordWithdrawal(status string) {
	m.withdrawalsTotal.WithLabelValues(status).Inc()
}

// SetActivePackages 更新活跃矿机包数
func (m *Metrics) SetActivePackages(n float64) {
	m.activePackages.Set(n)
}

// GinMiddleware HTTP 指标中间件
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		m.httpRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// Handler 返回 /metrics 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
