package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the application's Prometheus metrics on a private
// registry. A nil *Collector is valid and records nothing, so components can
// run unmetered in tests.
type Collector struct {
	registry       *prometheus.Registry
	tradesExecuted *prometheus.CounterVec
	tradesRejected *prometheus.CounterVec
	tradeDuration  prometheus.Histogram
	accountBalance *prometheus.GaugeVec
}

// NewCollector creates a Collector with a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		tradesExecuted: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "trades_executed_total",
			Help: "Total number of committed trades",
		}, []string{"side"}),
		tradesRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "trades_rejected_total",
			Help: "Total number of rejected or failed trades",
		}, []string{"reason"}),
		tradeDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "trade_execution_duration_seconds",
			Help:    "Time taken to execute a trade",
			Buckets: prometheus.DefBuckets,
		}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "account_balance",
			Help: "Current account cash balance",
		}, []string{"account_id"}),
	}
}

// TradeExecuted records a committed trade and its execution time.
func (c *Collector) TradeExecuted(side string, duration time.Duration) {
	if c == nil {
		return
	}
	c.tradesExecuted.WithLabelValues(side).Inc()
	c.tradeDuration.Observe(duration.Seconds())
}

// TradeRejected records a trade that did not commit, labelled by reason.
func (c *Collector) TradeRejected(reason string) {
	if c == nil {
		return
	}
	c.tradesRejected.WithLabelValues(reason).Inc()
}

// SetBalance updates the balance gauge for an account.
func (c *Collector) SetBalance(accountID string, balance float64) {
	if c == nil {
		return
	}
	c.accountBalance.WithLabelValues(accountID).Set(balance)
}

// Handler exposes the registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
