package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 收集提醒引擎的執行指標；nil Collector 的方法皆為 no-op。
type Collector struct {
	registry      *prometheus.Registry
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	triggers      prometheus.Counter
	quoteFailures *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	skippedTicks  prometheus.Counter
}

// NewCollector 建立並註冊所有指標到獨立 registry。
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_alert_cycles_total",
			Help: "Alert evaluation cycles by outcome",
		}, []string{"status"}), // status: ok|store_error|canceled
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stock_alert_cycle_duration_seconds",
			Help:    "Alert evaluation cycle duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_alert_triggers_total",
			Help: "Alert rules triggered",
		}),
		quoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_alert_quote_failures_total",
			Help: "Quote fetch failures by indicator kind",
		}, []string{"kind"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_alert_deliveries_total",
			Help: "Notification deliveries by channel and status",
		}, []string{"channel", "status"}),
		skippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_alert_skipped_ticks_total",
			Help: "Cadence ticks skipped because a cycle was still running",
		}),
	}
	reg.MustRegister(c.cycles, c.cycleDuration, c.triggers, c.quoteFailures, c.deliveries, c.skippedTicks)
	return c
}

// Handler 回傳 /metrics 使用的 HTTP handler。
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveCycle(status string, d time.Duration) {
	if c == nil {
		return
	}
	c.cycles.WithLabelValues(status).Inc()
	c.cycleDuration.Observe(d.Seconds())
}

func (c *Collector) AddTriggers(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.triggers.Add(float64(n))
}

func (c *Collector) QuoteFailed(kind string) {
	if c == nil {
		return
	}
	c.quoteFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) Delivery(channel string, ok bool) {
	if c == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	c.deliveries.WithLabelValues(channel, status).Inc()
}

func (c *Collector) SkippedTick() {
	if c == nil {
		return
	}
	c.skippedTicks.Inc()
}
