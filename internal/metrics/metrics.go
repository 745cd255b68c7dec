package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标名称
const (
	MetricUpstreamRequestsTotal   = "ayokah_upstream_requests_total"
	MetricUpstreamDurationSeconds = "ayokah_upstream_request_duration_seconds"
	MetricDebounceSupersededTotal = "ayokah_debounce_superseded_total"
	MetricStaleResponsesTotal     = "ayokah_stale_responses_discarded_total"
	MetricStatusRollbacksTotal    = "ayokah_status_rollbacks_total"
	MetricCheckoutHandoffsTotal   = "ayokah_checkout_handoffs_total"
	MetricActiveSessions          = "ayokah_active_sessions"
)

// Recorder 进程内指标集合，nil 接收者上的调用均为空操作
type Recorder struct {
	registry           *prometheus.Registry
	upstreamRequests   *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
	debounceSuperseded *prometheus.CounterVec
	staleResponses     *prometheus.CounterVec
	statusRollbacks    prometheus.Counter
	checkoutHandoffs   *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

// New 创建独立 Registry 的指标集合
func New() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricUpstreamRequestsTotal,
			Help: "Requests sent to the commerce API",
		}, []string{"endpoint", "method", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricUpstreamDurationSeconds,
			Help:    "Commerce API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		debounceSuperseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDebounceSupersededTotal,
			Help: "Debounced fetches replaced by newer input",
		}, []string{"view"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStaleResponsesTotal,
			Help: "Responses discarded because a newer generation exists",
		}, []string{"view"}),
		statusRollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStatusRollbacksTotal,
			Help: "Optimistic item status changes rolled back",
		}),
		checkoutHandoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCheckoutHandoffsTotal,
			Help: "Checkout submissions by result",
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveSessions,
			Help: "Sessions currently held in memory",
		}),
	}
	registry.MustRegister(
		r.upstreamRequests,
		r.upstreamDuration,
		r.debounceSuperseded,
		r.staleResponses,
		r.statusRollbacks,
		r.checkoutHandoffs,
		r.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry 返回底层 Registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler 返回 /metrics 处理器
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveUpstream 记录一次上游请求，status 为 0 表示传输失败
func (r *Recorder) ObserveUpstream(endpoint, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.upstreamRequests.WithLabelValues(endpoint, method, label).Inc()
	r.upstreamDuration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

// DebounceSuperseded 记录被后续输入替换的防抖请求
func (r *Recorder) DebounceSuperseded(view string) {
	if r == nil {
		return
	}
	r.debounceSuperseded.WithLabelValues(view).Inc()
}

// StaleDiscarded 记录被丢弃的过期响应
func (r *Recorder) StaleDiscarded(view string) {
	if r == nil {
		return
	}
	r.staleResponses.WithLabelValues(view).Inc()
}

// StatusRolledBack 记录状态回滚
func (r *Recorder) StatusRolledBack() {
	if r == nil {
		return
	}
	r.statusRollbacks.Inc()
}

// CheckoutHandoff 记录结账结果（redirected / failed）
func (r *Recorder) CheckoutHandoff(result string) {
	if r == nil {
		return
	}
	r.checkoutHandoffs.WithLabelValues(result).Inc()
}

// SetActiveSessions 更新会话数量
func (r *Recorder) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.activeSessions.Set(float64(n))
}
