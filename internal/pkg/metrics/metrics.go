package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标
type Metrics struct {
	registry         *prometheus.Registry
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	workflowRuns     *prometheus.CounterVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	keyDisclosures   *prometheus.CounterVec
}

// New 使用独立的 registry, 避免测试之间重复注册
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return newWithRegistry(reg)
}

func newWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subleet_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subleet_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		workflowRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subleet_workflow_runs_total",
				Help: "Workflow runs by kind and final state",
			},
			[]string{"kind", "state"},
		),
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subleet_upstream_calls_total",
				Help: "Calls to the AI platform and the function host",
			},
			[]string{"upstream", "operation", "result"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subleet_upstream_call_duration_seconds",
				Help:    "Upstream call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"upstream", "operation"},
		),
		keyDisclosures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subleet_key_disclosures_total",
				Help: "Plaintext key disclosures by channel (provision, rotate, reveal) and result",
			},
			[]string{"channel", "result"},
		),
	}
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordWorkflow 记录工作流终态
func (m *Metrics) RecordWorkflow(kind, state string) {
	if m == nil {
		return
	}
	m.workflowRuns.WithLabelValues(kind, state).Inc()
}

// ObserveUpstream 记录外部调用
func (m *Metrics) ObserveUpstream(upstream, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.upstreamCalls.WithLabelValues(upstream, operation, result).Inc()
	m.upstreamDuration.WithLabelValues(upstream, operation).Observe(d.Seconds())
}

// RecordDisclosure 记录明文密钥的下发
func (m *Metrics) RecordDisclosure(channel, result string) {
	if m == nil {
		return
	}
	m.keyDisclosures.WithLabelValues(channel, result).Inc()
}
