package service

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
)

// Login outcomes recorded by RecordLogin.
const (
	LoginOutcomeSuccess  = "success"
	LoginOutcomeRejected = "rejected"
	LoginOutcomeError    = "error"
)

// MetricsService owns the Prometheus registry of the shell and keeps
// lightweight counters for the JSON snapshot endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
	logins          *prometheus.CounterVec
	fetchRetries    prometheus.Counter
	upstreamUp      prometheus.Gauge
	activeShells    prometheus.Gauge
	kvLatency       *prometheus.HistogramVec
	dbQueryDuration *prometheus.HistogramVec

	requestCount         uint64
	requestDurationTotal uint64
	resolutionCount      uint64
	fallbackCount        uint64
	loginSuccessCount    uint64
	loginFailureCount    uint64
	fetchRetryCount      uint64
	shellCount           int64
	upstreamReachable    int32
}

// NewMetricsService registers the shell collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shell_view_resolutions_total",
		Help: "Views resolved by the dispatch table",
	}, []string{"view", "fallback"})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shell_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	fetchRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shell_fetch_retries_total",
		Help: "Backend requests retried after a transport failure",
	})

	upstreamUp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shell_upstream_up",
		Help: "1 when the last backend health probe succeeded",
	})

	activeShells := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shell_active_controllers",
		Help: "Shell controllers currently held in memory",
	})

	kvLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shell_kv_operation_seconds",
		Help:    "Latency of session store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, resolutions, logins, fetchRetries, upstreamUp, activeShells, kvLatency, dbQueryDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		resolutions:     resolutions,
		logins:          logins,
		fetchRetries:    fetchRetries,
		upstreamUp:      upstreamUp,
		activeShells:    activeShells,
		kvLatency:       kvLatency,
		dbQueryDuration: dbQueryDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordResolution counts one dispatch result.
func (m *MetricsService) RecordResolution(view models.ViewID, fallback bool) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(view), strconv.FormatBool(fallback)).Inc()
	atomic.AddUint64(&m.resolutionCount, 1)
	if fallback {
		atomic.AddUint64(&m.fallbackCount, 1)
	}
}

// RecordLogin counts a login attempt by outcome.
func (m *MetricsService) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
	if outcome == LoginOutcomeSuccess {
		atomic.AddUint64(&m.loginSuccessCount, 1)
		return
	}
	atomic.AddUint64(&m.loginFailureCount, 1)
}

// RecordFetchRetry matches the retry hook signature of the fetcher.
func (m *MetricsService) RecordFetchRetry(int, error) {
	if m == nil {
		return
	}
	m.fetchRetries.Inc()
	atomic.AddUint64(&m.fetchRetryCount, 1)
}

// SetUpstreamReachable publishes the last health probe result.
func (m *MetricsService) SetUpstreamReachable(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.upstreamUp.Set(1)
		atomic.StoreInt32(&m.upstreamReachable, 1)
		return
	}
	m.upstreamUp.Set(0)
	atomic.StoreInt32(&m.upstreamReachable, 0)
}

// SetActiveShells publishes the controller count of the registry.
func (m *MetricsService) SetActiveShells(n int) {
	if m == nil {
		return
	}
	m.activeShells.Set(float64(n))
	atomic.StoreInt64(&m.shellCount, int64(n))
}

// ObserveKV records the latency of one session store call.
func (m *MetricsService) ObserveKV(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.kvLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics for the JSON endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ViewResolutions:          atomic.LoadUint64(&m.resolutionCount),
		FallbackResolutions:      atomic.LoadUint64(&m.fallbackCount),
		LoginsSucceeded:          atomic.LoadUint64(&m.loginSuccessCount),
		LoginsFailed:             atomic.LoadUint64(&m.loginFailureCount),
		FetchRetries:             atomic.LoadUint64(&m.fetchRetryCount),
		ActiveShells:             int(atomic.LoadInt64(&m.shellCount)),
		UpstreamReachable:        atomic.LoadInt32(&m.upstreamReachable) == 1,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
