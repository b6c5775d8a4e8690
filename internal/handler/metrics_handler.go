package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	"github.com/noah-isme/sma-dashboard-shell/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
	"github.com/noah-isme/sma-dashboard-shell/pkg/response"
)

// Pinger reports whether a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpstreamStatus reports the last known backend reachability.
type UpstreamStatus interface {
	Last() (models.HealthStatus, bool)
}

// UpstreamProber checks the backend on demand.
type UpstreamProber interface {
	Health(ctx context.Context) models.HealthStatus
}

// MetricsHandler exposes observability and health endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	store    Pinger
	monitor  UpstreamStatus
	prober   UpstreamProber
	calendar *service.CalendarCatalog
}

// NewMetricsHandler constructs a metrics handler. store, monitor and prober
// may be nil.
func NewMetricsHandler(metrics *service.MetricsService, store Pinger, monitor UpstreamStatus, prober UpstreamProber, calendar *service.CalendarCatalog) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store, monitor: monitor, prober: prober, calendar: calendar}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot godoc
// @Summary Runtime counters
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/snapshot [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "metrics disabled"))
		return
	}
	snap := h.metrics.Snapshot()
	if h.monitor != nil {
		if last, known := h.monitor.Last(); known {
			snap.UpstreamReachable = last.Reachable
		}
	}
	response.OK(c, snap)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	checks := map[string]string{"session_store": "ok", "calendar": "ok"}
	ready := true
	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			checks["session_store"] = err.Error()
			ready = false
		}
	}
	if h.calendar == nil {
		checks["calendar"] = "not loaded"
		ready = false
	}
	if !ready {
		response.Error(c, appErrors.Clone(appErrors.ErrNetwork, "dependencies unavailable"), map[string]interface{}{"checks": checks})
		return
	}
	response.OK(c, gin.H{"status": "ready", "checks": checks})
}

// Upstream godoc
// @Summary School backend reachability
// @Description Returns the monitor's last result, probing now when none is known or refresh=true
// @Tags System
// @Produce json
// @Param refresh query bool false "Probe now"
// @Success 200 {object} response.Envelope
// @Router /health/upstream [get]
func (h *MetricsHandler) Upstream(c *gin.Context) {
	if h.monitor != nil && c.Query("refresh") != "true" {
		if last, known := h.monitor.Last(); known {
			response.OK(c, last, map[string]interface{}{"source": "monitor"})
			return
		}
	}
	if h.prober == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "upstream probe disabled"))
		return
	}
	response.OK(c, h.prober.Health(c.Request.Context()), map[string]interface{}{"source": "probe"})
}
