package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	"github.com/noah-isme/sma-dashboard-shell/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubUpstream struct {
	last   models.HealthStatus
	known  bool
	probes int
}

func (s *stubUpstream) Last() (models.HealthStatus, bool) { return s.last, s.known }

func (s *stubUpstream) Health(context.Context) models.HealthStatus {
	s.probes++
	return models.HealthStatus{Reachable: false, Error: "dial tcp: refused"}
}

func TestMetricsHandlerReady(t *testing.T) {
	catalog, err := service.NewCalendarCatalog(service.SeedCalendarEvents())
	require.NoError(t, err)

	c, w := newShellContext(http.MethodGet, "/ready", "", nil)
	NewMetricsHandler(nil, stubPinger{}, nil, nil, catalog).Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newShellContext(http.MethodGet, "/ready", "", nil)
	NewMetricsHandler(nil, stubPinger{err: errors.New("redis down")}, nil, nil, catalog).Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis down")
}

func TestMetricsHandlerUpstream(t *testing.T) {
	upstream := &stubUpstream{last: models.HealthStatus{Reachable: true}, known: true}
	handler := NewMetricsHandler(nil, nil, upstream, upstream, nil)

	c, w := newShellContext(http.MethodGet, "/health/upstream", "", nil)
	handler.Upstream(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "monitor", decodeEnvelope(t, w).Meta["source"])
	assert.Zero(t, upstream.probes)

	c, w = newShellContext(http.MethodGet, "/health/upstream?refresh=true", "", nil)
	handler.Upstream(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, upstream.probes)
	assert.Contains(t, w.Body.String(), `"reachable":false`)
}

func TestMetricsHandlerSnapshotAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordLogin(service.LoginOutcomeSuccess)
	handler := NewMetricsHandler(metrics, nil, &stubUpstream{last: models.HealthStatus{Reachable: true}, known: true}, nil, nil)

	c, w := newShellContext(http.MethodGet, "/metrics/snapshot", "", nil)
	handler.Snapshot(c)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"upstream_reachable":true`)

	c, w = newShellContext(http.MethodGet, "/metrics", "", nil)
	handler.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shell_logins_total")

	c, w = newShellContext(http.MethodGet, "/metrics", "", nil)
	NewMetricsHandler(nil, nil, nil, nil, nil).Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
