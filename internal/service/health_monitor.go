package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	"github.com/noah-isme/sma-dashboard-shell/pkg/jobs"
)

const (
	jobTypeProbe = "upstream-probe"

	upstreamDownMessage     = "The school server cannot be reached. Some sections may not load."
	upstreamRestoredMessage = "Connection to the school server has been restored."
)

type upstreamProber interface {
	Health(ctx context.Context) models.HealthStatus
}

// HealthMonitorConfig tunes the probe schedule.
type HealthMonitorConfig struct {
	Interval time.Duration
	Logger   *zap.Logger
}

// HealthMonitor probes the backend periodically and notifies every shell
// when reachability changes.
type HealthMonitor struct {
	prober   upstreamProber
	registry *ShellRegistry
	cfg      HealthMonitorConfig
	logger   *zap.Logger
	queue    *jobs.Queue

	mu    sync.RWMutex
	last  models.HealthStatus
	known bool
}

// NewHealthMonitor wires the monitor; call Start to schedule it.
func NewHealthMonitor(prober upstreamProber, registry *ShellRegistry, cfg HealthMonitorConfig) *HealthMonitor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	m := &HealthMonitor{prober: prober, registry: registry, cfg: cfg, logger: cfg.Logger}
	m.queue = jobs.NewQueue("health-monitor", m.handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 0,
		Logger:     cfg.Logger,
	})
	return m
}

// Start launches the worker and the ticker.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.queue.Start(ctx)
	m.queue.Every(ctx, m.cfg.Interval, func() jobs.Job {
		return jobs.Job{ID: uuid.NewString(), Type: jobTypeProbe}
	})
	m.logger.Info("health monitor started", zap.Duration("interval", m.cfg.Interval))
}

// Stop halts the probes.
func (m *HealthMonitor) Stop() {
	m.queue.Stop()
}

// Last returns the latest probe result and whether one has run.
func (m *HealthMonitor) Last() (models.HealthStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.known
}

// Probe checks the backend now and broadcasts on a reachability change.
// The first probe only broadcasts when the backend is down.
func (m *HealthMonitor) Probe(ctx context.Context) models.HealthStatus {
	status := m.prober.Health(ctx)

	m.mu.Lock()
	previous, known := m.last, m.known
	m.last, m.known = status, true
	m.mu.Unlock()

	switch {
	case !status.Reachable && (!known || previous.Reachable):
		n := m.registry.Broadcast(upstreamDownMessage, models.NotificationPriorityHigh)
		m.logger.Warn("backend unreachable", zap.String("error", status.Error), zap.Int("notified", n))
	case status.Reachable && known && !previous.Reachable:
		n := m.registry.Broadcast(upstreamRestoredMessage, models.NotificationPriorityNormal)
		m.logger.Info("backend reachable again", zap.Int("notified", n))
	}
	return status
}

func (m *HealthMonitor) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeProbe:
		m.Probe(ctx)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	return nil
}
