package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-shell/pkg/jobs"
)

const (
	jobTypeSweep = "shell-sweep"

	defaultIdleTimeout = 30 * time.Minute
)

// ShellSweeperConfig tunes idle eviction. Interval defaults to half of
// IdleTimeout.
type ShellSweeperConfig struct {
	IdleTimeout time.Duration
	Interval    time.Duration
	Logger      *zap.Logger
}

// ShellSweeper evicts controllers of devices that stopped sending requests.
// It runs whether or not upstream probing is enabled.
type ShellSweeper struct {
	registry *ShellRegistry
	cfg      ShellSweeperConfig
	logger   *zap.Logger
	queue    *jobs.Queue
}

// NewShellSweeper wires the sweeper; call Start to schedule it.
func NewShellSweeper(registry *ShellRegistry, cfg ShellSweeperConfig) *ShellSweeper {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = cfg.IdleTimeout / 2
	}
	s := &ShellSweeper{registry: registry, cfg: cfg, logger: cfg.Logger}
	s.queue = jobs.NewQueue("shell-sweeper", s.handle, jobs.QueueConfig{
		Workers: 1,
		Logger:  cfg.Logger,
	})
	return s
}

// Start launches the worker and the ticker.
func (s *ShellSweeper) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.queue.Every(ctx, s.cfg.Interval, func() jobs.Job {
		return jobs.Job{ID: uuid.NewString(), Type: jobTypeSweep}
	})
	s.logger.Info("shell sweeper started",
		zap.Duration("idle_timeout", s.cfg.IdleTimeout),
		zap.Duration("interval", s.cfg.Interval),
	)
}

// Stop halts the sweeps.
func (s *ShellSweeper) Stop() {
	s.queue.Stop()
}

func (s *ShellSweeper) handle(_ context.Context, job jobs.Job) error {
	if job.Type != jobTypeSweep {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	s.registry.Sweep(s.cfg.IdleTimeout)
	return nil
}
