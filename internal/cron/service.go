package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/metrics"
	"github.com/google/uuid"
)

const (
	defaultInterval   = 24 * time.Hour
	defaultJobTimeout = 2 * time.Hour
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run; a sync that overruns is canceled and counted as failed.
	JobTimeout time.Duration
	// SkipInitialRun waits one interval before the first cycle.
	SkipInitialRun bool
}

// Service runs every registered job once per interval under a cluster-wide lock.
type Service struct {
	logg           *logger.Logger
	registry       *Registry
	lock           Lock
	metrics        *metrics.CronJobMetrics
	interval       time.Duration
	jobTimeout     time.Duration
	skipInitialRun bool
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	jobTimeout := params.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	return &Service{
		logg:           params.Logger,
		registry:       registry,
		lock:           params.Lock,
		metrics:        params.Metrics,
		interval:       interval,
		jobTimeout:     jobTimeout,
		skipInitialRun: params.SkipInitialRun,
	}, nil
}

// Run loops until ctx is canceled. Cycle errors are logged, never returned.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"interval": s.interval.String(),
		"jobs":     s.registry.Names(),
	})

	if !s.skipInitialRun {
		s.tick(ctx)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance holds the lock; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	ctx = s.logg.WithField(ctx, "cycle_id", uuid.NewString())
	s.logg.Info(ctx, "scheduled run starting")
	failed := 0
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		if !s.runJob(ctx, job) {
			failed++
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "failed_jobs", failed), "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) bool {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	runCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(runCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return false
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return true
}
