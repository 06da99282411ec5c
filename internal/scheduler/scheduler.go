package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// JobFunc is the work a Scheduler runs each tick.
type JobFunc func(ctx context.Context) error

type Scheduler struct {
	job      JobFunc
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(job JobFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the job immediately and then on every tick until ctx is
// canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if err := s.job(jobCtx); err != nil {
		s.logger.Error("scheduled job failed", "error", err)
	}
}
