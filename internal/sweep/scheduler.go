package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

// Scheduler runs sweeps on a fixed interval. A sweep already in progress or
// a disabled runner makes a tick a no-op rather than an error.
type Scheduler struct {
	runner   *Runner
	interval time.Duration
	trigger  <-chan struct{}
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler driving the given runner.
func NewScheduler(runner *Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.With(slog.String("component", "sweep_scheduler")),
	}
}

// WithTrigger sets a channel whose receives each run one extra sweep, on top
// of the interval ticks. The API trigger endpoint sends on it.
func (s *Scheduler) WithTrigger(ch <-chan struct{}) *Scheduler {
	s.trigger = ch
	return s
}

// Run sweeps immediately, then on every tick until the context ends. It
// returns ctx.Err() on shutdown; sweep failures are logged and the loop
// continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("sweep scheduler starting", slog.Duration("interval", s.interval))

	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		case <-s.trigger:
			s.logger.Info("sweep triggered manually")
			s.sweepOnce(ctx)
		}
	}
}

func (s *Scheduler) sweepOnce(ctx context.Context) {
	_, err := s.runner.Sweep(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSweepDisabled):
		s.logger.Debug("sweep disabled, skipping tick")
	case errors.Is(err, domain.ErrSweepRunning):
		s.logger.Debug("sweep still running, skipping tick")
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
	default:
		s.logger.Error("scheduled sweep failed", slog.String("error", err.Error()))
	}
}
