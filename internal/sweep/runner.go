// Package sweep runs the collection-wide price reconciliation pass and its
// periodic scheduler.
package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/notify"
	"github.com/akovacs/gameledger/internal/service"
)

const (
	// lockKey names the distributed lock that keeps sweeps from
	// overlapping.
	lockKey = "price_sweep"

	// DefaultLockTTL bounds how long a crashed sweep can block the next
	// one.
	DefaultLockTTL = 30 * time.Minute

	// DefaultPace is the delay between consecutive scrapes, keeping the
	// sweep polite toward the price source.
	DefaultPace = 2 * time.Second

	// eventsChannel carries live sweep progress; eventsStream keeps the
	// durable trail of the same payloads.
	eventsChannel = "sweep"
	eventsStream  = "stream:sweep"
)

// Reconciler is the per-game cycle the sweep drives; *service.ReconcileService
// satisfies it.
type Reconciler interface {
	Thresholds(ctx context.Context, gameID string) (domain.AlertThresholds, error)
	ReconcileGame(ctx context.Context, game domain.Game, th domain.AlertThresholds) (service.ReconcileOutcome, error)
}

// Runner walks the whole catalog sequentially, reconciling each alert-enabled
// game and isolating per-game failures so one bad title never aborts the
// pass.
type Runner struct {
	games    domain.GameStore
	recon    Reconciler
	locks    domain.LockManager
	bus      domain.SignalBus
	notifier *notify.Notifier

	enabled bool
	pace    time.Duration
	lockTTL time.Duration
	logger  *slog.Logger
}

// RunnerConfig bundles Runner construction parameters.
type RunnerConfig struct {
	Games    domain.GameStore
	Recon    Reconciler
	Locks    domain.LockManager
	Bus      domain.SignalBus
	Notifier *notify.Notifier

	// Enabled is the global auto-scraping switch. A disabled runner
	// refuses to sweep.
	Enabled bool

	// Pace is the delay between consecutive games; <= 0 uses DefaultPace.
	Pace time.Duration

	// LockTTL caps the sweep lock lifetime; <= 0 uses DefaultLockTTL.
	LockTTL time.Duration

	Logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	pace := cfg.Pace
	if pace <= 0 {
		pace = DefaultPace
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		games:    cfg.Games,
		recon:    cfg.Recon,
		locks:    cfg.Locks,
		bus:      cfg.Bus,
		notifier: cfg.Notifier,
		enabled:  cfg.Enabled,
		pace:     pace,
		lockTTL:  lockTTL,
		logger:   logger.With(slog.String("component", "sweep")),
	}
}

// Sweep runs one full reconciliation pass and returns its summary.
//
// It returns domain.ErrSweepDisabled without touching anything when the
// global switch is off, and domain.ErrSweepRunning when another sweep holds
// the lock. Games whose resolved thresholds are disabled are counted as
// skipped without being scraped. Per-game failures are recorded in the
// summary and the pass continues.
func (r *Runner) Sweep(ctx context.Context) (domain.SweepSummary, error) {
	if !r.enabled {
		return domain.SweepSummary{}, domain.ErrSweepDisabled
	}

	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, lockKey, r.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				return domain.SweepSummary{}, domain.ErrSweepRunning
			}
			return domain.SweepSummary{}, fmt.Errorf("sweep: acquire lock: %w", err)
		}
		defer unlock()
	}

	games, err := r.games.List(ctx, domain.ListOpts{})
	if err != nil {
		return domain.SweepSummary{}, fmt.Errorf("sweep: list games: %w", err)
	}

	summary := domain.SweepSummary{StartedAt: time.Now().UTC()}
	r.logger.InfoContext(ctx, "sweep started", slog.Int("games", len(games)))
	r.publishEvent(ctx, map[string]any{
		"event": "sweep_started",
		"games": len(games),
	})

	for i, game := range games {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = time.Now().UTC()
			return summary, fmt.Errorf("sweep: cancelled after %d games: %w", summary.Processed, err)
		}

		r.sweepOne(ctx, game, &summary)

		// Pace between games, not after the last one.
		if i < len(games)-1 {
			if err := sleepCtx(ctx, r.pace); err != nil {
				summary.FinishedAt = time.Now().UTC()
				return summary, fmt.Errorf("sweep: cancelled after %d games: %w", summary.Processed, err)
			}
		}
	}

	summary.FinishedAt = time.Now().UTC()
	r.logger.InfoContext(ctx, "sweep finished",
		slog.Int("processed", summary.Processed),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", len(summary.Failures)),
	)
	r.publishEvent(ctx, map[string]any{
		"event":     "sweep_finished",
		"processed": summary.Processed,
		"updated":   summary.Updated,
		"skipped":   summary.Skipped,
		"failed":    len(summary.Failures),
	})

	if r.notifier != nil {
		title, body := notify.FormatSweepSummary(summary)
		if err := r.notifier.Notify(ctx, notify.EventSweepComplete, title, body); err != nil {
			r.logger.WarnContext(ctx, "sweep notification failed", slog.String("error", err.Error()))
		}
	}

	return summary, nil
}

func (r *Runner) sweepOne(ctx context.Context, game domain.Game, summary *domain.SweepSummary) {
	summary.Processed++

	th, err := r.recon.Thresholds(ctx, game.ID)
	if err != nil {
		r.recordFailure(ctx, summary, game, "persist", err)
		return
	}
	if !th.Enabled {
		summary.Skipped++
		r.logger.DebugContext(ctx, "alerts disabled, skipping",
			slog.String("game_id", game.ID),
			slog.String("title", game.Title),
		)
		return
	}

	outcome, err := r.recon.ReconcileGame(ctx, game, th)
	if err != nil {
		stage := "scrape"
		if errors.Is(err, domain.ErrPersistence) {
			stage = "persist"
		}
		r.recordFailure(ctx, summary, game, stage, err)
		return
	}

	if outcome.Committed {
		summary.Updated++
	} else {
		summary.Skipped++
	}
	r.publishEvent(ctx, map[string]any{
		"event":     "game_reconciled",
		"game_id":   game.ID,
		"title":     game.Title,
		"committed": outcome.Committed,
		"reason":    outcome.Reason,
	})
}

func (r *Runner) recordFailure(ctx context.Context, summary *domain.SweepSummary, game domain.Game, stage string, err error) {
	summary.Failures = append(summary.Failures, domain.SweepFailure{
		GameID: game.ID,
		Title:  game.Title,
		Stage:  stage,
		Reason: err.Error(),
	})
	r.logger.WarnContext(ctx, "game failed, continuing sweep",
		slog.String("game_id", game.ID),
		slog.String("title", game.Title),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	r.publishEvent(ctx, map[string]any{
		"event":   "game_failed",
		"game_id": game.ID,
		"title":   game.Title,
		"stage":   stage,
	})
}

// publishEvent fans a progress event out over Pub/Sub and the durable
// stream. Both paths are best effort.
func (r *Runner) publishEvent(ctx context.Context, payload map[string]any) {
	if r.bus == nil {
		return
	}
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := r.bus.Publish(ctx, eventsChannel, data); err != nil {
		r.logger.DebugContext(ctx, "sweep event publish failed", slog.String("error", err.Error()))
	}
	if err := r.bus.StreamAppend(ctx, eventsStream, data); err != nil {
		r.logger.DebugContext(ctx, "sweep event stream append failed", slog.String("error", err.Error()))
	}
}

// EventsStream is the durable stream name carrying sweep progress events.
func EventsStream() string { return eventsStream }

// EventsChannel is the Pub/Sub channel carrying live sweep progress events.
func EventsChannel() string { return eventsChannel }

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
