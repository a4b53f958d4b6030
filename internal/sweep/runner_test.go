package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/service"
)

type fakeGameStore struct {
	games   []domain.Game
	listErr error
}

func (f *fakeGameStore) Upsert(ctx context.Context, g domain.Game) error { return nil }
func (f *fakeGameStore) GetByID(ctx context.Context, id string) (domain.Game, error) {
	for _, g := range f.games {
		if g.ID == id {
			return g, nil
		}
	}
	return domain.Game{}, domain.ErrNotFound
}
func (f *fakeGameStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Game, error) {
	return f.games, f.listErr
}
func (f *fakeGameStore) UpdateCurrentPrice(ctx context.Context, id string, price float64) error {
	return nil
}
func (f *fakeGameStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.games)), nil
}

type fakeReconciler struct {
	thresholds     map[string]domain.AlertThresholds
	outcomes       map[string]service.ReconcileOutcome
	errs           map[string]error
	reconcileCalls []string
}

func (f *fakeReconciler) Thresholds(ctx context.Context, gameID string) (domain.AlertThresholds, error) {
	th, ok := f.thresholds[gameID]
	if !ok {
		return domain.AlertThresholds{Enabled: true}, nil
	}
	return th, nil
}

func (f *fakeReconciler) ReconcileGame(ctx context.Context, game domain.Game, th domain.AlertThresholds) (service.ReconcileOutcome, error) {
	f.reconcileCalls = append(f.reconcileCalls, game.ID)
	if err := f.errs[game.ID]; err != nil {
		return service.ReconcileOutcome{}, err
	}
	return f.outcomes[game.ID], nil
}

type fakeLocks struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.acquired++
	return func() { f.released++ }, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(games *fakeGameStore, recon *fakeReconciler, locks *fakeLocks, enabled bool) *Runner {
	return NewRunner(RunnerConfig{
		Games:   games,
		Recon:   recon,
		Locks:   locks,
		Enabled: enabled,
		Pace:    time.Millisecond,
		Logger:  testLogger(),
	})
}

func TestSweepDisabledDoesNothing(t *testing.T) {
	games := &fakeGameStore{games: []domain.Game{{ID: "g1", Title: "Bloodborne"}}}
	recon := &fakeReconciler{}
	locks := &fakeLocks{}

	_, err := newTestRunner(games, recon, locks, false).Sweep(context.Background())
	if !errors.Is(err, domain.ErrSweepDisabled) {
		t.Fatalf("err = %v, want ErrSweepDisabled", err)
	}
	if len(recon.reconcileCalls) != 0 {
		t.Error("no games may be reconciled when the global switch is off")
	}
	if locks.acquired != 0 {
		t.Error("no lock may be taken when the global switch is off")
	}
}

func TestSweepLockHeld(t *testing.T) {
	games := &fakeGameStore{games: []domain.Game{{ID: "g1"}}}
	recon := &fakeReconciler{}
	locks := &fakeLocks{held: true}

	_, err := newTestRunner(games, recon, locks, true).Sweep(context.Background())
	if !errors.Is(err, domain.ErrSweepRunning) {
		t.Fatalf("err = %v, want ErrSweepRunning", err)
	}
}

func TestSweepCountsAndFailureIsolation(t *testing.T) {
	games := &fakeGameStore{games: []domain.Game{
		{ID: "g1", Title: "Bloodborne"},
		{ID: "g2", Title: "Okami"},
		{ID: "g3", Title: "Tetris"},
		{ID: "g4", Title: "Doom"},
	}}
	recon := &fakeReconciler{
		thresholds: map[string]domain.AlertThresholds{
			"g1": {Enabled: true},
			"g2": {Enabled: false}, // skipped without a scrape
			"g3": {Enabled: true},
			"g4": {Enabled: true},
		},
		outcomes: map[string]service.ReconcileOutcome{
			"g1": {GameID: "g1", Committed: true},
			"g4": {GameID: "g4", Committed: false, Reason: "change_within_band"},
		},
		errs: map[string]error{
			"g3": errors.New("scrape timeout"),
		},
	}
	locks := &fakeLocks{}

	summary, err := newTestRunner(games, recon, locks, true).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if summary.Processed != 4 {
		t.Errorf("Processed = %d, want 4", summary.Processed)
	}
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}
	// g2 (disabled) and g4 (uncommitted) both count as skipped.
	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].GameID != "g3" {
		t.Errorf("Failures = %+v, want only g3", summary.Failures)
	}
	if summary.Failures[0].Stage != "scrape" {
		t.Errorf("failure stage = %q, want scrape", summary.Failures[0].Stage)
	}

	// The disabled game was never scraped; the failing one did not stop
	// the game after it.
	want := []string{"g1", "g3", "g4"}
	if len(recon.reconcileCalls) != len(want) {
		t.Fatalf("reconcile calls = %v, want %v", recon.reconcileCalls, want)
	}
	for i := range want {
		if recon.reconcileCalls[i] != want[i] {
			t.Errorf("reconcile calls = %v, want %v", recon.reconcileCalls, want)
			break
		}
	}

	if locks.released != 1 {
		t.Error("lock must be released after the sweep")
	}
	if summary.FinishedAt.Before(summary.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

func TestSweepEmptyCatalog(t *testing.T) {
	summary, err := newTestRunner(&fakeGameStore{}, &fakeReconciler{}, &fakeLocks{}, true).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if summary.Processed != 0 || summary.Updated != 0 || len(summary.Failures) != 0 {
		t.Errorf("summary = %+v, want all zero", summary)
	}
}

func TestSweepCancelledMidway(t *testing.T) {
	games := &fakeGameStore{games: []domain.Game{
		{ID: "g1"}, {ID: "g2"}, {ID: "g3"},
	}}
	recon := &fakeReconciler{}

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(RunnerConfig{
		Games:   games,
		Recon:   recon,
		Locks:   &fakeLocks{},
		Enabled: true,
		Pace:    50 * time.Millisecond,
		Logger:  testLogger(),
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	summary, err := r.Sweep(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if summary.Processed == 0 || summary.Processed == len(games.games) {
		t.Errorf("Processed = %d, want a partial pass", summary.Processed)
	}
}

func TestSweepFailureStageClassification(t *testing.T) {
	games := &fakeGameStore{games: []domain.Game{
		{ID: "g1", Title: "Bloodborne"},
		{ID: "g2", Title: "Okami"},
	}}
	recon := &fakeReconciler{
		errs: map[string]error{
			"g1": errors.New("scrape timeout"),
			"g2": fmt.Errorf("append observation for g2: %w: %w",
				domain.ErrPersistence, errors.New("connection closed")),
		},
	}

	summary, err := newTestRunner(games, recon, &fakeLocks{}, true).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if len(summary.Failures) != 2 {
		t.Fatalf("Failures = %+v, want 2", summary.Failures)
	}
	stages := map[string]string{}
	for _, f := range summary.Failures {
		stages[f.GameID] = f.Stage
	}
	if stages["g1"] != "scrape" {
		t.Errorf("g1 stage = %q, want scrape", stages["g1"])
	}
	if stages["g2"] != "persist" {
		t.Errorf("g2 stage = %q, want persist", stages["g2"])
	}
}
