// Package service coordinates stores, caches, external clients, and the
// pricing rules into the operations the API and the sweep expose.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/notify"
	"github.com/akovacs/gameledger/internal/pricing"
)

// DecideFunc applies the auto-update rule to a candidate price. It exists
// as a seam; production wiring uses pricing.Decide.
type DecideFunc func(oldPrice *float64, newPrice float64, th domain.AlertThresholds) pricing.Decision

// ReconcileOutcome reports what one reconciliation attempt did.
type ReconcileOutcome struct {
	GameID    string           `json:"game_id"`
	Title     string           `json:"title"`
	Committed bool             `json:"committed"`
	Reason    string           `json:"reason"`
	OldPrice  *float64         `json:"old_price,omitempty"`
	NewPrice  float64          `json:"new_price"`
	Currency  string           `json:"currency"`
	Condition domain.Condition `json:"condition"`
	Source    string           `json:"source"`
}

// ReasonManual marks a commit forced by an explicit per-game request, which
// bypasses the threshold rule.
const ReasonManual = "manual"

// ReconcileService runs the scrape-evaluate-commit cycle for single games.
// The sweep runner drives it across the whole collection.
type ReconcileService struct {
	games      domain.GameStore
	history    domain.PriceHistoryStore
	settings   domain.AlertSettingsStore
	scraper    domain.Scraper
	limiter    domain.RateLimiter
	cache      domain.CurrentPriceCache
	bus        domain.SignalBus
	notifier   *notify.Notifier
	thresholds *pricing.ThresholdResolver
	converter  pricing.Converter
	decide     DecideFunc

	preferBoxed bool
	logger      *slog.Logger
}

// ReconcileDeps bundles the dependencies of a ReconcileService.
type ReconcileDeps struct {
	Games      domain.GameStore
	History    domain.PriceHistoryStore
	Settings   domain.AlertSettingsStore
	Scraper    domain.Scraper
	Limiter    domain.RateLimiter
	Cache      domain.CurrentPriceCache
	Bus        domain.SignalBus
	Notifier   *notify.Notifier
	Thresholds *pricing.ThresholdResolver
	Converter  pricing.Converter

	// Decide defaults to pricing.Decide when nil.
	Decide DecideFunc

	// PreferBoxed selects complete-in-box prices ahead of loose ones.
	PreferBoxed bool

	Logger *slog.Logger
}

// NewReconcileService creates a ReconcileService.
func NewReconcileService(deps ReconcileDeps) *ReconcileService {
	decide := deps.Decide
	if decide == nil {
		decide = pricing.Decide
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		games:       deps.Games,
		history:     deps.History,
		settings:    deps.Settings,
		scraper:     deps.Scraper,
		limiter:     deps.Limiter,
		cache:       deps.Cache,
		bus:         deps.Bus,
		notifier:    deps.Notifier,
		thresholds:  deps.Thresholds,
		converter:   deps.Converter,
		decide:      decide,
		preferBoxed: deps.PreferBoxed,
		logger:      logger.With(slog.String("component", "reconcile_service")),
	}
}

// Thresholds resolves the effective threshold set for a game: its override
// row merged over the global defaults. A game with no row gets the defaults
// unchanged.
func (s *ReconcileService) Thresholds(ctx context.Context, gameID string) (domain.AlertThresholds, error) {
	settings, err := s.settings.Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.thresholds.Resolve(nil), nil
		}
		return domain.AlertThresholds{}, fmt.Errorf("reconcile_service: thresholds for %s: %w", gameID, err)
	}
	return s.thresholds.Resolve(&settings), nil
}

// ReconcileOpts adjusts one manual reconciliation run.
type ReconcileOpts struct {
	// Force bypasses the threshold gate; any resolvable price commits.
	Force bool

	// PreferBoxed overrides the configured condition preference for this
	// run only; nil keeps the configured policy.
	PreferBoxed *bool
}

// ReconcileOne runs one full cycle for a game: scrape, select, convert,
// decide, and commit. With opts.Force set the threshold rule is bypassed
// and any resolvable price commits; manual per-game refreshes use that
// path.
//
// A source miss (no resolvable price) returns domain.ErrNoQuote. Ledger and
// catalog write failures propagate; a committed price is never silently
// lost.
func (s *ReconcileService) ReconcileOne(ctx context.Context, gameID string, opts ReconcileOpts) (ReconcileOutcome, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return ReconcileOutcome{}, fmt.Errorf("reconcile_service: load game %s: %w", gameID, err)
	}

	th, err := s.Thresholds(ctx, gameID)
	if err != nil {
		return ReconcileOutcome{}, err
	}

	preferBoxed := s.preferBoxed
	if opts.PreferBoxed != nil {
		preferBoxed = *opts.PreferBoxed
	}
	return s.reconcile(ctx, game, th, opts.Force, preferBoxed)
}

// ReconcileGame is ReconcileOne for an already-loaded game with resolved
// thresholds; the sweep runner calls it to avoid re-reading each row.
func (s *ReconcileService) ReconcileGame(ctx context.Context, game domain.Game, th domain.AlertThresholds) (ReconcileOutcome, error) {
	return s.reconcile(ctx, game, th, false, s.preferBoxed)
}

func (s *ReconcileService) reconcile(ctx context.Context, game domain.Game, th domain.AlertThresholds, force, preferBoxed bool) (ReconcileOutcome, error) {
	outcome := ReconcileOutcome{
		GameID:   game.ID,
		Title:    game.Title,
		OldPrice: game.CurrentPrice,
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.scraper.SourceName()); err != nil {
			return outcome, fmt.Errorf("reconcile_service: rate limit: %w", err)
		}
	}

	quote, err := s.scraper.ScrapeQuote(ctx, game.Title, game.FirstPlatform(), th.PreferredRegion)
	if err != nil {
		return outcome, fmt.Errorf("reconcile_service: scrape %s: %w", game.Title, err)
	}
	if quote == nil || quote.Empty() {
		return outcome, fmt.Errorf("reconcile_service: scrape %s: %w", game.Title, domain.ErrNoQuote)
	}

	selected, err := pricing.SelectPrice(quote, preferBoxed)
	if err != nil {
		return outcome, fmt.Errorf("reconcile_service: %s: %w", game.Title, err)
	}

	amount, currency := s.converter.Convert(selected.Amount, selected.Currency)
	outcome.NewPrice = amount
	outcome.Currency = currency
	outcome.Condition = selected.Condition
	outcome.Source = selected.Source

	var decision pricing.Decision
	if force {
		decision = pricing.Decision{Commit: true, Reason: ReasonManual}
	} else {
		decision = s.decide(game.CurrentPrice, amount, th)
	}
	outcome.Reason = decision.Reason

	if !decision.Commit {
		s.logger.DebugContext(ctx, "price change not committed",
			slog.String("game_id", game.ID),
			slog.String("title", game.Title),
			slog.String("reason", decision.Reason),
			slog.Float64("new_price", amount),
		)
		return outcome, nil
	}

	if err := s.commit(ctx, game, amount, currency, selected.Source); err != nil {
		return outcome, err
	}
	outcome.Committed = true

	s.logger.InfoContext(ctx, "price committed",
		slog.String("game_id", game.ID),
		slog.String("title", game.Title),
		slog.Float64("price", amount),
		slog.String("currency", currency),
		slog.String("reason", decision.Reason),
	)
	return outcome, nil
}

// commit persists the new price and then fans the event out. The ledger
// append comes first, then the catalog update; a failure in either aborts
// the commit and propagates. Notification is sent before the cache is
// refreshed, and neither of those best-effort steps can fail the commit.
func (s *ReconcileService) commit(ctx context.Context, game domain.Game, amount float64, currency, source string) error {
	if _, err := s.history.Append(ctx, game.ID, amount, currency, source); err != nil {
		return fmt.Errorf("reconcile_service: append observation for %s: %w: %w", game.ID, domain.ErrPersistence, err)
	}
	if err := s.games.UpdateCurrentPrice(ctx, game.ID, amount); err != nil {
		return fmt.Errorf("reconcile_service: update current price for %s: %w: %w", game.ID, domain.ErrPersistence, err)
	}

	if s.notifier != nil {
		event := notify.PriceChangeEvent(game.CurrentPrice, amount)
		title, body := notify.FormatPriceChange(game.Title, game.CurrentPrice, amount, currency, source)
		if err := s.notifier.Notify(ctx, event, title, body); err != nil {
			s.logger.WarnContext(ctx, "price notification failed",
				slog.String("game_id", game.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.cache != nil {
		if err := s.cache.SetPrice(ctx, game.ID, amount, time.Now().UTC()); err != nil {
			s.logger.WarnContext(ctx, "price cache update failed",
				slog.String("game_id", game.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":     "price_update",
			"game_id":   game.ID,
			"title":     game.Title,
			"old_price": game.CurrentPrice,
			"new_price": amount,
			"currency":  currency,
			"source":    source,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err := s.bus.Publish(ctx, "prices", evt); err != nil {
			s.logger.WarnContext(ctx, "price event publish failed",
				slog.String("game_id", game.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}
