package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// GameStore persists the collection catalog. UpdateCurrentPrice is the only
// mutation the reconciliation engine performs on a game.
type GameStore interface {
	Upsert(ctx context.Context, game Game) error
	GetByID(ctx context.Context, id string) (Game, error)
	List(ctx context.Context, opts ListOpts) ([]Game, error)
	UpdateCurrentPrice(ctx context.Context, id string, price float64) error
	Count(ctx context.Context) (int64, error)
}

// PriceHistoryStore is the append-only ledger of price observations. Append
// must propagate storage failures; it never fails silently.
type PriceHistoryStore interface {
	Append(ctx context.Context, gameID string, amount float64, currency, sourceName string) (string, error)
	Latest(ctx context.Context, gameID string) (PriceObservation, error)
	ListByGame(ctx context.Context, gameID string, opts ListOpts) ([]PriceObservation, error)
	ListBefore(ctx context.Context, before time.Time) ([]PriceObservation, error)
}

// AlertSettingsStore persists the optional per-game threshold overrides.
// Get returns ErrNotFound when a game has no settings row, which means "use
// the global defaults entirely".
type AlertSettingsStore interface {
	Get(ctx context.Context, gameID string) (AlertSettings, error)
	Upsert(ctx context.Context, s AlertSettings) error
	Delete(ctx context.Context, gameID string) error
}
