package domain

import (
	"context"
	"time"
)

// CurrentPriceCache mirrors the committed current price of each game for
// fast reads by the API and websocket layers. It is a projection, never the
// source of truth; the ledger is.
type CurrentPriceCache interface {
	SetPrice(ctx context.Context, gameID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, gameID string) (float64, time.Time, error)
	GetPrices(ctx context.Context, gameIDs []string) (map[string]float64, error)
}

// RateLimiter throttles outbound calls to external price sources.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locks; the sweep holds one so two sweeps
// never overlap.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// StreamMessage is one durable entry read back from an event stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus carries sweep progress and price alert events to subscribers
// (the websocket hub in particular). Publish/Subscribe are ephemeral;
// StreamAppend/StreamRead keep a bounded durable trail of the same events
// for late readers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream, lastID string, count int) ([]StreamMessage, error)
}
