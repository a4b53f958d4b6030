package domain

import "time"

// PriceObservation is one persisted, append-only price reading for a game.
// Rows are never updated or deleted by the reconciliation engine.
type PriceObservation struct {
	ID         string
	GameID     string
	Amount     float64
	Currency   string
	SourceName string
	RecordedAt time.Time
}
