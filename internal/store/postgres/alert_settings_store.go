package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akovacs/gameledger/internal/domain"
)

// AlertSettingsStore implements domain.AlertSettingsStore using PostgreSQL.
type AlertSettingsStore struct {
	pool *pgxpool.Pool
}

var _ domain.AlertSettingsStore = (*AlertSettingsStore)(nil)

// NewAlertSettingsStore creates an AlertSettingsStore backed by the given
// pool.
func NewAlertSettingsStore(pool *pgxpool.Pool) *AlertSettingsStore {
	return &AlertSettingsStore{pool: pool}
}

// Get retrieves the override row for a game. domain.ErrNotFound means the
// game has no overrides and the global defaults apply unchanged.
func (s *AlertSettingsStore) Get(ctx context.Context, gameID string) (domain.AlertSettings, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT game_id, enabled, preferred_source, preferred_region,
		       drop_threshold_pct, increase_pct, min_price_threshold, min_value_change
		FROM game_alert_settings WHERE game_id = $1`, gameID)

	var a domain.AlertSettings
	err := row.Scan(
		&a.GameID, &a.Enabled, &a.PreferredSource, &a.PreferredRegion,
		&a.DropThresholdPct, &a.IncreasePct, &a.MinPriceThreshold, &a.MinValueChange,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.AlertSettings{}, domain.ErrNotFound
		}
		return domain.AlertSettings{}, fmt.Errorf("postgres: get alert settings %s: %w", gameID, err)
	}
	return a, nil
}

// Upsert inserts or replaces a game's override row.
func (s *AlertSettingsStore) Upsert(ctx context.Context, a domain.AlertSettings) error {
	const query = `
		INSERT INTO game_alert_settings (
			game_id, enabled, preferred_source, preferred_region,
			drop_threshold_pct, increase_pct, min_price_threshold, min_value_change,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (game_id) DO UPDATE SET
			enabled             = EXCLUDED.enabled,
			preferred_source    = EXCLUDED.preferred_source,
			preferred_region    = EXCLUDED.preferred_region,
			drop_threshold_pct  = EXCLUDED.drop_threshold_pct,
			increase_pct        = EXCLUDED.increase_pct,
			min_price_threshold = EXCLUDED.min_price_threshold,
			min_value_change    = EXCLUDED.min_value_change,
			updated_at          = NOW()`

	_, err := s.pool.Exec(ctx, query,
		a.GameID, a.Enabled, a.PreferredSource, a.PreferredRegion,
		a.DropThresholdPct, a.IncreasePct, a.MinPriceThreshold, a.MinValueChange,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert alert settings %s: %w", a.GameID, err)
	}
	return nil
}

// Delete removes a game's override row. Deleting a missing row is a no-op.
func (s *AlertSettingsStore) Delete(ctx context.Context, gameID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM game_alert_settings WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("postgres: delete alert settings %s: %w", gameID, err)
	}
	return nil
}
