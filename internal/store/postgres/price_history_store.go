package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akovacs/gameledger/internal/domain"
)

// PriceHistoryStore implements domain.PriceHistoryStore using PostgreSQL.
// The table is append-only: nothing here updates or deletes rows.
type PriceHistoryStore struct {
	pool *pgxpool.Pool
}

var _ domain.PriceHistoryStore = (*PriceHistoryStore)(nil)

// NewPriceHistoryStore creates a PriceHistoryStore backed by the given pool.
func NewPriceHistoryStore(pool *pgxpool.Pool) *PriceHistoryStore {
	return &PriceHistoryStore{pool: pool}
}

const observationCols = `id, game_id, price, currency, price_source, date_recorded`

// Append records one price observation and returns its generated id.
func (s *PriceHistoryStore) Append(ctx context.Context, gameID string, amount float64, currency, sourceName string) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO price_history (id, game_id, price, currency, price_source, date_recorded)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		id, gameID, amount, currency, sourceName,
	)
	if err != nil {
		return "", fmt.Errorf("postgres: append observation for game %s: %w", gameID, err)
	}
	return id, nil
}

func scanObservation(row pgx.Row) (domain.PriceObservation, error) {
	var o domain.PriceObservation
	err := row.Scan(&o.ID, &o.GameID, &o.Amount, &o.Currency, &o.SourceName, &o.RecordedAt)
	if err != nil {
		return domain.PriceObservation{}, err
	}
	return o, nil
}

// Latest returns the most recent observation for a game.
func (s *PriceHistoryStore) Latest(ctx context.Context, gameID string) (domain.PriceObservation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+observationCols+` FROM price_history
		 WHERE game_id = $1 ORDER BY date_recorded DESC LIMIT 1`, gameID)
	o, err := scanObservation(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.PriceObservation{}, domain.ErrNotFound
		}
		return domain.PriceObservation{}, fmt.Errorf("postgres: latest observation for game %s: %w", gameID, err)
	}
	return o, nil
}

// ListByGame returns a game's observations newest first with pagination and
// optional time filtering.
func (s *PriceHistoryStore) ListByGame(ctx context.Context, gameID string, opts domain.ListOpts) ([]domain.PriceObservation, error) {
	query := `SELECT ` + observationCols + ` FROM price_history WHERE game_id = $1`
	args := []any{gameID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND date_recorded >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND date_recorded <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY date_recorded DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list observations for game %s: %w", gameID, err)
	}
	defer rows.Close()

	var out []domain.PriceObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list observations rows: %w", err)
	}
	return out, nil
}

// ListBefore returns every observation recorded strictly before the cutoff,
// oldest first. The blob archiver uses it to snapshot aged rows.
func (s *PriceHistoryStore) ListBefore(ctx context.Context, before time.Time) ([]domain.PriceObservation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+observationCols+` FROM price_history
		 WHERE date_recorded < $1 ORDER BY date_recorded ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list observations before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var out []domain.PriceObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list observations before rows: %w", err)
	}
	return out, nil
}
