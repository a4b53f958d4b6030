package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akovacs/gameledger/internal/domain"
)

// GameStore implements domain.GameStore using PostgreSQL.
type GameStore struct {
	pool *pgxpool.Pool
}

var _ domain.GameStore = (*GameStore)(nil)

// NewGameStore creates a GameStore backed by the given connection pool.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

const gameCols = `id, title, platforms, genres, publishers,
	release_date, region, current_price, created_at, updated_at`

// Upsert inserts or updates a single game.
func (s *GameStore) Upsert(ctx context.Context, g domain.Game) error {
	const query = `
		INSERT INTO games (
			id, title, platforms, genres, publishers,
			release_date, region, current_price, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			title         = EXCLUDED.title,
			platforms     = EXCLUDED.platforms,
			genres        = EXCLUDED.genres,
			publishers    = EXCLUDED.publishers,
			release_date  = EXCLUDED.release_date,
			region        = EXCLUDED.region,
			current_price = EXCLUDED.current_price,
			updated_at    = NOW()`

	_, err := s.pool.Exec(ctx, query,
		g.ID, g.Title, g.Platforms, g.Genres, g.Publishers,
		g.ReleaseDate, g.Region, g.CurrentPrice,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert game %s: %w", g.ID, err)
	}
	return nil
}

func scanGame(row pgx.Row) (domain.Game, error) {
	var g domain.Game
	err := row.Scan(
		&g.ID, &g.Title, &g.Platforms, &g.Genres, &g.Publishers,
		&g.ReleaseDate, &g.Region, &g.CurrentPrice,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

// GetByID retrieves a game by its primary key.
func (s *GameStore) GetByID(ctx context.Context, id string) (domain.Game, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+gameCols+` FROM games WHERE id = $1`, id)
	g, err := scanGame(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Game{}, domain.ErrNotFound
		}
		return domain.Game{}, fmt.Errorf("postgres: get game %s: %w", id, err)
	}
	return g, nil
}

// List returns games ordered by title with pagination and optional
// created_at filtering.
func (s *GameStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Game, error) {
	query := `SELECT ` + gameCols + ` FROM games WHERE TRUE`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY LOWER(title)"

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
		return nil, fmt.Errorf("postgres: list games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list games rows: %w", err)
	}
	return games, nil
}

// UpdateCurrentPrice sets only a game's cached current price.
func (s *GameStore) UpdateCurrentPrice(ctx context.Context, id string, price float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE games SET current_price = $2, updated_at = NOW() WHERE id = $1`,
		id, price,
	)
	if err != nil {
		return fmt.Errorf("postgres: update current price %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of games.
func (s *GameStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count games: %w", err)
	}
	return count, nil
}
