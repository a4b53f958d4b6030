package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/resolve"
)

// CatalogService owns the collection catalog: adding and listing games and
// resolving free-text titles against the external metadata catalog.
type CatalogService struct {
	games    domain.GameStore
	resolver *resolve.Resolver
	logger   *slog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(games domain.GameStore, resolver *resolve.Resolver, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		games:    games,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "catalog_service")),
	}
}

// ResolveTitle resolves a free-text title to a canonical catalog entry plus
// viable alternates. A miss is a value, not an error.
func (s *CatalogService) ResolveTitle(ctx context.Context, title string) (domain.MatchResult, error) {
	return s.resolver.Resolve(ctx, title)
}

// AddGame inserts a game, assigning an id when the caller did not.
func (s *CatalogService) AddGame(ctx context.Context, game domain.Game) (domain.Game, error) {
	if game.ID == "" {
		game.ID = uuid.NewString()
	}
	if err := s.games.Upsert(ctx, game); err != nil {
		return domain.Game{}, fmt.Errorf("catalog_service: add game %q: %w", game.Title, err)
	}
	return game, nil
}

// GetGame returns a game by id.
func (s *CatalogService) GetGame(ctx context.Context, id string) (domain.Game, error) {
	return s.games.GetByID(ctx, id)
}

// ListGames returns catalog entries with pagination.
func (s *CatalogService) ListGames(ctx context.Context, opts domain.ListOpts) ([]domain.Game, error) {
	return s.games.List(ctx, opts)
}

// CountGames returns the catalog size.
func (s *CatalogService) CountGames(ctx context.Context) (int64, error) {
	return s.games.Count(ctx)
}
