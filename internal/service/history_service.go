package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

// HistoryService exposes the ledger read paths and drives cold-storage
// archival of aged rows.
type HistoryService struct {
	history  domain.PriceHistoryStore
	archiver domain.Archiver
	logger   *slog.Logger
}

// NewHistoryService creates a HistoryService. archiver may be nil when no
// blob storage is configured; archival then reports an error.
func NewHistoryService(history domain.PriceHistoryStore, archiver domain.Archiver, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{
		history:  history,
		archiver: archiver,
		logger:   logger.With(slog.String("component", "history_service")),
	}
}

// ListByGame returns a game's observations, newest first.
func (s *HistoryService) ListByGame(ctx context.Context, gameID string, opts domain.ListOpts) ([]domain.PriceObservation, error) {
	return s.history.ListByGame(ctx, gameID, opts)
}

// Latest returns a game's most recent observation, or domain.ErrNotFound
// when the ledger has none.
func (s *HistoryService) Latest(ctx context.Context, gameID string) (domain.PriceObservation, error) {
	return s.history.Latest(ctx, gameID)
}

// ArchiveBefore snapshots every observation older than the cutoff to blob
// storage and returns the archived row count.
func (s *HistoryService) ArchiveBefore(ctx context.Context, before time.Time) (int64, error) {
	if s.archiver == nil {
		return 0, errors.New("history_service: no archiver configured")
	}
	count, err := s.archiver.ArchiveObservations(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("history_service: archive before %s: %w", before.Format(time.RFC3339), err)
	}
	s.logger.InfoContext(ctx, "ledger archive complete",
		slog.Int64("rows", count),
		slog.Time("before", before),
	)
	return count, nil
}
