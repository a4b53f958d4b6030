package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akovacs/gameledger/internal/domain"
)

// SettingsService manages per-game threshold overrides.
type SettingsService struct {
	settings domain.AlertSettingsStore
	games    domain.GameStore
	logger   *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(settings domain.AlertSettingsStore, games domain.GameStore, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		settings: settings,
		games:    games,
		logger:   logger.With(slog.String("component", "settings_service")),
	}
}

// Get returns a game's override row; domain.ErrNotFound means the game has
// none and runs entirely on the global defaults.
func (s *SettingsService) Get(ctx context.Context, gameID string) (domain.AlertSettings, error) {
	return s.settings.Get(ctx, gameID)
}

// Put stores an override row after checking the game exists.
func (s *SettingsService) Put(ctx context.Context, settings domain.AlertSettings) error {
	if _, err := s.games.GetByID(ctx, settings.GameID); err != nil {
		return fmt.Errorf("settings_service: game %s: %w", settings.GameID, err)
	}
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("settings_service: upsert %s: %w", settings.GameID, err)
	}
	return nil
}

// Delete removes a game's override row, reverting it to the global
// defaults.
func (s *SettingsService) Delete(ctx context.Context, gameID string) error {
	return s.settings.Delete(ctx, gameID)
}
