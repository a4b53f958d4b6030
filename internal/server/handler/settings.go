package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/akovacs/gameledger/internal/domain"
)

// SettingsService defines the alert-settings operations the handler needs.
type SettingsService interface {
	Get(ctx context.Context, gameID string) (domain.AlertSettings, error)
	Put(ctx context.Context, settings domain.AlertSettings) error
	Delete(ctx context.Context, gameID string) error
}

// SettingsHandler serves the per-game alert-settings CRUD endpoints.
type SettingsHandler struct {
	settings SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(settings SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger,
	}
}

// alertSettingsBody is the wire form of an alert-settings row. Every field
// is optional; an absent field defers to the global default.
type alertSettingsBody struct {
	Enabled           *bool    `json:"enabled"`
	PreferredSource   *string  `json:"preferred_source"`
	PreferredRegion   *string  `json:"preferred_region"`
	DropThresholdPct  *float64 `json:"drop_threshold_pct"`
	IncreasePct       *float64 `json:"increase_pct"`
	MinPriceThreshold *float64 `json:"min_price_threshold"`
	MinValueChange    *float64 `json:"min_value_change"`
}

func settingsToBody(s domain.AlertSettings) alertSettingsBody {
	return alertSettingsBody{
		Enabled:           s.Enabled,
		PreferredSource:   s.PreferredSource,
		PreferredRegion:   s.PreferredRegion,
		DropThresholdPct:  s.DropThresholdPct,
		IncreasePct:       s.IncreasePct,
		MinPriceThreshold: s.MinPriceThreshold,
		MinValueChange:    s.MinValueChange,
	}
}

// GetSettings returns the override row for a game. A game with no row gets
// a 404: the caller should treat that as "all global defaults".
// GET /api/games/{id}/alert-settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	s, err := h.settings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no alert settings for this game")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get settings failed",
			slog.String("game_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get alert settings")
		return
	}

	writeJSON(w, http.StatusOK, settingsToBody(s))
}

// PutSettings creates or replaces the override row for a game.
// PUT /api/games/{id}/alert-settings
func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	var body alertSettingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s := domain.AlertSettings{
		GameID:            id,
		Enabled:           body.Enabled,
		PreferredSource:   body.PreferredSource,
		PreferredRegion:   body.PreferredRegion,
		DropThresholdPct:  body.DropThresholdPct,
		IncreasePct:       body.IncreasePct,
		MinPriceThreshold: body.MinPriceThreshold,
		MinValueChange:    body.MinValueChange,
	}

	if err := h.settings.Put(r.Context(), s); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: put settings failed",
			slog.String("game_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store alert settings")
		return
	}

	writeJSON(w, http.StatusOK, settingsToBody(s))
}

// DeleteSettings removes the override row, returning the game to the global
// defaults. Deleting a row that does not exist succeeds.
// DELETE /api/games/{id}/alert-settings
func (h *SettingsHandler) DeleteSettings(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	if err := h.settings.Delete(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: delete settings failed",
			slog.String("game_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete alert settings")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
