package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

// HistoryService defines the methods the history handler requires from the
// service layer.
type HistoryService interface {
	ListByGame(ctx context.Context, gameID string, opts domain.ListOpts) ([]domain.PriceObservation, error)
	ArchiveBefore(ctx context.Context, before time.Time) (int64, error)
}

// HistoryHandler serves price-history HTTP endpoints.
type HistoryHandler struct {
	history   HistoryService
	blobs     domain.BlobReader // nil when archival storage is not configured
	retention time.Duration
	logger    *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler. blobs may be nil; the archive
// listing endpoint then reports that archival is disabled.
func NewHistoryHandler(history HistoryService, blobs domain.BlobReader, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		blobs:   blobs,
		logger:  logger,
	}
}

// WithRetention sets the retention window used as the default archive cutoff
// when a trigger request carries no explicit before timestamp.
func (h *HistoryHandler) WithRetention(retention time.Duration) *HistoryHandler {
	h.retention = retention
	return h
}

// listHistoryResponse wraps the trend data for one game.
type listHistoryResponse struct {
	GameID       string                    `json:"game_id"`
	Observations []domain.PriceObservation `json:"observations"`
	Limit        int                       `json:"limit"`
	Offset       int                       `json:"offset"`
}

// ListHistory returns the recorded price observations for a game, newest
// first.
// GET /api/games/{id}/history?limit=50&offset=0&since=...&until=...
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}
	opts := parseListOpts(r)

	obs, err := h.history.ListByGame(r.Context(), id, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list history failed",
			slog.String("game_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list price history")
		return
	}

	writeJSON(w, http.StatusOK, listHistoryResponse{
		GameID:       id,
		Observations: obs,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	})
}

// ListArchives enumerates the cold-storage archive objects.
// GET /api/archives
func (h *HistoryHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "archival storage is not configured")
		return
	}

	infos, err := h.blobs.List(r.Context(), "archive/observations/")
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archives": infos,
		"count":    len(infos),
	})
}

// TriggerArchive exports ledger rows older than the given before timestamp
// (RFC 3339) to cold storage. Without a before parameter the cutoff is the
// configured retention window. The ledger itself is never pruned.
// POST /api/archives/trigger?before=...
func (h *HistoryHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	var before time.Time
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "before must be RFC 3339")
			return
		}
		before = t
	} else if h.retention > 0 {
		before = time.Now().UTC().Add(-h.retention)
	} else {
		writeError(w, http.StatusBadRequest, "before parameter is required")
		return
	}

	count, err := h.history.ArchiveBefore(r.Context(), before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: archive failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to archive observations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archived": count,
		"before":   before.Format(time.RFC3339),
	})
}
