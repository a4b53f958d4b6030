package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/service"
)

// ReconcileService defines the reconciliation operations the handler needs.
type ReconcileService interface {
	ReconcileOne(ctx context.Context, gameID string, opts service.ReconcileOpts) (service.ReconcileOutcome, error)
}

// ReconcileHandler serves the per-game price reconciliation endpoint.
type ReconcileHandler struct {
	recon  ReconcileService
	logger *slog.Logger
}

// NewReconcileHandler creates a ReconcileHandler.
func NewReconcileHandler(recon ReconcileService, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		recon:  recon,
		logger: logger,
	}
}

// Reconcile scrapes and reconciles the price of one game. With force=true
// (the default for this manual endpoint) the threshold gate is bypassed and
// any resolvable price commits; pass force=false to apply the same rule the
// sweep uses. prefer_boxed overrides the configured condition preference
// for this run.
// POST /api/games/{id}/reconcile?force=true&prefer_boxed=false
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	opts := service.ReconcileOpts{Force: true}
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "force must be a boolean")
			return
		}
		opts.Force = b
	}
	if v := r.URL.Query().Get("prefer_boxed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "prefer_boxed must be a boolean")
			return
		}
		opts.PreferBoxed = &b
	}

	outcome, err := h.recon.ReconcileOne(r.Context(), id, opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "game not found")
		case errors.Is(err, domain.ErrNoQuote):
			writeError(w, http.StatusBadGateway, "the price source had no resolvable price for this game")
		default:
			h.logger.ErrorContext(r.Context(), "handler: reconcile failed",
				slog.String("game_id", id),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to reconcile price")
		}
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
