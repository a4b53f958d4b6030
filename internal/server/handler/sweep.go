package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

// SweepHandler serves sweep trigger and progress endpoints.
type SweepHandler struct {
	logger    *slog.Logger
	bus       domain.SignalBus
	stream    string
	triggerCh chan<- struct{} // when non-nil, sending triggers one sweep
}

// NewSweepHandler creates a SweepHandler. bus may be nil; the events
// endpoint then reports that progress streaming is unavailable.
func NewSweepHandler(bus domain.SignalBus, stream string, logger *slog.Logger) *SweepHandler {
	return &SweepHandler{
		logger: logger,
		bus:    bus,
		stream: stream,
	}
}

// WithTriggerChannel sets the channel to send on when a sweep is requested.
// The scheduler loop must receive from this channel to run one sweep.
func (h *SweepHandler) WithTriggerChannel(ch chan<- struct{}) *SweepHandler {
	h.triggerCh = ch
	return h
}

// TriggerSweep enqueues one reconciliation sweep. The sweep runs in the
// background; progress is observable through the events endpoint.
// POST /api/sweep/trigger
func (h *SweepHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "handler: sweep trigger requested")
	if h.triggerCh == nil {
		writeError(w, http.StatusServiceUnavailable, "the sweep scheduler is not running")
		return
	}
	select {
	case h.triggerCh <- struct{}{}:
	default:
		// already triggered and not yet consumed
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "sweep trigger enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// sweepEvent is one decoded progress entry from the durable event trail.
type sweepEvent struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// SweepEvents reads the durable sweep progress trail, oldest first from the
// given cursor.
// GET /api/sweep/events?after=<stream id>&limit=100
func (h *SweepHandler) SweepEvents(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		writeError(w, http.StatusServiceUnavailable, "event streaming is not configured")
		return
	}

	after := r.URL.Query().Get("after")
	if after == "" {
		after = "0"
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	msgs, err := h.bus.StreamRead(r.Context(), h.stream, after, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: sweep events read failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read sweep events")
		return
	}

	events := make([]sweepEvent, 0, len(msgs))
	for _, m := range msgs {
		events = append(events, sweepEvent{ID: m.ID, Payload: m.Payload})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
