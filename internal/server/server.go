// Package server exposes the collection over HTTP: catalog CRUD, title
// resolution, price history, manual reconciliation, alert settings, sweep
// control, and a WebSocket feed of live events.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/server/handler"
	"github.com/akovacs/gameledger/internal/server/middleware"
	"github.com/akovacs/gameledger/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// Limiter, when set, applies per-client request limiting to the API.
	Limiter domain.RateLimiter
}

// Per-client API budget when a rate limiter is configured.
const (
	apiRateLimit  = 120
	apiRateWindow = time.Minute
)

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Games     *handler.GameHandler
	History   *handler.HistoryHandler
	Reconcile *handler.ReconcileHandler
	Settings  *handler.SettingsHandler
	Sweep     *handler.SweepHandler
}

// Server is the headless HTTP + WebSocket API for the collection.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Title resolution.
	mux.HandleFunc("POST /api/resolve", handlers.Games.ResolveTitle)

	// Catalog endpoints.
	mux.HandleFunc("GET /api/games", handlers.Games.ListGames)
	mux.HandleFunc("POST /api/games", handlers.Games.CreateGame)
	mux.HandleFunc("GET /api/games/{id}", handlers.Games.GetGame)

	// Price history and archives.
	mux.HandleFunc("GET /api/games/{id}/history", handlers.History.ListHistory)
	mux.HandleFunc("GET /api/archives", handlers.History.ListArchives)
	mux.HandleFunc("POST /api/archives/trigger", handlers.History.TriggerArchive)

	// Manual reconciliation.
	mux.HandleFunc("POST /api/games/{id}/reconcile", handlers.Reconcile.Reconcile)

	// Per-game alert settings.
	mux.HandleFunc("GET /api/games/{id}/alert-settings", handlers.Settings.GetSettings)
	mux.HandleFunc("PUT /api/games/{id}/alert-settings", handlers.Settings.PutSettings)
	mux.HandleFunc("DELETE /api/games/{id}/alert-settings", handlers.Settings.DeleteSettings)

	// Sweep control.
	mux.HandleFunc("POST /api/sweep/trigger", handlers.Sweep.TriggerSweep)
	mux.HandleFunc("GET /api/sweep/events", handlers.Sweep.SweepEvents)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply per-client rate limiting when a limiter is configured.
	if cfg.Limiter != nil {
		h = middleware.RateLimit(cfg.Limiter, apiRateLimit, apiRateWindow)(h)
	}

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
