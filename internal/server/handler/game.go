package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

// CatalogService defines the methods the game handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type CatalogService interface {
	ResolveTitle(ctx context.Context, title string) (domain.MatchResult, error)
	AddGame(ctx context.Context, game domain.Game) (domain.Game, error)
	GetGame(ctx context.Context, id string) (domain.Game, error)
	ListGames(ctx context.Context, opts domain.ListOpts) ([]domain.Game, error)
	CountGames(ctx context.Context) (int64, error)
}

// GameHandler serves catalog-related HTTP endpoints.
type GameHandler struct {
	catalog CatalogService
	logger  *slog.Logger
}

// NewGameHandler creates a GameHandler with the given service and logger.
func NewGameHandler(catalog CatalogService, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// resolveRequest is the body of a title resolution request.
type resolveRequest struct {
	Title string `json:"title"`
}

// resolveResponse shapes a MatchResult for the API: a nullable match plus
// the alternate candidates in source order.
type resolveResponse struct {
	Match      *domain.CandidateMatch  `json:"match"`
	Alternates []domain.CandidateMatch `json:"alternates"`
}

// ResolveTitle resolves a raw title against the external catalog.
// POST /api/resolve
func (h *GameHandler) ResolveTitle(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title must not be empty")
		return
	}

	result, err := h.catalog.ResolveTitle(r.Context(), req.Title)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: resolve title failed",
			slog.String("title", req.Title),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to resolve title")
		return
	}

	// A miss is a normal 200 with a null match, not an error.
	writeJSON(w, http.StatusOK, resolveResponse{
		Match:      result.ExactMatch,
		Alternates: result.Alternates,
	})
}

// createGameRequest is the body for adding a game to the collection.
type createGameRequest struct {
	Title       string   `json:"title"`
	Platforms   []string `json:"platforms"`
	Genres      []string `json:"genres"`
	Publishers  []string `json:"publishers"`
	Region      string   `json:"region"`
	ReleaseDate *string  `json:"release_date"` // RFC 3339
}

// CreateGame adds a game to the collection.
// POST /api/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title must not be empty")
		return
	}

	game := domain.Game{
		Title:      strings.TrimSpace(req.Title),
		Platforms:  req.Platforms,
		Genres:     req.Genres,
		Publishers: req.Publishers,
		Region:     req.Region,
	}
	if req.ReleaseDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ReleaseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "release_date must be RFC 3339")
			return
		}
		game.ReleaseDate = &t
	}

	created, err := h.catalog.AddGame(r.Context(), game)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create game failed",
			slog.String("title", game.Title),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create game")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// listGamesResponse wraps the list endpoint output with metadata.
type listGamesResponse struct {
	Games  []domain.Game `json:"games"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListGames returns catalogued games with pagination.
// GET /api/games?limit=50&offset=0
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	games, err := h.catalog.ListGames(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list games failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list games")
		return
	}

	total, err := h.catalog.CountGames(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count games failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count games")
		return
	}

	writeJSON(w, http.StatusOK, listGamesResponse{
		Games:  games,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// GetGame returns a single game by its ID.
// GET /api/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	game, err := h.catalog.GetGame(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get game failed",
			slog.String("game_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get game")
		return
	}

	writeJSON(w, http.StatusOK, game)
}
