package resolve

import (
	"context"
	"log/slog"

	"github.com/akovacs/gameledger/internal/domain"
)

// Resolver is the public entry point for title resolution. It composes the
// relaxation searcher and the fuzzy matcher over an external catalog.
type Resolver struct {
	catalog   domain.CatalogLookup
	searcher  *Searcher
	threshold int
	logger    *slog.Logger
}

// NewResolver creates a Resolver. threshold <= 0 falls back to
// DefaultFuzzyThreshold.
func NewResolver(catalog domain.CatalogLookup, searcher *Searcher, threshold int, logger *slog.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		catalog:   catalog,
		searcher:  searcher,
		threshold: threshold,
		logger:    logger.With(slog.String("component", "title_resolver")),
	}
}

// Resolve turns a free-text title into a MatchResult. A miss is the normal
// empty result, not an error: catalog failures and weak matches both come
// back as {nil, []}. The only error returned is context cancellation.
// Candidates are always scored against the original query, not the relaxed
// variant that happened to produce them.
func (r *Resolver) Resolve(ctx context.Context, title string) (domain.MatchResult, error) {
	raw, err := r.searcher.Search(ctx, title, r.catalog.Lookup)
	if err != nil {
		return domain.NoMatch(), err
	}
	result := Match(title, raw, r.threshold)

	if result.Found() {
		r.logger.InfoContext(ctx, "title resolved",
			slog.String("title", title),
			slog.String("canonical", result.ExactMatch.CanonicalName),
			slog.Int("alternates", len(result.Alternates)),
		)
	} else {
		r.logger.InfoContext(ctx, "title unresolved",
			slog.String("title", title),
			slog.Int("raw_candidates", len(raw)),
		)
	}
	return result, nil
}
