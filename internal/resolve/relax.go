package resolve

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

const (
	// DefaultMaxAttempts bounds the total number of catalog lookups per
	// resolution.
	DefaultMaxAttempts = 30

	// longQueryCutoff is the rune length above which a variant gets the
	// longer lookup timeout.
	longQueryCutoff = 30

	longLookupTimeout  = 10 * time.Second
	shortLookupTimeout = 5 * time.Second
)

// LookupFunc queries the external catalog for one title variant.
type LookupFunc func(ctx context.Context, titleVariant string) ([]domain.CandidateMatch, error)

// Searcher drives a bounded, breadth-first relaxation over title variants:
// the raw title first, then the token-stripped form, then progressively
// truncated forms, stopping at the first variant that yields any results.
type Searcher struct {
	normalizer  *Normalizer
	maxAttempts int
	logger      *slog.Logger
}

// NewSearcher creates a Searcher. maxAttempts <= 0 falls back to
// DefaultMaxAttempts.
func NewSearcher(normalizer *Normalizer, maxAttempts int, logger *slog.Logger) *Searcher {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		normalizer:  normalizer,
		maxAttempts: maxAttempts,
		logger:      logger.With(slog.String("component", "relaxation_searcher")),
	}
}

// Search runs the relaxation loop and returns the first non-empty result
// set, or an empty set when every variant misses. Lookup errors and timeouts
// count as misses; they never abort the search. Only cancellation of the
// parent context ends it early. Each variant is enqueued at most once, and a
// variant's truncation chain continues from the shrinking string, so token
// count strictly decreases and the loop terminates.
func (s *Searcher) Search(ctx context.Context, title string, lookup LookupFunc) ([]domain.CandidateMatch, error) {
	queue := []string{title}
	seen := map[string]bool{title: true}
	attempts := 0

	enqueue := func(variant string) {
		if variant == "" || seen[variant] {
			return
		}
		seen[variant] = true
		queue = append(queue, variant)
	}

	for len(queue) > 0 && attempts < s.maxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]
		attempts++

		results := s.lookupOnce(ctx, current, lookup)
		if len(results) > 0 {
			s.logger.DebugContext(ctx, "variant hit",
				slog.String("variant", current),
				slog.Int("attempt", attempts),
				slog.Int("results", len(results)),
			)
			return results, nil
		}

		// The cleaned variant is always tried before any truncation of
		// the current one.
		if cleaned := s.normalizer.Normalize(current); cleaned != current {
			enqueue(cleaned)
		}

		trunc := current
		for {
			next := removeLastWord(trunc)
			if next == trunc {
				break
			}
			enqueue(next)
			trunc = next
		}
	}

	s.logger.DebugContext(ctx, "relaxation exhausted",
		slog.String("title", title),
		slog.Int("attempts", attempts),
	)
	return nil, nil
}

// lookupOnce calls the catalog with a length-adaptive timeout. Any error is
// treated as an empty result set.
func (s *Searcher) lookupOnce(ctx context.Context, variant string, lookup LookupFunc) []domain.CandidateMatch {
	timeout := shortLookupTimeout
	if len([]rune(variant)) > longQueryCutoff {
		timeout = longLookupTimeout
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := lookup(lctx, variant)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog lookup failed, treating as miss",
			slog.String("variant", variant),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return results
}

// removeLastWord drops the final whitespace-delimited token. A single-token
// title is returned unchanged.
func removeLastWord(title string) string {
	words := strings.Fields(title)
	if len(words) <= 1 {
		return title
	}
	return strings.Join(words[:len(words)-1], " ")
}
