package resolve

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/akovacs/gameledger/internal/domain"
)

type fakeCatalog struct {
	byVariant map[string][]domain.CandidateMatch
	calls     []string
}

func (f *fakeCatalog) Lookup(ctx context.Context, variant string) ([]domain.CandidateMatch, error) {
	f.calls = append(f.calls, variant)
	return f.byVariant[variant], nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolverScoresAgainstOriginalQuery(t *testing.T) {
	// The hit comes from a relaxed variant, but scoring must still use the
	// raw query, which fuzzily matches the canonical name.
	catalog := &fakeCatalog{byVariant: map[string][]domain.CandidateMatch{
		"The Last of Us": {{ExternalID: 7, CanonicalName: "The Last of Us"}},
	}}
	logger := discard()
	r := NewResolver(catalog, NewSearcher(NewDefaultNormalizer(), 0, logger), 0, logger)

	got, err := r.Resolve(context.Background(), "The Last of Us PS4")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Found() {
		t.Fatal("expected a resolution")
	}
	if got.ExactMatch.ExternalID != 7 {
		t.Errorf("ExactMatch.ExternalID = %d, want 7", got.ExactMatch.ExternalID)
	}
	if len(catalog.calls) != 2 {
		t.Errorf("catalog called for %v, want the raw title then the cleaned one", catalog.calls)
	}
}

func TestResolverMissIsAValue(t *testing.T) {
	catalog := &fakeCatalog{}
	logger := discard()
	r := NewResolver(catalog, NewSearcher(NewDefaultNormalizer(), 0, logger), 0, logger)

	got, err := r.Resolve(context.Background(), "Okami")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Found() {
		t.Fatal("expected no resolution")
	}
	if got.Alternates == nil {
		t.Error("Alternates must be an empty slice, not nil")
	}
}

func TestResolverWeakCandidatesRejected(t *testing.T) {
	catalog := &fakeCatalog{byVariant: map[string][]domain.CandidateMatch{
		"Okami": {{ExternalID: 3, CanonicalName: "Monster Hunter World"}},
	}}
	logger := discard()
	r := NewResolver(catalog, NewSearcher(NewDefaultNormalizer(), 0, logger), 0, logger)

	got, err := r.Resolve(context.Background(), "Okami")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Found() {
		t.Errorf("unrelated candidate resolved as %q", got.ExactMatch.CanonicalName)
	}
}
