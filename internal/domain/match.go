package domain

// CatalogQuery is an ephemeral resolution request built per call.
type CatalogQuery struct {
	RawTitle     string
	PlatformHint string
}

// CandidateMatch is a single catalog record returned by the external
// metadata service. Read-only to this engine.
type CandidateMatch struct {
	ExternalID        int64
	CanonicalName     string
	Summary           string
	CoverURL          string
	Platforms         []string
	Genres            []string
	Companies         []string
	Franchises        []string
	FirstReleaseEpoch *int64 // Unix seconds, absent for unreleased/unknown
}

// MatchResult is the outcome of a title resolution. It is always well formed:
// a miss is {nil, empty}, never an error and never a nil result.
type MatchResult struct {
	ExactMatch *CandidateMatch
	Alternates []CandidateMatch
}

// Found reports whether the resolution produced a canonical match.
func (r MatchResult) Found() bool {
	return r.ExactMatch != nil
}

// NoMatch is the canonical miss result.
func NoMatch() MatchResult {
	return MatchResult{Alternates: []CandidateMatch{}}
}
