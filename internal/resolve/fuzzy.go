package resolve

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/akovacs/gameledger/internal/domain"
)

// DefaultFuzzyThreshold is the minimum 0-100 similarity score for a
// candidate to count as a match or an alternate.
const DefaultFuzzyThreshold = 60

// Score computes a case-insensitive similarity score between two strings on
// a 0-100 scale, 100 meaning identical. It is the greater of the plain
// Levenshtein ratio and the token-sorted ratio, so word order alone cannot
// sink a match.
func Score(a, b string) int {
	na, nb := normalizeForScore(a), normalizeForScore(b)
	plain := ratio(na, nb)
	sorted := ratio(tokenSort(na), tokenSort(nb))
	if sorted > plain {
		return sorted
	}
	return plain
}

// Match scores every candidate's canonical name against the original query
// and partitions the set. The best-scoring candidate (first occurrence wins
// ties) becomes the exact match only if it clears the threshold; a weak top
// match invalidates the whole resolution. Every other candidate is kept as
// an alternate iff its own score clears the threshold, preserving input
// order. threshold <= 0 falls back to DefaultFuzzyThreshold.
func Match(originalQuery string, candidates []domain.CandidateMatch, threshold int) domain.MatchResult {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	if len(candidates) == 0 {
		return domain.NoMatch()
	}

	scores := make([]int, len(candidates))
	bestIdx := 0
	for i, c := range candidates {
		scores[i] = Score(originalQuery, c.CanonicalName)
		if scores[i] > scores[bestIdx] {
			bestIdx = i
		}
	}

	if scores[bestIdx] < threshold {
		return domain.NoMatch()
	}

	best := candidates[bestIdx]
	alternates := make([]domain.CandidateMatch, 0, len(candidates)-1)
	for i, c := range candidates {
		if i == bestIdx {
			continue
		}
		if scores[i] >= threshold {
			alternates = append(alternates, c)
		}
	}

	return domain.MatchResult{ExactMatch: &best, Alternates: alternates}
}

// ratio is the classic Levenshtein similarity: 100 * (1 - dist/maxLen).
func ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100 * (longest - dist) / longest
	if score < 0 {
		return 0
	}
	return score
}

func normalizeForScore(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
