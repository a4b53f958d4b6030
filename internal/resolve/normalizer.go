// Package resolve implements catalog entity resolution: turning a free-text,
// possibly noisy game title into a canonical catalog entry via bounded query
// relaxation against an external metadata service and fuzzy scoring of the
// returned candidates.
package resolve

import (
	"regexp"
	"strings"
)

// DefaultPlatformNames are console names and abbreviations commonly embedded
// in listing titles that never appear in canonical catalog names.
var DefaultPlatformNames = []string{
	"PlayStation 3",
	"PS3",
	"PlayStation 4",
	"PS4",
	"PlayStation 5",
	"PS5",
	"Xbox 360",
	"Xbox One",
	"Xbox Series X",
	"Nintendo Switch",
	"Wii U",
	"PC",
}

// DefaultPublisherNames are publisher names that show up in scraped titles.
var DefaultPublisherNames = []string{
	"Sony",
	"Microsoft",
	"Nintendo",
	"Electronic Arts",
	"Ubisoft",
	"Square Enix",
	"Activision",
	"Bethesda",
	"Capcom",
	"Bandai Namco",
}

// Normalizer strips known platform and publisher tokens from titles. It is
// pure: a title with no matching tokens comes back unchanged.
type Normalizer struct {
	patterns []*regexp.Regexp
}

// NewNormalizer compiles whole-word, case-insensitive patterns for every
// name in the two lists.
func NewNormalizer(platformNames, publisherNames []string) *Normalizer {
	names := make([]string, 0, len(platformNames)+len(publisherNames))
	names = append(names, platformNames...)
	names = append(names, publisherNames...)

	patterns := make([]*regexp.Regexp, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(name)+`\b`))
	}
	return &Normalizer{patterns: patterns}
}

// NewDefaultNormalizer builds a Normalizer from the default token lists.
func NewDefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultPlatformNames, DefaultPublisherNames)
}

// Normalize removes every whole-word occurrence of a known token and trims
// surrounding whitespace.
func (n *Normalizer) Normalize(title string) string {
	for _, p := range n.patterns {
		title = p.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}
