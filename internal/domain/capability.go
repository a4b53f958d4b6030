package domain

import "context"

// CatalogLookup is the external game-metadata search capability. A timeout
// or transport error is reported by the implementation as an empty result
// set, not a propagated failure; resolution treats both identically.
type CatalogLookup interface {
	Lookup(ctx context.Context, titleVariant string) ([]CandidateMatch, error)
}

// Scraper obtains a raw price quote for a title from a named price source.
// A nil quote means the source had nothing for the title; amounts inside a
// returned quote are in the source's native currency.
type Scraper interface {
	ScrapeQuote(ctx context.Context, title, platformHint, region string) (*PriceQuote, error)
	SourceName() string
}
