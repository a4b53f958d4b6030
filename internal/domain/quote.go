package domain

import "time"

// Condition is the price grading of a quoted amount.
type Condition string

const (
	// ConditionLoose is the item only, no box or manual.
	ConditionLoose Condition = "loose"
	// ConditionCIB is complete in box.
	ConditionCIB Condition = "cib"
	// ConditionNew is new/sealed.
	ConditionNew Condition = "new"
)

// PriceQuote is a raw multi-condition quote from a single price source, in
// the source's native currency. Any or all amounts may be absent; an empty
// quote is the expected result of a failed or partial scrape, not an error.
type PriceQuote struct {
	SourceName string
	Currency   string
	Region     string
	Loose      *float64
	CIB        *float64
	New        *float64
	ScrapedAt  time.Time
}

// Empty reports whether the quote carries no amounts at all.
func (q PriceQuote) Empty() bool {
	return q.Loose == nil && q.CIB == nil && q.New == nil
}

// ResolvedPrice is a single amount derived from a PriceQuote by condition
// preference, already converted to the display currency.
type ResolvedPrice struct {
	Amount    float64
	Currency  string
	Condition Condition
	Source    string
}
