// Package pricing is the pure decision core of price reconciliation:
// condition selection over raw quotes, currency conversion, threshold
// resolution, and the auto-update commit rule. Nothing here touches the
// network or the database.
package pricing

import (
	"fmt"

	"github.com/akovacs/gameledger/internal/domain"
)

// conditionOrder returns the preference order for picking one amount out of
// a multi-condition quote. Collectors who prefer boxed copies get the
// complete-in-box price first; everyone else values the bare cartridge.
func conditionOrder(preferBoxed bool) []domain.Condition {
	if preferBoxed {
		return []domain.Condition{domain.ConditionCIB, domain.ConditionLoose, domain.ConditionNew}
	}
	return []domain.Condition{domain.ConditionLoose, domain.ConditionCIB, domain.ConditionNew}
}

// SelectPrice picks the first available amount from the quote in preference
// order. It returns domain.ErrNoQuote when the quote carries no amounts.
func SelectPrice(quote *domain.PriceQuote, preferBoxed bool) (domain.ResolvedPrice, error) {
	return pick(quote, conditionOrder(preferBoxed))
}

// BestEffortPrice ignores the boxed preference and always tries
// loose, cib, new. It backs display paths that want any price at all.
func BestEffortPrice(quote *domain.PriceQuote) (domain.ResolvedPrice, error) {
	return pick(quote, conditionOrder(false))
}

func pick(quote *domain.PriceQuote, order []domain.Condition) (domain.ResolvedPrice, error) {
	if quote == nil {
		return domain.ResolvedPrice{}, fmt.Errorf("pricing: select price: %w", domain.ErrNoQuote)
	}
	for _, cond := range order {
		var amount *float64
		switch cond {
		case domain.ConditionLoose:
			amount = quote.Loose
		case domain.ConditionCIB:
			amount = quote.CIB
		case domain.ConditionNew:
			amount = quote.New
		}
		if amount != nil {
			return domain.ResolvedPrice{
				Amount:    *amount,
				Currency:  quote.Currency,
				Condition: cond,
				Source:    quote.SourceName,
			}, nil
		}
	}
	return domain.ResolvedPrice{}, fmt.Errorf("pricing: select price from %s: %w", quote.SourceName, domain.ErrNoQuote)
}
