package pricing

import "math"

// Converter translates an amount into the display currency.
type Converter interface {
	// Convert returns the amount in the display currency along with the
	// display currency code. Amounts already in the display currency pass
	// through unchanged.
	Convert(amount float64, fromCurrency string) (float64, string)
}

// FixedRateConverter converts one source currency into the display currency
// at a fixed rate, rounding to two decimal places. Amounts in any other
// currency pass through untouched.
type FixedRateConverter struct {
	from string
	to   string
	rate float64
}

var _ Converter = (*FixedRateConverter)(nil)

// NewFixedRateConverter creates a converter from fromCurrency to toCurrency
// at the given rate.
func NewFixedRateConverter(fromCurrency, toCurrency string, rate float64) *FixedRateConverter {
	return &FixedRateConverter{from: fromCurrency, to: toCurrency, rate: rate}
}

func (c *FixedRateConverter) Convert(amount float64, fromCurrency string) (float64, string) {
	if fromCurrency != c.from {
		return amount, fromCurrency
	}
	return math.Round(amount*c.rate*100) / 100, c.to
}
