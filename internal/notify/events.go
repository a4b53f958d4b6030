package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

// currencySymbol maps ISO codes to display symbols; unknown codes render as
// a "CODE " prefix.
func currencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "GBP":
		return "£"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return code + " "
	}
}

// PriceChangeEvent classifies a committed price move against its baseline.
func PriceChangeEvent(oldPrice *float64, newPrice float64) string {
	switch {
	case oldPrice == nil:
		return EventPriceSet
	case newPrice < *oldPrice:
		return EventPriceDrop
	default:
		return EventPriceRise
	}
}

// FormatPriceChange renders the title and body for a committed price update.
func FormatPriceChange(gameTitle string, oldPrice *float64, newPrice float64, currency, source string) (string, string) {
	sym := currencySymbol(currency)

	if oldPrice == nil {
		title := fmt.Sprintf("Price set: %s", gameTitle)
		body := fmt.Sprintf("First recorded price: %s%.2f (source: %s)", sym, newPrice, source)
		return title, body
	}

	change := newPrice - *oldPrice
	pct := 0.0
	if *oldPrice != 0 {
		pct = change / *oldPrice * 100
	}

	direction := "up"
	if change < 0 {
		direction = "down"
	}
	title := fmt.Sprintf("Price %s: %s", direction, gameTitle)
	body := fmt.Sprintf("%s%.2f -> %s%.2f (%+.1f%%, source: %s)",
		sym, *oldPrice, sym, newPrice, pct, source)
	return title, body
}

// FormatSweepSummary renders the title and body for a finished sweep.
func FormatSweepSummary(s domain.SweepSummary) (string, string) {
	title := "Price sweep complete"
	body := fmt.Sprintf(
		"Processed %d games in %s: %d updated, %d skipped, %d failed",
		s.Processed,
		s.FinishedAt.Sub(s.StartedAt).Round(time.Second),
		s.Updated,
		s.Skipped,
		len(s.Failures),
	)
	if len(s.Failures) > 0 {
		names := make([]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			names = append(names, f.Title)
		}
		const maxNames = 5
		if len(names) > maxNames {
			names = append(names[:maxNames], fmt.Sprintf("and %d more", len(names)-maxNames))
		}
		body += "\nFailures: " + strings.Join(names, ", ")
	}
	return title, body
}
