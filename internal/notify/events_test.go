package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

func TestPriceChangeEvent(t *testing.T) {
	old := 20.0
	tests := []struct {
		name     string
		oldPrice *float64
		newPrice float64
		want     string
	}{
		{"no baseline", nil, 15, EventPriceSet},
		{"drop", &old, 15, EventPriceDrop},
		{"rise", &old, 25, EventPriceRise},
		{"unchanged counts as rise", &old, 20, EventPriceRise},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceChangeEvent(tt.oldPrice, tt.newPrice); got != tt.want {
				t.Errorf("PriceChangeEvent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatPriceChange(t *testing.T) {
	old := 20.0
	title, body := FormatPriceChange("Bloodborne", &old, 15, "GBP", "pricecharting")
	if !strings.Contains(title, "down") || !strings.Contains(title, "Bloodborne") {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(body, "£20.00") || !strings.Contains(body, "£15.00") {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(body, "-25.0%") {
		t.Errorf("body missing percent change: %q", body)
	}

	title, body = FormatPriceChange("Okami", nil, 12.5, "GBP", "pricecharting")
	if !strings.Contains(title, "Price set") {
		t.Errorf("no-baseline title = %q", title)
	}
	if !strings.Contains(body, "£12.50") {
		t.Errorf("no-baseline body = %q", body)
	}
}

func TestFormatSweepSummary(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := domain.SweepSummary{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Processed:  10,
		Updated:    3,
		Skipped:    6,
		Failures: []domain.SweepFailure{
			{GameID: "g1", Title: "Bloodborne", Stage: "scrape", Reason: "timeout"},
		},
	}

	_, body := FormatSweepSummary(s)
	for _, want := range []string{"10", "3 updated", "6 skipped", "1 failed", "Bloodborne"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}
