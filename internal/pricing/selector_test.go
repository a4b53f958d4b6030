package pricing

import (
	"errors"
	"testing"

	"github.com/akovacs/gameledger/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func fullQuote() *domain.PriceQuote {
	return &domain.PriceQuote{
		SourceName: "pricecharting",
		Currency:   "USD",
		Loose:      fptr(30),
		CIB:        fptr(50),
		New:        fptr(80),
	}
}

func TestSelectPrice(t *testing.T) {
	tests := []struct {
		name        string
		quote       *domain.PriceQuote
		preferBoxed bool
		wantAmount  float64
		wantCond    domain.Condition
	}{
		{"prefer boxed takes cib", fullQuote(), true, 50, domain.ConditionCIB},
		{"default takes loose", fullQuote(), false, 30, domain.ConditionLoose},
		{
			"boxed falls back to loose",
			&domain.PriceQuote{SourceName: "pricecharting", Currency: "USD", Loose: fptr(30), New: fptr(80)},
			true, 30, domain.ConditionLoose,
		},
		{
			"only new left",
			&domain.PriceQuote{SourceName: "pricecharting", Currency: "USD", New: fptr(80)},
			false, 80, domain.ConditionNew,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPrice(tt.quote, tt.preferBoxed)
			if err != nil {
				t.Fatalf("SelectPrice: %v", err)
			}
			if got.Amount != tt.wantAmount || got.Condition != tt.wantCond {
				t.Errorf("got %v/%s, want %v/%s", got.Amount, got.Condition, tt.wantAmount, tt.wantCond)
			}
			if got.Source != "pricecharting" || got.Currency != "USD" {
				t.Errorf("source/currency not carried over: %+v", got)
			}
		})
	}
}

func TestSelectPriceEmptyQuote(t *testing.T) {
	_, err := SelectPrice(&domain.PriceQuote{SourceName: "pricecharting"}, false)
	if !errors.Is(err, domain.ErrNoQuote) {
		t.Errorf("err = %v, want ErrNoQuote", err)
	}
	_, err = SelectPrice(nil, true)
	if !errors.Is(err, domain.ErrNoQuote) {
		t.Errorf("nil quote err = %v, want ErrNoQuote", err)
	}
}

func TestBestEffortPriceIgnoresBoxedPreference(t *testing.T) {
	got, err := BestEffortPrice(fullQuote())
	if err != nil {
		t.Fatalf("BestEffortPrice: %v", err)
	}
	if got.Amount != 30 || got.Condition != domain.ConditionLoose {
		t.Errorf("got %v/%s, want 30/loose", got.Amount, got.Condition)
	}
}

func TestFixedRateConverter(t *testing.T) {
	c := NewFixedRateConverter("USD", "GBP", 0.79)

	tests := []struct {
		amount       float64
		from         string
		wantAmount   float64
		wantCurrency string
	}{
		{100, "USD", 79, "GBP"},
		{33.33, "USD", 26.33, "GBP"}, // 26.3307 rounds down
		{12.5, "GBP", 12.5, "GBP"},   // already display currency
		{0, "USD", 0, "GBP"},
	}
	for _, tt := range tests {
		gotAmount, gotCurrency := c.Convert(tt.amount, tt.from)
		if gotAmount != tt.wantAmount || gotCurrency != tt.wantCurrency {
			t.Errorf("Convert(%v, %s) = %v %s, want %v %s",
				tt.amount, tt.from, gotAmount, gotCurrency, tt.wantAmount, tt.wantCurrency)
		}
	}
}
