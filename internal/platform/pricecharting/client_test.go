package pricecharting

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL, "test-token", logger)
}

func TestScrapeQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/product" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("t") != "test-token" {
			t.Errorf("token param = %q", r.URL.Query().Get("t"))
		}
		if r.URL.Query().Get("q") != "playstation 4 Bloodborne" {
			t.Errorf("query param = %q", r.URL.Query().Get("q"))
		}
		io.WriteString(w, `{
			"status": "success",
			"product-name": "Bloodborne",
			"console-name": "Playstation 4",
			"loose-price": 1550,
			"cib-price": 2299,
			"new-price": 5400
		}`)
	})

	got, err := c.ScrapeQuote(context.Background(), "Bloodborne", "playstation 4", "ntsc")
	if err != nil {
		t.Fatalf("ScrapeQuote: %v", err)
	}
	if got.SourceName != SourceName || got.Currency != "USD" || got.Region != "ntsc" {
		t.Errorf("quote metadata = %+v", got)
	}
	if got.Loose == nil || *got.Loose != 15.50 {
		t.Errorf("Loose = %v, want 15.50", got.Loose)
	}
	if got.CIB == nil || *got.CIB != 22.99 {
		t.Errorf("CIB = %v, want 22.99", got.CIB)
	}
	if got.New == nil || *got.New != 54.00 {
		t.Errorf("New = %v, want 54.00", got.New)
	}
}

func TestScrapeQuotePALRegionPrefixesQuery(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		io.WriteString(w, `{"status": "success", "product-name": "Bloodborne"}`)
	})

	if _, err := c.ScrapeQuote(context.Background(), "Bloodborne", "playstation 4", "PAL"); err != nil {
		t.Fatalf("ScrapeQuote: %v", err)
	}
	if gotQuery != "pal playstation 4 Bloodborne" {
		t.Errorf("query = %q, want region prefix", gotQuery)
	}
}

func TestScrapeQuoteZeroPricesDropped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "success", "product-name": "Okami", "loose-price": 899, "cib-price": 0}`)
	})

	got, err := c.ScrapeQuote(context.Background(), "Okami", "", "ntsc")
	if err != nil {
		t.Fatalf("ScrapeQuote: %v", err)
	}
	if got.Loose == nil || *got.Loose != 8.99 {
		t.Errorf("Loose = %v, want 8.99", got.Loose)
	}
	if got.CIB != nil {
		t.Errorf("CIB = %v, want nil for a zero amount", *got.CIB)
	}
	if got.New != nil {
		t.Errorf("New = %v, want nil when absent", *got.New)
	}
}

func TestScrapeQuoteProductMissIsEmptyQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "error", "error-message": "No results found"}`)
	})

	got, err := c.ScrapeQuote(context.Background(), "Completely Unknown Title", "", "ntsc")
	if err != nil {
		t.Fatalf("ScrapeQuote: %v", err)
	}
	if !got.Empty() {
		t.Errorf("quote = %+v, want empty on a product miss", got)
	}
}

func TestScrapeQuoteServerErrorIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.ScrapeQuote(context.Background(), "Okami", "", "ntsc"); err == nil {
		t.Fatal("expected an error for a 5xx response")
	}
}
