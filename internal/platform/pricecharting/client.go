// Package pricecharting is the price source client. It queries the
// PriceCharting product API for loose/cib/new amounts, which the API
// reports in US cents.
package pricecharting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/akovacs/gameledger/internal/domain"
)

// DefaultBaseURL is the PriceCharting site root.
const DefaultBaseURL = "https://www.pricecharting.com"

// SourceName identifies this price source in ledger rows and cache keys.
const SourceName = "pricecharting"

// Client queries the PriceCharting product API.
type Client struct {
	baseURL string
	token   string
	client  *resty.Client
	logger  *slog.Logger
}

var _ domain.Scraper = (*Client)(nil)

// NewClient creates a PriceCharting client. An empty baseURL falls back to
// the production site.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	rc := resty.New()
	rc.SetTimeout(30 * time.Second)

	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  rc,
		logger:  logger.With(slog.String("component", "pricecharting")),
	}
}

// SourceName returns the ledger identifier for this source.
func (c *Client) SourceName() string { return SourceName }

// apiProduct is the wire shape of one product lookup. Amounts are integer
// US cents.
type apiProduct struct {
	Status      string `json:"status"`
	ErrorMsg    string `json:"error-message"`
	ProductName string `json:"product-name"`
	ConsoleName string `json:"console-name"`
	LoosePrice  *int64 `json:"loose-price"`
	CIBPrice    *int64 `json:"cib-price"`
	NewPrice    *int64 `json:"new-price"`
}

// ScrapeQuote looks up the best product match for the title and returns its
// quote in USD. A product miss returns an empty quote, not an error; only
// transport and API failures are errors.
func (c *Client) ScrapeQuote(ctx context.Context, title, platformHint, region string) (*domain.PriceQuote, error) {
	query := buildQuery(title, platformHint, region)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("t", c.token).
		SetQueryParam("q", query).
		Get(c.baseURL + "/api/product")
	if err != nil {
		return nil, fmt.Errorf("pricecharting: lookup %q: %w", query, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return c.emptyQuote(region), nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pricecharting: lookup %q: unexpected status %d", query, resp.StatusCode())
	}

	var product apiProduct
	if err := json.Unmarshal(resp.Body(), &product); err != nil {
		return nil, fmt.Errorf("pricecharting: decode product: %w", err)
	}
	if product.Status != "success" {
		// "error" with a no-match message is a miss, anything else is a
		// real API failure.
		if strings.Contains(strings.ToLower(product.ErrorMsg), "no ") {
			return c.emptyQuote(region), nil
		}
		return nil, fmt.Errorf("pricecharting: lookup %q: api status %q: %s", query, product.Status, product.ErrorMsg)
	}

	quote := &domain.PriceQuote{
		SourceName: SourceName,
		Currency:   "USD",
		Region:     region,
		Loose:      centsToDollars(product.LoosePrice),
		CIB:        centsToDollars(product.CIBPrice),
		New:        centsToDollars(product.NewPrice),
		ScrapedAt:  time.Now().UTC(),
	}
	c.logger.DebugContext(ctx, "scraped quote",
		slog.String("query", query),
		slog.String("product", product.ProductName),
		slog.String("console", product.ConsoleName),
	)
	return quote, nil
}

func (c *Client) emptyQuote(region string) *domain.PriceQuote {
	return &domain.PriceQuote{
		SourceName: SourceName,
		Currency:   "USD",
		Region:     region,
		ScrapedAt:  time.Now().UTC(),
	}
}

// buildQuery assembles the free-text product query. PAL releases are listed
// under PAL console names, so the region becomes a query prefix.
func buildQuery(title, platformHint, region string) string {
	parts := make([]string, 0, 3)
	if strings.EqualFold(region, "pal") {
		parts = append(parts, "pal")
	}
	if platformHint != "" {
		parts = append(parts, platformHint)
	}
	parts = append(parts, title)
	return strings.Join(parts, " ")
}

// centsToDollars maps an optional cent amount to dollars, dropping zero and
// negative amounts, which the API uses for "not sold in this condition".
func centsToDollars(cents *int64) *float64 {
	if cents == nil || *cents <= 0 {
		return nil
	}
	dollars := float64(*cents) / 100
	return &dollars
}
