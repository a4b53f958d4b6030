// Package igdb is the catalog metadata client. It speaks the IGDB v4 API,
// authenticating through Twitch OAuth client credentials and querying games
// with Apicalypse request bodies.
package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
)

const (
	// DefaultBaseURL is the IGDB API root.
	DefaultBaseURL = "https://api.igdb.com/v4"
	// DefaultTokenURL is the Twitch OAuth2 client-credentials endpoint.
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

	// searchLimit caps candidates per lookup; the fuzzy matcher never needs
	// more than a page.
	searchLimit = 10

	// tokenSlack refreshes the token this long before it actually expires.
	tokenSlack = time.Minute
)

// Client is the IGDB REST client. It lazily acquires and refreshes its
// Twitch app access token; safe for concurrent use.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ domain.CatalogLookup = (*Client)(nil)

// NewClient creates an IGDB client. Empty baseURL or tokenURL fall back to
// the production endpoints.
func NewClient(baseURL, tokenURL, clientID, clientSecret string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:      baseURL,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "igdb")),
	}
}

// Lookup searches the catalog for games matching the title variant. An empty
// result set is a normal miss.
func (c *Client) Lookup(ctx context.Context, titleVariant string) ([]domain.CandidateMatch, error) {
	body := apicalypseQuery(titleVariant)

	respBody, status, err := c.doGames(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("igdb: search %q: %w", titleVariant, err)
	}
	if status == http.StatusUnauthorized {
		// Token invalidated server-side; force a refresh and retry once.
		c.invalidateToken()
		respBody, status, err = c.doGames(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("igdb: search %q after token refresh: %w", titleVariant, err)
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("igdb: search %q: unexpected status %d: %s", titleVariant, status, truncate(respBody))
	}

	var games []apiGame
	if err := json.Unmarshal(respBody, &games); err != nil {
		return nil, fmt.Errorf("igdb: decode search response: %w", err)
	}

	out := make([]domain.CandidateMatch, 0, len(games))
	for _, g := range games {
		if g.Name == "" {
			continue
		}
		out = append(out, g.toCandidate())
	}
	return out, nil
}

// apicalypseQuery builds the request body for a title search. IGDB string
// literals are double-quoted, so embedded quotes are escaped.
func apicalypseQuery(title string) string {
	escaped := strings.ReplaceAll(title, `"`, `\"`)
	return fmt.Sprintf(
		`fields name, summary, cover.url, first_release_date, platforms.name, genres.name, involved_companies.company.name, franchises.name; search "%s"; limit %d;`,
		escaped, searchLimit,
	)
}

func (c *Client) doGames(ctx context.Context, body string) ([]byte, int, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", strings.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// token returns a valid app access token, fetching a fresh one from Twitch
// when the cached token is absent or close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, truncate(respBody))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.logger.Debug("refreshed app access token", slog.Time("expires", c.tokenExpiry))

	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
