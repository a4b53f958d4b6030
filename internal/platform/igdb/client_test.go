package igdb

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, games http.HandlerFunc) (*Client, *int) {
	t.Helper()

	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if r.Method != http.MethodPost {
			t.Errorf("token request method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse token form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok-1","expires_in":3600}`)
	})
	mux.HandleFunc("/v4/games", games)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(srv.URL+"/v4", srv.URL+"/oauth2/token", "cid", "secret", logger)
	return c, &tokenCalls
}

func TestLookupMapsCandidates(t *testing.T) {
	var gotBody string
	c, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.Header.Get("Client-ID") != "cid" {
			t.Errorf("Client-ID = %q", r.Header.Get("Client-ID"))
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		io.WriteString(w, `[
			{
				"id": 7334,
				"name": "Bloodborne",
				"summary": "A hunter stalks Yharnam.",
				"cover": {"url": "//images.igdb.com/bb.jpg"},
				"first_release_date": 1427155200,
				"platforms": [{"name": "PlayStation 4"}],
				"genres": [{"name": "Role-playing (RPG)"}],
				"involved_companies": [{"company": {"name": "FromSoftware"}}],
				"franchises": [{"name": "Bloodborne"}]
			},
			{"id": 99}
		]`)
	})

	got, err := c.Lookup(context.Background(), "Bloodborne")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if *tokenCalls != 1 {
		t.Errorf("token endpoint called %d times, want 1", *tokenCalls)
	}
	if !strings.Contains(gotBody, `search "Bloodborne";`) {
		t.Errorf("request body missing search clause: %s", gotBody)
	}
	if !strings.Contains(gotBody, "fields name,") {
		t.Errorf("request body missing fields clause: %s", gotBody)
	}

	// The nameless record is dropped.
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c0 := got[0]
	if c0.ExternalID != 7334 || c0.CanonicalName != "Bloodborne" {
		t.Errorf("candidate = %+v", c0)
	}
	if c0.CoverURL != "//images.igdb.com/bb.jpg" {
		t.Errorf("CoverURL = %q", c0.CoverURL)
	}
	if len(c0.Platforms) != 1 || c0.Platforms[0] != "PlayStation 4" {
		t.Errorf("Platforms = %v", c0.Platforms)
	}
	if len(c0.Companies) != 1 || c0.Companies[0] != "FromSoftware" {
		t.Errorf("Companies = %v", c0.Companies)
	}
	if c0.FirstReleaseEpoch == nil || *c0.FirstReleaseEpoch != 1427155200 {
		t.Errorf("FirstReleaseEpoch = %v", c0.FirstReleaseEpoch)
	}
}

func TestLookupEmptyResultIsMiss(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	got, err := c.Lookup(context.Background(), "No Such Game")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
}

func TestLookupTokenReusedAcrossCalls(t *testing.T) {
	c, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	for range 3 {
		if _, err := c.Lookup(context.Background(), "Okami"); err != nil {
			t.Fatalf("Lookup: %v", err)
		}
	}
	if *tokenCalls != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cached)", *tokenCalls)
	}
}

func TestLookupRetriesOnUnauthorized(t *testing.T) {
	gamesCalls := 0
	c, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gamesCalls++
		if gamesCalls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `[{"id": 1, "name": "Okami"}]`)
	})

	got, err := c.Lookup(context.Background(), "Okami")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gamesCalls != 2 {
		t.Errorf("games endpoint called %d times, want 2", gamesCalls)
	}
	if *tokenCalls != 2 {
		t.Errorf("token endpoint called %d times, want refresh after 401", *tokenCalls)
	}
	if len(got) != 1 || got[0].CanonicalName != "Okami" {
		t.Errorf("candidates = %+v", got)
	}
}

func TestApicalypseQueryEscapesQuotes(t *testing.T) {
	q := apicalypseQuery(`The "Best" Game`)
	if !strings.Contains(q, `search "The \"Best\" Game";`) {
		t.Errorf("quotes not escaped: %s", q)
	}
}
