package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/pricing"
)

type fakeGameStore struct {
	games        map[string]domain.Game
	priceUpdates map[string]float64
	updateErr    error
}

func newFakeGameStore(games ...domain.Game) *fakeGameStore {
	m := make(map[string]domain.Game, len(games))
	for _, g := range games {
		m[g.ID] = g
	}
	return &fakeGameStore{games: m, priceUpdates: map[string]float64{}}
}

func (f *fakeGameStore) Upsert(ctx context.Context, g domain.Game) error {
	f.games[g.ID] = g
	return nil
}
func (f *fakeGameStore) GetByID(ctx context.Context, id string) (domain.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return domain.Game{}, domain.ErrNotFound
	}
	return g, nil
}
func (f *fakeGameStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Game, error) {
	out := make([]domain.Game, 0, len(f.games))
	for _, g := range f.games {
		out = append(out, g)
	}
	return out, nil
}
func (f *fakeGameStore) UpdateCurrentPrice(ctx context.Context, id string, price float64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.priceUpdates[id] = price
	return nil
}
func (f *fakeGameStore) Count(ctx context.Context) (int64, error) { return int64(len(f.games)), nil }

type fakeHistoryStore struct {
	appends []domain.PriceObservation
	err     error
}

func (f *fakeHistoryStore) Append(ctx context.Context, gameID string, amount float64, currency, sourceName string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appends = append(f.appends, domain.PriceObservation{
		GameID: gameID, Amount: amount, Currency: currency, SourceName: sourceName,
	})
	return "obs-1", nil
}
func (f *fakeHistoryStore) Latest(ctx context.Context, gameID string) (domain.PriceObservation, error) {
	if len(f.appends) == 0 {
		return domain.PriceObservation{}, domain.ErrNotFound
	}
	return f.appends[len(f.appends)-1], nil
}
func (f *fakeHistoryStore) ListByGame(ctx context.Context, gameID string, opts domain.ListOpts) ([]domain.PriceObservation, error) {
	return f.appends, nil
}
func (f *fakeHistoryStore) ListBefore(ctx context.Context, before time.Time) ([]domain.PriceObservation, error) {
	return nil, nil
}

type fakeSettingsStore struct {
	rows map[string]domain.AlertSettings
}

func (f *fakeSettingsStore) Get(ctx context.Context, gameID string) (domain.AlertSettings, error) {
	row, ok := f.rows[gameID]
	if !ok {
		return domain.AlertSettings{}, domain.ErrNotFound
	}
	return row, nil
}
func (f *fakeSettingsStore) Upsert(ctx context.Context, s domain.AlertSettings) error {
	if f.rows == nil {
		f.rows = map[string]domain.AlertSettings{}
	}
	f.rows[s.GameID] = s
	return nil
}
func (f *fakeSettingsStore) Delete(ctx context.Context, gameID string) error {
	delete(f.rows, gameID)
	return nil
}

type fakeScraper struct {
	quote *domain.PriceQuote
	err   error
	calls int
}

func (f *fakeScraper) ScrapeQuote(ctx context.Context, title, platformHint, region string) (*domain.PriceQuote, error) {
	f.calls++
	return f.quote, f.err
}
func (f *fakeScraper) SourceName() string { return "pricecharting" }

type fakeCache struct {
	sets map[string]float64
}

func (f *fakeCache) SetPrice(ctx context.Context, gameID string, price float64, ts time.Time) error {
	if f.sets == nil {
		f.sets = map[string]float64{}
	}
	f.sets[gameID] = price
	return nil
}
func (f *fakeCache) GetPrice(ctx context.Context, gameID string) (float64, time.Time, error) {
	return 0, time.Time{}, domain.ErrNotFound
}
func (f *fakeCache) GetPrices(ctx context.Context, gameIDs []string) (map[string]float64, error) {
	return f.sets, nil
}

func fptr(v float64) *float64 { return &v }

func quoteUSD(loose, cib float64) *domain.PriceQuote {
	return &domain.PriceQuote{
		SourceName: "pricecharting",
		Currency:   "USD",
		Loose:      fptr(loose),
		CIB:        fptr(cib),
		ScrapedAt:  time.Now(),
	}
}

func testService(games *fakeGameStore, history *fakeHistoryStore, scraper *fakeScraper, defaults domain.GlobalDefaults) (*ReconcileService, *fakeCache) {
	cache := &fakeCache{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewReconcileService(ReconcileDeps{
		Games:      games,
		History:    history,
		Settings:   &fakeSettingsStore{},
		Scraper:    scraper,
		Cache:      cache,
		Thresholds: pricing.NewThresholdResolver(defaults),
		Converter:  pricing.NewFixedRateConverter("USD", "GBP", 0.79),
		Logger:     logger,
	})
	return svc, cache
}

func defaults() domain.GlobalDefaults {
	return domain.GlobalDefaults{
		AutoScrapingEnabled: true,
		DefaultPriceSource:  "pricecharting",
		DefaultRegion:       "pal",
		DropThresholdPct:    10,
		IncreasePct:         20,
	}
}

func TestReconcileOneManualAlwaysCommits(t *testing.T) {
	// A 1% move stays inside the threshold band, but a forced refresh
	// commits anyway.
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Bloodborne", CurrentPrice: fptr(16.0)})
	history := &fakeHistoryStore{}
	scraper := &fakeScraper{quote: quoteUSD(20, 30)} // 20 USD -> 15.80 GBP

	svc, cache := testService(games, history, scraper, defaults())
	out, err := svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{Force: true})
	if err != nil {
		t.Fatalf("ReconcileOne: %v", err)
	}
	if !out.Committed || out.Reason != ReasonManual {
		t.Errorf("outcome = %+v, want manual commit", out)
	}
	if out.Currency != "GBP" {
		t.Errorf("Currency = %q, want GBP", out.Currency)
	}
	if out.NewPrice != 15.8 {
		t.Errorf("NewPrice = %v, want 15.8 (20 USD at 0.79)", out.NewPrice)
	}

	if len(history.appends) != 1 {
		t.Fatalf("ledger appends = %d, want 1", len(history.appends))
	}
	if history.appends[0].Currency != "GBP" || history.appends[0].SourceName != "pricecharting" {
		t.Errorf("ledger row = %+v", history.appends[0])
	}
	if games.priceUpdates["g1"] != 15.8 {
		t.Errorf("catalog price = %v, want 15.8", games.priceUpdates["g1"])
	}
	if cache.sets["g1"] != 15.8 {
		t.Errorf("cached price = %v, want 15.8", cache.sets["g1"])
	}
}

func TestReconcileOneAutoSkipsSmallChange(t *testing.T) {
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Bloodborne", CurrentPrice: fptr(16.0)})
	history := &fakeHistoryStore{}
	scraper := &fakeScraper{quote: quoteUSD(20, 30)} // 15.80 GBP, -1.25%, inside the band

	svc, _ := testService(games, history, scraper, defaults())
	out, err := svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{})
	if err != nil {
		t.Fatalf("ReconcileOne: %v", err)
	}
	if out.Committed {
		t.Error("a change inside the band must not commit")
	}
	if len(history.appends) != 0 {
		t.Error("the ledger must stay untouched on a skip")
	}
	if len(games.priceUpdates) != 0 {
		t.Error("the catalog must stay untouched on a skip")
	}
}

func TestReconcileOneAutoCommitsDrop(t *testing.T) {
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Bloodborne", CurrentPrice: fptr(20.0)})
	history := &fakeHistoryStore{}
	scraper := &fakeScraper{quote: quoteUSD(20, 30)} // 15.80 GBP = -21%

	svc, _ := testService(games, history, scraper, defaults())
	out, err := svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{})
	if err != nil {
		t.Fatalf("ReconcileOne: %v", err)
	}
	if !out.Committed || out.Reason != pricing.ReasonDrop {
		t.Errorf("outcome = %+v, want a drop commit", out)
	}
}

func TestReconcileOneNoBaselineCommits(t *testing.T) {
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Okami"})
	history := &fakeHistoryStore{}
	scraper := &fakeScraper{quote: quoteUSD(10, 15)}

	svc, _ := testService(games, history, scraper, defaults())
	out, err := svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{})
	if err != nil {
		t.Fatalf("ReconcileOne: %v", err)
	}
	if !out.Committed || out.Reason != pricing.ReasonNoBaseline {
		t.Errorf("outcome = %+v, want a no-baseline commit", out)
	}
}

func TestReconcileOneEmptyQuote(t *testing.T) {
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Obscure Title"})
	scraper := &fakeScraper{quote: &domain.PriceQuote{SourceName: "pricecharting", Currency: "USD"}}

	svc, _ := testService(games, &fakeHistoryStore{}, scraper, defaults())
	_, err := svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{})
	if !errors.Is(err, domain.ErrNoQuote) {
		t.Fatalf("err = %v, want ErrNoQuote", err)
	}
}

func TestReconcileOnePersistFailurePropagates(t *testing.T) {
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Bloodborne"})
	history := &fakeHistoryStore{err: errors.New("disk full")}
	scraper := &fakeScraper{quote: quoteUSD(10, 15)}

	svc, cache := testService(games, history, scraper, defaults())
	_, err := svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{})
	if err == nil {
		t.Fatal("a ledger write failure must propagate")
	}
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("err = %v, want ErrPersistence so the sweep can tag it", err)
	}
	if len(games.priceUpdates) != 0 {
		t.Error("catalog must not be updated when the ledger append fails")
	}
	if len(cache.sets) != 0 {
		t.Error("cache must not be updated when the ledger append fails")
	}
}

func TestReconcileOneUnknownGame(t *testing.T) {
	svc, _ := testService(newFakeGameStore(), &fakeHistoryStore{}, &fakeScraper{}, defaults())
	_, err := svc.ReconcileOne(context.Background(), "missing", ReconcileOpts{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestThresholdsMergeOverrides(t *testing.T) {
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Bloodborne"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enabled := true
	drop := 5.0
	settings := &fakeSettingsStore{rows: map[string]domain.AlertSettings{
		"g1": {GameID: "g1", Enabled: &enabled, DropThresholdPct: &drop},
	}}

	svc := NewReconcileService(ReconcileDeps{
		Games:      games,
		History:    &fakeHistoryStore{},
		Settings:   settings,
		Scraper:    &fakeScraper{},
		Thresholds: pricing.NewThresholdResolver(defaults()),
		Converter:  pricing.NewFixedRateConverter("USD", "GBP", 0.79),
		Logger:     logger,
	})

	th, err := svc.Thresholds(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Thresholds: %v", err)
	}
	if !th.Enabled || th.DropThresholdPct != 5 || th.IncreasePct != 20 {
		t.Errorf("thresholds = %+v, want override drop=5 with default rise=20", th)
	}

	th, err = svc.Thresholds(context.Background(), "g2")
	if err != nil {
		t.Fatalf("Thresholds for defaulted game: %v", err)
	}
	if th.Enabled != domain.DefaultAlertsEnabled || th.DropThresholdPct != 10 {
		t.Errorf("defaulted thresholds = %+v", th)
	}
}

func TestReconcileOnePreferBoxedOverride(t *testing.T) {
	// Configured policy is loose-first; the per-run override flips to the
	// boxed price without touching the policy for later runs.
	games := newFakeGameStore(domain.Game{ID: "g1", Title: "Bloodborne"})
	scraper := &fakeScraper{quote: quoteUSD(10, 15)}
	svc, _ := testService(games, &fakeHistoryStore{}, scraper, defaults())

	boxed := true
	out, err := svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{Force: true, PreferBoxed: &boxed})
	if err != nil {
		t.Fatalf("ReconcileOne: %v", err)
	}
	if out.Condition != domain.ConditionCIB {
		t.Errorf("Condition = %q, want cib", out.Condition)
	}
	if out.NewPrice != 11.85 {
		t.Errorf("NewPrice = %v, want 11.85 (15 USD boxed)", out.NewPrice)
	}

	out, err = svc.ReconcileOne(context.Background(), "g1", ReconcileOpts{Force: true})
	if err != nil {
		t.Fatalf("ReconcileOne: %v", err)
	}
	if out.Condition != domain.ConditionLoose {
		t.Errorf("Condition = %q, want loose after the override run", out.Condition)
	}
}
