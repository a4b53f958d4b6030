package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akovacs/gameledger/internal/domain"
	"github.com/akovacs/gameledger/internal/platform/igdb"
	"github.com/akovacs/gameledger/internal/platform/pricecharting"
	"github.com/akovacs/gameledger/internal/pricing"
	"github.com/akovacs/gameledger/internal/resolve"
	"github.com/akovacs/gameledger/internal/server"
	"github.com/akovacs/gameledger/internal/server/handler"
	"github.com/akovacs/gameledger/internal/server/ws"
	"github.com/akovacs/gameledger/internal/service"
	"github.com/akovacs/gameledger/internal/sweep"
)

// ServeMode runs the HTTP + WebSocket API without the periodic sweep.
// Manual per-game reconciliation stays available; the sweep trigger endpoint
// reports unavailable.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "serve mode starting")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// SweepMode runs exactly one reconciliation pass over the catalog and exits.
// Meant for cron-style operation without a resident process.
func (a *App) SweepMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "sweep mode starting")

	runner := a.newSweepRunner(deps)
	summary, err := runner.Sweep(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSweepDisabled) {
			a.logger.WarnContext(ctx, "auto scraping disabled, nothing to do")
			return nil
		}
		return err
	}

	a.logger.InfoContext(ctx, "sweep finished",
		slog.Int("processed", summary.Processed),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failures", len(summary.Failures)),
		slog.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return nil
}

// FullMode runs the API server and the periodic sweep scheduler together.
// The sweep trigger endpoint requests an extra pass between ticks.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "full mode starting")

	g, ctx := errgroup.WithContext(ctx)

	sweepTriggerCh := make(chan struct{}, 1)
	a.startSweepScheduler(ctx, g, deps, sweepTriggerCh)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, sweepTriggerCh)
	} else {
		a.logger.InfoContext(ctx, "HTTP server disabled by config")
	}

	return g.Wait()
}

// newReconcileService builds the scrape-evaluate-commit cycle shared by the
// manual endpoint and the sweep.
func (a *App) newReconcileService(deps *Dependencies) *service.ReconcileService {
	scraper := pricecharting.NewClient(
		a.cfg.PriceCharting.BaseURL,
		a.cfg.PriceCharting.APIToken,
		a.logger,
	)
	thresholds := pricing.NewThresholdResolver(domain.GlobalDefaults{
		AutoScrapingEnabled: a.cfg.Thresholds.AutoScrapingEnabled,
		DefaultPriceSource:  a.cfg.Thresholds.DefaultPriceSource,
		DefaultRegion:       a.cfg.Thresholds.DefaultRegion,
		DropThresholdPct:    a.cfg.Thresholds.DropThresholdPct,
		IncreasePct:         a.cfg.Thresholds.IncreasePct,
		MinPriceThreshold:   a.cfg.Thresholds.MinPriceThreshold,
		MinValueChange:      a.cfg.Thresholds.MinValueChange,
	})
	converter := pricing.NewFixedRateConverter(
		"USD",
		a.cfg.Prices.DisplayCurrency,
		a.cfg.Prices.USDToGBPRate,
	)

	return service.NewReconcileService(service.ReconcileDeps{
		Games:       deps.GameStore,
		History:     deps.HistoryStore,
		Settings:    deps.SettingsStore,
		Scraper:     scraper,
		Limiter:     deps.RateLimiter,
		Cache:       deps.PriceCache,
		Bus:         deps.SignalBus,
		Notifier:    deps.Notifier,
		Thresholds:  thresholds,
		Converter:   converter,
		PreferBoxed: a.cfg.Prices.PreferBoxed,
		Logger:      a.logger,
	})
}

// newSweepRunner builds the catalog-wide sweep around the reconcile service.
func (a *App) newSweepRunner(deps *Dependencies) *sweep.Runner {
	return sweep.NewRunner(sweep.RunnerConfig{
		Games:    deps.GameStore,
		Recon:    a.newReconcileService(deps),
		Locks:    deps.LockManager,
		Bus:      deps.SignalBus,
		Notifier: deps.Notifier,
		Enabled:  a.cfg.Thresholds.AutoScrapingEnabled,
		Pace:     a.cfg.Sweep.Pace.Duration,
		LockTTL:  a.cfg.Sweep.LockTTL.Duration,
		Logger:   a.logger,
	})
}

// startSweepScheduler adds the periodic sweep goroutine to the given
// errgroup. triggerCh, when non-nil, requests one extra pass per receive.
func (a *App) startSweepScheduler(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	triggerCh <-chan struct{},
) {
	scheduler := sweep.NewScheduler(
		a.newSweepRunner(deps),
		a.cfg.Sweep.Interval.Duration,
		a.logger,
	)
	if triggerCh != nil {
		scheduler = scheduler.WithTrigger(triggerCh)
	}

	g.Go(func() error {
		err := scheduler.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// startHTTPServer adds the API server and WebSocket hub goroutines to the
// given errgroup. sweepTriggerCh is optional; when non-nil,
// POST /api/sweep/trigger sends on it to request one sweep.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	sweepTriggerCh chan<- struct{},
) {
	catalog := igdb.NewClient(
		a.cfg.IGDB.BaseURL,
		a.cfg.IGDB.TokenURL,
		a.cfg.IGDB.ClientID,
		a.cfg.IGDB.ClientSecret,
		a.logger,
	)
	normalizer := resolve.NewDefaultNormalizer()
	searcher := resolve.NewSearcher(normalizer, resolve.DefaultMaxAttempts, a.logger)
	resolver := resolve.NewResolver(catalog, searcher, resolve.DefaultFuzzyThreshold, a.logger)

	catalogSvc := service.NewCatalogService(deps.GameStore, resolver, a.logger)
	historySvc := service.NewHistoryService(deps.HistoryStore, deps.Archiver, a.logger)
	settingsSvc := service.NewSettingsService(deps.SettingsStore, deps.GameStore, a.logger)
	reconSvc := a.newReconcileService(deps)

	sweepH := handler.NewSweepHandler(deps.SignalBus, sweep.EventsStream(), a.logger)
	if sweepTriggerCh != nil {
		sweepH = sweepH.WithTriggerChannel(sweepTriggerCh)
	}

	historyH := handler.NewHistoryHandler(historySvc, deps.BlobReader, a.logger).
		WithRetention(time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour)

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Games:     handler.NewGameHandler(catalogSvc, a.logger),
		History:   historyH,
		Reconcile: handler.NewReconcileHandler(reconSvc, a.logger),
		Settings:  handler.NewSettingsHandler(settingsSvc, a.logger),
		Sweep:     sweepH,
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		Limiter:     deps.RateLimiter,
	}, handlers, hub, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
