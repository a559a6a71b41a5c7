// Package app wires configuration into a runnable monitor. Both entrypoints
// share this assembly; only the status server differs between them.
package app

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"pricewatch/internal/catalog"
	"pricewatch/internal/config"
	"pricewatch/internal/detect"
	"pricewatch/internal/monitor"
	"pricewatch/internal/notify"
	"pricewatch/internal/source"
	"pricewatch/internal/store"
)

// App bundles the wired monitor with the resources its caller manages.
type App struct {
	Monitor *monitor.Monitor
	Catalog *catalog.Loader
	Store   store.Store

	history *store.History
	logger  *slog.Logger
}

// Build assembles catalog, source, store and notifier into a Monitor from
// validated configuration. The postgres backend also starts the price
// history writer when enabled.
func Build(ctx context.Context, cfg *config.MonitorConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loader, err := catalog.NewLoader(cfg.Catalog.SheetURL, cfg.Catalog.Timeout, logger)
	if err != nil {
		return nil, err
	}

	srcCfg := source.DefaultSerperConfig()
	srcCfg.APIURL = cfg.Source.APIURL
	srcCfg.APIKey = cfg.Source.APIKey
	srcCfg.Country = cfg.Source.Country
	srcCfg.Language = cfg.Source.Language
	srcCfg.Location = cfg.Source.Location
	srcCfg.MaxResults = cfg.Source.MaxResults
	srcCfg.ExcludedRetailers = cfg.Source.ExcludedRetailers
	if cfg.Source.Timeout > 0 {
		srcCfg.Timeout = cfg.Source.Timeout
	}
	src := source.NewSerper(srcCfg, logger)

	var (
		st      store.Store
		history *store.History
	)
	switch cfg.Store.Backend {
	case "postgres":
		logger.Info("connecting to database",
			"host", cfg.Store.Postgres.Host,
			"port", cfg.Store.Postgres.Port,
			"database", cfg.Store.Postgres.Name,
		)
		pg, err := store.NewPostgresStore(ctx, cfg.Store.Postgres)
		if err != nil {
			return nil, err
		}
		st = pg
		if cfg.Store.History.Enabled {
			history = store.NewHistory(store.HistoryConfig{
				BatchSize:     cfg.Store.History.BatchSize,
				FlushInterval: cfg.Store.History.FlushInterval,
			}, pg.Pool(), logger)
			if err := history.Start(ctx); err != nil {
				pg.Close()
				return nil, err
			}
		}
	default:
		fs, err := store.NewFileStore(cfg.Store.FilePath, logger)
		if err != nil {
			return nil, err
		}
		st = fs
	}

	var notifier notify.Notifier
	if cfg.Notify.DiscordWebhookURL != "" {
		notifier = notify.NewDiscord(cfg.Notify.DiscordWebhookURL, cfg.Notify.Username, cfg.Notify.Timeout)
	} else {
		logger.Warn("no discord webhook configured, alerts go to the log only")
		notifier = notify.NewLogNotifier(logger)
	}

	mcfg := monitor.DefaultConfig()
	mcfg.Interval = cfg.Poller.Interval
	mcfg.ItemDelay = cfg.Poller.ItemDelay
	mcfg.MaxConsecutiveFailures = cfg.Poller.MaxConsecutiveFailures
	mcfg.BasePolicy = detect.Policy{
		MinAbsoluteDelta: decimal.NewFromFloat(cfg.Detector.MinAbsoluteDelta),
		MinPercentDelta:  decimal.NewFromFloat(cfg.Detector.MinPercentDelta),
		Direction:        detect.Direction(cfg.Detector.Direction),
	}

	m := monitor.New(mcfg, loader, src, st, notifier, logger)
	if history != nil {
		m.SetRecorder(history)
	}

	return &App{
		Monitor: m,
		Catalog: loader,
		Store:   st,
		history: history,
		logger:  logger,
	}, nil
}

// Close drains the history writer when one is running, then closes the
// store. Safe to call once after the monitor has stopped.
func (a *App) Close(ctx context.Context) {
	if a.history != nil {
		if err := a.history.Stop(ctx); err != nil {
			a.logger.Error("history writer stop", "error", err)
		}
	}
	a.Store.Close()
}
