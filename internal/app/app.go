// Package app wires the dashboard service and its collaborators from a
// Config. Every binary builds its runtime through New.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"screener/internal/config"
	"screener/internal/dashboard"
	"screener/internal/heatmap"
	"screener/internal/history"
	"screener/internal/store"
	"screener/internal/util"
)

// App holds the wired runtime.
type App struct {
	Config   *config.Config
	Service  *dashboard.Service
	Cache    *store.CachedSource
	Calendar *util.TradingCalendar
	Prefs    store.PreferencesStore

	closers []func() error
}

// New builds the snapshot source selected by cfg.Storage, wraps it in a
// cache and composes the dashboard service.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{Config: cfg}

	src, summary, err := openSource(cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	a.Cache = store.NewCachedSource(src, log)

	prefs, err := openPreferences(cfg.Storage.SQLitePath, log)
	if err != nil {
		return nil, err
	}
	a.Prefs = prefs
	if c, ok := prefs.(*store.SQLitePreferences); ok {
		a.closers = append(a.closers, c.Close)
	}

	policy, err := history.ParsePolicy(cfg.History.Policy)
	if err != nil {
		a.Close()
		return nil, err
	}
	hist := history.NewReconstructor(a.Cache, history.Options{
		Policy:       policy,
		MaxPoints:    cfg.History.MaxPoints,
		FetchTimeout: cfg.History.FetchTimeout,
		Concurrency:  cfg.History.Concurrency,
	}, log)

	var watch *dashboard.Watchlist
	if cfg.Alpaca.Enabled() {
		client := alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
			BaseURL:   cfg.Alpaca.BaseURL,
		})
		watch = dashboard.NewWatchlist(client, cfg.Alpaca.Watchlist, log)
		a.Calendar = util.NewTradingCalendar(client)
		log.Info("alpaca client initialized for watchlist and calendar")
	} else {
		a.Calendar = util.NewTradingCalendar(nil)
	}

	a.Service = dashboard.NewService(dashboard.Deps{
		Source:      a.Cache,
		Summary:     summary,
		Preferences: prefs,
		History:     hist,
		Watchlist:   watch,
		Heatmap:     HeatmapOptions(cfg.Heatmap),
	}, log)
	return a, nil
}

// Close releases the preferences database.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// HeatmapOptions converts the configured canvas into render options.
func HeatmapOptions(h config.Heatmap) heatmap.Options {
	opts := heatmap.DefaultOptions()
	opts.Width = h.Width
	opts.Height = h.Height
	opts.MinGroupHeight = h.MinGroupHeight
	opts.GroupSpacing = h.GroupSpacing
	opts.GridGap = h.GridGap
	return opts
}

// OpenSource returns the configured snapshot source without caching.
func OpenSource(s config.Storage, log *slog.Logger) (store.SnapshotSource, error) {
	src, _, err := openSource(s, log)
	return src, err
}

func openSource(s config.Storage, log *slog.Logger) (store.SnapshotSource, store.SummarySource, error) {
	switch s.Kind {
	case "file":
		fs := store.NewFileSource(s.DataDir, log)
		return fs, fs, nil
	case "http":
		hs := store.NewHTTPSource(s.BaseURL, s.RateLimitPerMin, log)
		return hs, hs, nil
	case "parquet":
		// Summaries stay JSON documents next to the TSV data.
		return store.NewParquetStore(s.ParquetDir), store.NewFileSource(s.DataDir, log), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage kind %q", s.Kind)
	}
}

// openPreferences opens the SQLite preferences database, or keeps
// preferences in memory when no path is configured.
func openPreferences(path string, log *slog.Logger) (store.PreferencesStore, error) {
	if path == "" {
		log.Info("no sqlite path configured, preferences kept in memory")
		return store.NewMemoryPreferences(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	p, err := store.NewSQLitePreferences(path)
	if err != nil {
		return nil, fmt.Errorf("opening preferences: %w", err)
	}
	return p, nil
}
