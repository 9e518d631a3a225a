// Package dashboard composes the snapshot store, heatmap rendering and
// history reconstruction into the views served by the HTTP API, the gRPC
// service and the terminal client.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"screener/internal/domain"
	"screener/internal/heatmap"
	"screener/internal/history"
	"screener/internal/store"
)

var (
	// ErrStockNotFound wraps store.ErrNotFound for a ticker missing from a
	// date's snapshot.
	ErrStockNotFound = fmt.Errorf("stock %w", store.ErrNotFound)
	// ErrInvalidPreferences reports preferences with unknown values.
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// Views accepted in Preferences.View.
var validViews = map[string]bool{"table": true, "heatmap": true}

// Deps are the collaborators of a Service. Summary and Watchlist may be nil.
type Deps struct {
	Source      store.SnapshotSource
	Summary     store.SummarySource
	Preferences store.PreferencesStore
	History     *history.Reconstructor
	Watchlist   *Watchlist
	Heatmap     heatmap.Options
}

// Service answers dashboard queries.
type Service struct {
	src     store.SnapshotSource
	summary store.SummarySource
	prefs   store.PreferencesStore
	hist    *history.Reconstructor
	watch   *Watchlist
	opts    heatmap.Options
	log     *slog.Logger
}

// NewService creates a Service. A nil Preferences store keeps preferences
// in memory and a nil History reconstructor uses defaults over Source.
func NewService(deps Deps, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if deps.Preferences == nil {
		deps.Preferences = store.NewMemoryPreferences()
	}
	if deps.History == nil {
		deps.History = history.NewReconstructor(deps.Source, history.Options{}, log)
	}
	return &Service{
		src:     deps.Source,
		summary: deps.Summary,
		prefs:   deps.Preferences,
		hist:    deps.History,
		watch:   deps.Watchlist,
		opts:    deps.Heatmap,
		log:     log,
	}
}

// Reconstructor exposes the history reconstructor for callers that manage
// a Session.
func (s *Service) Reconstructor() *history.Reconstructor {
	return s.hist
}

// StockView is a snapshot with its score breakdown.
type StockView struct {
	domain.StockSnapshot
	Breakdown      [4]domain.ScoreBreakdownEntry `json:"breakdown"`
	BreakdownTotal float64                       `json:"breakdownTotal"`
	Tier           domain.Tier                   `json:"tier"`
}

// NewStockView scores s.
func NewStockView(s domain.StockSnapshot) StockView {
	b := domain.ScoreBreakdown(s)
	return StockView{
		StockSnapshot:  s,
		Breakdown:      b,
		BreakdownTotal: domain.BreakdownTotal(b),
		Tier:           domain.ScoreTier(s.InvestorScore),
	}
}

// SnapshotsView lists every stock of a date.
type SnapshotsView struct {
	Date   string      `json:"date"`
	Stocks []StockView `json:"stocks"`
}

// StockDetail is one stock with its formatted tooltip sections.
type StockDetail struct {
	StockView
	Date        string    `json:"date"`
	CountryCode string    `json:"countryCode"`
	Sections    []Section `json:"sections"`
}

// HeatmapRequest selects a date and view. Empty fields fall back to the
// saved preferences and the configured canvas.
type HeatmapRequest struct {
	Date    string
	GroupBy string
	SizeBy  string
	Width   float64
	Height  float64
}

// HeatmapView is a rendered heatmap of a date.
type HeatmapView struct {
	Date string `json:"date"`
	heatmap.Heatmap
}

// HistoryView is a ticker's series with its price axis domain.
type HistoryView struct {
	Ticker string          `json:"ticker"`
	Policy string          `json:"policy"`
	Points []history.Point `json:"points"`
	Domain *history.Domain `json:"domain"`
}

func dateOrLatest(date string) string {
	if date == "" {
		return store.LatestKey
	}
	return date
}

// Dates lists available dates, most recent first.
func (s *Service) Dates(ctx context.Context, limit int) ([]string, error) {
	dates, err := s.src.FetchAvailableDates(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing dates: %w", err)
	}
	return dates, nil
}

// Snapshots returns the scored stocks of date ("" for latest).
func (s *Service) Snapshots(ctx context.Context, date string) (SnapshotsView, error) {
	date = dateOrLatest(date)
	snaps, err := s.src.FetchSnapshots(ctx, date)
	if err != nil {
		return SnapshotsView{}, err
	}
	views := make([]StockView, len(snaps))
	for i, snap := range snaps {
		views[i] = NewStockView(snap)
	}
	return SnapshotsView{Date: date, Stocks: views}, nil
}

// Stock returns the detail of ticker on date ("" for latest).
func (s *Service) Stock(ctx context.Context, date, ticker string) (StockDetail, error) {
	date = dateOrLatest(date)
	snaps, err := s.src.FetchSnapshots(ctx, date)
	if err != nil {
		return StockDetail{}, err
	}
	snap, ok := domain.Find(snaps, ticker)
	if !ok {
		return StockDetail{}, fmt.Errorf("%w: %s on %s", ErrStockNotFound, ticker, date)
	}
	return StockDetail{
		StockView:   NewStockView(snap),
		Date:        date,
		CountryCode: FormatCountry(snap.Country),
		Sections:    Sections(snap),
	}, nil
}

// Heatmap renders the heatmap of req.Date.
func (s *Service) Heatmap(ctx context.Context, req HeatmapRequest) (HeatmapView, error) {
	opts, err := s.heatmapOptions(ctx, req)
	if err != nil {
		return HeatmapView{}, err
	}
	date := dateOrLatest(req.Date)
	snaps, err := s.src.FetchSnapshots(ctx, date)
	if err != nil {
		return HeatmapView{}, err
	}
	return HeatmapView{Date: date, Heatmap: heatmap.Render(snaps, opts)}, nil
}

func (s *Service) heatmapOptions(ctx context.Context, req HeatmapRequest) (heatmap.Options, error) {
	opts := s.opts
	if req.GroupBy == "" || req.SizeBy == "" {
		p, err := s.prefs.LoadPreferences(ctx)
		if err != nil {
			s.log.Warn("loading preferences", "error", err)
			p = store.DefaultPreferences()
		}
		if req.GroupBy == "" {
			req.GroupBy = p.GroupBy
		}
		if req.SizeBy == "" {
			req.SizeBy = p.SizeBy
		}
	}
	g, err := heatmap.ParseGroupBy(req.GroupBy)
	if err != nil {
		return opts, err
	}
	m, err := heatmap.ParseWeightMetric(req.SizeBy)
	if err != nil {
		return opts, err
	}
	opts.GroupBy, opts.Metric = g, m
	if req.Width > 0 {
		opts.Width = req.Width
	}
	if req.Height > 0 {
		opts.Height = req.Height
	}
	return opts, nil
}

// History reconstructs ticker's series. maxPoints <= 0 uses the default.
func (s *Service) History(ctx context.Context, ticker string, maxPoints int) (HistoryView, error) {
	points, err := s.hist.FetchHistory(ctx, ticker, maxPoints)
	if err != nil {
		return HistoryView{}, err
	}
	return NewHistoryView(ticker, s.hist.Policy(), points), nil
}

// NewHistoryView attaches the price domain to a series.
func NewHistoryView(ticker string, policy history.Policy, points []history.Point) HistoryView {
	if points == nil {
		points = []history.Point{}
	}
	v := HistoryView{Ticker: ticker, Policy: policy.String(), Points: points}
	if d, ok := history.PriceDomain(points); ok {
		v.Domain = &d
	}
	return v
}

// Summary returns the narrative summary of date, or nil.
func (s *Service) Summary(ctx context.Context, date string) (json.RawMessage, error) {
	if s.summary == nil {
		return nil, nil
	}
	return s.summary.FetchSummary(ctx, dateOrLatest(date))
}

// Preferences returns the saved view preferences.
func (s *Service) Preferences(ctx context.Context) (store.Preferences, error) {
	return s.prefs.LoadPreferences(ctx)
}

// SavePreferences validates and stores p. Empty fields keep their saved
// value.
func (s *Service) SavePreferences(ctx context.Context, p store.Preferences) (store.Preferences, error) {
	cur, err := s.prefs.LoadPreferences(ctx)
	if err != nil {
		return store.Preferences{}, err
	}
	if p.GroupBy != "" {
		if _, err := heatmap.ParseGroupBy(p.GroupBy); err != nil {
			return store.Preferences{}, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
		}
		cur.GroupBy = p.GroupBy
	}
	if p.SizeBy != "" {
		if _, err := heatmap.ParseWeightMetric(p.SizeBy); err != nil {
			return store.Preferences{}, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
		}
		cur.SizeBy = p.SizeBy
	}
	if p.View != "" {
		if !validViews[p.View] {
			return store.Preferences{}, fmt.Errorf("%w: unknown view %q", ErrInvalidPreferences, p.View)
		}
		cur.View = p.View
	}
	if err := s.prefs.SavePreferences(ctx, cur); err != nil {
		return store.Preferences{}, err
	}
	s.log.Info("preferences saved", "groupBy", cur.GroupBy, "sizeBy", cur.SizeBy, "view", cur.View)
	return cur, nil
}

// Watchlist returns the watchlist, or nil when none is configured.
func (s *Service) Watchlist() *Watchlist {
	return s.watch
}
