package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	tea "github.com/charmbracelet/bubbletea"

	"screener/internal/dashboard"
	"screener/internal/domain"
	"screener/internal/heatmap"
	"screener/internal/history"
	"screener/internal/store"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type memSource map[string][]domain.StockSnapshot

func (m memSource) FetchSnapshots(_ context.Context, date string) ([]domain.StockSnapshot, error) {
	if date == store.LatestKey {
		date = "2026-01-14"
	}
	snaps, ok := m[date]
	if !ok {
		return nil, store.ErrNotFound
	}
	return snaps, nil
}

func (m memSource) FetchAvailableDates(context.Context, int) ([]string, error) {
	return []string{"2026-01-14", "2026-01-13"}, nil
}

func testSnaps(price float64) []domain.StockSnapshot {
	return []domain.StockSnapshot{
		{Ticker: "AAPL", Sector: "Technology", MarketCap: domain.Float(3e12), Volume: domain.Float(5e7),
			Price: domain.Float(price), ChangeFraction: domain.Float(0.02), InvestorScore: domain.Float(80)},
		{Ticker: "MSFT", Sector: "Technology", MarketCap: domain.Float(2.5e12), Volume: domain.Float(3e7),
			Price: domain.Float(400), ChangeFraction: domain.Float(-0.01), InvestorScore: domain.Float(75)},
		{Ticker: "XOM", Sector: "Energy", MarketCap: domain.Float(4e11), Volume: domain.Float(2e7),
			Price: domain.Float(100), InvestorScore: domain.Float(60)},
	}
}

// memWatchlist is a single in-memory Alpaca watchlist.
type memWatchlist struct {
	symbols []string
}

func (w *memWatchlist) list() alpaca.Watchlist {
	l := alpaca.Watchlist{ID: "w1", Name: "screener"}
	for _, s := range w.symbols {
		l.Assets = append(l.Assets, alpaca.Asset{Symbol: s})
	}
	return l
}

func (w *memWatchlist) GetWatchlists() ([]alpaca.Watchlist, error) {
	return []alpaca.Watchlist{{ID: "w1", Name: "screener"}}, nil
}

func (w *memWatchlist) GetWatchlist(string) (*alpaca.Watchlist, error) {
	l := w.list()
	return &l, nil
}

func (w *memWatchlist) CreateWatchlist(req alpaca.CreateWatchlistRequest) (*alpaca.Watchlist, error) {
	return &alpaca.Watchlist{ID: "w1", Name: req.Name}, nil
}

func (w *memWatchlist) AddSymbolToWatchlist(_ string, req alpaca.AddSymbolToWatchlistRequest) (*alpaca.Watchlist, error) {
	w.symbols = append(w.symbols, req.Symbol)
	l := w.list()
	return &l, nil
}

func (w *memWatchlist) RemoveSymbolFromWatchlist(_ string, req alpaca.RemoveSymbolFromWatchlistRequest) error {
	kept := w.symbols[:0]
	for _, s := range w.symbols {
		if s != req.Symbol {
			kept = append(kept, s)
		}
	}
	w.symbols = kept
	return nil
}

func newTestModel() model {
	return newTestModelWith(nil)
}

func newTestModelWith(wl *dashboard.Watchlist) model {
	src := memSource{"2026-01-14": testSnaps(150), "2026-01-13": testSnaps(140)}
	svc := dashboard.NewService(dashboard.Deps{Source: src, Watchlist: wl, Heatmap: heatmap.DefaultOptions()}, testLog)
	return initialModel(context.Background(), svc, testLog)
}

// drive feeds msg to m and runs the resulting commands to completion.
func drive(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if batch, ok := next.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c != nil {
					queue = append(queue, c())
				}
			}
			continue
		}
		tm, cmd := m.Update(next)
		m = tm.(model)
		if cmd != nil {
			queue = append(queue, cmd())
		}
	}
	return m
}

func TestRenderGroup(t *testing.T) {
	v := heatmap.Render(testSnaps(150), heatmap.Options{Width: 40 * cellWidth, Height: 20 * cellHeight, MinGroupHeight: 2 * cellHeight})
	out := renderGroup(v.Groups[0], "AAPL", map[string]bool{"MSFT": true})
	lines := strings.Split(out, "\n")
	if lines[0] != "Technology  $5.50T" {
		t.Errorf("label line = %q", lines[0])
	}
	rows := len(lines) - 1
	if want := toCells(v.Groups[0].Height, cellHeight); rows != want {
		t.Errorf("rows = %d, want %d", rows, want)
	}
	for _, want := range []string{"AAPL", "*MSFT", "+2.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHeatmapEmpty(t *testing.T) {
	if got := renderHeatmap(heatmap.Heatmap{}, "", nil); !strings.Contains(got, "no stocks") {
		t.Errorf("empty render = %q", got)
	}
}

func TestSparkline(t *testing.T) {
	points := []history.Point{{Price: 0}, {Price: 4}, {Price: 8}}
	if got := sparkline(points, history.Domain{Min: 0, Max: 8}); got != "▁▄█" {
		t.Errorf("sparkline = %q, want ▁▄█", got)
	}
	if got := sparkline(nil, history.Domain{Min: 0, Max: 1}); got != "" {
		t.Errorf("empty sparkline = %q", got)
	}
}

func TestModelFlow(t *testing.T) {
	remote := &memWatchlist{}
	m := newTestModelWith(dashboard.NewWatchlist(remote, "screener", testLog))
	m = drive(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = drive(t, m, prefsLoadedMsg{prefs: store.DefaultPreferences()})
	m = drive(t, m, datesLoadedMsg{dates: []string{"2026-01-14", "2026-01-13"}})

	if !m.loaded || len(m.tickers) != 3 || m.selectedTicker != "AAPL" {
		t.Fatalf("loaded = %v tickers = %v selected = %q", m.loaded, m.tickers, m.selectedTicker)
	}
	if m.hist == nil || len(m.hist.Points) != 2 || m.histLoading {
		t.Fatalf("history = %+v loading = %v", m.hist, m.histLoading)
	}
	if got := m.hist.Points[0].Price; got != 140 {
		t.Errorf("oldest history price = %v, want 140", got)
	}
	if !strings.Contains(m.View(), "2026-01-14") {
		t.Error("header does not show the date")
	}

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selectedTicker != "MSFT" || m.hist == nil || m.hist.Ticker != "MSFT" {
		t.Errorf("after tab: selected %q history %+v", m.selectedTicker, m.hist)
	}

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.currentDate() != "2026-01-13" {
		t.Errorf("after left: date = %s", m.currentDate())
	}

	m = drive(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.watched["MSFT"] || len(remote.symbols) != 1 || remote.symbols[0] != "MSFT" {
		t.Errorf("after space: watched %v remote %v", m.watched, remote.symbols)
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.watched["MSFT"] || len(remote.symbols) != 0 {
		t.Errorf("after second space: watched %v remote %v", m.watched, remote.symbols)
	}

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	if m.groupBy != heatmap.GroupByNone || len(m.view.Groups) != 1 {
		t.Errorf("after g: groupBy %v groups %d", m.groupBy, len(m.view.Groups))
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.sizeBy != heatmap.WeightVolume {
		t.Errorf("after s: sizeBy %v", m.sizeBy)
	}
	p, err := m.svc.Preferences(context.Background())
	if err != nil || p.GroupBy != "none" || p.SizeBy != "volume" || p.View != "heatmap" {
		t.Errorf("saved preferences = %+v, %v", p, err)
	}
}

func TestStaleHistoryIgnored(t *testing.T) {
	m := newTestModel()
	m.selectedTicker = "MSFT"
	m.histLoading = true
	tm, _ := m.Update(historyLoadedMsg{ticker: "AAPL", err: history.ErrSuperseded})
	m = tm.(model)
	if !m.histLoading || m.hist != nil {
		t.Errorf("superseded result applied: loading %v hist %+v", m.histLoading, m.hist)
	}
}
