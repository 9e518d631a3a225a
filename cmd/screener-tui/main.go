package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"screener/internal/app"
	"screener/internal/config"
	"screener/internal/dashboard"
	"screener/internal/heatmap"
	"screener/internal/history"
	"screener/internal/store"
	"screener/internal/util"
)

// Messages.
type datesLoadedMsg struct {
	dates []string
	err   error
}

type heatmapLoadedMsg struct {
	date string
	view dashboard.HeatmapView
	err  error
}

type historyLoadedMsg struct {
	ticker string
	view   dashboard.HistoryView
	err    error
}

type prefsLoadedMsg struct {
	prefs store.Preferences
	err   error
}

type prefsSavedMsg struct{ err error }

type watchlistLoadedMsg struct {
	symbols []string
	err     error
}

type watchlistToggleMsg struct {
	symbol  string
	watched bool
	err     error
}

// Model.
type model struct {
	svc     *dashboard.Service
	session *history.Session
	ctx     context.Context
	logger  *slog.Logger

	dates   []string // most recent first
	dateIdx int
	groupBy heatmap.GroupBy
	sizeBy  heatmap.WeightMetric
	view    dashboard.HeatmapView
	loaded  bool
	loading bool
	status  string

	// Selection.
	tickers        []string
	selectedTicker string
	hist           *dashboard.HistoryView
	histLoading    bool

	watched map[string]bool

	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(ctx context.Context, svc *dashboard.Service, logger *slog.Logger) model {
	return model{
		svc:     svc,
		session: history.NewSession(svc.Reconstructor()),
		ctx:     ctx,
		logger:  logger,
		watched: make(map[string]bool),
	}
}

func (m model) Init() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	cmds := []tea.Cmd{
		func() tea.Msg {
			p, err := svc.Preferences(ctx)
			return prefsLoadedMsg{prefs: p, err: err}
		},
		func() tea.Msg {
			dates, err := svc.Dates(ctx, 0)
			return datesLoadedMsg{dates: dates, err: err}
		},
	}
	if wl := svc.Watchlist(); wl != nil {
		cmds = append(cmds, func() tea.Msg {
			syms, err := wl.Symbols()
			return watchlistLoadedMsg{symbols: syms, err: err}
		})
	}
	return tea.Sequence(cmds[0], tea.Batch(cmds[1:]...))
}

// currentDate returns the selected date, or latest before dates load.
func (m *model) currentDate() string {
	if m.dateIdx < len(m.dates) {
		return m.dates[m.dateIdx]
	}
	return store.LatestKey
}

// canvasSize returns the heatmap canvas in layout pixels.
func (m *model) canvasSize() (float64, float64) {
	cols := max(m.width, 20)
	rows := max(m.height-4, 4)
	return float64(cols * cellWidth), float64(rows * cellHeight)
}

func (m *model) loadHeatmap() tea.Cmd {
	m.loading = true
	svc, ctx := m.svc, m.ctx
	w, h := m.canvasSize()
	req := dashboard.HeatmapRequest{
		Date:    m.currentDate(),
		GroupBy: m.groupBy.String(),
		SizeBy:  m.sizeBy.String(),
		Width:   w,
		Height:  h,
	}
	return func() tea.Msg {
		v, err := svc.Heatmap(ctx, req)
		return heatmapLoadedMsg{date: req.Date, view: v, err: err}
	}
}

// loadHistory starts a history fetch for the selected ticker. A newer
// selection supersedes it.
func (m *model) loadHistory() tea.Cmd {
	if m.selectedTicker == "" {
		return nil
	}
	m.histLoading = true
	m.hist = nil
	sess, ctx, ticker := m.session, m.ctx, m.selectedTicker
	policy := m.svc.Reconstructor().Policy()
	return func() tea.Msg {
		points, err := sess.Fetch(ctx, ticker, 0)
		return historyLoadedMsg{ticker: ticker, view: dashboard.NewHistoryView(ticker, policy, points), err: err}
	}
}

func (m *model) savePrefs() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	p := store.Preferences{GroupBy: m.groupBy.String(), SizeBy: m.sizeBy.String(), View: "heatmap"}
	return func() tea.Msg {
		_, err := svc.SavePreferences(ctx, p)
		return prefsSavedMsg{err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.session.Cancel()
			return m, tea.Quit
		case "g":
			m.groupBy = m.groupBy.Toggle()
			return m, tea.Batch(m.loadHeatmap(), m.savePrefs())
		case "s":
			m.sizeBy = m.sizeBy.Next()
			return m, tea.Batch(m.loadHeatmap(), m.savePrefs())
		case "left":
			if m.dateIdx+1 < len(m.dates) {
				m.dateIdx++
				return m, m.loadHeatmap()
			}
			return m, nil
		case "right":
			if m.dateIdx > 0 {
				m.dateIdx--
				return m, m.loadHeatmap()
			}
			return m, nil
		case "tab", "shift+tab":
			if len(m.tickers) == 0 {
				return m, nil
			}
			step := 1
			if msg.String() == "shift+tab" {
				step = -1
			}
			m.selectedTicker = m.tickers[(indexOf(m.tickers, m.selectedTicker)+step+len(m.tickers))%len(m.tickers)]
			m.refreshContent()
			return m, m.loadHistory()
		case " ":
			wl := m.svc.Watchlist()
			if wl == nil || m.selectedTicker == "" {
				return m, nil
			}
			sym := m.selectedTicker
			return m, func() tea.Msg {
				watched, err := wl.Toggle(sym)
				return watchlistToggleMsg{symbol: sym, watched: watched, err: err}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := max(m.height-3, 1) // header + 2 footer lines
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		if m.loaded {
			return m, m.loadHeatmap()
		}
		return m, nil

	case prefsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading preferences", "error", msg.err)
			msg.prefs = store.DefaultPreferences()
		}
		if g, err := heatmap.ParseGroupBy(msg.prefs.GroupBy); err == nil {
			m.groupBy = g
		}
		if s, err := heatmap.ParseWeightMetric(msg.prefs.SizeBy); err == nil {
			m.sizeBy = s
		}
		return m, nil

	case datesLoadedMsg:
		if msg.err != nil {
			m.logger.Error("loading dates", "error", msg.err)
			m.status = "failed to load dates: " + msg.err.Error()
		}
		m.dates = msg.dates
		m.dateIdx = 0
		return m, m.loadHeatmap()

	case heatmapLoadedMsg:
		if msg.date != m.currentDate() {
			return m, nil // stale
		}
		m.loading = false
		if msg.err != nil {
			m.logger.Error("loading heatmap", "date", msg.date, "error", msg.err)
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = ""
		m.loaded = true
		m.view = msg.view
		m.tickers = tickers(msg.view.Heatmap)
		if indexOf(m.tickers, m.selectedTicker) < 0 {
			m.selectedTicker = ""
			if len(m.tickers) > 0 {
				m.selectedTicker = m.tickers[0]
			}
			m.refreshContent()
			return m, m.loadHistory()
		}
		m.refreshContent()
		return m, nil

	case historyLoadedMsg:
		if errors.Is(msg.err, history.ErrSuperseded) || msg.ticker != m.selectedTicker {
			return m, nil
		}
		m.histLoading = false
		if msg.err != nil {
			m.logger.Warn("loading history", "ticker", msg.ticker, "error", msg.err)
			return m, nil
		}
		m.hist = &msg.view
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.logger.Warn("saving preferences", "error", msg.err)
		}
		return m, nil

	case watchlistLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading watchlist", "error", msg.err)
			return m, nil
		}
		for _, s := range msg.symbols {
			m.watched[s] = true
		}
		m.logger.Info("watchlist loaded", "symbols", len(msg.symbols))
		m.refreshContent()
		return m, nil

	case watchlistToggleMsg:
		if msg.err != nil {
			m.logger.Warn("watchlist toggle failed", "symbol", msg.symbol, "error", msg.err)
			return m, nil
		}
		if msg.watched {
			m.watched[msg.symbol] = true
		} else {
			delete(m.watched, msg.symbol)
		}
		m.logger.Info("watchlist toggled", "symbol", msg.symbol, "watched", msg.watched)
		m.refreshContent()
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *model) refreshContent() {
	if !m.ready || !m.loaded {
		return
	}
	m.viewport.SetContent(renderHeatmap(m.view.Heatmap, m.selectedTicker, m.watched))
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}
	return m.header() + "\n" + m.viewport.View() + "\n" + m.footer()
}

func (m *model) header() string {
	st := m.view.Stats
	text := fmt.Sprintf(" %s | group: %s | size: %s | %d stocks  %d up  %d down",
		m.currentDate(), m.groupBy, m.sizeBy, st.Count, st.Advancers, st.Decliners)
	if m.loading {
		text += " | loading..."
	}
	line := headerStyle.Render(padRight(text, m.width))
	if st.Count > 0 {
		line += " median " + changeText(st.Median)
	}
	return line
}

func (m *model) footer() string {
	var sel string
	switch {
	case m.status != "":
		sel = lossStyle.Render(m.status)
	case m.selectedTicker == "":
		sel = dimStyle.Render("no selection")
	default:
		sel = selectedStyle.Render(m.selectedTicker)
		if m.watched[m.selectedTicker] {
			sel = watchStyle.Render("*" + m.selectedTicker)
		}
		switch {
		case m.histLoading:
			sel += dimStyle.Render("  loading history...")
		case m.hist != nil && m.hist.Domain != nil:
			last := m.hist.Points[len(m.hist.Points)-1]
			sel += "  " + sparkline(m.hist.Points, *m.hist.Domain) +
				fmt.Sprintf("  %d pts  last %s  score %.0f", len(m.hist.Points), last.Date, last.Score) +
				dimStyle.Render(fmt.Sprintf("  [%s]", m.hist.Policy))
		case m.hist != nil:
			sel += dimStyle.Render("  no history")
		}
	}
	help := dimStyle.Render(" g group  s size  ←/→ date  tab select  space watch  q quit")
	return sel + "\n" + help
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// The terminal belongs to the UI; log to file only.
	logFileName := fmt.Sprintf("/tmp/screener-tui-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()

	logger := util.NewLoggerTo(logFile, cfg.Logging.Level, "text")
	slog.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("initializing dashboard: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("starting screener-tui", "storage", cfg.Storage.Kind, "logFile", logFileName)
	p := tea.NewProgram(
		initialModel(ctx, a.Service, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
