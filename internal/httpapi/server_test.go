package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"screener/internal/dashboard"
	"screener/internal/domain"
	"screener/internal/heatmap"
	"screener/internal/store"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeSnapshotFile(t *testing.T, dir, date string, rows []domain.RawSnapshot) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, date+".csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := store.WriteSnapshots(f, rows); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	day1 := []domain.RawSnapshot{
		{Ticker: "AAPL", Company: "Apple Inc.", Sector: "Technology", Country: "USA",
			InvestorScore: "85", Price: "150", Change: "0.05", MarketCap: "3000000000000", Volume: "50000000", PEG: "0.5"},
		{Ticker: "XOM", Company: "Exxon Mobil", Sector: "Energy", Country: "USA",
			InvestorScore: "40", Price: "100", Change: "-0.02", MarketCap: "400000000000", Volume: "20000000"},
	}
	day0 := []domain.RawSnapshot{
		{Ticker: "AAPL", Sector: "Technology", Price: "148", InvestorScore: "84", MarketCap: "2900000000000"},
	}
	writeSnapshotFile(t, dir, "2026-01-14", day1)
	writeSnapshotFile(t, dir, store.LatestKey, day1)
	writeSnapshotFile(t, dir, "2026-01-13", day0)
	if err := os.WriteFile(filepath.Join(dir, "dates.csv"), []byte("2026-01-13\n2026-01-14\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "summary"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary", "latest.json"), []byte(`{"headline":"up day"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	src := store.NewFileSource(dir, testLog)
	svc := dashboard.NewService(dashboard.Deps{
		Source:  src,
		Summary: src,
		Heatmap: heatmap.DefaultOptions(),
	}, testLog)
	ts := httptest.NewServer(NewServer(svc, testLog).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, url, err)
		}
	}
	return resp
}

func TestDates(t *testing.T) {
	ts := newTestServer(t)
	var got DatesResponse
	resp := doJSON(t, "GET", ts.URL+"/api/dates", "", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if diff := cmp.Diff([]string{"2026-01-14", "2026-01-13"}, got.Dates); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}

	doJSON(t, "GET", ts.URL+"/api/dates?limit=1", "", &got)
	if len(got.Dates) != 1 {
		t.Errorf("limited dates = %v", got.Dates)
	}

	var e ErrorResponse
	if resp := doJSON(t, "GET", ts.URL+"/api/dates?limit=x", "", &e); resp.StatusCode != http.StatusBadRequest || e.Error == "" {
		t.Errorf("bad limit = %d %q", resp.StatusCode, e.Error)
	}
}

func TestSnapshots(t *testing.T) {
	ts := newTestServer(t)
	var got SnapshotsResponse
	resp := doJSON(t, "GET", ts.URL+"/api/snapshots?date=2026-01-14", "", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(got.Stocks) != 2 || got.Stocks[0].Ticker != "AAPL" {
		t.Fatalf("stocks = %+v", got.Stocks)
	}
	if got.Stocks[0].BreakdownTotal != 60 || got.Stocks[0].Tier != domain.TierHigh {
		t.Errorf("AAPL total = %v tier = %s", got.Stocks[0].BreakdownTotal, got.Stocks[0].Tier)
	}

	var e ErrorResponse
	if resp := doJSON(t, "GET", ts.URL+"/api/snapshots?date=2020-01-01", "", &e); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing date status = %d", resp.StatusCode)
	}
	if resp := doJSON(t, "GET", ts.URL+"/api/snapshots?date=yesterday", "", &e); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid date status = %d", resp.StatusCode)
	}
}

func TestStock(t *testing.T) {
	ts := newTestServer(t)
	var got StockResponse
	resp := doJSON(t, "GET", ts.URL+"/api/stocks/aapl", "", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.Ticker != "AAPL" || got.Date != store.LatestKey || got.CountryCode != "US" || len(got.Sections) != 5 {
		t.Errorf("stock = %+v", got)
	}

	var e ErrorResponse
	if resp := doJSON(t, "GET", ts.URL+"/api/stocks/NOPE", "", &e); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown ticker status = %d", resp.StatusCode)
	}
}

func TestHeatmap(t *testing.T) {
	ts := newTestServer(t)
	var got HeatmapResponse
	resp := doJSON(t, "GET", ts.URL+"/api/heatmap?width=600&height=400", "", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.GroupBy != "sector" || got.SizeBy != "marketCap" || len(got.Groups) != 2 {
		t.Fatalf("heatmap = %s/%s %d groups", got.GroupBy, got.SizeBy, len(got.Groups))
	}
	if g := got.Groups[0]; g.Name != "Technology" || g.Width != 600 || len(g.Tiles) != 1 {
		t.Errorf("first group = %+v", g)
	}
	if got.Stats.Count != 2 || got.Stats.Advancers != 1 || got.Stats.Decliners != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}

	doJSON(t, "GET", ts.URL+"/api/heatmap?groupBy=none&sizeBy=monoSize", "", &got)
	if len(got.Groups) != 1 || got.Groups[0].ShowLabel || len(got.Groups[0].Tiles) != 2 {
		t.Errorf("ungrouped = %+v", got.Groups)
	}

	var e ErrorResponse
	for _, q := range []string{"sizeBy=price", "groupBy=industry", "width=-1"} {
		if resp := doJSON(t, "GET", ts.URL+"/api/heatmap?"+q, "", &e); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t)
	var got HistoryResponse
	resp := doJSON(t, "GET", ts.URL+"/api/history/AAPL?max=10", "", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(got.Points) != 2 || got.Points[0].Date != "2026-01-13" || got.Points[1].Price != 150 {
		t.Errorf("points = %+v", got.Points)
	}
	if got.Domain == nil || got.Domain.Min != 147 || got.Domain.Max != 151 {
		t.Errorf("domain = %+v", got.Domain)
	}
}

func TestSummary(t *testing.T) {
	ts := newTestServer(t)
	var got map[string]string
	doJSON(t, "GET", ts.URL+"/api/summary", "", &got)
	if got["headline"] != "up day" {
		t.Errorf("summary = %v", got)
	}

	resp, err := http.Get(ts.URL + "/api/summary?date=2026-01-13")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "null" {
		t.Errorf("missing summary body = %q, want null", body)
	}
}

func TestPreferences(t *testing.T) {
	ts := newTestServer(t)
	var got store.Preferences
	doJSON(t, "GET", ts.URL+"/api/preferences", "", &got)
	if got != store.DefaultPreferences() {
		t.Errorf("initial = %+v", got)
	}

	resp := doJSON(t, "PUT", ts.URL+"/api/preferences", `{"sizeBy":"volume","view":"heatmap"}`, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	want := store.Preferences{GroupBy: "sector", SizeBy: "volume", View: "heatmap"}
	if got != want {
		t.Errorf("saved = %+v, want %+v", got, want)
	}

	var h HeatmapResponse
	doJSON(t, "GET", ts.URL+"/api/heatmap", "", &h)
	if h.SizeBy != "volume" {
		t.Errorf("heatmap sizeBy = %s, want saved volume", h.SizeBy)
	}

	var e ErrorResponse
	if resp := doJSON(t, "PUT", ts.URL+"/api/preferences", `{"view":"chart"}`, &e); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid view status = %d", resp.StatusCode)
	}
	if resp := doJSON(t, "PUT", ts.URL+"/api/preferences", `{`, &e); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", resp.StatusCode)
	}
}

func TestWatchlistUnconfigured(t *testing.T) {
	ts := newTestServer(t)
	var got WatchlistResponse
	doJSON(t, "GET", ts.URL+"/api/watchlist", "", &got)
	if got.Symbols == nil || len(got.Symbols) != 0 {
		t.Errorf("symbols = %v, want empty", got.Symbols)
	}
	var e ErrorResponse
	if resp := doJSON(t, "PUT", ts.URL+"/api/watchlist/AAPL", "", &e); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("PUT status = %d, want 503", resp.StatusCode)
	}
	if resp := doJSON(t, "DELETE", ts.URL+"/api/watchlist/AAPL", "", &e); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("DELETE status = %d, want 503", resp.StatusCode)
	}
}

func TestMiddleware(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, "GET", ts.URL+"/healthz", "", nil)
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing generated request ID")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	req, _ := http.NewRequest("GET", ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if got := resp2.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want abc-123", got)
	}

	opt, _ := http.NewRequest("OPTIONS", ts.URL+"/api/dates", nil)
	resp3, err := http.DefaultClient.Do(opt)
	if err != nil {
		t.Fatal(err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d", resp3.StatusCode)
	}
}
