// Package screener is a Go client for the screener-server REST API.
package screener

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"screener/internal/dashboard"
	"screener/internal/store"
)

// Sentinel errors matched by APIError.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrBadRequest  = errors.New("bad request")
	ErrUnavailable = errors.New("unavailable")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("screener API: %d %s", e.StatusCode, e.Message)
}

// Is maps the status code onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable
	}
	return false
}

// Client provides a Go SDK for the screener-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new screener API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// HeatmapQuery selects a heatmap. Zero fields use the server's defaults.
type HeatmapQuery struct {
	Date    string
	GroupBy string
	SizeBy  string
	Width   float64
	Height  float64
}

// Dates lists available dates, most recent first. limit <= 0 lists all.
func (c *Client) Dates(ctx context.Context, limit int) ([]string, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Dates []string `json:"dates"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/dates", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dates, nil
}

// Snapshots returns the scored stocks of date ("" for latest).
func (c *Client) Snapshots(ctx context.Context, date string) (*dashboard.SnapshotsView, error) {
	var v dashboard.SnapshotsView
	if err := c.do(ctx, http.MethodGet, "/api/snapshots", dateQuery(date), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Stock returns one stock's detail on date ("" for latest).
func (c *Client) Stock(ctx context.Context, date, ticker string) (*dashboard.StockDetail, error) {
	var v dashboard.StockDetail
	path := "/api/stocks/" + url.PathEscape(ticker)
	if err := c.do(ctx, http.MethodGet, path, dateQuery(date), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Heatmap returns a rendered heatmap.
func (c *Client) Heatmap(ctx context.Context, hq HeatmapQuery) (*dashboard.HeatmapView, error) {
	q := dateQuery(hq.Date)
	if hq.GroupBy != "" {
		q.Set("groupBy", hq.GroupBy)
	}
	if hq.SizeBy != "" {
		q.Set("sizeBy", hq.SizeBy)
	}
	if hq.Width > 0 {
		q.Set("width", strconv.FormatFloat(hq.Width, 'f', -1, 64))
	}
	if hq.Height > 0 {
		q.Set("height", strconv.FormatFloat(hq.Height, 'f', -1, 64))
	}
	var v dashboard.HeatmapView
	if err := c.do(ctx, http.MethodGet, "/api/heatmap", q, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// History returns ticker's reconstructed series. maxPoints <= 0 uses the
// server default.
func (c *Client) History(ctx context.Context, ticker string, maxPoints int) (*dashboard.HistoryView, error) {
	q := url.Values{}
	if maxPoints > 0 {
		q.Set("max", strconv.Itoa(maxPoints))
	}
	var v dashboard.HistoryView
	if err := c.do(ctx, http.MethodGet, "/api/history/"+url.PathEscape(ticker), q, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Summary returns the raw summary document of date, or nil when there is
// none.
func (c *Client) Summary(ctx context.Context, date string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/summary", dateQuery(date), nil, &raw); err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

// Preferences returns the saved view preferences.
func (c *Client) Preferences(ctx context.Context) (store.Preferences, error) {
	var p store.Preferences
	err := c.do(ctx, http.MethodGet, "/api/preferences", nil, nil, &p)
	return p, err
}

// SavePreferences stores p and returns the merged result.
func (c *Client) SavePreferences(ctx context.Context, p store.Preferences) (store.Preferences, error) {
	var saved store.Preferences
	err := c.do(ctx, http.MethodPut, "/api/preferences", nil, p, &saved)
	return saved, err
}

// Watchlist returns the watched symbols.
func (c *Client) Watchlist(ctx context.Context) ([]string, error) {
	var resp struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}

// Watch adds symbol to the watchlist.
func (c *Client) Watch(ctx context.Context, symbol string) error {
	return c.do(ctx, http.MethodPut, "/api/watchlist/"+url.PathEscape(symbol), nil, nil, nil)
}

// Unwatch removes symbol from the watchlist.
func (c *Client) Unwatch(ctx context.Context, symbol string) error {
	return c.do(ctx, http.MethodDelete, "/api/watchlist/"+url.PathEscape(symbol), nil, nil, nil)
}

func dateQuery(date string) url.Values {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
