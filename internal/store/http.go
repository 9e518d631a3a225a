package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"screener/internal/domain"
	"screener/internal/util"
)

// Compile-time interface checks.
var _ SnapshotSource = (*HTTPSource)(nil)
var _ SummarySource = (*HTTPSource)(nil)

const (
	httpAttempts  = 3
	httpBaseDelay = 200 * time.Millisecond
)

// HTTPSource reads the FileSource layout from a static web root.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewHTTPSource creates an HTTPSource for baseURL. perMinute <= 0 disables
// rate limiting.
func NewHTTPSource(baseURL string, perMinute int, log *slog.Logger) *HTTPSource {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if log == nil {
		log = slog.Default()
	}
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: util.NewRateLimiter(perMinute, 10),
		log:     log,
	}
}

// FetchSnapshots downloads and coerces the snapshot file of date.
func (s *HTTPSource) FetchSnapshots(ctx context.Context, date string) ([]domain.StockSnapshot, error) {
	if err := CheckDate(date); err != nil {
		return nil, err
	}
	body, err := s.get(ctx, snapshotFile(date))
	if err != nil {
		return nil, err
	}
	snaps, err := ParseSnapshots(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", snapshotFile(date), err)
	}
	return snaps, nil
}

// FetchAvailableDates downloads dates.csv.
func (s *HTTPSource) FetchAvailableDates(ctx context.Context, limit int) ([]string, error) {
	body, err := s.get(ctx, datesFile)
	if err != nil {
		return nil, err
	}
	return ParseDates(bytes.NewReader(body), limit)
}

// FetchSummary downloads the summary of date. Any failure yields nil.
func (s *HTTPSource) FetchSummary(ctx context.Context, date string) (json.RawMessage, error) {
	if err := CheckDate(date); err != nil {
		return nil, err
	}
	body, err := s.get(ctx, summaryFile(date))
	if err != nil {
		s.log.Debug("summary unavailable", "date", date, "error", err)
		return nil, nil
	}
	if !json.Valid(body) {
		s.log.Warn("summary is not valid JSON", "date", date)
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// get fetches a file relative to the base URL, retrying server errors.
func (s *HTTPSource) get(ctx context.Context, name string) ([]byte, error) {
	url := s.baseURL + name
	var body []byte
	err := util.Retry(ctx, httpAttempts, httpBaseDelay, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return util.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return util.Permanent(ctx.Err())
			}
			return fmt.Errorf("GET %s: %w", url, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return util.Permanent(fmt.Errorf("%w: %s", ErrNotFound, name))
		case resp.StatusCode >= 500:
			return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return util.Permanent(fmt.Errorf("GET %s: status %d", url, resp.StatusCode))
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading %s: %w", url, err)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
