package store

import (
	"context"
	"log/slog"
	"sync"

	"screener/internal/domain"
)

// Compile-time interface checks.
var _ SnapshotSource = (*CachedSource)(nil)

// CachedSource memoizes per-date collections of an underlying source. Dated
// files never change, so entries live until Invalidate. LatestKey is always
// read through. The date list is cached until Refresh.
type CachedSource struct {
	src SnapshotSource
	log *slog.Logger

	cache sync.Map // date → []domain.StockSnapshot

	datesMu sync.RWMutex
	dates   []string // all dates, most recent first; nil until loaded
}

// NewCachedSource wraps src.
func NewCachedSource(src SnapshotSource, log *slog.Logger) *CachedSource {
	if log == nil {
		log = slog.Default()
	}
	return &CachedSource{src: src, log: log}
}

// FetchSnapshots returns the cached collection of date, loading it on a miss.
// Callers must not modify the returned slice.
func (c *CachedSource) FetchSnapshots(ctx context.Context, date string) ([]domain.StockSnapshot, error) {
	if date == LatestKey {
		return c.src.FetchSnapshots(ctx, date)
	}
	if v, ok := c.cache.Load(date); ok {
		return v.([]domain.StockSnapshot), nil
	}
	snaps, err := c.src.FetchSnapshots(ctx, date)
	if err != nil {
		return nil, err
	}
	c.cache.Store(date, snaps)
	return snaps, nil
}

// FetchAvailableDates serves the cached date list, loading it once.
func (c *CachedSource) FetchAvailableDates(ctx context.Context, limit int) ([]string, error) {
	c.datesMu.RLock()
	dates := c.dates
	c.datesMu.RUnlock()

	if dates == nil {
		var err error
		if dates, err = c.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}
	return append([]string(nil), dates...), nil
}

// Refresh reloads the date list from the underlying source.
func (c *CachedSource) Refresh(ctx context.Context) ([]string, error) {
	dates, err := c.src.FetchAvailableDates(ctx, 0)
	if err != nil {
		return nil, err
	}
	if dates == nil {
		dates = []string{}
	}
	c.datesMu.Lock()
	c.dates = dates
	c.datesMu.Unlock()
	c.log.Debug("date list refreshed", "count", len(dates))
	return dates, nil
}

// Warm loads the n most recent dates into the cache. Failures are logged
// and skipped; it returns how many dates are cached afterwards.
func (c *CachedSource) Warm(ctx context.Context, n int) int {
	dates, err := c.FetchAvailableDates(ctx, n)
	if err != nil {
		c.log.Warn("warming cache", "error", err)
		return 0
	}
	warmed := 0
	for _, d := range dates {
		if _, err := c.FetchSnapshots(ctx, d); err != nil {
			c.log.Warn("warming cache", "date", d, "error", err)
			continue
		}
		warmed++
	}
	return warmed
}

// Invalidate drops every cached entry.
func (c *CachedSource) Invalidate() {
	c.cache.Range(func(k, _ any) bool {
		c.cache.Delete(k)
		return true
	})
	c.datesMu.Lock()
	c.dates = nil
	c.datesMu.Unlock()
}
