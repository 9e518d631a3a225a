package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Refresher is the part of store.CachedSource the refresh job drives.
type Refresher interface {
	Refresh(ctx context.Context) ([]string, error)
	Warm(ctx context.Context, n int) int
}

// Calendar reports trading days.
type Calendar interface {
	IsTradingDay(t time.Time) (bool, error)
}

// RefreshJob reloads the date index and warms the snapshot cache. It skips
// non-trading days, when no new snapshot is published.
type RefreshJob struct {
	src       Refresher
	calendar  Calendar
	warmDates int
	log       *slog.Logger
	now       func() time.Time
}

var _ Job = (*RefreshJob)(nil)

// NewRefreshJob creates a refresh job warming the warmDates most recent
// dates. calendar may be nil to run every time.
func NewRefreshJob(src Refresher, calendar Calendar, warmDates int, log *slog.Logger) *RefreshJob {
	if log == nil {
		log = slog.Default()
	}
	return &RefreshJob{src: src, calendar: calendar, warmDates: warmDates, log: log, now: time.Now}
}

func (j *RefreshJob) Name() string { return "refresh-snapshots" }

// Run refreshes unless today is a known non-trading day. A calendar lookup
// failure does not block the refresh.
func (j *RefreshJob) Run(ctx context.Context) error {
	if j.calendar != nil {
		open, err := j.calendar.IsTradingDay(j.now())
		switch {
		case err != nil:
			j.log.Warn("calendar lookup failed, refreshing anyway", "error", err)
		case !open:
			j.log.Debug("market closed, skipping refresh")
			return nil
		}
	}

	dates, err := j.src.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing dates: %w", err)
	}
	warmed := 0
	if j.warmDates > 0 {
		warmed = j.src.Warm(ctx, j.warmDates)
	}
	latest := ""
	if len(dates) > 0 {
		latest = dates[0]
	}
	j.log.Info("snapshots refreshed", "dates", len(dates), "latest", latest, "warmed", warmed)
	return nil
}
