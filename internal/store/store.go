// Package store provides the snapshot sources the screener reads from
// (tab-delimited files on disk or over HTTP, and Parquet) together with a
// per-date cache and the preferences store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"screener/internal/domain"
)

// LatestKey resolves to the most recent snapshot.
const LatestKey = "latest"

var (
	// ErrNotFound reports a date with no snapshot file.
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalidDate reports a date key that is neither LatestKey nor
	// YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date key")
)

// SnapshotSource reads per-date snapshot collections.
type SnapshotSource interface {
	// FetchSnapshots returns the snapshots of date, or of the most recent
	// date for LatestKey.
	FetchSnapshots(ctx context.Context, date string) ([]domain.StockSnapshot, error)

	// FetchAvailableDates returns dates most recent first, truncated to
	// limit when limit > 0.
	FetchAvailableDates(ctx context.Context, limit int) ([]string, error)
}

// SummarySource reads the optional per-date narrative summary.
type SummarySource interface {
	// FetchSummary returns the raw JSON document of date, or nil when it
	// is missing or unreadable.
	FetchSummary(ctx context.Context, date string) (json.RawMessage, error)
}

// Preferences are the persisted heatmap view settings.
type Preferences struct {
	GroupBy string `json:"groupBy"`
	SizeBy  string `json:"sizeBy"`
	View    string `json:"view"`
}

// DefaultPreferences returns the settings used before anything is saved.
func DefaultPreferences() Preferences {
	return Preferences{GroupBy: "sector", SizeBy: "marketCap", View: "table"}
}

// PreferencesStore persists Preferences.
type PreferencesStore interface {
	LoadPreferences(ctx context.Context) (Preferences, error)
	SavePreferences(ctx context.Context, p Preferences) error
}

// CheckDate validates a date key.
func CheckDate(date string) error {
	if date == LatestKey {
		return nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// snapshotFile returns the file name of a date's snapshot.
func snapshotFile(date string) string {
	return date + ".csv"
}

// summaryFile returns the path of a date's summary relative to the data root.
func summaryFile(date string) string {
	return "summary/" + date + ".json"
}

// datesFile lists the available dates, one per line.
const datesFile = "dates.csv"
