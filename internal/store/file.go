package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"screener/internal/domain"
)

// Compile-time interface checks.
var _ SnapshotSource = (*FileSource)(nil)
var _ SummarySource = (*FileSource)(nil)

// FileSource reads snapshot files from a directory laid out as:
//
//	<dir>/latest.csv
//	<dir>/<YYYY-MM-DD>.csv
//	<dir>/dates.csv
//	<dir>/summary/<date>.json
type FileSource struct {
	dir string
	log *slog.Logger
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string, log *slog.Logger) *FileSource {
	if log == nil {
		log = slog.Default()
	}
	return &FileSource{dir: dir, log: log}
}

// Dir returns the root directory.
func (s *FileSource) Dir() string {
	return s.dir
}

// FetchSnapshots reads and coerces the snapshot file of date.
func (s *FileSource) FetchSnapshots(ctx context.Context, date string) ([]domain.StockSnapshot, error) {
	if err := CheckDate(date); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, snapshotFile(date))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	snaps, err := ParseSnapshots(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return snaps, nil
}

// FetchAvailableDates reads dates.csv. When it does not exist, the dated
// snapshot files in the directory are listed instead.
func (s *FileSource) FetchAvailableDates(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, datesFile))
	if err == nil {
		defer f.Close()
		return ParseDates(f, limit)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", datesFile, err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		date := strings.TrimSuffix(name, ".csv")
		if date != LatestKey && CheckDate(date) == nil {
			dates = append(dates, date)
		}
	}
	return sortDates(dates, limit), nil
}

// FetchSummary returns the summary document of date, or nil when it is
// missing or not valid JSON.
func (s *FileSource) FetchSummary(ctx context.Context, date string) (json.RawMessage, error) {
	if err := CheckDate(date); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, summaryFile(date)))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("reading summary", "date", date, "error", err)
		}
		return nil, nil
	}
	if !json.Valid(data) {
		s.log.Warn("summary is not valid JSON", "date", date)
		return nil, nil
	}
	return json.RawMessage(data), nil
}
