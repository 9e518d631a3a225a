package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"screener/internal/domain"
)

// Compile-time interface checks.
var _ SnapshotSource = (*ParquetStore)(nil)

// ParquetStore keeps one Parquet file per date:
//
//	<DataDir>/<YYYY-MM-DD>.parquet
//
// LatestKey resolves to the most recent file.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// SnapshotRecord is the Parquet schema of one snapshot row. Nullable metrics
// are optional columns.
type SnapshotRecord struct {
	Ticker   string `parquet:"ticker"`
	Company  string `parquet:"company"`
	Sector   string `parquet:"sector"`
	Industry string `parquet:"industry"`
	Country  string `parquet:"country"`

	InvestorScore     *float64 `parquet:"investor_score,optional"`
	Price             *float64 `parquet:"price,optional"`
	ChangeFraction    *float64 `parquet:"change,optional"`
	MarketCap         *float64 `parquet:"market_cap,optional"`
	Volume            *float64 `parquet:"volume,optional"`
	PERatio           *float64 `parquet:"pe,optional"`
	ForwardPE         *float64 `parquet:"forward_pe,optional"`
	PEG               *float64 `parquet:"peg,optional"`
	PriceToSales      *float64 `parquet:"ps,optional"`
	PriceToBook       *float64 `parquet:"pb,optional"`
	ROE               *float64 `parquet:"roe,optional"`
	ROA               *float64 `parquet:"roa,optional"`
	ROIC              *float64 `parquet:"roic,optional"`
	ProfitMargin      *float64 `parquet:"profit_margin,optional"`
	GrossMargin       *float64 `parquet:"gross_margin,optional"`
	EPSGrowthThisYear *float64 `parquet:"eps_this_y,optional"`
	EPSGrowthNextYear *float64 `parquet:"eps_next_y,optional"`
	EPSGrowthNext5Y   *float64 `parquet:"eps_next_5y,optional"`
	SalesGrowthPast5Y *float64 `parquet:"sales_past_5y,optional"`
	Beta              *float64 `parquet:"beta,optional"`
	SMA50Distance     *float64 `parquet:"sma50,optional"`
	SMA200Distance    *float64 `parquet:"sma200,optional"`
	Week52High        *float64 `parquet:"high_52w,optional"`
	Week52Low         *float64 `parquet:"low_52w,optional"`
	RSI               *float64 `parquet:"rsi,optional"`
}

func toRecord(s domain.StockSnapshot) SnapshotRecord {
	return SnapshotRecord{
		Ticker:            s.Ticker,
		Company:           s.Company,
		Sector:            s.Sector,
		Industry:          s.Industry,
		Country:           s.Country,
		InvestorScore:     s.InvestorScore,
		Price:             s.Price,
		ChangeFraction:    s.ChangeFraction,
		MarketCap:         s.MarketCap,
		Volume:            s.Volume,
		PERatio:           s.PERatio,
		ForwardPE:         s.ForwardPE,
		PEG:               s.PEG,
		PriceToSales:      s.PriceToSales,
		PriceToBook:       s.PriceToBook,
		ROE:               s.ROE,
		ROA:               s.ROA,
		ROIC:              s.ROIC,
		ProfitMargin:      s.ProfitMargin,
		GrossMargin:       s.GrossMargin,
		EPSGrowthThisYear: s.EPSGrowthThisYear,
		EPSGrowthNextYear: s.EPSGrowthNextYear,
		EPSGrowthNext5Y:   s.EPSGrowthNext5Y,
		SalesGrowthPast5Y: s.SalesGrowthPast5Y,
		Beta:              s.Beta,
		SMA50Distance:     s.SMA50Distance,
		SMA200Distance:    s.SMA200Distance,
		Week52High:        s.Week52High,
		Week52Low:         s.Week52Low,
		RSI:               s.RSI,
	}
}

func fromRecord(r SnapshotRecord) domain.StockSnapshot {
	return domain.StockSnapshot{
		Ticker:            r.Ticker,
		Company:           r.Company,
		Sector:            r.Sector,
		Industry:          r.Industry,
		Country:           r.Country,
		InvestorScore:     r.InvestorScore,
		Price:             r.Price,
		ChangeFraction:    r.ChangeFraction,
		MarketCap:         r.MarketCap,
		Volume:            r.Volume,
		PERatio:           r.PERatio,
		ForwardPE:         r.ForwardPE,
		PEG:               r.PEG,
		PriceToSales:      r.PriceToSales,
		PriceToBook:       r.PriceToBook,
		ROE:               r.ROE,
		ROA:               r.ROA,
		ROIC:              r.ROIC,
		ProfitMargin:      r.ProfitMargin,
		GrossMargin:       r.GrossMargin,
		EPSGrowthThisYear: r.EPSGrowthThisYear,
		EPSGrowthNextYear: r.EPSGrowthNextYear,
		EPSGrowthNext5Y:   r.EPSGrowthNext5Y,
		SalesGrowthPast5Y: r.SalesGrowthPast5Y,
		Beta:              r.Beta,
		SMA50Distance:     r.SMA50Distance,
		SMA200Distance:    r.SMA200Distance,
		Week52High:        r.Week52High,
		Week52Low:         r.Week52Low,
		RSI:               r.RSI,
	}
}

// ---------------------------------------------------------------------------
// SnapshotSource implementation
// ---------------------------------------------------------------------------

// WriteSnapshots replaces the file of date with snaps. Rows without a
// ticker are skipped.
func (s *ParquetStore) WriteSnapshots(_ context.Context, date string, snaps []domain.StockSnapshot) error {
	if date == LatestKey {
		return fmt.Errorf("%w: cannot write %q", ErrInvalidDate, date)
	}
	if err := CheckDate(date); err != nil {
		return err
	}
	records := make([]SnapshotRecord, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Ticker == "" {
			continue
		}
		records = append(records, toRecord(snap))
	}
	if err := writeParquetFile(s.snapshotPath(date), records); err != nil {
		return fmt.Errorf("writing snapshots for %s: %w", date, err)
	}
	return nil
}

// FetchSnapshots reads the file of date.
func (s *ParquetStore) FetchSnapshots(ctx context.Context, date string) ([]domain.StockSnapshot, error) {
	if err := CheckDate(date); err != nil {
		return nil, err
	}
	if date == LatestKey {
		dates, err := s.FetchAvailableDates(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
		date = dates[0]
	}

	records, err := readParquetFile[SnapshotRecord](s.snapshotPath(date))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
		return nil, fmt.Errorf("reading snapshots for %s: %w", date, err)
	}
	snaps := make([]domain.StockSnapshot, len(records))
	for i, r := range records {
		snaps[i] = fromRecord(r)
	}
	return snaps, nil
}

// FetchAvailableDates lists the dated Parquet files, most recent first.
func (s *ParquetStore) FetchAvailableDates(_ context.Context, limit int) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing %s: %w", s.DataDir, err)
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		date := strings.TrimSuffix(e.Name(), ".parquet")
		if date != LatestKey && CheckDate(date) == nil {
			dates = append(dates, date)
		}
	}
	return sortDates(dates, limit), nil
}

// snapshotPath returns the filesystem path of a date's Parquet file.
func (s *ParquetStore) snapshotPath(date string) string {
	return filepath.Join(s.DataDir, date+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}
