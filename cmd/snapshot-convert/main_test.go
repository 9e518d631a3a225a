package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"screener/internal/store"
)

func TestConvert(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := map[string]string{
		"2026-01-14.csv": "Ticker\tSector\tPrice\tChange\nAAPL\tTechnology\t150\t0.01\nXOM\tEnergy\t100\t-0.02\n",
		"2026-01-13.csv": "Ticker\tSector\tPrice\nAAPL\tTechnology\t148\n",
		"2026-01-12.csv": "Ticker\tPrice\nAAPL\t147\n",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(in, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dst := store.NewParquetStore(out)

	n, err := convert(context.Background(), store.NewFileSource(in, log), dst, 2, log)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("converted = %d, want 2", n)
	}

	dates, err := dst.FetchAvailableDates(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 || dates[0] != "2026-01-14" || dates[1] != "2026-01-13" {
		t.Errorf("parquet dates = %v", dates)
	}
	snaps, err := dst.FetchSnapshots(context.Background(), "2026-01-14")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 || snaps[1].Ticker != "XOM" || *snaps[1].ChangeFraction != -0.02 {
		t.Errorf("snapshots = %+v", snaps)
	}
}
