package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"screener/internal/store"
	"screener/internal/util"
)

func main() {
	in := flag.String("in", "data", "directory of tab-delimited snapshot files")
	out := flag.String("out", "data/parquet", "directory to write <date>.parquet files")
	limit := flag.Int("limit", 0, "convert only the N most recent dates (0 = all)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := util.NewLoggerTo(os.Stderr, *level, "text")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	converted, err := convert(ctx, store.NewFileSource(*in, logger), store.NewParquetStore(*out), *limit, logger)
	if err != nil {
		log.Fatalf("converting snapshots: %v", err)
	}
	logger.Info("conversion complete", "dates", converted, "out", *out)
}

// convert copies every listed date from src into dst. A date that fails to
// read is skipped; a write failure aborts.
func convert(ctx context.Context, src store.SnapshotSource, dst *store.ParquetStore, limit int, log *slog.Logger) (int, error) {
	dates, err := src.FetchAvailableDates(ctx, limit)
	if err != nil {
		return 0, err
	}
	converted := 0
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return converted, err
		}
		snaps, err := src.FetchSnapshots(ctx, date)
		if err != nil {
			log.Warn("skipping date", "date", date, "error", err)
			continue
		}
		if err := dst.WriteSnapshots(ctx, date, snaps); err != nil {
			return converted, err
		}
		log.Debug("converted", "date", date, "stocks", len(snaps))
		converted++
	}
	return converted, nil
}
