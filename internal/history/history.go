// Package history reconstructs a ticker's price and score series from the
// per-date snapshot files.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"screener/internal/domain"
)

// ErrSuperseded is returned by Session.Fetch when a newer request replaced
// the one in flight.
var ErrSuperseded = errors.New("history request superseded")

const (
	DefaultMaxPoints    = 30
	DefaultFetchTimeout = 10 * time.Second
	DefaultConcurrency  = 16

	// windowFactor bounds how many recent dates are scanned per point.
	windowFactor = 3
)

// Source is the snapshot accessor the reconstruction reads from.
type Source interface {
	// FetchAvailableDates returns date keys, most recent first. A limit
	// of 0 returns all of them.
	FetchAvailableDates(ctx context.Context, limit int) ([]string, error)
	FetchSnapshots(ctx context.Context, date string) ([]domain.StockSnapshot, error)
}

// Point is one day of a ticker's history.
type Point struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
	Score float64 `json:"score"`
}

// Policy selects how gaps in the date list are handled.
type Policy int

const (
	// PolicyBounded scans a window of recent dates concurrently and skips
	// dates without data.
	PolicyBounded Policy = iota
	// PolicyContinuous walks back one date at a time and stops at the
	// first date without data.
	PolicyContinuous
)

// ParsePolicy maps the config names bounded and continuous.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "bounded":
		return PolicyBounded, nil
	case "continuous":
		return PolicyContinuous, nil
	default:
		return 0, fmt.Errorf("unknown history policy %q", s)
	}
}

func (p Policy) String() string {
	if p == PolicyContinuous {
		return "continuous"
	}
	return "bounded"
}

// Options configures a Reconstructor. Zero values select defaults.
type Options struct {
	Policy       Policy
	MaxPoints    int
	FetchTimeout time.Duration
	Concurrency  int
}

// Reconstructor builds history series from a Source.
type Reconstructor struct {
	src  Source
	opts Options
	log  *slog.Logger
}

// NewReconstructor creates a Reconstructor.
func NewReconstructor(src Source, opts Options, log *slog.Logger) *Reconstructor {
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reconstructor{src: src, opts: opts, log: log}
}

// Policy reports the configured policy.
func (r *Reconstructor) Policy() Policy {
	return r.opts.Policy
}

// FetchHistory returns at most maxPoints points for ticker, oldest first.
// maxPoints <= 0 uses the configured default. Per-date failures are logged
// and contribute no point. An error is returned only when the date list
// cannot be read or ctx is done.
func (r *Reconstructor) FetchHistory(ctx context.Context, ticker string, maxPoints int) ([]Point, error) {
	if maxPoints <= 0 {
		maxPoints = r.opts.MaxPoints
	}

	dates, err := r.src.FetchAvailableDates(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing dates: %w", err)
	}
	dates = append([]string(nil), dates...)
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	dates = slices.Compact(dates)

	var points []Point
	if r.opts.Policy == PolicyContinuous {
		points, err = r.continuous(ctx, ticker, dates, maxPoints)
	} else {
		points, err = r.bounded(ctx, ticker, dates, maxPoints)
	}
	if err != nil {
		return nil, err
	}

	// Collected newest first; callers want chronological order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

func (r *Reconstructor) bounded(ctx context.Context, ticker string, dates []string, maxPoints int) ([]Point, error) {
	window := min(len(dates), maxPoints*windowFactor)
	results := make([]*Point, window)

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, date := range dates[:window] {
		g.Go(func() error {
			p, err := r.pointFor(ctx, ticker, date)
			if err != nil {
				r.log.Debug("history fetch failed", "ticker", ticker, "date", date, "error", err)
				return nil
			}
			results[i] = p
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points := make([]Point, 0, min(window, maxPoints))
	for _, p := range results {
		if p == nil {
			continue
		}
		points = append(points, *p)
		if len(points) == maxPoints {
			break
		}
	}
	return points, nil
}

func (r *Reconstructor) continuous(ctx context.Context, ticker string, dates []string, maxPoints int) ([]Point, error) {
	var points []Point
	for _, date := range dates {
		if len(points) == maxPoints {
			break
		}
		p, err := r.pointFor(ctx, ticker, date)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			r.log.Debug("history fetch failed", "ticker", ticker, "date", date, "error", err)
			break
		}
		if p == nil {
			break
		}
		points = append(points, *p)
	}
	return points, nil
}

// pointFor fetches one date. It returns a nil point when the ticker is
// absent or lacks a price or score.
func (r *Reconstructor) pointFor(ctx context.Context, ticker, date string) (*Point, error) {
	fctx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()

	snaps, err := r.src.FetchSnapshots(fctx, date)
	if err != nil {
		return nil, err
	}
	s, ok := domain.Find(snaps, ticker)
	if !ok || s.Price == nil || s.InvestorScore == nil {
		return nil, nil
	}
	return &Point{Date: date, Price: *s.Price, Score: *s.InvestorScore}, nil
}

// Domain is the padded price axis range of a series.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PriceDomain pads the price range by 10% (at least 1) on both sides,
// never going below 0. It reports false for an empty series.
func PriceDomain(points []Point) (Domain, bool) {
	if len(points) == 0 {
		return Domain{}, false
	}
	lo, hi := points[0].Price, points[0].Price
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Price)
		hi = math.Max(hi, p.Price)
	}
	pad := math.Max((hi-lo)*0.1, 1)
	return Domain{Min: math.Max(0, lo-pad), Max: hi + pad}, true
}
