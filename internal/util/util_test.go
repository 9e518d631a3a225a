package util

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

func TestRetry(t *testing.T) {
	attempts := 0
	targetAttempts := 3

	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		if attempts < targetAttempts {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry returned unexpected error: %v", err)
	}
	if attempts != targetAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, targetAttempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 3, 0, func() error {
		attempts++
		return errors.New("persistent error")
	})
	if err == nil {
		t.Fatal("Retry should return error when all attempts fail")
	}
	if attempts != 3 {
		t.Errorf("Retry called fn %d times, want 3", attempts)
	}
}

func TestRetryPermanent(t *testing.T) {
	sentinel := errors.New("bad request")
	attempts := 0
	err := Retry(context.Background(), 5, 0, func() error {
		attempts++
		return Permanent(sentinel)
	})
	if err != sentinel {
		t.Errorf("err = %v, want %v", err, sentinel)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) != nil")
	}
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error { return errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst of 3 took %v", elapsed)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("fourth Wait err = %v, want DeadlineExceeded", err)
	}
}

func TestRateLimiterUnlimited(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	if rl != nil {
		t.Fatal("NewRateLimiter(0) should be unlimited (nil)")
	}
	for i := 0; i < 100; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn", "text")
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, "k=v") {
		t.Errorf("text output = %q, want k=v", out)
	}

	buf.Reset()
	NewLoggerTo(&buf, "debug", "json").Debug("x")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json output = %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

type fakeCalendar struct {
	open  map[string]bool
	calls int
}

func (f *fakeCalendar) GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error) {
	f.calls++
	date := req.Start.Format("2006-01-02")
	if !f.open[date] {
		return nil, nil
	}
	return []alpaca.CalendarDay{{Date: date}}, nil
}

func TestTradingCalendarWeekdayFallback(t *testing.T) {
	tc := NewTradingCalendar(nil)
	ny := tc.loc
	sat := time.Date(2026, 1, 10, 12, 0, 0, 0, ny)
	mon := time.Date(2026, 1, 12, 12, 0, 0, 0, ny)
	if ok, _ := tc.IsTradingDay(sat); ok {
		t.Error("Saturday reported as trading day")
	}
	if ok, _ := tc.IsTradingDay(mon); !ok {
		t.Error("Monday reported as non-trading day")
	}
}

func TestTradingCalendarAlpaca(t *testing.T) {
	fc := &fakeCalendar{open: map[string]bool{"2026-01-12": true}}
	tc := NewTradingCalendar(fc)
	holiday := time.Date(2026, 1, 19, 12, 0, 0, 0, tc.loc)
	mon := time.Date(2026, 1, 12, 12, 0, 0, 0, tc.loc)

	if ok, err := tc.IsTradingDay(holiday); err != nil || ok {
		t.Errorf("holiday = %v, %v; want false", ok, err)
	}
	if ok, err := tc.IsTradingDay(mon); err != nil || !ok {
		t.Errorf("trading day = %v, %v; want true", ok, err)
	}
	tc.IsTradingDay(mon)
	if fc.calls != 2 {
		t.Errorf("calendar calls = %d, want 2 (cached)", fc.calls)
	}
}
