package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeRefresher struct {
	refreshes atomic.Int32
	warmed    atomic.Int32
	err       error
}

func (f *fakeRefresher) Refresh(context.Context) ([]string, error) {
	f.refreshes.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []string{"2026-01-14", "2026-01-13"}, nil
}

func (f *fakeRefresher) Warm(_ context.Context, n int) int {
	f.warmed.Add(int32(n))
	return n
}

type fakeCalendar struct {
	open bool
	err  error
}

func (c fakeCalendar) IsTradingDay(time.Time) (bool, error) {
	return c.open, c.err
}

func TestRefreshJob(t *testing.T) {
	tests := []struct {
		name          string
		calendar      Calendar
		wantRefreshes int32
	}{
		{"no calendar", nil, 1},
		{"trading day", fakeCalendar{open: true}, 1},
		{"market closed", fakeCalendar{open: false}, 0},
		{"calendar error", fakeCalendar{err: errors.New("boom")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeRefresher{}
			job := NewRefreshJob(src, tt.calendar, 3, testLog)
			if err := job.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := src.refreshes.Load(); got != tt.wantRefreshes {
				t.Errorf("refreshes = %d, want %d", got, tt.wantRefreshes)
			}
			if tt.wantRefreshes > 0 && src.warmed.Load() != 3 {
				t.Errorf("warmed = %d, want 3", src.warmed.Load())
			}
		})
	}
}

func TestRefreshJobError(t *testing.T) {
	src := &fakeRefresher{err: errors.New("unreachable")}
	job := NewRefreshJob(src, nil, 3, testLog)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if src.warmed.Load() != 0 {
		t.Errorf("warmed after failed refresh = %d", src.warmed.Load())
	}
}

type ctxJob struct {
	ran      atomic.Bool
	deadline atomic.Bool
}

func (j *ctxJob) Name() string { return "ctx" }

func (j *ctxJob) Run(ctx context.Context) error {
	j.ran.Store(true)
	_, ok := ctx.Deadline()
	j.deadline.Store(ok)
	return nil
}

func TestSchedulerRunNow(t *testing.T) {
	s := New(time.Minute, testLog)
	job := &ctxJob{}
	if err := s.RunNow(job); err != nil {
		t.Fatal(err)
	}
	if !job.ran.Load() || !job.deadline.Load() {
		t.Errorf("ran = %v, deadline = %v", job.ran.Load(), job.deadline.Load())
	}
}

func TestSchedulerAddJob(t *testing.T) {
	s := New(0, testLog)
	if err := s.AddJob("not a schedule", &ctxJob{}); err == nil {
		t.Error("expected error for invalid schedule")
	}
	job := &ctxJob{}
	if err := s.AddJob("@every 10ms", job); err != nil {
		t.Fatal(err)
	}
	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for !job.ran.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	if !job.ran.Load() {
		t.Error("scheduled job never ran")
	}
}
