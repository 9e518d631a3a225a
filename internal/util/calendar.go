package util

import (
	"fmt"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// CalendarClient is the part of the Alpaca client the calendar needs.
type CalendarClient interface {
	GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error)
}

// TradingCalendar answers whether a date is a US trading day. With a nil
// client it falls back to treating Monday to Friday as trading days.
type TradingCalendar struct {
	client CalendarClient
	loc    *time.Location

	mu    sync.Mutex
	cache map[string]bool // date → trading day
}

// NewTradingCalendar creates a calendar backed by client, which may be nil.
func NewTradingCalendar(client CalendarClient) *TradingCalendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &TradingCalendar{client: client, loc: loc, cache: make(map[string]bool)}
}

// IsTradingDay reports whether the exchange trades on t's date in New York.
func (tc *TradingCalendar) IsTradingDay(t time.Time) (bool, error) {
	t = t.In(tc.loc)
	if tc.client == nil {
		return isWeekday(t), nil
	}

	date := t.Format("2006-01-02")
	tc.mu.Lock()
	open, ok := tc.cache[date]
	tc.mu.Unlock()
	if ok {
		return open, nil
	}

	days, err := tc.client.GetCalendar(alpaca.GetCalendarRequest{Start: t, End: t})
	if err != nil {
		return false, fmt.Errorf("GetCalendar: %w", err)
	}
	open = false
	for _, d := range days {
		if d.Date == date {
			open = true
			break
		}
	}

	tc.mu.Lock()
	tc.cache[date] = open
	tc.mu.Unlock()
	return open, nil
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
