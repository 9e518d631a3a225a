package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"", nil},
		{"abc", nil},
		{"-", nil},
		{".", nil},
		{"12.5", Float(12.5)},
		{"  42", Float(42)},
		{"-0.25", Float(-0.25)},
		{"+3", Float(3)},
		{".5", Float(0.5)},
		{"5.", Float(5)},
		{"12.5%", Float(12.5)},
		{"1e3", Float(1000)},
		{"1e", Float(1)},
		{"2E-2x", Float(0.02)},
		{"1e999", nil},
	}
	for _, tt := range tests {
		got := Coerce(tt.in)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Coerce(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
		if got != nil && (math.IsNaN(*got) || math.IsInf(*got, 0)) {
			t.Errorf("Coerce(%q) = %v, want finite", tt.in, *got)
		}
	}
}

func TestNewSnapshot(t *testing.T) {
	raw := RawSnapshot{
		Ticker:        "  AAPL ",
		Company:       " Apple Inc. ",
		Sector:        "Technology",
		InvestorScore: "85",
		Price:         "190.12",
		Change:        "0.0125",
		MarketCap:     "3000000000000",
		PEG:           "abc",
	}
	s, ok := NewSnapshot(raw)
	if !ok {
		t.Fatal("NewSnapshot returned ok=false for a row with a ticker")
	}
	if s.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want %q", s.Ticker, "AAPL")
	}
	if s.Company != "Apple Inc." {
		t.Errorf("Company = %q, want %q", s.Company, "Apple Inc.")
	}
	if s.Industry != "" {
		t.Errorf("Industry = %q, want empty", s.Industry)
	}
	if s.Price == nil || *s.Price != 190.12 {
		t.Errorf("Price = %v, want 190.12", s.Price)
	}
	if s.ChangeFraction == nil || *s.ChangeFraction != 0.0125 {
		t.Errorf("ChangeFraction = %v, want 0.0125", s.ChangeFraction)
	}
	if s.PEG != nil {
		t.Errorf("PEG = %v, want nil", *s.PEG)
	}
	if s.Volume != nil {
		t.Errorf("Volume = %v, want nil", *s.Volume)
	}
}

func TestNewCollectionDropsRowsWithoutTicker(t *testing.T) {
	rows := []RawSnapshot{
		{Ticker: "AAPL"},
		{Ticker: "   ", Company: "Ghost"},
		{Ticker: ""},
		{Ticker: "MSFT"},
	}
	got := NewCollection(rows)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Ticker != "AAPL" || got[1].Ticker != "MSFT" {
		t.Errorf("tickers = %s,%s, want AAPL,MSFT", got[0].Ticker, got[1].Ticker)
	}
}

func TestSectorOrDefault(t *testing.T) {
	s := StockSnapshot{Ticker: "X"}
	if got := s.SectorOrDefault(); got != DefaultSector {
		t.Errorf("SectorOrDefault() = %q, want %q", got, DefaultSector)
	}
	s.Sector = "Energy"
	if got := s.SectorOrDefault(); got != "Energy" {
		t.Errorf("SectorOrDefault() = %q, want Energy", got)
	}
}

func TestFind(t *testing.T) {
	snaps := []StockSnapshot{{Ticker: "AAPL"}, {Ticker: "MSFT"}}
	if s, ok := Find(snaps, "MSFT"); !ok || s.Ticker != "MSFT" {
		t.Errorf("Find(MSFT) = %v, %v", s.Ticker, ok)
	}
	if _, ok := Find(snaps, "msft"); ok {
		t.Error("Find(msft) matched, want exact match only")
	}
}
