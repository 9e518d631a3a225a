// Package domain defines the stock-screening snapshot model shared by the
// heatmap, history, and storage layers.
package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// DefaultSector is used when a snapshot carries no sector.
const DefaultSector = "Other"

// RawSnapshot is one snapshot row exactly as read from a tab-delimited file.
// Columns missing from the file decode to the empty string.
type RawSnapshot struct {
	Ticker   string `csv:"Ticker"`
	Company  string `csv:"Company"`
	Sector   string `csv:"Sector"`
	Industry string `csv:"Industry"`
	Country  string `csv:"Country"`

	InvestorScore     string `csv:"Investor_Score"`
	Price             string `csv:"Price"`
	Change            string `csv:"Change"`
	MarketCap         string `csv:"Market Cap"`
	Volume            string `csv:"Volume"`
	PERatio           string `csv:"P/E"`
	ForwardPE         string `csv:"Fwd P/E"`
	PEG               string `csv:"PEG"`
	PriceToSales      string `csv:"P/S"`
	PriceToBook       string `csv:"P/B"`
	ROE               string `csv:"ROE"`
	ROA               string `csv:"ROA"`
	ROIC              string `csv:"ROIC"`
	ProfitMargin      string `csv:"Profit M"`
	GrossMargin       string `csv:"Gross M"`
	EPSGrowthThisYear string `csv:"EPS This Y"`
	EPSGrowthNextYear string `csv:"EPS Next Y"`
	EPSGrowthNext5Y   string `csv:"EPS Next 5Y"`
	SalesGrowthPast5Y string `csv:"Sales Past 5Y"`
	Beta              string `csv:"Beta"`
	SMA50Distance     string `csv:"SMA50"`
	SMA200Distance    string `csv:"SMA200"`
	Week52High        string `csv:"52W High"`
	Week52Low         string `csv:"52W Low"`
	RSI               string `csv:"RSI"`
}

// StockSnapshot holds one ticker's metrics for one trading day. A nil metric
// means the value was absent or non-numeric in the source.
type StockSnapshot struct {
	Ticker   string `json:"ticker"`
	Company  string `json:"company"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Country  string `json:"country"`

	InvestorScore     *float64 `json:"investorScore"`
	Price             *float64 `json:"price"`
	ChangeFraction    *float64 `json:"changeFraction"`
	MarketCap         *float64 `json:"marketCap"`
	Volume            *float64 `json:"volume"`
	PERatio           *float64 `json:"peRatio"`
	ForwardPE         *float64 `json:"forwardPe"`
	PEG               *float64 `json:"peg"`
	PriceToSales      *float64 `json:"priceToSales"`
	PriceToBook       *float64 `json:"priceToBook"`
	ROE               *float64 `json:"roe"`
	ROA               *float64 `json:"roa"`
	ROIC              *float64 `json:"roic"`
	ProfitMargin      *float64 `json:"profitMargin"`
	GrossMargin       *float64 `json:"grossMargin"`
	EPSGrowthThisYear *float64 `json:"epsGrowthThisYear"`
	EPSGrowthNextYear *float64 `json:"epsGrowthNextYear"`
	EPSGrowthNext5Y   *float64 `json:"epsGrowthNext5Y"`
	SalesGrowthPast5Y *float64 `json:"salesGrowthPast5Y"`
	Beta              *float64 `json:"beta"`
	SMA50Distance     *float64 `json:"sma50Distance"`
	SMA200Distance    *float64 `json:"sma200Distance"`
	Week52High        *float64 `json:"week52High"`
	Week52Low         *float64 `json:"week52Low"`
	RSI               *float64 `json:"rsi"`
}

// SectorOrDefault returns the sector, or DefaultSector when it is empty.
func (s *StockSnapshot) SectorOrDefault() string {
	if s.Sector == "" {
		return DefaultSector
	}
	return s.Sector
}

// Coerce converts a raw textual field into a number. It returns nil for the
// empty string and for text that does not start with a number. Like a
// permissive parseFloat it reads the longest numeric prefix, so "12.5%"
// yields 12.5. The result is never NaN or infinite.
func Coerce(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, ok := parseLeadingFloat(raw)
	if !ok {
		return nil
	}
	return &v
}

// NewSnapshot coerces a raw row into a typed snapshot. It reports false when
// the row has no ticker, which makes it invalid.
func NewSnapshot(raw RawSnapshot) (StockSnapshot, bool) {
	s := StockSnapshot{
		Ticker:   strings.TrimSpace(raw.Ticker),
		Company:  strings.TrimSpace(raw.Company),
		Sector:   strings.TrimSpace(raw.Sector),
		Industry: strings.TrimSpace(raw.Industry),
		Country:  strings.TrimSpace(raw.Country),

		InvestorScore:     Coerce(raw.InvestorScore),
		Price:             Coerce(raw.Price),
		ChangeFraction:    Coerce(raw.Change),
		MarketCap:         Coerce(raw.MarketCap),
		Volume:            Coerce(raw.Volume),
		PERatio:           Coerce(raw.PERatio),
		ForwardPE:         Coerce(raw.ForwardPE),
		PEG:               Coerce(raw.PEG),
		PriceToSales:      Coerce(raw.PriceToSales),
		PriceToBook:       Coerce(raw.PriceToBook),
		ROE:               Coerce(raw.ROE),
		ROA:               Coerce(raw.ROA),
		ROIC:              Coerce(raw.ROIC),
		ProfitMargin:      Coerce(raw.ProfitMargin),
		GrossMargin:       Coerce(raw.GrossMargin),
		EPSGrowthThisYear: Coerce(raw.EPSGrowthThisYear),
		EPSGrowthNextYear: Coerce(raw.EPSGrowthNextYear),
		EPSGrowthNext5Y:   Coerce(raw.EPSGrowthNext5Y),
		SalesGrowthPast5Y: Coerce(raw.SalesGrowthPast5Y),
		Beta:              Coerce(raw.Beta),
		SMA50Distance:     Coerce(raw.SMA50Distance),
		SMA200Distance:    Coerce(raw.SMA200Distance),
		Week52High:        Coerce(raw.Week52High),
		Week52Low:         Coerce(raw.Week52Low),
		RSI:               Coerce(raw.RSI),
	}
	if s.Ticker == "" {
		return StockSnapshot{}, false
	}
	return s, true
}

// NewCollection coerces raw rows, silently dropping rows without a ticker.
func NewCollection(rows []RawSnapshot) []StockSnapshot {
	out := make([]StockSnapshot, 0, len(rows))
	for _, r := range rows {
		if s, ok := NewSnapshot(r); ok {
			out = append(out, s)
		}
	}
	return out
}

// Find returns the snapshot for ticker, matching exactly.
func Find(snaps []StockSnapshot, ticker string) (StockSnapshot, bool) {
	for i := range snaps {
		if snaps[i].Ticker == ticker {
			return snaps[i], true
		}
	}
	return StockSnapshot{}, false
}

// ValueOrZero dereferences a nullable metric, treating nil as 0.
func ValueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Float returns a pointer to v. Handy for building snapshots in code.
func Float(v float64) *float64 {
	return &v
}

// parseLeadingFloat parses the longest decimal prefix of s after leading
// whitespace: an optional sign, digits with an optional fraction, and an
// optional exponent.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	end := i

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range: ParseFloat yields ±Inf, which is not a usable metric.
		return 0, false
	}
	return v, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
