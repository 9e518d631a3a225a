package domain

// Score breakdown metric labels, in output order.
const (
	MetricPEG          = "PEG Ratio"
	MetricROE          = "ROE"
	MetricProfitMargin = "Profit Margin"
	MetricEPSGrowth    = "EPS Growth (5Y)"
)

// ScoreBreakdownEntry is one factor of the investor score.
type ScoreBreakdownEntry struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Max    float64 `json:"max"`
}

// ScoreBreakdown derives the four-factor point breakdown of a stock. A nil
// metric scores the middle-low default tier rather than zero.
func ScoreBreakdown(s StockSnapshot) [4]ScoreBreakdownEntry {
	return [4]ScoreBreakdownEntry{
		{Metric: MetricPEG, Value: pegPoints(s.PEG), Max: 30},
		{Metric: MetricROE, Value: tiered(s.ROE, 20, 10, 30, 20, 10), Max: 30},
		{Metric: MetricProfitMargin, Value: tiered(s.ProfitMargin, 20, 10, 20, 15, 10), Max: 20},
		{Metric: MetricEPSGrowth, Value: tiered(s.EPSGrowthNext5Y, 30, 20, 20, 15, 10), Max: 20},
	}
}

// BreakdownTotal sums the points of a breakdown.
func BreakdownTotal(b [4]ScoreBreakdownEntry) float64 {
	var total float64
	for _, e := range b {
		total += e.Value
	}
	return total
}

func pegPoints(peg *float64) float64 {
	switch {
	case peg == nil:
		return 10
	case *peg < 1:
		return 30
	case *peg <= 2:
		return 20
	default:
		return 10
	}
}

// tiered scores a fractional metric compared as a percentage against two
// strict thresholds.
func tiered(v *float64, hi, mid, hiPts, midPts, lowPts float64) float64 {
	if v == nil {
		return lowPts
	}
	pct := *v * 100
	switch {
	case pct > hi:
		return hiPts
	case pct > mid:
		return midPts
	default:
		return lowPts
	}
}

// Tier buckets an investor score for display.
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// ScoreTier returns the display tier of an investor score. A nil score
// counts as 0.
func ScoreTier(score *float64) Tier {
	v := ValueOrZero(score)
	switch {
	case v >= 80:
		return TierHigh
	case v >= 50:
		return TierMedium
	default:
		return TierLow
	}
}
