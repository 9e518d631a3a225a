package dashboard

import "screener/internal/domain"

// Field is one labelled, formatted value.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section groups related fields for the stock detail view.
type Section struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

type fieldSpec struct {
	label  string
	format func(*domain.StockSnapshot) string
}

func num2(get func(*domain.StockSnapshot) *float64) func(*domain.StockSnapshot) string {
	return func(s *domain.StockSnapshot) string { return FormatNumber(get(s), 2) }
}

func pct(get func(*domain.StockSnapshot) *float64) func(*domain.StockSnapshot) string {
	return func(s *domain.StockSnapshot) string { return FormatPercent(get(s)) }
}

var sectionSpecs = []struct {
	title  string
	fields []fieldSpec
}{
	{"Snapshot", []fieldSpec{
		{"Investor Score", func(s *domain.StockSnapshot) string { return FormatScore(s.InvestorScore) }},
		{"Price", func(s *domain.StockSnapshot) string { return FormatPrice(s.Price) }},
		{"Change", func(s *domain.StockSnapshot) string { return FormatSignedPercent(s.ChangeFraction) }},
		{"Market Cap", func(s *domain.StockSnapshot) string { return FormatMoney(s.MarketCap) }},
		{"Volume", func(s *domain.StockSnapshot) string { return FormatVolume(s.Volume) }},
	}},
	{"Valuation", []fieldSpec{
		{"P/E", num2(func(s *domain.StockSnapshot) *float64 { return s.PERatio })},
		{"Forward P/E", num2(func(s *domain.StockSnapshot) *float64 { return s.ForwardPE })},
		{"PEG", num2(func(s *domain.StockSnapshot) *float64 { return s.PEG })},
		{"Price/Sales", num2(func(s *domain.StockSnapshot) *float64 { return s.PriceToSales })},
		{"Price/Book", num2(func(s *domain.StockSnapshot) *float64 { return s.PriceToBook })},
	}},
	{"Profitability", []fieldSpec{
		{"ROE", pct(func(s *domain.StockSnapshot) *float64 { return s.ROE })},
		{"ROA", pct(func(s *domain.StockSnapshot) *float64 { return s.ROA })},
		{"ROIC", pct(func(s *domain.StockSnapshot) *float64 { return s.ROIC })},
		{"Profit Margin", pct(func(s *domain.StockSnapshot) *float64 { return s.ProfitMargin })},
		{"Gross Margin", pct(func(s *domain.StockSnapshot) *float64 { return s.GrossMargin })},
	}},
	{"Growth", []fieldSpec{
		{"EPS This Y", pct(func(s *domain.StockSnapshot) *float64 { return s.EPSGrowthThisYear })},
		{"EPS Next Y", pct(func(s *domain.StockSnapshot) *float64 { return s.EPSGrowthNextYear })},
		{"EPS Next 5Y", pct(func(s *domain.StockSnapshot) *float64 { return s.EPSGrowthNext5Y })},
		{"Sales Past 5Y", pct(func(s *domain.StockSnapshot) *float64 { return s.SalesGrowthPast5Y })},
	}},
	{"Technical", []fieldSpec{
		{"SMA50", pct(func(s *domain.StockSnapshot) *float64 { return s.SMA50Distance })},
		{"SMA200", pct(func(s *domain.StockSnapshot) *float64 { return s.SMA200Distance })},
		{"52W High", pct(func(s *domain.StockSnapshot) *float64 { return s.Week52High })},
		{"52W Low", pct(func(s *domain.StockSnapshot) *float64 { return s.Week52Low })},
		{"RSI", num2(func(s *domain.StockSnapshot) *float64 { return s.RSI })},
		{"Beta", num2(func(s *domain.StockSnapshot) *float64 { return s.Beta })},
	}},
}

// Sections formats s into the Snapshot, Valuation, Profitability, Growth
// and Technical field groups.
func Sections(s domain.StockSnapshot) []Section {
	out := make([]Section, len(sectionSpecs))
	for i, def := range sectionSpecs {
		fields := make([]Field, len(def.fields))
		for j, f := range def.fields {
			fields[j] = Field{Label: f.label, Value: f.format(&s)}
		}
		out[i] = Section{Title: def.title, Fields: fields}
	}
	return out
}
