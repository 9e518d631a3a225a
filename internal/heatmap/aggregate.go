package heatmap

import (
	"sort"

	"screener/internal/domain"
)

// AllStocksGroup names the single group produced by GroupByNone.
const AllStocksGroup = "All Stocks"

// Item is one stock prepared for layout.
type Item struct {
	Key            string  `json:"key"`
	Label          string  `json:"label"`
	Weight         float64 `json:"weight"`
	SortValue      float64 `json:"sortValue"`
	ChangeFraction float64 `json:"changeFraction"`
	MarketCap      float64 `json:"marketCap"`
	GroupKey       string  `json:"groupKey"`

	Payload domain.StockSnapshot `json:"-"`
}

// Rect is an Item placed in the coordinate space of one layout call.
type Rect struct {
	Item
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns Width*Height.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Group is a set of items sharing a group key, sorted for layout.
type Group struct {
	Name           string  `json:"name"`
	Items          []Item  `json:"items"`
	TotalMarketCap float64 `json:"totalMarketCap"`
}

// NewItem derives the layout item of s under metric m.
func NewItem(s domain.StockSnapshot, m WeightMetric, groupKey string) Item {
	return Item{
		Key:            s.Ticker,
		Label:          s.Company,
		Weight:         m.Weight(&s),
		SortValue:      m.SortValue(&s),
		ChangeFraction: domain.ValueOrZero(s.ChangeFraction),
		MarketCap:      domain.ValueOrZero(s.MarketCap),
		GroupKey:       groupKey,
		Payload:        s,
	}
}

// AggregateBySector partitions snaps into groups and orders them for layout.
// Items within a group are sorted by descending sort value. Groups are
// ordered by the sort value of their top item, not by their total. Both
// sorts are stable so ties keep input order.
func AggregateBySector(snaps []domain.StockSnapshot, groupBy GroupBy, m WeightMetric) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, s := range snaps {
		key := AllStocksGroup
		if groupBy == GroupBySector {
			key = s.SectorOrDefault()
		}
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Name: key})
		}
		item := NewItem(s, m, key)
		groups[gi].Items = append(groups[gi].Items, item)
		groups[gi].TotalMarketCap += item.MarketCap
	}

	if groupBy == GroupByNone && len(groups) == 0 {
		groups = append(groups, Group{Name: AllStocksGroup, Items: []Item{}})
	}

	for i := range groups {
		items := groups[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].SortValue > items[b].SortValue
		})
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return topSortValue(groups[a]) > topSortValue(groups[b])
	})
	return groups
}

func topSortValue(g Group) float64 {
	if len(g.Items) == 0 {
		return 0
	}
	return g.Items[0].SortValue
}
