// Package heatmap turns a snapshot collection into sized, colored and
// positioned tiles: weight selection, sector grouping, treemap and grid
// layout, and the diverging change color scale.
package heatmap

import (
	"errors"
	"fmt"

	"screener/internal/domain"
)

var (
	ErrUnknownWeightMetric = errors.New("unknown weight metric")
	ErrUnknownGroupBy      = errors.New("unknown grouping")
)

// WeightMetric selects the value that sizes a tile.
type WeightMetric int

const (
	WeightMarketCap WeightMetric = iota
	WeightVolume
	WeightMono // every tile gets the same size
)

// ParseWeightMetric maps the wire names marketCap, volume and monoSize.
func ParseWeightMetric(s string) (WeightMetric, error) {
	switch s {
	case "marketCap":
		return WeightMarketCap, nil
	case "volume":
		return WeightVolume, nil
	case "monoSize":
		return WeightMono, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownWeightMetric, s)
	}
}

func (m WeightMetric) String() string {
	switch m {
	case WeightMarketCap:
		return "marketCap"
	case WeightVolume:
		return "volume"
	case WeightMono:
		return "monoSize"
	default:
		return fmt.Sprintf("WeightMetric(%d)", int(m))
	}
}

// Next cycles through the metrics in declaration order.
func (m WeightMetric) Next() WeightMetric {
	return (m + 1) % (WeightMono + 1)
}

// Weight returns the tile size of s. A missing metric weighs 0.
func (m WeightMetric) Weight(s *domain.StockSnapshot) float64 {
	switch m {
	case WeightVolume:
		return domain.ValueOrZero(s.Volume)
	case WeightMono:
		return 1
	default:
		return domain.ValueOrZero(s.MarketCap)
	}
}

// SortValue returns the ordering key of s. Mono size orders by volume since
// its weights are all equal.
func (m WeightMetric) SortValue(s *domain.StockSnapshot) float64 {
	if m == WeightMono {
		return domain.ValueOrZero(s.Volume)
	}
	return m.Weight(s)
}

// GroupBy selects how tiles are partitioned into groups.
type GroupBy int

const (
	GroupBySector GroupBy = iota
	GroupByNone
)

// ParseGroupBy maps the wire names sector and none.
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case "sector":
		return GroupBySector, nil
	case "none":
		return GroupByNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGroupBy, s)
	}
}

func (g GroupBy) String() string {
	switch g {
	case GroupBySector:
		return "sector"
	case GroupByNone:
		return "none"
	default:
		return fmt.Sprintf("GroupBy(%d)", int(g))
	}
}

// Toggle flips between sector grouping and no grouping.
func (g GroupBy) Toggle() GroupBy {
	if g == GroupBySector {
		return GroupByNone
	}
	return GroupBySector
}
