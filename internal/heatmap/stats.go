package heatmap

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"screener/internal/domain"
)

// Stats summarizes the day's price changes, as fractions.
type Stats struct {
	Count     int     `json:"count"`
	Advancers int     `json:"advancers"`
	Decliners int     `json:"decliners"`
	Unchanged int     `json:"unchanged"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// ComputeStats computes change statistics over snapshots that have a
// change value.
func ComputeStats(snaps []domain.StockSnapshot) Stats {
	changes := make([]float64, 0, len(snaps))
	for i := range snaps {
		if snaps[i].ChangeFraction != nil {
			changes = append(changes, *snaps[i].ChangeFraction)
		}
	}
	if len(changes) == 0 {
		return Stats{}
	}
	sort.Float64s(changes)

	st := Stats{
		Count:  len(changes),
		Mean:   stat.Mean(changes, nil),
		Median: median(changes),
		Min:    changes[0],
		Max:    changes[len(changes)-1],
	}
	for _, c := range changes {
		switch {
		case c > 0:
			st.Advancers++
		case c < 0:
			st.Decliners++
		default:
			st.Unchanged++
		}
	}
	return st
}

// median averages the two middle values of an even-length sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
