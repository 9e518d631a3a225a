package heatmap

import (
	"math"

	"screener/internal/domain"
)

// Options controls the render pipeline. Zero sizes fall back to defaults.
type Options struct {
	GroupBy        GroupBy
	Metric         WeightMetric
	Width          float64
	Height         float64
	MinGroupHeight float64
	GroupSpacing   float64
	GridGap        float64
}

// DefaultOptions returns the standard 1200x800 canvas.
func DefaultOptions() Options {
	return Options{
		GroupBy:        GroupBySector,
		Metric:         WeightMarketCap,
		Width:          1200,
		Height:         800,
		MinGroupHeight: 200,
		GroupSpacing:   8,
		GridGap:        DefaultGap,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.MinGroupHeight <= 0 {
		o.MinGroupHeight = d.MinGroupHeight
	}
	if o.GroupSpacing < 0 {
		o.GroupSpacing = d.GroupSpacing
	}
	if o.GridGap < 0 {
		o.GridGap = d.GridGap
	}
	return o
}

// Tile is a laid-out rect with its fill color.
type Tile struct {
	Rect
	Color RGB `json:"color"`
}

// RenderedGroup is one group box of the heatmap. Tile coordinates are
// relative to the box; Y is the box's offset on the canvas.
type RenderedGroup struct {
	Name           string  `json:"name"`
	ShowLabel      bool    `json:"showLabel"`
	Y              float64 `json:"y"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	TotalMarketCap float64 `json:"totalMarketCap"`
	Tiles          []Tile  `json:"tiles"`
}

// Heatmap is a fully rendered heatmap.
type Heatmap struct {
	GroupBy string          `json:"groupBy"`
	SizeBy  string          `json:"sizeBy"`
	Groups  []RenderedGroup `json:"groups"`
	Stats   Stats           `json:"stats"`
}

// Render groups snaps and lays out every group. Mono size uses the grid,
// other metrics the treemap.
func Render(snaps []domain.StockSnapshot, opts Options) Heatmap {
	opts = opts.withDefaults()
	groups := AggregateBySector(snaps, opts.GroupBy, opts.Metric)

	noGroup := opts.GroupBy == GroupByNone
	height := opts.Height
	if !noGroup && len(groups) > 0 {
		height = math.Max(opts.MinGroupHeight, opts.Height/float64(len(groups))-opts.GroupSpacing)
	}

	out := Heatmap{
		GroupBy: opts.GroupBy.String(),
		SizeBy:  opts.Metric.String(),
		Groups:  make([]RenderedGroup, 0, len(groups)),
		Stats:   ComputeStats(snaps),
	}
	var y float64
	for _, g := range groups {
		var rects []Rect
		if opts.Metric == WeightMono {
			rects = LayoutGrid(g.Items, opts.Width, height, opts.GridGap)
		} else {
			rects = LayoutTreemap(g.Items, 0, 0, opts.Width, height)
		}
		tiles := make([]Tile, len(rects))
		for i, r := range rects {
			tiles[i] = Tile{Rect: r, Color: ColorForChange(r.ChangeFraction)}
		}
		out.Groups = append(out.Groups, RenderedGroup{
			Name:           g.Name,
			ShowLabel:      !(noGroup && g.Name == AllStocksGroup),
			Y:              y,
			Width:          opts.Width,
			Height:         height,
			TotalMarketCap: g.TotalMarketCap,
			Tiles:          tiles,
		})
		y += height + opts.GroupSpacing
	}
	return out
}
