package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"screener/internal/dashboard"
	"screener/internal/heatmap"
	"screener/internal/history"
)

// Heatmaps are laid out in pixels and rasterized onto terminal cells of
// this size.
const (
	cellWidth  = 8
	cellHeight = 16
)

var (
	groupLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	gainStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	watchStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

type cell struct {
	bg       heatmap.RGB
	ch       rune
	painted  bool
	selected bool
}

// canvas is a grid of terminal cells.
type canvas struct {
	cols, rows int
	cells      [][]cell
}

func newCanvas(cols, rows int) *canvas {
	cells := make([][]cell, rows)
	for i := range cells {
		cells[i] = make([]cell, cols)
		for j := range cells[i] {
			cells[i][j].ch = ' '
		}
	}
	return &canvas{cols: cols, rows: rows, cells: cells}
}

func (c *canvas) fill(x0, y0, x1, y1 int, bg heatmap.RGB) {
	for y := max(y0, 0); y < min(y1, c.rows); y++ {
		for x := max(x0, 0); x < min(x1, c.cols); x++ {
			c.cells[y][x] = cell{bg: bg, ch: ' ', painted: true}
		}
	}
}

// text writes s at (x, y), clipped to width columns.
func (c *canvas) text(x, y, width int, s string, selected bool) {
	if y < 0 || y >= c.rows {
		return
	}
	for i, r := range []rune(s) {
		if i >= width || x+i >= c.cols {
			return
		}
		c.cells[y][x+i].ch = r
		c.cells[y][x+i].selected = selected
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		// Emit runs of identically styled cells.
		for x := 0; x < len(row); {
			end := x + 1
			for end < len(row) && sameStyle(row[x], row[end]) {
				end++
			}
			var run strings.Builder
			for _, cl := range row[x:end] {
				run.WriteRune(cl.ch)
			}
			b.WriteString(cellStyle(row[x]).Render(run.String()))
			x = end
		}
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	return a.painted == b.painted && a.bg == b.bg && a.selected == b.selected
}

func cellStyle(c cell) lipgloss.Style {
	if !c.painted {
		return lipgloss.NewStyle()
	}
	s := lipgloss.NewStyle().Background(lipgloss.Color(c.bg.Hex())).Foreground(textColor(c.bg))
	if c.selected {
		s = s.Bold(true).Underline(true)
	}
	return s
}

// textColor picks black or white for legibility on bg.
func textColor(bg heatmap.RGB) lipgloss.Color {
	lum := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if lum > 140 {
		return lipgloss.Color("0")
	}
	return lipgloss.Color("15")
}

func toCells(v, size float64) int {
	return int(math.Round(v / size))
}

// renderGroup rasterizes one group box. Tiles narrower than a cell are
// dropped; wider tiles keep a one-column separator on their right.
func renderGroup(g heatmap.RenderedGroup, selected string, watched map[string]bool) string {
	cols := max(toCells(g.Width, cellWidth), 1)
	rows := max(toCells(g.Height, cellHeight), 1)
	c := newCanvas(cols, rows)
	for _, t := range g.Tiles {
		x0, x1 := toCells(t.X, cellWidth), toCells(t.X+t.Width, cellWidth)
		y0, y1 := toCells(t.Y, cellHeight), toCells(t.Y+t.Height, cellHeight)
		if x1 <= x0 || y1 <= y0 {
			continue
		}
		right := x1
		if x1-x0 >= 2 {
			right = x1 - 1
		}
		c.fill(x0, y0, right, y1, t.Color)

		label := t.Key
		if watched[t.Key] {
			label = "*" + label
		}
		isSel := t.Key == selected
		c.text(x0, y0, right-x0, label, isSel)
		if y1-y0 >= 2 && t.Payload.ChangeFraction != nil {
			c.text(x0, y0+1, right-x0, dashboard.FormatSignedPercent(t.Payload.ChangeFraction), isSel)
		}
	}

	var b strings.Builder
	if g.ShowLabel {
		b.WriteString(groupLabelStyle.Render(g.Name))
		b.WriteString(dimStyle.Render("  " + dashboard.FormatMoney(&g.TotalMarketCap)))
		b.WriteByte('\n')
	}
	b.WriteString(c.String())
	return b.String()
}

// renderHeatmap renders every group of v, one below the other.
func renderHeatmap(v heatmap.Heatmap, selected string, watched map[string]bool) string {
	if len(v.Groups) == 0 || totalTiles(v) == 0 {
		return dimStyle.Render("(no stocks)")
	}
	parts := make([]string, 0, len(v.Groups))
	for _, g := range v.Groups {
		parts = append(parts, renderGroup(g, selected, watched))
	}
	return strings.Join(parts, "\n\n")
}

func totalTiles(v heatmap.Heatmap) int {
	n := 0
	for _, g := range v.Groups {
		n += len(g.Tiles)
	}
	return n
}

// tickers lists tile keys in render order.
func tickers(v heatmap.Heatmap) []string {
	var out []string
	for _, g := range v.Groups {
		for _, t := range g.Tiles {
			out = append(out, t.Key)
		}
	}
	return out
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline draws prices scaled to the price domain.
func sparkline(points []history.Point, d history.Domain) string {
	span := d.Max - d.Min
	if len(points) == 0 || span <= 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range points {
		idx := int((p.Price - d.Min) / span * float64(len(sparkLevels)-1))
		idx = max(0, min(idx, len(sparkLevels)-1))
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

// changeText renders a colored signed percent.
func changeText(v float64) string {
	s := dashboard.FormatSignedPercent(&v)
	switch {
	case v > 0:
		return gainStyle.Render(s)
	case v < 0:
		return lossStyle.Render(s)
	default:
		return dimStyle.Render(s)
	}
}
