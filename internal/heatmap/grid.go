package heatmap

import "math"

// DefaultGap is the spacing between grid cells.
const DefaultGap = 6

// LayoutGrid places items into equal square cells, choosing the column
// count that gives the largest cell, and centers the grid in the box.
// When no column count fits, every cell has size 0.
func LayoutGrid(items []Item, width, height, gap float64) []Rect {
	n := len(items)
	if n == 0 {
		return []Rect{}
	}

	bestCols, bestRows := 1, n
	var bestSize float64
	for cols := 1; cols <= n; cols++ {
		rows := (n + cols - 1) / cols
		cellW := (width - float64(cols-1)*gap) / float64(cols)
		cellH := (height - float64(rows-1)*gap) / float64(rows)
		size := math.Min(cellW, cellH)
		if size <= 0 {
			continue
		}
		if size > bestSize {
			bestSize, bestCols, bestRows = size, cols, rows
		}
	}

	totalW := float64(bestCols)*bestSize + float64(bestCols-1)*gap
	totalH := float64(bestRows)*bestSize + float64(bestRows-1)*gap
	offX := math.Max(0, (width-totalW)/2)
	offY := math.Max(0, (height-totalH)/2)

	rects := make([]Rect, n)
	for i, it := range items {
		row, col := i/bestCols, i%bestCols
		rects[i] = Rect{
			Item:   it,
			X:      offX + float64(col)*(bestSize+gap),
			Y:      offY + float64(row)*(bestSize+gap),
			Width:  bestSize,
			Height: bestSize,
		}
	}
	return rects
}
