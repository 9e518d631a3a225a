package heatmap

// rowShare is the fraction of the remaining weight after which a row is
// closed.
const rowShare = 0.3

// LayoutTreemap places items inside the box (x, y, width, height) with an
// approximate squarified heuristic. Items are consumed in input order, so
// callers should sort them by descending weight. It returns an empty slice
// when the total weight is zero. Zero-weight items receive zero-area rects.
func LayoutTreemap(items []Item, x, y, width, height float64) []Rect {
	var total float64
	for _, it := range items {
		total += it.Weight
	}
	if total <= 0 {
		return []Rect{}
	}

	rects := make([]Rect, 0, len(items))
	curX, curY := x, y
	remW, remH := width, height
	remaining := total

	for i := 0; i < len(items); {
		horizontal := remW >= remH

		start := i
		var rowValue float64
		for i < len(items) {
			rowValue += items[i].Weight
			i++
			if remaining > 0 && rowValue/remaining > rowShare {
				break
			}
		}
		row := items[start:i]

		var share float64
		if remaining > 0 {
			share = rowValue / remaining
		}

		if horizontal {
			rowWidth := share * remW
			itemY := curY
			for _, it := range row {
				h := fraction(it.Weight, rowValue) * remH
				rects = append(rects, Rect{Item: it, X: curX, Y: itemY, Width: rowWidth, Height: h})
				itemY += h
			}
			curX += rowWidth
			remW -= rowWidth
		} else {
			rowHeight := share * remH
			itemX := curX
			for _, it := range row {
				w := fraction(it.Weight, rowValue) * remW
				rects = append(rects, Rect{Item: it, X: itemX, Y: curY, Width: w, Height: rowHeight})
				itemX += w
			}
			curY += rowHeight
			remH -= rowHeight
		}
		remaining -= rowValue
	}
	return rects
}

func fraction(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole
}
