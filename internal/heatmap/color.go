package heatmap

import (
	"fmt"
	"math"
)

// RGB is an 8-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale endpoints.
var (
	ColorDown    = RGB{220, 40, 40}
	ColorNeutral = RGB{100, 100, 100}
	ColorUp      = RGB{0, 212, 170}
)

// maxChangePct is where the scale saturates, in percent.
const maxChangePct = 5

// ColorForChange maps a fractional change (0.025 is +2.5%) onto the
// red/gray/green scale, saturating at ±5%. Negative changes interpolate
// toward (220,100,100) and so keep a red cast. NaN is treated as 0.
func ColorForChange(changeFraction float64) RGB {
	pct := changeFraction * 100
	if math.IsNaN(pct) {
		pct = 0
	}
	pct = math.Max(-maxChangePct, math.Min(maxChangePct, pct))
	norm := (pct + maxChangePct) / (2 * maxChangePct)

	if norm < 0.5 {
		t := norm * 2
		gb := channel(40 + 60*t)
		return RGB{R: 220, G: gb, B: gb}
	}
	t := (norm - 0.5) * 2
	return RGB{
		R: channel(100 - 100*t),
		G: channel(100 + 112*t),
		B: channel(100 + 70*t),
	}
}

// channel rounds half away from zero after clamping to [0, 255].
func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
