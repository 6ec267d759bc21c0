package docuseal

import "math"

// Default iframe height bounds in pixels
const (
	DefaultMinHeight = 400
	DefaultMaxHeight = 1200
)

// HeightBounds is the allowed iframe height range.
type HeightBounds struct {
	Min float64
	Max float64
}

// DefaultHeightBounds returns 400..1200
func DefaultHeightBounds() HeightBounds {
	return HeightBounds{Min: DefaultMinHeight, Max: DefaultMaxHeight}
}

// Clamp returns Min for a zero or NaN height, otherwise h limited to [Min, Max].
func (b HeightBounds) Clamp(h float64) float64 {
	if h == 0 || math.IsNaN(h) {
		return b.Min
	}
	return math.Min(math.Max(h, b.Min), b.Max)
}

// CalculateIframeHeight clamps a content height using bounds, or the
// default bounds when none are given.
func CalculateIframeHeight(contentHeight float64, bounds ...HeightBounds) float64 {
	b := DefaultHeightBounds()
	if len(bounds) > 0 {
		b = bounds[0]
	}
	return b.Clamp(contentHeight)
}
