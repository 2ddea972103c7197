package stream

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette maps a position in [0, 1] to a hue, blending linearly between
// stops. Stops must be sorted by Pos.
type Palette []struct {
	Hue float64
	Pos float64
}

// DefaultPalette runs once around the hue wheel.
var DefaultPalette = Palette{
	{0.0, 0.0},
	{6.0, 0.04},
	{87.0, 0.14},
	{98.0, 0.42},
	{180.0, 0.56},
	{190.0, 0.70},
	{320.0, 0.84},
	{328.0, 0.91},
	{360.0, 1.0},
}

// Color returns the colour at t with chroma c and luminance l.
func (p Palette) Color(t, c, l float64) colorful.Color {
	for i := 0; i < len(p)-1; i++ {
		p1 := p[i]
		p2 := p[i+1]
		if p1.Pos <= t && t <= p2.Pos {
			h := (((t - p1.Pos) / (p2.Pos - p1.Pos)) * (p2.Hue - p1.Hue)) + p1.Hue
			return colorful.Hcl(h, c, l).Clamped()
		}
	}
	return colorful.Hcl(p[len(p)-1].Hue, c, l).Clamped()
}

// LayerColor picks a well separated colour for layer index i.
func (p Palette) LayerColor(i int) colorful.Color {
	_, t := math.Modf(float64(i) * 0.618033988749895)
	return p.Color(t, 0.6, 0.65)
}
