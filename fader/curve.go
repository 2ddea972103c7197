package fader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fogleman/ease"
	"github.com/matt-g-everett/animlayers/util"
)

// ErrUnknownCurve is returned by CurveByName for names with no preset.
var ErrUnknownCurve = errors.New("fader: unknown curve")

// A Curve maps elapsed curve time onto fade progress. Evaluate is expected
// to be monotonic non-decreasing on [0, Duration()], starting at 0 and
// ending at 1.
type Curve interface {
	Evaluate(t float64) float64
	Duration() float64
}

// Keyframe is a control point of a KeyframeCurve.
type Keyframe struct {
	Time       float64
	Value      float64
	InTangent  float64
	OutTangent float64
}

// KeyframeCurve is a cubic Hermite spline through its keys, which must be
// sorted by Time.
type KeyframeCurve []Keyframe

// DefaultCurve returns the ease-out shape used when no curve is configured.
func DefaultCurve() KeyframeCurve {
	return KeyframeCurve{
		{0, 0, 0, 0},
		{0.1301245, 0.1734855, 2.954247, 2.954247},
		{0.4551825, 0.8159907, 0.8537326, 0.8537326},
		{1, 1, 0, 0},
	}
}

// Duration is the time of the last key.
func (c KeyframeCurve) Duration() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Time
}

// Evaluate samples the curve at t, holding the end values outside the keys.
func (c KeyframeCurve) Evaluate(t float64) float64 {
	switch {
	case len(c) == 0:
		return 0
	case t <= c[0].Time:
		return c[0].Value
	case t >= c[len(c)-1].Time:
		return c[len(c)-1].Value
	}

	// First key strictly after t; t sits between i-1 and i.
	i := sort.Search(len(c), func(i int) bool { return c[i].Time > t })
	k0, k1 := c[i-1], c[i]
	dt := k1.Time - k0.Time
	if dt <= 0 {
		return k1.Value
	}

	s := (t - k0.Time) / dt
	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*k0.Value + h10*dt*k0.OutTangent + h01*k1.Value + h11*dt*k1.InTangent
}

// EaseCurve adapts an easing function to a Curve of unit duration.
type EaseCurve util.EaseFunc

func (e EaseCurve) Duration() float64 {
	return 1
}

func (e EaseCurve) Evaluate(t float64) float64 {
	return e(clamp01(t))
}

// SampledCurve is a look-up table evaluated with linear interpolation
// between evenly spaced samples over a unit duration.
type SampledCurve []float64

func (s SampledCurve) Duration() float64 {
	return 1
}

func (s SampledCurve) Evaluate(t float64) float64 {
	switch len(s) {
	case 0:
		return clamp01(t)
	case 1:
		return s[0]
	}

	pos := clamp01(t) * float64(len(s)-1)
	i := int(pos)
	if i >= len(s)-1 {
		return s[len(s)-1]
	}
	frac := pos - float64(i)
	return s[i] + (s[i+1]-s[i])*frac
}

// lutLength is the resolution of preset curves sampled into tables.
const lutLength = 256

var lutCache = util.NewMemoizer()

var presets = map[string]util.EaseFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inOutSine":  ease.InOutSine,
}

// CurveByName resolves a curve preset. "" and "default" give DefaultCurve;
// the remaining names are easing functions sampled into a shared table.
func CurveByName(name string) (Curve, error) {
	if name == "" || name == "default" {
		return DefaultCurve(), nil
	}

	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}
	return SampledCurve(lutCache.Lut(name, lutLength, fn)), nil
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
