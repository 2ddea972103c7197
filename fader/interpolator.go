package fader

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Default equality limits for the built-in interpolators.
const (
	DefaultFloatEpsilon = 0.0001
	DefaultVecEpsilon   = 0.01
	DefaultQuatEpsilon  = 0.01 // degrees
	DefaultColorEpsilon = 0.001
)

// An Interpolator supplies the blend and equality policy for a value type.
type Interpolator[T any] interface {
	// Lerp blends a towards b by t, where t is in [0, 1].
	Lerp(a, b T, t float64) T
	// Equal reports whether a and b are close enough to count as arrived.
	Equal(a, b T) bool
}

// Float interpolates scalars and compares them with an absolute epsilon.
type Float struct {
	Epsilon float64
}

func (f Float) Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func (f Float) Equal(a, b float64) bool {
	return math.Abs(a-b) < f.Epsilon
}

// Vec2 compares by squared distance against Epsilon².
type Vec2 struct {
	Epsilon float64
}

func (v Vec2) Lerp(a, b mgl64.Vec2, t float64) mgl64.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

func (v Vec2) Equal(a, b mgl64.Vec2) bool {
	d := a.Sub(b)
	return d.Dot(d) < v.Epsilon*v.Epsilon
}

// Vec3 compares by squared distance against Epsilon².
type Vec3 struct {
	Epsilon float64
}

func (v Vec3) Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func (v Vec3) Equal(a, b mgl64.Vec3) bool {
	d := a.Sub(b)
	return d.Dot(d) < v.Epsilon*v.Epsilon
}

// Quat blends rotations with a normalised lerp and compares them by the
// angle between them, in degrees.
type Quat struct {
	Epsilon float64
}

func (q Quat) Lerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	return mgl64.QuatNlerp(a, b, t)
}

func (q Quat) Equal(a, b mgl64.Quat) bool {
	return QuatAngle(a, b) < q.Epsilon
}

// QuatAngle returns the angle in degrees between two rotations.
func QuatAngle(a, b mgl64.Quat) float64 {
	dot := math.Abs(a.Normalize().Dot(b.Normalize()))
	if dot > 1 {
		dot = 1
	}
	return mgl64.RadToDeg(2 * math.Acos(dot))
}

// Color blends in RGB space and compares every channel against Epsilon.
type Color struct {
	Epsilon float64
}

func (c Color) Lerp(a, b colorful.Color, t float64) colorful.Color {
	return a.BlendRgb(b, t)
}

func (c Color) Equal(a, b colorful.Color) bool {
	return math.Abs(a.R-b.R) < c.Epsilon &&
		math.Abs(a.G-b.G) < c.Epsilon &&
		math.Abs(a.B-b.B) < c.Epsilon
}
