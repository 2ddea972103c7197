package fader

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultSpeed is the chase speed of a Lerper created without one.
const DefaultSpeed = 5.0

// A Lerper continuously chases a target value. Each Tick closes speed*dt
// of the remaining gap, so there is no fixed completion time; re-targeting
// keeps the current value and simply starts chasing the new target.
type Lerper[T any] struct {
	interp  Interpolator[T]
	current T
	target  T
	speed   float64
	done    bool
	onDone  func()
}

// NewLerper creates a Lerper at start chasing target.
func NewLerper[T any](interp Interpolator[T], start, target T, speed float64) *Lerper[T] {
	l := new(Lerper[T])
	l.interp = interp
	l.current = start
	l.target = target
	l.speed = speed
	l.done = interp.Equal(start, target)
	if l.done {
		l.current = target
	}
	return l
}

// NewFloatLerper creates a scalar Lerper with the default epsilon.
func NewFloatLerper(start, target, speed float64) *Lerper[float64] {
	return NewLerper[float64](Float{Epsilon: DefaultFloatEpsilon}, start, target, speed)
}

// NewVec2Lerper creates a 2D vector Lerper with the default epsilon.
func NewVec2Lerper(start, target mgl64.Vec2, speed float64) *Lerper[mgl64.Vec2] {
	return NewLerper[mgl64.Vec2](Vec2{Epsilon: DefaultVecEpsilon}, start, target, speed)
}

// NewVec3Lerper creates a 3D vector Lerper with the default epsilon.
func NewVec3Lerper(start, target mgl64.Vec3, speed float64) *Lerper[mgl64.Vec3] {
	return NewLerper[mgl64.Vec3](Vec3{Epsilon: DefaultVecEpsilon}, start, target, speed)
}

// NewQuatLerper creates a rotation Lerper with the default angular epsilon.
func NewQuatLerper(start, target mgl64.Quat, speed float64) *Lerper[mgl64.Quat] {
	return NewLerper[mgl64.Quat](Quat{Epsilon: DefaultQuatEpsilon}, start, target, speed)
}

// NewColorLerper creates a colour Lerper with the default epsilon.
func NewColorLerper(start, target colorful.Color, speed float64) *Lerper[colorful.Color] {
	return NewLerper[colorful.Color](Color{Epsilon: DefaultColorEpsilon}, start, target, speed)
}

// Value returns the value computed by the last Tick.
func (l *Lerper[T]) Value() T {
	return l.current
}

func (l *Lerper[T]) Target() T {
	return l.target
}

func (l *Lerper[T]) Done() bool {
	return l.done
}

func (l *Lerper[T]) Speed() float64 {
	return l.speed
}

func (l *Lerper[T]) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	l.speed = speed
}

// SetInterpolator swaps the equality and blend policy, e.g. to tune the
// epsilon of a running Lerper.
func (l *Lerper[T]) SetInterpolator(interp Interpolator[T]) {
	l.interp = interp
}

// LerpTo starts chasing value. Asking for the current target again is a
// no-op.
func (l *Lerper[T]) LerpTo(value T) T {
	if !l.interp.Equal(l.target, value) {
		l.target = value
		l.done = false
	}
	return l.current
}

// LerpToAt is LerpTo with a new speed.
func (l *Lerper[T]) LerpToAt(value T, speed float64) T {
	l.SetSpeed(speed)
	return l.LerpTo(value)
}

// OnDone installs fn to be called once when the Lerper arrives. A callback
// still pending from an earlier request is fired first.
func (l *Lerper[T]) OnDone(fn func()) {
	l.flush()
	if fn != nil && l.done {
		fn()
		return
	}
	l.onDone = fn
}

// JumpTo sets the current and target value in one step.
func (l *Lerper[T]) JumpTo(value T) T {
	l.current = value
	l.target = value
	l.done = true
	l.flush()
	return l.current
}

// Tick advances the chase by dt seconds and returns the new value.
func (l *Lerper[T]) Tick(dt float64) T {
	if l.done {
		return l.current
	}

	if !l.interp.Equal(l.current, l.target) {
		t := l.speed * dt
		if t > 1 {
			t = 1
		} else if t < 0 {
			t = 0
		}
		l.current = l.interp.Lerp(l.current, l.target, t)
	}

	if l.interp.Equal(l.current, l.target) {
		l.current = l.target
		l.done = true
		l.flush()
	}
	return l.current
}

func (l *Lerper[T]) flush() {
	if fn := l.onDone; fn != nil {
		l.onDone = nil
		fn()
	}
}
