package fader

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultSeconds is the fade length used when none is given.
const DefaultSeconds = 1.0

// A Fader moves from a start value to a target over a fixed number of
// seconds, shaped by a Curve. The clock starts on the first Tick after a
// fade is requested, not when it is requested.
type Fader[T any] struct {
	interp Interpolator[T]
	curve  Curve

	current T
	start   T
	target  T

	seconds    float64
	active     float64
	timeFactor float64

	pendingStart bool
	running      bool
	startTime    float64
	ticked       bool
	lastTick     float64
	changed      bool

	done   bool
	onDone func()
}

// NewFader creates an idle Fader resting at value.
func NewFader[T any](interp Interpolator[T], value T, seconds float64) *Fader[T] {
	f := new(Fader[T])
	f.interp = interp
	f.curve = DefaultCurve()
	f.current = value
	f.start = value
	f.target = value
	f.done = true
	f.seconds = DefaultSeconds
	if seconds > 0 {
		f.seconds = seconds
	}
	f.active = f.seconds
	f.updateTimeFactor()
	return f
}

// NewFaderFromTo creates a Fader that fades from start to target on its
// first Tick.
func NewFaderFromTo[T any](interp Interpolator[T], start, target T, seconds float64) *Fader[T] {
	f := NewFader(interp, start, seconds)
	f.FadeFromTo(start, target, seconds, nil)
	return f
}

// NewFloatFader creates a scalar Fader with the default epsilon.
func NewFloatFader(value, seconds float64) *Fader[float64] {
	return NewFader[float64](Float{Epsilon: DefaultFloatEpsilon}, value, seconds)
}

// NewVec2Fader creates a 2D vector Fader with the default epsilon.
func NewVec2Fader(value mgl64.Vec2, seconds float64) *Fader[mgl64.Vec2] {
	return NewFader[mgl64.Vec2](Vec2{Epsilon: DefaultVecEpsilon}, value, seconds)
}

// NewVec3Fader creates a 3D vector Fader with the default epsilon.
func NewVec3Fader(value mgl64.Vec3, seconds float64) *Fader[mgl64.Vec3] {
	return NewFader[mgl64.Vec3](Vec3{Epsilon: DefaultVecEpsilon}, value, seconds)
}

// NewColorFader creates a colour Fader with the default epsilon.
func NewColorFader(value colorful.Color, seconds float64) *Fader[colorful.Color] {
	return NewFader[colorful.Color](Color{Epsilon: DefaultColorEpsilon}, value, seconds)
}

// Value returns the value computed by the last Tick.
func (f *Fader[T]) Value() T {
	return f.current
}

func (f *Fader[T]) Target() T {
	return f.target
}

func (f *Fader[T]) Done() bool {
	return f.done
}

// Changed reports whether the last Tick moved the value.
func (f *Fader[T]) Changed() bool {
	return f.changed
}

func (f *Fader[T]) Seconds() float64 {
	return f.seconds
}

// SetSeconds sets the length used by later FadeTo calls.
func (f *Fader[T]) SetSeconds(seconds float64) {
	if seconds > 0 {
		f.seconds = seconds
	}
}

func (f *Fader[T]) Curve() Curve {
	return f.curve
}

// SetCurve replaces the curve. A nil curve restores DefaultCurve.
func (f *Fader[T]) SetCurve(c Curve) {
	if c == nil {
		c = DefaultCurve()
	}
	f.curve = c
	f.updateTimeFactor()
}

// FadeTo fades from the current value to value over the configured
// seconds. Requesting the current target again does not restart the fade;
// onDone is then attached to the fade already under way.
func (f *Fader[T]) FadeTo(value T, onDone func()) T {
	return f.FadeToIn(value, f.seconds, onDone)
}

// FadeToIn is FadeTo with an explicit length. seconds <= 0 jumps.
func (f *Fader[T]) FadeToIn(value T, seconds float64, onDone func()) T {
	if f.interp.Equal(value, f.target) {
		f.attach(onDone)
		return f.current
	}
	f.setup(f.current, value, seconds, onDone)
	return f.current
}

// FadeFromTo always restarts, fading from start to target.
func (f *Fader[T]) FadeFromTo(start, target T, seconds float64, onDone func()) T {
	f.setup(start, target, seconds, onDone)
	return f.current
}

// JumpTo moves straight to value and completes any fade in progress.
func (f *Fader[T]) JumpTo(value T) T {
	f.current = value
	f.start = value
	f.target = value
	f.pendingStart = false
	f.running = false
	f.done = true
	f.flush()
	return f.current
}

// Tick advances the fade to the timestamp now (seconds on the caller's
// clock) and returns the new value. Repeated ticks at the same timestamp
// return the cached value.
func (f *Fader[T]) Tick(now float64) T {
	f.changed = false
	if f.pendingStart {
		f.pendingStart = false
		f.running = true
		f.startTime = now
		f.ticked = false
	}
	if f.done || !f.running || (f.ticked && now == f.lastTick) {
		return f.current
	}
	f.ticked = true
	f.lastTick = now

	elapsed := (now - f.startTime) * f.timeFactor
	if d := f.curve.Duration(); d <= 0 || elapsed > d {
		f.current = f.target
		f.running = false
		f.done = true
		f.changed = true
		f.flush()
		return f.current
	}

	f.current = f.interp.Lerp(f.start, f.target, f.curve.Evaluate(elapsed))
	f.changed = true
	return f.current
}

func (f *Fader[T]) setup(start, target T, seconds float64, onDone func()) {
	// Never drop a callback from the fade being replaced.
	f.flush()

	if seconds <= 0 {
		f.start = target
		f.target = target
		f.current = target
		f.pendingStart = false
		f.running = false
		f.done = true
		f.changed = true
		if onDone != nil {
			onDone()
		}
		return
	}

	f.start = start
	f.target = target
	f.current = start
	f.active = seconds
	f.updateTimeFactor()
	f.done = false
	f.running = false
	f.pendingStart = true
	f.onDone = onDone
}

func (f *Fader[T]) attach(onDone func()) {
	if onDone == nil {
		return
	}
	if f.done {
		onDone()
		return
	}
	if prev := f.onDone; prev != nil {
		f.onDone = func() {
			prev()
			onDone()
		}
		return
	}
	f.onDone = onDone
}

func (f *Fader[T]) updateTimeFactor() {
	f.timeFactor = f.curve.Duration() / f.active
}

func (f *Fader[T]) flush() {
	if fn := f.onDone; fn != nil {
		f.onDone = nil
		fn()
	}
}
