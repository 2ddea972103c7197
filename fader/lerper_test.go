package fader

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

func TestLerperJumpTo(t *testing.T) {
	l := NewFloatLerper(0, 1, 5)
	calls := 0
	l.OnDone(func() { calls++ })

	l.JumpTo(3)
	if l.Value() != 3 || l.Target() != 3 {
		t.Errorf("Value/Target = %v/%v, want 3/3", l.Value(), l.Target())
	}
	if !l.Done() {
		t.Errorf("Done = false, want true")
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}

	l.Tick(1.0 / 60)
	if calls != 1 {
		t.Errorf("callback fired again after JumpTo: %d", calls)
	}
}

func TestLerperTickMovesFractionOfGap(t *testing.T) {
	l := NewFloatLerper(0, 0, 5)
	l.LerpTo(1)
	if l.Done() {
		t.Fatalf("Done = true after retarget")
	}

	got := l.Tick(0.1)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Tick = %v, want 0.5", got)
	}
	if l.Value() != got {
		t.Errorf("Value = %v, want cached %v", l.Value(), got)
	}
}

func TestLerperLerpToIdempotent(t *testing.T) {
	once := NewFloatLerper(0, 0, 5)
	twice := NewFloatLerper(0, 0, 5)

	once.LerpTo(1)
	twice.LerpTo(1)
	once.Tick(0.1)
	twice.Tick(0.1)
	twice.LerpTo(1)

	for i := 0; i < 5; i++ {
		a := once.Tick(0.05)
		b := twice.Tick(0.05)
		if a != b {
			t.Fatalf("tick %d: %v != %v", i, a, b)
		}
	}
}

func TestLerperRetargetKeepsCurrent(t *testing.T) {
	l := NewFloatLerper(0, 1, 5)
	l.Tick(0.1)
	before := l.Value()

	l.LerpTo(-1)
	if l.Value() != before {
		t.Errorf("Value = %v, want unchanged %v", l.Value(), before)
	}
	if l.Done() {
		t.Errorf("Done = true, want false")
	}
	if l.Target() != -1 {
		t.Errorf("Target = %v, want -1", l.Target())
	}
}

func TestLerperConvergesAndFiresOnce(t *testing.T) {
	l := NewFloatLerper(0, 0, 5)
	calls := 0
	l.LerpTo(2)
	l.OnDone(func() { calls++ })

	for i := 0; i < 600 && !l.Done(); i++ {
		l.Tick(1.0 / 60)
	}
	if !l.Done() {
		t.Fatalf("lerper never finished, value %v", l.Value())
	}
	if l.Value() != 2 {
		t.Errorf("Value = %v, want exactly 2 after snapping", l.Value())
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}

	l.Tick(1.0 / 60)
	if calls != 1 {
		t.Errorf("callback calls = %d after extra tick, want 1", calls)
	}
}

func TestLerperLargeStepArrives(t *testing.T) {
	l := NewFloatLerper(0, 10, 5)
	if got := l.Tick(1); got != 10 {
		t.Errorf("Tick = %v, want 10", got)
	}
	if !l.Done() {
		t.Errorf("Done = false, want true")
	}
}

func TestLerperOnDoneFlushesPending(t *testing.T) {
	l := NewFloatLerper(0, 1, 5)
	first, second := 0, 0
	l.OnDone(func() { first++ })
	l.OnDone(func() { second++ })

	if first != 1 {
		t.Errorf("first = %d, want 1", first)
	}
	if second != 0 {
		t.Errorf("second = %d, want 0", second)
	}
}

func TestLerperOnDoneWhenAlreadyDone(t *testing.T) {
	l := NewFloatLerper(1, 1, 5)
	calls := 0
	l.OnDone(func() { calls++ })
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestLerperNegativeSpeedClamped(t *testing.T) {
	l := NewFloatLerper(0, 1, 5)
	l.SetSpeed(-3)
	if l.Speed() != 0 {
		t.Errorf("Speed = %v, want 0", l.Speed())
	}
	if got := l.Tick(1); got != 0 {
		t.Errorf("Tick = %v, want 0 with zero speed", got)
	}
}

func TestVec2LerperEqualityPolicy(t *testing.T) {
	l := NewVec2Lerper(mgl64.Vec2{0, 0}, mgl64.Vec2{0.005, 0}, 5)
	if !l.Done() {
		t.Errorf("Done = false for a target inside the epsilon")
	}

	l.LerpTo(mgl64.Vec2{0.002, 0.001})
	if !l.Done() {
		t.Errorf("retarget within epsilon restarted the lerper")
	}

	l.LerpTo(mgl64.Vec2{1, 1})
	for i := 0; i < 600 && !l.Done(); i++ {
		l.Tick(1.0 / 60)
	}
	if l.Value() != (mgl64.Vec2{1, 1}) {
		t.Errorf("Value = %v, want (1,1)", l.Value())
	}
}

func TestVec3Lerper(t *testing.T) {
	l := NewVec3Lerper(mgl64.Vec3{}, mgl64.Vec3{2, 0, 0}, 5)
	got := l.Tick(0.1)
	if math.Abs(got[0]-1) > 1e-12 {
		t.Errorf("x = %v, want 1", got[0])
	}
}

func TestQuatLerper(t *testing.T) {
	start := mgl64.QuatIdent()
	target := mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0})
	l := NewQuatLerper(start, target, 5)

	for i := 0; i < 600 && !l.Done(); i++ {
		l.Tick(1.0 / 60)
	}
	if !l.Done() {
		t.Fatalf("quat lerper never finished")
	}
	if a := QuatAngle(l.Value(), target); a > 1e-4 {
		t.Errorf("angle to target = %v, want 0", a)
	}
}

func TestQuatAngle(t *testing.T) {
	a := mgl64.QuatIdent()
	b := mgl64.QuatRotate(mgl64.DegToRad(30), mgl64.Vec3{0, 0, 1})
	if got := QuatAngle(a, b); math.Abs(got-30) > 1e-6 {
		t.Errorf("QuatAngle = %v, want 30", got)
	}
}

func TestColorLerper(t *testing.T) {
	black := colorful.Color{R: 0, G: 0, B: 0}
	white := colorful.Color{R: 1, G: 1, B: 1}
	l := NewColorLerper(black, white, 5)

	mid := l.Tick(0.1)
	if math.Abs(mid.R-0.5) > 1e-12 {
		t.Errorf("R = %v, want 0.5", mid.R)
	}
	for i := 0; i < 600 && !l.Done(); i++ {
		l.Tick(1.0 / 60)
	}
	if l.Value() != white {
		t.Errorf("Value = %v, want %v", l.Value(), white)
	}
}
