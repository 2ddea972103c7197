package blend

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/matt-g-everett/animlayers/fader"
	"github.com/rs/zerolog/log"
)

// ErrInvalidIndex is returned for anchor indices outside the anchor set.
var ErrInvalidIndex = errors.New("blend: invalid anchor index")

// Detached is the SourceID of an anchor whose layer was removed.
const Detached = -1

// An AnchorPoint places a mixer layer in the blend space. SourceID is an
// index into the mixer's layers; Detached and out-of-range values take no
// part in the solve.
type AnchorPoint struct {
	Position      mgl64.Vec2 `json:"position"`
	SourceID      int        `json:"sourceId"`
	CurrentWeight float64    `json:"currentWeight"`
}

// Mixer is the part of the layered mixer a Tree pushes weights into.
type Mixer interface {
	LayerCount() int
	SetInputWeight(layerID int, weight float64) error
}

// DefaultAnchors is the unit square with one corner per layer 0..3.
func DefaultAnchors() []AnchorPoint {
	return []AnchorPoint{
		{Position: mgl64.Vec2{0, 0}, SourceID: 0},
		{Position: mgl64.Vec2{1, 0}, SourceID: 1},
		{Position: mgl64.Vec2{0, 1}, SourceID: 2},
		{Position: mgl64.Vec2{1, 1}, SourceID: 3},
	}
}

// A Tree solves anchor weights for its sample point every Update and pushes
// them into the mixer.
//
// Anchors whose SourceID is outside the mixer's layer range take no part in
// the solve and report a weight of 0. Anchors sharing a layer have their
// weights summed before the push.
type Tree struct {
	mixer   Mixer
	anchors []AnchorPoint
	sample  mgl64.Vec2
	steer   *fader.Lerper[mgl64.Vec2]
}

// NewTree creates a Tree over mixer. With no anchors the default square is
// used. The sample point starts at the centre of the unit square.
func NewTree(mixer Mixer, anchors []AnchorPoint) *Tree {
	t := new(Tree)
	t.mixer = mixer
	if len(anchors) == 0 {
		anchors = DefaultAnchors()
	}
	t.anchors = append([]AnchorPoint(nil), anchors...)
	t.sample = mgl64.Vec2{0.5, 0.5}
	t.steer = fader.NewVec2Lerper(t.sample, t.sample, fader.DefaultSpeed)
	return t
}

// Sample returns the current sample point.
func (t *Tree) Sample() mgl64.Vec2 {
	return t.sample
}

// SetSample moves the sample point immediately, cancelling any steering.
func (t *Tree) SetSample(p mgl64.Vec2) {
	t.sample = p
	t.steer.JumpTo(p)
}

// SteerTo chases p at speed over the following Updates.
func (t *Tree) SteerTo(p mgl64.Vec2, speed float64) {
	t.steer.LerpToAt(p, speed)
}

// Steering reports whether the sample point is still moving.
func (t *Tree) Steering() bool {
	return !t.steer.Done()
}

func (t *Tree) AnchorCount() int {
	return len(t.anchors)
}

// Anchors returns a copy of the anchor set.
func (t *Tree) Anchors() []AnchorPoint {
	return append([]AnchorPoint(nil), t.anchors...)
}

func (t *Tree) Anchor(i int) (AnchorPoint, error) {
	if err := t.check(i, "anchor"); err != nil {
		return AnchorPoint{}, err
	}
	return t.anchors[i], nil
}

// AddAnchor appends an anchor and returns its index.
func (t *Tree) AddAnchor(position mgl64.Vec2, sourceID int) int {
	t.anchors = append(t.anchors, AnchorPoint{Position: position, SourceID: sourceID})
	return len(t.anchors) - 1
}

// SetAnchor moves anchor i and points it at sourceID.
func (t *Tree) SetAnchor(i int, position mgl64.Vec2, sourceID int) error {
	if err := t.check(i, "setAnchor"); err != nil {
		return err
	}
	t.anchors[i].Position = position
	t.anchors[i].SourceID = sourceID
	return nil
}

// RemoveAnchor deletes anchor i; later anchors shift down by one.
func (t *Tree) RemoveAnchor(i int) error {
	if err := t.check(i, "removeAnchor"); err != nil {
		return err
	}
	t.anchors = append(t.anchors[:i], t.anchors[i+1:]...)
	return nil
}

// LayerRemoved renumbers anchors after mixer layer id has been removed.
// Anchors on id are detached and anchors on later layers shift down by one,
// so no anchor ends up driving a different layer.
func (t *Tree) LayerRemoved(id int) {
	for i := range t.anchors {
		a := &t.anchors[i]
		switch {
		case a.SourceID == id:
			a.SourceID = Detached
			a.CurrentWeight = 0
		case a.SourceID > id:
			a.SourceID--
		}
	}
}

// Recompute solves the weights for sample without touching the mixer or
// the stored anchor weights. The result is parallel to Anchors().
func (t *Tree) Recompute(sample mgl64.Vec2) []float64 {
	weights := make([]float64, len(t.anchors))
	layerCount := t.mixer.LayerCount()

	positions := make([]mgl64.Vec2, 0, len(t.anchors))
	live := make([]int, 0, len(t.anchors))
	for i, a := range t.anchors {
		if a.SourceID < 0 || a.SourceID >= layerCount {
			continue
		}
		positions = append(positions, a.Position)
		live = append(live, i)
	}
	if len(positions) == 0 {
		return weights
	}

	for k, w := range Solve(sample, positions) {
		weights[live[k]] = w
	}
	return weights
}

// Update advances steering by dt seconds, solves the weights for the sample
// point and pushes them into the mixer.
func (t *Tree) Update(dt float64) {
	if !t.steer.Done() {
		t.sample = t.steer.Tick(dt)
	}

	weights := t.Recompute(t.sample)
	perLayer := make(map[int]float64, len(weights))
	order := make([]int, 0, len(weights))
	for i := range t.anchors {
		t.anchors[i].CurrentWeight = weights[i]
		id := t.anchors[i].SourceID
		if id < 0 || id >= t.mixer.LayerCount() {
			continue
		}
		if _, seen := perLayer[id]; !seen {
			order = append(order, id)
		}
		perLayer[id] += weights[i]
	}

	for _, id := range order {
		if err := t.mixer.SetInputWeight(id, perLayer[id]); err != nil {
			log.Warn().Err(err).Int("layer", id).Msg("blend: weight push failed")
		}
	}
}

func (t *Tree) check(i int, op string) error {
	if i < 0 || i >= len(t.anchors) {
		log.Warn().Str("op", op).Int("anchor", i).Int("count", len(t.anchors)).Msg("blend: anchor does not exist")
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, i, len(t.anchors))
	}
	return nil
}
