package layers

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidIndex  = errors.New("layers: invalid layer index")
	ErrUnboundSource = errors.New("layers: layer has no bound source")
)

// DefaultSettleFactor sets how fast ScrubTo chases its target: the chase
// speed is DefaultSettleFactor/seconds, which closes all but about 3e-4 of
// the gap within the requested seconds.
const DefaultSettleFactor = 8.0

// A Mixer owns an ordered list of layers and is the only thing that talks to
// the host on their behalf. Every operation validates the layer index; an
// invalid index is logged, returned as ErrInvalidIndex and changes nothing.
type Mixer struct {
	host         Host
	layers       []*layer
	settleFactor float64
}

// NewMixer creates an empty Mixer over host.
func NewMixer(host Host) *Mixer {
	m := new(Mixer)
	m.host = host
	m.settleFactor = DefaultSettleFactor
	return m
}

// SetSettleFactor tunes the ScrubTo chase speed. Non-positive values are
// ignored.
func (m *Mixer) SetSettleFactor(f float64) {
	if f > 0 {
		m.settleFactor = f
	}
}

func (m *Mixer) LayerCount() int {
	return len(m.layers)
}

// AddLayer appends a layer, binds its clip and applies its weight. A failed
// bind leaves the layer in place but unbound; the index is valid either way.
func (m *Mixer) AddLayer(cfg LayerConfig) (int, error) {
	id := len(m.layers)
	l := newLayer(cfg)
	m.layers = append(m.layers, l)

	var err error
	if cfg.Clip != "" {
		var source Source
		source, err = m.host.BindSource(id, cfg.Clip)
		if err != nil {
			log.Warn().Err(err).Int("layer", id).Str("clip", cfg.Clip).Msg("layers: bind failed")
			err = fmt.Errorf("layers: bind %q to layer %d: %w", cfg.Clip, id, err)
		} else {
			l.bind(source)
		}
	}

	m.host.SetMixWeight(id, l.inputWeight)
	if l.bound() {
		l.source.SetPlaybackRate(l.speed)
		l.source.SetCursor(l.value * l.duration)
	}
	return id, err
}

// RemoveLayer deletes a layer. Later layers shift down by one, so anchors
// pointing past the end no longer resolve.
func (m *Mixer) RemoveLayer(id int) error {
	if err := m.check(id, "removeLayer"); err != nil {
		return err
	}
	m.layers = append(m.layers[:id], m.layers[id+1:]...)
	m.host.Release(id)
	return nil
}

// Layer returns a snapshot of layer id.
func (m *Mixer) Layer(id int) (LayerState, error) {
	if err := m.check(id, "layer"); err != nil {
		return LayerState{}, err
	}
	return m.layers[id].state(), nil
}

// Layers returns a snapshot of every layer.
func (m *Mixer) Layers() []LayerState {
	out := make([]LayerState, len(m.layers))
	for i, l := range m.layers {
		out[i] = l.state()
	}
	return out
}

// Position returns the normalised playback position of layer id, read from
// the host cursor when a source is bound.
func (m *Mixer) Position(id int) (float64, error) {
	if err := m.check(id, "position"); err != nil {
		return 0, err
	}
	l := m.layers[id]
	if !l.bound() || l.duration <= 0 {
		return l.value, nil
	}
	return l.source.Time() / l.duration, nil
}

// Scrub jumps layer id to normalised time t and stops any ScrubTo chase.
func (m *Mixer) Scrub(id int, t float64) error {
	if err := m.check(id, "scrub"); err != nil {
		return err
	}
	m.layers[id].fader.JumpTo(t)
	m.scrub(m.layers[id], t)
	return nil
}

// ScrubWeighted sets the weight of layer id and scrubs it to t.
func (m *Mixer) ScrubWeighted(id int, t, weight float64) error {
	if err := m.SetInputWeight(id, weight); err != nil {
		return err
	}
	return m.Scrub(id, t)
}

// ScrubTo chases normalised time t so that it settles in about seconds.
// seconds <= 0 scrubs immediately.
func (m *Mixer) ScrubTo(id int, t, seconds float64) error {
	if seconds <= 0 {
		return m.Scrub(id, t)
	}
	if err := m.check(id, "scrubTo"); err != nil {
		return err
	}

	l := m.layers[id]
	if l.mode == Playing {
		// Chase from wherever playback left the cursor.
		from := l.value
		if l.bound() && l.duration > 0 {
			from = l.source.Time() / l.duration
		}
		l.value = from
		l.fader.JumpTo(from)
	}
	l.mode = Scrubbing
	l.fader.LerpToAt(t, m.settleFactor/seconds)
	return nil
}

// SetInputWeight stores the weight of layer id and applies it to the host.
func (m *Mixer) SetInputWeight(id int, weight float64) error {
	if err := m.check(id, "setInputWeight"); err != nil {
		return err
	}
	m.layers[id].inputWeight = weight
	m.host.SetMixWeight(id, weight)
	return nil
}

// SetInputWeightClamped is SetInputWeight for values coming from a UI
// control, clamped to [MinUIWeight, MaxUIWeight].
func (m *Mixer) SetInputWeightClamped(id int, weight float64) error {
	if weight < MinUIWeight {
		weight = MinUIWeight
	} else if weight > MaxUIWeight {
		weight = MaxUIWeight
	}
	return m.SetInputWeight(id, weight)
}

// SetSpeed stores the playback rate of layer id and applies it to the bound
// source, if any.
func (m *Mixer) SetSpeed(id int, speed float64) error {
	if err := m.check(id, "setSpeed"); err != nil {
		return err
	}
	l := m.layers[id]
	l.speed = speed
	if l.bound() {
		l.source.SetPlaybackRate(speed)
	}
	return nil
}

func (m *Mixer) SetAutoPlay(id int, autoPlay bool) error {
	if err := m.check(id, "setAutoPlay"); err != nil {
		return err
	}
	m.layers[id].autoPlay = autoPlay
	return nil
}

// Play starts layer id from its current cursor, re-applying its speed and
// weight.
func (m *Mixer) Play(id int) error {
	if err := m.checkBound(id, "play"); err != nil {
		return err
	}
	l := m.layers[id]
	l.mode = Playing
	l.source.SetPlaybackRate(l.speed)
	m.host.SetMixWeight(id, l.inputWeight)
	l.source.Play()
	return nil
}

// PlayWeighted stores weight for layer id and plays it.
func (m *Mixer) PlayWeighted(id int, weight float64) error {
	if err := m.checkBound(id, "play"); err != nil {
		return err
	}
	m.layers[id].inputWeight = weight
	return m.Play(id)
}

// PlayFrom seeks layer id to seconds on the host cursor and plays it.
func (m *Mixer) PlayFrom(id int, seconds float64) error {
	if err := m.checkBound(id, "playFrom"); err != nil {
		return err
	}
	l := m.layers[id]
	l.source.SetCursor(seconds)
	if l.duration > 0 {
		l.value = seconds / l.duration
	}
	return m.Play(id)
}

// PlayAll plays every bound layer.
func (m *Mixer) PlayAll() error {
	var errs []error
	for id, l := range m.layers {
		if l.bound() {
			errs = append(errs, m.Play(id))
		}
	}
	return errors.Join(errs...)
}

// Pause holds layer id at its cursor. The layer stays in Playing mode.
func (m *Mixer) Pause(id int) error {
	if err := m.checkBound(id, "pause"); err != nil {
		return err
	}
	l := m.layers[id]
	l.mode = Playing
	m.host.SetMixWeight(id, l.inputWeight)
	l.source.Pause()
	return nil
}

// PauseWeighted stores weight for layer id and pauses it.
func (m *Mixer) PauseWeighted(id int, weight float64) error {
	if err := m.checkBound(id, "pause"); err != nil {
		return err
	}
	m.layers[id].inputWeight = weight
	return m.Pause(id)
}

// PauseAll pauses every bound layer.
func (m *Mixer) PauseAll() error {
	var errs []error
	for id, l := range m.layers {
		if l.bound() {
			errs = append(errs, m.Pause(id))
		}
	}
	return errors.Join(errs...)
}

// Start plays every bound layer flagged AutoPlay.
func (m *Mixer) Start() error {
	var errs []error
	for id, l := range m.layers {
		if l.autoPlay && l.bound() {
			errs = append(errs, m.Play(id))
		}
	}
	return errors.Join(errs...)
}

// ReplaceClip rebinds layer id to clip. A playing layer restarts from 0 on
// the new source. An empty clip unbinds the layer.
func (m *Mixer) ReplaceClip(id int, clip string) error {
	if err := m.check(id, "replaceClip"); err != nil {
		return err
	}
	l := m.layers[id]

	var source Source
	if clip != "" {
		var err error
		source, err = m.host.BindSource(id, clip)
		if err != nil {
			log.Warn().Err(err).Int("layer", id).Str("clip", clip).Msg("layers: replace failed")
			return fmt.Errorf("layers: bind %q to layer %d: %w", clip, id, err)
		}
	}

	l.clip = clip
	l.bind(source)
	m.host.SetMixWeight(id, l.inputWeight)
	if !l.bound() {
		return nil
	}

	l.source.SetPlaybackRate(l.speed)
	if l.mode == Playing {
		l.value = 0
		l.fader.JumpTo(0)
		l.source.SetCursor(0)
		l.source.Play()
	} else {
		l.source.SetCursor(l.value * l.duration)
	}
	return nil
}

// Update advances every ScrubTo chase by dt seconds and scrubs the layers
// to their new values.
func (m *Mixer) Update(dt float64) {
	for _, l := range m.layers {
		if l.mode != Scrubbing || l.fader.Done() {
			continue
		}
		m.scrub(l, l.fader.Tick(dt))
	}
}

func (m *Mixer) scrub(l *layer, t float64) {
	l.value = t
	l.mode = Scrubbing
	if l.bound() {
		l.source.Pause()
		l.source.SetCursor(l.duration * t)
	}
}

func (m *Mixer) check(id int, op string) error {
	if id < 0 || id >= len(m.layers) {
		log.Warn().Str("op", op).Int("layer", id).Int("count", len(m.layers)).Msg("layers: layer does not exist")
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, id, len(m.layers))
	}
	return nil
}

func (m *Mixer) checkBound(id int, op string) error {
	if err := m.check(id, op); err != nil {
		return err
	}
	if !m.layers[id].bound() {
		log.Warn().Str("op", op).Int("layer", id).Msg("layers: no source bound")
		return fmt.Errorf("%w: layer %d", ErrUnboundSource, id)
	}
	return nil
}
