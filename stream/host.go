package stream

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/matt-g-everett/animlayers/layers"
)

var ErrUnknownClip = errors.New("stream: unknown clip")

// SimHost is an in-process animation runtime. It keeps a clip library and
// one slot per mixer layer, and moves playing cursors when advanced.
type SimHost struct {
	clips map[string]float64
	slots []*slot
}

type slot struct {
	weight float64
	source *simSource
}

type simSource struct {
	clip     string
	duration float64
	cursor   float64
	rate     float64
	playing  bool
}

// SlotState is a snapshot of one host slot.
type SlotState struct {
	Clip     string
	Bound    bool
	Weight   float64
	Cursor   float64
	Duration float64
	Rate     float64
	Playing  bool
}

// NewSimHost creates an instance of a SimHost holding clips.
func NewSimHost(clips []Clip) *SimHost {
	h := new(SimHost)
	h.clips = make(map[string]float64, len(clips))
	for _, c := range clips {
		h.clips[c.Name] = c.Duration
	}
	return h
}

// Clips returns the library's clip names in sorted order.
func (h *SimHost) Clips() []string {
	names := make([]string, 0, len(h.clips))
	for name := range h.clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *SimHost) BindSource(id int, clip string) (layers.Source, error) {
	duration, ok := h.clips[clip]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClip, clip)
	}
	s := h.slot(id)
	s.source = &simSource{clip: clip, duration: duration, rate: 1}
	return s.source, nil
}

func (h *SimHost) SetMixWeight(id int, weight float64) {
	h.slot(id).weight = weight
}

func (h *SimHost) Release(id int) {
	if id >= 0 && id < len(h.slots) {
		h.slots = append(h.slots[:id], h.slots[id+1:]...)
	}
}

// Advance moves every playing cursor by rate*dt, wrapping at the clip end.
func (h *SimHost) Advance(dt float64) {
	for _, s := range h.slots {
		src := s.source
		if src == nil || !src.playing || src.duration <= 0 {
			continue
		}
		c := math.Mod(src.cursor+src.rate*dt, src.duration)
		if c < 0 {
			c += src.duration
		}
		src.cursor = c
	}
}

func (h *SimHost) Slots() []SlotState {
	out := make([]SlotState, len(h.slots))
	for i, s := range h.slots {
		out[i].Weight = s.weight
		if src := s.source; src != nil {
			out[i].Clip = src.clip
			out[i].Bound = true
			out[i].Cursor = src.cursor
			out[i].Duration = src.duration
			out[i].Rate = src.rate
			out[i].Playing = src.playing
		}
	}
	return out
}

func (h *SimHost) slot(id int) *slot {
	for len(h.slots) <= id {
		h.slots = append(h.slots, new(slot))
	}
	return h.slots[id]
}

func (s *simSource) Duration() float64 {
	return s.duration
}

func (s *simSource) Time() float64 {
	return s.cursor
}

// SetCursor clamps seconds to the clip.
func (s *simSource) SetCursor(seconds float64) {
	s.cursor = math.Max(0, math.Min(seconds, s.duration))
}

func (s *simSource) SetPlaybackRate(rate float64) {
	s.rate = rate
}

func (s *simSource) Play() {
	s.playing = true
}

func (s *simSource) Pause() {
	s.playing = false
}
