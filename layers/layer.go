package layers

import (
	"github.com/matt-g-everett/animlayers/fader"
)

// Mode is the transport state of a layer.
type Mode int

const (
	Scrubbing Mode = iota
	Playing
)

func (m Mode) String() string {
	switch m {
	case Scrubbing:
		return "scrubbing"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Weight bounds for writes coming from a UI control.
const (
	MinUIWeight = 0.0
	MaxUIWeight = 10.0
)

// LayerConfig describes a layer to add to a Mixer.
type LayerConfig struct {
	Clip     string
	Value    float64
	Weight   float64
	Speed    float64
	AutoPlay bool
}

// LayerState is a read-only snapshot of one layer.
type LayerState struct {
	Clip        string  `json:"clip"`
	Bound       bool    `json:"bound"`
	Duration    float64 `json:"duration"`
	Value       float64 `json:"value"`
	InputWeight float64 `json:"inputWeight"`
	Speed       float64 `json:"speed"`
	AutoPlay    bool    `json:"autoPlay"`
	Mode        Mode    `json:"mode"`
	Fading      bool    `json:"fading"`
}

type layer struct {
	clip        string
	source      Source
	duration    float64
	value       float64
	inputWeight float64
	speed       float64
	autoPlay    bool
	mode        Mode
	fader       *fader.Lerper[float64]
}

func newLayer(cfg LayerConfig) *layer {
	l := new(layer)
	l.clip = cfg.Clip
	l.value = cfg.Value
	l.inputWeight = cfg.Weight
	l.speed = cfg.Speed
	l.autoPlay = cfg.AutoPlay
	l.mode = Scrubbing
	l.fader = fader.NewFloatLerper(cfg.Value, cfg.Value, 1)
	return l
}

func (l *layer) bind(source Source) {
	l.source = source
	l.duration = 0
	if source != nil {
		if d := source.Duration(); d > 0 {
			l.duration = d
		}
	}
}

func (l *layer) bound() bool {
	return l.source != nil
}

func (l *layer) state() LayerState {
	return LayerState{
		Clip:        l.clip,
		Bound:       l.bound(),
		Duration:    l.duration,
		Value:       l.value,
		InputWeight: l.inputWeight,
		Speed:       l.speed,
		AutoPlay:    l.autoPlay,
		Mode:        l.mode,
		Fading:      l.mode == Scrubbing && !l.fader.Done(),
	}
}
