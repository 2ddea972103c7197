package stream

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v2"

	"github.com/matt-g-everett/animlayers/fader"
	"github.com/matt-g-everett/animlayers/layers"
)

var ErrInvalidConfig = errors.New("stream: invalid config")

// Config is the YAML file read at startup.
type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		ClientID string `yaml:"clientId"`
		// CommandRate limits commands accepted per second; CommandBurst
		// is the size of the bucket.
		CommandRate  float64 `yaml:"commandRate"`
		CommandBurst int     `yaml:"commandBurst"`
		Topics       struct {
			Stream  string `yaml:"stream"`
			Command string `yaml:"command"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
	FrameRate float64      `yaml:"frameRate"`
	Fade      FadeConfig   `yaml:"fade"`
	Clips     []Clip       `yaml:"clips"`
	Layers    []LayerSpec  `yaml:"layers"`
	Anchors   []AnchorSpec `yaml:"anchors"`
	Sample    *Point       `yaml:"sample"`
}

type FadeConfig struct {
	Curve   string  `yaml:"curve"`
	Seconds float64 `yaml:"seconds"`
	Settle  float64 `yaml:"settle"`
}

// Clip is an entry in the simulated host's clip library.
type Clip struct {
	Name     string  `yaml:"name"`
	Duration float64 `yaml:"duration"`
}

// LayerSpec describes a layer to create at startup. Speed defaults to 1 when
// omitted.
type LayerSpec struct {
	Clip     string   `yaml:"clip"`
	Value    float64  `yaml:"value"`
	Weight   float64  `yaml:"weight"`
	Speed    *float64 `yaml:"speed"`
	AutoPlay bool     `yaml:"autoPlay"`
	Colour   string   `yaml:"colour"`
}

type AnchorSpec struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Layer int     `yaml:"layer"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LoadConfig reads the YAML file at path, fills in defaults and validates
// the result.
func LoadConfig(path string) (Config, error) {
	var c Config
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("stream: open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("stream: decode config %s: %w", path, err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Mqtt.ClientID == "" {
		c.Mqtt.ClientID = "animlayers-" + uuid.NewString()[:8]
	}
	if c.Mqtt.CommandRate == 0 {
		c.Mqtt.CommandRate = 100
	}
	if c.Mqtt.CommandBurst == 0 {
		c.Mqtt.CommandBurst = 20
	}
	if c.Mqtt.Topics.Stream == "" {
		c.Mqtt.Topics.Stream = "animlayers/stream"
	}
	if c.Mqtt.Topics.Command == "" {
		c.Mqtt.Topics.Command = "animlayers/command"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":3000"
	}
	if c.FrameRate == 0 {
		c.FrameRate = 60
	}
	if c.Fade.Curve == "" {
		c.Fade.Curve = "default"
	}
	if c.Fade.Seconds == 0 {
		c.Fade.Seconds = fader.DefaultSeconds
	}
	if c.Fade.Settle == 0 {
		c.Fade.Settle = layers.DefaultSettleFactor
	}
	if c.Sample == nil {
		c.Sample = &Point{X: 0.5, Y: 0.5}
	}
	for i := range c.Layers {
		if c.Layers[i].Speed == nil {
			speed := 1.0
			c.Layers[i].Speed = &speed
		}
	}
}

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("%w: frameRate %v must be positive", ErrInvalidConfig, c.FrameRate)
	}
	if c.Mqtt.CommandRate < 0 || c.Mqtt.CommandBurst < 0 {
		return fmt.Errorf("%w: mqtt command limits must not be negative", ErrInvalidConfig)
	}
	if c.Fade.Seconds < 0 {
		return fmt.Errorf("%w: fade.seconds %v is negative", ErrInvalidConfig, c.Fade.Seconds)
	}
	if c.Fade.Settle < 0 {
		return fmt.Errorf("%w: fade.settle %v is negative", ErrInvalidConfig, c.Fade.Settle)
	}
	if _, err := fader.CurveByName(c.Fade.Curve); err != nil {
		return fmt.Errorf("%w: fade.curve: %v", ErrInvalidConfig, err)
	}

	clips := make(map[string]bool, len(c.Clips))
	for i, clip := range c.Clips {
		if clip.Name == "" {
			return fmt.Errorf("%w: clip %d has no name", ErrInvalidConfig, i)
		}
		if clips[clip.Name] {
			return fmt.Errorf("%w: clip %q listed twice", ErrInvalidConfig, clip.Name)
		}
		if clip.Duration < 0 {
			return fmt.Errorf("%w: clip %q has negative duration", ErrInvalidConfig, clip.Name)
		}
		clips[clip.Name] = true
	}

	for i, l := range c.Layers {
		if l.Clip != "" && !clips[l.Clip] {
			return fmt.Errorf("%w: layer %d: %w %q", ErrInvalidConfig, i, ErrUnknownClip, l.Clip)
		}
		if l.Colour != "" {
			if _, err := colorful.Hex(l.Colour); err != nil {
				return fmt.Errorf("%w: layer %d colour %q: %v", ErrInvalidConfig, i, l.Colour, err)
			}
		}
	}

	for i, a := range c.Anchors {
		if a.Layer < 0 {
			return fmt.Errorf("%w: anchor %d has negative layer %d", ErrInvalidConfig, i, a.Layer)
		}
	}
	return nil
}

// LayerConfig converts the spec into the mixer's layer description.
func (l LayerSpec) LayerConfig() layers.LayerConfig {
	speed := 1.0
	if l.Speed != nil {
		speed = *l.Speed
	}
	return layers.LayerConfig{
		Clip:     l.Clip,
		Value:    l.Value,
		Weight:   l.Weight,
		Speed:    speed,
		AutoPlay: l.AutoPlay,
	}
}

// Color parses the layer colour. ok is false when none is set.
func (l LayerSpec) Color() (c colorful.Color, ok bool) {
	if l.Colour == "" {
		return c, false
	}
	c, err := colorful.Hex(l.Colour)
	return c, err == nil
}
