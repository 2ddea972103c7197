package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"

	"github.com/matt-g-everett/animlayers/blend"
	"github.com/matt-g-everett/animlayers/fader"
	"github.com/matt-g-everett/animlayers/layers"
	"github.com/matt-g-everett/animlayers/observability"
)

// Controller owns the host, mixer and blend tree and advances them together.
// All access goes through its mutex so a command never lands mid-tick.
type Controller struct {
	mu      sync.Mutex
	host    *SimHost
	mixer   *layers.Mixer
	tree    *blend.Tree
	glide   *fader.Fader[mgl64.Vec2]
	colours []colorful.Color
	mix     *fader.Lerper[colorful.Color]
	clock   float64
	last    *Frame
}

// NewController creates an instance of a Controller from cfg, which should
// already have its defaults applied. AutoPlay layers start playing.
func NewController(cfg Config) (*Controller, error) {
	curve, err := fader.CurveByName(cfg.Fade.Curve)
	if err != nil {
		return nil, err
	}

	c := new(Controller)
	c.host = NewSimHost(cfg.Clips)
	c.mixer = layers.NewMixer(c.host)
	c.mixer.SetSettleFactor(cfg.Fade.Settle)

	for i, spec := range cfg.Layers {
		if _, err := c.mixer.AddLayer(spec.LayerConfig()); err != nil {
			return nil, fmt.Errorf("stream: layer %d: %w", i, err)
		}
		c.colours = append(c.colours, layerColor(i, spec))
	}

	var anchors []blend.AnchorPoint
	for _, a := range cfg.Anchors {
		anchors = append(anchors, blend.AnchorPoint{Position: mgl64.Vec2{a.X, a.Y}, SourceID: a.Layer})
	}
	c.tree = blend.NewTree(c.mixer, anchors)

	sample := mgl64.Vec2{0.5, 0.5}
	if cfg.Sample != nil {
		sample = mgl64.Vec2{cfg.Sample.X, cfg.Sample.Y}
	}
	c.tree.SetSample(sample)

	seconds := cfg.Fade.Seconds
	if seconds <= 0 {
		seconds = fader.DefaultSeconds
	}
	c.glide = fader.NewVec2Fader(sample, seconds)
	c.glide.SetCurve(curve)

	c.mix = fader.NewColorLerper(colorful.Color{}, colorful.Color{}, fader.DefaultSpeed)
	if err := c.mixer.Start(); err != nil {
		return nil, err
	}
	c.last = NewFrame(c.host.Slots(), c.mix.Value())
	return c, nil
}

// CalculateFrame runs one tick: blend weights, scrub chases, host playback,
// then the frame snapshot.
func (c *Controller) CalculateFrame(dt float64) *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	c.clock += dt
	if !c.glide.Done() {
		c.tree.SetSample(c.glide.Tick(c.clock))
	}
	c.tree.Update(dt)
	c.mixer.Update(dt)
	c.host.Advance(dt)

	slots := c.host.Slots()
	c.mix.LerpTo(c.mixColour(slots))
	c.mix.Tick(dt)
	c.last = NewFrame(slots, c.mix.Value())

	weights := make([]float64, len(slots))
	for i, s := range slots {
		weights[i] = s.Weight
	}
	observability.RecordTick(time.Since(start), weights)
	return c.last
}

// Frame returns the frame produced by the last tick.
func (c *Controller) Frame() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Apply executes a command. source labels the command in metrics.
func (c *Controller) Apply(source string, cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.apply(cmd)
	observability.RecordCommand(source, cmd.Type, err == nil)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Str("type", cmd.Type).Int("layer", cmd.Layer).Msg("stream: command failed")
	}
	return err
}

func (c *Controller) apply(cmd Command) error {
	switch cmd.Type {
	case CmdScrub:
		if cmd.Weight != nil {
			return c.mixer.ScrubWeighted(cmd.Layer, cmd.T, *cmd.Weight)
		}
		return c.mixer.Scrub(cmd.Layer, cmd.T)
	case CmdScrubTo:
		return c.mixer.ScrubTo(cmd.Layer, cmd.T, cmd.Seconds)
	case CmdPlay:
		if cmd.Weight != nil {
			return c.mixer.PlayWeighted(cmd.Layer, *cmd.Weight)
		}
		return c.mixer.Play(cmd.Layer)
	case CmdPlayFrom:
		return c.mixer.PlayFrom(cmd.Layer, cmd.Seconds)
	case CmdPause:
		if cmd.Weight != nil {
			return c.mixer.PauseWeighted(cmd.Layer, *cmd.Weight)
		}
		return c.mixer.Pause(cmd.Layer)
	case CmdSetWeight:
		if cmd.Weight == nil {
			return fmt.Errorf("%w: %s needs weight", ErrInvalidCommand, cmd.Type)
		}
		return c.mixer.SetInputWeightClamped(cmd.Layer, *cmd.Weight)
	case CmdSetSpeed:
		if cmd.Speed == nil {
			return fmt.Errorf("%w: %s needs speed", ErrInvalidCommand, cmd.Type)
		}
		return c.mixer.SetSpeed(cmd.Layer, *cmd.Speed)
	case CmdReplaceClip:
		return c.mixer.ReplaceClip(cmd.Layer, cmd.Clip)
	case CmdSample:
		p := mgl64.Vec2{cmd.X, cmd.Y}
		c.glide.JumpTo(p)
		c.tree.SetSample(p)
	case CmdGlide:
		seconds := cmd.Seconds
		if seconds <= 0 {
			seconds = c.glide.Seconds()
		}
		// SetSample stops any steering.
		c.tree.SetSample(c.tree.Sample())
		c.glide.FadeFromTo(c.tree.Sample(), mgl64.Vec2{cmd.X, cmd.Y}, seconds, nil)
	case CmdSteer:
		speed := fader.DefaultSpeed
		if cmd.Speed != nil {
			speed = *cmd.Speed
		}
		c.glide.JumpTo(c.tree.Sample())
		c.tree.SteerTo(mgl64.Vec2{cmd.X, cmd.Y}, speed)
	case CmdPlayAll:
		return c.mixer.PlayAll()
	case CmdPauseAll:
		return c.mixer.PauseAll()
	case CmdAddLayer:
		_, err := c.addLayer(cmd.LayerSpec())
		return err
	case CmdRemoveLayer:
		return c.removeLayer(cmd.Layer)
	case CmdSetAutoPlay:
		if cmd.AutoPlay == nil {
			return fmt.Errorf("%w: %s needs autoPlay", ErrInvalidCommand, cmd.Type)
		}
		return c.mixer.SetAutoPlay(cmd.Layer, *cmd.AutoPlay)
	case CmdAddAnchor:
		c.tree.AddAnchor(mgl64.Vec2{cmd.X, cmd.Y}, cmd.Layer)
	case CmdSetAnchor:
		return c.tree.SetAnchor(cmd.Anchor, mgl64.Vec2{cmd.X, cmd.Y}, cmd.Layer)
	case CmdRemoveAnchor:
		return c.tree.RemoveAnchor(cmd.Anchor)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

// Layers returns a snapshot of every layer.
func (c *Controller) Layers() []layers.LayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mixer.Layers()
}

// Anchors returns the anchors with the weights of the last tick.
func (c *Controller) Anchors() []blend.AnchorPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Anchors()
}

func (c *Controller) Sample() mgl64.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Sample()
}

// Recompute previews the anchor weights at (x, y) without applying them.
func (c *Controller) Recompute(x, y float64) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Recompute(mgl64.Vec2{x, y})
}

// Clips lists the clips the host can bind.
func (c *Controller) Clips() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host.Clips()
}

// AddLayer appends a layer and returns its index. A layer whose clip cannot
// be bound is still added, unbound, alongside the error. A bound AutoPlay
// layer starts playing straight away.
func (c *Controller) AddLayer(spec LayerSpec) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLayer(spec)
}

func (c *Controller) addLayer(spec LayerSpec) (int, error) {
	id, err := c.mixer.AddLayer(spec.LayerConfig())
	c.colours = append(c.colours, layerColor(id, spec))
	if err != nil || !spec.AutoPlay || spec.Clip == "" {
		return id, err
	}
	return id, c.mixer.Play(id)
}

// RemoveLayer deletes layer id. Anchors on id are detached and anchors on
// later layers follow their layer down by one.
func (c *Controller) RemoveLayer(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLayer(id)
}

func (c *Controller) removeLayer(id int) error {
	if err := c.mixer.RemoveLayer(id); err != nil {
		return err
	}
	c.tree.LayerRemoved(id)
	c.colours = append(c.colours[:id], c.colours[id+1:]...)
	observability.ForgetLayer(len(c.colours))
	return nil
}

func layerColor(i int, spec LayerSpec) colorful.Color {
	if col, ok := spec.Color(); ok {
		return col
	}
	return DefaultPalette.LayerColor(i)
}

// mixColour blends the layer colours by their applied weights.
func (c *Controller) mixColour(slots []SlotState) colorful.Color {
	var out colorful.Color
	total := 0.0
	for i, s := range slots {
		if i >= len(c.colours) || s.Weight <= 0 {
			continue
		}
		total += s.Weight
		out.R += c.colours[i].R * s.Weight
		out.G += c.colours[i].G * s.Weight
		out.B += c.colours[i].B * s.Weight
	}
	if total == 0 {
		return colorful.Color{}
	}
	out.R /= total
	out.G /= total
	out.B /= total
	return out
}
