package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand = errors.New("stream: unknown command")
	ErrInvalidCommand = errors.New("stream: invalid command")
)

// Command types.
const (
	CmdScrub        = "scrub"
	CmdScrubTo      = "scrubTo"
	CmdPlay         = "play"
	CmdPlayFrom     = "playFrom"
	CmdPause        = "pause"
	CmdSetWeight    = "setWeight"
	CmdSetSpeed     = "setSpeed"
	CmdReplaceClip  = "replaceClip"
	CmdSample       = "sample"
	CmdGlide        = "glide"
	CmdSteer        = "steer"
	CmdPlayAll      = "playAll"
	CmdPauseAll     = "pauseAll"
	CmdAddLayer     = "addLayer"
	CmdRemoveLayer  = "removeLayer"
	CmdSetAutoPlay  = "setAutoPlay"
	CmdAddAnchor    = "addAnchor"
	CmdSetAnchor    = "setAnchor"
	CmdRemoveAnchor = "removeAnchor"
)

// Command is a control message received over MQTT or HTTP. T is normalised
// time; Seconds is a fade length, or the absolute cursor for playFrom.
// Weight is optional on scrub, play and pause.
//
// The anchor commands place anchor Anchor at (X, Y) driving Layer. addLayer
// reads Clip, T as the starting value, Weight, Speed, AutoPlay and Colour.
type Command struct {
	Type     string   `json:"type"`
	Layer    int      `json:"layer"`
	Anchor   int      `json:"anchor"`
	T        float64  `json:"t"`
	Seconds  float64  `json:"seconds"`
	Weight   *float64 `json:"weight,omitempty"`
	Speed    *float64 `json:"speed,omitempty"`
	AutoPlay *bool    `json:"autoPlay,omitempty"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Clip     string   `json:"clip"`
	Colour   string   `json:"colour,omitempty"`
}

// LayerSpec converts an addLayer command into a layer description.
func (c Command) LayerSpec() LayerSpec {
	spec := LayerSpec{Clip: c.Clip, Value: c.T, Speed: c.Speed, Colour: c.Colour}
	if c.Weight != nil {
		spec.Weight = *c.Weight
	}
	if c.AutoPlay != nil {
		spec.AutoPlay = *c.AutoPlay
	}
	return spec
}

// ParseCommand decodes a JSON command.
func ParseCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if c.Type == "" {
		return c, fmt.Errorf("%w: missing type", ErrUnknownCommand)
	}
	return c, nil
}
