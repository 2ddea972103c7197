package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	slotRecordSize = 17
	flagPlaying    = 1 << 0
	flagBound      = 1 << 1
)

var ErrMalformedFrame = errors.New("stream: malformed frame")

// SlotFrame is the published state of one layer slot.
type SlotFrame struct {
	Weight  float64 `json:"weight"`
	Norm    float64 `json:"norm"`
	Cursor  float64 `json:"cursor"`
	Rate    float64 `json:"rate"`
	Playing bool    `json:"playing"`
	Bound   bool    `json:"bound"`
}

// Frame is one tick's worth of mixer output.
type Frame struct {
	Slots  []SlotFrame
	Colour colorful.Color
}

// NewFrame builds a Frame from host slots. Norm is each weight over the
// total, or 0 when nothing is weighted.
func NewFrame(slots []SlotState, colour colorful.Color) *Frame {
	f := new(Frame)
	f.Colour = colour
	f.Slots = make([]SlotFrame, len(slots))

	total := 0.0
	for _, s := range slots {
		total += s.Weight
	}
	for i, s := range slots {
		f.Slots[i] = SlotFrame{
			Weight:  s.Weight,
			Cursor:  s.Cursor,
			Rate:    s.Rate,
			Playing: s.Playing,
			Bound:   s.Bound,
		}
		if total > 0 {
			f.Slots[i].Norm = s.Weight / total
		}
	}
	return f
}

// MarshalBinary converts a Frame into little-endian binary data.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	if len(f.Slots) > math.MaxUint16 {
		return nil, fmt.Errorf("stream: %d slots do not fit in a frame", len(f.Slots))
	}
	data = make([]byte, 2, 2+len(f.Slots)*slotRecordSize+3)
	binary.LittleEndian.PutUint16(data, uint16(len(f.Slots)))
	for _, s := range f.Slots {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(s.Weight)))
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(s.Norm)))
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(s.Cursor)))
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(s.Rate)))
		var flags byte
		if s.Playing {
			flags |= flagPlaying
		}
		if s.Bound {
			flags |= flagBound
		}
		data = append(data, flags)
	}

	r, g, b := f.Colour.Clamped().RGB255()
	data = append(data, r, g, b)
	return data, nil
}

// UnmarshalBinary decodes data written by MarshalBinary.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return ErrMalformedFrame
	}
	n := int(binary.LittleEndian.Uint16(data))
	if len(data) != 2+n*slotRecordSize+3 {
		return fmt.Errorf("%w: %d bytes for %d slots", ErrMalformedFrame, len(data), n)
	}

	float := func(b []byte) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	f.Slots = make([]SlotFrame, n)
	p := data[2:]
	for i := range f.Slots {
		f.Slots[i] = SlotFrame{
			Weight:  float(p[0:]),
			Norm:    float(p[4:]),
			Cursor:  float(p[8:]),
			Rate:    float(p[12:]),
			Playing: p[16]&flagPlaying != 0,
			Bound:   p[16]&flagBound != 0,
		}
		p = p[slotRecordSize:]
	}
	f.Colour = colorful.Color{
		R: float64(p[0]) / 255,
		G: float64(p[1]) / 255,
		B: float64(p[2]) / 255,
	}
	return nil
}
