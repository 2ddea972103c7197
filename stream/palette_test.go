package stream

import (
	"math"
	"testing"
)

func TestPaletteColorBlendsHue(t *testing.T) {
	p := Palette{{0, 0}, {120, 1}}
	h, _, _ := p.Color(0.5, 0.2, 0.6).Hcl()
	if math.Abs(h-60) > 2 {
		t.Errorf("hue at 0.5 = %v, want about 60", h)
	}
}

func TestLayerColorsDiffer(t *testing.T) {
	seen := make(map[string]int)
	for i := 0; i < 6; i++ {
		c := DefaultPalette.LayerColor(i)
		if !c.IsValid() {
			t.Errorf("layer %d colour %v out of gamut", i, c)
		}
		hex := c.Hex()
		if j, dup := seen[hex]; dup {
			t.Errorf("layers %d and %d share colour %s", j, i, hex)
		}
		seen[hex] = i
	}
}
