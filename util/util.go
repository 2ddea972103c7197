package util

import (
	"fmt"
	"sync"

	"github.com/fogleman/ease"
)

// EaseFunc maps normalised time onto normalised progress.
type EaseFunc func(t float64) float64

// GenerateLut samples fn at length evenly spaced points across [0, 1].
// The first sample is fn(0) and the last is fn(1).
func GenerateLut(length int, fn EaseFunc) []float64 {
	if length < 2 {
		length = 2
	}
	if fn == nil {
		fn = ease.Linear
	}

	lut := make([]float64, length)
	for i := 0; i < length; i++ {
		lut[i] = fn(float64(i) / float64(length-1))
	}
	return lut
}

// Memoizer caches generated look-up tables by name and length.
type Memoizer struct {
	mu     sync.Mutex
	tables map[string][]float64
}

// NewMemoizer creates an empty Memoizer.
func NewMemoizer() *Memoizer {
	m := new(Memoizer)
	m.tables = make(map[string][]float64)
	return m
}

// Lut returns the cached table for name/length, generating it on first use.
// Callers must not modify the returned slice.
func (m *Memoizer) Lut(name string, length int, fn EaseFunc) []float64 {
	key := fmt.Sprintf("%s/%d", name, length)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables == nil {
		m.tables = make(map[string][]float64)
	}
	if lut, ok := m.tables[key]; ok {
		return lut
	}

	lut := GenerateLut(length, fn)
	m.tables[key] = lut
	return lut
}

// Len reports how many tables are cached.
func (m *Memoizer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables)
}
