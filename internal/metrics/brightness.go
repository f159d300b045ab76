package metrics

import (
	"math"

	"github.com/san-kum/treelights/internal/color"
)

// Brightness is the mean luma across all observed frames.
type Brightness struct {
	total   float64
	samples int
}

func NewBrightness() *Brightness { return &Brightness{} }

func (b *Brightness) Name() string { return "brightness" }

func (b *Brightness) Observe(pixels []color.RGB, _ float64) {
	b.total += meanLuma(pixels)
	b.samples++
}

func (b *Brightness) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return b.total / float64(b.samples)
}

func (b *Brightness) Reset() {
	b.total = 0
	b.samples = 0
}

// Flicker is the mean absolute change in per-LED luma between consecutive
// frames. A static frame scores 0, a full black/white toggle scores 1.
type Flicker struct {
	prev    []float64
	total   float64
	samples int
}

func NewFlicker() *Flicker { return &Flicker{} }

func (f *Flicker) Name() string { return "flicker" }

func (f *Flicker) Observe(pixels []color.RGB, _ float64) {
	cur := make([]float64, len(pixels))
	for i, p := range pixels {
		cur[i] = p.Luma()
	}
	if f.prev != nil && len(f.prev) == len(cur) && len(cur) > 0 {
		diff := 0.0
		for i := range cur {
			diff += math.Abs(cur[i] - f.prev[i])
		}
		f.total += diff / float64(len(cur))
		f.samples++
	}
	f.prev = cur
}

func (f *Flicker) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.total / float64(f.samples)
}

func (f *Flicker) Reset() {
	f.prev = nil
	f.total = 0
	f.samples = 0
}
