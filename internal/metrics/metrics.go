// Package metrics accumulates per-frame statistics over a stream of LED
// frames: brightness, flicker and estimated supply current.
package metrics

import (
	"github.com/san-kum/treelights/internal/color"
)

// Metric folds frames into a single value. t is the frame's time in
// seconds since the stream began.
type Metric interface {
	Name() string
	Observe(pixels []color.RGB, t float64)
	Value() float64
	Reset()
}

func meanLuma(pixels []color.RGB) float64 {
	if len(pixels) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range pixels {
		sum += p.Luma()
	}
	return sum / float64(len(pixels))
}

// Set observes every frame it is sent with each of its metrics. It satisfies
// the sink contract so it can sit beside a real transport.
type Set struct {
	fps     int
	frames  int
	metrics []Metric
}

// NewSet returns a set that timestamps frames at fps.
func NewSet(fps int, ms ...Metric) *Set {
	if fps < 1 {
		fps = 1
	}
	return &Set{fps: fps, metrics: ms}
}

// Default returns brightness, flicker, power and peak power metrics.
func Default(fps int) *Set {
	return NewSet(fps, NewBrightness(), NewFlicker(), NewPower(DefaultPowerModel), NewPeakPower(DefaultPowerModel))
}

func (s *Set) Send(pixels []color.RGB) error {
	t := float64(s.frames) / float64(s.fps)
	for _, m := range s.metrics {
		m.Observe(pixels, t)
	}
	s.frames++
	return nil
}

func (s *Set) Close() error { return nil }

func (s *Set) Frames() int { return s.frames }

// Values maps each metric's name to its current value.
func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set) Reset() {
	s.frames = 0
	for _, m := range s.metrics {
		m.Reset()
	}
}
