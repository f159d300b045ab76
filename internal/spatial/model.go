// Package spatial models where each LED sits in 3D space and derives the
// per-LED features (height, angle, radial distance) animations key on.
//
// A Model is immutable after construction and may be shared by any number of
// effects.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/treelights/internal/monitoring"
)

var (
	// ErrInvalidGeometry indicates an empty or unreadable coordinate source.
	ErrInvalidGeometry = errors.New("spatial: invalid geometry")

	// ErrCountMismatch indicates the loaded LED count differs from the
	// configured one.
	ErrCountMismatch = errors.New("spatial: loaded LED count differs from expected")
)

// CountMismatch records a recovered count disagreement between a coordinate
// source and the configured LED count.
type CountMismatch struct {
	Expected int
	Loaded   int
}

func (e *CountMismatch) Error() string {
	return fmt.Sprintf("%v: expected %d, loaded %d", ErrCountMismatch, e.Expected, e.Loaded)
}

func (e *CountMismatch) Unwrap() error { return ErrCountMismatch }

// Axis indexes a coordinate component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func component(p r3.Vec, a Axis) float64 {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// Bounds is the axis-aligned box around every LED.
type Bounds struct {
	Min, Max r3.Vec
}

// Span returns max-min per axis.
func (b Bounds) Span() r3.Vec { return r3.Sub(b.Max, b.Min) }

// Range returns (min, max) for one axis.
func (b Bounds) Range(a Axis) (float64, float64) {
	return component(b.Min, a), component(b.Max, a)
}

// Model is the fixed set of LED coordinates; index is LED index.
type Model struct {
	points   []r3.Vec
	bounds   Bounds
	center   r3.Vec
	mismatch *CountMismatch

	once    sync.Once
	heights []float64
	angles  []float64
	radial  []float64
}

// Build constructs a model from ordered points. When len(points) differs from
// expectedCount the model keeps every loaded point and records the mismatch.
func Build(points []r3.Vec, expectedCount int) (*Model, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no coordinates", ErrInvalidGeometry)
	}

	m := &Model{points: make([]r3.Vec, len(points))}
	copy(m.points, points)

	if expectedCount != len(points) {
		m.mismatch = &CountMismatch{Expected: expectedCount, Loaded: len(points)}
		monitoring.Warnf("coordinate source contains %d points but %d LEDs were expected; using %d",
			len(points), expectedCount, len(points))
	}

	m.calculateBounds()
	return m, nil
}

// BuildFallback lays count LEDs along a vertical line from z=0 to z=1 so
// height-keyed effects still look sensible without real geometry.
func BuildFallback(count int) *Model {
	if count < 1 {
		count = 1
	}
	zs := make([]float64, count)
	if count > 1 {
		floats.Span(zs, 0, 1)
	}
	points := make([]r3.Vec, count)
	for i, z := range zs {
		points[i] = r3.Vec{Z: z}
	}
	m := &Model{points: points}
	m.calculateBounds()
	return m
}

func (m *Model) calculateBounds() {
	n := len(m.points)
	xs, ys, zs := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, p := range m.points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	m.bounds = Bounds{
		Min: r3.Vec{X: floats.Min(xs), Y: floats.Min(ys), Z: floats.Min(zs)},
		Max: r3.Vec{X: floats.Max(xs), Y: floats.Max(ys), Z: floats.Max(zs)},
	}
	m.center = r3.Vec{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}
}

// Len is the LED count.
func (m *Model) Len() int { return len(m.points) }

func (m *Model) Bounds() Bounds { return m.bounds }
func (m *Model) Center() r3.Vec { return m.center }

// Mismatch returns the recovered count mismatch, or nil.
func (m *Model) Mismatch() *CountMismatch { return m.mismatch }

// Points returns a copy of all coordinates.
func (m *Model) Points() []r3.Vec {
	out := make([]r3.Vec, len(m.points))
	copy(out, m.points)
	return out
}

// Position returns the coordinate of LED i.
func (m *Model) Position(i int) r3.Vec { return m.points[i] }

func (m *Model) features() {
	m.once.Do(func() {
		n := len(m.points)
		m.heights = make([]float64, n)
		m.angles = make([]float64, n)
		m.radial = make([]float64, n)

		zMin, zMax := m.bounds.Range(AxisZ)
		for i, p := range m.points {
			if zMax > zMin {
				m.heights[i] = (p.Z - zMin) / (zMax - zMin)
			}
			dx, dy := p.X-m.center.X, p.Y-m.center.Y
			a := math.Atan2(dy, dx)
			if a < 0 {
				a += 2 * math.Pi
			}
			if a >= 2*math.Pi {
				a = 0
			}
			m.angles[i] = a
			m.radial[i] = math.Hypot(dx, dy)
		}
	})
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// HeightNormalized maps each LED's z into [0,1] over the bounds. All zeros
// when the z extent is degenerate.
func (m *Model) HeightNormalized() []float64 {
	m.features()
	return clone(m.heights)
}

// AngleFromCenter is each LED's angle about the vertical axis through the
// center, in [0, 2π).
func (m *Model) AngleFromCenter() []float64 {
	m.features()
	return clone(m.angles)
}

// RadialDistance is each LED's distance from the vertical axis through the
// center.
func (m *Model) RadialDistance() []float64 {
	m.features()
	return clone(m.radial)
}

// DistancesFromPoint is the Euclidean distance from every LED to p.
func (m *Model) DistancesFromPoint(p r3.Vec) []float64 {
	out := make([]float64, len(m.points))
	for i, q := range m.points {
		out[i] = r3.Norm(r3.Sub(q, p))
	}
	return out
}

// Distance is the Euclidean distance from LED i to p.
func (m *Model) Distance(i int, p r3.Vec) float64 {
	return r3.Norm(r3.Sub(m.points[i], p))
}

// BoundingDiagonal is the length of the bounding box diagonal.
func (m *Model) BoundingDiagonal() float64 {
	return r3.Norm(m.bounds.Span())
}

// NearestLEDs returns up to count LED indices ordered by distance to p.
func (m *Model) NearestLEDs(p r3.Vec, count int) []int {
	return argsort(m.DistancesFromPoint(p), count)
}

func argsort(d []float64, count int) []int {
	idx := make([]int, len(d))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return d[idx[a]] < d[idx[b]] })
	if count < 0 {
		count = 0
	}
	if count < len(idx) {
		idx = idx[:count]
	}
	return idx
}

// LEDsInSphere returns the indices within radius of c.
func (m *Model) LEDsInSphere(c r3.Vec, radius float64) []int {
	var out []int
	for i, d := range m.DistancesFromPoint(c) {
		if d <= radius {
			out = append(out, i)
		}
	}
	return out
}

// LEDsInRange returns the indices whose coordinate on axis lies in [lo, hi].
func (m *Model) LEDsInRange(axis Axis, lo, hi float64) []int {
	var out []int
	for i, p := range m.points {
		if v := component(p, axis); v >= lo && v <= hi {
			out = append(out, i)
		}
	}
	return out
}

// Normalized maps every axis into [0,1]; axes with no extent are left as-is.
func (m *Model) Normalized() []r3.Vec {
	norm := func(v, lo, hi float64) float64 {
		if hi > lo {
			return (v - lo) / (hi - lo)
		}
		return v
	}
	out := make([]r3.Vec, len(m.points))
	for i, p := range m.points {
		out[i] = r3.Vec{
			X: norm(p.X, m.bounds.Min.X, m.bounds.Max.X),
			Y: norm(p.Y, m.bounds.Min.Y, m.bounds.Max.Y),
			Z: norm(p.Z, m.bounds.Min.Z, m.bounds.Max.Z),
		}
	}
	return out
}

// Duplicates counts LEDs sharing an exact coordinate with an earlier LED.
func (m *Model) Duplicates() int {
	seen := make(map[r3.Vec]struct{}, len(m.points))
	dups := 0
	for _, p := range m.points {
		if _, ok := seen[p]; ok {
			dups++
			continue
		}
		seen[p] = struct{}{}
	}
	return dups
}

// Summary holds min/max/mean of one feature.
type Summary struct {
	Min, Max, Mean float64
}

func summarize(v []float64) Summary {
	return Summary{Min: floats.Min(v), Max: floats.Max(v), Mean: stat.Mean(v, nil)}
}

// Stats summarizes the derived features.
type Stats struct {
	Height Summary
	Radial Summary
	Angle  Summary
}

func (m *Model) Stats() Stats {
	m.features()
	return Stats{
		Height: summarize(m.heights),
		Radial: summarize(m.radial),
		Angle:  summarize(m.angles),
	}
}

func (m *Model) String() string {
	b := m.bounds
	return fmt.Sprintf("Model(leds=%d, x=[%.3f,%.3f], y=[%.3f,%.3f], z=[%.3f,%.3f])",
		len(m.points), b.Min.X, b.Max.X, b.Min.Y, b.Max.Y, b.Min.Z, b.Max.Z)
}
