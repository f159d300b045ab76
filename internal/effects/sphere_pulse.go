package effects

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/spatial"
)

// SpherePulseConfig configures SpherePulse. PulseWidth is relative to the
// bounding diagonal. A zero Seed picks origins from the current time.
type SpherePulseConfig struct {
	Speed      float64 `yaml:"speed"`
	PulseWidth float64 `yaml:"pulse_width"`
	NumPulses  int     `yaml:"num_pulses"`
	Seed       int64   `yaml:"seed"`
}

func DefaultSpherePulseConfig() SpherePulseConfig {
	return SpherePulseConfig{Speed: 0.5, PulseWidth: 0.1, NumPulses: 3}
}

func (c SpherePulseConfig) Validate() error {
	if c.NumPulses < 1 {
		return fmt.Errorf("%w: sphere_pulse num_pulses must be at least 1, got %d", ErrInvalidParameter, c.NumPulses)
	}
	if c.PulseWidth <= 0 {
		return fmt.Errorf("%w: sphere_pulse pulse_width must be positive, got %v", ErrInvalidParameter, c.PulseWidth)
	}
	return nil
}

// SpherePulse expands spherical shells from a few LEDs picked at
// construction. Overlapping shells add, saturating per channel.
type SpherePulse struct {
	cfg         SpherePulseConfig
	origins     []r3.Vec
	distances   [][]float64
	maxDistance float64
}

func NewSpherePulse(model *spatial.Model, cfg SpherePulseConfig) (*SpherePulse, error) {
	if model == nil {
		return nil, fmt.Errorf("sphere_pulse: %w", effect.ErrMissingGeometry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	p := &SpherePulse{
		cfg:         cfg,
		origins:     make([]r3.Vec, cfg.NumPulses),
		distances:   make([][]float64, cfg.NumPulses),
		maxDistance: model.BoundingDiagonal(),
	}
	for k := range p.origins {
		p.origins[k] = model.Position(rng.Intn(model.Len()))
		p.distances[k] = model.DistancesFromPoint(p.origins[k])
	}
	return p, nil
}

func (p *SpherePulse) Name() string { return "sphere_pulse" }

// Origins returns the pulse centers.
func (p *SpherePulse) Origins() []r3.Vec {
	out := make([]r3.Vec, len(p.origins))
	copy(out, p.origins)
	return out
}

func (p *SpherePulse) Advance(buf *frame.Buffer, _, elapsed float64) {
	buf.Clear()
	// A single LED or a flat-zero model has no room for a shell.
	if p.maxDistance == 0 {
		return
	}
	for k, dist := range p.distances {
		phase := float64(k) / float64(p.cfg.NumPulses)
		radius := wrap(elapsed*p.cfg.Speed+phase, 1) * p.maxDistance
		for i, d := range dist {
			diff := math.Abs(d-radius) / p.maxDistance
			b := falloff(diff, p.cfg.PulseWidth)
			if b == 0 {
				continue
			}
			buf.AddPixel(i, color.HSVToRGB(phase, 1, b))
		}
	}
}
