package effects

import (
	"fmt"
	"math"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/spatial"
)

// SpiralConfig configures Spiral. Width is the band half-width as a
// fraction of π.
type SpiralConfig struct {
	Speed     float64 `yaml:"speed"`
	Rotations float64 `yaml:"rotations"`
	Width     float64 `yaml:"width"`
}

func DefaultSpiralConfig() SpiralConfig {
	return SpiralConfig{Speed: 0.5, Rotations: 3, Width: 0.15}
}

func (c SpiralConfig) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("%w: spiral width must be positive, got %v", ErrInvalidParameter, c.Width)
	}
	return nil
}

// Spiral winds a rotating helix of light around the trunk, colored by
// height.
type Spiral struct {
	cfg     SpiralConfig
	heights []float64
	angles  []float64
}

func NewSpiral(model *spatial.Model, cfg SpiralConfig) (*Spiral, error) {
	if model == nil {
		return nil, fmt.Errorf("spiral: %w", effect.ErrMissingGeometry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Spiral{
		cfg:     cfg,
		heights: model.HeightNormalized(),
		angles:  model.AngleFromCenter(),
	}, nil
}

func (s *Spiral) Name() string { return "spiral" }

func (s *Spiral) Advance(buf *frame.Buffer, _, elapsed float64) {
	rotation := wrap(elapsed*s.cfg.Speed*twoPi, twoPi)
	for i, h := range s.heights {
		expected := wrap(h*s.cfg.Rotations*twoPi+rotation, twoPi)
		diff := arcDistance(s.angles[i], expected) / math.Pi
		buf.SetPixel(i, color.HSVToRGB(h, 1, falloff(diff, s.cfg.Width)))
	}
}
