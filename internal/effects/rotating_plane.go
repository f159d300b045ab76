package effects

import (
	"fmt"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/spatial"
)

// RotatingPlaneConfig configures RotatingPlane. Thickness is in radians.
type RotatingPlaneConfig struct {
	Speed     float64 `yaml:"speed"`
	Thickness float64 `yaml:"thickness"`
}

func DefaultRotatingPlaneConfig() RotatingPlaneConfig {
	return RotatingPlaneConfig{Speed: 0.3, Thickness: 0.15}
}

func (c RotatingPlaneConfig) Validate() error {
	if c.Thickness <= 0 {
		return fmt.Errorf("%w: rotating_plane thickness must be positive, got %v", ErrInvalidParameter, c.Thickness)
	}
	return nil
}

// RotatingPlane sweeps a vertical half-plane of light around the trunk.
type RotatingPlane struct {
	cfg     RotatingPlaneConfig
	heights []float64
	angles  []float64
}

func NewRotatingPlane(model *spatial.Model, cfg RotatingPlaneConfig) (*RotatingPlane, error) {
	if model == nil {
		return nil, fmt.Errorf("rotating_plane: %w", effect.ErrMissingGeometry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RotatingPlane{
		cfg:     cfg,
		heights: model.HeightNormalized(),
		angles:  model.AngleFromCenter(),
	}, nil
}

func (p *RotatingPlane) Name() string { return "rotating_plane" }

func (p *RotatingPlane) Advance(buf *frame.Buffer, _, elapsed float64) {
	plane := wrap(elapsed*p.cfg.Speed*twoPi, twoPi)
	for i, a := range p.angles {
		b := falloff(arcDistance(a, plane), p.cfg.Thickness)
		buf.SetPixel(i, color.HSVToRGB(p.heights[i], 1, b))
	}
}
