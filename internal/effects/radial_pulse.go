package effects

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/spatial"
)

// RadialPulseConfig configures RadialPulse.
type RadialPulseConfig struct {
	Speed float64 `yaml:"speed"`
}

func DefaultRadialPulseConfig() RadialPulseConfig {
	return RadialPulseConfig{Speed: 1.0}
}

func (c RadialPulseConfig) Validate() error {
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("%w: radial_pulse speed must be finite", ErrInvalidParameter)
	}
	return nil
}

// RadialPulse ripples brightness outward from the trunk while the hue drifts
// with distance and time. LEDs never drop below half brightness.
type RadialPulse struct {
	cfg    RadialPulseConfig
	radial []float64
}

func NewRadialPulse(model *spatial.Model, cfg RadialPulseConfig) (*RadialPulse, error) {
	if model == nil {
		return nil, fmt.Errorf("radial_pulse: %w", effect.ErrMissingGeometry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	radial := model.RadialDistance()
	if peak := floats.Max(radial); peak > 0 {
		floats.Scale(1/peak, radial)
	}
	return &RadialPulse{cfg: cfg, radial: radial}, nil
}

func (p *RadialPulse) Name() string { return "radial_pulse" }

func (p *RadialPulse) Advance(buf *frame.Buffer, _, elapsed float64) {
	for i, r := range p.radial {
		wave := math.Sin(r*twoPi - elapsed*p.cfg.Speed*2)
		brightness := math.Max(0, wave)*0.5 + 0.5
		hue := wrap(r+elapsed*0.1, 1)
		buf.SetPixel(i, color.HSVToRGB(hue, 1, brightness))
	}
}
