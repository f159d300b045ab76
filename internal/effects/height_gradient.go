package effects

import (
	"fmt"
	"math"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/spatial"
)

// Blend modes for HeightGradient palettes.
const (
	BlendLinear = "linear"
	BlendLab    = "lab"
)

// HeightGradientConfig configures HeightGradient. With no Colors the
// gradient sweeps the full hue circle.
type HeightGradientConfig struct {
	Colors   []color.RGB `yaml:"colors,omitempty"`
	Animated bool        `yaml:"animated"`
	Speed    float64     `yaml:"speed"`
	Blend    string      `yaml:"blend"`
}

func DefaultHeightGradientConfig() HeightGradientConfig {
	return HeightGradientConfig{Animated: true, Speed: 0.2, Blend: BlendLinear}
}

func (c HeightGradientConfig) Validate() error {
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("%w: height_gradient speed must be finite", ErrInvalidParameter)
	}
	switch c.Blend {
	case "", BlendLinear, BlendLab:
	default:
		return fmt.Errorf("%w: height_gradient blend %q (want %s or %s)", ErrInvalidParameter, c.Blend, BlendLinear, BlendLab)
	}
	return nil
}

// HeightGradient colors each LED by its normalized height, optionally
// scrolling the gradient upward over time.
type HeightGradient struct {
	cfg     HeightGradientConfig
	heights []float64
	blend   func(c1, c2 color.RGB, ratio float64) color.RGB
}

func NewHeightGradient(model *spatial.Model, cfg HeightGradientConfig) (*HeightGradient, error) {
	if model == nil {
		return nil, fmt.Errorf("height_gradient: %w", effect.ErrMissingGeometry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &HeightGradient{
		cfg:     cfg,
		heights: model.HeightNormalized(),
		blend:   color.Blend,
	}
	if cfg.Blend == BlendLab {
		g.blend = color.BlendLab
	}
	return g, nil
}

func (g *HeightGradient) Name() string { return "height_gradient" }

func (g *HeightGradient) Advance(buf *frame.Buffer, _, elapsed float64) {
	for i, h := range g.heights {
		// Static gradients keep the top LED at the last palette entry; only
		// scrolling wraps.
		pos := h
		if g.cfg.Animated {
			pos = wrap(h+elapsed*g.cfg.Speed, 1)
		}
		if len(g.cfg.Colors) == 0 {
			buf.SetPixel(i, color.HSVToRGB(pos, 1, 1))
			continue
		}
		buf.SetPixel(i, g.interpolate(pos))
	}
}

// interpolate walks the palette as evenly sized segments; pos is in [0,1].
func (g *HeightGradient) interpolate(pos float64) color.RGB {
	colors := g.cfg.Colors
	if len(colors) == 1 {
		return colors[0]
	}
	segment := 1.0 / float64(len(colors)-1)
	idx := int(pos / segment)
	if idx > len(colors)-2 {
		idx = len(colors) - 2
	}
	within := (pos - float64(idx)*segment) / segment
	return g.blend(colors[idx], colors[idx+1], within)
}
