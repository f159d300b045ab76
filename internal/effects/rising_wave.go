package effects

import (
	"fmt"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/spatial"
)

// RisingWaveConfig configures RisingWave. WaveHeight is the half-width of the
// lit band as a fraction of the tree height.
type RisingWaveConfig struct {
	Speed      float64 `yaml:"speed"`
	WaveHeight float64 `yaml:"wave_height"`
	Hue        float64 `yaml:"hue"`
}

func DefaultRisingWaveConfig() RisingWaveConfig {
	return RisingWaveConfig{Speed: 0.3, WaveHeight: 0.2, Hue: 0.5}
}

func (c RisingWaveConfig) Validate() error {
	if c.WaveHeight <= 0 {
		return fmt.Errorf("%w: rising_wave wave_height must be positive, got %v", ErrInvalidParameter, c.WaveHeight)
	}
	if c.Hue < 0 || c.Hue > 1 {
		return fmt.Errorf("%w: rising_wave hue must be in [0,1], got %v", ErrInvalidParameter, c.Hue)
	}
	return nil
}

// RisingWave sends a single-hue band of light up the tree.
type RisingWave struct {
	cfg     RisingWaveConfig
	heights []float64
}

func NewRisingWave(model *spatial.Model, cfg RisingWaveConfig) (*RisingWave, error) {
	if model == nil {
		return nil, fmt.Errorf("rising_wave: %w", effect.ErrMissingGeometry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RisingWave{cfg: cfg, heights: model.HeightNormalized()}, nil
}

func (w *RisingWave) Name() string { return "rising_wave" }

// WavePosition is the band center at elapsed seconds, in [0,1).
func (w *RisingWave) WavePosition(elapsed float64) float64 {
	return wrap(elapsed*w.cfg.Speed, 1)
}

// Brightness is the band intensity for an LED at height when the band is
// centered on wavePos.
func (w *RisingWave) Brightness(height, wavePos float64) float64 {
	d := height - wavePos
	if d < 0 {
		d = -d
	}
	return falloff(d, w.cfg.WaveHeight)
}

func (w *RisingWave) Advance(buf *frame.Buffer, _, elapsed float64) {
	pos := w.WavePosition(elapsed)
	for i, h := range w.heights {
		buf.SetPixel(i, color.HSVToRGB(w.cfg.Hue, 1, w.Brightness(h, pos)))
	}
}
