package effects

import (
	"fmt"
	"math"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/frame"
)

// RainbowConfig configures Rainbow.
type RainbowConfig struct {
	Speed float64 `yaml:"speed"`
}

func DefaultRainbowConfig() RainbowConfig {
	return RainbowConfig{Speed: 1.0}
}

func (c RainbowConfig) Validate() error {
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("%w: rainbow speed must be finite", ErrInvalidParameter)
	}
	return nil
}

// Rainbow cycles the color wheel along LED index order. It needs no
// geometry.
type Rainbow struct {
	cfg    RainbowConfig
	offset float64
}

func NewRainbow(cfg RainbowConfig) (*Rainbow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Rainbow{cfg: cfg}, nil
}

func (r *Rainbow) Name() string { return "rainbow" }

func (r *Rainbow) Advance(buf *frame.Buffer, dt, _ float64) {
	r.offset += dt * r.cfg.Speed * 50
	n := buf.Len()
	for i := 0; i < n; i++ {
		idx := int(float64(i)*256/float64(n) + r.offset)
		buf.SetPixel(i, color.Wheel(idx))
	}
}
