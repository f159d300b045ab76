package metrics

import (
	"math"

	"github.com/san-kum/treelights/internal/color"
)

// PowerModel estimates supply current the way WLED's brightness limiter
// does: a fixed idle draw per LED plus a share of the full-white current
// proportional to the channel sum.
type PowerModel struct {
	FullWhiteMilliamps float64
	IdleMilliamps      float64
}

// DefaultPowerModel matches a typical 5V WS2812B.
var DefaultPowerModel = PowerModel{FullWhiteMilliamps: 55, IdleMilliamps: 1}

// Current is the estimated draw of one frame in milliamps.
func (pm PowerModel) Current(pixels []color.RGB) float64 {
	sum := 0.0
	for _, p := range pixels {
		sum += float64(p.R) + float64(p.G) + float64(p.B)
	}
	return float64(len(pixels))*pm.IdleMilliamps + pm.FullWhiteMilliamps*sum/(3*255)
}

// Power is the mean estimated current across observed frames.
type Power struct {
	model   PowerModel
	total   float64
	samples int
}

func NewPower(pm PowerModel) *Power { return &Power{model: pm} }

func (p *Power) Name() string { return "power_ma" }

func (p *Power) Observe(pixels []color.RGB, _ float64) {
	p.total += p.model.Current(pixels)
	p.samples++
}

func (p *Power) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.total / float64(p.samples)
}

func (p *Power) Reset() {
	p.total = 0
	p.samples = 0
}

// PeakPower is the highest single-frame current seen.
type PeakPower struct {
	model PowerModel
	peak  float64
}

func NewPeakPower(pm PowerModel) *PeakPower { return &PeakPower{model: pm} }

func (p *PeakPower) Name() string { return "peak_power_ma" }

func (p *PeakPower) Observe(pixels []color.RGB, _ float64) {
	p.peak = math.Max(p.peak, p.model.Current(pixels))
}

func (p *PeakPower) Value() float64 { return p.peak }

func (p *PeakPower) Reset() { p.peak = 0 }
