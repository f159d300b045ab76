package effects_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/effects"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/spatial"
	"github.com/san-kum/treelights/internal/timeutil"
)

func mustModel(points ...r3.Vec) *spatial.Model {
	m, err := spatial.Build(points, len(points))
	Expect(err).NotTo(HaveOccurred())
	return m
}

// ring puts four LEDs at 0, π/2, π and 3π/2 around the origin.
func ring() *spatial.Model {
	return mustModel(r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: -1}, r3.Vec{Y: -1})
}

func render(a effect.Animation, n int, dt, elapsed float64) *frame.Buffer {
	buf := frame.New(n)
	a.Advance(buf, dt, elapsed)
	return buf
}

var (
	red  = color.RGB{R: 255}
	blue = color.RGB{B: 255}
	cyan = color.RGB{G: 255, B: 255}
)

var _ = Describe("Rainbow", func() {
	It("spreads the wheel across the strip", func() {
		r, err := effects.NewRainbow(effects.DefaultRainbowConfig())
		Expect(err).NotTo(HaveOccurred())

		buf := render(r, 4, 0, 0)
		Expect(buf.Pixels()).To(Equal([]color.RGB{
			color.Wheel(0), color.Wheel(64), color.Wheel(128), color.Wheel(192),
		}))
	})

	It("accumulates its phase from dt", func() {
		r, _ := effects.NewRainbow(effects.RainbowConfig{Speed: 1})
		buf := frame.New(4)
		r.Advance(buf, 0.1, 0.1)
		Expect(buf.At(0)).To(Equal(color.Wheel(5)))
		Expect(buf.At(0)).To(Equal(color.RGB{R: 240, G: 15}))
	})
})

var _ = Describe("HeightGradient", func() {
	var model *spatial.Model

	BeforeEach(func() {
		model = mustModel(r3.Vec{Z: 0}, r3.Vec{X: 1, Z: 1}, r3.Vec{Y: 1, Z: 0.5})
	})

	It("interpolates a two-color palette by height", func() {
		g, err := effects.NewHeightGradient(model, effects.HeightGradientConfig{
			Colors: []color.RGB{blue, red},
		})
		Expect(err).NotTo(HaveOccurred())

		buf := render(g, 3, 0, 0)
		Expect(buf.At(0)).To(Equal(blue))
		Expect(buf.At(1)).To(Equal(red))
		Expect(buf.At(2)).To(Equal(color.RGB{R: 127, B: 127}))
	})

	It("short-circuits a single color", func() {
		gold := color.RGB{R: 255, G: 215}
		g, _ := effects.NewHeightGradient(model, effects.HeightGradientConfig{
			Colors: []color.RGB{gold}, Animated: true, Speed: 1,
		})
		buf := render(g, 3, 0.1, 0.37)
		Expect(buf.Pixels()).To(HaveEach(gold))
	})

	It("sweeps hue by height without a palette", func() {
		g, _ := effects.NewHeightGradient(model, effects.HeightGradientConfig{})
		buf := render(g, 3, 0, 0)
		Expect(buf.At(0)).To(Equal(red))
		Expect(buf.At(2)).To(Equal(cyan))
	})

	It("scrolls when animated", func() {
		g, _ := effects.NewHeightGradient(model, effects.HeightGradientConfig{Animated: true, Speed: 0.5})
		buf := render(g, 3, 0, 1)
		Expect(buf.At(0)).To(Equal(cyan))
		Expect(buf.At(2)).To(Equal(red))
	})

	It("rejects an unknown blend mode", func() {
		_, err := effects.NewHeightGradient(model, effects.HeightGradientConfig{Blend: "cubic"})
		Expect(err).To(MatchError(effects.ErrInvalidParameter))
	})

	It("keeps palette endpoints in lab mode", func() {
		g, _ := effects.NewHeightGradient(model, effects.HeightGradientConfig{
			Colors: []color.RGB{blue, red}, Blend: effects.BlendLab,
		})
		buf := render(g, 3, 0, 0)
		Expect(buf.At(0)).To(Equal(blue))
		Expect(buf.At(1)).To(Equal(red))
	})
})

var _ = Describe("RisingWave", func() {
	var w *effects.RisingWave

	BeforeEach(func() {
		var err error
		model := mustModel(r3.Vec{Z: 0}, r3.Vec{Z: 0.5}, r3.Vec{Z: 0.8}, r3.Vec{Z: 1})
		w, err = effects.NewRisingWave(model, effects.RisingWaveConfig{Speed: 0.5, WaveHeight: 0.2, Hue: 0.5})
		Expect(err).NotTo(HaveOccurred())
	})

	It("peaks at the band center and is dark outside it", func() {
		Expect(w.Brightness(0.5, 0.5)).To(Equal(1.0))
		Expect(w.Brightness(0.8, 0.5)).To(Equal(0.0))
		Expect(w.Brightness(0.6, 0.5)).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("renders the band at its current position", func() {
		Expect(w.WavePosition(1)).To(Equal(0.5))
		buf := render(w, 4, 0, 1)
		Expect(buf.At(1)).To(Equal(cyan))
		Expect(buf.At(2)).To(Equal(color.Black))
		Expect(buf.At(0)).To(Equal(color.Black))
	})

	It("rejects a non-positive band", func() {
		_, err := effects.NewRisingWave(ring(), effects.RisingWaveConfig{WaveHeight: 0})
		Expect(err).To(MatchError(effects.ErrInvalidParameter))
	})
})

var _ = Describe("Spiral", func() {
	It("lights the LED under the helix and follows the rotation", func() {
		s, err := effects.NewSpiral(ring(), effects.SpiralConfig{Speed: 0.25, Rotations: 3, Width: 0.15})
		Expect(err).NotTo(HaveOccurred())

		buf := render(s, 4, 0, 0)
		Expect(buf.At(0)).To(Equal(red))
		Expect(buf.At(1)).To(Equal(color.Black))

		buf = render(s, 4, 0, 1)
		Expect(buf.At(0)).To(Equal(color.Black))
		Expect(buf.At(1)).To(Equal(red))
	})

	It("lights every LED with a falloff when the width exceeds a half turn", func() {
		s, err := effects.NewSpiral(ring(), effects.SpiralConfig{Speed: 0.25, Rotations: 3, Width: 2})
		Expect(err).NotTo(HaveOccurred())

		buf := render(s, 4, 0, 0)
		Expect(buf.At(0)).To(Equal(red))
		for i := 1; i < 4; i++ {
			Expect(buf.At(i).R).To(BeNumerically(">", 0), "LED %d", i)
			Expect(buf.At(i).R).To(BeNumerically("<", 255), "LED %d", i)
		}
	})

	It("rejects a non-positive width", func() {
		_, err := effects.NewSpiral(ring(), effects.SpiralConfig{Width: 0})
		Expect(err).To(MatchError(effects.ErrInvalidParameter))
	})
})

var _ = Describe("RotatingPlane", func() {
	It("takes the shorter arc to the plane", func() {
		p, err := effects.NewRotatingPlane(ring(), effects.RotatingPlaneConfig{Speed: 0.5, Thickness: 0.15})
		Expect(err).NotTo(HaveOccurred())

		buf := render(p, 4, 0, 1)
		Expect(buf.At(2)).To(Equal(red))
		Expect(buf.At(0)).To(Equal(color.Black))

		// plane just short of a full turn lights LED 0 through the wrap
		buf = render(p, 4, 0, 1.99)
		Expect(buf.At(0).R).To(BeNumerically(">", 0))
	})

	It("accepts a band wider than a half turn", func() {
		p, err := effects.NewRotatingPlane(ring(), effects.RotatingPlaneConfig{Speed: 0.5, Thickness: 4})
		Expect(err).NotTo(HaveOccurred())

		buf := render(p, 4, 0, 0)
		for i := 0; i < 4; i++ {
			Expect(buf.At(i).R).To(BeNumerically(">", 0), "LED %d", i)
		}
	})
})

var _ = Describe("SpherePulse", func() {
	It("grows a shell from its origin", func() {
		model := mustModel(r3.Vec{}, r3.Vec{Z: 1})
		p, err := effects.NewSpherePulse(model, effects.SpherePulseConfig{
			Speed: 0.5, PulseWidth: 0.1, NumPulses: 1, Seed: 42,
		})
		Expect(err).NotTo(HaveOccurred())

		origin := p.Origins()[0]
		lit := 0
		if origin == (r3.Vec{Z: 1}) {
			lit = 1
		}

		buf := frame.New(2)
		buf.SetAll(color.White)
		p.Advance(buf, 0, 0)
		Expect(buf.At(lit)).To(Equal(red))
		Expect(buf.At(1 - lit)).To(Equal(color.Black))
	})

	It("picks the same origins for the same seed", func() {
		model := mustModel(spatial.GenerateSpiral(50)...)
		cfg := effects.SpherePulseConfig{Speed: 0.5, PulseWidth: 0.1, NumPulses: 3, Seed: 7}
		a, _ := effects.NewSpherePulse(model, cfg)
		b, _ := effects.NewSpherePulse(model, cfg)
		Expect(a.Origins()).To(Equal(b.Origins()))
		Expect(a.Origins()).To(HaveLen(3))
	})

	It("adds overlapping shells channel by channel", func() {
		model := mustModel(r3.Vec{}, r3.Vec{Z: 1})
		p, err := effects.NewSpherePulse(model, effects.SpherePulseConfig{
			Speed: 0.5, PulseWidth: 10, NumPulses: 2, Seed: 3,
		})
		Expect(err).NotTo(HaveOccurred())

		// At t=0 the red shell sits on its origin and the cyan shell is
		// half a diagonal out, so both light both LEDs.
		near := 0
		if p.Origins()[0] == (r3.Vec{Z: 1}) {
			near = 1
		}
		buf := render(p, 2, 0, 0)
		Expect(buf.At(near)).To(Equal(color.RGB{R: 255, G: 230, B: 230}))
		Expect(buf.At(1 - near)).To(Equal(color.RGB{R: 206, G: 230, B: 230}))
	})

	It("saturates at 255 where shells pile up", func() {
		model := mustModel(r3.Vec{}, r3.Vec{Z: 1})
		p, err := effects.NewSpherePulse(model, effects.SpherePulseConfig{
			Speed: 0.5, PulseWidth: 10, NumPulses: 6, Seed: 9,
		})
		Expect(err).NotTo(HaveOccurred())

		buf := render(p, 2, 0, 0)
		Expect(buf.At(0)).To(Equal(color.White))
		Expect(buf.At(1)).To(Equal(color.White))
	})

	It("stays dark on a single-point model", func() {
		p, err := effects.NewSpherePulse(mustModel(r3.Vec{X: 2}), effects.DefaultSpherePulseConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(render(p, 1, 0, 0.3).At(0)).To(Equal(color.Black))
	})
})

var _ = Describe("RadialPulse", func() {
	It("holds the trunk at half brightness at t=0", func() {
		p, err := effects.NewRadialPulse(mustModel(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: -1}), effects.DefaultRadialPulseConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(render(p, 3, 0, 0).At(0)).To(Equal(color.RGB{R: 127}))
	})
})

var _ = Describe("spatial effects without geometry", func() {
	It("fail construction with ErrMissingGeometry", func() {
		_, err := effects.NewSpiral(nil, effects.DefaultSpiralConfig())
		Expect(err).To(MatchError(effect.ErrMissingGeometry))
		_, err = effects.NewSpherePulse(nil, effects.DefaultSpherePulseConfig())
		Expect(err).To(MatchError(effect.ErrMissingGeometry))
	})
})

var _ = Describe("Registry", func() {
	var reg *effects.Registry

	BeforeEach(func() {
		reg = effects.NewRegistry()
	})

	It("lists every built-in effect in order", func() {
		Expect(reg.List()).To(Equal([]string{
			"height_gradient", "radial_pulse", "rainbow", "rising_wave",
			"rotating_plane", "sphere_pulse", "spiral",
		}))
		Expect(reg.Spatial("rainbow")).To(BeFalse())
		Expect(reg.Spatial("spiral")).To(BeTrue())
		Expect(reg.Description("spiral")).NotTo(BeEmpty())
	})

	It("rejects unknown names", func() {
		_, err := reg.Build("disco", 10, 30, nil, effects.DefaultSettings())
		Expect(err).To(MatchError(effects.ErrUnknownEffect))
	})

	It("builds rainbow without a model", func() {
		e, err := reg.Build("rainbow", 10, 30, nil, effects.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Name()).To(Equal("rainbow"))
		Expect(e.Buffer().Len()).To(Equal(10))
	})

	It("requires geometry for spatial effects", func() {
		_, err := reg.Build("rising_wave", 10, 30, nil, effects.DefaultSettings())
		Expect(err).To(MatchError(effect.ErrMissingGeometry))
	})

	It("rejects an LED count that disagrees with the model", func() {
		_, err := reg.Build("spiral", 10, 30, ring(), effects.DefaultSettings())
		Expect(err).To(MatchError(effects.ErrLEDCountMismatch))
	})

	It("passes effect options through", func() {
		clock := timeutil.NewMockClock(time.Unix(0, 0))
		e, err := reg.Build("rising_wave", 4, 30, ring(), effects.DefaultSettings(), effect.WithClock(clock))
		Expect(err).NotTo(HaveOccurred())

		e.Start()
		clock.Advance(250 * time.Millisecond)
		e.Tick()
		Expect(e.Time()).To(BeNumerically("~", 0.25, 1e-9))
	})

	It("validates default settings", func() {
		Expect(effects.DefaultSettings().Validate()).To(Succeed())
		bad := effects.DefaultSettings()
		bad.SpherePulse.NumPulses = 0
		Expect(bad.Validate()).To(MatchError(effects.ErrInvalidParameter))
	})
})
