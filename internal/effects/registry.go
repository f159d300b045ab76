package effects

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/spatial"
)

var (
	// ErrUnknownEffect is returned for names the registry does not hold.
	ErrUnknownEffect = errors.New("effects: unknown effect")

	// ErrLEDCountMismatch is returned when a spatial effect is asked to drive
	// a different number of LEDs than its model holds.
	ErrLEDCountMismatch = errors.New("effects: LED count does not match spatial model")

	// ErrInvalidParameter is returned by config validation.
	ErrInvalidParameter = errors.New("effects: invalid parameter")
)

// Settings carries the per-effect parameters, keyed in YAML by effect name.
type Settings struct {
	Rainbow        RainbowConfig        `yaml:"rainbow"`
	HeightGradient HeightGradientConfig `yaml:"height_gradient"`
	RisingWave     RisingWaveConfig     `yaml:"rising_wave"`
	Spiral         SpiralConfig         `yaml:"spiral"`
	RotatingPlane  RotatingPlaneConfig  `yaml:"rotating_plane"`
	SpherePulse    SpherePulseConfig    `yaml:"sphere_pulse"`
	RadialPulse    RadialPulseConfig    `yaml:"radial_pulse"`
}

func DefaultSettings() Settings {
	return Settings{
		Rainbow:        DefaultRainbowConfig(),
		HeightGradient: DefaultHeightGradientConfig(),
		RisingWave:     DefaultRisingWaveConfig(),
		Spiral:         DefaultSpiralConfig(),
		RotatingPlane:  DefaultRotatingPlaneConfig(),
		SpherePulse:    DefaultSpherePulseConfig(),
		RadialPulse:    DefaultRadialPulseConfig(),
	}
}

// Validate checks every effect's parameters.
func (s Settings) Validate() error {
	for _, v := range []interface{ Validate() error }{
		s.Rainbow, s.HeightGradient, s.RisingWave, s.Spiral,
		s.RotatingPlane, s.SpherePulse, s.RadialPulse,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Factory builds a ready-to-start effect.
type Factory func(ledCount, fps int, model *spatial.Model, s Settings, opts ...effect.Option) (*effect.Effect, error)

type entry struct {
	factory     Factory
	needsModel  bool
	description string
}

// Registry maps effect names to factories.
type Registry struct {
	entries map[string]entry
}

// NewRegistry returns a registry holding every built-in effect.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]entry)}

	r.Register("rainbow", "classic rainbow cycling along the strip", false,
		func(n, fps int, _ *spatial.Model, s Settings, opts ...effect.Option) (*effect.Effect, error) {
			a, err := NewRainbow(s.Rainbow)
			if err != nil {
				return nil, err
			}
			return effect.New(a, n, fps, opts...), nil
		})
	r.Register("height_gradient", "color gradient by height, optionally scrolling", true,
		spatialFactory(func(m *spatial.Model, s Settings) (effect.Animation, error) {
			return NewHeightGradient(m, s.HeightGradient)
		}))
	r.Register("rising_wave", "band of light rising up the tree", true,
		spatialFactory(func(m *spatial.Model, s Settings) (effect.Animation, error) {
			return NewRisingWave(m, s.RisingWave)
		}))
	r.Register("spiral", "rotating helix around the trunk", true,
		spatialFactory(func(m *spatial.Model, s Settings) (effect.Animation, error) {
			return NewSpiral(m, s.Spiral)
		}))
	r.Register("rotating_plane", "plane of light sweeping around the trunk", true,
		spatialFactory(func(m *spatial.Model, s Settings) (effect.Animation, error) {
			return NewRotatingPlane(m, s.RotatingPlane)
		}))
	r.Register("sphere_pulse", "expanding spheres from random LEDs", true,
		spatialFactory(func(m *spatial.Model, s Settings) (effect.Animation, error) {
			return NewSpherePulse(m, s.SpherePulse)
		}))
	r.Register("radial_pulse", "ripples outward from the trunk", true,
		spatialFactory(func(m *spatial.Model, s Settings) (effect.Animation, error) {
			return NewRadialPulse(m, s.RadialPulse)
		}))

	return r
}

// spatialFactory adapts an animation constructor, enforcing that the model
// drives exactly ledCount LEDs.
func spatialFactory(build func(*spatial.Model, Settings) (effect.Animation, error)) Factory {
	return func(n, fps int, m *spatial.Model, s Settings, opts ...effect.Option) (*effect.Effect, error) {
		if m != nil && m.Len() != n {
			return nil, fmt.Errorf("%w: %d LEDs requested, model has %d", ErrLEDCountMismatch, n, m.Len())
		}
		a, err := build(m, s)
		if err != nil {
			return nil, err
		}
		return effect.New(a, n, fps, opts...), nil
	}
}

// Register adds or replaces an effect.
func (r *Registry) Register(name, description string, needsModel bool, f Factory) {
	r.entries[name] = entry{factory: f, needsModel: needsModel, description: description}
}

func (r *Registry) Get(name string) (Factory, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, name)
	}
	return e.factory, nil
}

// Build looks up name and constructs the effect.
func (r *Registry) Build(name string, ledCount, fps int, model *spatial.Model, s Settings, opts ...effect.Option) (*effect.Effect, error) {
	f, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return f(ledCount, fps, model, s, opts...)
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Description(name string) string { return r.entries[name].description }

// Spatial reports whether name needs a spatial model.
func (r *Registry) Spatial(name string) bool { return r.entries[name].needsModel }
