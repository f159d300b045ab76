package config

import (
	"sort"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effects"
)

// Preset is a named effect with tuned parameters.
type Preset struct {
	Effect      string
	Description string
	Tune        func(s *effects.Settings)
}

var Presets = map[string]Preset{
	"candy_cane": {
		Effect: "height_gradient", Description: "red and white bands scrolling upward",
		Tune: func(s *effects.Settings) {
			s.HeightGradient.Colors = []color.RGB{{R: 255}, {R: 255, G: 255, B: 255}, {R: 255}, {R: 255, G: 255, B: 255}}
			s.HeightGradient.Animated = true
			s.HeightGradient.Speed = 0.1
		},
	},
	"frost": {
		Effect: "height_gradient", Description: "static ice-blue to white",
		Tune: func(s *effects.Settings) {
			s.HeightGradient.Colors = []color.RGB{{G: 64, B: 255}, {R: 200, G: 240, B: 255}}
			s.HeightGradient.Animated = false
			s.HeightGradient.Blend = effects.BlendLab
		},
	},
	"ember": {
		Effect: "rising_wave", Description: "slow orange glow climbing the tree",
		Tune: func(s *effects.Settings) {
			s.RisingWave.Speed = 0.15
			s.RisingWave.WaveHeight = 0.3
			s.RisingWave.Hue = 0.06
		},
	},
	"barber": {
		Effect: "spiral", Description: "tight fast spiral",
		Tune: func(s *effects.Settings) {
			s.Spiral.Speed = 1.0
			s.Spiral.Rotations = 6
			s.Spiral.Width = 0.1
		},
	},
	"lighthouse": {
		Effect: "rotating_plane", Description: "wide beam sweeping around",
		Tune: func(s *effects.Settings) {
			s.RotatingPlane.Speed = 0.2
			s.RotatingPlane.Thickness = 0.4
		},
	},
	"fireworks": {
		Effect: "sphere_pulse", Description: "many fast overlapping shells",
		Tune: func(s *effects.Settings) {
			s.SpherePulse.Speed = 0.8
			s.SpherePulse.NumPulses = 6
			s.SpherePulse.PulseWidth = 0.05
		},
	},
	"disco": {
		Effect: "rainbow", Description: "fast rainbow chase",
		Tune: func(s *effects.Settings) {
			s.Rainbow.Speed = 4
		},
	},
}

// GetPreset returns the named preset, or nil.
func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply selects the preset's effect and tunes cfg's settings for it.
func (p *Preset) Apply(cfg *Config) {
	cfg.Effect = p.Effect
	if p.Tune != nil {
		p.Tune(&cfg.Effects)
	}
}
