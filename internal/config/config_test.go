package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effects"
	"github.com/san-kum/treelights/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LEDs.Count != 1610 {
		t.Errorf("expected 1610 LEDs, got %d", cfg.LEDs.Count)
	}
	if cfg.LEDs.FPS != 30 {
		t.Errorf("expected 30 fps, got %d", cfg.LEDs.FPS)
	}
	if cfg.WLED.HTTPPort != 80 || cfg.WLED.UDPPort != 4048 {
		t.Errorf("unexpected ports %d/%d", cfg.WLED.HTTPPort, cfg.WLED.UDPPort)
	}
	if cfg.WLED.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.WLED.Timeout)
	}
	if cfg.Effects.SpherePulse.NumPulses != 3 {
		t.Errorf("expected 3 pulses, got %d", cfg.Effects.SpherePulse.NumPulses)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
wled:
  host: tree.local
  timeout: 2s
leds:
  count: 200
effect: spiral
effects:
  spiral:
    rotations: 5
  height_gradient:
    colors: ["#0000ff", "#f00"]
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.WLED.Host != "tree.local" {
		t.Errorf("expected host tree.local, got %s", cfg.WLED.Host)
	}
	if cfg.WLED.Timeout != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.WLED.Timeout)
	}
	if cfg.WLED.UDPPort != 4048 {
		t.Errorf("udp port default lost, got %d", cfg.WLED.UDPPort)
	}
	if cfg.LEDs.Count != 200 || cfg.LEDs.FPS != 30 {
		t.Errorf("unexpected leds %+v", cfg.LEDs)
	}
	if cfg.Effect != "spiral" {
		t.Errorf("expected spiral, got %s", cfg.Effect)
	}
	if cfg.Effects.Spiral.Rotations != 5 || cfg.Effects.Spiral.Width != 0.15 {
		t.Errorf("unexpected spiral settings %+v", cfg.Effects.Spiral)
	}
	want := []color.RGB{{B: 255}, {R: 255}}
	got := cfg.Effects.HeightGradient.Colors
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected palette %v, got %v", want, got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"zero leds", "leds:\n  count: 0\n"},
		{"bad fps", "leds:\n  fps: 1000\n"},
		{"bad sink", "sink:\n  type: carrier-pigeon\n"},
		{"adalight without port", "sink:\n  type: adalight\n"},
		{"bad level", "logging:\n  level: chatty\n"},
		{"bad effect param", "effects:\n  rising_wave:\n    wave_height: -1\n"},
		{"bad color", "effects:\n  height_gradient:\n    colors: [\"red\"]\n"},
		{"malformed", "leds: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back: %v", err)
	}
	if cfg.LEDs.Count != DefaultLEDCount {
		t.Errorf("expected defaults, got %+v", cfg.LEDs)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load should surface the missing file, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.WLED.Host = "10.0.0.42"
	cfg.Effects.HeightGradient.Colors = []color.RGB{{R: 255, G: 128}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.WLED.Host != "10.0.0.42" || loaded.WLED.Timeout != DefaultTimeout {
		t.Errorf("unexpected wled %+v", loaded.WLED)
	}
	if c := loaded.Effects.HeightGradient.Colors; len(c) != 1 || c[0] != (color.RGB{R: 255, G: 128}) {
		t.Errorf("palette lost in round trip: %v", c)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, DefaultConfig()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"udp_port: 4048", "count: 1610", "effect: height_gradient", "timeout: 5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("ember")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}

	cfg := DefaultConfig()
	p.Apply(cfg)
	if cfg.Effect != "rising_wave" {
		t.Errorf("expected rising_wave, got %s", cfg.Effect)
	}
	if cfg.Effects.RisingWave.Hue != 0.06 {
		t.Errorf("expected hue 0.06, got %f", cfg.Effects.RisingWave.Hue)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	reg := effects.NewRegistry()
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		cfg := DefaultConfig()
		GetPreset(name).Apply(cfg)
		if _, err := reg.Get(cfg.Effect); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}
