// Package config loads the controller's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/treelights/internal/effects"
	"github.com/san-kum/treelights/internal/monitoring"
)

const (
	DefaultHost        = "localhost"
	DefaultHTTPPort    = 80
	DefaultUDPPort     = 4048
	DefaultTimeout     = 5 * time.Second
	DefaultLEDCount    = 1610
	DefaultFPS         = 30
	DefaultEffect      = "height_gradient"
	DefaultBaudRate    = 115200
	DefaultDataDir     = "./runs"
	DefaultLogLevel    = "info"
	DefaultSinkType    = SinkWLED
	DefaultCoordinates = "config/tree_coordinates.csv"
)

// Sink types.
const (
	SinkWLED     = "wled"
	SinkAdalight = "adalight"
	SinkNull     = "null"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	WLED    WLEDConfig       `yaml:"wled"`
	LEDs    LEDConfig        `yaml:"leds"`
	Effect  string           `yaml:"effect"`
	Effects effects.Settings `yaml:"effects"`
	Sink    SinkConfig       `yaml:"sink"`
	Logging LoggingConfig    `yaml:"logging"`
	DataDir string           `yaml:"data_dir"`
}

type WLEDConfig struct {
	Host     string        `yaml:"host"`
	HTTPPort int           `yaml:"http_port"`
	UDPPort  int           `yaml:"udp_port"`
	Timeout  time.Duration `yaml:"timeout"`
}

type LEDConfig struct {
	Count       int    `yaml:"count"`
	FPS         int    `yaml:"fps"`
	Coordinates string `yaml:"coordinates"`
}

type SinkConfig struct {
	Type       string `yaml:"type"`
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		WLED: WLEDConfig{
			Host:     DefaultHost,
			HTTPPort: DefaultHTTPPort,
			UDPPort:  DefaultUDPPort,
			Timeout:  DefaultTimeout,
		},
		LEDs: LEDConfig{
			Count:       DefaultLEDCount,
			FPS:         DefaultFPS,
			Coordinates: DefaultCoordinates,
		},
		Effect:  DefaultEffect,
		Effects: effects.DefaultSettings(),
		Sink: SinkConfig{
			Type:     DefaultSinkType,
			BaudRate: DefaultBaudRate,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
		DataDir: DefaultDataDir,
	}
}

// Load overlays the file at path onto the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path is
// empty or missing.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		monitoring.Warnf("config file %s not found, using defaults", path)
		return DefaultConfig(), nil
	}
	return cfg, err
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Write encodes cfg as YAML to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func (c *Config) Validate() error {
	if c.LEDs.Count < 1 {
		return fmt.Errorf("%w: leds.count must be positive, got %d", ErrInvalidConfig, c.LEDs.Count)
	}
	if c.LEDs.FPS < 1 || c.LEDs.FPS > 240 {
		return fmt.Errorf("%w: leds.fps must be in [1,240], got %d", ErrInvalidConfig, c.LEDs.FPS)
	}
	if c.WLED.HTTPPort < 1 || c.WLED.HTTPPort > 65535 || c.WLED.UDPPort < 1 || c.WLED.UDPPort > 65535 {
		return fmt.Errorf("%w: wled ports out of range", ErrInvalidConfig)
	}
	if c.WLED.Timeout <= 0 {
		return fmt.Errorf("%w: wled.timeout must be positive", ErrInvalidConfig)
	}
	switch c.Sink.Type {
	case SinkWLED, SinkNull:
	case SinkAdalight:
		if c.Sink.SerialPort == "" {
			return fmt.Errorf("%w: sink.serial_port is required for adalight", ErrInvalidConfig)
		}
		if c.Sink.BaudRate < 1 {
			return fmt.Errorf("%w: sink.baud_rate must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown sink.type %q", ErrInvalidConfig, c.Sink.Type)
	}
	if _, err := monitoring.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Effects.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
