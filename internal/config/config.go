package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ButtonConfig holds the configuration for the trigger button.
type ButtonConfig struct {
	Pin    int `yaml:"pin"`     // BCM input pin, pull-up, pressed = LOW
	PollMs int `yaml:"poll_ms"` // edge-latch poll interval (ms)
}

// LedConfig holds the configuration for the status LED.
type LedConfig struct {
	Pin int `yaml:"pin"` // BCM output pin
	// Note: LED cathode is physically connected to Raspberry Pi ground
}

// CameraConfig describes how to communicate with the camera.
// Type selects a concrete implementation (e.g., "gphoto2").
type CameraConfig struct {
	Type             string `yaml:"type"`              // "gphoto2" or "mock"
	Binary           string `yaml:"binary"`            // gphoto2 binary name/path
	CaptureTimeoutS  int    `yaml:"capture_timeout_s"` // per-capture timeout (s)
}

// SessionConfig controls one trigger-to-print cycle.
type SessionConfig struct {
	Count        int    `yaml:"count"`         // photos per session: 1, 4 or 9
	CountdownS   int    `yaml:"countdown_s"`   // LED countdown before each capture (s)
	OutDir       string `yaml:"outdir"`        // where captures and montages are saved
	KeepCaptures bool   `yaml:"keep_captures"` // keep individual capture files on disk
}

// MontageConfig describes the composite canvas.
type MontageConfig struct {
	WidthPx       int     `yaml:"width_px"`
	HeightPx      int     `yaml:"height_px"`
	BorderPercent float64 `yaml:"border_percent"` // border as % of canvas width; 0 = edge-to-edge cells
	Background    string  `yaml:"background"`     // optional background image path
}

// PrinterConfig describes the print transport.
type PrinterConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Binary      string `yaml:"binary"`       // lp binary name/path
	PrinterName string `yaml:"printer_name"` // lp -d argument; empty = system default
	Copies      int    `yaml:"copies"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Button   ButtonConfig   `yaml:"button"`
	Led      LedConfig      `yaml:"led"`
	Camera   CameraConfig   `yaml:"camera"`
	Session  SessionConfig  `yaml:"session"`
	Montage  MontageConfig  `yaml:"montage"`
	Printer  PrinterConfig  `yaml:"printer"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// validCounts maps the supported session photo counts to their square grids.
var validCounts = map[int]int{1: 1, 4: 2, 9: 3}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Basic validation
	if cfg.Camera.Type == "" {
		return nil, fmt.Errorf("camera.type is required")
	}
	if !cfg.Defaults.MockGPIO {
		if cfg.Button.Pin <= 0 {
			return nil, fmt.Errorf("button.pin is required")
		}
		if cfg.Led.Pin <= 0 {
			return nil, fmt.Errorf("led.pin is required")
		}
		if cfg.Button.Pin == cfg.Led.Pin {
			return nil, fmt.Errorf("button.pin and led.pin must differ, both are %d", cfg.Button.Pin)
		}
	}
	if cfg.Button.PollMs <= 0 {
		cfg.Button.PollMs = 10 // reasonable default
	}

	if cfg.Camera.Binary == "" {
		cfg.Camera.Binary = "gphoto2"
	}
	if cfg.Camera.CaptureTimeoutS <= 0 {
		cfg.Camera.CaptureTimeoutS = 20 // gphoto2 downloads can be slow on large RAWs
	}

	if cfg.Session.Count == 0 {
		cfg.Session.Count = 4
	}
	if _, ok := validCounts[cfg.Session.Count]; !ok {
		return nil, fmt.Errorf("session.count must be 1, 4 or 9, got %d", cfg.Session.Count)
	}
	if cfg.Session.CountdownS < 0 {
		return nil, fmt.Errorf("session.countdown_s must be >= 0, got %d", cfg.Session.CountdownS)
	}
	if cfg.Session.CountdownS == 0 {
		cfg.Session.CountdownS = 2
	}
	if cfg.Session.OutDir == "" {
		cfg.Session.OutDir = "output"
	}

	if cfg.Montage.WidthPx == 0 {
		cfg.Montage.WidthPx = 1600
	}
	if cfg.Montage.HeightPx == 0 {
		cfg.Montage.HeightPx = 1200
	}
	if cfg.Montage.WidthPx < 0 || cfg.Montage.HeightPx < 0 {
		return nil, fmt.Errorf("montage dimensions must be > 0, got %dx%d", cfg.Montage.WidthPx, cfg.Montage.HeightPx)
	}
	grid := cfg.GridSize()
	if cfg.Montage.WidthPx%grid != 0 || cfg.Montage.HeightPx%grid != 0 {
		return nil, fmt.Errorf("montage %dx%d is not divisible by the %dx%d grid",
			cfg.Montage.WidthPx, cfg.Montage.HeightPx, grid, grid)
	}
	if cfg.Montage.BorderPercent < 0 || cfg.Montage.BorderPercent > 10 {
		return nil, fmt.Errorf("montage.border_percent must be between 0 and 10, got %.2f", cfg.Montage.BorderPercent)
	}

	if cfg.Printer.Binary == "" {
		cfg.Printer.Binary = "lp"
	}
	if cfg.Printer.Copies <= 0 {
		cfg.Printer.Copies = 1
	}

	return &cfg, nil
}

// GridSize returns the square grid dimension for the configured photo count
// (1 -> 1x1, 4 -> 2x2, 9 -> 3x3).
func (c *Config) GridSize() int {
	return validCounts[c.Session.Count]
}

// PollInterval returns the button edge-latch poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Button.PollMs) * time.Millisecond
}

// CaptureTimeout returns the per-capture timeout.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Camera.CaptureTimeoutS) * time.Second
}

// Countdown returns the LED countdown duration before each capture.
func (c *Config) Countdown() time.Duration {
	return time.Duration(c.Session.CountdownS) * time.Second
}
