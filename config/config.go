// Package config loads the controller configuration from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"traffic-lights/lights"
	"traffic-lights/logging"
	"traffic-lights/types"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "traffic-lights.toml"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Light driver names.
const (
	DriverTower  = "tower"
	DriverSysfs  = "sysfs"
	DriverMemory = "memory"
)

// Config is the complete controller configuration.
type Config struct {
	Node      string          `toml:"node"`
	Debug     bool            `toml:"debug"`
	Serial    SerialConfig    `toml:"serial"`
	Lights    LightsConfig    `toml:"lights"`
	Buttons   ButtonsConfig   `toml:"buttons"`
	Timer     TimerConfig     `toml:"timer"`
	Queue     QueueConfig     `toml:"queue"`
	Work      WorkConfig      `toml:"work"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Heartbeat HeartbeatConfig `toml:"heartbeat"`
	Logging   logging.Config  `toml:"logging"`
}

// SerialConfig describes the command input port.
type SerialConfig struct {
	Enabled        bool   `toml:"enabled"`
	Port           string `toml:"port"`
	Baud           int    `toml:"baud"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// LightsConfig selects and configures the output driver.
type LightsConfig struct {
	Driver       string            `toml:"driver"`
	Port         string            `toml:"port"`
	Baud         int               `toml:"baud"`
	Wiring       string            `toml:"wiring"`
	OnDurationMS int               `toml:"on_duration_ms"`
	Sysfs        map[string]string `toml:"sysfs"`
}

// ButtonsConfig maps colors to exported GPIO lines.
type ButtonsConfig struct {
	Enabled        bool           `toml:"enabled"`
	PollIntervalMS int            `toml:"poll_interval_ms"`
	Lines          map[string]int `toml:"lines"`
}

type TimerConfig struct {
	InitialColor string `toml:"initial_color"`
}

type QueueConfig struct {
	Limit int `toml:"limit"`
}

type WorkConfig struct {
	Depth int `toml:"depth"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"`
}

type HeartbeatConfig struct {
	IntervalS int `toml:"interval_s"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Enabled:        true,
			Port:           "/dev/ttyACM0",
			Baud:           115200,
			PollIntervalMS: 5,
		},
		Lights: LightsConfig{
			Driver:       DriverTower,
			Port:         "/dev/ttyUSB0",
			Baud:         9600,
			OnDurationMS: 1000,
		},
		Buttons: ButtonsConfig{
			PollIntervalMS: 10,
		},
		Timer: TimerConfig{
			InitialColor: "red",
		},
		Work: WorkConfig{
			Depth: 16,
		},
		Heartbeat: HeartbeatConfig{
			IntervalS: 300,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults, applies TRAFFIC_* environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be corrected at runtime.
func (c Config) Validate() error {
	switch c.Lights.Driver {
	case DriverTower, DriverSysfs, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown light driver %q", ErrInvalid, c.Lights.Driver)
	}
	if _, err := lights.WiringByName(c.Lights.Wiring); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Lights.OnDurationMS <= 0 {
		return fmt.Errorf("%w: lights.on_duration_ms must be positive", ErrInvalid)
	}
	for pin := range c.Lights.Sysfs {
		if _, err := lights.ParsePin(pin); err != nil {
			return fmt.Errorf("%w: lights.sysfs: %v", ErrInvalid, err)
		}
	}
	if c.Lights.Driver == DriverTower && c.Lights.Port == "" {
		return fmt.Errorf("%w: lights.port is required for the tower driver", ErrInvalid)
	}
	if c.Serial.Enabled && c.Serial.Port == "" {
		return fmt.Errorf("%w: serial.port is required when serial input is enabled", ErrInvalid)
	}
	for name := range c.Buttons.Lines {
		if _, err := types.ParseColor(name); err != nil {
			return fmt.Errorf("%w: buttons.lines: %v", ErrInvalid, err)
		}
	}
	if _, err := types.ParseColor(c.Timer.InitialColor); err != nil {
		return fmt.Errorf("%w: timer.initial_color: %v", ErrInvalid, err)
	}
	if c.Queue.Limit < 0 {
		return fmt.Errorf("%w: queue.limit must not be negative", ErrInvalid)
	}
	if c.Work.Depth < 0 {
		return fmt.Errorf("%w: work.depth must not be negative", ErrInvalid)
	}
	if c.Heartbeat.IntervalS < 0 {
		return fmt.Errorf("%w: heartbeat.interval_s must not be negative", ErrInvalid)
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// NodeName returns the configured node name, falling back to NODE_NAME,
// HOSTNAME and finally "unknown".
func (c Config) NodeName() string {
	if c.Node != "" {
		return c.Node
	}
	for _, key := range []string{"NODE_NAME", "HOSTNAME"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return "unknown"
}

// OnDuration returns the per-activation on time.
func (c Config) OnDuration() time.Duration {
	return time.Duration(c.Lights.OnDurationMS) * time.Millisecond
}

// HeartbeatInterval returns zero when heartbeats are disabled.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Heartbeat.IntervalS) * time.Second
}

// ButtonLines resolves the configured color names.
func (c Config) ButtonLines() map[types.Color]int {
	out := make(map[types.Color]int, len(c.Buttons.Lines))
	for name, line := range c.Buttons.Lines {
		if color, err := types.ParseColor(name); err == nil {
			out[color] = line
		}
	}
	return out
}

// SysfsLEDs resolves the configured output names.
func (c Config) SysfsLEDs() map[lights.Pin]string {
	out := make(map[lights.Pin]string, len(c.Lights.Sysfs))
	for name, led := range c.Lights.Sysfs {
		if pin, err := lights.ParsePin(name); err == nil {
			out[pin] = led
		}
	}
	return out
}
