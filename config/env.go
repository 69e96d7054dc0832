package config

import (
	"fmt"
	"strconv"
)

// EnvPrefix is prepended to every override key.
const EnvPrefix = "TRAFFIC_"

type envOverride struct {
	key   string
	apply func(c *Config, v string) error
}

var envOverrides = []envOverride{
	{"NODE", func(c *Config, v string) error { c.Node = v; return nil }},
	{"DEBUG", func(c *Config, v string) error { return setBool(&c.Debug, v) }},
	{"SERIAL_ENABLED", func(c *Config, v string) error { return setBool(&c.Serial.Enabled, v) }},
	{"SERIAL_PORT", func(c *Config, v string) error { c.Serial.Port = v; return nil }},
	{"SERIAL_BAUD", func(c *Config, v string) error { return setInt(&c.Serial.Baud, v) }},
	{"LIGHT_DRIVER", func(c *Config, v string) error { c.Lights.Driver = v; return nil }},
	{"LIGHT_PORT", func(c *Config, v string) error { c.Lights.Port = v; return nil }},
	{"LIGHT_WIRING", func(c *Config, v string) error { c.Lights.Wiring = v; return nil }},
	{"ON_DURATION_MS", func(c *Config, v string) error { return setInt(&c.Lights.OnDurationMS, v) }},
	{"BUTTONS_ENABLED", func(c *Config, v string) error { return setBool(&c.Buttons.Enabled, v) }},
	{"TIMER_COLOR", func(c *Config, v string) error { c.Timer.InitialColor = v; return nil }},
	{"QUEUE_LIMIT", func(c *Config, v string) error { return setInt(&c.Queue.Limit, v) }},
	{"METRICS_ADDR", func(c *Config, v string) error { c.Metrics.Addr = v; return nil }},
	{"HEARTBEAT_INTERVAL_S", func(c *Config, v string) error { return setInt(&c.Heartbeat.IntervalS, v) }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
}

// ApplyEnv applies TRAFFIC_* overrides found by lookup. Empty values are
// ignored.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, o := range envOverrides {
		v, ok := lookup(EnvPrefix + o.key)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(c, v); err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, o.key, err)
		}
	}
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setInt(dst *int, v string) error {
	i, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = i
	return nil
}
