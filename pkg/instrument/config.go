package instrument

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Channel value types.
const (
	TypeFloat = "float"
	TypeInt   = "int"
)

// ChannelConfig describes one simulated scalar channel.
type ChannelConfig struct {
	// Name is the full PV name.
	Name string `yaml:"name"`

	// Initial value at startup.
	Initial float64 `yaml:"initial"`

	// Type is "float" (default) or "int".
	Type string `yaml:"type,omitempty"`

	// Noise is the standard deviation of per-tick Gaussian noise for
	// float channels. For int channels any non-zero noise makes the
	// value jump uniformly within [low, high] each tick.
	Noise float64 `yaml:"noise,omitempty"`

	// Drift is the mean per-tick change for float channels.
	Drift float64 `yaml:"drift,omitempty"`

	// Low and High clamp the value range.
	Low  *float64 `yaml:"low,omitempty"`
	High *float64 `yaml:"high,omitempty"`

	// Static channels are never ticked; they only change via puts.
	Static bool `yaml:"static,omitempty"`

	// Alarm thresholds. Crossing a warn limit raises MINOR severity,
	// crossing an alarm limit raises MAJOR.
	WarnLow   *float64 `yaml:"warnLow,omitempty"`
	WarnHigh  *float64 `yaml:"warnHigh,omitempty"`
	AlarmLow  *float64 `yaml:"alarmLow,omitempty"`
	AlarmHigh *float64 `yaml:"alarmHigh,omitempty"`
}

// MotorConfig describes one simulated motor axis. Each motor expands
// into three channels: base:RBV, base:VAL and base:MOVN.
type MotorConfig struct {
	// Base is the motor base PV name, e.g. "SIM:MTR:1".
	Base string `yaml:"base"`

	// Initial position.
	Initial float64 `yaml:"initial"`

	// Low and High bound the travel range.
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`

	// Speed in units per second. Defaults to 5.
	Speed float64 `yaml:"speed,omitempty"`
}

// SimConfig is the simulated provider's channel table.
type SimConfig struct {
	// TickSeconds is the mean interval between simulation ticks.
	// Defaults to 1 second; the actual interval varies around it.
	TickSeconds float64 `yaml:"tickSeconds,omitempty"`

	Channels []ChannelConfig `yaml:"channels"`
	Motors   []MotorConfig   `yaml:"motors"`
}

// TickInterval returns the configured tick interval as a duration.
func (c SimConfig) TickInterval() time.Duration {
	if c.TickSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.TickSeconds * float64(time.Second))
}

// LoadSimConfig reads a SimConfig from a YAML file.
func LoadSimConfig(path string) (SimConfig, error) {
	var cfg SimConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read sim config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse sim config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config for structural problems.
func (c SimConfig) Validate() error {
	seen := make(map[string]struct{})
	for _, ch := range c.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channel with empty name")
		}
		if _, dup := seen[ch.Name]; dup {
			return fmt.Errorf("duplicate channel %q", ch.Name)
		}
		seen[ch.Name] = struct{}{}
		if ch.Type != "" && ch.Type != TypeFloat && ch.Type != TypeInt {
			return fmt.Errorf("channel %q has unknown type %q", ch.Name, ch.Type)
		}
	}
	for _, m := range c.Motors {
		if m.Base == "" {
			return fmt.Errorf("motor with empty base name")
		}
		if _, dup := seen[m.Base]; dup {
			return fmt.Errorf("duplicate motor base %q", m.Base)
		}
		seen[m.Base] = struct{}{}
		if m.High <= m.Low {
			return fmt.Errorf("motor %q has empty travel range", m.Base)
		}
	}
	return nil
}

func floatp(v float64) *float64 { return &v }

// DefaultSimConfig returns the built-in beamline channel table used
// when no config file is given: temperature sensors, vacuum gauges,
// beam diagnostics, detectors, two motors, a shutter and a valve.
func DefaultSimConfig() SimConfig {
	cfg := SimConfig{TickSeconds: 1}

	for i := 1; i <= 4; i++ {
		cfg.Channels = append(cfg.Channels, ChannelConfig{
			Name:     fmt.Sprintf("SIM:TEMP:%d", i),
			Initial:  25.0 + float64(i),
			Noise:    0.05,
			Low:      floatp(20.0),
			High:     floatp(40.0),
			WarnHigh: floatp(35.0),
		})
	}
	for i := 1; i <= 2; i++ {
		cfg.Channels = append(cfg.Channels, ChannelConfig{
			Name:      fmt.Sprintf("SIM:PRESSURE:%d", i),
			Initial:   2e-7,
			Noise:     1e-8,
			Low:       floatp(1e-8),
			High:      floatp(5e-6),
			AlarmHigh: floatp(1e-6),
		})
	}
	cfg.Channels = append(cfg.Channels,
		ChannelConfig{Name: "SIM:FLOW:1", Initial: 5.0, Noise: 0.1,
			Low: floatp(0), High: floatp(20), WarnLow: floatp(1.0)},
		ChannelConfig{Name: "SIM:BEAM:INTENSITY", Initial: 1e5, Noise: 5e3,
			Low: floatp(0), High: floatp(1e7)},
		ChannelConfig{Name: "SIM:BEAM:ENERGY", Initial: 12.0, Noise: 0.001,
			Low: floatp(5), High: floatp(30)},
		ChannelConfig{Name: "SIM:DET:COUNTS", Initial: 100000, Type: TypeInt,
			Noise: 1, Low: floatp(50000), High: floatp(200000)},
		ChannelConfig{Name: "SIM:DET:RATE", Initial: 3000.0, Noise: 200.0,
			Low: floatp(1000), High: floatp(5000)},
		ChannelConfig{Name: "SIM:SHUTTER:STATUS", Initial: 0, Type: TypeInt,
			Low: floatp(0), High: floatp(1), Static: true},
		ChannelConfig{Name: "SIM:VALVE:1", Initial: 0, Type: TypeInt,
			Low: floatp(0), High: floatp(2), Static: true},
	)

	cfg.Motors = append(cfg.Motors,
		MotorConfig{Base: "SIM:MTR:1", Initial: 50, Low: 0, High: 100},
		MotorConfig{Base: "SIM:MTR:2", Initial: 180, Low: 0, High: 360},
	)
	return cfg
}
