package config

import (
	"fmt"
	"time"
)

// Service kinds decide which bound-client implementation backs a pool.
const (
	KindCompletion = "completion"
	KindEmail      = "email"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Logging  LoggingConfig   `yaml:"logging"`
	Services []ServiceConfig `yaml:"services"`
}

// ServerConfig holds admin HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ServiceConfig holds settings for one credentialed external service.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`       // "completion" or "email"
	EnvPrefix string `yaml:"env_prefix"` // PREFIX, PREFIX_2 .. PREFIX_10
	BaseURL   string `yaml:"base_url"`

	Cooldown    Duration `yaml:"cooldown"`
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
	RateLimit   float64  `yaml:"rate_limit"` // requests/second, 0 = off
	Timeout     Duration `yaml:"timeout"`
	HardFail    bool     `yaml:"hard_fail"`
}

// Duration parses Go duration strings ("30s", "5m") from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
