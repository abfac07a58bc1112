package config

import (
	"fmt"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`

	// DeliveryTimeout bounds each per-recipient delivery attempt.
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout" yaml:"delivery_timeout"`
	// DeliveryConcurrency caps parallel deliveries within one fan-out.
	DeliveryConcurrency int `mapstructure:"delivery_concurrency" yaml:"delivery_concurrency"`
	// DirectResolution selects how direct replies resolve: "singleton"
	// delivers to the named participant only, "roster" expands a reply
	// carrying a session context to the full session roster.
	DirectResolution string `mapstructure:"direct_resolution" yaml:"direct_resolution"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                ":8080",
		ReadHeaderTimeout:   5 * time.Second,
		ShutdownTimeout:     5 * time.Second,
		LogLevel:            "info",
		DatabasePath:        "parley.db",
		DeliveryTimeout:     3 * time.Second,
		DeliveryConcurrency: 32,
		DirectResolution:    "singleton",
	}
}

// Validate rejects values the core cannot run with.
func (c *Config) Validate() error {
	switch c.DirectResolution {
	case "singleton", "roster":
	default:
		return fmt.Errorf("direct_resolution must be singleton or roster, got %q", c.DirectResolution)
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("delivery_timeout must be positive")
	}
	return nil
}
