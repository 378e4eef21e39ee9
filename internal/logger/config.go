package logger

import (
	"fmt"
)

// Config logging configuration
type Config struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Encoding: "console" or "json"
	Encoding string `mapstructure:"encoding"`

	// OutputPath log file path; empty means stdout only
	OutputPath string `mapstructure:"output_path"`

	// Rotation settings (effective only when OutputPath is set)
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Encoding == "" {
		c.Encoding = "console"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// Validate configuration
func (c *Config) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	if c.Encoding != "console" && c.Encoding != "json" {
		return fmt.Errorf("invalid encoding: %s (must be console or json)", c.Encoding)
	}
	return nil
}
