// Package store owns the authoritative member records.
package store

import (
	"fmt"
	"time"
)

// Config database configuration
type Config struct {
	// Driver types: mysql, postgres, sqlite
	Driver string `mapstructure:"driver"`

	// DSN data source name
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns maximum number of open connections
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns maximum number of idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetime connection maximum lifetime
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 100
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 10
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 3600 * time.Second
	}
}

// Validate configuration
func (c *Config) Validate() error {
	switch c.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported driver: %s", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn cannot be empty")
	}
	return nil
}
