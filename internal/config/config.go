// Package config loads the portal configuration from YAML and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/clubport/clubport/internal/api"
	"github.com/clubport/clubport/internal/cache"
	"github.com/clubport/clubport/internal/event"
	"github.com/clubport/clubport/internal/limiter"
	"github.com/clubport/clubport/internal/logger"
	"github.com/clubport/clubport/internal/ranking"
	"github.com/clubport/clubport/internal/store"
)

// envPrefix prefixes environment overrides, e.g. CLUBPORT_SERVER_ADDR.
const envPrefix = "CLUBPORT"

// ServerConfig HTTP server settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ApplyDefaults fills zero values
func (c *ServerConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
}

// WarmupConfig scheduled top-N cache refresh
type WarmupConfig struct {
	// Enabled toggles the refresh job
	Enabled bool `mapstructure:"enabled"`

	// Interval between refreshes; keep it below ranking.top_ttl so the
	// summary never goes cold under load (default 10m)
	Interval time.Duration `mapstructure:"interval"`

	// TopN summary size to keep warm (default 10)
	TopN int `mapstructure:"top_n"`
}

// ApplyDefaults fills zero values
func (c *WarmupConfig) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = 10 * time.Minute
	}
	if c.TopN == 0 {
		c.TopN = 10
	}
}

// Config is the full portal configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	Database store.Config   `mapstructure:"database"`
	Redis    cache.Config   `mapstructure:"redis"`
	Ranking  ranking.Config `mapstructure:"ranking"`
	Auth     api.AuthConfig `mapstructure:"auth"`
	Limiter  limiter.Config `mapstructure:"limiter"`
	Events   event.Config   `mapstructure:"events"`
	Warmup   WarmupConfig   `mapstructure:"warmup"`
}

// Load reads configuration from the given YAML file, applies CLUBPORT_*
// environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s failed: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values across all sections.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Log.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Ranking.ApplyDefaults()
	c.Limiter.ApplyDefaults()
	c.Events.ApplyDefaults()
	c.Warmup.ApplyDefaults()
}

// Validate checks all sections; defaults must be applied first.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Auth, validation.By(func(any) error {
			if c.Auth.Secret == "" {
				return fmt.Errorf("auth.secret is required")
			}
			return nil
		})),
	); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	if c.Events.KafkaEnabled && len(c.Events.KafkaBrokers) == 0 {
		return fmt.Errorf("events: kafka_brokers required when kafka_enabled")
	}
	return nil
}
