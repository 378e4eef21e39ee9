package ranking

import (
	"fmt"
	"time"

	"github.com/clubport/clubport/internal/store"
)

// Config ranking engine tuning
type Config struct {
	// PageTTL cache lifetime for full listing pages (default 300s)
	PageTTL time.Duration `mapstructure:"page_ttl"`

	// TopTTL cache lifetime for coarse top-N summaries (default 900s)
	TopTTL time.Duration `mapstructure:"top_ttl"`

	// TopNMax upper bound on top-N requests (default 50)
	TopNMax int `mapstructure:"top_n_max"`

	// MaxPageSize upper bound on page size (default 100)
	MaxPageSize int `mapstructure:"max_page_size"`

	// NeighborRadius rows fetched above and below a member (default 3)
	NeighborRadius int `mapstructure:"neighbor_radius"`

	// Tiers score cutoffs for the five rank tiers
	Tiers store.TierThresholds `mapstructure:"tiers"`
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	if c.PageTTL == 0 {
		c.PageTTL = 300 * time.Second
	}
	if c.TopTTL == 0 {
		c.TopTTL = 900 * time.Second
	}
	if c.TopNMax == 0 {
		c.TopNMax = 50
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = 100
	}
	if c.NeighborRadius == 0 {
		c.NeighborRadius = 3
	}
	if c.Tiers == (store.TierThresholds{}) {
		c.Tiers = store.DefaultTierThresholds()
	}
}

// Validate configuration
func (c *Config) Validate() error {
	if c.TopNMax < 1 {
		return fmt.Errorf("top_n_max must be >= 1, got: %d", c.TopNMax)
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("max_page_size must be >= 1, got: %d", c.MaxPageSize)
	}
	if c.NeighborRadius < 0 {
		return fmt.Errorf("neighbor_radius must be >= 0, got: %d", c.NeighborRadius)
	}
	if !(c.Tiers.Silver < c.Tiers.Gold && c.Tiers.Gold < c.Tiers.Platinum && c.Tiers.Platinum < c.Tiers.Diamond) {
		return fmt.Errorf("tier thresholds must be strictly increasing")
	}
	return nil
}
