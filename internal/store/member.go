package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rank tiers, lowest to highest. The boundary values are a product decision
// kept as configuration constants, not invariants.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
	TierDiamond  = "diamond"
)

// TierThresholds holds the four lower cutoffs separating the five tiers.
// A score below Silver is bronze; a score at or above Diamond is diamond.
type TierThresholds struct {
	Silver   int64 `mapstructure:"silver"`
	Gold     int64 `mapstructure:"gold"`
	Platinum int64 `mapstructure:"platinum"`
	Diamond  int64 `mapstructure:"diamond"`
}

// DefaultTierThresholds returns the portal's stock cutoffs.
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{
		Silver:   100,
		Gold:     250,
		Platinum: 500,
		Diamond:  1000,
	}
}

// TierForScore maps a score to its tier.
// Every score mutation must recompute the tier through this function before
// persisting, so score and rank_tier never drift apart.
func (t TierThresholds) TierForScore(score int64) string {
	switch {
	case score >= t.Diamond:
		return TierDiamond
	case score >= t.Platinum:
		return TierPlatinum
	case score >= t.Gold:
		return TierGold
	case score >= t.Silver:
		return TierSilver
	default:
		return TierBronze
	}
}

// Member is the authoritative member record.
// JoinOrder is the stable tie-break key: on equal score the earlier joiner
// ranks higher. It is assigned once at creation and never changes.
type Member struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	DisplayName string    `gorm:"size:128;not null" json:"display_name"`
	Email       string    `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Score       int64     `gorm:"not null;default:0;index:idx_members_rank,priority:2" json:"score"`
	RankTier    string    `gorm:"size:16;not null" json:"rank_tier"`
	Active      bool      `gorm:"not null;default:true;index:idx_members_rank,priority:1" json:"active"`
	JoinOrder   int64     `gorm:"not null;uniqueIndex" json:"join_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate fills identity fields.
// JoinOrder defaults to creation time in nanoseconds, monotonically
// increasing across members created at different instants; tests and
// fixtures may set it explicitly.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinOrder == 0 {
		m.JoinOrder = time.Now().UnixNano()
	}
	if m.RankTier == "" {
		m.RankTier = DefaultTierThresholds().TierForScore(m.Score)
	}
	return nil
}
