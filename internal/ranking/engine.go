// Package ranking computes the deterministic, paginated member leaderboard
// with cache-assisted reads and write-then-invalidate score mutations.
package ranking

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/clubport/clubport/internal/cache"
	"github.com/clubport/clubport/internal/errcode"
	"github.com/clubport/clubport/internal/store"
)

// AdjustMode selects how a score delta is applied.
type AdjustMode string

const (
	ModeAdd      AdjustMode = "add"
	ModeSet      AdjustMode = "set"
	ModeSubtract AdjustMode = "subtract"
)

// MemberStore is the record-store boundary the engine consumes.
// *store.MemberRepository satisfies it; any store with these five
// operations is sufficient.
type MemberStore interface {
	FindActiveOrderedByScore(ctx context.Context, skip, limit int) ([]store.Member, error)
	CountActive(ctx context.Context) (int64, error)
	CountRankedAbove(ctx context.Context, score, joinOrder int64) (int64, error)
	GetByID(ctx context.Context, id string) (*store.Member, error)
	UpdateMemberScore(ctx context.Context, id string, newScore int64, newTier string) (*store.Member, error)
}

// Notifier receives ranking-changed notifications after successful score
// mutations. Implementations must not block: publishing is fire-and-forget
// and never fails the mutation path.
type Notifier interface {
	RankingChanged(ctx context.Context, memberID string, newScore, newRank int64)
}

// Entry is one leaderboard row.
type Entry struct {
	Rank        int64  `json:"rank"`
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Score       int64  `json:"score"`
	RankTier    string `json:"rank_tier"`
}

// Page is one leaderboard page. Cached reports whether the payload was
// served from the cache; it is recomputed per request, not stored.
type Page struct {
	Entries   []Entry `json:"entries"`
	Total     int64   `json:"total"`
	Page      int     `json:"page"`
	PageSize  int     `json:"page_size"`
	PageCount int     `json:"page_count"`
	Cached    bool    `json:"cached"`
}

// Neighbor is a leaderboard row in a member's neighborhood; IsSelf marks
// the queried member.
type Neighbor struct {
	Entry
	IsSelf bool `json:"is_self"`
}

// Neighborhood is a member's rank with the surrounding window.
type Neighborhood struct {
	MemberID  string     `json:"member_id"`
	Rank      int64      `json:"rank"`
	Score     int64      `json:"score"`
	RankTier  string     `json:"rank_tier"`
	Neighbors []Neighbor `json:"neighbors"`
}

// Engine serves ranking reads through the cache facade and routes all score
// mutations through the write-then-invalidate protocol.
type Engine struct {
	members  MemberStore
	cache    *cache.Facade
	notifier Notifier
	cfg      Config
	logger   *zap.Logger

	// group collapses concurrent recomputes of the same cache key so a
	// hot page expiring does not stampede the record store.
	group singleflight.Group
}

// NewEngine creates the ranking engine. notifier may be nil.
func NewEngine(members MemberStore, facade *cache.Facade, notifier Notifier, cfg Config, log *zap.Logger) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking config: %w", err)
	}
	return &Engine{
		members:  members,
		cache:    facade,
		notifier: notifier,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// GetPage returns one leaderboard page, cache first.
// A page past the end returns empty entries with Total and PageCount still
// reflecting the full active-member count.
func (e *Engine) GetPage(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 || pageSize < 1 || pageSize > e.cfg.MaxPageSize {
		return nil, errcode.ErrInvalidPage.WithMsgf(
			"page must be >= 1 and page size in [1,%d]", e.cfg.MaxPageSize)
	}

	key := PageKey(page, pageSize)

	var cached Page
	if e.cache.GetJSON(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.computePage(ctx, page, pageSize, key)
	})
	if err != nil {
		return nil, err
	}

	result := v.(Page) // copy per caller; singleflight shares the value
	result.Cached = false
	return &result, nil
}

func (e *Engine) computePage(ctx context.Context, page, pageSize int, key string) (Page, error) {
	total, err := e.members.CountActive(ctx)
	if err != nil {
		return Page{}, err
	}

	skip := (page - 1) * pageSize
	members, err := e.members.FindActiveOrderedByScore(ctx, skip, pageSize)
	if err != nil {
		return Page{}, err
	}

	p := Page{
		Entries:   entriesFrom(members, int64(skip)),
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		PageCount: pageCount(total, pageSize),
	}

	e.cache.SetJSON(ctx, key, p, e.cfg.PageTTL)
	return p, nil
}

// GetTopN returns the first n leaderboard rows, capped at the configured
// maximum, cache first.
func (e *Engine) GetTopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, errcode.ErrInvalidArgument.WithMsgf("n must be >= 1")
	}
	if n > e.cfg.TopNMax {
		n = e.cfg.TopNMax
	}

	key := TopKey(n)

	var cached []Entry
	if e.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		members, err := e.members.FindActiveOrderedByScore(ctx, 0, n)
		if err != nil {
			return nil, err
		}
		entries := entriesFrom(members, 0)
		e.cache.SetJSON(ctx, key, entries, e.cfg.TopTTL)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Entry), nil
}

// GetRankAndNeighbors returns a member's absolute rank and the symmetric
// window of neighboring ranks.
//
// The rank is 1 + count(better score) + count(equal score, earlier join),
// a count query rather than a sort over the full member set.
func (e *Engine) GetRankAndNeighbors(ctx context.Context, memberID string) (*Neighborhood, error) {
	m, err := e.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, errcode.ErrMemberInactive
	}

	above, err := e.members.CountRankedAbove(ctx, m.Score, m.JoinOrder)
	if err != nil {
		return nil, err
	}
	rank := above + 1

	radius := int64(e.cfg.NeighborRadius)
	start := rank - 1 - radius
	if start < 0 {
		start = 0
	}

	window, err := e.members.FindActiveOrderedByScore(ctx, int(start), 2*e.cfg.NeighborRadius+1)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(window))
	for i, wm := range window {
		neighbors = append(neighbors, Neighbor{
			Entry:  entryFrom(wm, start+int64(i)+1),
			IsSelf: wm.ID == memberID,
		})
	}

	return &Neighborhood{
		MemberID:  memberID,
		Rank:      rank,
		Score:     m.Score,
		RankTier:  m.RankTier,
		Neighbors: neighbors,
	}, nil
}

// AdjustScore applies a score mutation and returns the updated record.
//
// Protocol: persist to the record store first, invalidate the ranking
// namespace second. An unreachable cache never fails or rolls back the
// mutation; the entries go stale at worst until their TTL expires, and a
// crash between write and invalidation self-heals the same way.
func (e *Engine) AdjustScore(ctx context.Context, memberID string, delta int64, mode AdjustMode) (*store.Member, error) {
	m, err := e.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var newScore int64
	switch mode {
	case ModeAdd:
		newScore = m.Score + delta
	case ModeSubtract:
		newScore = m.Score - delta
	case ModeSet:
		if delta < 0 {
			return nil, errcode.ErrInvalidArgument.WithMsgf("score cannot be set negative")
		}
		newScore = delta
	default:
		return nil, errcode.ErrInvalidAdjustMode.WithMsgf("invalid mode %q", mode)
	}
	// Scores are never persisted negative; subtraction floors at zero.
	if newScore < 0 {
		newScore = 0
	}

	newTier := e.cfg.Tiers.TierForScore(newScore)

	updated, err := e.members.UpdateMemberScore(ctx, memberID, newScore, newTier)
	if err != nil {
		return nil, err
	}

	// Invalidate only after the authoritative write committed. The facade
	// swallows transport failures, so a cache outage is a warning, not an
	// error on the mutation path.
	removed := e.cache.DeleteByPattern(ctx, InvalidatePattern)
	e.logger.Debug("ranking cache invalidated",
		zap.String("member_id", memberID),
		zap.Int64("removed", removed))

	e.notifyChanged(ctx, updated)

	return updated, nil
}

// notifyChanged emits the ranking-changed event, best effort.
func (e *Engine) notifyChanged(ctx context.Context, m *store.Member) {
	if e.notifier == nil {
		return
	}
	above, err := e.members.CountRankedAbove(ctx, m.Score, m.JoinOrder)
	if err != nil {
		e.logger.Warn("skipping ranking-changed event, rank lookup failed",
			zap.String("member_id", m.ID), zap.Error(err))
		return
	}
	e.notifier.RankingChanged(ctx, m.ID, m.Score, above+1)
}

func entriesFrom(members []store.Member, rankOffset int64) []Entry {
	entries := make([]Entry, 0, len(members))
	for i, m := range members {
		entries = append(entries, entryFrom(m, rankOffset+int64(i)+1))
	}
	return entries
}

func entryFrom(m store.Member, rank int64) Entry {
	return Entry{
		Rank:        rank,
		MemberID:    m.ID,
		DisplayName: m.DisplayName,
		Score:       m.Score,
		RankTier:    m.RankTier,
	}
}

func pageCount(total int64, pageSize int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
