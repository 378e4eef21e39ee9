package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/clubport/clubport/internal/errcode"
)

// rankOrder is the single ordering rule for all ranking reads: score
// descending, then join order ascending. Together with JoinOrder uniqueness
// this is a total order, so rank numbers are stable across queries and
// page boundaries.
const rankOrder = "score DESC, join_order ASC"

// MemberRepository is the record-store boundary the ranking engine consumes.
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates the repository.
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts a member record.
func (r *MemberRepository) Create(ctx context.Context, m *Member) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errcode.ErrStoreUnavailable.Wrap(err)
	}
	return nil
}

// FindActiveOrderedByScore returns a slice of the active-member ranking.
func (r *MemberRepository) FindActiveOrderedByScore(ctx context.Context, skip, limit int) ([]Member, error) {
	var members []Member
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order(rankOrder).
		Offset(skip).
		Limit(limit).
		Find(&members).Error
	if err != nil {
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	return members, nil
}

// CountActive returns the number of active members.
func (r *MemberRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("active = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, errcode.ErrStoreUnavailable.Wrap(err)
	}
	return count, nil
}

// CountRankedAbove counts active members that rank strictly better than the
// given (score, joinOrder) pair: higher score, or equal score with an
// earlier join order. The caller's absolute rank is this count plus one,
// which makes a single rank lookup a count query instead of a full sort.
func (r *MemberRepository) CountRankedAbove(ctx context.Context, score, joinOrder int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("active = ?", true).
		Where("score > ? OR (score = ? AND join_order < ?)", score, score, joinOrder).
		Count(&count).Error
	if err != nil {
		return 0, errcode.ErrStoreUnavailable.Wrap(err)
	}
	return count, nil
}

// GetByID loads a member record.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*Member, error) {
	var m Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errcode.ErrMemberNotFound
	}
	if err != nil {
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	return &m, nil
}

// UpdateMemberScore persists a new score and tier and returns the updated
// record. Single-row update; the store's own write atomicity is enough,
// no transaction spans the cache.
func (r *MemberRepository) UpdateMemberScore(ctx context.Context, id string, newScore int64, newTier string) (*Member, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(m).
		Updates(map[string]any{"score": newScore, "rank_tier": newTier}).Error
	if err != nil {
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	m.Score = newScore
	m.RankTier = newTier
	return m, nil
}
