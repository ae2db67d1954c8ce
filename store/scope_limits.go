package store

import (
	"context"
	"fmt"
)

const (
	// DefaultNewPerDay caps how many never-before-graded items enter the
	// queue per scope per day when no per-scope override is stored.
	DefaultNewPerDay = 20
	// DefaultMaxReviewsPerDay caps due reviews per scope per day when no
	// per-scope override is stored.
	DefaultMaxReviewsPerDay = 200
)

// ScopeLimits holds the per-scope daily quota overrides for one owner.
// MaxReviewsPerDay <= 0 means unlimited reviews.
type ScopeLimits struct {
	OwnerID          string
	Scope            string
	NewPerDay        int
	MaxReviewsPerDay int
}

// FindScopeLimits is the find condition for scope limits.
type FindScopeLimits struct {
	OwnerID string
	Scope   string
}

// DefaultScopeLimits returns the limits used when no row is stored.
func DefaultScopeLimits(ownerID, scope string) *ScopeLimits {
	return &ScopeLimits{
		OwnerID:          ownerID,
		Scope:            scope,
		NewPerDay:        DefaultNewPerDay,
		MaxReviewsPerDay: DefaultMaxReviewsPerDay,
	}
}

func scopeLimitsCacheKey(ownerID, scope string) string {
	return fmt.Sprintf("%s/%s", ownerID, scope)
}

// GetScopeLimits returns the limits for one (owner, scope), reading through
// the cache and falling back to defaults when no row is stored.
func (s *Store) GetScopeLimits(ctx context.Context, find *FindScopeLimits) (*ScopeLimits, error) {
	key := scopeLimitsCacheKey(find.OwnerID, find.Scope)
	if value, ok := s.scopeLimitsCache.Get(ctx, key); ok {
		if limits, ok := value.(*ScopeLimits); ok {
			return limits, nil
		}
	}

	limits, err := s.driver.GetScopeLimits(ctx, find)
	if err != nil {
		return nil, err
	}
	if limits == nil {
		limits = DefaultScopeLimits(find.OwnerID, find.Scope)
	}
	if limits.NewPerDay < 0 {
		limits.NewPerDay = 0
	}

	s.scopeLimitsCache.Set(ctx, key, limits)
	return limits, nil
}

// UpsertScopeLimits writes the limits for one (owner, scope).
func (s *Store) UpsertScopeLimits(ctx context.Context, upsert *ScopeLimits) (*ScopeLimits, error) {
	limits, err := s.driver.UpsertScopeLimits(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.scopeLimitsCache.Delete(ctx, scopeLimitsCacheKey(upsert.OwnerID, upsert.Scope))
	return limits, nil
}
