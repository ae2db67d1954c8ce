package store

import (
	"context"
	"time"
)

// Phase is the scheduling phase of a review item.
type Phase string

const (
	PhaseNew        Phase = "NEW"
	PhaseLearning   Phase = "LEARNING"
	PhaseReview     Phase = "REVIEW"
	PhaseRelearning Phase = "RELEARNING"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseNew, PhaseLearning, PhaseReview, PhaseRelearning:
		return true
	}
	return false
}

// InSteps returns true for the phases that move through timed learning steps.
func (p Phase) InSteps() bool {
	return p == PhaseLearning || p == PhaseRelearning
}

// DefaultEase is the ease assigned to items that have never been graded.
// The scheduler replaces it with the configured starting ease on first grade.
const DefaultEase = 2.5

// ReviewState is the object representing the retention schedule of one item.
type ReviewState struct {
	OwnerID string
	Scope   string
	ItemID  string

	// GroupKey links sibling items generated from the same source.
	// Empty means the item has no siblings.
	GroupKey string

	Phase        Phase
	IntervalDays int
	Ease         float64
	Due          time.Time
	LastGradedAt time.Time
	Reps         int
	Lapses       int
	StepIndex    int
	IsLeech      bool
	IsSuspended  bool
}

// NewReviewState returns the default state for an item that has never been graded.
func NewReviewState(ownerID, scope, itemID string) *ReviewState {
	return &ReviewState{
		OwnerID: ownerID,
		Scope:   scope,
		ItemID:  itemID,
		Phase:   PhaseNew,
		Ease:    DefaultEase,
	}
}

// Clone returns a deep copy of the state.
func (r *ReviewState) Clone() *ReviewState {
	clone := *r
	return &clone
}

// Normalize repairs a state that violates its own invariants, falling back to
// the pristine default when the row is beyond repair. Malformed rows must
// never surface mid-session, so this always succeeds.
func (r *ReviewState) Normalize() {
	if !r.Phase.Valid() {
		fresh := NewReviewState(r.OwnerID, r.Scope, r.ItemID)
		fresh.GroupKey = r.GroupKey
		*r = *fresh
		return
	}
	if r.Ease <= 0 {
		r.Ease = DefaultEase
	}
	if r.IntervalDays < 0 {
		r.IntervalDays = 0
	}
	if r.Reps < 0 {
		r.Reps = 0
	}
	if r.Lapses < 0 {
		r.Lapses = 0
	}
	if r.StepIndex < 0 {
		r.StepIndex = 0
	}
	if r.Phase == PhaseNew {
		r.Reps = 0
		r.StepIndex = 0
		r.IntervalDays = 0
	}
}

// FindReviewState is the find condition for review states.
type FindReviewState struct {
	OwnerID *string
	Scope   *string
	ItemID  *string

	// ItemIDs is a keyed bulk lookup. Ids without a stored row are
	// materialized as default new-item states by the store wrapper.
	ItemIDs []string

	Phase     *Phase
	DueBefore *time.Time
	Suspended *bool

	Limit  *int
	Offset *int
}

// DeleteReviewState is the delete request for a review state.
type DeleteReviewState struct {
	OwnerID string
	Scope   string
	ItemID  string
}

// UpsertReviewStates writes the given states, keyed by (owner, scope, item).
// Re-applying the same write is a no-op.
func (s *Store) UpsertReviewStates(ctx context.Context, states []*ReviewState) error {
	if len(states) == 0 {
		return nil
	}
	return s.driver.UpsertReviewStates(ctx, states)
}

// ListReviewStates lists review states with filter. Rows that fail their own
// invariants are normalized in place rather than returned as errors.
func (s *Store) ListReviewStates(ctx context.Context, find *FindReviewState) ([]*ReviewState, error) {
	list, err := s.driver.ListReviewStates(ctx, find)
	if err != nil {
		return nil, err
	}
	for _, state := range list {
		state.Normalize()
	}
	if len(find.ItemIDs) > 0 && find.OwnerID != nil && find.Scope != nil {
		list = fillMissingStates(list, find)
	}
	return list, nil
}

// GetReviewState gets a single review state, or nil when absent.
func (s *Store) GetReviewState(ctx context.Context, find *FindReviewState) (*ReviewState, error) {
	list, err := s.ListReviewStates(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeleteReviewState deletes a review state.
func (s *Store) DeleteReviewState(ctx context.Context, delete *DeleteReviewState) error {
	return s.driver.DeleteReviewState(ctx, delete)
}

// fillMissingStates appends default states for requested ids that have no
// stored row, preserving the request order for the ones that were missing.
func fillMissingStates(list []*ReviewState, find *FindReviewState) []*ReviewState {
	found := make(map[string]bool, len(list))
	for _, state := range list {
		found[state.ItemID] = true
	}
	for _, itemID := range find.ItemIDs {
		if !found[itemID] {
			list = append(list, NewReviewState(*find.OwnerID, *find.Scope, itemID))
		}
	}
	return list
}
