package review

import (
	"context"
	"time"

	"github.com/chaosweasl/cognify/store"
)

// Service is the study-session engine. It owns one active session at a
// time: open a collection of items, pull the next item, grade it, undo
// if needed, and close to flush progress.
type Service interface {
	// OpenSession loads schedules and daily counters for the given
	// items and makes the session current. A session must be closed
	// before another can be opened.
	OpenSession(ctx context.Context, req *OpenSessionRequest) (*SessionStats, error)
	// NextItem returns the item to present next. When no item
	// qualifies, the result reports whether the session is complete or
	// merely waiting on a learning delay.
	NextItem(ctx context.Context) (*NextItemResult, error)
	// GradeItem applies a graded response to an item of the session.
	GradeItem(ctx context.Context, req *GradeItemRequest) (*GradeResult, error)
	// UndoLast reverts the most recent grading event.
	UndoLast(ctx context.Context) (*UndoResult, error)
	// SessionStats reports the current session's progress.
	SessionStats(ctx context.Context) (*SessionStats, error)
	// CloseSession flushes pending writes and discards the session.
	CloseSession(ctx context.Context) error
}

// SessionItem names one item of the collection being studied, with the
// optional group key linking it to its siblings.
type SessionItem struct {
	ID       string
	GroupKey string
}

// OpenSessionRequest describes the collection a session studies.
type OpenSessionRequest struct {
	OwnerID string
	// Scope partitions daily quotas; empty means DefaultScope.
	Scope string
	Items []SessionItem
}

// NextItemResult is the outcome of one selection pass.
type NextItemResult struct {
	// Item is nil when no item currently qualifies.
	Item *store.ReviewState
	// Complete reports that nothing qualifies and nothing is waiting;
	// the session is done for the day.
	Complete bool
	// NextLearningDue is the earliest future learning due time, set
	// when items are waiting on a delay. Callers poll again once it
	// elapses.
	NextLearningDue time.Time
}

// GradeItemRequest applies one graded response.
type GradeItemRequest struct {
	ItemID string
	Grade  Grade
}

// GradeResult reports the schedule an item moved to.
type GradeResult struct {
	State *store.ReviewState
	// BecameLeech is true when this grade pushed the item over the
	// leech threshold.
	BecameLeech bool
	// SuppressedSiblings lists the sibling items hidden for the rest
	// of the day as a result of this grade.
	SuppressedSiblings []string
}

// UndoResult reports the grading event that was reverted.
type UndoResult struct {
	ItemID string
	// Grade is the grade that was undone.
	Grade Grade
	// State is the item's restored schedule.
	State *store.ReviewState
}
