package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// ReviewState model related methods.
	UpsertReviewStates(ctx context.Context, states []*ReviewState) error
	ListReviewStates(ctx context.Context, find *FindReviewState) ([]*ReviewState, error)
	DeleteReviewState(ctx context.Context, delete *DeleteReviewState) error

	// DailyCounter model related methods.
	GetDailyCounter(ctx context.Context, find *FindDailyCounter) (*DailyCounter, error)
	ListDailyCounters(ctx context.Context, find *FindDailyCounter) ([]*DailyCounter, error)
	UpsertDailyCounter(ctx context.Context, upsert *DailyCounter) (*DailyCounter, error)

	// ScopeLimits model related methods.
	GetScopeLimits(ctx context.Context, find *FindScopeLimits) (*ScopeLimits, error)
	UpsertScopeLimits(ctx context.Context, upsert *ScopeLimits) (*ScopeLimits, error)
}
