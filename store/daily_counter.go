package store

import (
	"context"
	"time"
)

// CounterDayFormat is the layout of the calendar-day key on daily counters.
const CounterDayFormat = "2006-01-02"

// CounterDay returns the calendar-day key for the given time in its location.
func CounterDay(t time.Time) string {
	return t.Format(CounterDayFormat)
}

// DailyCounter tracks study progress for one owner, scope and calendar day.
type DailyCounter struct {
	OwnerID     string
	Scope       string
	Day         string
	NewGraded   int
	ReviewsDone int
}

// FindDailyCounter is the find condition for daily counters.
type FindDailyCounter struct {
	OwnerID string
	Day     string

	// Scope narrows to a single scope. Nil lists all scopes of the day.
	Scope *string
}

// GetDailyCounter returns the counter for one (owner, scope, day), or a zeroed
// counter when no row exists yet. Absence and zero progress are the same thing.
func (s *Store) GetDailyCounter(ctx context.Context, find *FindDailyCounter) (*DailyCounter, error) {
	counter, err := s.driver.GetDailyCounter(ctx, find)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		scope := ""
		if find.Scope != nil {
			scope = *find.Scope
		}
		counter = &DailyCounter{OwnerID: find.OwnerID, Scope: scope, Day: find.Day}
	}
	if counter.NewGraded < 0 {
		counter.NewGraded = 0
	}
	if counter.ReviewsDone < 0 {
		counter.ReviewsDone = 0
	}
	return counter, nil
}

// ListDailyCounters lists counters with filter.
func (s *Store) ListDailyCounters(ctx context.Context, find *FindDailyCounter) ([]*DailyCounter, error) {
	return s.driver.ListDailyCounters(ctx, find)
}

// UpsertDailyCounter writes the counter for one (owner, scope, day).
func (s *Store) UpsertDailyCounter(ctx context.Context, upsert *DailyCounter) (*DailyCounter, error) {
	return s.driver.UpsertDailyCounter(ctx, upsert)
}
