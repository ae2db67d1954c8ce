// Package stats provides simple local usage statistics for personal study
// collections. This is a lightweight alternative to enterprise monitoring
// solutions.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chaosweasl/cognify/store"
)

// Stats represents collection statistics.
type Stats struct {
	// Item stats
	TotalItems     int64
	NewItems       int64
	LearningItems  int64 // learning plus relearning
	ReviewItems    int64
	SuspendedItems int64
	LeechItems     int64

	// Due forecast
	DueNow      int64
	DueToday    int64
	DueThisWeek int64

	// Today's progress across all scopes
	NewToday     int64
	ReviewsToday int64

	// Activity stats
	ActiveDays       int64 // Days with study activity in the last 30 days
	LastActivityTime time.Time
	StreakDays       int64 // Current consecutive days with study activity

	// Timestamp
	LastUpdated time.Time
}

// Collector collects and manages collection statistics for one owner.
type Collector struct {
	store    *store.Store
	ownerID  string
	stats    *Stats
	mu       sync.Mutex
	tickStop chan struct{}
}

// NewCollector creates a new statistics collector.
func NewCollector(st *store.Store, ownerID string) *Collector {
	return &Collector{
		store:   st,
		ownerID: ownerID,
		stats: &Stats{
			LastUpdated: time.Now(),
		},
		tickStop: make(chan struct{}),
	}
}

// Start begins periodic statistics collection.
// Updates every hour.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	// Initial collection
	c.Collect(ctx)

	go func() {
		for {
			select {
			case <-ticker.C:
				c.Collect(ctx)
			case <-ctx.Done():
				close(c.tickStop)
				return
			case <-c.tickStop:
				return
			}
		}
	}()
}

// Stop stops the statistics collector.
func (c *Collector) Stop() {
	select {
	case <-c.tickStop:
		// Already closed
	default:
		close(c.tickStop)
	}
}

// GetStats returns a copy of current statistics.
func (c *Collector) GetStats() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	statsCopy := *c.stats
	return &statsCopy
}

// Collect gathers current statistics from the store. A failed load keeps the
// previous snapshot.
func (c *Collector) Collect(ctx context.Context) {
	ownerID := c.ownerID
	var states []*store.ReviewState
	var counters []*store.DailyCounter

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		states, err = c.store.ListReviewStates(gctx, &store.FindReviewState{OwnerID: &ownerID})
		return err
	})
	g.Go(func() error {
		var err error
		counters, err = c.store.ListDailyCounters(gctx, &store.FindDailyCounter{OwnerID: ownerID})
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("stats collection skipped", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	dayEnd := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	weekEnd := now.AddDate(0, 0, 7)

	// Item stats and due forecast
	c.stats.TotalItems = int64(len(states))
	c.stats.NewItems = 0
	c.stats.LearningItems = 0
	c.stats.ReviewItems = 0
	c.stats.SuspendedItems = 0
	c.stats.LeechItems = 0
	c.stats.DueNow = 0
	c.stats.DueToday = 0
	c.stats.DueThisWeek = 0

	lastGraded := time.Time{}
	for _, state := range states {
		switch state.Phase {
		case store.PhaseNew:
			c.stats.NewItems++
		case store.PhaseLearning, store.PhaseRelearning:
			c.stats.LearningItems++
		case store.PhaseReview:
			c.stats.ReviewItems++
		}
		if state.IsLeech {
			c.stats.LeechItems++
		}
		if state.LastGradedAt.After(lastGraded) {
			lastGraded = state.LastGradedAt
		}
		// Suspended and new items carry no due date worth forecasting.
		if state.IsSuspended {
			c.stats.SuspendedItems++
			continue
		}
		if state.Phase == store.PhaseNew {
			continue
		}
		if !state.Due.After(now) {
			c.stats.DueNow++
		}
		if state.Due.Before(dayEnd) {
			c.stats.DueToday++
		}
		if state.Due.Before(weekEnd) {
			c.stats.DueThisWeek++
		}
	}
	c.stats.LastActivityTime = lastGraded

	// Today's progress across all scopes
	today := store.CounterDay(now)
	c.stats.NewToday = 0
	c.stats.ReviewsToday = 0
	activeDays := make(map[string]bool)
	cutoff := store.CounterDay(now.AddDate(0, 0, -30))
	for _, counter := range counters {
		if counter.NewGraded+counter.ReviewsDone == 0 {
			continue
		}
		if counter.Day == today {
			c.stats.NewToday += int64(counter.NewGraded)
			c.stats.ReviewsToday += int64(counter.ReviewsDone)
		}
		if counter.Day >= cutoff {
			activeDays[counter.Day] = true
		}
	}
	c.stats.ActiveDays = int64(len(activeDays))

	// Streak of consecutive days with activity ending today
	c.stats.StreakDays = calculateStreakDays(counters, now)

	c.stats.LastUpdated = now
}

// calculateStreakDays calculates the current streak of consecutive days with
// study activity. A day counts when at least one item was graded in any scope.
func calculateStreakDays(counters []*store.DailyCounter, now time.Time) int64 {
	activeDays := make(map[string]bool, len(counters))
	for _, counter := range counters {
		if counter.NewGraded+counter.ReviewsDone > 0 {
			activeDays[counter.Day] = true
		}
	}

	streak := int64(0)
	// Check each day going backwards from today, up to a year
	for i := 0; i < 365; i++ {
		day := store.CounterDay(now.AddDate(0, 0, -i))
		if !activeDays[day] {
			break
		}
		streak++
	}
	return streak
}

// GetSummary returns a human-readable summary.
func (s *Stats) GetSummary() string {
	return fmt.Sprintf(
		`Collection statistics (updated %s)

Items
  total: %d
  new: %d
  learning: %d
  review: %d
  suspended: %d
  leeches: %d

Due
  now: %d
  today: %d
  this week: %d

Today
  new graded: %d
  reviews done: %d

Activity
  active days (30d): %d
  streak: %d days
  last study: %s`,
		s.LastUpdated.Format("2006-01-02 15:04"),
		s.TotalItems,
		s.NewItems,
		s.LearningItems,
		s.ReviewItems,
		s.SuspendedItems,
		s.LeechItems,
		s.DueNow,
		s.DueToday,
		s.DueThisWeek,
		s.NewToday,
		s.ReviewsToday,
		s.ActiveDays,
		s.StreakDays,
		formatLastActivity(s.LastActivityTime),
	)
}

func formatLastActivity(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	duration := time.Since(t)
	if duration < time.Hour {
		return "just now"
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	}
	if duration < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	}
	return t.Format("2006-01-02")
}
