package review

import (
	"time"

	"github.com/chaosweasl/cognify/store"
)

// SessionStats is a presentation-oriented snapshot of the active
// session: today's progress, the collection breakdown, and how much
// work is available right now under the scope's quotas.
type SessionStats struct {
	// SessionUID identifies this session in logs.
	SessionUID string

	OwnerID string
	Scope   string
	Day     string

	// Progress recorded today.
	NewGraded   int
	ReviewsDone int

	// Collection breakdown, suspended items included.
	TotalItems     int
	NewCount       int
	LearningCount  int
	ReviewCount    int
	SuspendedCount int
	LeechCount     int

	// Work available at the time of the snapshot.
	LearningDueNow   int
	LearningWaiting  int
	ReviewsDueNow    int
	ReviewsRemaining int
	NewRemaining     int

	// NextLearningDue is the earliest future learning due time, zero
	// when nothing is waiting.
	NextLearningDue time.Time

	SuppressedCount int
	UndoDepth       int

	// Complete means nothing qualifies for selection and nothing is
	// waiting on a learning delay.
	Complete bool
}

func (s *service) sessionStats(now time.Time) *SessionStats {
	counters := s.sess.Counters(s.scope)
	stats := &SessionStats{
		SessionUID:      s.uid,
		OwnerID:         s.owner,
		Scope:           s.scope,
		Day:             s.sess.Day(),
		NewGraded:       counters.NewGraded,
		ReviewsDone:     counters.ReviewsDone,
		TotalItems:      len(s.items),
		SuppressedCount: s.sess.SuppressedCount(),
		UndoDepth:       s.sess.UndoDepth(),
	}

	availableNew := 0
	for _, item := range s.items {
		switch item.Phase {
		case store.PhaseNew:
			stats.NewCount++
		case store.PhaseLearning, store.PhaseRelearning:
			stats.LearningCount++
		case store.PhaseReview:
			stats.ReviewCount++
		}
		if item.IsLeech {
			stats.LeechCount++
		}
		if item.IsSuspended {
			stats.SuspendedCount++
			continue
		}

		switch {
		case item.Phase.InSteps():
			if item.Due.After(now) {
				stats.LearningWaiting++
				if stats.NextLearningDue.IsZero() || item.Due.Before(stats.NextLearningDue) {
					stats.NextLearningDue = item.Due
				}
			} else {
				stats.LearningDueNow++
			}
		case item.Phase == store.PhaseReview:
			if !item.Due.After(now) && !s.sess.IsSuppressed(item.ItemID) {
				stats.ReviewsDueNow++
			}
		case item.Phase == store.PhaseNew:
			if !s.sess.IsSuppressed(item.ItemID) {
				availableNew++
			}
		}
	}

	newQuota := s.limits.NewPerDay - counters.NewGraded
	if newQuota < 0 {
		newQuota = 0
	}
	stats.NewRemaining = availableNew
	if newQuota < stats.NewRemaining {
		stats.NewRemaining = newQuota
	}

	stats.ReviewsRemaining = stats.ReviewsDueNow
	if s.limits.MaxReviewsPerDay > 0 {
		reviewQuota := s.limits.MaxReviewsPerDay - counters.ReviewsDone
		if reviewQuota < 0 {
			reviewQuota = 0
		}
		if reviewQuota < stats.ReviewsRemaining {
			stats.ReviewsRemaining = reviewQuota
		}
	}

	next := selectNext(s.scope, s.orderedItems(), s.sess, s.params, s.limits, now, nil)
	stats.Complete = next == nil && stats.LearningWaiting == 0
	return stats
}
