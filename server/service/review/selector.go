package review

import (
	"math/rand"
	"time"

	"github.com/chaosweasl/cognify/store"
)

// learnAheadWindow is how far into the future the selector will reach
// for a learning item when nothing else qualifies.
const learnAheadWindow = 10 * time.Minute

// selectNext picks the item to present next, or nil when no item
// qualifies. items must be in insertion order; it is what first-in
// first-out means for new items. Priority tiers, each short-circuiting
// the rest:
//
//  1. learning items due now, exempt from daily limits and sibling
//     suppression
//  2. review items due now, under the scope's review limit
//  3. new items, under the scope's new-item limit
//  4. learning items due within the learn-ahead window
//
// The result is deterministic except for tier 3 with random ordering.
func selectNext(scope string, items []*store.ReviewState, sess *Session, p Params, limits store.ScopeLimits, now time.Time, rng *rand.Rand) *store.ReviewState {
	if len(items) == 0 {
		return nil
	}
	counters := sess.Counters(scope)

	if item := learningDue(items, now); item != nil {
		return item
	}

	if limits.MaxReviewsPerDay <= 0 || counters.ReviewsDone < limits.MaxReviewsPerDay {
		var due []*store.ReviewState
		for _, item := range items {
			if item.Phase != store.PhaseReview || item.IsSuspended || sess.IsSuppressed(item.ItemID) {
				continue
			}
			if !p.ReviewAhead && item.Due.After(now) {
				continue
			}
			due = append(due, item)
		}
		if item := earliestDue(due); item != nil {
			return item
		}
	}

	if counters.NewGraded < limits.NewPerDay {
		var fresh []*store.ReviewState
		for _, item := range items {
			if item.Phase != store.PhaseNew || item.IsSuspended || sess.IsSuppressed(item.ItemID) {
				continue
			}
			if p.NewItemOrder != NewItemOrderRandom {
				return item
			}
			fresh = append(fresh, item)
		}
		if len(fresh) > 0 {
			if rng == nil {
				return fresh[0]
			}
			return fresh[rng.Intn(len(fresh))]
		}
	}

	return learningAhead(items, now)
}

// learningDue returns the learning item with the earliest elapsed due
// time, ties broken by item id.
func learningDue(items []*store.ReviewState, now time.Time) *store.ReviewState {
	var candidates []*store.ReviewState
	for _, item := range items {
		if !item.Phase.InSteps() || item.IsSuspended || item.Due.After(now) {
			continue
		}
		candidates = append(candidates, item)
	}
	return earliestDue(candidates)
}

// learningAhead returns the learning item closest to becoming due,
// provided its wait is inside the learn-ahead window. Overdue items
// satisfy the window trivially; they are normally taken by the
// learning tier before this one runs.
func learningAhead(items []*store.ReviewState, now time.Time) *store.ReviewState {
	var candidates []*store.ReviewState
	for _, item := range items {
		if !item.Phase.InSteps() || item.IsSuspended {
			continue
		}
		if item.Due.Sub(now) > learnAheadWindow {
			continue
		}
		candidates = append(candidates, item)
	}
	return earliestDue(candidates)
}

func earliestDue(candidates []*store.ReviewState) *store.ReviewState {
	var best *store.ReviewState
	for _, item := range candidates {
		if best == nil {
			best = item
			continue
		}
		if item.Due.Before(best.Due) || (item.Due.Equal(best.Due) && item.ItemID < best.ItemID) {
			best = item
		}
	}
	return best
}
