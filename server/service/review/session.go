package review

import (
	"time"

	"github.com/chaosweasl/cognify/store"
)

// DefaultScope is the counter scope used by callers that do not
// partition their items into projects.
const DefaultScope = "default"

// ScopeCounters tracks one scope's progress for the current day.
type ScopeCounters struct {
	NewGraded   int
	ReviewsDone int
}

// Session is the in-memory bookkeeping for one reviewer's study
// session: per-scope daily counters, the set of items suppressed by
// sibling burying, the queue of items cycling through learning steps,
// and the undo log. It is owned by a single goroutine and is not safe
// for concurrent use.
type Session struct {
	ownerID string
	day     string

	counters   map[string]*ScopeCounters
	suppressed map[string]struct{}

	// learningOrder holds ids of items currently in a learning phase,
	// oldest first, without duplicates.
	learningOrder []string
	learningSet   map[string]struct{}

	undo undoRing
}

// NewSession returns an empty session keyed to the calendar day of now.
func NewSession(ownerID string, now time.Time) *Session {
	return &Session{
		ownerID:    ownerID,
		day:        store.CounterDay(now),
		counters:   map[string]*ScopeCounters{},
		suppressed: map[string]struct{}{},
	}
}

// OwnerID returns the reviewer the session belongs to.
func (s *Session) OwnerID() string {
	return s.ownerID
}

// Day returns the calendar day, in the local time zone, the session's
// counters are keyed to.
func (s *Session) Day() string {
	return s.day
}

// Rollover resets day-scoped state when now has crossed into a new
// calendar day: counters restart at zero for the new day, sibling
// suppression is lifted, and the undo log is cleared since its entries
// reverse counters of the closed day. It reports whether a rollover
// happened.
func (s *Session) Rollover(now time.Time) bool {
	day := store.CounterDay(now)
	if day == s.day {
		return false
	}
	s.day = day
	s.counters = map[string]*ScopeCounters{}
	s.suppressed = map[string]struct{}{}
	s.undo.reset()
	return true
}

// Counters returns a copy of the counters for scope, zeroed if the
// scope has not been touched today.
func (s *Session) Counters(scope string) ScopeCounters {
	if c, ok := s.counters[scope]; ok {
		return *c
	}
	return ScopeCounters{}
}

// SetCounters overwrites the counters for scope, used when seeding the
// session from persisted state. Negative values are clamped to zero.
func (s *Session) SetCounters(scope string, c ScopeCounters) {
	if c.NewGraded < 0 {
		c.NewGraded = 0
	}
	if c.ReviewsDone < 0 {
		c.ReviewsDone = 0
	}
	s.counters[scope] = &c
}

// Totals sums the counters across every scope touched today.
func (s *Session) Totals() ScopeCounters {
	var total ScopeCounters
	for _, c := range s.counters {
		total.NewGraded += c.NewGraded
		total.ReviewsDone += c.ReviewsDone
	}
	return total
}

func (s *Session) scopeCounters(scope string) *ScopeCounters {
	c, ok := s.counters[scope]
	if !ok {
		c = &ScopeCounters{}
		s.counters[scope] = c
	}
	return c
}

// NoteGraded records a grading event against scope. Items graded out
// of the New phase count toward the new-item quota; everything else,
// learning phases included, counts as a review event.
func (s *Session) NoteGraded(scope string, priorPhase store.Phase) {
	c := s.scopeCounters(scope)
	if priorPhase == store.PhaseNew {
		c.NewGraded++
		return
	}
	c.ReviewsDone++
}

// NoteUndone reverses the counter effect of one grading event against
// scope. Counters never go below zero.
func (s *Session) NoteUndone(scope string, priorPhase store.Phase) {
	c := s.scopeCounters(scope)
	if priorPhase == store.PhaseNew {
		if c.NewGraded > 0 {
			c.NewGraded--
		}
		return
	}
	if c.ReviewsDone > 0 {
		c.ReviewsDone--
	}
}

// Suppress hides the given items from review and new selection for the
// rest of the day.
func (s *Session) Suppress(ids ...string) {
	for _, id := range ids {
		s.suppressed[id] = struct{}{}
	}
}

// IsSuppressed reports whether id is hidden by sibling suppression.
func (s *Session) IsSuppressed(id string) bool {
	_, ok := s.suppressed[id]
	return ok
}

// SuppressedCount returns the number of currently suppressed items.
func (s *Session) SuppressedCount() int {
	return len(s.suppressed)
}

// EnqueueLearning appends id to the learning queue if not already
// present. Items keep their original position on re-grade.
func (s *Session) EnqueueLearning(id string) {
	if s.learningSet == nil {
		s.learningSet = map[string]struct{}{}
	}
	if _, ok := s.learningSet[id]; ok {
		return
	}
	s.learningSet[id] = struct{}{}
	s.learningOrder = append(s.learningOrder, id)
}

// RemoveLearning drops id from the learning queue, if present.
func (s *Session) RemoveLearning(id string) {
	if _, ok := s.learningSet[id]; !ok {
		return
	}
	delete(s.learningSet, id)
	for i, other := range s.learningOrder {
		if other == id {
			s.learningOrder = append(s.learningOrder[:i], s.learningOrder[i+1:]...)
			break
		}
	}
}

// InLearning reports whether id is queued in a learning phase.
func (s *Session) InLearning(id string) bool {
	_, ok := s.learningSet[id]
	return ok
}

// LearningQueue returns the queued learning item ids, oldest first.
func (s *Session) LearningQueue() []string {
	out := make([]string, len(s.learningOrder))
	copy(out, s.learningOrder)
	return out
}

// PushUndo records a grading event in the undo log, evicting the
// oldest entry once the log is full.
func (s *Session) PushUndo(e UndoEntry) {
	s.undo.push(e)
}

// PopUndo removes and returns the most recent grading event, if any.
func (s *Session) PopUndo() (UndoEntry, bool) {
	return s.undo.pop()
}

// UndoDepth returns the number of grading events available to undo.
func (s *Session) UndoDepth() int {
	return s.undo.len()
}
