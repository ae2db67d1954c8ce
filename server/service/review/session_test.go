package review

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosweasl/cognify/store"
)

func TestSessionCounters(t *testing.T) {
	sess := NewSession("owner", testNow)

	sess.NoteGraded("spanish", store.PhaseNew)
	sess.NoteGraded("spanish", store.PhaseReview)
	sess.NoteGraded("spanish", store.PhaseLearning)
	sess.NoteGraded(DefaultScope, store.PhaseNew)

	assert.Equal(t, ScopeCounters{NewGraded: 1, ReviewsDone: 2}, sess.Counters("spanish"))
	assert.Equal(t, ScopeCounters{NewGraded: 1}, sess.Counters(DefaultScope))
	assert.Equal(t, ScopeCounters{}, sess.Counters("untouched"))
	assert.Equal(t, ScopeCounters{NewGraded: 2, ReviewsDone: 2}, sess.Totals())
}

func TestSessionGradeUndoPairsRestoreCounters(t *testing.T) {
	sess := NewSession("owner", testNow)
	sess.SetCounters("spanish", ScopeCounters{NewGraded: 3, ReviewsDone: 7})
	before := sess.Counters("spanish")

	phases := []store.Phase{
		store.PhaseNew, store.PhaseLearning, store.PhaseReview,
		store.PhaseRelearning, store.PhaseNew,
	}
	for _, ph := range phases {
		sess.NoteGraded("spanish", ph)
	}
	for i := len(phases) - 1; i >= 0; i-- {
		sess.NoteUndone("spanish", phases[i])
	}

	assert.Equal(t, before, sess.Counters("spanish"))
}

func TestSessionNoteUndoneClampsAtZero(t *testing.T) {
	sess := NewSession("owner", testNow)
	sess.NoteUndone("spanish", store.PhaseNew)
	sess.NoteUndone("spanish", store.PhaseReview)
	assert.Equal(t, ScopeCounters{}, sess.Counters("spanish"))
}

func TestSessionUndoRingCapacity(t *testing.T) {
	sess := NewSession("owner", testNow)
	for i := 0; i < 25; i++ {
		sess.PushUndo(UndoEntry{
			ItemID:   fmt.Sprintf("item-%d", i),
			GradedAt: testNow.Add(time.Duration(i) * time.Second),
		})
	}
	require.Equal(t, 20, sess.UndoDepth())

	// The 20 most recent entries come back newest first.
	for i := 24; i >= 5; i-- {
		e, ok := sess.PopUndo()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("item-%d", i), e.ItemID)
	}
	_, ok := sess.PopUndo()
	assert.False(t, ok)
	assert.Equal(t, 0, sess.UndoDepth())
}

func TestSessionRollover(t *testing.T) {
	sess := NewSession("owner", testNow)
	sess.NoteGraded("spanish", store.PhaseNew)
	sess.Suppress("a", "b")
	sess.PushUndo(UndoEntry{ItemID: "a", Scope: "spanish"})

	assert.False(t, sess.Rollover(testNow.Add(time.Hour)), "same day is a no-op")
	assert.Equal(t, 2, sess.SuppressedCount())
	assert.Equal(t, 1, sess.UndoDepth())

	nextDay := testNow.AddDate(0, 0, 1)
	require.True(t, sess.Rollover(nextDay))
	assert.Equal(t, store.CounterDay(nextDay), sess.Day())
	assert.Equal(t, ScopeCounters{}, sess.Counters("spanish"))
	assert.Equal(t, 0, sess.SuppressedCount())
	assert.False(t, sess.IsSuppressed("a"))
	assert.Equal(t, 0, sess.UndoDepth())
}

func TestSessionLearningQueue(t *testing.T) {
	sess := NewSession("owner", testNow)

	sess.EnqueueLearning("a")
	sess.EnqueueLearning("b")
	sess.EnqueueLearning("a") // duplicate keeps original position
	sess.EnqueueLearning("c")

	assert.Equal(t, []string{"a", "b", "c"}, sess.LearningQueue())
	assert.True(t, sess.InLearning("b"))

	sess.RemoveLearning("b")
	assert.Equal(t, []string{"a", "c"}, sess.LearningQueue())
	assert.False(t, sess.InLearning("b"))

	sess.RemoveLearning("missing")
	assert.Equal(t, []string{"a", "c"}, sess.LearningQueue())
}

func TestSessionSuppression(t *testing.T) {
	sess := NewSession("owner", testNow)
	sess.Suppress("a")
	sess.Suppress("a", "b")

	assert.True(t, sess.IsSuppressed("a"))
	assert.True(t, sess.IsSuppressed("b"))
	assert.False(t, sess.IsSuppressed("c"))
	assert.Equal(t, 2, sess.SuppressedCount())
}
