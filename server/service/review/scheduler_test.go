package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosweasl/cognify/store"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newItem(id string, phase store.Phase) *store.ReviewState {
	st := store.NewReviewState("owner", "default", id)
	st.Phase = phase
	return st
}

func TestNextStateNewItem(t *testing.T) {
	p := DefaultParams()

	t.Run("Again", func(t *testing.T) {
		next := NextState(newItem("a", store.PhaseNew), GradeAgain, p, testNow)
		assert.Equal(t, store.PhaseLearning, next.Phase)
		assert.Equal(t, 0, next.StepIndex)
		assert.Equal(t, testNow.Add(1*time.Minute), next.Due)
		assert.Equal(t, 1, next.Reps)
		assert.Equal(t, 0, next.Lapses)
	})

	t.Run("Hard", func(t *testing.T) {
		next := NextState(newItem("a", store.PhaseNew), GradeHard, p, testNow)
		assert.Equal(t, store.PhaseLearning, next.Phase)
		assert.Equal(t, 0, next.StepIndex)
		assert.Equal(t, testNow.Add(1*time.Minute), next.Due)
	})

	t.Run("Good", func(t *testing.T) {
		next := NextState(newItem("a", store.PhaseNew), GradeGood, p, testNow)
		assert.Equal(t, store.PhaseLearning, next.Phase)
		assert.Equal(t, 1, next.StepIndex)
		assert.Equal(t, testNow.Add(10*time.Minute), next.Due)
	})

	t.Run("Easy", func(t *testing.T) {
		next := NextState(newItem("a", store.PhaseNew), GradeEasy, p, testNow)
		assert.Equal(t, store.PhaseReview, next.Phase)
		assert.Equal(t, p.EasyIntervalDays, next.IntervalDays)
		assert.Equal(t, testNow.AddDate(0, 0, p.EasyIntervalDays), next.Due)
	})

	t.Run("StartingEaseApplied", func(t *testing.T) {
		custom := DefaultParams()
		custom.StartingEase = 3.0
		next := NextState(newItem("a", store.PhaseNew), GradeGood, custom, testNow)
		assert.InDelta(t, 3.0, next.Ease, 1e-9)
	})
}

// Walks the documented path of a fresh item graded Good repeatedly with
// the default two learning steps.
func TestNextStateGraduation(t *testing.T) {
	p := DefaultParams()
	item := newItem("a", store.PhaseNew)

	first := NextState(item, GradeGood, p, testNow)
	require.Equal(t, store.PhaseLearning, first.Phase)
	require.Equal(t, 1, first.StepIndex)

	second := NextState(first, GradeGood, p, testNow.Add(10*time.Minute))
	require.Equal(t, store.PhaseReview, second.Phase)
	assert.Equal(t, 1, second.IntervalDays)
	assert.Equal(t, 0, second.StepIndex)
	assert.Equal(t, 2, second.Reps)

	third := NextState(second, GradeGood, p, testNow.AddDate(0, 0, 1))
	require.Equal(t, store.PhaseReview, third.Phase)
	// 1 day * 2.5 ease rounds half up to 3.
	assert.Equal(t, 3, third.IntervalDays)
}

func TestNextStateLearningSteps(t *testing.T) {
	p := DefaultParams()

	t.Run("AgainResetsStep", func(t *testing.T) {
		item := newItem("a", store.PhaseLearning)
		item.StepIndex = 1
		next := NextState(item, GradeAgain, p, testNow)
		assert.Equal(t, 0, next.StepIndex)
		assert.Equal(t, testNow.Add(1*time.Minute), next.Due)
		assert.Equal(t, 0, next.Lapses, "learning resets are not lapses")
		assert.InDelta(t, store.DefaultEase, next.Ease, 1e-9)
	})

	t.Run("HardRepeatsStep", func(t *testing.T) {
		item := newItem("a", store.PhaseLearning)
		item.StepIndex = 1
		next := NextState(item, GradeHard, p, testNow)
		assert.Equal(t, 1, next.StepIndex)
		assert.Equal(t, testNow.Add(10*time.Minute), next.Due)
	})

	t.Run("EasyGraduatesEarly", func(t *testing.T) {
		item := newItem("a", store.PhaseLearning)
		item.StepIndex = 0
		next := NextState(item, GradeEasy, p, testNow)
		assert.Equal(t, store.PhaseReview, next.Phase)
		assert.Equal(t, p.EasyIntervalDays, next.IntervalDays)
	})
}

func TestNextStateReviewGrowth(t *testing.T) {
	p := DefaultParams()

	base := func() *store.ReviewState {
		item := newItem("a", store.PhaseReview)
		item.IntervalDays = 10
		item.Ease = 2.5
		return item
	}

	tests := []struct {
		name     string
		grade    Grade
		wantDays int
	}{
		{"Hard", GradeHard, 20},  // 10 * 2.5 * 0.8
		{"Good", GradeGood, 25},  // 10 * 2.5
		{"Easy", GradeEasy, 33},  // 10 * 2.5 * 1.3 = 32.5, rounds up
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := NextState(base(), tt.grade, p, testNow)
			assert.Equal(t, store.PhaseReview, next.Phase)
			assert.Equal(t, tt.wantDays, next.IntervalDays)
			assert.Equal(t, testNow.AddDate(0, 0, tt.wantDays), next.Due)
			assert.InDelta(t, 2.5, next.Ease, 1e-9, "ease only moves on lapses")
		})
	}
}

func TestNextStateLapse(t *testing.T) {
	p := DefaultParams()
	item := newItem("a", store.PhaseReview)
	item.IntervalDays = 10
	item.Ease = 2.5

	lapsed := NextState(item, GradeAgain, p, testNow)
	require.Equal(t, store.PhaseRelearning, lapsed.Phase)
	assert.Equal(t, 1, lapsed.Lapses)
	assert.InDelta(t, 2.0, lapsed.Ease, 1e-9)
	assert.Equal(t, 5, lapsed.IntervalDays, "recovery interval stored at lapse time")
	assert.Equal(t, 0, lapsed.StepIndex)
	assert.Equal(t, testNow.Add(10*time.Minute), lapsed.Due)

	t.Run("GoodReturnsToRecoveryInterval", func(t *testing.T) {
		later := testNow.Add(10 * time.Minute)
		back := NextState(lapsed, GradeGood, p, later)
		require.Equal(t, store.PhaseReview, back.Phase)
		assert.Equal(t, 5, back.IntervalDays)
		assert.Equal(t, later.AddDate(0, 0, 5), back.Due)
	})

	t.Run("AgainWhileRelearningLapsesAgain", func(t *testing.T) {
		again := NextState(lapsed, GradeAgain, p, testNow.Add(10*time.Minute))
		assert.Equal(t, store.PhaseRelearning, again.Phase)
		assert.Equal(t, 2, again.Lapses)
		assert.InDelta(t, 2.0, again.Ease, 1e-9, "no extra penalty while relearning")
	})

	t.Run("EasyGraduationKeepsLargerInterval", func(t *testing.T) {
		short := newItem("b", store.PhaseRelearning)
		short.IntervalDays = 2
		easy := NextState(short, GradeEasy, p, testNow)
		assert.Equal(t, p.EasyIntervalDays, easy.IntervalDays)

		long := newItem("c", store.PhaseRelearning)
		long.IntervalDays = 9
		easy = NextState(long, GradeEasy, p, testNow)
		assert.Equal(t, 9, easy.IntervalDays)
	})
}

func TestNextStateEaseFloor(t *testing.T) {
	p := DefaultParams()
	item := newItem("a", store.PhaseReview)
	item.IntervalDays = 4
	item.Ease = 1.35

	next := NextState(item, GradeAgain, p, testNow)
	assert.InDelta(t, p.MinimumEase, next.Ease, 1e-9)

	// Repeated lapses stay pinned at the floor.
	next.Phase = store.PhaseReview
	next = NextState(next, GradeAgain, p, testNow)
	assert.InDelta(t, p.MinimumEase, next.Ease, 1e-9)
}

func TestNextStateLeech(t *testing.T) {
	setup := func() *store.ReviewState {
		item := newItem("a", store.PhaseReview)
		item.IntervalDays = 6
		item.Ease = 2.5
		item.Lapses = 7
		return item
	}

	t.Run("Suspend", func(t *testing.T) {
		p := DefaultParams()
		p.LeechThreshold = 8
		p.LeechAction = LeechSuspend
		next := NextState(setup(), GradeAgain, p, testNow)
		assert.Equal(t, 8, next.Lapses)
		assert.True(t, next.IsLeech)
		assert.True(t, next.IsSuspended)
	})

	t.Run("FlagOnly", func(t *testing.T) {
		p := DefaultParams()
		p.LeechThreshold = 8
		p.LeechAction = LeechFlagOnly
		next := NextState(setup(), GradeAgain, p, testNow)
		assert.True(t, next.IsLeech)
		assert.False(t, next.IsSuspended)
	})

	t.Run("BelowThreshold", func(t *testing.T) {
		p := DefaultParams()
		p.LeechThreshold = 8
		item := setup()
		item.Lapses = 3
		next := NextState(item, GradeAgain, p, testNow)
		assert.False(t, next.IsLeech)
		assert.False(t, next.IsSuspended)
	})
}

func TestNextStateMaxInterval(t *testing.T) {
	p := DefaultParams()
	p.MaxIntervalDays = 10

	item := newItem("a", store.PhaseReview)
	item.IntervalDays = 8
	item.Ease = 2.5

	next := NextState(item, GradeGood, p, testNow)
	assert.Equal(t, 10, next.IntervalDays)
	assert.Equal(t, testNow.AddDate(0, 0, 10), next.Due)
}

func TestNextStateDoesNotMutateInput(t *testing.T) {
	item := newItem("a", store.PhaseReview)
	item.IntervalDays = 10
	item.Ease = 2.5
	before := item.Clone()

	_ = NextState(item, GradeAgain, DefaultParams(), testNow)
	assert.Equal(t, before, item)
}

func TestNextStateCorruptPhase(t *testing.T) {
	item := newItem("a", store.Phase("GARBAGE"))
	next := NextState(item, GradeGood, DefaultParams(), testNow)
	assert.Equal(t, store.PhaseLearning, next.Phase)
	assert.Equal(t, 1, next.StepIndex)
}

func TestNextStateClampsGrade(t *testing.T) {
	item := newItem("a", store.PhaseReview)
	item.IntervalDays = 10
	item.Ease = 2.5

	next := NextState(item, Grade(99), DefaultParams(), testNow)
	assert.Equal(t, 33, next.IntervalDays, "out-of-range grades behave as Easy")

	next = NextState(item, Grade(-5), DefaultParams(), testNow)
	assert.Equal(t, store.PhaseRelearning, next.Phase, "negative grades behave as Again")
}
