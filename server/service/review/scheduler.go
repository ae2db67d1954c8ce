package review

import (
	"math"
	"time"

	"github.com/chaosweasl/cognify/store"
)

// NextState computes the schedule an item moves to after a graded
// response. It is pure: the input state is never mutated and nothing is
// consulted beyond the arguments. Out-of-range grades are clamped to
// the nearest valid grade.
func NextState(current *store.ReviewState, grade Grade, params Params, now time.Time) *store.ReviewState {
	p := params.withDefaults()
	if grade < GradeAgain {
		grade = GradeAgain
	} else if grade > GradeEasy {
		grade = GradeEasy
	}

	next := current.Clone()
	switch next.Phase {
	case store.PhaseLearning, store.PhaseRelearning:
		transitionLearning(next, grade, p, now)
	case store.PhaseReview:
		transitionReview(next, grade, p, now)
	default:
		// New, or an unrecognized phase from a corrupt row. The first
		// grade is the completion of step zero.
		next.Phase = store.PhaseLearning
		next.StepIndex = 0
		next.IntervalDays = 0
		next.Ease = p.StartingEase
		transitionLearning(next, grade, p, now)
	}

	next.Reps++
	next.LastGradedAt = now
	checkLeech(next, p)
	return next
}

// transitionLearning advances an item through its learning or
// relearning steps. StepIndex is the step the item is currently waiting
// on; Again restarts the sequence, Hard repeats the current step, Good
// moves to the next step or graduates past the last one, Easy graduates
// immediately.
func transitionLearning(next *store.ReviewState, grade Grade, p Params, now time.Time) {
	steps := p.LearningSteps
	if next.Phase == store.PhaseRelearning {
		steps = p.RelearningSteps
	}

	switch grade {
	case GradeAgain:
		if next.Phase == store.PhaseRelearning {
			next.Lapses++
		}
		next.StepIndex = 0
		next.Due = now.Add(stepDelay(steps, 0))
	case GradeHard:
		next.Due = now.Add(stepDelay(steps, next.StepIndex))
	case GradeGood:
		idx := next.StepIndex + 1
		if idx >= len(steps) {
			graduate(next, graduationInterval(next, p, grade), p, now)
			return
		}
		next.StepIndex = idx
		next.Due = now.Add(stepDelay(steps, idx))
	case GradeEasy:
		graduate(next, graduationInterval(next, p, grade), p, now)
	}
}

// graduationInterval picks the first review interval for an item
// leaving its steps. Items relearning after a lapse return to the
// recovery interval stored when they lapsed instead of starting over.
func graduationInterval(next *store.ReviewState, p Params, grade Grade) int {
	if next.Phase == store.PhaseRelearning {
		days := next.IntervalDays
		if days < 1 {
			days = 1
		}
		if grade == GradeEasy && days < p.EasyIntervalDays {
			days = p.EasyIntervalDays
		}
		return days
	}
	if grade == GradeEasy {
		return p.EasyIntervalDays
	}
	return p.GraduatingIntervalDays
}

func graduate(next *store.ReviewState, days int, p Params, now time.Time) {
	days = clampInterval(days, p)
	next.Phase = store.PhaseReview
	next.StepIndex = 0
	next.IntervalDays = days
	next.Due = now.AddDate(0, 0, days)
}

// transitionReview applies the review-phase schedule growth. The next
// interval is intervalDays * ease * gradeFactor; Again demotes the item
// to relearning with a penalized ease and a recovery interval.
func transitionReview(next *store.ReviewState, grade Grade, p Params, now time.Time) {
	if grade == GradeAgain {
		next.Lapses++
		next.Ease = math.Max(p.MinimumEase, next.Ease*p.LapseEasePenalty)
		recovery := roundHalfUpDays(float64(next.IntervalDays) * p.LapseRecoveryFactor)
		if recovery < 1 {
			recovery = 1
		}
		next.IntervalDays = clampInterval(recovery, p)
		next.Phase = store.PhaseRelearning
		next.StepIndex = 0
		next.Due = now.Add(stepDelay(p.RelearningSteps, 0))
		return
	}

	factor := 1.0
	switch grade {
	case GradeHard:
		factor = p.HardIntervalFactor
	case GradeEasy:
		factor = p.EasyBonus * p.EasyIntervalFactor
	}
	days := roundHalfUpDays(float64(next.IntervalDays) * next.Ease * factor)
	if days < 1 {
		days = 1
	}
	next.IntervalDays = clampInterval(days, p)
	next.Due = now.AddDate(0, 0, next.IntervalDays)
}

func checkLeech(next *store.ReviewState, p Params) {
	if p.LeechThreshold <= 0 || next.Lapses < p.LeechThreshold {
		return
	}
	next.IsLeech = true
	if p.LeechAction == LeechSuspend {
		next.IsSuspended = true
	}
}

func stepDelay(steps []int, idx int) time.Duration {
	if idx >= len(steps) {
		idx = len(steps) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return time.Duration(steps[idx]) * time.Minute
}

func clampInterval(days int, p Params) int {
	if p.MaxIntervalDays > 0 && days > p.MaxIntervalDays {
		return p.MaxIntervalDays
	}
	return days
}

// roundHalfUpDays rounds fractional day counts half up so repeated
// conversions cannot oscillate an item between adjacent due times.
func roundHalfUpDays(days float64) int {
	return int(math.Floor(days + 0.5))
}
