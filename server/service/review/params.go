package review

import (
	"fmt"
	"strings"
)

// LeechAction controls what happens to an item once its lapse count
// crosses the leech threshold.
type LeechAction string

const (
	// LeechSuspend flags the item and removes it from selection.
	LeechSuspend LeechAction = "suspend"
	// LeechFlagOnly flags the item but keeps scheduling it.
	LeechFlagOnly LeechAction = "flagOnly"
)

func (a LeechAction) IsValid() bool {
	return a == LeechSuspend || a == LeechFlagOnly
}

func (a *LeechAction) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "suspend":
		*a = LeechSuspend
	case "flagonly":
		*a = LeechFlagOnly
	default:
		return fmt.Errorf("unknown leech action %q", string(text))
	}
	return nil
}

// NewItemOrder controls the order unseen items are introduced in.
type NewItemOrder string

const (
	// NewItemOrderFIFO introduces items in insertion order.
	NewItemOrderFIFO NewItemOrder = "fifo"
	// NewItemOrderRandom introduces items in uniform random order.
	NewItemOrderRandom NewItemOrder = "random"
)

func (o NewItemOrder) IsValid() bool {
	return o == NewItemOrderFIFO || o == NewItemOrderRandom
}

func (o *NewItemOrder) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "fifo":
		*o = NewItemOrderFIFO
	case "random":
		*o = NewItemOrderRandom
	default:
		return fmt.Errorf("unknown new item order %q", string(text))
	}
	return nil
}

// Params are the tunable scheduling parameters. The zero value is not
// usable directly; pass it through withDefaults or start from
// DefaultParams and override individual fields.
type Params struct {
	// LearningSteps are the delays, in minutes, an item moves through
	// before graduating from Learning to Review.
	LearningSteps []int
	// RelearningSteps are the delays, in minutes, for items that lapsed
	// out of Review.
	RelearningSteps []int

	// GraduatingIntervalDays is the first review interval after an item
	// completes its learning steps with a Good grade.
	GraduatingIntervalDays int
	// EasyIntervalDays is the first review interval after an Easy grade
	// in the learning phase.
	EasyIntervalDays int

	StartingEase float64
	MinimumEase  float64

	// EasyBonus multiplies the next interval on an Easy review grade.
	EasyBonus float64
	// HardIntervalFactor multiplies the next interval on a Hard review
	// grade. Below 1 so hard items grow slower than their ease alone
	// would dictate.
	HardIntervalFactor float64
	// EasyIntervalFactor is an extra multiplier applied on Easy review
	// grades on top of EasyBonus. 1 leaves the bonus unchanged.
	EasyIntervalFactor float64

	// LapseRecoveryFactor scales the pre-lapse interval down to produce
	// the interval an item returns to after relearning.
	LapseRecoveryFactor float64
	// LapseEasePenalty multiplies the ease on every lapse, floored at
	// MinimumEase.
	LapseEasePenalty float64

	LeechThreshold int
	LeechAction    LeechAction

	NewItemOrder NewItemOrder

	// ReviewAhead lifts the due-time check on review selection, letting
	// a reviewer work ahead of schedule.
	ReviewAhead bool
	// BurySiblings hides the other items of a group for the rest of the
	// day once one of them is graded.
	BurySiblings bool

	MaxIntervalDays int
}

// DefaultParams returns the stock scheduling parameters.
func DefaultParams() Params {
	return Params{
		LearningSteps:          []int{1, 10},
		RelearningSteps:        []int{10},
		GraduatingIntervalDays: 1,
		EasyIntervalDays:       4,
		StartingEase:           2.5,
		MinimumEase:            1.3,
		EasyBonus:              1.3,
		HardIntervalFactor:     0.8,
		EasyIntervalFactor:     1.0,
		LapseRecoveryFactor:    0.5,
		LapseEasePenalty:       0.8,
		LeechThreshold:         8,
		LeechAction:            LeechSuspend,
		NewItemOrder:           NewItemOrderFIFO,
		ReviewAhead:            false,
		BurySiblings:           true,
		MaxIntervalDays:        36500,
	}
}

// withDefaults fills unset numeric and enum fields with their defaults
// so that a partially specified Params is still safe to schedule with.
// Booleans pass through untouched; ReviewAhead and BurySiblings carry
// their stated defaults only via DefaultParams.
func (p Params) withDefaults() Params {
	def := DefaultParams()
	if len(p.LearningSteps) == 0 {
		p.LearningSteps = def.LearningSteps
	}
	if len(p.RelearningSteps) == 0 {
		p.RelearningSteps = def.RelearningSteps
	}
	if p.GraduatingIntervalDays <= 0 {
		p.GraduatingIntervalDays = def.GraduatingIntervalDays
	}
	if p.EasyIntervalDays <= 0 {
		p.EasyIntervalDays = def.EasyIntervalDays
	}
	if p.StartingEase <= 0 {
		p.StartingEase = def.StartingEase
	}
	if p.MinimumEase <= 0 {
		p.MinimumEase = def.MinimumEase
	}
	if p.EasyBonus <= 0 {
		p.EasyBonus = def.EasyBonus
	}
	if p.HardIntervalFactor <= 0 {
		p.HardIntervalFactor = def.HardIntervalFactor
	}
	if p.EasyIntervalFactor <= 0 {
		p.EasyIntervalFactor = def.EasyIntervalFactor
	}
	if p.LapseRecoveryFactor <= 0 {
		p.LapseRecoveryFactor = def.LapseRecoveryFactor
	}
	if p.LapseEasePenalty <= 0 {
		p.LapseEasePenalty = def.LapseEasePenalty
	}
	if p.LeechThreshold <= 0 {
		p.LeechThreshold = def.LeechThreshold
	}
	if !p.LeechAction.IsValid() {
		p.LeechAction = def.LeechAction
	}
	if !p.NewItemOrder.IsValid() {
		p.NewItemOrder = def.NewItemOrder
	}
	if p.MaxIntervalDays <= 0 {
		p.MaxIntervalDays = def.MaxIntervalDays
	}
	return p
}

// Validate reports the first problem with the parameter set. Callers
// that accept user configuration should validate before constructing a
// service; withDefaults only repairs unset fields, not bad ones.
func (p Params) Validate() error {
	for i, m := range p.LearningSteps {
		if m <= 0 {
			return fmt.Errorf("learning step %d must be positive, got %d", i, m)
		}
	}
	for i, m := range p.RelearningSteps {
		if m <= 0 {
			return fmt.Errorf("relearning step %d must be positive, got %d", i, m)
		}
	}
	if p.GraduatingIntervalDays < 0 {
		return fmt.Errorf("graduating interval must not be negative, got %d", p.GraduatingIntervalDays)
	}
	if p.EasyIntervalDays < 0 {
		return fmt.Errorf("easy interval must not be negative, got %d", p.EasyIntervalDays)
	}
	if p.StartingEase < 0 || p.MinimumEase < 0 {
		return fmt.Errorf("ease values must not be negative")
	}
	if p.StartingEase > 0 && p.MinimumEase > p.StartingEase {
		return fmt.Errorf("minimum ease %.2f exceeds starting ease %.2f", p.MinimumEase, p.StartingEase)
	}
	if p.LapseEasePenalty > 1 {
		return fmt.Errorf("lapse ease penalty must be at most 1, got %.2f", p.LapseEasePenalty)
	}
	if p.LapseRecoveryFactor > 1 {
		return fmt.Errorf("lapse recovery factor must be at most 1, got %.2f", p.LapseRecoveryFactor)
	}
	if p.LeechAction != "" && !p.LeechAction.IsValid() {
		return fmt.Errorf("unknown leech action %q", p.LeechAction)
	}
	if p.NewItemOrder != "" && !p.NewItemOrder.IsValid() {
		return fmt.Errorf("unknown new item order %q", p.NewItemOrder)
	}
	if p.MaxIntervalDays < 0 {
		return fmt.Errorf("max interval must not be negative, got %d", p.MaxIntervalDays)
	}
	return nil
}
