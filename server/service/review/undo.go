package review

import (
	"time"

	"github.com/chaosweasl/cognify/store"
)

// undoCapacity is the number of grading events retained for undo. The
// product surface only ever steps back once, but the full window is
// kept so deeper undo can be added without a data-model change.
const undoCapacity = 20

// UndoEntry snapshots one grading event: the item's schedule state
// before the grade was applied, plus enough context to reverse the
// counter bookkeeping.
type UndoEntry struct {
	ItemID   string
	Scope    string
	Grade    Grade
	GradedAt time.Time
	Prior    *store.ReviewState
}

// undoRing is a fixed-capacity ring buffer of grading events. Pushing
// past capacity silently drops the oldest entry.
type undoRing struct {
	entries [undoCapacity]UndoEntry
	head    int
	size    int
}

func (r *undoRing) push(e UndoEntry) {
	r.entries[r.head] = e
	r.head = (r.head + 1) % undoCapacity
	if r.size < undoCapacity {
		r.size++
	}
}

// pop removes and returns the most recent entry.
func (r *undoRing) pop() (UndoEntry, bool) {
	if r.size == 0 {
		return UndoEntry{}, false
	}
	r.head = (r.head - 1 + undoCapacity) % undoCapacity
	e := r.entries[r.head]
	r.entries[r.head] = UndoEntry{}
	r.size--
	return e, true
}

func (r *undoRing) len() int {
	return r.size
}

func (r *undoRing) reset() {
	*r = undoRing{}
}
