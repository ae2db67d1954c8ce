// Package review implements the spaced-repetition study engine.
//
// Key features:
//   - SM-2 style scheduling with learning steps, lapses, and leech
//     detection
//   - Tiered next-item selection under per-scope daily quotas
//   - Sibling suppression backed by a TTL-cached group index
//   - Bounded undo of grading events
//   - Debounced background persistence with a local fallback for daily
//     counters
//
// A service owns at most one active session. The session, its item
// collection, and the derived group index are confined to the caller's
// goroutine; only the saver crosses goroutines, and it works on
// snapshots.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/chaosweasl/cognify/store"
	"github.com/chaosweasl/cognify/store/fallback"
)

// stuckLearningAfter is the due-time distance past which a learning
// item is promoted straight to review when a session opens, so a stale
// long delay cannot trap it.
const stuckLearningAfter = 15 * time.Minute

var (
	ErrNoSession     = fmt.Errorf("no active session")
	ErrSessionOpen   = fmt.Errorf("a session is already open")
	ErrNothingToUndo = fmt.Errorf("nothing to undo")
	ErrInvalidGrade  = fmt.Errorf("invalid grade")
	ErrUnknownItem   = fmt.Errorf("item not part of this session")
)

// Store abstracts the persistence operations the engine needs.
type Store interface {
	ListReviewStates(ctx context.Context, find *store.FindReviewState) ([]*store.ReviewState, error)
	UpsertReviewStates(ctx context.Context, states []*store.ReviewState) error
	GetDailyCounter(ctx context.Context, find *store.FindDailyCounter) (*store.DailyCounter, error)
	UpsertDailyCounter(ctx context.Context, upsert *store.DailyCounter) (*store.DailyCounter, error)
	GetScopeLimits(ctx context.Context, find *store.FindScopeLimits) (*store.ScopeLimits, error)
}

type service struct {
	store  Store
	fb     *fallback.Store
	params Params

	now func() time.Time
	rng *rand.Rand

	uid    string
	owner  string
	scope  string
	sess   *Session
	items  map[string]*store.ReviewState
	order  []string
	groups *groupIndex
	limits store.ScopeLimits
	saver  *saver

	// primaryUp records whether the database answered when the session
	// opened. When false, daily counters are mirrored to the fallback
	// store on every mutation.
	primaryUp bool
}

// NewService creates a review service. st may be nil for a detached
// session that studies without a database; fb, when set, keeps daily
// counters on local disk while the database is absent or unreachable.
func NewService(st *store.Store, fb *fallback.Store, params Params) Service {
	svc := &service{
		params: params.withDefaults(),
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		groups: newGroupIndex(),
	}
	if st != nil {
		svc.store = st
	}
	if fb != nil {
		svc.fb = fb
	}
	return svc
}

func (s *service) OpenSession(ctx context.Context, req *OpenSessionRequest) (*SessionStats, error) {
	if req == nil || req.OwnerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if s.sess != nil {
		return nil, ErrSessionOpen
	}
	scope := req.Scope
	if scope == "" {
		scope = DefaultScope
	}
	now := s.now()
	day := store.CounterDay(now)

	items, order, regrouped := s.loadItems(ctx, req.OwnerID, scope, req.Items)

	counters, primaryUp := s.loadCounters(ctx, req.OwnerID, scope, day)
	if primaryUp {
		counters = s.migrateFallback(ctx, req.OwnerID, scope, day, counters)
	}

	sess := NewSession(req.OwnerID, now)
	sess.SetCounters(scope, counters)

	s.uid = shortuuid.New()
	s.owner = req.OwnerID
	s.scope = scope
	s.sess = sess
	s.items = items
	s.order = order
	// The working set was just replaced, and loadItems may have
	// regrouped items; the sibling index must not serve the old groups.
	s.groups.invalidate()
	s.limits = s.loadLimits(ctx, req.OwnerID, scope)
	s.primaryUp = primaryUp
	if s.store != nil {
		s.saver = newSaver(s.store, saveDebounce)
	}

	promoted := s.promoteStuckLearning(now)
	s.seedLearningQueue()

	if s.saver != nil {
		if len(regrouped) > 0 {
			s.saver.MarkStates(regrouped...)
		}
		if len(promoted) > 0 {
			s.saver.MarkStates(promoted...)
		}
	}

	slog.Info("session opened",
		"session", s.uid,
		"owner", req.OwnerID,
		"scope", scope,
		"items", len(order),
		"promoted", len(promoted),
		"primary", primaryUp)
	return s.sessionStats(now), nil
}

func (s *service) NextItem(ctx context.Context) (*NextItemResult, error) {
	if s.sess == nil {
		return nil, ErrNoSession
	}
	now := s.now()
	s.rolloverIfNeeded(now)

	if item := selectNext(s.scope, s.orderedItems(), s.sess, s.params, s.limits, now, s.rng); item != nil {
		return &NextItemResult{Item: item}, nil
	}

	result := &NextItemResult{}
	if due, waiting := s.nextLearningDue(now); waiting {
		result.NextLearningDue = due
	} else {
		result.Complete = true
	}
	return result, nil
}

func (s *service) GradeItem(ctx context.Context, req *GradeItemRequest) (*GradeResult, error) {
	if s.sess == nil {
		return nil, ErrNoSession
	}
	if req == nil || req.ItemID == "" {
		return nil, fmt.Errorf("item id is required")
	}
	if !req.Grade.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(req.Grade))
	}
	item, ok := s.items[req.ItemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, req.ItemID)
	}
	now := s.now()
	s.rolloverIfNeeded(now)

	prior := item.Clone()
	next := NextState(item, req.Grade, s.params, now)
	s.items[req.ItemID] = next

	s.sess.NoteGraded(s.scope, prior.Phase)
	s.sess.PushUndo(UndoEntry{
		ItemID:   req.ItemID,
		Scope:    s.scope,
		Grade:    req.Grade,
		GradedAt: now,
		Prior:    prior,
	})
	if next.Phase.InSteps() && !next.IsSuspended {
		s.sess.EnqueueLearning(req.ItemID)
	} else {
		s.sess.RemoveLearning(req.ItemID)
	}

	var suppressed []string
	if s.params.BurySiblings && next.GroupKey != "" {
		suppressed = s.groups.siblings(s.items, req.ItemID, now)
		s.sess.Suppress(suppressed...)
	}

	s.persistAfterMutation(next)

	slog.Debug("item graded",
		"item", req.ItemID,
		"grade", req.Grade.String(),
		"phase", string(next.Phase),
		"due", next.Due)
	return &GradeResult{
		State:              next,
		BecameLeech:        next.IsLeech && !prior.IsLeech,
		SuppressedSiblings: suppressed,
	}, nil
}

func (s *service) UndoLast(ctx context.Context) (*UndoResult, error) {
	if s.sess == nil {
		return nil, ErrNoSession
	}
	entry, ok := s.sess.PopUndo()
	if !ok {
		return nil, ErrNothingToUndo
	}
	now := s.now()
	s.rolloverIfNeeded(now)

	restored := entry.Prior
	s.items[entry.ItemID] = restored
	s.sess.NoteUndone(entry.Scope, restored.Phase)
	if restored.Phase.InSteps() && !restored.IsSuspended {
		s.sess.EnqueueLearning(entry.ItemID)
	} else {
		s.sess.RemoveLearning(entry.ItemID)
	}
	// Sibling suppression deliberately stays: the siblings were shown
	// context for the day regardless of the grade being taken back.

	s.persistAfterMutation(restored)

	slog.Debug("grade undone", "item", entry.ItemID, "grade", entry.Grade.String())
	return &UndoResult{
		ItemID: entry.ItemID,
		Grade:  entry.Grade,
		State:  restored,
	}, nil
}

func (s *service) SessionStats(ctx context.Context) (*SessionStats, error) {
	if s.sess == nil {
		return nil, ErrNoSession
	}
	now := s.now()
	s.rolloverIfNeeded(now)
	return s.sessionStats(now), nil
}

func (s *service) CloseSession(ctx context.Context) error {
	if s.sess == nil {
		return ErrNoSession
	}
	var flushErr error
	if s.saver != nil {
		if flushErr = s.saver.Close(); flushErr != nil {
			slog.Error("final flush failed on session close", "error", flushErr)
			if s.fb != nil {
				c := s.counterSnapshot()
				counts := &fallback.Counts{Day: c.Day, Scope: c.Scope, NewGraded: c.NewGraded, ReviewsDone: c.ReviewsDone}
				if err := s.fb.Save(c.Day, c.Scope, counts); err != nil {
					slog.Error("fallback counter save failed", "error", err)
				}
			}
		}
		s.saver = nil
	}

	totals := s.sess.Totals()
	slog.Info("session closed",
		"session", s.uid,
		"owner", s.owner,
		"scope", s.scope,
		"newGraded", totals.NewGraded,
		"reviewsDone", totals.ReviewsDone)

	s.uid = ""
	s.sess = nil
	s.items = nil
	s.order = nil
	s.groups.invalidate()
	s.limits = store.ScopeLimits{}
	s.primaryUp = false
	return flushErr
}

// loadItems builds the session's working set: stored states where they
// exist, default new-item states everywhere else, with the caller's
// grouping applied on top. Load failures degrade to defaults; a study
// session must start even when the database does not answer.
func (s *service) loadItems(ctx context.Context, owner, scope string, reqItems []SessionItem) (map[string]*store.ReviewState, []string, []*store.ReviewState) {
	ids := make([]string, 0, len(reqItems))
	groupOf := make(map[string]string, len(reqItems))
	for _, it := range reqItems {
		if it.ID == "" {
			continue
		}
		if _, ok := groupOf[it.ID]; ok {
			continue
		}
		groupOf[it.ID] = it.GroupKey
		ids = append(ids, it.ID)
	}

	items := make(map[string]*store.ReviewState, len(ids))
	if s.store != nil && len(ids) > 0 {
		listed, err := s.store.ListReviewStates(ctx, &store.FindReviewState{
			OwnerID: &owner,
			Scope:   &scope,
			ItemIDs: ids,
		})
		if err != nil {
			slog.Warn("schedule load failed, starting from defaults", "error", err)
		}
		for _, st := range listed {
			items[st.ItemID] = st
		}
	}
	for _, id := range ids {
		if _, ok := items[id]; !ok {
			items[id] = store.NewReviewState(owner, scope, id)
		}
	}

	// The caller's grouping is authoritative; re-grouped items are
	// persisted and the sibling index may no longer be trusted.
	var regrouped []*store.ReviewState
	for _, id := range ids {
		if items[id].GroupKey != groupOf[id] {
			items[id].GroupKey = groupOf[id]
			regrouped = append(regrouped, items[id])
		}
	}
	return items, ids, regrouped
}

// loadCounters resolves today's counters for the scope: primary store
// first, fallback store second, zero as the last resort. The boolean
// reports whether the primary store answered.
func (s *service) loadCounters(ctx context.Context, owner, scope, day string) (ScopeCounters, bool) {
	if s.store != nil {
		counter, err := s.store.GetDailyCounter(ctx, &store.FindDailyCounter{
			OwnerID: owner,
			Day:     day,
			Scope:   &scope,
		})
		if err == nil && counter != nil {
			return ScopeCounters{NewGraded: counter.NewGraded, ReviewsDone: counter.ReviewsDone}, true
		}
		if err != nil {
			slog.Warn("daily counter load failed, trying fallback", "error", err)
		}
	}
	if s.fb != nil {
		counts, err := s.fb.Load(day, scope)
		if err != nil {
			slog.Warn("fallback counter record unreadable, starting from zero", "error", err)
		}
		if counts != nil {
			return ScopeCounters{NewGraded: counts.NewGraded, ReviewsDone: counts.ReviewsDone}, false
		}
	}
	return ScopeCounters{}, false
}

// migrateFallback folds counters accumulated in the fallback store into
// the primary store, then clears the fallback record. It only fires
// when the fallback actually holds progress for today, so an already
// migrated record cannot be counted twice.
func (s *service) migrateFallback(ctx context.Context, owner, scope, day string, current ScopeCounters) ScopeCounters {
	if s.fb == nil || s.store == nil {
		return current
	}
	counts, err := s.fb.Load(day, scope)
	if err != nil || counts == nil {
		return current
	}
	if counts.NewGraded == 0 && counts.ReviewsDone == 0 {
		return current
	}

	merged := ScopeCounters{
		NewGraded:   current.NewGraded + counts.NewGraded,
		ReviewsDone: current.ReviewsDone + counts.ReviewsDone,
	}
	_, err = s.store.UpsertDailyCounter(ctx, &store.DailyCounter{
		OwnerID:     owner,
		Scope:       scope,
		Day:         day,
		NewGraded:   merged.NewGraded,
		ReviewsDone: merged.ReviewsDone,
	})
	if err != nil {
		slog.Warn("fallback counter migration failed, keeping local record", "error", err)
		return current
	}
	if err := s.fb.Clear(day, scope); err != nil {
		slog.Warn("migrated fallback record could not be cleared", "error", err)
	}
	slog.Info("migrated fallback counters",
		"scope", scope,
		"day", day,
		"newGraded", counts.NewGraded,
		"reviewsDone", counts.ReviewsDone)
	return merged
}

func (s *service) loadLimits(ctx context.Context, owner, scope string) store.ScopeLimits {
	if s.store == nil {
		return *store.DefaultScopeLimits(owner, scope)
	}
	limits, err := s.store.GetScopeLimits(ctx, &store.FindScopeLimits{OwnerID: owner, Scope: scope})
	if err != nil || limits == nil {
		if err != nil {
			slog.Warn("scope limits load failed, using defaults", "error", err)
		}
		return *store.DefaultScopeLimits(owner, scope)
	}
	return *limits
}

// promoteStuckLearning moves learning items whose delay reaches past
// the promotion threshold straight to review. The due time is kept; the
// interval becomes the remaining wait in days.
func (s *service) promoteStuckLearning(now time.Time) []*store.ReviewState {
	var promoted []*store.ReviewState
	for _, item := range s.items {
		if !item.Phase.InSteps() || item.IsSuspended {
			continue
		}
		wait := item.Due.Sub(now)
		if wait <= stuckLearningAfter {
			continue
		}
		days := roundHalfUpDays(wait.Hours() / 24)
		if days < 1 {
			days = 1
		}
		item.Phase = store.PhaseReview
		item.IntervalDays = clampInterval(days, s.params)
		item.StepIndex = 0
		promoted = append(promoted, item)
	}
	return promoted
}

// seedLearningQueue fills the session queue with every item already in
// a learning phase, earliest due first.
func (s *service) seedLearningQueue() {
	var pending []*store.ReviewState
	for _, item := range s.items {
		if item.Phase.InSteps() && !item.IsSuspended {
			pending = append(pending, item)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Due.Equal(pending[j].Due) {
			return pending[i].ItemID < pending[j].ItemID
		}
		return pending[i].Due.Before(pending[j].Due)
	})
	for _, item := range pending {
		s.sess.EnqueueLearning(item.ItemID)
	}
}

// orderedItems returns the working set in insertion order.
func (s *service) orderedItems() []*store.ReviewState {
	out := make([]*store.ReviewState, 0, len(s.order))
	for _, id := range s.order {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func (s *service) rolloverIfNeeded(now time.Time) {
	if s.sess.Rollover(now) {
		slog.Info("calendar day rolled over, counters reset", "day", s.sess.Day())
	}
}

func (s *service) nextLearningDue(now time.Time) (time.Time, bool) {
	var earliest time.Time
	for _, item := range s.items {
		if !item.Phase.InSteps() || item.IsSuspended || !item.Due.After(now) {
			continue
		}
		if earliest.IsZero() || item.Due.Before(earliest) {
			earliest = item.Due
		}
	}
	return earliest, !earliest.IsZero()
}

func (s *service) counterSnapshot() store.DailyCounter {
	c := s.sess.Counters(s.scope)
	return store.DailyCounter{
		OwnerID:     s.owner,
		Scope:       s.scope,
		Day:         s.sess.Day(),
		NewGraded:   c.NewGraded,
		ReviewsDone: c.ReviewsDone,
	}
}

// persistAfterMutation hands the changed states and the current counter
// snapshot to the saver, and mirrors counters to the fallback store
// when the primary store was unreachable at open. Failures are logged
// and swallowed; in-memory state carries the session.
func (s *service) persistAfterMutation(states ...*store.ReviewState) {
	counter := s.counterSnapshot()
	if s.saver != nil {
		s.saver.MarkStates(states...)
		s.saver.MarkCounter(counter)
	}
	if (!s.primaryUp || s.saver == nil) && s.fb != nil {
		counts := &fallback.Counts{
			Day:         counter.Day,
			Scope:       counter.Scope,
			NewGraded:   counter.NewGraded,
			ReviewsDone: counter.ReviewsDone,
		}
		if err := s.fb.Save(counter.Day, counter.Scope, counts); err != nil {
			slog.Warn("fallback counter save failed", "error", err)
		}
	}
}
