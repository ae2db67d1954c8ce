package review

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chaosweasl/cognify/store"
)

const (
	// saveDebounce is the quiet period mutations are coalesced over
	// before a flush is issued.
	saveDebounce = 1 * time.Second
	// saveTimeout bounds a single flush attempt so a dead database
	// cannot grow the dirty set without bound.
	saveTimeout = 5 * time.Second
)

// saverStore is the slice of the store the saver writes through.
type saverStore interface {
	UpsertReviewStates(ctx context.Context, states []*store.ReviewState) error
	UpsertDailyCounter(ctx context.Context, upsert *store.DailyCounter) (*store.DailyCounter, error)
}

// saver coalesces schedule and counter writes behind a debounce window
// and flushes them from a background goroutine, keeping the review loop
// free of database round-trips. A failed flush logs, keeps its payload,
// and is retried on the next mutation or on Close; in-memory session
// state stays the source of truth throughout.
type saver struct {
	store    saverStore
	debounce time.Duration

	mu       sync.Mutex
	states   map[string]*store.ReviewState
	counters map[string]*store.DailyCounter

	kick   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSaver(st saverStore, debounce time.Duration) *saver {
	if debounce <= 0 {
		debounce = saveDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &saver{
		store:    st,
		debounce: debounce,
		states:   map[string]*store.ReviewState{},
		counters: map[string]*store.DailyCounter{},
		kick:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

// MarkStates queues schedule states for the next flush. States are
// cloned at the call site so later session mutations cannot leak into
// an in-flight write.
func (s *saver) MarkStates(states ...*store.ReviewState) {
	if len(states) == 0 {
		return
	}
	s.mu.Lock()
	for _, st := range states {
		s.states[st.Scope+"/"+st.ItemID] = st.Clone()
	}
	s.mu.Unlock()
	s.poke()
}

// MarkCounter queues a daily counter snapshot for the next flush.
func (s *saver) MarkCounter(c store.DailyCounter) {
	s.mu.Lock()
	s.counters[c.Scope+"/"+c.Day] = &c
	s.mu.Unlock()
	s.poke()
}

func (s *saver) poke() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *saver) loop() {
	defer s.wg.Done()

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.debounce)
		case <-timer.C:
			if err := s.flush(); err != nil {
				slog.Warn("review state flush failed, will retry", "error", err)
			}
		}
	}
}

// flush writes the dirty set out. On failure the payload is folded back
// into the dirty set, newest entries winning, so nothing is lost.
func (s *saver) flush() error {
	s.mu.Lock()
	states := s.states
	counters := s.counters
	s.states = map[string]*store.ReviewState{}
	s.counters = map[string]*store.DailyCounter{}
	s.mu.Unlock()

	if len(states) == 0 && len(counters) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err := s.write(ctx, states, counters)
	if err != nil {
		s.mu.Lock()
		for k, v := range states {
			if _, ok := s.states[k]; !ok {
				s.states[k] = v
			}
		}
		for k, v := range counters {
			if _, ok := s.counters[k]; !ok {
				s.counters[k] = v
			}
		}
		s.mu.Unlock()
	}
	return err
}

func (s *saver) write(ctx context.Context, states map[string]*store.ReviewState, counters map[string]*store.DailyCounter) error {
	if len(states) > 0 {
		batch := make([]*store.ReviewState, 0, len(states))
		for _, st := range states {
			batch = append(batch, st)
		}
		if err := s.store.UpsertReviewStates(ctx, batch); err != nil {
			return err
		}
	}
	for _, c := range counters {
		if _, err := s.store.UpsertDailyCounter(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the background loop and synchronously flushes whatever
// is still dirty.
func (s *saver) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.flush()
}
