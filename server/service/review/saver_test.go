package review

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaosweasl/cognify/store"
)

type mockSaverStore struct {
	mu           sync.Mutex
	states       map[string]*store.ReviewState
	counters     map[string]*store.DailyCounter
	stateBatches int
	failures     int
}

func newMockSaverStore() *mockSaverStore {
	return &mockSaverStore{
		states:   map[string]*store.ReviewState{},
		counters: map[string]*store.DailyCounter{},
	}
}

func (m *mockSaverStore) UpsertReviewStates(ctx context.Context, states []*store.ReviewState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return fmt.Errorf("database unavailable")
	}
	m.stateBatches++
	for _, st := range states {
		m.states[st.ItemID] = st
	}
	return nil
}

func (m *mockSaverStore) UpsertDailyCounter(ctx context.Context, upsert *store.DailyCounter) (*store.DailyCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[upsert.Scope+"/"+upsert.Day] = upsert
	return upsert, nil
}

func (m *mockSaverStore) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateBatches
}

func (m *mockSaverStore) state(id string) *store.ReviewState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestSaverDebouncesBursts(t *testing.T) {
	mock := newMockSaverStore()
	s := newSaver(mock, 50*time.Millisecond)
	defer s.Close()

	for i := 0; i < 10; i++ {
		st := store.NewReviewState("owner", "default", fmt.Sprintf("item-%d", i))
		s.MarkStates(st)
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, func() bool { return mock.batchCount() > 0 })
	assert.Equal(t, 1, mock.batchCount(), "a burst of marks coalesces into one write")
	assert.NotNil(t, mock.state("item-9"))
}

func TestSaverCloseFlushesPending(t *testing.T) {
	mock := newMockSaverStore()
	s := newSaver(mock, time.Hour) // debounce never fires on its own

	s.MarkStates(store.NewReviewState("owner", "default", "item-1"))
	s.MarkCounter(store.DailyCounter{OwnerID: "owner", Scope: "default", Day: "2024-03-01", NewGraded: 1})

	require.NoError(t, s.Close())
	assert.NotNil(t, mock.state("item-1"))
	assert.NotNil(t, mock.counters["default/2024-03-01"])
}

func TestSaverRetriesFailedFlush(t *testing.T) {
	mock := newMockSaverStore()
	mock.failures = 1
	s := newSaver(mock, 20*time.Millisecond)

	s.MarkStates(store.NewReviewState("owner", "default", "item-1"))
	waitFor(t, func() bool {
		mock.mu.Lock()
		defer mock.mu.Unlock()
		return mock.failures == 0
	})

	// The failed payload is retained and lands with the final flush.
	require.NoError(t, s.Close())
	assert.NotNil(t, mock.state("item-1"))
}

func TestSaverSnapshotsStates(t *testing.T) {
	mock := newMockSaverStore()
	s := newSaver(mock, time.Hour)

	st := store.NewReviewState("owner", "default", "item-1")
	s.MarkStates(st)
	st.Phase = store.PhaseReview // session keeps mutating after the mark

	require.NoError(t, s.Close())
	got := mock.state("item-1")
	require.NotNil(t, got)
	assert.Equal(t, store.PhaseNew, got.Phase, "flush writes the state as of the mark")
}

func TestSaverNewestMarkWins(t *testing.T) {
	mock := newMockSaverStore()
	s := newSaver(mock, time.Hour)

	first := store.NewReviewState("owner", "default", "item-1")
	s.MarkStates(first)

	second := store.NewReviewState("owner", "default", "item-1")
	second.Phase = store.PhaseLearning
	second.Reps = 1
	s.MarkStates(second)

	require.NoError(t, s.Close())
	got := mock.state("item-1")
	require.NotNil(t, got)
	assert.Equal(t, store.PhaseLearning, got.Phase)
	assert.Equal(t, 1, mock.batchCount())
}
