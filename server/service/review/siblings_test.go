package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chaosweasl/cognify/store"
)

func groupedItems() map[string]*store.ReviewState {
	items := map[string]*store.ReviewState{}
	add := func(id, group string) {
		st := store.NewReviewState("owner", "default", id)
		st.GroupKey = group
		items[id] = st
	}
	add("a1", "g1")
	add("a2", "g1")
	add("a3", "g1")
	add("b1", "g2")
	add("solo", "")
	return items
}

func TestGroupIndexSiblings(t *testing.T) {
	idx := newGroupIndex()
	items := groupedItems()

	assert.Equal(t, []string{"a2", "a3"}, idx.siblings(items, "a1", testNow))
	assert.Equal(t, []string{"a1", "a3"}, idx.siblings(items, "a2", testNow))
	assert.Empty(t, idx.siblings(items, "b1", testNow), "single-member groups have no siblings")
	assert.Empty(t, idx.siblings(items, "solo", testNow))
	assert.Empty(t, idx.siblings(items, "missing", testNow))
}

func TestGroupIndexServesCachedView(t *testing.T) {
	idx := newGroupIndex()
	items := groupedItems()

	assert.Equal(t, []string{"a2", "a3"}, idx.siblings(items, "a1", testNow))

	// Mutating the collection without invalidating keeps serving the
	// built view until the TTL elapses.
	items["a4"] = &store.ReviewState{OwnerID: "owner", Scope: "default", ItemID: "a4", GroupKey: "g1", Phase: store.PhaseNew}
	assert.Equal(t, []string{"a2", "a3"}, idx.siblings(items, "a1", testNow.Add(time.Second)))

	// Past the TTL the index rebuilds on its own.
	assert.Equal(t, []string{"a2", "a3", "a4"}, idx.siblings(items, "a1", testNow.Add(groupIndexTTL+time.Second)))
}

func TestGroupIndexInvalidate(t *testing.T) {
	idx := newGroupIndex()
	items := groupedItems()

	assert.Equal(t, []string{"a2", "a3"}, idx.siblings(items, "a1", testNow))

	items["a4"] = &store.ReviewState{OwnerID: "owner", Scope: "default", ItemID: "a4", GroupKey: "g1", Phase: store.PhaseNew}
	idx.invalidate()
	assert.Equal(t, []string{"a2", "a3", "a4"}, idx.siblings(items, "a1", testNow))
}
