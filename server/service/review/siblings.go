package review

import (
	"sort"
	"time"

	"github.com/chaosweasl/cognify/store"
)

// groupIndexTTL bounds how long a built sibling index may be served
// without a rebuild.
const groupIndexTTL = 30 * time.Second

// groupIndex caches the groupKey to item-id mapping derived from the
// item collection. It is a disposable read-through view, never
// authoritative: every mutation that adds, removes, or re-groups items
// must call invalidate, and the TTL bounds how long a missed
// invalidation can serve stale groups.
type groupIndex struct {
	groups  map[string][]string
	builtAt time.Time
	ttl     time.Duration
}

func newGroupIndex() *groupIndex {
	return &groupIndex{ttl: groupIndexTTL}
}

// siblings returns the ids of every item sharing the group of id,
// excluding id itself. Items without a group key have no siblings.
func (g *groupIndex) siblings(items map[string]*store.ReviewState, id string, now time.Time) []string {
	item, ok := items[id]
	if !ok || item.GroupKey == "" {
		return nil
	}
	g.refresh(items, now)

	group := g.groups[item.GroupKey]
	if len(group) <= 1 {
		return nil
	}
	out := make([]string, 0, len(group)-1)
	for _, other := range group {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

func (g *groupIndex) refresh(items map[string]*store.ReviewState, now time.Time) {
	if g.groups != nil && now.Sub(g.builtAt) < g.ttl {
		return
	}
	groups := map[string][]string{}
	for id, item := range items {
		if item.GroupKey == "" {
			continue
		}
		groups[item.GroupKey] = append(groups[item.GroupKey], id)
	}
	for _, ids := range groups {
		sort.Strings(ids)
	}
	g.groups = groups
	g.builtAt = now
}

// invalidate discards the built index so the next read rebuilds it.
func (g *groupIndex) invalidate() {
	g.groups = nil
}
