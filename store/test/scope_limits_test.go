package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaosweasl/cognify/store"
)

func TestScopeLimitsStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	owner := "test-owner"

	// No stored row falls back to the defaults.
	got, err := ts.GetScopeLimits(ctx, &store.FindScopeLimits{OwnerID: owner, Scope: "default"})
	require.NoError(t, err)
	require.Equal(t, store.DefaultNewPerDay, got.NewPerDay)
	require.Equal(t, store.DefaultMaxReviewsPerDay, got.MaxReviewsPerDay)

	limits := &store.ScopeLimits{OwnerID: owner, Scope: "spanish", NewPerDay: 5, MaxReviewsPerDay: 50}
	_, err = ts.UpsertScopeLimits(ctx, limits)
	require.NoError(t, err)

	got, err = ts.GetScopeLimits(ctx, &store.FindScopeLimits{OwnerID: owner, Scope: "spanish"})
	require.NoError(t, err)
	require.Equal(t, 5, got.NewPerDay)
	require.Equal(t, 50, got.MaxReviewsPerDay)

	// Second read is served from the cache.
	cached, err := ts.GetScopeLimits(ctx, &store.FindScopeLimits{OwnerID: owner, Scope: "spanish"})
	require.NoError(t, err)
	require.Equal(t, got.NewPerDay, cached.NewPerDay)

	// Upserting refreshes the cached row.
	limits.NewPerDay = 8
	_, err = ts.UpsertScopeLimits(ctx, limits)
	require.NoError(t, err)

	got, err = ts.GetScopeLimits(ctx, &store.FindScopeLimits{OwnerID: owner, Scope: "spanish"})
	require.NoError(t, err)
	require.Equal(t, 8, got.NewPerDay)
}
