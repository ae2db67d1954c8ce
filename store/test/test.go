// Package test provides a store backed by a fresh in-memory SQLite database
// for driver-level tests.
package test

import (
	"context"
	"testing"

	"github.com/chaosweasl/cognify/internal/profile"
	"github.com/chaosweasl/cognify/store"
	"github.com/chaosweasl/cognify/store/db"
)

// NewTestingStore creates a migrated store on an in-memory SQLite database.
// The store is closed when the test finishes.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(dbDriver, p)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return ts
}

func getTestingProfile(t *testing.T) *profile.Profile {
	return &profile.Profile{
		Mode:    "demo",
		Data:    t.TempDir(),
		DSN:     ":memory:",
		Driver:  "sqlite",
		Version: "test",
		Owner:   "test-owner",
	}
}
