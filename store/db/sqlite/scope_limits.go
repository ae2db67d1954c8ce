package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chaosweasl/cognify/store"
)

func (d *DB) GetScopeLimits(ctx context.Context, find *store.FindScopeLimits) (*store.ScopeLimits, error) {
	query := `
		SELECT owner_id, scope, new_per_day, max_reviews_per_day
		FROM scope_limits
		WHERE owner_id = ? AND scope = ?`

	var limits store.ScopeLimits
	err := d.db.QueryRowContext(ctx, query, find.OwnerID, find.Scope).Scan(
		&limits.OwnerID,
		&limits.Scope,
		&limits.NewPerDay,
		&limits.MaxReviewsPerDay,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scope limits: %w", err)
	}
	return &limits, nil
}

func (d *DB) UpsertScopeLimits(ctx context.Context, upsert *store.ScopeLimits) (*store.ScopeLimits, error) {
	stmt := `
		INSERT INTO scope_limits (owner_id, scope, new_per_day, max_reviews_per_day)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (owner_id, scope) DO UPDATE SET
			new_per_day = EXCLUDED.new_per_day,
			max_reviews_per_day = EXCLUDED.max_reviews_per_day`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.OwnerID, upsert.Scope, upsert.NewPerDay, upsert.MaxReviewsPerDay,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert scope limits: %w", err)
	}

	return upsert, nil
}
