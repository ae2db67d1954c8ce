package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/chaosweasl/cognify/store"
)

func (d *DB) GetDailyCounter(ctx context.Context, find *store.FindDailyCounter) (*store.DailyCounter, error) {
	scope := ""
	if find.Scope != nil {
		scope = *find.Scope
	}

	query := `
		SELECT owner_id, scope, day, new_graded, reviews_done
		FROM daily_counter
		WHERE owner_id = ? AND scope = ? AND day = ?`

	var counter store.DailyCounter
	err := d.db.QueryRowContext(ctx, query, find.OwnerID, scope, find.Day).Scan(
		&counter.OwnerID,
		&counter.Scope,
		&counter.Day,
		&counter.NewGraded,
		&counter.ReviewsDone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily counter: %w", err)
	}
	return &counter, nil
}

func (d *DB) ListDailyCounters(ctx context.Context, find *store.FindDailyCounter) ([]*store.DailyCounter, error) {
	where, args := []string{"1 = 1"}, []any{}

	where, args = append(where, "daily_counter.owner_id = "+placeholder(len(args)+1)), append(args, find.OwnerID)
	if find.Day != "" {
		where, args = append(where, "daily_counter.day = "+placeholder(len(args)+1)), append(args, find.Day)
	}
	if v := find.Scope; v != nil {
		where, args = append(where, "daily_counter.scope = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT owner_id, scope, day, new_graded, reviews_done
		FROM daily_counter
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY daily_counter.day DESC, daily_counter.scope ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counters: %w", err)
	}
	defer rows.Close()

	list := make([]*store.DailyCounter, 0)
	for rows.Next() {
		var counter store.DailyCounter
		if err := rows.Scan(
			&counter.OwnerID,
			&counter.Scope,
			&counter.Day,
			&counter.NewGraded,
			&counter.ReviewsDone,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily counter: %w", err)
		}
		list = append(list, &counter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily counters: %w", err)
	}

	return list, nil
}

func (d *DB) UpsertDailyCounter(ctx context.Context, upsert *store.DailyCounter) (*store.DailyCounter, error) {
	stmt := `
		INSERT INTO daily_counter (owner_id, scope, day, new_graded, reviews_done)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (owner_id, scope, day) DO UPDATE SET
			new_graded = EXCLUDED.new_graded,
			reviews_done = EXCLUDED.reviews_done`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.OwnerID, upsert.Scope, upsert.Day, upsert.NewGraded, upsert.ReviewsDone,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert daily counter: %w", err)
	}

	return upsert, nil
}
