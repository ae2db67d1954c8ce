package postgres

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
		WHERE owner_id = $1 AND scope = $2 AND day = $3`

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
	argIndex := 1

	where = append(where, fmt.Sprintf("owner_id = $%d", argIndex))
	args = append(args, find.OwnerID)
	argIndex++
	if find.Day != "" {
		where = append(where, fmt.Sprintf("day = $%d", argIndex))
		args = append(args, find.Day)
		argIndex++
	}
	if find.Scope != nil {
		where = append(where, fmt.Sprintf("scope = $%d", argIndex))
		args = append(args, *find.Scope)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT owner_id, scope, day, new_graded, reviews_done
		FROM daily_counter
		WHERE %s
		ORDER BY day DESC, scope ASC`, strings.Join(where, " AND "))

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
	query := `
		INSERT INTO daily_counter (owner_id, scope, day, new_graded, reviews_done)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, scope, day) DO UPDATE SET
			new_graded = EXCLUDED.new_graded,
			reviews_done = EXCLUDED.reviews_done`

	if _, err := d.db.ExecContext(ctx, query,
		upsert.OwnerID, upsert.Scope, upsert.Day, upsert.NewGraded, upsert.ReviewsDone,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert daily counter: %w", err)
	}

	return upsert, nil
}
