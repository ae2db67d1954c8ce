package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/chaosweasl/cognify/store"
)

func (d *DB) UpsertReviewStates(ctx context.Context, states []*store.ReviewState) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO review_state (
			owner_id, scope, item_id, group_key, phase,
			interval_days, ease, due_ts, last_graded_ts,
			reps, lapses, step_index, is_leech, is_suspended
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (owner_id, scope, item_id) DO UPDATE SET
			group_key = EXCLUDED.group_key,
			phase = EXCLUDED.phase,
			interval_days = EXCLUDED.interval_days,
			ease = EXCLUDED.ease,
			due_ts = EXCLUDED.due_ts,
			last_graded_ts = EXCLUDED.last_graded_ts,
			reps = EXCLUDED.reps,
			lapses = EXCLUDED.lapses,
			step_index = EXCLUDED.step_index,
			is_leech = EXCLUDED.is_leech,
			is_suspended = EXCLUDED.is_suspended`

	for _, state := range states {
		if _, err := tx.ExecContext(ctx, query,
			state.OwnerID, state.Scope, state.ItemID, state.GroupKey, string(state.Phase),
			state.IntervalDays, state.Ease, timeToTs(state.Due), timeToTs(state.LastGradedAt),
			state.Reps, state.Lapses, state.StepIndex, state.IsLeech, state.IsSuspended,
		); err != nil {
			return fmt.Errorf("failed to upsert review state %s: %w", state.ItemID, err)
		}
	}

	return tx.Commit()
}

func (d *DB) ListReviewStates(ctx context.Context, find *store.FindReviewState) ([]*store.ReviewState, error) {
	where, args := []string{"1 = 1"}, []any{}
	argIndex := 1

	if find.OwnerID != nil {
		where = append(where, fmt.Sprintf("owner_id = $%d", argIndex))
		args = append(args, *find.OwnerID)
		argIndex++
	}
	if find.Scope != nil {
		where = append(where, fmt.Sprintf("scope = $%d", argIndex))
		args = append(args, *find.Scope)
		argIndex++
	}
	if find.ItemID != nil {
		where = append(where, fmt.Sprintf("item_id = $%d", argIndex))
		args = append(args, *find.ItemID)
		argIndex++
	}
	if len(find.ItemIDs) > 0 {
		holders := []string{}
		for _, itemID := range find.ItemIDs {
			holders = append(holders, fmt.Sprintf("$%d", argIndex))
			args = append(args, itemID)
			argIndex++
		}
		where = append(where, "item_id IN ("+strings.Join(holders, ", ")+")")
	}
	if find.Phase != nil {
		where = append(where, fmt.Sprintf("phase = $%d", argIndex))
		args = append(args, string(*find.Phase))
		argIndex++
	}
	if find.DueBefore != nil {
		where = append(where, fmt.Sprintf("due_ts <= $%d", argIndex))
		args = append(args, timeToTs(*find.DueBefore))
		argIndex++
	}
	if find.Suspended != nil {
		where = append(where, fmt.Sprintf("is_suspended = $%d", argIndex))
		args = append(args, *find.Suspended)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT
			owner_id, scope, item_id, group_key, phase,
			interval_days, ease, due_ts, last_graded_ts,
			reps, lapses, step_index, is_leech, is_suspended
		FROM review_state
		WHERE %s
		ORDER BY due_ts ASC, item_id ASC`, strings.Join(where, " AND "))

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review states: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ReviewState, 0)
	for rows.Next() {
		var state store.ReviewState
		var phase string
		var dueTs, lastGradedTs int64

		if err := rows.Scan(
			&state.OwnerID,
			&state.Scope,
			&state.ItemID,
			&state.GroupKey,
			&phase,
			&state.IntervalDays,
			&state.Ease,
			&dueTs,
			&lastGradedTs,
			&state.Reps,
			&state.Lapses,
			&state.StepIndex,
			&state.IsLeech,
			&state.IsSuspended,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review state: %w", err)
		}

		state.Phase = store.Phase(phase)
		state.Due = tsToTime(dueTs)
		state.LastGradedAt = tsToTime(lastGradedTs)

		list = append(list, &state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review states: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteReviewState(ctx context.Context, delete *store.DeleteReviewState) error {
	query := `DELETE FROM review_state WHERE owner_id = $1 AND scope = $2 AND item_id = $3`
	if _, err := d.db.ExecContext(ctx, query, delete.OwnerID, delete.Scope, delete.ItemID); err != nil {
		return fmt.Errorf("failed to delete review state: %w", err)
	}
	return nil
}
