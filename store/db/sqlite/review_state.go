package sqlite

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

	stmt := `
		INSERT INTO review_state (
			owner_id, scope, item_id, group_key, phase,
			interval_days, ease, due_ts, last_graded_ts,
			reps, lapses, step_index, is_leech, is_suspended
		)
		VALUES (` + placeholders(14) + `)
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
		if _, err := tx.ExecContext(ctx, stmt,
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

	if v := find.OwnerID; v != nil {
		where, args = append(where, "review_state.owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Scope; v != nil {
		where, args = append(where, "review_state.scope = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ItemID; v != nil {
		where, args = append(where, "review_state.item_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ItemIDs; len(v) > 0 {
		holders := []string{}
		for _, itemID := range v {
			holders = append(holders, placeholder(len(args)+1))
			args = append(args, itemID)
		}
		where = append(where, "review_state.item_id IN ("+strings.Join(holders, ", ")+")")
	}
	if v := find.Phase; v != nil {
		where, args = append(where, "review_state.phase = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.DueBefore; v != nil {
		where, args = append(where, "review_state.due_ts <= "+placeholder(len(args)+1)), append(args, timeToTs(*v))
	}
	if v := find.Suspended; v != nil {
		where, args = append(where, "review_state.is_suspended = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			owner_id, scope, item_id, group_key, phase,
			interval_days, ease, due_ts, last_graded_ts,
			reps, lapses, step_index, is_leech, is_suspended
		FROM review_state
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY review_state.due_ts ASC, review_state.item_id ASC`

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
	stmt := `DELETE FROM review_state WHERE owner_id = ? AND scope = ? AND item_id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, delete.OwnerID, delete.Scope, delete.ItemID); err != nil {
		return fmt.Errorf("failed to delete review state: %w", err)
	}
	return nil
}
