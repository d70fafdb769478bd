// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vqtrack/vqtrack/internal/domain"
)

type ChangeRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewChangeRepository(pool *pgxpool.Pool, logger *slog.Logger) *ChangeRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChangeRepository{
		pool:   pool,
		logger: logger,
	}
}

// ListChangesAfter returns the workspace change events with seq greater than
// afterSeq, oldest first. Seq is assigned at commit, so a resumed subscriber
// replays exactly the mutations it missed.
func (r *ChangeRepository) ListChangesAfter(ctx context.Context, afterSeq int64) ([]domain.ChangeEvent, error) {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		r.logger.Warn("list changes denied: missing workspace id", "error", err)
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, seq, workspace_id, collection, record_id, op, created_at
		FROM change_events
		WHERE workspace_id=$1
		  AND seq > $2
		ORDER BY seq ASC
	`,
		workspaceID,
		afterSeq,
	)
	if err != nil {
		r.logger.Error("list changes query failed",
			"workspace_id", workspaceID,
			"error", err,
		)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0, 8)
	for rows.Next() {
		var ev domain.ChangeEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.Seq,
			&ev.WorkspaceID,
			&ev.Collection,
			&ev.RecordID,
			&ev.Op,
			&ev.CreatedAt,
		); err != nil {
			r.logger.Error("scan change row failed",
				"workspace_id", workspaceID,
				"error", err,
			)
			return nil, err
		}
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("changes rows iteration failed",
			"workspace_id", workspaceID,
			"error", err,
		)
		return nil, err
	}

	return out, nil
}

// ResolveCursorByEventID maps an event id back to its seq for clients that
// resume with the last event id they saw instead of a numeric cursor.
func (r *ChangeRepository) ResolveCursorByEventID(ctx context.Context, eventID uuid.UUID) (int64, error) {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		r.logger.Warn("resolve cursor denied: missing workspace id", "error", err)
		return 0, err
	}

	var seq int64
	if err := r.pool.QueryRow(ctx, `
		SELECT seq
		FROM change_events
		WHERE id=$1
		  AND workspace_id=$2
	`,
		eventID,
		workspaceID,
	).Scan(&seq); err != nil {
		r.logger.Error("resolve change cursor failed",
			"event_id", eventID,
			"workspace_id", workspaceID,
			"error", err,
		)
		return 0, err
	}

	return seq, nil
}
