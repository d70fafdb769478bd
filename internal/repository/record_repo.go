// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vqtrack/vqtrack/internal/domain"
)

// RecordRepository stores the three record collections. Every mutation also
// appends a change event in the same transaction so the feed never skips or
// duplicates a committed write.
type RecordRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRecordRepository(pool *pgxpool.Pool, logger *slog.Logger) *RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &RecordRepository{
		pool:   pool,
		logger: logger,
	}
}

func appendChange(ctx context.Context, tx pgx.Tx, workspaceID uuid.UUID, collection string, recordID uuid.UUID, op string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO change_events (id, workspace_id, collection, record_id, op)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.New(),
		workspaceID,
		collection,
		recordID,
		op,
	)
	return err
}

// ---------------- PASS RECORDS ----------------

func (r *RecordRepository) ListPassRecords(ctx context.Context) ([]domain.PassRecord, error) {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, ts, model, area, vin, quantity, operator_id,
		       time_slot, acting_section, release_note, is_reinspection
		FROM pass_records
		WHERE workspace_id=$1
		ORDER BY ts DESC
	`, workspaceID)
	if err != nil {
		r.logger.Error("list pass records query failed", "workspace_id", workspaceID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PassRecord, 0, 64)
	for rows.Next() {
		var rec domain.PassRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.Model,
			&rec.Area,
			&rec.VIN,
			&rec.Quantity,
			&rec.OperatorID,
			&rec.TimeSlot,
			&rec.ActingSection,
			&rec.ReleaseNote,
			&rec.IsReinspection,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *RecordRepository) InsertPassRecord(ctx context.Context, rec domain.PassRecord) error {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("begin tx failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO pass_records
			(id, workspace_id, ts, model, area, vin, quantity, operator_id,
			 time_slot, acting_section, release_note, is_reinspection)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		rec.ID, workspaceID, rec.Timestamp, rec.Model, rec.Area, rec.VIN,
		rec.Quantity, rec.OperatorID, rec.TimeSlot, rec.ActingSection,
		rec.ReleaseNote, rec.IsReinspection,
	); err != nil {
		r.logger.Error("insert pass record failed", "record_id", rec.ID, "error", err)
		return err
	}

	if err := appendChange(ctx, tx, workspaceID, domain.CollectionPass, rec.ID, domain.OpAdd); err != nil {
		r.logger.Error("append change event failed", "record_id", rec.ID, "error", err)
		return err
	}

	return tx.Commit(ctx)
}

func (r *RecordRepository) UpdatePassRecord(ctx context.Context, rec domain.PassRecord) error {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("begin tx failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE pass_records
		SET ts=$3, model=$4, area=$5, vin=$6, quantity=$7, operator_id=$8,
		    time_slot=$9, acting_section=$10, release_note=$11, is_reinspection=$12
		WHERE id=$1 AND workspace_id=$2
	`,
		rec.ID, workspaceID, rec.Timestamp, rec.Model, rec.Area, rec.VIN,
		rec.Quantity, rec.OperatorID, rec.TimeSlot, rec.ActingSection,
		rec.ReleaseNote, rec.IsReinspection,
	)
	if err != nil {
		r.logger.Error("update pass record failed", "record_id", rec.ID, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	if err := appendChange(ctx, tx, workspaceID, domain.CollectionPass, rec.ID, domain.OpUpdate); err != nil {
		r.logger.Error("append change event failed", "record_id", rec.ID, "error", err)
		return err
	}

	return tx.Commit(ctx)
}

func (r *RecordRepository) DeletePassRecord(ctx context.Context, id uuid.UUID) error {
	return r.deleteRecord(ctx, "pass_records", domain.CollectionPass, id)
}

// ---------------- DEFECT RECORDS ----------------

func (r *RecordRepository) ListDefectRecords(ctx context.Context) ([]domain.DefectRecord, error) {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, ts, model, area, vin, defect_type, quantity, operator_id,
		       time_slot, acting_section, release_note, is_reinspection
		FROM defect_records
		WHERE workspace_id=$1
		ORDER BY ts DESC
	`, workspaceID)
	if err != nil {
		r.logger.Error("list defect records query failed", "workspace_id", workspaceID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DefectRecord, 0, 64)
	for rows.Next() {
		var rec domain.DefectRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.Model,
			&rec.Area,
			&rec.VIN,
			&rec.DefectType,
			&rec.Quantity,
			&rec.OperatorID,
			&rec.TimeSlot,
			&rec.ActingSection,
			&rec.ReleaseNote,
			&rec.IsReinspection,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *RecordRepository) InsertDefectRecord(ctx context.Context, rec domain.DefectRecord) error {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("begin tx failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO defect_records
			(id, workspace_id, ts, model, area, vin, defect_type, quantity,
			 operator_id, time_slot, acting_section, release_note, is_reinspection)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		rec.ID, workspaceID, rec.Timestamp, rec.Model, rec.Area, rec.VIN,
		rec.DefectType, rec.Quantity, rec.OperatorID, rec.TimeSlot,
		rec.ActingSection, rec.ReleaseNote, rec.IsReinspection,
	); err != nil {
		r.logger.Error("insert defect record failed", "record_id", rec.ID, "error", err)
		return err
	}

	if err := appendChange(ctx, tx, workspaceID, domain.CollectionDefect, rec.ID, domain.OpAdd); err != nil {
		r.logger.Error("append change event failed", "record_id", rec.ID, "error", err)
		return err
	}

	return tx.Commit(ctx)
}

func (r *RecordRepository) UpdateDefectRecord(ctx context.Context, rec domain.DefectRecord) error {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("begin tx failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE defect_records
		SET ts=$3, model=$4, area=$5, vin=$6, defect_type=$7, quantity=$8,
		    operator_id=$9, time_slot=$10, acting_section=$11, release_note=$12,
		    is_reinspection=$13
		WHERE id=$1 AND workspace_id=$2
	`,
		rec.ID, workspaceID, rec.Timestamp, rec.Model, rec.Area, rec.VIN,
		rec.DefectType, rec.Quantity, rec.OperatorID, rec.TimeSlot,
		rec.ActingSection, rec.ReleaseNote, rec.IsReinspection,
	)
	if err != nil {
		r.logger.Error("update defect record failed", "record_id", rec.ID, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	if err := appendChange(ctx, tx, workspaceID, domain.CollectionDefect, rec.ID, domain.OpUpdate); err != nil {
		r.logger.Error("append change event failed", "record_id", rec.ID, "error", err)
		return err
	}

	return tx.Commit(ctx)
}

func (r *RecordRepository) DeleteDefectRecord(ctx context.Context, id uuid.UUID) error {
	return r.deleteRecord(ctx, "defect_records", domain.CollectionDefect, id)
}

// ---------------- DOWNTIME RECORDS ----------------

func (r *RecordRepository) ListDowntimeRecords(ctx context.Context) ([]domain.DowntimeRecord, error) {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, ts, area, start_time, end_time, duration_minutes, reason, operator_id
		FROM downtime_records
		WHERE workspace_id=$1
		ORDER BY ts DESC
	`, workspaceID)
	if err != nil {
		r.logger.Error("list downtime records query failed", "workspace_id", workspaceID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DowntimeRecord, 0, 16)
	for rows.Next() {
		var rec domain.DowntimeRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.Area,
			&rec.StartTime,
			&rec.EndTime,
			&rec.DurationMinutes,
			&rec.Reason,
			&rec.OperatorID,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *RecordRepository) InsertDowntimeRecord(ctx context.Context, rec domain.DowntimeRecord) error {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("begin tx failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO downtime_records
			(id, workspace_id, ts, area, start_time, end_time, duration_minutes, reason, operator_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		rec.ID, workspaceID, rec.Timestamp, rec.Area, rec.StartTime,
		rec.EndTime, rec.DurationMinutes, rec.Reason, rec.OperatorID,
	); err != nil {
		r.logger.Error("insert downtime record failed", "record_id", rec.ID, "error", err)
		return err
	}

	if err := appendChange(ctx, tx, workspaceID, domain.CollectionDowntime, rec.ID, domain.OpAdd); err != nil {
		r.logger.Error("append change event failed", "record_id", rec.ID, "error", err)
		return err
	}

	return tx.Commit(ctx)
}

func (r *RecordRepository) DeleteDowntimeRecord(ctx context.Context, id uuid.UUID) error {
	return r.deleteRecord(ctx, "downtime_records", domain.CollectionDowntime, id)
}

// ---------------- SHARED ----------------

func (r *RecordRepository) deleteRecord(ctx context.Context, table, collection string, id uuid.UUID) error {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("begin tx failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM `+table+` WHERE id=$1 AND workspace_id=$2`,
		id, workspaceID,
	)
	if err != nil {
		r.logger.Error("delete record failed", "collection", collection, "record_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	if err := appendChange(ctx, tx, workspaceID, collection, id, domain.OpRemove); err != nil {
		r.logger.Error("append change event failed", "record_id", id, "error", err)
		return err
	}

	return tx.Commit(ctx)
}

// ClearAll wipes every record in the workspace and emits one clear event per
// collection so subscribers drop their caches instead of replaying removes.
func (r *RecordRepository) ClearAll(ctx context.Context) error {
	workspaceID, err := workspaceIDFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("begin tx failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"pass_records", "defect_records", "downtime_records"} {
		if _, err := tx.Exec(ctx,
			`DELETE FROM `+table+` WHERE workspace_id=$1`,
			workspaceID,
		); err != nil {
			r.logger.Error("clear collection failed", "table", table, "error", err)
			return err
		}
	}

	for _, collection := range []string{domain.CollectionPass, domain.CollectionDefect, domain.CollectionDowntime} {
		if err := appendChange(ctx, tx, workspaceID, collection, uuid.Nil, domain.OpClear); err != nil {
			r.logger.Error("append change event failed", "collection", collection, "error", err)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("commit clear failed", "workspace_id", workspaceID, "error", err)
		return err
	}

	r.logger.Info("workspace cleared", "workspace_id", workspaceID)
	return nil
}
