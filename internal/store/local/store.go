// SPDX-License-Identifier: Apache-2.0

// Package local is the file-backed record store used by the vqctl CLI when
// working offline. It mirrors the server repository operations on a single
// SQLite file, without workspaces.
package local

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vqtrack/vqtrack/internal/domain"
)

type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the local record store at dir/records.db.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "records.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize local store schema: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pass_records (
		id TEXT PRIMARY KEY,
		ts INTEGER NOT NULL,
		model TEXT NOT NULL,
		area TEXT NOT NULL,
		vin TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		operator_id TEXT NOT NULL DEFAULT '',
		time_slot TEXT NOT NULL DEFAULT '',
		acting_section TEXT NOT NULL DEFAULT '',
		release_note TEXT NOT NULL DEFAULT '',
		is_reinspection INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_pass_records_ts ON pass_records(ts);

	CREATE TABLE IF NOT EXISTS defect_records (
		id TEXT PRIMARY KEY,
		ts INTEGER NOT NULL,
		model TEXT NOT NULL,
		area TEXT NOT NULL,
		vin TEXT NOT NULL DEFAULT '',
		defect_type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		operator_id TEXT NOT NULL DEFAULT '',
		time_slot TEXT NOT NULL DEFAULT '',
		acting_section TEXT NOT NULL DEFAULT '',
		release_note TEXT NOT NULL DEFAULT '',
		is_reinspection INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_defect_records_ts ON defect_records(ts);

	CREATE TABLE IF NOT EXISTS downtime_records (
		id TEXT PRIMARY KEY,
		ts INTEGER NOT NULL,
		area TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		operator_id TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_downtime_records_ts ON downtime_records(ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) InsertPassRecord(rec domain.PassRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO pass_records
			(id, ts, model, area, vin, quantity, operator_id,
			 time_slot, acting_section, release_note, is_reinspection)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`,
		rec.ID.String(), rec.Timestamp, string(rec.Model), string(rec.Area),
		rec.VIN, rec.Quantity, rec.OperatorID, rec.TimeSlot,
		rec.ActingSection, rec.ReleaseNote, rec.IsReinspection,
	)
	return err
}

func (s *Store) UpdatePassRecord(rec domain.PassRecord) error {
	res, err := s.db.Exec(`
		UPDATE pass_records
		SET ts=?, model=?, area=?, vin=?, quantity=?, operator_id=?,
		    time_slot=?, acting_section=?, release_note=?, is_reinspection=?
		WHERE id=?
	`,
		rec.Timestamp, string(rec.Model), string(rec.Area), rec.VIN,
		rec.Quantity, rec.OperatorID, rec.TimeSlot, rec.ActingSection,
		rec.ReleaseNote, rec.IsReinspection, rec.ID.String(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeletePassRecord(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM pass_records WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListPassRecords() ([]domain.PassRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, ts, model, area, vin, quantity, operator_id,
		       time_slot, acting_section, release_note, is_reinspection
		FROM pass_records
		ORDER BY ts DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PassRecord, 0, 64)
	for rows.Next() {
		var rec domain.PassRecord
		var id string
		if err := rows.Scan(
			&id, &rec.Timestamp, &rec.Model, &rec.Area, &rec.VIN,
			&rec.Quantity, &rec.OperatorID, &rec.TimeSlot,
			&rec.ActingSection, &rec.ReleaseNote, &rec.IsReinspection,
		); err != nil {
			return nil, err
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt pass record id %q: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) InsertDefectRecord(rec domain.DefectRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO defect_records
			(id, ts, model, area, vin, defect_type, quantity, operator_id,
			 time_slot, acting_section, release_note, is_reinspection)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		rec.ID.String(), rec.Timestamp, string(rec.Model), string(rec.Area),
		rec.VIN, rec.DefectType, rec.Quantity, rec.OperatorID, rec.TimeSlot,
		rec.ActingSection, rec.ReleaseNote, rec.IsReinspection,
	)
	return err
}

func (s *Store) UpdateDefectRecord(rec domain.DefectRecord) error {
	res, err := s.db.Exec(`
		UPDATE defect_records
		SET ts=?, model=?, area=?, vin=?, defect_type=?, quantity=?,
		    operator_id=?, time_slot=?, acting_section=?, release_note=?,
		    is_reinspection=?
		WHERE id=?
	`,
		rec.Timestamp, string(rec.Model), string(rec.Area), rec.VIN,
		rec.DefectType, rec.Quantity, rec.OperatorID, rec.TimeSlot,
		rec.ActingSection, rec.ReleaseNote, rec.IsReinspection, rec.ID.String(),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteDefectRecord(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM defect_records WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListDefectRecords() ([]domain.DefectRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, ts, model, area, vin, defect_type, quantity, operator_id,
		       time_slot, acting_section, release_note, is_reinspection
		FROM defect_records
		ORDER BY ts DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DefectRecord, 0, 64)
	for rows.Next() {
		var rec domain.DefectRecord
		var id string
		if err := rows.Scan(
			&id, &rec.Timestamp, &rec.Model, &rec.Area, &rec.VIN,
			&rec.DefectType, &rec.Quantity, &rec.OperatorID, &rec.TimeSlot,
			&rec.ActingSection, &rec.ReleaseNote, &rec.IsReinspection,
		); err != nil {
			return nil, err
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt defect record id %q: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) InsertDowntimeRecord(rec domain.DowntimeRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO downtime_records
			(id, ts, area, start_time, end_time, duration_minutes, reason, operator_id)
		VALUES (?,?,?,?,?,?,?,?)
	`,
		rec.ID.String(), rec.Timestamp, string(rec.Area), rec.StartTime,
		rec.EndTime, rec.DurationMinutes, rec.Reason, rec.OperatorID,
	)
	return err
}

func (s *Store) DeleteDowntimeRecord(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM downtime_records WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListDowntimeRecords() ([]domain.DowntimeRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, ts, area, start_time, end_time, duration_minutes, reason, operator_id
		FROM downtime_records
		ORDER BY ts DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DowntimeRecord, 0, 16)
	for rows.Next() {
		var rec domain.DowntimeRecord
		var id string
		if err := rows.Scan(
			&id, &rec.Timestamp, &rec.Area, &rec.StartTime, &rec.EndTime,
			&rec.DurationMinutes, &rec.Reason, &rec.OperatorID,
		); err != nil {
			return nil, err
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt downtime record id %q: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ClearAll wipes every local record.
func (s *Store) ClearAll() error {
	for _, table := range []string{"pass_records", "defect_records", "downtime_records"} {
		if _, err := s.db.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
