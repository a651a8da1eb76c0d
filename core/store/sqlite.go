package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/hems/core/model"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS component_steps (
        run_id TEXT NOT NULL,
        step INTEGER NOT NULL,
        ts INTEGER,
        component TEXT NOT NULL,
        power REAL,
        soc REAL,
        sod REAL,
        replacement INTEGER,
        PRIMARY KEY (run_id, component, step)
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the records in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, recs ...model.StepRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO component_steps (run_id, step, ts, component, power, soc, sod, replacement)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, r.RunID, r.Step, r.Time.UnixNano(), r.Component,
			r.Power, r.StateOfCharge, r.StateOfDestruction, r.Replacement); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query returns records matching q ordered by run and step.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]model.StepRecord, error) {
	var args []any
	query := `SELECT run_id, step, ts, component, power, soc, sod, replacement FROM component_steps WHERE step >= ?`
	args = append(args, q.FromStep)
	if q.ToStep >= 0 {
		query += ` AND step <= ?`
		args = append(args, q.ToStep)
	}
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.Component != "" {
		query += ` AND component = ?`
		args = append(args, q.Component)
	}
	if q.ReplacementsOnly {
		query += ` AND replacement = 1`
	}
	query += ` ORDER BY run_id, step, component`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.StepRecord
	for rows.Next() {
		var r model.StepRecord
		var ts int64
		if err := rows.Scan(&r.RunID, &r.Step, &ts, &r.Component, &r.Power,
			&r.StateOfCharge, &r.StateOfDestruction, &r.Replacement); err != nil {
			return nil, err
		}
		r.Time = time.Unix(0, ts).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
