package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	corehistory "github.com/kilianp07/stintplan/core/history"
)

// SQLiteStore persists runs to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS plan_runs (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        race_start INTEGER,
        mode TEXT,
        status TEXT,
        record TEXT
    );`,
		`CREATE TABLE IF NOT EXISTS plan_participants (
        run_id TEXT,
        name TEXT,
        PRIMARY KEY (run_id, name)
    );`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record and its participant index in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, rec corehistory.RunRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plan_runs (id, ts, race_start, mode, status, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixNano(), rec.RaceStart.Unix(), rec.Mode, rec.Status, string(b)); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, a := range rec.Schedule {
		for _, name := range []string{a.Driver, a.Spotter} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO plan_participants (run_id, name) VALUES (?, ?)`, rec.ID, name); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Query returns records matching q ordered by timestamp.
func (s *SQLiteStore) Query(ctx context.Context, q corehistory.RunQuery) ([]corehistory.RunRecord, error) {
	var args []any
	query := `SELECT record FROM plan_runs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Participant != "" {
		query += ` AND id IN (SELECT run_id FROM plan_participants WHERE name = ?)`
		args = append(args, q.Participant)
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []corehistory.RunRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r corehistory.RunRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
