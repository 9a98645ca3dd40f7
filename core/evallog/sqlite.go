package evallog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records to a SQLite database. Filter columns are
// stored next to the JSON encoded record.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS evaluations (
	id TEXT PRIMARY KEY,
	ts INTEGER NOT NULL,
	run_id TEXT,
	station_id TEXT NOT NULL,
	configuration_id TEXT NOT NULL,
	feasible INTEGER NOT NULL,
	error_kind TEXT,
	record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluations_ts ON evaluations (ts);`

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, ts, run_id, station_id, configuration_id, feasible, error_kind, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixNano(), rec.RunID, rec.StationID, rec.ConfigurationID,
		rec.Feasible, string(rec.ErrorKind), string(b))
	return err
}

// Query returns records matching q ordered by timestamp.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record FROM evaluations WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.StationID != "" {
		query += ` AND station_id = ?`
		args = append(args, q.StationID)
	}
	if q.ConfigurationID != "" {
		query += ` AND configuration_id = ?`
		args = append(args, q.ConfigurationID)
	}
	if q.ErrorKind != "" {
		query += ` AND error_kind = ?`
		args = append(args, string(q.ErrorKind))
	}
	if q.Feasible != nil {
		query += ` AND feasible = ?`
		args = append(args, *q.Feasible)
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
