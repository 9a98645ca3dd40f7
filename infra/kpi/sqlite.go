// Package kpi persists daily fuel aggregates.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/compstation/core/metrics/fuel"
)

// SQLiteStore persists fuel records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS fuel_kpi (
        station_id TEXT,
        day INTEGER,
        evaluations INTEGER,
        shaft_power REAL,
        energy_rate REAL,
        PRIMARY KEY(station_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add merges r into the row of its station and day. A zero Evaluations
// count is taken as one evaluation.
func (s *SQLiteStore) Add(r fuel.Record) error {
	n := r.Evaluations
	if n == 0 {
		n = 1
	}
	_, err := s.db.Exec(`INSERT INTO fuel_kpi (station_id, day, evaluations, shaft_power, energy_rate)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(station_id, day) DO UPDATE SET
            evaluations = evaluations + excluded.evaluations,
            shaft_power = shaft_power + excluded.shaft_power,
            energy_rate = energy_rate + excluded.energy_rate`,
		r.StationID, fuel.Day(r.Date).Unix(), n, r.ShaftPower, r.EnergyRate)
	return err
}

// Query returns the station's records in the range [start,end].
func (s *SQLiteStore) Query(stationID string, start, end time.Time) ([]fuel.Record, error) {
	rows, err := s.db.Query(`SELECT station_id, day, evaluations, shaft_power, energy_rate
        FROM fuel_kpi WHERE station_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		stationID, fuel.Day(start).Unix(), fuel.Day(end).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []fuel.Record
	for rows.Next() {
		var r fuel.Record
		var ts int64
		if err := rows.Scan(&r.StationID, &ts, &r.Evaluations, &r.ShaftPower, &r.EnergyRate); err != nil {
			return nil, err
		}
		r.Date = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
