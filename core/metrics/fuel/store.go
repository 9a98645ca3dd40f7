// Package fuel aggregates evaluated fuel consumption per station and day.
package fuel

import "time"

// Store persists aggregated fuel records.
type Store interface {
	Add(Record) error
	Query(stationID string, start, end time.Time) ([]Record, error)
}

// Day aligns t to the start of its day in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
