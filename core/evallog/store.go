// Package evallog archives station evaluations so past nominations can be
// audited and replayed. Two backends exist: rotating JSONL files and SQLite.
package evallog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/station"
)

// Record is one archived evaluation. Result is nil for failed evaluations.
type Record struct {
	ID              string          `json:"id"`
	RunID           string          `json:"run_id,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	StationID       string          `json:"station_id"`
	ConfigurationID string          `json:"configuration_id"`
	Request         station.Request `json:"request"`
	Feasible        bool            `json:"feasible"`
	ErrorKind       model.ErrorKind `json:"error_kind,omitempty"`
	Boundary        model.Boundary  `json:"boundary,omitempty"`
	Error           string          `json:"error,omitempty"`
	Result          *station.Result `json:"result,omitempty"`
	DurationMS      float64         `json:"duration_ms"`
}

// NewRecord builds the archive record of one evaluation.
func NewRecord(runID, stationID string, req station.Request, res *station.Result, err error, d time.Duration) Record {
	rec := Record{
		ID:              uuid.NewString(),
		RunID:           runID,
		Timestamp:       time.Now().UTC(),
		StationID:       stationID,
		ConfigurationID: req.ConfigurationID,
		Request:         req,
		Feasible:        err == nil,
		Result:          res,
		DurationMS:      float64(d) / float64(time.Millisecond),
	}
	if err != nil {
		rec.Result = nil
		rec.ErrorKind = model.Classify(err)
		rec.Boundary, _ = model.BoundaryOf(err)
		rec.Error = err.Error()
	}
	return rec
}

// Query filters archived records. Zero fields match everything.
type Query struct {
	Start           time.Time
	End             time.Time
	RunID           string
	StationID       string
	ConfigurationID string
	ErrorKind       model.ErrorKind

	// Feasible restricts to feasible (true) or failed (false) evaluations.
	Feasible *bool
}

func (q Query) match(r Record) bool {
	switch {
	case !q.Start.IsZero() && r.Timestamp.Before(q.Start):
		return false
	case !q.End.IsZero() && r.Timestamp.After(q.End):
		return false
	case q.RunID != "" && r.RunID != q.RunID:
		return false
	case q.StationID != "" && r.StationID != q.StationID:
		return false
	case q.ConfigurationID != "" && r.ConfigurationID != q.ConfigurationID:
		return false
	case q.ErrorKind != "" && r.ErrorKind != q.ErrorKind:
		return false
	case q.Feasible != nil && r.Feasible != *q.Feasible:
		return false
	}
	return true
}

// Store persists evaluation records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
