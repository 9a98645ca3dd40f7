package metrics

import (
	"time"

	"github.com/kilianp07/compstation/core/model"
)

// EvaluationRecord is one station evaluation as seen by the sinks.
type EvaluationRecord struct {
	RunID           string
	StationID       string
	ConfigurationID string
	Mode            string
	Flow            float64
	Head            float64
	Feasible        bool

	// ErrorKind is empty for feasible evaluations.
	ErrorKind   model.ErrorKind
	Boundary    model.Boundary
	ShaftPower  float64
	EnergyRate  float64
	Efficiency  float64
	Diagnostics int
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records evaluation outcomes for observability purposes.
type MetricsSink interface {
	RecordEvaluation(rec EvaluationRecord) error
}

// DiagnosticEvent is a non-fatal condition attached to an evaluation.
type DiagnosticEvent struct {
	StationID       string
	ConfigurationID string
	Diagnostic      model.Diagnostic
	Time            time.Time
}

// DiagnosticRecorder records evaluation diagnostics.
type DiagnosticRecorder interface {
	RecordDiagnostic(ev DiagnosticEvent) error
}

// DriveLoadEvent is the load of one drive in a feasible evaluation.
type DriveLoadEvent struct {
	StationID       string
	ConfigurationID string
	DriveID         string
	ShaftPower      float64
	AvailablePower  float64
	EnergyRate      float64
	Time            time.Time
}

// Utilization returns ShaftPower / AvailablePower, or 0 without a limit.
func (e DriveLoadEvent) Utilization() float64 {
	if e.AvailablePower <= 0 {
		return 0
	}
	return e.ShaftPower / e.AvailablePower
}

// DriveLoadRecorder records per-drive load.
type DriveLoadRecorder interface {
	RecordDriveLoad(ev DriveLoadEvent) error
}

// BatchSummary describes a finished batch run.
type BatchSummary struct {
	RunID      string
	Total      int
	Feasible   int
	Infeasible int
	Failed     int
	Duration   time.Duration
	Time       time.Time
}

// BatchRecorder records batch run summaries.
type BatchRecorder interface {
	RecordBatch(s BatchSummary) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordEvaluation(EvaluationRecord) error { return nil }
func (NopSink) RecordDiagnostic(DiagnosticEvent) error  { return nil }
func (NopSink) RecordDriveLoad(DriveLoadEvent) error    { return nil }
func (NopSink) RecordBatch(BatchSummary) error          { return nil }
