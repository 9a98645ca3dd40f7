package metrics

import "errors"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEvaluation forwards the record to all sinks. A failing sink does
// not stop the others; the errors are joined.
func (m *MultiSink) RecordEvaluation(rec EvaluationRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordEvaluation(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordDiagnostic forwards diagnostics to sinks that support them.
func (m *MultiSink) RecordDiagnostic(ev DiagnosticEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(DiagnosticRecorder); ok {
			if err := rec.RecordDiagnostic(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordDriveLoad forwards drive load to sinks that support it.
func (m *MultiSink) RecordDriveLoad(ev DriveLoadEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(DriveLoadRecorder); ok {
			if err := rec.RecordDriveLoad(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordBatch forwards batch summaries to sinks that support them.
func (m *MultiSink) RecordBatch(s BatchSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(BatchRecorder); ok {
			if err := rec.RecordBatch(s); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
