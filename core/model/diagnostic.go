package model

import "fmt"

// DiagnosticKind names a non-fatal condition noticed during an evaluation.
type DiagnosticKind string

const (
	// DiagnosticEfficiencyClamped marks an efficiency outside (0, 1] that was
	// clamped.
	DiagnosticEfficiencyClamped DiagnosticKind = "efficiency_clamped"
	// DiagnosticTableExtrapolation marks a measurement table query outside the
	// measured range that was answered with the nearest endpoint.
	DiagnosticTableExtrapolation DiagnosticKind = "measurement_table_extrapolation"
	// DiagnosticDiagramExtrapolation marks a characteristic diagram query
	// outside the sampled curves.
	DiagnosticDiagramExtrapolation DiagnosticKind = "diagram_extrapolation"
	// DiagnosticDriveSpeedMismatch marks a unit solved at a speed other than
	// the one its shared drive is charged at.
	DiagnosticDriveSpeedMismatch DiagnosticKind = "drive_speed_mismatch"
)

// Diagnostic is attached to a result; it never fails an evaluation.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Subject string         `json:"subject"`

	// Value is the offending input and Bound the value used instead.
	Value float64 `json:"value"`
	Bound float64 `json:"bound"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (value %g, used %g)", d.Subject, d.Kind, d.Value, d.Bound)
}
