package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSpeedOutOfRange is returned when a speed lies outside the unit's
	// admissible range or no admissible speed reaches a target head.
	ErrSpeedOutOfRange = errors.New("speed out of range")
	// ErrOperatingPointInfeasible is returned when an operating point violates
	// an envelope boundary.
	ErrOperatingPointInfeasible = errors.New("operating point infeasible")
	// ErrPowerExceedsMaximum is returned when a drive cannot deliver the
	// requested shaft power.
	ErrPowerExceedsMaximum = errors.New("power exceeds maximum")
	// ErrUnknownConfiguration is returned for a configuration id absent from
	// the station.
	ErrUnknownConfiguration = errors.New("unknown configuration")
	// ErrUnresolvedCompressorReference is returned when a configuration names
	// a compressor the station does not have.
	ErrUnresolvedCompressorReference = errors.New("unresolved compressor reference")
	// ErrRootFindDidNotConverge is returned when the speed search spends its
	// iteration budget without meeting the head tolerance.
	ErrRootFindDidNotConverge = errors.New("root find did not converge")
	// ErrInvalidStation wraps every structural defect found by NewStation.
	ErrInvalidStation = errors.New("invalid station")
	// ErrInvalidRequest is returned for malformed evaluation requests.
	ErrInvalidRequest = errors.New("invalid request")
)

// Boundary identifies the envelope limit an operating point violates.
type Boundary string

const (
	BoundarySurge            Boundary = "surge"
	BoundaryChoke            Boundary = "choke"
	BoundaryCompressionRatio Boundary = "compression_ratio"
	BoundaryTorque           Boundary = "torque"
	BoundaryCapacity         Boundary = "capacity"
	BoundaryHead             Boundary = "head"
)

// SpeedError reports a speed outside [Min, Max]. When the error comes from a
// speed search, Speed is NaN and TargetHead holds the head that could not be
// reached.
type SpeedError struct {
	CompressorID string
	Speed        float64
	Min          float64
	Max          float64
	TargetHead   float64
}

func (e *SpeedError) Error() string {
	if math.IsNaN(e.Speed) {
		return fmt.Sprintf("compressor %s: no speed in [%g, %g] reaches head %g: %v",
			e.CompressorID, e.Min, e.Max, e.TargetHead, ErrSpeedOutOfRange)
	}
	return fmt.Sprintf("compressor %s: speed %g outside [%g, %g]: %v",
		e.CompressorID, e.Speed, e.Min, e.Max, ErrSpeedOutOfRange)
}

func (e *SpeedError) Unwrap() error { return ErrSpeedOutOfRange }

// InfeasibleError reports the violated boundary. Value is the quantity
// checked at the operating point and Limit the boundary value it crossed.
type InfeasibleError struct {
	CompressorID string
	Boundary     Boundary
	Speed        float64
	Flow         float64
	Value        float64
	Limit        float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("compressor %s at speed %g, flow %g: %s boundary violated (%g vs limit %g): %v",
		e.CompressorID, e.Speed, e.Flow, e.Boundary, e.Value, e.Limit, ErrOperatingPointInfeasible)
}

func (e *InfeasibleError) Unwrap() error { return ErrOperatingPointInfeasible }

// PowerError reports a drive asked for more than its available power.
type PowerError struct {
	DriveID   string
	Requested float64
	Available float64
	Speed     float64
}

func (e *PowerError) Error() string {
	return fmt.Sprintf("drive %s at speed %g: requested %g kW, available %g kW: %v",
		e.DriveID, e.Speed, e.Requested, e.Available, ErrPowerExceedsMaximum)
}

func (e *PowerError) Unwrap() error { return ErrPowerExceedsMaximum }

// UnitError locates a unit failure inside a configuration. Stage is the
// stage number and Unit the zero-based slot within the stage.
type UnitError struct {
	Stage        int
	Unit         int
	CompressorID string
	Err          error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("stage %d unit %d (%s): %v", e.Stage, e.Unit, e.CompressorID, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// ErrorKind is a stable classification used when errors cross a process
// boundary (MQTT replies, metrics labels, archives).
type ErrorKind string

const (
	KindNone                          ErrorKind = ""
	KindSpeedOutOfRange               ErrorKind = "speed_out_of_range"
	KindOperatingPointInfeasible      ErrorKind = "operating_point_infeasible"
	KindPowerExceedsMaximum           ErrorKind = "power_exceeds_maximum"
	KindUnknownConfiguration          ErrorKind = "unknown_configuration"
	KindUnresolvedCompressorReference ErrorKind = "unresolved_compressor_reference"
	KindRootFindDidNotConverge        ErrorKind = "root_find_did_not_converge"
	KindInvalidStation                ErrorKind = "invalid_station"
	KindInvalidRequest                ErrorKind = "invalid_request"
	KindInternal                      ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrSpeedOutOfRange, KindSpeedOutOfRange},
	{ErrOperatingPointInfeasible, KindOperatingPointInfeasible},
	{ErrPowerExceedsMaximum, KindPowerExceedsMaximum},
	{ErrUnknownConfiguration, KindUnknownConfiguration},
	{ErrUnresolvedCompressorReference, KindUnresolvedCompressorReference},
	{ErrRootFindDidNotConverge, KindRootFindDidNotConverge},
	{ErrInvalidStation, KindInvalidStation},
	{ErrInvalidRequest, KindInvalidRequest},
}

// Classify maps err to its ErrorKind. Errors outside the taxonomy are
// KindInternal.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// BoundaryOf returns the violated boundary carried by err, if any.
func BoundaryOf(err error) (Boundary, bool) {
	var ie *InfeasibleError
	if errors.As(err, &ie) {
		return ie.Boundary, true
	}
	return "", false
}

// Infeasible reports whether err means the request lies outside what the
// units and drives can deliver, as opposed to a malformed request or an
// engine fault.
func Infeasible(err error) bool {
	switch Classify(err) {
	case KindSpeedOutOfRange, KindOperatingPointInfeasible, KindPowerExceedsMaximum:
		return true
	}
	return false
}
