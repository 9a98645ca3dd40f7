// Package monitoring forwards unexpected failures to an error tracker.
// Infeasible operating points are ordinary results and are never reported;
// only engine faults such as non-converging searches, invalid stations or
// unclassified errors are.
package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/compstation/core/model"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err != nil {
		current.CaptureException(err, tags)
	}
}

// Reportable reports whether an evaluation error indicates an engine fault
// rather than an infeasible request.
func Reportable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch model.Classify(err) {
	case model.KindRootFindDidNotConverge, model.KindInvalidStation, model.KindInternal:
		return true
	}
	return false
}

// CaptureEvaluationError records err when it is Reportable, tagged with
// the evaluated station and configuration.
func CaptureEvaluationError(err error, stationID, configurationID string) {
	if !Reportable(err) {
		return
	}
	current.CaptureException(err, map[string]string{
		"station":       stationID,
		"configuration": configurationID,
		"error_kind":    string(model.Classify(err)),
	})
}

// Recover captures a panic in the calling goroutine and re-panics. It must
// be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		current.CapturePanic(r)
		current.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	current.Flush(d)
}
