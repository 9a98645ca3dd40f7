package events

import (
	"time"

	"github.com/kilianp07/compstation/core/station"
)

// EvaluationEvent is published after every station evaluation. Result is
// nil when Err is set.
type EvaluationEvent struct {
	RunID     string
	StationID string
	Request   station.Request
	Result    *station.Result
	Err       error
	Duration  time.Duration
	Time      time.Time
}

// BatchEvent is published when a batch run finishes.
type BatchEvent struct {
	RunID      string
	Total      int
	Feasible   int
	Infeasible int
	Failed     int
	Duration   time.Duration
	Time       time.Time
}
