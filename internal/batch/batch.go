// Package batch evaluates many nominations concurrently. Jobs are
// independent; a run can be cancelled through its context between jobs.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/events"
	"github.com/kilianp07/compstation/core/logger"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/monitoring"
	"github.com/kilianp07/compstation/core/station"
	"github.com/kilianp07/compstation/internal/eventbus"
)

// ErrNotRun marks jobs skipped because the run was cancelled or stopped
// early.
var ErrNotRun = errors.New("job not run")

// Config tunes a Runner.
type Config struct {
	// Workers bounds concurrent evaluations. Zero selects the CPU count.
	Workers int `json:"workers"`
	// FailFast stops the run at the first job that fails for a reason
	// other than infeasibility.
	FailFast bool `json:"fail_fast"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("batch: workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// StationSource resolves station ids.
type StationSource interface {
	Station(id string) (*model.Station, error)
}

// Evaluator evaluates one station request.
type Evaluator interface {
	Evaluate(st *model.Station, req station.Request) (*station.Result, error)
}

// Job is one nomination. An empty ID is replaced by the job's 1-based
// position.
type Job struct {
	ID        string          `json:"id"`
	StationID string          `json:"station_id"`
	Request   station.Request `json:"request"`
}

// Outcome is the evaluation of one Job. Result is nil when Err is set.
type Outcome struct {
	Job      Job             `json:"job"`
	Result   *station.Result `json:"result,omitempty"`
	Err      error           `json:"-"`
	Duration time.Duration   `json:"duration"`
}

// Runner evaluates job lists.
type Runner struct {
	stations StationSource
	eval     Evaluator
	cfg      Config
	evals    *eventbus.TypedBus[events.EvaluationEvent]
	batches  *eventbus.TypedBus[events.BatchEvent]
	archive  evallog.Store
	logger   logger.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithEvents publishes one EvaluationEvent per job on bus.
func WithEvents(bus *eventbus.TypedBus[events.EvaluationEvent]) Option {
	return func(r *Runner) { r.evals = bus }
}

// WithBatchEvents publishes a BatchEvent when a run ends.
func WithBatchEvents(bus *eventbus.TypedBus[events.BatchEvent]) Option {
	return func(r *Runner) { r.batches = bus }
}

// WithArchive appends one record per evaluated job to store.
func WithArchive(store evallog.Store) Option {
	return func(r *Runner) { r.archive = store }
}

// WithLogger sets the runner's logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) { r.logger = log }
}

// NewRunner builds a runner.
func NewRunner(stations StationSource, eval Evaluator, cfg Config, opts ...Option) *Runner {
	cfg.SetDefaults()
	r := &Runner{stations: stations, eval: eval, cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	r.logger = logger.OrNop(r.logger)
	return r
}

// Run evaluates jobs and returns one outcome per job in input order along
// with the run summary. The error is non-nil only when ctx was cancelled
// or FailFast stopped the run; skipped jobs then carry ErrNotRun.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, events.BatchEvent, error) {
	runID := uuid.NewString()
	start := r.now()
	outcomes := make([]Outcome, len(jobs))
	done := make([]bool, len(jobs))
	for i, job := range jobs {
		if job.ID == "" {
			job.ID = strconv.Itoa(i + 1)
		}
		outcomes[i].Job = job
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := range outcomes {
		if gctx.Err() != nil {
			break
		}
		job := outcomes[i].Job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return nil
			}
			out := r.evaluate(gctx, runID, job)
			outcomes[i] = out
			done[i] = true
			if r.cfg.FailFast && out.Err != nil && !model.Infeasible(out.Err) {
				return fmt.Errorf("job %s: %w", job.ID, out.Err)
			}
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	summary := events.BatchEvent{RunID: runID, Total: len(jobs)}
	for i := range outcomes {
		if !done[i] {
			outcomes[i].Err = fmt.Errorf("%w: %v", ErrNotRun, cause(ctx, runErr))
		}
		switch err := outcomes[i].Err; {
		case err == nil:
			summary.Feasible++
		case model.Infeasible(err):
			summary.Infeasible++
		default:
			summary.Failed++
		}
	}
	summary.Duration = r.now().Sub(start)
	summary.Time = r.now()
	if r.batches != nil {
		r.batches.Publish(summary)
	}
	r.logger.Infof("batch %s: %d jobs, %d feasible, %d infeasible, %d failed in %s",
		runID, summary.Total, summary.Feasible, summary.Infeasible, summary.Failed, summary.Duration)
	return outcomes, summary, runErr
}

func (r *Runner) evaluate(ctx context.Context, runID string, job Job) Outcome {
	defer monitoring.Recover()
	start := r.now()
	out := Outcome{Job: job}
	st, err := r.stations.Station(job.StationID)
	if err != nil {
		out.Err = fmt.Errorf("%w: %w", model.ErrInvalidRequest, err)
	} else {
		out.Result, out.Err = r.eval.Evaluate(st, job.Request)
	}
	out.Duration = r.now().Sub(start)

	if out.Err != nil {
		r.logger.Debugw("nomination failed", map[string]any{
			"run":           runID,
			"job":           job.ID,
			"station":       job.StationID,
			"configuration": job.Request.ConfigurationID,
			"error_kind":    string(model.Classify(out.Err)),
		})
		monitoring.CaptureEvaluationError(out.Err, job.StationID, job.Request.ConfigurationID)
	}
	if r.archive != nil {
		rec := evallog.NewRecord(runID, job.StationID, job.Request, out.Result, out.Err, out.Duration)
		if err := r.archive.Append(context.WithoutCancel(ctx), rec); err != nil {
			r.logger.Errorf("archive job %s: %v", job.ID, err)
		}
	}
	if r.evals != nil {
		r.evals.Publish(events.EvaluationEvent{
			RunID:     runID,
			StationID: job.StationID,
			Request:   job.Request,
			Result:    out.Result,
			Err:       out.Err,
			Duration:  out.Duration,
			Time:      r.now(),
		})
	}
	return out
}

func cause(ctx context.Context, runErr error) error {
	if runErr != nil {
		return runErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("stopped")
}
