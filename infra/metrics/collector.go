package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/compstation/core/events"
	coremetrics "github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/infra/logger"
	"github.com/kilianp07/compstation/internal/eventbus"
)

// EvaluationRecord converts an evaluation event into the sink record.
func EvaluationRecord(ev events.EvaluationEvent) coremetrics.EvaluationRecord {
	rec := coremetrics.EvaluationRecord{
		RunID:           ev.RunID,
		StationID:       ev.StationID,
		ConfigurationID: ev.Request.ConfigurationID,
		Mode:            string(ev.Request.Mode),
		Flow:            ev.Request.Flow,
		Head:            ev.Request.Head,
		Feasible:        ev.Err == nil && ev.Result != nil,
		Duration:        ev.Duration,
		Time:            ev.Time,
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	if ev.Err != nil {
		rec.ErrorKind = model.Classify(ev.Err)
		rec.Boundary, _ = model.BoundaryOf(ev.Err)
		return rec
	}
	if r := ev.Result; r != nil {
		rec.Mode = string(r.Mode)
		rec.ShaftPower = r.ShaftPower
		rec.EnergyRate = r.EnergyRate
		rec.Efficiency = r.Efficiency
		rec.Diagnostics = len(r.Diagnostics)
	}
	return rec
}

// StartEventCollector subscribes to the evaluation and batch buses and
// records every event on sink. Either bus may be nil. The returned channel
// is closed when the collector stops, which happens when ctx is canceled or
// the buses are closed.
func StartEventCollector(ctx context.Context, evals *eventbus.TypedBus[events.EvaluationEvent],
	batches *eventbus.TypedBus[events.BatchEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if sink == nil || (evals == nil && batches == nil) {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	var evCh <-chan events.EvaluationEvent
	var batchCh <-chan events.BatchEvent
	if evals != nil {
		evCh = evals.Subscribe()
	}
	if batches != nil {
		batchCh = batches.Subscribe()
	}
	go func() {
		defer close(done)
		defer func() {
			if evals != nil {
				evals.Unsubscribe(evCh)
			}
			if batches != nil {
				batches.Unsubscribe(batchCh)
			}
		}()
		for evCh != nil || batchCh != nil {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evCh:
				if !ok {
					evCh = nil
					continue
				}
				if err := recordEvaluation(sink, ev); err != nil {
					log.Warnf("record evaluation: %v", err)
				}
			case ev, ok := <-batchCh:
				if !ok {
					batchCh = nil
					continue
				}
				if r, ok := sink.(coremetrics.BatchRecorder); ok {
					if err := r.RecordBatch(coremetrics.BatchSummary(ev)); err != nil {
						log.Warnf("record batch: %v", err)
					}
				}
			}
		}
	}()
	return done
}

func recordEvaluation(sink coremetrics.MetricsSink, ev events.EvaluationEvent) error {
	rec := EvaluationRecord(ev)
	if err := sink.RecordEvaluation(rec); err != nil {
		return err
	}
	if ev.Result == nil || ev.Err != nil {
		return nil
	}
	if r, ok := sink.(coremetrics.DiagnosticRecorder); ok {
		for _, d := range ev.Result.Diagnostics {
			if err := r.RecordDiagnostic(coremetrics.DiagnosticEvent{
				StationID:       rec.StationID,
				ConfigurationID: rec.ConfigurationID,
				Diagnostic:      d,
				Time:            rec.Time,
			}); err != nil {
				return err
			}
		}
	}
	if r, ok := sink.(coremetrics.DriveLoadRecorder); ok {
		for _, c := range ev.Result.Drives {
			if err := r.RecordDriveLoad(coremetrics.DriveLoadEvent{
				StationID:       rec.StationID,
				ConfigurationID: rec.ConfigurationID,
				DriveID:         c.DriveID,
				ShaftPower:      c.ShaftPower,
				AvailablePower:  c.AvailablePower,
				EnergyRate:      c.EnergyRate,
				Time:            rec.Time,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
