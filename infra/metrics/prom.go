package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/compstation/core/metrics"
)

// PromSink records evaluation outcomes in Prometheus metrics.
type PromSink struct {
	evaluations *prometheus.CounterVec
	infeasible  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	shaftPower  *prometheus.GaugeVec
	energyRate  *prometheus.GaugeVec
	diagnostics *prometheus.CounterVec
	driveLoad   *prometheus.GaugeVec
	batches     *prometheus.CounterVec
}

// NewPromSink registers evaluation metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.evaluations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compstation_evaluations_total",
		Help: "Station evaluations by outcome",
	}, []string{"station_id", "configuration_id", "outcome"})); err != nil {
		return nil, err
	}
	if s.infeasible, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compstation_infeasible_boundary_total",
		Help: "Infeasible evaluations by violated envelope boundary",
	}, []string{"station_id", "boundary"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "compstation_evaluation_duration_seconds",
		Help:    "Time spent evaluating a station request",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{"station_id"})); err != nil {
		return nil, err
	}
	if s.shaftPower, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "compstation_shaft_power_kw",
		Help: "Total shaft power of the last feasible evaluation",
	}, []string{"station_id", "configuration_id"})); err != nil {
		return nil, err
	}
	if s.energyRate, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "compstation_energy_rate_kw",
		Help: "Total fuel energy rate of the last feasible evaluation",
	}, []string{"station_id", "configuration_id"})); err != nil {
		return nil, err
	}
	if s.diagnostics, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compstation_diagnostics_total",
		Help: "Non-fatal evaluation diagnostics by kind",
	}, []string{"station_id", "kind"})); err != nil {
		return nil, err
	}
	if s.driveLoad, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "compstation_drive_utilization_ratio",
		Help: "Shaft power over available power of each drive in the last feasible evaluation",
	}, []string{"station_id", "drive_id"})); err != nil {
		return nil, err
	}
	if s.batches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compstation_batch_nominations_total",
		Help: "Nominations processed by batch runs by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordEvaluation counts the outcome and tracks power of feasible results.
func (s *PromSink) RecordEvaluation(rec coremetrics.EvaluationRecord) error {
	outcome := "feasible"
	if !rec.Feasible {
		outcome = string(rec.ErrorKind)
	}
	s.evaluations.WithLabelValues(rec.StationID, rec.ConfigurationID, outcome).Inc()
	s.duration.WithLabelValues(rec.StationID).Observe(rec.Duration.Seconds())
	if rec.Boundary != "" {
		s.infeasible.WithLabelValues(rec.StationID, string(rec.Boundary)).Inc()
	}
	if rec.Feasible {
		s.shaftPower.WithLabelValues(rec.StationID, rec.ConfigurationID).Set(rec.ShaftPower)
		s.energyRate.WithLabelValues(rec.StationID, rec.ConfigurationID).Set(rec.EnergyRate)
	}
	return nil
}

// RecordDiagnostic counts diagnostics by kind.
func (s *PromSink) RecordDiagnostic(ev coremetrics.DiagnosticEvent) error {
	s.diagnostics.WithLabelValues(ev.StationID, string(ev.Diagnostic.Kind)).Inc()
	return nil
}

// RecordDriveLoad sets the drive utilization gauge.
func (s *PromSink) RecordDriveLoad(ev coremetrics.DriveLoadEvent) error {
	s.driveLoad.WithLabelValues(ev.StationID, ev.DriveID).Set(ev.Utilization())
	return nil
}

// RecordBatch adds the batch outcome counts.
func (s *PromSink) RecordBatch(b coremetrics.BatchSummary) error {
	s.batches.WithLabelValues("feasible").Add(float64(b.Feasible))
	s.batches.WithLabelValues("infeasible").Add(float64(b.Infeasible))
	s.batches.WithLabelValues("failed").Add(float64(b.Failed))
	return nil
}
