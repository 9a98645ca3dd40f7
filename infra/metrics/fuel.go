package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	core "github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/core/metrics/fuel"
)

// FuelSink aggregates feasible evaluations per station and day and exposes
// the daily figures as gauges.
type FuelSink struct {
	store      fuel.Store
	factor     float64
	energyRate *prometheus.GaugeVec
	efficiency *prometheus.GaugeVec
	co2        *prometheus.GaugeVec
}

// NewFuelSink creates a sink with gauges registered on reg. factor converts
// fuel energy in kWh to kg of CO2.
func NewFuelSink(store fuel.Store, factor float64, reg prometheus.Registerer) (*FuelSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rate, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "compstation_daily_mean_energy_rate_kw",
		Help: "Mean fuel energy rate of the day's feasible evaluations",
	}, []string{"station_id", "day"}))
	if err != nil {
		return nil, err
	}
	eff, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "compstation_daily_drive_efficiency_ratio",
		Help: "Shaft power over fuel energy rate of the day's feasible evaluations",
	}, []string{"station_id", "day"}))
	if err != nil {
		return nil, err
	}
	co2, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "compstation_daily_co2_rate_kg_per_hour",
		Help: "Mean CO2 emission rate of the day's feasible evaluations",
	}, []string{"station_id", "day"}))
	if err != nil {
		return nil, err
	}
	return &FuelSink{store: store, factor: factor, energyRate: rate, efficiency: eff, co2: co2}, nil
}

// RecordEvaluation adds feasible evaluations to the daily aggregate.
func (s *FuelSink) RecordEvaluation(rec core.EvaluationRecord) error {
	if !rec.Feasible {
		return nil
	}
	if err := s.store.Add(fuel.Record{
		StationID:  rec.StationID,
		Date:       rec.Time,
		ShaftPower: rec.ShaftPower,
		EnergyRate: rec.EnergyRate,
	}); err != nil {
		return err
	}
	records, err := s.store.Query(rec.StationID, rec.Time, rec.Time)
	if err != nil || len(records) == 0 {
		return err
	}
	r := records[0]
	day := fuel.Day(rec.Time).Format("2006-01-02")
	s.energyRate.WithLabelValues(rec.StationID, day).Set(r.MeanEnergyRate())
	s.efficiency.WithLabelValues(rec.StationID, day).Set(r.DriveEfficiency())
	s.co2.WithLabelValues(rec.StationID, day).Set(r.CO2Rate(s.factor))
	return nil
}

// Store returns the daily aggregate store.
func (s *FuelSink) Store() fuel.Store { return s.store }

// EmissionFactor returns the kWh to kg CO2 factor.
func (s *FuelSink) EmissionFactor() float64 { return s.factor }

// Close releases the store when it holds resources.
func (s *FuelSink) Close() {
	if c, ok := s.store.(io.Closer); ok {
		_ = c.Close()
	}
}
