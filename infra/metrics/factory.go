package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/compstation/core/factory"
	coremetrics "github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/core/metrics/fuel"
	"github.com/kilianp07/compstation/infra/kpi"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		s, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterMetricsSink("fuel", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			EmissionFactor float64 `json:"emission_factor"`
			Path           string  `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.EmissionFactor == 0 {
			c.EmissionFactor = coremetrics.DefaultEmissionFactor
		}
		var store fuel.Store = fuel.NewMemoryStore()
		if c.Path != "" {
			db, err := kpi.NewSQLiteStore(c.Path)
			if err != nil {
				return nil, err
			}
			store = db
		}
		s, err := NewFuelSink(store, c.EmissionFactor, prometheus.DefaultRegisterer)
		if err != nil {
			if cl, ok := store.(io.Closer); ok {
				_ = cl.Close()
			}
			return nil, err
		}
		return s, nil
	})
}
