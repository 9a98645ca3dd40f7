package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/infra/logger"
)

const writeTimeout = 5 * time.Second

// InfluxSink writes evaluation events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: writeTimeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEvaluation writes one station_evaluation point.
func (s *InfluxSink) RecordEvaluation(rec coremetrics.EvaluationRecord) error {
	p := write.NewPointWithMeasurement("station_evaluation").
		AddTag("station_id", rec.StationID).
		AddTag("configuration_id", rec.ConfigurationID).
		AddTag("feasible", strconv.FormatBool(rec.Feasible))
	if rec.RunID != "" {
		p = p.AddTag("run_id", rec.RunID)
	}
	if !rec.Feasible {
		p = p.AddTag("error_kind", string(rec.ErrorKind))
		if rec.Boundary != "" {
			p = p.AddTag("boundary", string(rec.Boundary))
		}
	}
	p = p.AddField("flow", round3(rec.Flow)).
		AddField("head", round3(rec.Head)).
		AddField("shaft_power_kw", round3(rec.ShaftPower)).
		AddField("energy_rate_kw", round3(rec.EnergyRate)).
		AddField("efficiency", round3(rec.Efficiency)).
		AddField("diagnostics", rec.Diagnostics).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordDiagnostic writes one evaluation_diagnostic point.
func (s *InfluxSink) RecordDiagnostic(ev coremetrics.DiagnosticEvent) error {
	p := write.NewPointWithMeasurement("evaluation_diagnostic").
		AddTag("station_id", ev.StationID).
		AddTag("configuration_id", ev.ConfigurationID).
		AddTag("kind", string(ev.Diagnostic.Kind)).
		AddTag("subject", ev.Diagnostic.Subject).
		AddField("value", round3(ev.Diagnostic.Value)).
		AddField("bound", round3(ev.Diagnostic.Bound)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDriveLoad writes one drive_load point.
func (s *InfluxSink) RecordDriveLoad(ev coremetrics.DriveLoadEvent) error {
	p := write.NewPointWithMeasurement("drive_load").
		AddTag("station_id", ev.StationID).
		AddTag("configuration_id", ev.ConfigurationID).
		AddTag("drive_id", ev.DriveID).
		AddField("shaft_power_kw", round3(ev.ShaftPower)).
		AddField("available_power_kw", round3(ev.AvailablePower)).
		AddField("energy_rate_kw", round3(ev.EnergyRate)).
		AddField("utilization", round3(ev.Utilization())).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordBatch writes one batch_run point.
func (s *InfluxSink) RecordBatch(b coremetrics.BatchSummary) error {
	p := write.NewPointWithMeasurement("batch_run").
		AddTag("run_id", b.RunID).
		AddField("total", b.Total).
		AddField("feasible", b.Feasible).
		AddField("infeasible", b.Infeasible).
		AddField("failed", b.Failed).
		AddField("duration_ms", round3(b.Duration.Seconds()*1000)).
		SetTime(b.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
