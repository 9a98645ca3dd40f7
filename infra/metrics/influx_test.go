package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/core/model"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.lines = append(l.lines, strings.TrimSpace(string(b)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (l *lineRecorder) got() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordEvaluation(t *testing.T) {
	rec := &lineRecorder{}
	sink := NewInfluxSink(rec.server(t).URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	err := sink.RecordEvaluation(coremetrics.EvaluationRecord{
		StationID: "st", ConfigurationID: "config_2", Flow: 0.1, Head: 40,
		ErrorKind: model.KindOperatingPointInfeasible, Boundary: model.BoundarySurge,
		Duration: 2 * time.Millisecond, Time: now,
	})
	require.NoError(t, err)

	p := write.NewPointWithMeasurement("station_evaluation").
		AddTag("station_id", "st").
		AddTag("configuration_id", "config_2").
		AddTag("feasible", "false").
		AddTag("error_kind", "operating_point_infeasible").
		AddTag("boundary", "surge").
		AddField("flow", 0.1).
		AddField("head", 40.0).
		AddField("shaft_power_kw", 0.0).
		AddField("energy_rate_kw", 0.0).
		AddField("efficiency", 0.0).
		AddField("diagnostics", 0).
		AddField("duration_ms", 2.0).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, rec.got())
}

func TestInfluxSink_RecordDriveLoad(t *testing.T) {
	rec := &lineRecorder{}
	sink := NewInfluxSink(rec.server(t).URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordDriveLoad(coremetrics.DriveLoadEvent{
		StationID: "st", ConfigurationID: "c", DriveID: "drive_5",
		ShaftPower: 1000, AvailablePower: 4000, EnergyRate: 7521.1234, Time: now,
	}))
	p := write.NewPointWithMeasurement("drive_load").
		AddTag("station_id", "st").
		AddTag("configuration_id", "c").
		AddTag("drive_id", "drive_5").
		AddField("shaft_power_kw", 1000.0).
		AddField("available_power_kw", 4000.0).
		AddField("energy_rate_kw", 7521.123).
		AddField("utilization", 0.25).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, rec.got())
}

func TestInfluxSink_RecordDiagnosticAndBatch(t *testing.T) {
	rec := &lineRecorder{}
	sink := NewInfluxSink(rec.server(t).URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordDiagnostic(coremetrics.DiagnosticEvent{
		StationID: "st", ConfigurationID: "c", Time: now,
		Diagnostic: model.Diagnostic{Kind: model.DiagnosticTableExtrapolation, Subject: "drive_2", Value: 3909, Bound: 5250},
	}))
	require.NoError(t, sink.RecordBatch(coremetrics.BatchSummary{RunID: "r", Total: 2, Feasible: 1, Failed: 1, Time: now}))

	got := rec.got()
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0], "evaluation_diagnostic,"))
	assert.Contains(t, got[0], "subject=drive_2")
	assert.True(t, strings.HasPrefix(got[1], "batch_run,run_id=r "))
	assert.Contains(t, got[1], "total=2i")
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called, "health endpoint not called")
}
