package evallog

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/station"
)

func feasibleRecord(t *testing.T, runID string, ts time.Time) Record {
	t.Helper()
	req := station.Request{ConfigurationID: "config_1", Flow: 1.5, Head: 18}
	res := &station.Result{StationID: "compressorStation_1", ConfigurationID: "config_1", ShaftPower: 1700}
	rec := NewRecord(runID, "compressorStation_1", req, res, nil, 3*time.Millisecond)
	rec.Timestamp = ts
	return rec
}

func failedRecord(t *testing.T, runID string, ts time.Time) Record {
	t.Helper()
	err := fmt.Errorf("stage 1: %w", &model.InfeasibleError{CompressorID: "compressor_5", Boundary: model.BoundarySurge})
	req := station.Request{ConfigurationID: "config_2", Flow: 0.1, Head: 40}
	rec := NewRecord(runID, "compressorStation_1", req, &station.Result{}, err, time.Millisecond)
	rec.Timestamp = ts
	return rec
}

func TestNewRecord(t *testing.T) {
	now := time.Now()
	ok := feasibleRecord(t, "run", now)
	assert.NotEmpty(t, ok.ID)
	assert.True(t, ok.Feasible)
	assert.Equal(t, model.KindNone, ok.ErrorKind)
	assert.InDelta(t, 3, ok.DurationMS, 1e-9)
	require.NotNil(t, ok.Result)

	bad := failedRecord(t, "run", now)
	assert.False(t, bad.Feasible)
	assert.Nil(t, bad.Result)
	assert.Equal(t, model.KindOperatingPointInfeasible, bad.ErrorKind)
	assert.Equal(t, model.BoundarySurge, bad.Boundary)
	assert.NotEqual(t, ok.ID, bad.ID)

	data, err := json.Marshal(bad)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"id", "timestamp", "station_id", "request", "error_kind", "boundary", "error"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "result")
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, failedRecord(t, "r1", base.Add(time.Minute))))
	require.NoError(t, s.Append(ctx, feasibleRecord(t, "r1", base)))
	require.NoError(t, s.Append(ctx, feasibleRecord(t, "r2", base.Add(2*time.Minute))))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Timestamp.Before(all[1].Timestamp), "ordered by timestamp")

	byRun, err := s.Query(ctx, Query{RunID: "r1"})
	require.NoError(t, err)
	assert.Len(t, byRun, 2)

	no := false
	failed, err := s.Query(ctx, Query{Feasible: &no})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "config_2", failed[0].ConfigurationID)

	kind, err := s.Query(ctx, Query{ErrorKind: model.KindOperatingPointInfeasible})
	require.NoError(t, err)
	assert.Len(t, kind, 1)

	window, err := s.Query(ctx, Query{Start: base.Add(30 * time.Second), End: base.Add(90 * time.Second)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.False(t, window[0].Feasible)

	cfg, err := s.Query(ctx, Query{StationID: "compressorStation_1", ConfigurationID: "config_1"})
	require.NoError(t, err)
	require.Len(t, cfg, 2)
	require.NotNil(t, cfg[0].Result)
	assert.InDelta(t, 1700, cfg[0].Result.ShaftPower, 1e-9)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "archive", "eval.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore_QueryIncludesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Append(ctx, feasibleRecord(t, "a", now)))
	require.NoError(t, s.Rotate())
	require.NoError(t, s.Append(ctx, feasibleRecord(t, "b", now.Add(time.Second))))

	files, err := s.files()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	out, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].RunID)
	assert.Equal(t, "b", out[1].RunID)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "eval.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestNew(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = New(Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(Config{Backend: "csv"})
	assert.Error(t, err)
}
