package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/config"
	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/factory"
	coremetrics "github.com/kilianp07/compstation/core/metrics"
	"github.com/kilianp07/compstation/core/metrics/fuel"
	"github.com/kilianp07/compstation/core/model"
	coremqtt "github.com/kilianp07/compstation/core/mqtt"
	"github.com/kilianp07/compstation/core/performance"
	"github.com/kilianp07/compstation/core/station"
	inframetrics "github.com/kilianp07/compstation/infra/metrics"
	"github.com/kilianp07/compstation/internal/batch"
	"github.com/kilianp07/compstation/test/util"
)

const sampleHead = 18.17470547427045

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		StationFile: util.StationsFile(),
		Metrics:     coremetrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}}},
		Archive:     evallog.Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "evals.jsonl")},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestApp_EvaluateAndHistory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	out, err := a.Evaluate(ctx, batch.Job{StationID: "compressorStation_1", Request: station.Request{ConfigurationID: "config_1", Flow: 1.5, Head: sampleHead}})
	require.NoError(t, err)
	require.NoError(t, out.Err)
	require.Len(t, out.Result.Drives, 1)
	assert.Equal(t, "drive_5", out.Result.Drives[0].DriveID)

	out, err = a.Evaluate(ctx, batch.Job{StationID: "compressorStation_1", Request: station.Request{ConfigurationID: "config_9", Flow: 1.5, Head: sampleHead}})
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, model.ErrUnknownConfiguration)

	recs, err := a.History(ctx, evallog.Query{StationID: "compressorStation_1"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	feasible := true
	recs, err = a.History(ctx, evallog.Query{Feasible: &feasible})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "config_1", recs[0].ConfigurationID)
}

func TestApp_NewErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.StationFile = filepath.Join(t.TempDir(), "missing.cs")
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "carrier-pigeon"}}
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestEngine_AppliesDefaults(t *testing.T) {
	ec := config.EngineConfig{
		Mode:       performance.ModeNominal,
		Conditions: performance.Conditions{Density: 40},
	}
	eng := NewEngineWithCatalog(util.LoadCatalog(t), ec)
	st, err := eng.Station("compressorStation_1")
	require.NoError(t, err)

	res, err := eng.Evaluate(st, station.Request{ConfigurationID: "config_1", Flow: 3.859942503268806, Head: sampleHead})
	require.NoError(t, err)
	assert.Equal(t, performance.ModeNominal, res.Mode)
	assert.Equal(t, 40.0, res.Stages[0].Inlet.Density)
	assert.Equal(t, performance.DefaultInletTemperature, res.Stages[0].Inlet.InletTemperature)

	// Request conditions win over the configured ones.
	res, err = eng.Evaluate(st, station.Request{
		ConfigurationID: "config_1",
		Flow:            1.5,
		Head:            sampleHead,
		Mode:            performance.ModeSpeedSearch,
		Conditions:      performance.Conditions{Density: 55},
	})
	require.NoError(t, err)
	assert.Equal(t, performance.ModeSpeedSearch, res.Mode)
	assert.Equal(t, 55.0, res.Stages[0].Inlet.Density)
}

func TestSinkConfigs(t *testing.T) {
	in := coremetrics.Config{
		EmissionFactor: 0.25,
		Sinks: []factory.ModuleConfig{
			{Type: "fuel"},
			{Type: "fuel", Conf: map[string]any{"emission_factor": 0.3}},
			{Type: "prometheus"},
		},
	}
	out := sinkConfigs(in)
	require.Len(t, out, 3)
	assert.Equal(t, 0.25, out[0].Conf["emission_factor"])
	assert.Equal(t, 0.3, out[1].Conf["emission_factor"])
	assert.Nil(t, out[2].Conf)
	assert.Nil(t, in.Sinks[0].Conf)
}

func TestApp_Handler(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.Token = "secret"
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "fuel"}}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	get := func(path, token string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, get("/api/stations", "").StatusCode)
	assert.Equal(t, http.StatusOK, get("/api/stations", "secret").StatusCode)
	assert.Equal(t, http.StatusOK, get("/api/evaluations", "secret").StatusCode)
	assert.Equal(t, http.StatusOK, get("/api/stations/compressorStation_1/fuel", "secret").StatusCode)
	assert.Equal(t, http.StatusOK, get("/metrics", "").StatusCode)

	body := `{"station_id":"compressorStation_1","configuration_id":"config_1","flow":1.5,"head":18.17470547427045}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/evaluate", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out coremqtt.EvaluationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Feasible)
	assert.NotEmpty(t, out.RequestID)
}

func TestBackfillFuel(t *testing.T) {
	ctx := context.Background()
	archive, err := evallog.New(evallog.Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "evals.jsonl")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })

	req := station.Request{ConfigurationID: "config_1", Flow: 1.5, Head: sampleHead}
	res := &station.Result{StationID: "st", ConfigurationID: "config_1", ShaftPower: 500, EnergyRate: 2000}
	require.NoError(t, archive.Append(ctx, evallog.NewRecord("", "st", req, res, nil, 0)))
	require.NoError(t, archive.Append(ctx, evallog.NewRecord("", "st", req, nil, model.ErrPowerExceedsMaximum, 0)))

	store := fuel.NewMemoryStore()
	sink, err := inframetrics.NewFuelSink(store, 0.2, prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, backfillFuel(ctx, coremetrics.NewMultiSink(coremetrics.NopSink{}, sink), archive))

	now := time.Now()
	recs, err := store.Query("st", now, now)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Evaluations)
	assert.InDelta(t, 2000, recs[0].MeanEnergyRate(), 1e-12)

	// No fuel sink, nothing to do.
	require.NoError(t, backfillFuel(ctx, coremetrics.NopSink{}, archive))
}

func TestApp_APIGuard(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "dispatch"}).SignedString([]byte("k3y"))
	require.NoError(t, err)

	a := &App{cfg: &config.Config{API: config.APIConfig{Token: "ignored", JWTSecret: "k3y", RateLimit: 1}}}
	a.cfg.SetDefaults()
	h := a.apiGuard()(ok)
	call := func(auth string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
		req.Header.Set("Authorization", auth)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	// The static token is ignored once a JWT secret is set.
	assert.Equal(t, http.StatusUnauthorized, call("Bearer ignored"))
	assert.Equal(t, http.StatusTooManyRequests, call("Bearer "+tok))
}
