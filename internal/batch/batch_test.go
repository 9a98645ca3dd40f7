package batch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/events"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/station"
	"github.com/kilianp07/compstation/internal/eventbus"
	"github.com/kilianp07/compstation/test/util"
)

const (
	sampleHead = 18.17470547427045
	surgeHead  = 10.946055070203164
)

func bundledJobs() []Job {
	return []Job{
		{ID: "ok", StationID: "compressorStation_1", Request: station.Request{ConfigurationID: "config_1", Flow: 1.5, Head: sampleHead}},
		{StationID: "compressorStation_1", Request: station.Request{ConfigurationID: "config_1", Flow: 0.1, Head: surgeHead}},
		{ID: "ghost", StationID: "compressorStation_9", Request: station.Request{ConfigurationID: "config_1", Flow: 1.5, Head: sampleHead}},
		{ID: "config", StationID: "compressorStation_1", Request: station.Request{ConfigurationID: "config_9", Flow: 1.5, Head: sampleHead}},
	}
}

func TestRunBundledStations(t *testing.T) {
	evals := eventbus.NewTyped[events.EvaluationEvent]()
	batches := eventbus.NewTyped[events.BatchEvent]()
	evSub := evals.Subscribe()
	batchSub := batches.Subscribe()

	r := NewRunner(util.LoadCatalog(t), station.NewResolver(nil, nil, nil), Config{Workers: 2},
		WithEvents(evals), WithBatchEvents(batches))
	outcomes, summary, err := r.Run(context.Background(), bundledJobs())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.Equal(t, "ok", outcomes[0].Job.ID)
	require.NoError(t, outcomes[0].Err)
	assert.Greater(t, outcomes[0].Result.ShaftPower, 0.0)

	assert.Equal(t, "2", outcomes[1].Job.ID)
	assert.ErrorIs(t, outcomes[1].Err, model.ErrOperatingPointInfeasible)
	assert.Equal(t, model.KindInvalidRequest, model.Classify(outcomes[2].Err))
	assert.ErrorIs(t, outcomes[3].Err, model.ErrUnknownConfiguration)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Feasible)
	assert.Equal(t, 1, summary.Infeasible)
	assert.Equal(t, 2, summary.Failed)
	assert.NotEmpty(t, summary.RunID)

	for i := 0; i < 4; i++ {
		ev := <-evSub
		assert.Equal(t, summary.RunID, ev.RunID)
	}
	assert.Equal(t, summary, <-batchSub)
}

func TestRunArchivesEveryJob(t *testing.T) {
	store, err := evallog.New(evallog.Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "eval.jsonl")})
	require.NoError(t, err)
	defer store.Close()

	r := NewRunner(util.LoadCatalog(t), station.NewResolver(nil, nil, nil), Config{}, WithArchive(store))
	_, summary, err := r.Run(context.Background(), bundledJobs())
	require.NoError(t, err)

	recs, err := store.Query(context.Background(), evallog.Query{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, recs, 4)
	feasible := true
	recs, err = store.Query(context.Background(), evallog.Query{RunID: summary.RunID, Feasible: &feasible})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "compressorStation_1", recs[0].StationID)
}

type nilStations struct{}

func (nilStations) Station(string) (*model.Station, error) { return nil, nil }

// scriptedEval fails requests whose configuration id is in errs.
type scriptedEval struct {
	mu    sync.Mutex
	errs  map[string]error
	calls []string
}

func (s *scriptedEval) Evaluate(_ *model.Station, req station.Request) (*station.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req.ConfigurationID)
	if err := s.errs[req.ConfigurationID]; err != nil {
		return nil, err
	}
	return &station.Result{ConfigurationID: req.ConfigurationID}, nil
}

func jobs(ids ...string) []Job {
	out := make([]Job, len(ids))
	for i, id := range ids {
		out[i] = Job{StationID: "s", Request: station.Request{ConfigurationID: id}}
	}
	return out
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := &scriptedEval{}
	outcomes, summary, err := NewRunner(nilStations{}, ev, Config{Workers: 1}).Run(ctx, jobs("a", "b", "c"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ev.calls)
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, ErrNotRun)
	}
	assert.Equal(t, 3, summary.Failed)
}

func TestRunFailFast(t *testing.T) {
	boom := errors.New("boom")
	ev := &scriptedEval{errs: map[string]error{"a": boom}}
	outcomes, summary, err := NewRunner(nilStations{}, ev, Config{Workers: 1, FailFast: true}).Run(context.Background(), jobs("a", "b", "c"))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, ev.calls)
	assert.ErrorIs(t, outcomes[0].Err, boom)
	assert.ErrorIs(t, outcomes[1].Err, ErrNotRun)
	assert.ErrorIs(t, outcomes[2].Err, ErrNotRun)
	assert.Equal(t, 3, summary.Failed)
}

func TestRunFailFastIgnoresInfeasible(t *testing.T) {
	ev := &scriptedEval{errs: map[string]error{"a": &model.InfeasibleError{Boundary: model.BoundaryChoke}}}
	outcomes, summary, err := NewRunner(nilStations{}, ev, Config{Workers: 1, FailFast: true}).Run(context.Background(), jobs("a", "b"))
	require.NoError(t, err)
	assert.Len(t, ev.calls, 2)
	assert.NoError(t, outcomes[1].Err)
	assert.Equal(t, 1, summary.Infeasible)
	assert.Equal(t, 1, summary.Feasible)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Positive(t, c.Workers)
	assert.NoError(t, c.Validate())
	assert.Error(t, Config{Workers: -1}.Validate())
}
