package scenarios

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/core/station"
	"github.com/kilianp07/compstation/internal/batch"
	"github.com/kilianp07/compstation/test/util"
)

func TestScenarios(t *testing.T) {
	scs, err := LoadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, scs)

	runner := batch.NewRunner(util.LoadCatalog(t), station.NewResolver(nil, nil, nil), batch.Config{Workers: 4})
	for _, sc := range scs {
		t.Run(sc.Name, func(t *testing.T) {
			rep, err := Run(context.Background(), runner, sc)
			require.NoError(t, err)
			assert.True(t, rep.Passed(), "%v", rep.Mismatches)
			assert.Len(t, rep.Outcomes, len(sc.Nominations))
		})
	}
}

func TestMismatchReported(t *testing.T) {
	sc := &Scenario{Name: "wrong", Station: "compressorStation_1", Nominations: []Nomination{
		{ID: "n1", Configuration: "config_9", Flow: 1, Head: 10, Expect: Expected{Feasible: true}},
		{ID: "n2", Configuration: "config_9", Flow: 1, Head: 10, Expect: Expected{ErrorKind: "invalid_request"}},
	}}
	runner := batch.NewRunner(util.LoadCatalog(t), station.NewResolver(nil, nil, nil), batch.Config{Workers: 1})
	rep, err := Run(context.Background(), runner, sc)
	require.NoError(t, err)
	require.Len(t, rep.Mismatches, 2)
	assert.Contains(t, rep.Mismatches[0], "n1")
	assert.Contains(t, rep.Mismatches[1], "unknown_configuration")
}

func TestNominationConditions(t *testing.T) {
	ambient := 25.0
	n := Nomination{Configuration: "c", Flow: 1, Head: 2, Mode: "nominal",
		Conditions: &ConditionsDef{Density: 45, AmbientTemperature: &ambient}}
	req := n.ToRequest()
	assert.Equal(t, 45.0, req.Conditions.Density)
	assert.Equal(t, 25.0, req.Conditions.Ambient())
	assert.EqualValues(t, "nominal", req.Mode)

	assert.Zero(t, Nomination{}.ToRequest().Conditions.Density)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load("no-file.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: x\nstation: s\n"), 0644))
	_, err = Load(empty)
	assert.Error(t, err)
}
