package kpi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/core/metrics/fuel"
)

func TestSQLiteStore_Aggregation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuel.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)

	d := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	require.NoError(t, s.Add(fuel.Record{StationID: "st", Date: d, ShaftPower: 100, EnergyRate: 400}))
	require.NoError(t, s.Add(fuel.Record{StationID: "st", Date: d.Add(time.Hour), ShaftPower: 200, EnergyRate: 600}))
	require.NoError(t, s.Add(fuel.Record{StationID: "st", Date: d.AddDate(0, 0, 1), Evaluations: 3, ShaftPower: 30, EnergyRate: 90}))
	require.NoError(t, s.Add(fuel.Record{StationID: "other", Date: d, ShaftPower: 1, EnergyRate: 1}))

	recs, err := s.Query("st", d, d)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, fuel.Day(d), recs[0].Date)
	assert.Equal(t, 2, recs[0].Evaluations)
	assert.InDelta(t, 500, recs[0].MeanEnergyRate(), 1e-12)
	require.NoError(t, s.Close())

	// Rows survive a reopen.
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	recs, err = s.Query("st", d, d.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 3, recs[1].Evaluations)
	assert.InDelta(t, 30, recs[1].MeanEnergyRate(), 1e-12)

	recs, err = s.Query("missing", d, d)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
