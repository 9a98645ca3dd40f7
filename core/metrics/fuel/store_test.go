package fuel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Aggregation(t *testing.T) {
	s := NewMemoryStore()
	d := Day(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	require.NoError(t, s.Add(Record{StationID: "st", Date: d, ShaftPower: 100, EnergyRate: 400}))
	require.NoError(t, s.Add(Record{StationID: "st", Date: d.Add(2 * time.Hour), ShaftPower: 200, EnergyRate: 600}))
	require.NoError(t, s.Add(Record{StationID: "st", Date: d.AddDate(0, 0, 1), ShaftPower: 50, EnergyRate: 100}))
	require.NoError(t, s.Add(Record{StationID: "other", Date: d, ShaftPower: 1, EnergyRate: 1}))

	recs, err := s.Query("st", d, d)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Evaluations)
	assert.InDelta(t, 300, recs[0].ShaftPower, 1e-12)
	assert.InDelta(t, 500, recs[0].MeanEnergyRate(), 1e-12)

	recs, err = s.Query("st", d, d.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Date.Before(recs[1].Date))
}

func TestRecordCalculations(t *testing.T) {
	r := Record{Evaluations: 2, ShaftPower: 300, EnergyRate: 1000}
	assert.InDelta(t, 0.3, r.DriveEfficiency(), 1e-12)
	assert.InDelta(t, 100, r.CO2Rate(0.2), 1e-12)
	assert.Zero(t, Record{}.MeanEnergyRate())
	assert.Zero(t, Record{}.DriveEfficiency())
}
