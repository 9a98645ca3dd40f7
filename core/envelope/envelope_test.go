package envelope

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/test/util"
)

func TestCheck_SurgeSamplesAreFeasible(t *testing.T) {
	c := util.Turbo(t, "compressorStation_1", "compressor_5")
	v := New(0)
	require.NotEmpty(t, c.SurgeMeasurements)
	for _, s := range c.SurgeMeasurements {
		if err := v.Check(c, s.Speed, s.Flow); err != nil {
			t.Fatalf("surge sample (%g, %g) rejected: %v", s.Speed, s.Flow, err)
		}
		err := v.Check(c, s.Speed, s.Flow*0.99)
		b, ok := model.BoundaryOf(err)
		require.True(t, ok, "expected infeasible below surge sample at speed %g, got %v", s.Speed, err)
		assert.Equal(t, model.BoundarySurge, b)
	}
}

func TestCheck_LowFlowSurge(t *testing.T) {
	c := util.Turbo(t, "compressorStation_1", "compressor_5")
	err := New(0).Check(c, 3435, 0.1)
	require.ErrorIs(t, err, model.ErrOperatingPointInfeasible)
	var ie *model.InfeasibleError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, model.BoundarySurge, ie.Boundary)
	assert.InDelta(t, 10.946, ie.Value, 1e-3)
}

func TestCheck_SingleChokeCrossing(t *testing.T) {
	c := util.Turbo(t, "compressorStation_1", "compressor_5")
	v := New(0)
	const n = 10000
	flips := 0
	prev := true
	for q := 1.0; q <= 12; q += 0.01 {
		ok := v.IsFeasible(c, n, q)
		if ok != prev {
			flips++
			assert.False(t, ok, "feasibility returned at flow %g", q)
			assert.Greater(t, q, 7.5)
			assert.Less(t, q, 8.0)
			err := v.Check(c, n, q)
			b, _ := model.BoundaryOf(err)
			assert.Equal(t, model.BoundaryChoke, b)
		}
		prev = ok
	}
	assert.Equal(t, 1, flips)
}

func TestCheck_Speed(t *testing.T) {
	c := util.Turbo(t, "compressorStation_1", "compressor_5")
	v := New(0)
	err := v.Check(c, 3000, 1)
	require.ErrorIs(t, err, model.ErrSpeedOutOfRange)
	var se *model.SpeedError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3435.0, se.Min)

	assert.True(t, v.IsFeasible(c, 12000, 3), "upper speed bound is inclusive")
	assert.True(t, v.IsFeasible(c, 12000*(1+1e-9), 3))
	assert.False(t, v.IsFeasible(c, math.NaN(), 3))
}

func TestDistance(t *testing.T) {
	c := util.Turbo(t, "compressorStation_1", "compressor_5")
	v := New(0)
	m := v.Distance(c, 10000, 3)
	assert.True(t, m.Inside())
	assert.InDelta(t, 6565, m.SpeedLow, 1e-9)
	assert.InDelta(t, 2000, m.SpeedHigh, 1e-9)
	assert.InDelta(t, 28.2168-(-0.2098), m.Choke, 1e-3)
	assert.Equal(t, m.Choke, m.Head())

	m = v.Distance(c, 3435, 0.1)
	assert.False(t, m.Inside())
	assert.Less(t, m.Surge, 0.0)
}

func TestCheckPiston(t *testing.T) {
	p := &model.PistonCompressor{ID: "p", SpeedMin: 165, SpeedMax: 350, OperatingVolume: 0.5,
		MaximalTorque: 100, MaximalCompressionRatio: 2, AdiabaticEfficiency: 0.95}
	v := New(0)
	require.NoError(t, v.CheckPiston(p, 300, 1.8, 50))

	b, _ := model.BoundaryOf(v.CheckPiston(p, 300, 2.5, 50))
	assert.Equal(t, model.BoundaryCompressionRatio, b)

	b, _ = model.BoundaryOf(v.CheckPiston(p, 300, 1.5, 150))
	assert.Equal(t, model.BoundaryTorque, b)

	assert.ErrorIs(t, v.CheckPiston(p, 400, 1.5, 0), model.ErrSpeedOutOfRange)

	b, _ = model.BoundaryOf(v.Check(p, 300, 3))
	assert.Equal(t, model.BoundaryCapacity, b)
	assert.NoError(t, v.Check(p, 300, 2.5))

	p.MaximalTorque = 0
	assert.NoError(t, v.CheckPiston(p, 300, 1.5, 1e9), "zero torque limit is unlimited")
}
