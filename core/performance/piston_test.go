package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/test/util"
)

func piston(t *testing.T) *model.PistonCompressor {
	t.Helper()
	c, ok := util.Station(t, "compressorStation_5").Compressor("compressor_2")
	require.True(t, ok)
	return c.(*model.PistonCompressor)
}

func TestSolvePiston_RatedRatio(t *testing.T) {
	p, err := NewSolver(Options{}, nil).SolvePiston(piston(t), 350, 0, DefaultConditions())
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.PressureRatio)
	assert.InDelta(t, 2.19763, p.Flow, 1e-4)
	assert.InDelta(t, 101.0334, p.Head, 1e-3)
	assert.InDelta(t, 11686.01, p.ShaftPower, 0.05)
	assert.Equal(t, 0.95, p.Efficiency)
	assert.InDelta(t, 318.84, p.Torque, 0.01)
}

func TestSolvePiston_Limits(t *testing.T) {
	s := NewSolver(Options{}, nil)
	_, err := s.SolvePiston(piston(t), 400, 1.5, DefaultConditions())
	assert.ErrorIs(t, err, model.ErrSpeedOutOfRange)

	_, err = s.SolvePiston(piston(t), 300, 2.5, DefaultConditions())
	b, _ := model.BoundaryOf(err)
	assert.Equal(t, model.BoundaryCompressionRatio, b)

	limited := *piston(t)
	limited.MaximalTorque = 100
	_, err = s.SolvePiston(&limited, 300, 1.5, DefaultConditions())
	b, _ = model.BoundaryOf(err)
	assert.Equal(t, model.BoundaryTorque, b)
}

func TestOperate_Piston(t *testing.T) {
	s := NewSolver(Options{}, nil)
	cond := DefaultConditions()
	head := cond.Head(1.5)
	capacity := Capacity(piston(t), 300, 1.5, cond)
	assert.InDelta(t, 2.17974, capacity, 1e-4)

	p, err := s.Operate(piston(t), UnitRequest{Flow: capacity, Head: head}, cond)
	require.NoError(t, err)
	assert.InDelta(t, 300, p.Speed, 1e-6)
	assert.InDelta(t, 1.5, p.PressureRatio, 1e-9)
	assert.InDelta(t, 6554.25, p.ShaftPower, 0.05)

	_, err = s.Operate(piston(t), UnitRequest{Flow: 1, Head: head}, cond)
	assert.ErrorIs(t, err, model.ErrSpeedOutOfRange, "flow 1 needs about 138 /min")

	p, err = s.Operate(piston(t), UnitRequest{Flow: 1.5, Head: head, NominalSpeed: 300, Mode: ModeNominal}, cond)
	require.NoError(t, err)
	assert.Equal(t, 300.0, p.Speed)
	assert.Equal(t, 1.5, p.Flow)

	_, err = s.Operate(piston(t), UnitRequest{Flow: 3, Head: head, NominalSpeed: 300, Mode: ModeNominal}, cond)
	b, _ := model.BoundaryOf(err)
	assert.Equal(t, model.BoundaryCapacity, b)
}

func TestConditions(t *testing.T) {
	c := DefaultConditions()
	assert.InDelta(t, 1.7, c.PressureRatio(c.Head(1.7)), 1e-12)
	assert.Equal(t, 0.0, c.Head(1))

	out := c.Discharge(1.5, 0.8)
	assert.Greater(t, out.InletTemperature, c.InletTemperature)
	assert.Greater(t, out.Density, c.Density)
	assert.Less(t, out.Density, c.Density*1.5)

	assert.Equal(t, c, Conditions{}.WithDefaults())
	assert.Equal(t, DefaultAmbientTemperature, c.Ambient())
	assert.Equal(t, -5.0, c.WithAmbient(-5).Ambient())
	assert.ErrorIs(t, Conditions{Density: -1}.WithDefaults().Validate(), model.ErrInvalidRequest)

	site := c.WithAmbient(30)
	site.Density = 42
	merged := Conditions{Density: 45}.Or(site)
	assert.Equal(t, 45.0, merged.Density)
	assert.Equal(t, c.InletTemperature, merged.InletTemperature)
	assert.Equal(t, 30.0, merged.Ambient())
	assert.Equal(t, 5.0, c.WithAmbient(5).Or(site).Ambient())
}
