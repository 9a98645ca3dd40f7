package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/surface"
	"github.com/kilianp07/compstation/test/util"
)

func TestCheck_BundledTurboFits(t *testing.T) {
	c := util.Turbo(t, "compressorStation_1", "compressor_5")

	r := Check(c, 0)
	assert.Equal(t, "compressor_5", r.Subject)
	assert.Equal(t, 72, r.Samples)
	assert.Equal(t, 9, r.SurgeSamples)
	assert.Less(t, r.MaxHeadResidual, 1e-9)
	assert.Less(t, r.MaxSurgeResidual, 1e-9)
	assert.Less(t, r.MaxDiagramResidual, 1e-9)
	assert.Zero(t, r.SurgeOutside)
	assert.Empty(t, r.Findings)
	assert.True(t, r.Passed(DefaultTolerance))

	// The efficiency polynomial is a coarse fit and is reported only.
	assert.Greater(t, r.MaxEfficiencyResidual, 0.1)
}

func TestCheck_FlagsShiftedSurgeLine(t *testing.T) {
	orig := util.Turbo(t, "compressorStation_1", "compressor_5")
	c := *orig
	c.SurgeLine = surface.Curve{orig.SurgeLine[0] - 5, orig.SurgeLine[1], orig.SurgeLine[2]}

	r := Check(&c, 0)
	assert.False(t, r.Passed(DefaultTolerance))
	assert.Greater(t, r.MaxSurgeResidual, DefaultTolerance)
	assert.Equal(t, r.SurgeSamples, r.SurgeOutside)

	var surge, outside int
	for _, f := range r.Findings {
		switch f.Kind {
		case FindingSurgeLine:
			surge++
		case FindingSurgeOutside:
			outside++
		}
	}
	assert.Equal(t, r.SurgeSamples, surge)
	assert.Equal(t, r.SurgeSamples, outside)
}

func TestCheckMotor(t *testing.T) {
	st := util.Station(t, "compressorStation_5")
	d, ok := st.Drive("drive_2")
	require.True(t, ok)
	m, ok := d.(*model.GasDrivenMotor)
	require.True(t, ok)

	r := CheckMotor(m, 0)
	assert.Equal(t, 3, r.Samples)
	assert.Empty(t, r.Findings)

	m2 := *m
	m2.PowerCoefficients = surface.Curve{m.PowerCoefficients[0] + 1000, m.PowerCoefficients[1], m.PowerCoefficients[2]}
	r = CheckMotor(&m2, 0)
	require.Len(t, r.Findings, 3)
	assert.Equal(t, FindingMaximalPower, r.Findings[0].Kind)
	assert.InDelta(t, 1000, r.Findings[0].Actual-r.Findings[0].Expected, 1e-6)
}

func TestCheckStation(t *testing.T) {
	st := util.Station(t, "compressorStation_5")
	reports := CheckStation(st, 0)
	require.NotEmpty(t, reports)
	subjects := map[string]bool{}
	for _, r := range reports {
		subjects[r.Subject] = true
	}
	assert.True(t, subjects["compressor_1"])
	assert.True(t, subjects["drive_2"])
	assert.False(t, subjects["compressor_2"], "piston compressors carry no characteristic map")
}
