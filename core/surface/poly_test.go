package surface

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// compressor_5 of GasLib compressorStation_1.
var headIsoline = Surface{0, 0.003188014166666666, 0, 0, 0, 0, -0.5141533271582497, 1.07115276491302e-05, 0}

func TestSurface_EvaluateOrientation(t *testing.T) {
	for k := 0; k < 9; k++ {
		var s Surface
		s[k] = 1
		n, q := 3.0, 5.0
		want := math.Pow(q, float64(k/3)) * math.Pow(n, float64(k%3))
		assert.InDelta(t, want, s.Evaluate(n, q), 1e-12, "coefficient %d", k+1)
	}
}

func TestSurface_ReproducesSurgeSample(t *testing.T) {
	// (3435 /min, 0.431295 m³/s) measured at 10.86203250541377 kJ/kg.
	got := headIsoline.Evaluate(3435, 0.431295)
	assert.InEpsilon(t, 10.86203250541377, got, 1e-9)
}

func TestSurface_PropagatesNaN(t *testing.T) {
	assert.True(t, math.IsNaN(headIsoline.Evaluate(math.NaN(), 1)))
	// 0·Inf is NaN, so an infinite speed yields NaN or Inf, never a finite value.
	v := Surface{0, 1}.Evaluate(math.Inf(1), 0)
	assert.True(t, math.IsNaN(v) || math.IsInf(v, 0))
}

func TestCurve_Evaluate(t *testing.T) {
	c := Curve{-16.24518371417187, 62.85075463333899, 0}
	assert.InDelta(t, -16.24518371417187+62.85075463333899*0.5, c.Evaluate(0.5), 1e-12)
	assert.Equal(t, 2.0+3*2+4*4, Curve{2, 3, 4}.Evaluate(2))
	assert.True(t, Curve{}.IsZero())
	assert.False(t, headIsoline.IsZero())
}
