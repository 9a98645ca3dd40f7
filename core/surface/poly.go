package surface

import "gonum.org/v1/gonum/mat"

// Surface holds the nine coefficients of a biquadratic fit over speed N and a
// second variable Q (volumetric flow for compressor isolines, ambient
// temperature for gas turbine power).
//
// Coefficient k = 3i+j+1 multiplies Q^i·N^j, which is the orientation GasLib
// coefficients are fitted in:
//
//	v = c1 + c2·N + c3·N² + c4·Q + c5·Q·N + c6·Q·N² + c7·Q² + c8·Q²·N + c9·Q²·N²
type Surface [9]float64

// Evaluate returns qᵀ·C·n with q = (1, Q, Q²), n = (1, N, N²) and C the
// row-major 3×3 coefficient matrix.
func (s Surface) Evaluate(n, q float64) float64 {
	c := s
	return mat.Inner(powers(q), mat.NewDense(3, 3, c[:]), powers(n))
}

// IsZero reports whether every coefficient is zero.
func (s Surface) IsZero() bool { return s == Surface{} }

// Curve holds the three coefficients of y = c1 + c2·x + c3·x².
type Curve [3]float64

// Evaluate returns the curve value at x.
func (c Curve) Evaluate(x float64) float64 {
	return c[0] + c[1]*x + c[2]*x*x
}

// IsZero reports whether every coefficient is zero.
func (c Curve) IsZero() bool { return c == Curve{} }

func powers(x float64) *mat.VecDense {
	return mat.NewVecDense(3, []float64{1, x, x * x})
}
