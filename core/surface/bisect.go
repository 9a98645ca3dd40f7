package surface

import (
	"errors"
	"math"
)

var (
	// ErrNotBracketed is returned when f has the same sign at both ends.
	ErrNotBracketed = errors.New("root not bracketed")
	// ErrIterationLimit is returned when the iteration budget is spent before
	// |f(x)| falls within tolerance.
	ErrIterationLimit = errors.New("iteration limit reached")
)

// Bisect searches [lo, hi] for x with |f(x)| <= tol, halving the bracket at
// most maxIter times. It returns the last midpoint and the number of
// iterations used. Only evaluability and a sign change are required of f.
func Bisect(f func(float64) float64, lo, hi, tol float64, maxIter int) (float64, int, error) {
	flo, fhi := f(lo), f(hi)
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return math.NaN(), 0, ErrNotBracketed
	}
	if math.Abs(flo) <= tol {
		return lo, 0, nil
	}
	if math.Abs(fhi) <= tol {
		return hi, 0, nil
	}
	if math.Signbit(flo) == math.Signbit(fhi) {
		return math.NaN(), 0, ErrNotBracketed
	}
	mid := lo + (hi-lo)/2
	for i := 1; i <= maxIter; i++ {
		mid = lo + (hi-lo)/2
		fm := f(mid)
		if math.Abs(fm) <= tol {
			return mid, i, nil
		}
		if math.Signbit(fm) == math.Signbit(flo) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return mid, maxIter, ErrIterationLimit
}
