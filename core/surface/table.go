package surface

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// ErrMalformedTable is returned when measurement data cannot back a Table.
var ErrMalformedTable = errors.New("malformed measurement table")

// Table is an ordered measurement table with strictly increasing x values,
// interpolated piecewise-linearly. Queries outside the measured range are
// clamped to the nearest endpoint and reported as such; the line is never
// extended.
type Table struct {
	xs []float64
	ys []float64
	pl *interp.PiecewiseLinear
}

// NewTable validates and copies the points. A single point is a valid table
// whose value is constant.
func NewTable(xs, ys []float64) (*Table, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values for %d y values", ErrMalformedTable, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrMalformedTable)
	}
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			return nil, fmt.Errorf("%w: non-finite point %d", ErrMalformedTable, i)
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("%w: x not strictly increasing at point %d (%g after %g)",
				ErrMalformedTable, i, xs[i], xs[i-1])
		}
	}
	t := &Table{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	if len(xs) > 1 {
		pl := &interp.PiecewiseLinear{}
		if err := pl.Fit(t.xs, t.ys); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		t.pl = pl
	}
	return t, nil
}

// Lookup returns the interpolated value at x. clamped is true when x lies
// outside the measured range and the endpoint value was returned instead.
func (t *Table) Lookup(x float64) (y float64, clamped bool) {
	if math.IsNaN(x) {
		return math.NaN(), false
	}
	n := len(t.xs)
	switch {
	case x < t.xs[0]:
		return t.ys[0], true
	case x > t.xs[n-1]:
		return t.ys[n-1], true
	case n == 1:
		return t.ys[0], false
	}
	return t.pl.Predict(x), false
}

// Domain returns the smallest and largest measured x.
func (t *Table) Domain() (lo, hi float64) {
	return t.xs[0], t.xs[len(t.xs)-1]
}

// Len returns the number of points.
func (t *Table) Len() int { return len(t.xs) }

// Points returns copies of the table's x and y values.
func (t *Table) Points() (xs, ys []float64) {
	return append([]float64(nil), t.xs...), append([]float64(nil), t.ys...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
