package surface

import (
	"fmt"
	"sort"
)

// Sample is one measured point of a compressor map.
type Sample struct {
	Speed float64 `json:"speed"`
	Head  float64 `json:"head"`
	Flow  float64 `json:"flow"`
}

// IsoCurve groups samples sharing one value of a map quantity. Samples are
// ordered by strictly increasing speed.
type IsoCurve struct {
	Value   float64  `json:"value"`
	Samples []Sample `json:"samples"`
}

// Diagram interpolates a map quantity (adiabatic efficiency in GasLib data)
// from its iso curves. For a query (N, Q) every curve's flow is interpolated
// at speed N, the curves are ordered by that flow and the value is
// interpolated linearly in Q between the two curves bracketing it.
type Diagram struct {
	curves []IsoCurve
	flows  []*Table
}

type diagramPoint struct {
	flow  float64
	value float64
}

// NewDiagram validates the curves and builds the per-curve speed→flow tables.
func NewDiagram(curves []IsoCurve) (*Diagram, error) {
	d := &Diagram{
		curves: make([]IsoCurve, len(curves)),
		flows:  make([]*Table, len(curves)),
	}
	for i, c := range curves {
		speeds := make([]float64, len(c.Samples))
		flows := make([]float64, len(c.Samples))
		for j, s := range c.Samples {
			speeds[j] = s.Speed
			flows[j] = s.Flow
		}
		t, err := NewTable(speeds, flows)
		if err != nil {
			return nil, fmt.Errorf("iso curve %d (value %g): %w", i, c.Value, err)
		}
		d.curves[i] = IsoCurve{Value: c.Value, Samples: append([]Sample(nil), c.Samples...)}
		d.flows[i] = t
	}
	return d, nil
}

// Len returns the number of iso curves.
func (d *Diagram) Len() int {
	if d == nil {
		return 0
	}
	return len(d.curves)
}

// Curves returns a copy of the iso curves.
func (d *Diagram) Curves() []IsoCurve {
	if d == nil {
		return nil
	}
	out := make([]IsoCurve, len(d.curves))
	for i, c := range d.curves {
		out[i] = IsoCurve{Value: c.Value, Samples: append([]Sample(nil), c.Samples...)}
	}
	return out
}

// Lookup returns the interpolated value at speed n and flow q. clamped is
// true when n lies outside a curve's sampled speeds or q outside the
// outermost curves; the nearest measured value is used in that case.
func (d *Diagram) Lookup(n, q float64) (value float64, clamped bool) {
	pts := make([]diagramPoint, len(d.curves))
	for i, t := range d.flows {
		f, cl := t.Lookup(n)
		clamped = clamped || cl
		pts[i] = diagramPoint{flow: f, value: d.curves[i].Value}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].flow < pts[j].flow })

	last := len(pts) - 1
	if q <= pts[0].flow {
		return pts[0].value, clamped || q < pts[0].flow
	}
	if q >= pts[last].flow {
		return pts[last].value, clamped || q > pts[last].flow
	}
	for i := 0; i < last; i++ {
		lo, hi := pts[i], pts[i+1]
		if q > hi.flow {
			continue
		}
		if hi.flow == lo.flow {
			return lo.value, clamped
		}
		t := (q - lo.flow) / (hi.flow - lo.flow)
		return lo.value + t*(hi.value-lo.value), clamped
	}
	return pts[last].value, clamped
}
