// Package calibration compares the fitted surfaces of a station against the
// measurements shipped with it. It is a review tool: nothing in the engine
// depends on its results.
package calibration

import (
	"math"

	"github.com/kilianp07/compstation/core/envelope"
	"github.com/kilianp07/compstation/core/model"
)

// DefaultTolerance is the relative residual accepted for head and surge
// line fits.
const DefaultTolerance = 0.01

// FindingKind names the compared quantity.
type FindingKind string

const (
	FindingHead         FindingKind = "head_isoline"
	FindingEfficiency   FindingKind = "efficiency_isoline"
	FindingDiagram      FindingKind = "efficiency_diagram"
	FindingSurgeLine    FindingKind = "surge_line"
	FindingSurgeOutside FindingKind = "surge_sample_outside_envelope"
	FindingMaximalPower FindingKind = "maximal_power_fit"
)

// Finding is one measurement whose fitted value deviates beyond tolerance.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Speed    float64     `json:"speed"`
	Flow     float64     `json:"flow"`
	Expected float64     `json:"expected"`
	Actual   float64     `json:"actual"`
	Residual float64     `json:"residual"`
}

// Report summarizes one compressor or drive. Max residuals are relative.
type Report struct {
	Subject               string    `json:"subject"`
	Samples               int       `json:"samples"`
	SurgeSamples          int       `json:"surge_samples"`
	MaxHeadResidual       float64   `json:"max_head_residual"`
	MaxEfficiencyResidual float64   `json:"max_efficiency_residual"`
	MaxDiagramResidual    float64   `json:"max_diagram_residual"`
	MaxSurgeResidual      float64   `json:"max_surge_residual"`
	SurgeOutside          int       `json:"surge_outside"`
	Findings              []Finding `json:"findings,omitempty"`
}

// Passed reports whether the head and surge fits are within tolerance and
// every surge sample lies inside the envelope. The efficiency polynomial is
// reported but not judged: GasLib's efficiency fits are coarse.
func (r Report) Passed(tol float64) bool {
	return r.MaxHeadResidual <= tol && r.MaxSurgeResidual <= tol && r.SurgeOutside == 0
}

type checker struct {
	tol    float64
	report *Report
}

func (c *checker) compare(kind FindingKind, speed, flow, expected, actual float64, max *float64) {
	res := relative(expected, actual)
	if res > *max || math.IsNaN(res) {
		*max = res
	}
	if res > c.tol || math.IsNaN(res) {
		c.report.Findings = append(c.report.Findings, Finding{
			Kind: kind, Speed: speed, Flow: flow, Expected: expected, Actual: actual, Residual: res,
		})
	}
}

// Check compares a turbo compressor's isolines and surge line with its
// surge and characteristic diagram measurements. tol <= 0 selects
// DefaultTolerance.
func Check(c *model.TurboCompressor, tol float64) Report {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	r := Report{Subject: c.ID}
	ch := checker{tol: tol, report: &r}
	env := envelope.New(0)

	for _, curve := range c.Diagram.Curves() {
		for _, s := range curve.Samples {
			r.Samples++
			ch.compare(FindingHead, s.Speed, s.Flow, s.Head, c.Head(s.Speed, s.Flow), &r.MaxHeadResidual)
			// Efficiencies are compared on their own scale, never flagged individually.
			if res := relative(curve.Value, c.EfficiencyIsoline.Evaluate(s.Speed, s.Flow)); res > r.MaxEfficiencyResidual {
				r.MaxEfficiencyResidual = res
			}
			v, _ := c.Diagram.Lookup(s.Speed, s.Flow)
			ch.compare(FindingDiagram, s.Speed, s.Flow, curve.Value, v, &r.MaxDiagramResidual)
		}
	}
	for _, s := range c.SurgeMeasurements {
		r.SurgeSamples++
		ch.compare(FindingSurgeLine, s.Speed, s.Flow, s.Head, c.SurgeLine.Evaluate(s.Flow), &r.MaxSurgeResidual)
		ch.compare(FindingHead, s.Speed, s.Flow, s.Head, c.Head(s.Speed, s.Flow), &r.MaxHeadResidual)
		if err := env.Check(c, s.Speed, s.Flow); err != nil {
			r.SurgeOutside++
			r.Findings = append(r.Findings, Finding{Kind: FindingSurgeOutside, Speed: s.Speed, Flow: s.Flow,
				Expected: s.Head, Actual: c.Head(s.Speed, s.Flow)})
		}
	}
	return r
}

// CheckMotor compares a gas driven motor's quadratic power fit with its
// maximal power measurements.
func CheckMotor(m *model.GasDrivenMotor, tol float64) Report {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	r := Report{Subject: m.ID}
	if m.MaximalPower == nil {
		return r
	}
	ch := checker{tol: tol, report: &r}
	xs, ys := m.MaximalPower.Points()
	for i := range xs {
		r.Samples++
		ch.compare(FindingMaximalPower, xs[i], 0, ys[i], m.PowerCoefficients.Evaluate(xs[i]), &r.MaxHeadResidual)
	}
	return r
}

// CheckStation reports every turbo compressor and gas driven motor of st.
func CheckStation(st *model.Station, tol float64) []Report {
	var out []Report
	for _, c := range st.Compressors() {
		if t, ok := c.(*model.TurboCompressor); ok {
			out = append(out, Check(t, tol))
		}
	}
	for _, d := range st.Drives() {
		if m, ok := d.(*model.GasDrivenMotor); ok {
			out = append(out, CheckMotor(m, tol))
		}
	}
	return out
}

func relative(expected, actual float64) float64 {
	scale := math.Max(math.Abs(expected), 1e-12)
	return math.Abs(actual-expected) / scale
}
