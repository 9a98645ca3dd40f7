// Package performance computes single-unit operating points: head,
// efficiency and shaft power of turbo and piston compressors, and the speed
// at which a turbo unit delivers a target head.
package performance

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/compstation/core/envelope"
	"github.com/kilianp07/compstation/core/logger"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/surface"
)

// EfficiencySource selects how turbo efficiency is obtained.
type EfficiencySource string

const (
	// EfficiencyDiagram interpolates the measured iso-efficiency curves and
	// falls back to the polynomial when a unit has none.
	EfficiencyDiagram EfficiencySource = "diagram"
	// EfficiencyPolynomial evaluates the fitted efficiency isoline.
	EfficiencyPolynomial EfficiencySource = "polynomial"
)

// Mode selects how the operating speed of a unit is chosen.
type Mode string

const (
	// ModeSpeedSearch finds the speed delivering the requested head.
	ModeSpeedSearch Mode = "speed_search"
	// ModeNominal runs at the configuration's nominal speed.
	ModeNominal Mode = "nominal"
)

// Options tune the solver. Zero values select the defaults.
type Options struct {
	Efficiency        EfficiencySource `json:"efficiency"`
	HeadTolerance     float64          `json:"head_tolerance"`
	MaxIterations     int              `json:"max_iterations"`
	EnvelopeTolerance float64          `json:"envelope_tolerance"`
}

const (
	DefaultHeadTolerance = 1e-6
	DefaultMaxIterations = 50
)

// minEfficiency floors clamped efficiencies of units without a choke line
// efficiency.
const minEfficiency = 0.01

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Efficiency == "" {
		o.Efficiency = EfficiencyDiagram
	}
	if o.HeadTolerance <= 0 {
		o.HeadTolerance = DefaultHeadTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.EnvelopeTolerance <= 0 {
		o.EnvelopeTolerance = envelope.DefaultTolerance
	}
}

// Validate checks the efficiency source.
func (o Options) Validate() error {
	if o.Efficiency != EfficiencyDiagram && o.Efficiency != EfficiencyPolynomial {
		return fmt.Errorf("unknown efficiency source %q", o.Efficiency)
	}
	return nil
}

// Point is a solved unit operating point. Flow is volumetric at the unit
// inlet in m³/s, Head in kJ/kg, ShaftPower in kW and Torque in kNm.
type Point struct {
	CompressorID  string               `json:"compressor_id"`
	DriveID       string               `json:"drive_id"`
	Kind          model.CompressorKind `json:"kind"`
	Speed         float64              `json:"speed"`
	Flow          float64              `json:"flow"`
	MassFlow      float64              `json:"mass_flow"`
	Head          float64              `json:"head"`
	PressureRatio float64              `json:"pressure_ratio"`
	Efficiency    float64              `json:"efficiency"`
	ShaftPower    float64              `json:"shaft_power"`
	Torque        float64              `json:"torque"`
	Iterations    int                  `json:"iterations,omitempty"`
	Diagnostics   []model.Diagnostic   `json:"diagnostics,omitempty"`
}

// UnitRequest asks Operate for a unit delivering Head at volumetric Flow.
type UnitRequest struct {
	Flow         float64
	Head         float64
	NominalSpeed float64
	Mode         Mode
}

// Solver is stateless apart from its options and is safe for concurrent use.
type Solver struct {
	opts     Options
	envelope *envelope.Validator
	log      logger.Logger
}

// NewSolver returns a Solver. A nil logger discards diagnostics logging.
func NewSolver(opts Options, log logger.Logger) *Solver {
	opts.SetDefaults()
	return &Solver{
		opts:     opts,
		envelope: envelope.New(opts.EnvelopeTolerance),
		log:      logger.OrNop(log),
	}
}

// Options returns the effective options.
func (s *Solver) Options() Options { return s.opts }

// Envelope returns the validator used for feasibility checks.
func (s *Solver) Envelope() *envelope.Validator { return s.envelope }

// SolveTurbo evaluates a turbo unit at speed n and inlet flow q.
func (s *Solver) SolveTurbo(c *model.TurboCompressor, n, q float64, cond Conditions) (Point, error) {
	cond = cond.WithDefaults()
	if err := cond.Validate(); err != nil {
		return Point{}, err
	}
	if err := s.envelope.CheckTurbo(c, n, q); err != nil {
		return Point{}, err
	}
	p := Point{
		CompressorID: c.ID,
		DriveID:      c.Drive,
		Kind:         model.KindTurbo,
		Speed:        n,
		Flow:         q,
		MassFlow:     cond.Density * q,
		Head:         c.Head(n, q),
	}
	p.PressureRatio = cond.PressureRatio(p.Head)
	p.Efficiency = s.turboEfficiency(c, n, q, &p.Diagnostics)
	p.ShaftPower = p.MassFlow * p.Head / p.Efficiency
	p.Torque = torque(p.ShaftPower, n)
	return p, nil
}

func (s *Solver) turboEfficiency(c *model.TurboCompressor, n, q float64, diags *[]model.Diagnostic) float64 {
	var eta float64
	if s.opts.Efficiency == EfficiencyDiagram && c.Diagram.Len() > 0 {
		v, clamped := c.Diagram.Lookup(n, q)
		if clamped {
			s.diagnose(diags, model.Diagnostic{Kind: model.DiagnosticDiagramExtrapolation,
				Subject: c.ID, Value: q, Bound: v})
		}
		eta = v
	} else {
		eta = c.EfficiencyIsoline.Evaluate(n, q)
	}
	floor := c.EfficiencyOfChokeline
	if !(floor > 0 && floor <= 1) {
		floor = minEfficiency
	}
	switch {
	case eta > 1:
		s.diagnose(diags, model.Diagnostic{Kind: model.DiagnosticEfficiencyClamped, Subject: c.ID, Value: eta, Bound: 1})
		eta = 1
	case !(eta > 0):
		s.diagnose(diags, model.Diagnostic{Kind: model.DiagnosticEfficiencyClamped, Subject: c.ID, Value: eta, Bound: floor})
		eta = floor
	}
	return eta
}

func (s *Solver) diagnose(diags *[]model.Diagnostic, d model.Diagnostic) {
	s.log.Warnf("%s", d)
	*diags = append(*diags, d)
}

// SpeedForHead returns the speed at which the turbo unit delivers head at
// inlet flow q, and the number of bisection steps taken.
func (s *Solver) SpeedForHead(c *model.TurboCompressor, q, head float64) (float64, int, error) {
	f := func(n float64) float64 { return c.Head(n, q) - head }
	n, iters, err := surface.Bisect(f, c.SpeedMin, c.SpeedMax, s.opts.HeadTolerance, s.opts.MaxIterations)
	switch {
	case errors.Is(err, surface.ErrNotBracketed):
		return 0, 0, &model.SpeedError{CompressorID: c.ID, Speed: math.NaN(),
			Min: c.SpeedMin, Max: c.SpeedMax, TargetHead: head}
	case errors.Is(err, surface.ErrIterationLimit):
		return n, iters, fmt.Errorf("compressor %s: head %g at flow %g not met within %g after %d iterations: %w",
			c.ID, head, q, s.opts.HeadTolerance, iters, model.ErrRootFindDidNotConverge)
	case err != nil:
		return 0, iters, err
	}
	s.log.Debugw("speed search converged", map[string]any{
		"compressor": c.ID, "flow": q, "head": head, "speed": n, "iterations": iters,
	})
	return n, iters, nil
}

// Operate solves a unit for the resolver: the speed comes from the request
// mode and the unit variant decides how head and flow are met.
func (s *Solver) Operate(c model.Compressor, req UnitRequest, cond Conditions) (Point, error) {
	cond = cond.WithDefaults()
	if err := cond.Validate(); err != nil {
		return Point{}, err
	}
	if !(req.Flow > 0) || !(req.Head > 0) {
		return Point{}, fmt.Errorf("%w: flow and head must be positive (flow %g, head %g)",
			model.ErrInvalidRequest, req.Flow, req.Head)
	}
	switch c := c.(type) {
	case *model.TurboCompressor:
		return s.operateTurbo(c, req, cond)
	case *model.PistonCompressor:
		return s.operatePiston(c, req, cond)
	}
	return Point{}, fmt.Errorf("%w: unsupported compressor %T", model.ErrInvalidRequest, c)
}

func (s *Solver) operateTurbo(c *model.TurboCompressor, req UnitRequest, cond Conditions) (Point, error) {
	if req.Mode == ModeNominal {
		p, err := s.SolveTurbo(c, req.NominalSpeed, req.Flow, cond)
		if err != nil {
			return Point{}, err
		}
		if p.Head < req.Head-s.opts.HeadTolerance {
			return Point{}, &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryHead,
				Speed: p.Speed, Flow: p.Flow, Value: p.Head, Limit: req.Head}
		}
		return p, nil
	}
	n, iters, err := s.SpeedForHead(c, req.Flow, req.Head)
	if err != nil {
		return Point{}, err
	}
	p, err := s.SolveTurbo(c, n, req.Flow, cond)
	if err != nil {
		return Point{}, err
	}
	p.Iterations = iters
	return p, nil
}

// torque converts shaft power in kW at n 1/min to kNm.
func torque(power, n float64) float64 {
	return power / (2 * math.Pi * n / 60)
}
