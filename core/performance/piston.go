package performance

import (
	"math"

	"github.com/kilianp07/compstation/core/model"
)

// volumetricEfficiency is λ = 1 − r·(π^(1/κ) − 1).
func volumetricEfficiency(c *model.PistonCompressor, ratio, kappa float64) float64 {
	return 1 - c.AdditionalReductionVolFlow*(math.Pow(ratio, 1/kappa)-1)
}

// Capacity returns the delivered inlet flow V·N/60·λ of a piston unit at
// speed n and compression ratio.
func Capacity(c *model.PistonCompressor, n, ratio float64, cond Conditions) float64 {
	cond = cond.WithDefaults()
	return c.OperatingVolume * n / 60 * volumetricEfficiency(c, ratio, cond.IsentropicExponent)
}

// SolvePiston evaluates a piston unit at full capacity for speed n and the
// given compression ratio. A zero ratio selects the rated maximal ratio.
func (s *Solver) SolvePiston(c *model.PistonCompressor, n, ratio float64, cond Conditions) (Point, error) {
	cond = cond.WithDefaults()
	if err := cond.Validate(); err != nil {
		return Point{}, err
	}
	if ratio == 0 {
		ratio = c.MaximalCompressionRatio
	}
	if err := s.envelope.CheckSpeed(c, n); err != nil {
		return Point{}, err
	}
	q := Capacity(c, n, ratio, cond)
	if !(q > 0) {
		return Point{}, &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryCompressionRatio,
			Speed: n, Flow: q, Value: ratio, Limit: c.MaximalCompressionRatio}
	}
	return s.pistonPoint(c, n, q, ratio, cond)
}

func (s *Solver) pistonPoint(c *model.PistonCompressor, n, q, ratio float64, cond Conditions) (Point, error) {
	p := Point{
		CompressorID:  c.ID,
		DriveID:       c.Drive,
		Kind:          model.KindPiston,
		Speed:         n,
		Flow:          q,
		MassFlow:      cond.Density * q,
		Head:          cond.Head(ratio),
		PressureRatio: ratio,
		Efficiency:    c.AdiabaticEfficiency,
	}
	p.ShaftPower = p.MassFlow * p.Head / p.Efficiency
	p.Torque = torque(p.ShaftPower, n)
	if err := s.envelope.CheckPiston(c, n, ratio, p.Torque); err != nil {
		return Point{}, err
	}
	return p, nil
}

// operatePiston derives the compression ratio from the requested head. In
// speed search mode the speed is chosen so capacity equals the requested
// flow; in nominal mode the unit must have at least that capacity and
// recycles the rest.
func (s *Solver) operatePiston(c *model.PistonCompressor, req UnitRequest, cond Conditions) (Point, error) {
	ratio := cond.PressureRatio(req.Head)
	lambda := volumetricEfficiency(c, ratio, cond.IsentropicExponent)
	if !(lambda > 0) {
		return Point{}, &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryCompressionRatio,
			Flow: req.Flow, Value: ratio, Limit: c.MaximalCompressionRatio}
	}
	if req.Mode == ModeNominal {
		n := req.NominalSpeed
		if err := s.envelope.CheckSpeed(c, n); err != nil {
			return Point{}, err
		}
		if capacity := c.OperatingVolume * n / 60 * lambda; req.Flow > capacity*(1+s.opts.EnvelopeTolerance) {
			return Point{}, &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryCapacity,
				Speed: n, Flow: req.Flow, Value: req.Flow, Limit: capacity}
		}
		return s.pistonPoint(c, n, req.Flow, ratio, cond)
	}
	n := req.Flow * 60 / (c.OperatingVolume * lambda)
	if err := s.envelope.CheckSpeed(c, n); err != nil {
		return Point{}, err
	}
	return s.pistonPoint(c, n, req.Flow, ratio, cond)
}
