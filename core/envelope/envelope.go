// Package envelope decides whether an operating point lies inside a
// compressor's admissible operating region.
//
// For turbo compressors the region is bounded by the speed limits, the surge
// line (high head at low flow) and the choke line (low head at high flow).
// Both lines give head as a function of flow, so a point (N, Q) is compared
// through the head H(N, Q) the head isoline assigns to it. Piston compressors
// are bounded by speed, compression ratio, torque and swept capacity.
//
// Boundaries are inclusive up to a relative tolerance.
package envelope

import (
	"fmt"
	"math"

	"github.com/kilianp07/compstation/core/model"
)

// DefaultTolerance is the relative tolerance applied at every boundary.
const DefaultTolerance = 1e-6

// Validator checks operating points. The zero value uses DefaultTolerance.
type Validator struct {
	Tolerance float64
}

// New returns a Validator with the given relative tolerance. Non-positive
// values select DefaultTolerance.
func New(tolerance float64) *Validator {
	return &Validator{Tolerance: tolerance}
}

func (v *Validator) tol() float64 {
	if v == nil || !(v.Tolerance > 0) {
		return DefaultTolerance
	}
	return v.Tolerance
}

// exceeds reports whether value lies above limit by more than the tolerance.
func (v *Validator) exceeds(value, limit float64) bool {
	scale := math.Max(1, math.Max(math.Abs(value), math.Abs(limit)))
	return value-limit > v.tol()*scale
}

// CheckSpeed returns a *model.SpeedError when n lies outside the
// compressor's speed range.
func (v *Validator) CheckSpeed(c model.Compressor, n float64) error {
	lo, hi := c.SpeedRange()
	if math.IsNaN(n) || v.exceeds(lo, n) || v.exceeds(n, hi) {
		return &model.SpeedError{CompressorID: c.CompressorID(), Speed: n, Min: lo, Max: hi}
	}
	return nil
}

// Check validates speed n and flow q against the compressor's envelope. Turbo
// units are checked against surge and choke; piston units against their
// swept capacity V·N/60. Violations are *model.SpeedError or
// *model.InfeasibleError.
func (v *Validator) Check(c model.Compressor, n, q float64) error {
	switch c := c.(type) {
	case *model.TurboCompressor:
		return v.CheckTurbo(c, n, q)
	case *model.PistonCompressor:
		if err := v.CheckSpeed(c, n); err != nil {
			return err
		}
		if limit := c.OperatingVolume * n / 60; v.exceeds(q, limit) {
			return &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryCapacity,
				Speed: n, Flow: q, Value: q, Limit: limit}
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported compressor %T", model.ErrInvalidRequest, c)
}

// IsFeasible reports whether Check accepts the point.
func (v *Validator) IsFeasible(c model.Compressor, n, q float64) bool {
	return v.Check(c, n, q) == nil
}

// CheckTurbo validates (n, q) against speed limits, then surge, then choke.
func (v *Validator) CheckTurbo(c *model.TurboCompressor, n, q float64) error {
	if err := v.CheckSpeed(c, n); err != nil {
		return err
	}
	h := c.Head(n, q)
	if math.IsNaN(h) || math.IsNaN(q) {
		return &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundarySurge,
			Speed: n, Flow: q, Value: h, Limit: math.NaN()}
	}
	if surge := c.SurgeLine.Evaluate(q); v.exceeds(h, surge) {
		return &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundarySurge,
			Speed: n, Flow: q, Value: h, Limit: surge}
	}
	if choke := c.ChokeLine.Evaluate(q); v.exceeds(choke, h) {
		return &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryChoke,
			Speed: n, Flow: q, Value: h, Limit: choke}
	}
	return nil
}

// Margin is the signed distance of an operating point to each boundary.
// Positive values lie inside the envelope. Speed margins are in 1/min, head
// margins in the head unit of the isoline.
type Margin struct {
	SpeedLow  float64 `json:"speed_low"`
	SpeedHigh float64 `json:"speed_high"`
	Surge     float64 `json:"surge"`
	Choke     float64 `json:"choke"`
}

// Head returns the smaller of the surge and choke margins.
func (m Margin) Head() float64 { return math.Min(m.Surge, m.Choke) }

// Speed returns the smaller of the two speed margins.
func (m Margin) Speed() float64 { return math.Min(m.SpeedLow, m.SpeedHigh) }

// Inside reports whether every margin is non-negative.
func (m Margin) Inside() bool { return m.Head() >= 0 && m.Speed() >= 0 }

// Distance returns the margins of (n, q) for a turbo compressor.
func (v *Validator) Distance(c *model.TurboCompressor, n, q float64) Margin {
	h := c.Head(n, q)
	return Margin{
		SpeedLow:  n - c.SpeedMin,
		SpeedHigh: c.SpeedMax - n,
		Surge:     c.SurgeLine.Evaluate(q) - h,
		Choke:     h - c.ChokeLine.Evaluate(q),
	}
}

// CheckPiston validates a piston operating point at speed n, compression
// ratio and shaft torque in kNm.
func (v *Validator) CheckPiston(c *model.PistonCompressor, n, ratio, torque float64) error {
	if err := v.CheckSpeed(c, n); err != nil {
		return err
	}
	if math.IsNaN(ratio) || ratio < 1 || v.exceeds(ratio, c.MaximalCompressionRatio) {
		return &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryCompressionRatio,
			Speed: n, Value: ratio, Limit: c.MaximalCompressionRatio}
	}
	if c.MaximalTorque > 0 && v.exceeds(torque, c.MaximalTorque) {
		return &model.InfeasibleError{CompressorID: c.ID, Boundary: model.BoundaryTorque,
			Speed: n, Value: torque, Limit: c.MaximalTorque}
	}
	return nil
}
