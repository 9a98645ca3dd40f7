package model

import (
	"fmt"
	"math"

	"github.com/kilianp07/compstation/core/surface"
)

// CompressorKind names a compressor variant using GasLib's element names.
type CompressorKind string

const (
	KindTurbo  CompressorKind = "turboCompressor"
	KindPiston CompressorKind = "pistonCompressor"
)

// Compressor is implemented by *TurboCompressor and *PistonCompressor.
type Compressor interface {
	CompressorID() string
	Kind() CompressorKind
	// DriveID is the id of the drive powering the unit.
	DriveID() string
	// SpeedRange returns the admissible speed interval in 1/min.
	SpeedRange() (min, max float64)
	Validate() error
}

// TurboCompressor is a centrifugal unit described by a fitted characteristic
// map: head and efficiency isolines over (speed, flow), bounded by the surge
// and choke lines.
type TurboCompressor struct {
	ID       string
	Drive    string
	SpeedMin float64
	SpeedMax float64

	HeadIsoline       surface.Surface
	EfficiencyIsoline surface.Surface

	// SurgeLine and ChokeLine give head as a function of flow.
	SurgeLine             surface.Curve
	ChokeLine             surface.Curve
	EfficiencyOfChokeline float64

	SurgeMeasurements []surface.Sample

	// Diagram holds the iso-efficiency measurements. Nil when the description
	// carries none.
	Diagram *surface.Diagram
}

func (c *TurboCompressor) CompressorID() string { return c.ID }
func (c *TurboCompressor) Kind() CompressorKind { return KindTurbo }
func (c *TurboCompressor) DriveID() string      { return c.Drive }
func (c *TurboCompressor) SpeedRange() (float64, float64) {
	return c.SpeedMin, c.SpeedMax
}

// Head evaluates the head isoline at speed n and flow q.
func (c *TurboCompressor) Head(n, q float64) float64 { return c.HeadIsoline.Evaluate(n, q) }

// Validate checks speed limits, isolines and the ordering of surge samples.
func (c *TurboCompressor) Validate() error {
	if err := validateSpeedRange(c.ID, c.SpeedMin, c.SpeedMax); err != nil {
		return err
	}
	if c.HeadIsoline.IsZero() {
		return fmt.Errorf("compressor %s: head isoline has no coefficients", c.ID)
	}
	if c.SurgeLine.IsZero() || c.ChokeLine.IsZero() {
		return fmt.Errorf("compressor %s: surge and choke lines are required", c.ID)
	}
	for i := 1; i < len(c.SurgeMeasurements); i++ {
		if c.SurgeMeasurements[i].Speed <= c.SurgeMeasurements[i-1].Speed {
			return fmt.Errorf("compressor %s: surge measurements not ordered by speed at %d", c.ID, i)
		}
	}
	return nil
}

// PistonCompressor is a positive displacement unit whose performance is a
// closed form of speed, swept volume and compression ratio.
type PistonCompressor struct {
	ID       string
	Drive    string
	SpeedMin float64
	SpeedMax float64

	// OperatingVolume is the swept volume per revolution in m³.
	OperatingVolume float64
	// MaximalTorque in kNm; zero means unlimited.
	MaximalTorque           float64
	MaximalCompressionRatio float64
	AdiabaticEfficiency     float64
	// AdditionalReductionVolFlow derates volumetric efficiency with the
	// compression ratio.
	AdditionalReductionVolFlow float64
}

func (c *PistonCompressor) CompressorID() string { return c.ID }
func (c *PistonCompressor) Kind() CompressorKind { return KindPiston }
func (c *PistonCompressor) DriveID() string      { return c.Drive }
func (c *PistonCompressor) SpeedRange() (float64, float64) {
	return c.SpeedMin, c.SpeedMax
}

// Validate checks speed limits and the closed-form parameters.
func (c *PistonCompressor) Validate() error {
	if err := validateSpeedRange(c.ID, c.SpeedMin, c.SpeedMax); err != nil {
		return err
	}
	switch {
	case !(c.OperatingVolume > 0):
		return fmt.Errorf("compressor %s: operating volume must be positive", c.ID)
	case c.MaximalTorque < 0:
		return fmt.Errorf("compressor %s: maximal torque must not be negative", c.ID)
	case !(c.MaximalCompressionRatio > 1):
		return fmt.Errorf("compressor %s: maximal compression ratio must exceed 1", c.ID)
	case !(c.AdiabaticEfficiency > 0 && c.AdiabaticEfficiency <= 1):
		return fmt.Errorf("compressor %s: adiabatic efficiency must be in (0,1]", c.ID)
	case c.AdditionalReductionVolFlow < 0:
		return fmt.Errorf("compressor %s: additional reduction must not be negative", c.ID)
	}
	return nil
}

func validateSpeedRange(id string, lo, hi float64) error {
	if id == "" {
		return fmt.Errorf("compressor: empty id")
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || lo <= 0 || lo >= hi {
		return fmt.Errorf("compressor %s: invalid speed range [%g, %g]", id, lo, hi)
	}
	return nil
}
