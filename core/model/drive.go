package model

import (
	"fmt"

	"github.com/kilianp07/compstation/core/surface"
)

// DriveKind names a drive variant using GasLib's element names.
type DriveKind string

const (
	KindGasTurbine     DriveKind = "gasTurbine"
	KindGasDrivenMotor DriveKind = "gasDrivenMotor"
)

// Drive is the prime mover behind one or more compressors. It is implemented
// by *GasTurbine and *GasDrivenMotor.
type Drive interface {
	DriveID() string
	Kind() DriveKind
	// EnergyRate maps output shaft power P to energy rate a + b·P + c·P².
	EnergyRate() surface.Curve
	Validate() error
}

// GasTurbine limits its output by a biquadratic surface over speed and
// ambient temperature.
type GasTurbine struct {
	ID                     string
	EnergyRateCoefficients surface.Curve

	// PowerCoefficients give maximal power over (speed, ambient temperature).
	PowerCoefficients surface.Surface
}

func (g *GasTurbine) DriveID() string           { return g.ID }
func (g *GasTurbine) Kind() DriveKind           { return KindGasTurbine }
func (g *GasTurbine) EnergyRate() surface.Curve { return g.EnergyRateCoefficients }

// MaximalPower returns the available power at speed n and ambient temperature.
func (g *GasTurbine) MaximalPower(n, ambient float64) float64 {
	return g.PowerCoefficients.Evaluate(n, ambient)
}

// Validate checks the drive has an id and a power surface.
func (g *GasTurbine) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("gas turbine: empty id")
	}
	if g.PowerCoefficients.IsZero() {
		return fmt.Errorf("gas turbine %s: power surface has no coefficients", g.ID)
	}
	return nil
}

// GasDrivenMotor is described by measurement tables: maximal power over speed
// and fuel consumption over delivered power.
type GasDrivenMotor struct {
	ID                     string
	EnergyRateCoefficients surface.Curve

	// PowerCoefficients is GasLib's quadratic fit of maximal power over speed.
	// Feasibility uses MaximalPower; the fit is kept for calibration.
	PowerCoefficients         surface.Curve
	SpecificEnergyConsumption *surface.Table
	MaximalPower              *surface.Table
}

func (m *GasDrivenMotor) DriveID() string           { return m.ID }
func (m *GasDrivenMotor) Kind() DriveKind           { return KindGasDrivenMotor }
func (m *GasDrivenMotor) EnergyRate() surface.Curve { return m.EnergyRateCoefficients }

// Validate checks the drive has an id and both measurement tables.
func (m *GasDrivenMotor) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("gas driven motor: empty id")
	}
	if m.SpecificEnergyConsumption == nil || m.SpecificEnergyConsumption.Len() == 0 {
		return fmt.Errorf("gas driven motor %s: missing specific energy consumption measurements", m.ID)
	}
	if m.MaximalPower == nil || m.MaximalPower.Len() == 0 {
		return fmt.Errorf("gas driven motor %s: missing maximal power measurements", m.ID)
	}
	return nil
}
