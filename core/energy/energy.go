// Package energy converts the shaft power a drive must deliver into its
// fuel or energy consumption, after checking the drive can deliver it.
package energy

import (
	"fmt"
	"math"

	"github.com/kilianp07/compstation/core/logger"
	"github.com/kilianp07/compstation/core/model"
)

// Consumption is the energy balance of one drive. Powers and the energy
// rate are in kW.
type Consumption struct {
	DriveID        string             `json:"drive_id"`
	Kind           model.DriveKind    `json:"kind"`
	Speed          float64            `json:"speed"`
	ShaftPower     float64            `json:"shaft_power"`
	AvailablePower float64            `json:"available_power"`
	EnergyRate     float64            `json:"energy_rate"`
	Diagnostics    []model.Diagnostic `json:"diagnostics,omitempty"`
}

// Model is stateless and safe for concurrent use.
type Model struct {
	log logger.Logger
}

// NewModel returns a Model logging table extrapolation through log.
func NewModel(log logger.Logger) *Model {
	return &Model{log: logger.OrNop(log)}
}

// AvailablePower returns the maximal power of d at speed and ambient
// temperature (°C, gas turbines only).
func (m *Model) AvailablePower(d model.Drive, speed, ambient float64) (float64, []model.Diagnostic, error) {
	switch d := d.(type) {
	case *model.GasTurbine:
		return d.MaximalPower(speed, ambient), nil, nil
	case *model.GasDrivenMotor:
		v, clamped := d.MaximalPower.Lookup(speed)
		if clamped {
			return v, []model.Diagnostic{m.extrapolated(d.ID+" maximal power", speed, v)}, nil
		}
		return v, nil, nil
	}
	return 0, nil, fmt.Errorf("%w: unsupported drive %T", model.ErrInvalidRequest, d)
}

// FuelConsumption checks that d can deliver shaftPower at speed and returns
// its energy rate. Gas turbines use their energy rate curve; gas driven
// motors interpolate their specific energy consumption measurements.
// Measurement tables are never extended: queries outside the measured range
// use the nearest endpoint and add a diagnostic.
func (m *Model) FuelConsumption(d model.Drive, shaftPower, speed, ambient float64) (Consumption, error) {
	if math.IsNaN(shaftPower) || shaftPower < 0 || !(speed > 0) {
		return Consumption{}, fmt.Errorf("%w: drive %s: shaft power %g at speed %g",
			model.ErrInvalidRequest, d.DriveID(), shaftPower, speed)
	}
	avail, diags, err := m.AvailablePower(d, speed, ambient)
	if err != nil {
		return Consumption{}, err
	}
	if shaftPower > avail {
		return Consumption{}, &model.PowerError{DriveID: d.DriveID(), Requested: shaftPower, Available: avail, Speed: speed}
	}
	c := Consumption{
		DriveID:        d.DriveID(),
		Kind:           d.Kind(),
		Speed:          speed,
		ShaftPower:     shaftPower,
		AvailablePower: avail,
		Diagnostics:    diags,
	}
	switch d := d.(type) {
	case *model.GasTurbine:
		c.EnergyRate = d.EnergyRate().Evaluate(shaftPower)
	case *model.GasDrivenMotor:
		v, clamped := d.SpecificEnergyConsumption.Lookup(shaftPower)
		if clamped {
			c.Diagnostics = append(c.Diagnostics, m.extrapolated(d.ID+" specific energy consumption", shaftPower, v))
		}
		c.EnergyRate = v
	}
	return c, nil
}

func (m *Model) extrapolated(subject string, x, y float64) model.Diagnostic {
	d := model.Diagnostic{Kind: model.DiagnosticTableExtrapolation, Subject: subject, Value: x, Bound: y}
	m.log.Warnf("%s", d)
	return d
}
