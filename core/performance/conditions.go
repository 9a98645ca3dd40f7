package performance

import (
	"fmt"
	"math"

	"github.com/kilianp07/compstation/core/model"
)

// Default gas and site conditions. Density is in kg/m³, temperatures of the
// gas in K, the gas constant in kJ/(kg·K) and the ambient temperature in °C.
const (
	DefaultDensity            = 50.0
	DefaultInletTemperature   = 288.15
	DefaultCompressibility    = 0.9
	DefaultGasConstant        = 0.5183
	DefaultIsentropicExponent = 1.3
	DefaultAmbientTemperature = 15.0
)

// Conditions are the gas properties at a unit's inlet plus the site ambient
// temperature. They are supplied by the caller; the engine never evaluates
// gas properties itself.
type Conditions struct {
	Density            float64 `json:"density"`
	InletTemperature   float64 `json:"inlet_temperature"`
	Compressibility    float64 `json:"compressibility"`
	GasConstant        float64 `json:"gas_constant"`
	IsentropicExponent float64 `json:"isentropic_exponent"`
	// AmbientTemperature is optional; nil means DefaultAmbientTemperature.
	AmbientTemperature *float64 `json:"ambient_temperature,omitempty"`
}

// DefaultConditions returns natural gas at the default inlet state.
func DefaultConditions() Conditions {
	return Conditions{
		Density:            DefaultDensity,
		InletTemperature:   DefaultInletTemperature,
		Compressibility:    DefaultCompressibility,
		GasConstant:        DefaultGasConstant,
		IsentropicExponent: DefaultIsentropicExponent,
	}
}

// Ambient returns the ambient temperature in °C.
func (c Conditions) Ambient() float64 {
	if c.AmbientTemperature == nil {
		return DefaultAmbientTemperature
	}
	return *c.AmbientTemperature
}

// WithAmbient returns a copy with the ambient temperature set.
func (c Conditions) WithAmbient(celsius float64) Conditions {
	c.AmbientTemperature = &celsius
	return c
}

// WithDefaults fills zero fields from DefaultConditions.
func (c Conditions) WithDefaults() Conditions { return c.Or(DefaultConditions()) }

// Or fills zero fields, and an unset ambient temperature, from base.
func (c Conditions) Or(base Conditions) Conditions {
	if c.Density == 0 {
		c.Density = base.Density
	}
	if c.InletTemperature == 0 {
		c.InletTemperature = base.InletTemperature
	}
	if c.Compressibility == 0 {
		c.Compressibility = base.Compressibility
	}
	if c.GasConstant == 0 {
		c.GasConstant = base.GasConstant
	}
	if c.IsentropicExponent == 0 {
		c.IsentropicExponent = base.IsentropicExponent
	}
	if c.AmbientTemperature == nil {
		c.AmbientTemperature = base.AmbientTemperature
	}
	return c
}

// Validate rejects non-physical conditions.
func (c Conditions) Validate() error {
	switch {
	case !(c.Density > 0):
		return fmt.Errorf("%w: density must be positive", model.ErrInvalidRequest)
	case !(c.InletTemperature > 0):
		return fmt.Errorf("%w: inlet temperature must be positive", model.ErrInvalidRequest)
	case !(c.Compressibility > 0):
		return fmt.Errorf("%w: compressibility must be positive", model.ErrInvalidRequest)
	case !(c.GasConstant > 0):
		return fmt.Errorf("%w: gas constant must be positive", model.ErrInvalidRequest)
	case !(c.IsentropicExponent > 1):
		return fmt.Errorf("%w: isentropic exponent must exceed 1", model.ErrInvalidRequest)
	case math.IsNaN(c.Ambient()) || math.IsInf(c.Ambient(), 0):
		return fmt.Errorf("%w: ambient temperature must be finite", model.ErrInvalidRequest)
	}
	return nil
}

// headFactor is κ/(κ−1)·Z·R·T, the head per unit of (π^((κ−1)/κ) − 1).
func (c Conditions) headFactor() float64 {
	k := c.IsentropicExponent
	return k / (k - 1) * c.Compressibility * c.GasConstant * c.InletTemperature
}

// Head returns the adiabatic head in kJ/kg of compressing by ratio.
func (c Conditions) Head(ratio float64) float64 {
	k := c.IsentropicExponent
	return c.headFactor() * (math.Pow(ratio, (k-1)/k) - 1)
}

// PressureRatio inverts Head.
func (c Conditions) PressureRatio(head float64) float64 {
	k := c.IsentropicExponent
	return math.Pow(head/c.headFactor()+1, k/(k-1))
}

// Discharge returns the conditions downstream of a compression by ratio at
// adiabatic efficiency eta: T₂ = T₁·(1 + (π^((κ−1)/κ) − 1)/η) and
// ρ₂ = ρ₁·π·T₁/T₂.
func (c Conditions) Discharge(ratio, eta float64) Conditions {
	k := c.IsentropicExponent
	out := c
	out.InletTemperature = c.InletTemperature * (1 + (math.Pow(ratio, (k-1)/k)-1)/eta)
	out.Density = c.Density * ratio * c.InletTemperature / out.InletTemperature
	return out
}
