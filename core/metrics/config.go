package metrics

import (
	"fmt"

	"github.com/kilianp07/compstation/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`

	// EmissionFactor converts fuel energy (kWh) into kg of CO2.
	EmissionFactor float64 `json:"emission_factor"`
	PrometheusPort string  `json:"prometheus_port"`
}

// DefaultEmissionFactor is the natural gas combustion factor in kg CO2 per kWh.
const DefaultEmissionFactor = 0.202

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.EmissionFactor == 0 {
		c.EmissionFactor = DefaultEmissionFactor
	}
}

// Validate checks the sink list and the emission factor.
func (c Config) Validate() error {
	if c.EmissionFactor < 0 {
		return fmt.Errorf("metrics: emission_factor must not be negative, got %g", c.EmissionFactor)
	}
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}
