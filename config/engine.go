package config

import (
	"fmt"

	"github.com/kilianp07/compstation/core/performance"
)

// EngineConfig tunes the solver and supplies the gas state used when a
// request does not carry its own.
type EngineConfig struct {
	Solver     performance.Options    `json:"solver"`
	Conditions performance.Conditions `json:"conditions"`
	Mode       performance.Mode       `json:"mode"`
}

// SetDefaults fills unset fields.
func (c *EngineConfig) SetDefaults() {
	c.Solver.SetDefaults()
	c.Conditions = c.Conditions.WithDefaults()
	if c.Mode == "" {
		c.Mode = performance.ModeSpeedSearch
	}
}

// Validate checks the solver options, conditions and mode.
func (c EngineConfig) Validate() error {
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if err := c.Conditions.Validate(); err != nil {
		return err
	}
	switch c.Mode {
	case performance.ModeSpeedSearch, performance.ModeNominal:
		return nil
	}
	return fmt.Errorf("unknown mode %q", c.Mode)
}
