package app

import (
	"fmt"

	"github.com/kilianp07/compstation/config"
	"github.com/kilianp07/compstation/core/energy"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/performance"
	"github.com/kilianp07/compstation/core/station"
	"github.com/kilianp07/compstation/infra/gaslib"
	"github.com/kilianp07/compstation/infra/logger"
)

// Engine evaluates requests against the loaded station catalog. Requests
// that leave the mode or gas conditions unset get the configured defaults.
type Engine struct {
	Catalog  *gaslib.Catalog
	resolver *station.Resolver
	defaults config.EngineConfig
}

// NewEngine loads the station file and wires the solver, energy model and
// resolver.
func NewEngine(cfg *config.Config) (*Engine, error) {
	cat, err := gaslib.Load(cfg.StationFile)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	return NewEngineWithCatalog(cat, cfg.Engine), nil
}

// NewEngineWithCatalog wires an engine around an already decoded catalog.
func NewEngineWithCatalog(cat *gaslib.Catalog, ec config.EngineConfig) *Engine {
	ec.SetDefaults()
	solver := performance.NewSolver(ec.Solver, logger.New("solver"))
	em := energy.NewModel(logger.New("energy"))
	return &Engine{
		Catalog:  cat,
		resolver: station.NewResolver(solver, em, logger.New("resolver")),
		defaults: ec,
	}
}

// Station returns the station with the given id.
func (e *Engine) Station(id string) (*model.Station, error) { return e.Catalog.Station(id) }

// Evaluate fills the request defaults and evaluates it on st.
func (e *Engine) Evaluate(st *model.Station, req station.Request) (*station.Result, error) {
	if req.Mode == "" {
		req.Mode = e.defaults.Mode
	}
	req.Conditions = e.Conditions(req.Conditions)
	return e.resolver.Evaluate(st, req)
}

// Conditions fills the fields c leaves unset from the configured defaults.
func (e *Engine) Conditions(c performance.Conditions) performance.Conditions {
	return c.Or(e.defaults.Conditions)
}
