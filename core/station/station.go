// Package station composes unit operating points into a station result for
// a named configuration: serial stages share the required head, parallel
// units within a stage share the stage flow, and drives are charged once
// for the summed power of every unit they run.
package station

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/compstation/core/energy"
	"github.com/kilianp07/compstation/core/logger"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/performance"
)

// EnergyModel converts drive shaft power into energy consumption.
type EnergyModel interface {
	FuelConsumption(d model.Drive, shaftPower, speed, ambient float64) (energy.Consumption, error)
}

// Request is one station evaluation. Flow is the volumetric flow at the
// station inlet in m³/s and Head the total adiabatic head in kJ/kg.
type Request struct {
	ConfigurationID string                 `json:"configuration_id"`
	Flow            float64                `json:"flow"`
	Head            float64                `json:"head"`
	Mode            performance.Mode       `json:"mode,omitempty"`
	Conditions      performance.Conditions `json:"conditions"`

	// SplitRatios optionally maps a stage number to the share of stage flow
	// taken by each unit. Stages without an entry split evenly.
	SplitRatios map[int][]float64 `json:"split_ratios,omitempty"`
}

// StageResult aggregates the parallel units of one stage. Head is the
// mass flow weighted head its units deliver, which exceeds the requested
// stage head when units run at a fixed speed.
type StageResult struct {
	StageNr       int                    `json:"stage_nr"`
	Inlet         performance.Conditions `json:"inlet"`
	Outlet        performance.Conditions `json:"outlet"`
	Flow          float64                `json:"flow"`
	Head          float64                `json:"head"`
	PressureRatio float64                `json:"pressure_ratio"`
	ShaftPower    float64                `json:"shaft_power"`
	Units         []performance.Point    `json:"units"`
}

// Result is a feasible station operating point.
type Result struct {
	StationID       string               `json:"station_id"`
	ConfigurationID string               `json:"configuration_id"`
	Mode            performance.Mode     `json:"mode"`
	Flow            float64              `json:"flow"`
	MassFlow        float64              `json:"mass_flow"`
	Head            float64              `json:"head"`
	PressureRatio   float64              `json:"pressure_ratio"`
	ShaftPower      float64              `json:"shaft_power"`
	EnergyRate      float64              `json:"energy_rate"`
	Efficiency      float64              `json:"efficiency"`
	Stages          []StageResult        `json:"stages"`
	Drives          []energy.Consumption `json:"drives"`
	Diagnostics     []model.Diagnostic   `json:"diagnostics,omitempty"`
}

// Resolver evaluates configurations. It holds no per-call state and is safe
// for concurrent use.
type Resolver struct {
	solver *performance.Solver
	energy EnergyModel
	log    logger.Logger
}

// NewResolver wires a resolver. Nil arguments select default components.
func NewResolver(solver *performance.Solver, em EnergyModel, log logger.Logger) *Resolver {
	log = logger.OrNop(log)
	if solver == nil {
		solver = performance.NewSolver(performance.Options{}, log)
	}
	if em == nil {
		em = energy.NewModel(log)
	}
	return &Resolver{solver: solver, energy: em, log: log}
}

// EvaluateStation evaluates configID at the default conditions with the
// speed search mode.
func (r *Resolver) EvaluateStation(st *model.Station, configID string, totalFlow, requiredHead float64) (*Result, error) {
	return r.Evaluate(st, Request{ConfigurationID: configID, Flow: totalFlow, Head: requiredHead})
}

// speedTolerance is the relative speed difference above which units sharing
// a drive are reported as mismatched.
const speedTolerance = 1e-6

type driveLoad struct {
	drive      model.Drive
	power      float64
	speed      float64
	stage      int
	unit       int
	compressor string
}

// Evaluate solves every unit of the requested configuration and aggregates
// the result. The first unit failure is returned as a *model.UnitError and
// no partial result is produced.
func (r *Resolver) Evaluate(st *model.Station, req Request) (*Result, error) {
	cfg, err := st.Configuration(req.ConfigurationID)
	if err != nil {
		return nil, err
	}
	if !(req.Flow > 0) || !(req.Head > 0) || math.IsInf(req.Flow, 0) || math.IsInf(req.Head, 0) {
		return nil, fmt.Errorf("%w: flow and head must be positive and finite (flow %g, head %g)",
			model.ErrInvalidRequest, req.Flow, req.Head)
	}
	mode := req.Mode
	if mode == "" {
		mode = performance.ModeSpeedSearch
	}
	if mode != performance.ModeSpeedSearch && mode != performance.ModeNominal {
		return nil, fmt.Errorf("%w: unknown mode %q", model.ErrInvalidRequest, mode)
	}
	cond := req.Conditions.WithDefaults()
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		StationID:       st.ID(),
		ConfigurationID: cfg.ID,
		Mode:            mode,
		Flow:            req.Flow,
		MassFlow:        cond.Density * req.Flow,
		Head:            req.Head,
		PressureRatio:   1,
	}
	stageHead := req.Head / float64(cfg.NumStages())
	var loads []*driveLoad
	byDrive := make(map[string]*driveLoad)
	var powers []float64
	var work float64
	inlet := cond
	for _, stage := range cfg.Stages {
		shares, err := splitShares(stage, req.SplitRatios[stage.StageNr])
		if err != nil {
			return nil, err
		}
		sr := StageResult{
			StageNr: stage.StageNr,
			Inlet:   inlet,
			Flow:    res.MassFlow / inlet.Density,
		}
		var stageWork, stageMass float64
		for i, u := range stage.Units {
			comp, ok := st.Compressor(u.CompressorID)
			if !ok {
				return nil, &model.UnitError{Stage: stage.StageNr, Unit: i, CompressorID: u.CompressorID,
					Err: fmt.Errorf("%w %q", model.ErrUnresolvedCompressorReference, u.CompressorID)}
			}
			p, err := r.solver.Operate(comp, performance.UnitRequest{
				Flow:         sr.Flow * shares[i],
				Head:         stageHead,
				NominalSpeed: u.NominalSpeed,
				Mode:         mode,
			}, inlet)
			if err != nil {
				return nil, &model.UnitError{Stage: stage.StageNr, Unit: i, CompressorID: u.CompressorID, Err: err}
			}
			sr.Units = append(sr.Units, p)
			sr.ShaftPower += p.ShaftPower
			powers = append(powers, p.ShaftPower)
			stageWork += p.MassFlow * p.Head
			stageMass += p.MassFlow
			res.Diagnostics = append(res.Diagnostics, p.Diagnostics...)

			load, ok := byDrive[comp.DriveID()]
			if !ok {
				d, found := st.Drive(comp.DriveID())
				if !found {
					return nil, &model.UnitError{Stage: stage.StageNr, Unit: i, CompressorID: u.CompressorID,
						Err: fmt.Errorf("%w: unknown drive %q", model.ErrInvalidStation, comp.DriveID())}
				}
				load = &driveLoad{drive: d, speed: p.Speed, stage: stage.StageNr, unit: i, compressor: u.CompressorID}
				byDrive[comp.DriveID()] = load
				loads = append(loads, load)
			} else if math.Abs(p.Speed-load.speed) > speedTolerance*load.speed {
				// the drive is charged at the speed of its first unit
				res.Diagnostics = append(res.Diagnostics, model.Diagnostic{
					Kind:    model.DiagnosticDriveSpeedMismatch,
					Subject: fmt.Sprintf("%s (%s)", comp.DriveID(), u.CompressorID),
					Value:   p.Speed,
					Bound:   load.speed,
				})
			}
			load.power += p.ShaftPower
		}
		sr.Head = stageWork / stageMass
		sr.PressureRatio = inlet.PressureRatio(sr.Head)
		sr.Outlet = inlet.Discharge(sr.PressureRatio, stageWork/sr.ShaftPower)
		work += stageWork
		res.Stages = append(res.Stages, sr)
		res.PressureRatio *= sr.PressureRatio
		inlet = sr.Outlet
	}

	for _, l := range loads {
		c, err := r.energy.FuelConsumption(l.drive, l.power, l.speed, cond.Ambient())
		if err != nil {
			return nil, &model.UnitError{Stage: l.stage, Unit: l.unit, CompressorID: l.compressor, Err: err}
		}
		res.Drives = append(res.Drives, c)
		res.EnergyRate += c.EnergyRate
		res.Diagnostics = append(res.Diagnostics, c.Diagnostics...)
	}
	res.ShaftPower = floats.Sum(powers)
	res.Efficiency = work / res.ShaftPower

	r.log.Debugw("station evaluated", map[string]any{
		"station":       res.StationID,
		"configuration": res.ConfigurationID,
		"flow":          res.Flow,
		"head":          res.Head,
		"shaft_power":   res.ShaftPower,
		"energy_rate":   res.EnergyRate,
	})
	return res, nil
}

// splitShares returns the flow share of each unit of stage.
func splitShares(stage model.Stage, ratios []float64) ([]float64, error) {
	n := len(stage.Units)
	if ratios == nil {
		shares := make([]float64, n)
		for i := range shares {
			shares[i] = 1 / float64(n)
		}
		return shares, nil
	}
	if len(ratios) != n {
		return nil, fmt.Errorf("%w: stage %d has %d units but %d split ratios",
			model.ErrInvalidRequest, stage.StageNr, n, len(ratios))
	}
	for _, v := range ratios {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: stage %d split ratios must be positive", model.ErrInvalidRequest, stage.StageNr)
		}
	}
	if sum := floats.Sum(ratios); math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("%w: stage %d split ratios sum to %g", model.ErrInvalidRequest, stage.StageNr, sum)
	}
	return ratios, nil
}
