// Package gaslib reads GasLib CompressorStations files (.cs) into the
// station model. All structural validation happens here and in
// model.NewStation, so the engine only ever sees well-formed stations.
package gaslib

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/surface"
)

// ErrUnknownStation is returned by Catalog.Station for an unknown id.
var ErrUnknownStation = errors.New("unknown compressor station")

// Catalog holds every station of a file in declaration order.
type Catalog struct {
	order    []string
	stations map[string]*model.Station
}

// Station looks up a station by id.
func (c *Catalog) Station(id string) (*model.Station, error) {
	st, ok := c.stations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStation, id)
	}
	return st, nil
}

// Stations returns the stations in file order.
func (c *Catalog) Stations() []*model.Station {
	out := make([]*model.Station, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.stations[id])
	}
	return out
}

// IDs returns the station ids in file order.
func (c *Catalog) IDs() []string { return append([]string(nil), c.order...) }

// Load reads and decodes the file at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cat, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Decode parses a CompressorStations document.
func Decode(r io.Reader) (*Catalog, error) {
	var doc xmlFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", model.ErrInvalidStation, err)
	}
	cat := &Catalog{stations: make(map[string]*model.Station, len(doc.Stations))}
	for _, xs := range doc.Stations {
		if _, dup := cat.stations[xs.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate station id %s", model.ErrInvalidStation, xs.ID)
		}
		st, err := buildStation(xs)
		if err != nil {
			return nil, err
		}
		cat.stations[xs.ID] = st
		cat.order = append(cat.order, xs.ID)
	}
	return cat, nil
}

func buildStation(xs xmlStation) (*model.Station, error) {
	wrap := func(err error) error {
		return fmt.Errorf("%w: station %s: %w", model.ErrInvalidStation, xs.ID, err)
	}
	var compressors []model.Compressor
	for _, xt := range xs.Turbos {
		c, err := buildTurbo(xt)
		if err != nil {
			return nil, wrap(err)
		}
		compressors = append(compressors, c)
	}
	for _, xp := range xs.Pistons {
		c, err := buildPiston(xp)
		if err != nil {
			return nil, wrap(err)
		}
		compressors = append(compressors, c)
	}
	var drives []model.Drive
	for _, xt := range xs.Turbines {
		d, err := buildTurbine(xt)
		if err != nil {
			return nil, wrap(err)
		}
		drives = append(drives, d)
	}
	for _, xm := range xs.Motors {
		d, err := buildMotor(xm)
		if err != nil {
			return nil, wrap(err)
		}
		drives = append(drives, d)
	}
	configs := make([]*model.Configuration, 0, len(xs.Configurations))
	for _, xc := range xs.Configurations {
		if xc.NrOfSerialStages != len(xc.Stages) {
			return nil, wrap(fmt.Errorf("configuration %s: nrOfSerialStages %d but %d stages",
				xc.ID, xc.NrOfSerialStages, len(xc.Stages)))
		}
		cfg := &model.Configuration{ID: xc.ID}
		for _, s := range xc.Stages {
			stage := model.Stage{StageNr: s.StageNr, NrOfParallelUnits: s.NrOfParallelUnits}
			for _, u := range s.Units {
				stage.Units = append(stage.Units, model.Unit{CompressorID: u.ID, NominalSpeed: u.NominalSpeed})
			}
			cfg.Stages = append(cfg.Stages, stage)
		}
		configs = append(configs, cfg)
	}
	return model.NewStation(xs.ID, compressors, drives, configs)
}

func buildTurbo(xt xmlTurbo) (*model.TurboCompressor, error) {
	p, err := newParams("compressor "+xt.ID, xt.Params)
	if err != nil {
		return nil, err
	}
	c := &model.TurboCompressor{
		ID:                    xt.ID,
		Drive:                 xt.Drive,
		SpeedMin:              p.get("speedMin", unitSpeed),
		SpeedMax:              p.get("speedMax", unitSpeed),
		HeadIsoline:           p.surface("n_isoline_coeff_"),
		EfficiencyIsoline:     p.surface("eta_ad_isoline_coeff_"),
		SurgeLine:             p.curve("surgeline_coeff_"),
		ChokeLine:             p.curve("chokeline_coeff_"),
		EfficiencyOfChokeline: p.get("efficiencyOfChokeline", ""),
	}
	for i, m := range xt.Surge {
		s, err := sample(fmt.Sprintf("compressor %s surge measurement %d", xt.ID, i), m)
		if err != nil {
			return nil, err
		}
		c.SurgeMeasurements = append(c.SurgeMeasurements, s)
	}
	if len(xt.Efficiencies) > 0 {
		curves := make([]surface.IsoCurve, 0, len(xt.Efficiencies))
		for _, iso := range xt.Efficiencies {
			v, err := strconv.ParseFloat(iso.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("compressor %s: adiabaticEfficiency value %q: %w", xt.ID, iso.Value, err)
			}
			curve := surface.IsoCurve{Value: v}
			for i, m := range iso.Measurements {
				s, err := sample(fmt.Sprintf("compressor %s efficiency %g measurement %d", xt.ID, v, i), m)
				if err != nil {
					return nil, err
				}
				curve.Samples = append(curve.Samples, s)
			}
			curves = append(curves, curve)
		}
		d, err := surface.NewDiagram(curves)
		if err != nil {
			return nil, fmt.Errorf("compressor %s: %w", xt.ID, err)
		}
		c.Diagram = d
	}
	return c, p.err
}

func buildPiston(xp xmlPiston) (*model.PistonCompressor, error) {
	p, err := newParams("compressor "+xp.ID, xp.Params)
	if err != nil {
		return nil, err
	}
	c := &model.PistonCompressor{
		ID:                         xp.ID,
		Drive:                      xp.Drive,
		SpeedMin:                   p.get("speedMin", unitSpeed),
		SpeedMax:                   p.get("speedMax", unitSpeed),
		OperatingVolume:            p.get("operatingVolume", unitVolume),
		MaximalTorque:              p.get("maximalTorque", unitTorque),
		MaximalCompressionRatio:    p.get("maximalCompressionRatio", ""),
		AdiabaticEfficiency:        p.get("adiabaticEfficiency", ""),
		AdditionalReductionVolFlow: p.get("additionalReductionVolFlow", ""),
	}
	return c, p.err
}

func buildTurbine(xt xmlTurbine) (*model.GasTurbine, error) {
	p, err := newParams("drive "+xt.ID, xt.Params)
	if err != nil {
		return nil, err
	}
	d := &model.GasTurbine{
		ID:                     xt.ID,
		EnergyRateCoefficients: p.curve("energy_rate_fun_coeff_"),
		PowerCoefficients:      p.surface("power_fun_coeff_"),
	}
	return d, p.err
}

func buildMotor(xm xmlMotor) (*model.GasDrivenMotor, error) {
	p, err := newParams("drive "+xm.ID, xm.Params)
	if err != nil {
		return nil, err
	}
	d := &model.GasDrivenMotor{
		ID:                     xm.ID,
		EnergyRateCoefficients: p.curve("energy_rate_fun_coeff_"),
		PowerCoefficients:      p.curve("power_fun_coeff_"),
	}
	if p.err != nil {
		return nil, p.err
	}
	d.SpecificEnergyConsumption, err = table("drive "+xm.ID+" specific energy consumption",
		xm.SpecificEnergy, "compressorPower", unitPower, "fuelConsumption", unitPower)
	if err != nil {
		return nil, err
	}
	d.MaximalPower, err = table("drive "+xm.ID+" maximal power",
		xm.MaximalPower, "speed", unitSpeed, "maximalPower", unitPower)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func sample(subject string, m xmlMeasurement) (surface.Sample, error) {
	p, err := newParams(subject, m.Params)
	if err != nil {
		return surface.Sample{}, err
	}
	s := surface.Sample{
		Speed: p.get("speed", unitSpeed),
		Head:  p.get("adiabaticHead", unitHead),
		Flow:  p.get("volumetricFlowrate", unitFlow),
	}
	return s, p.err
}

func table(subject string, ms []xmlMeasurement, xName, xUnit, yName, yUnit string) (*surface.Table, error) {
	xs := make([]float64, 0, len(ms))
	ys := make([]float64, 0, len(ms))
	for i, m := range ms {
		p, err := newParams(fmt.Sprintf("%s measurement %d", subject, i), m.Params)
		if err != nil {
			return nil, err
		}
		x, y := p.get(xName, xUnit), p.get(yName, yUnit)
		if p.err != nil {
			return nil, p.err
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	t, err := surface.NewTable(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", subject, err)
	}
	return t, nil
}
