package model

import (
	"errors"
	"fmt"
	"sort"
)

// Station is an immutable compressor station. Build it with NewStation.
type Station struct {
	id          string
	compressors map[string]Compressor
	drives      map[string]Drive
	configs     map[string]*Configuration

	compressorOrder []string
	driveOrder      []string
	configOrder     []string
}

// NewStation validates the parts and assembles a station. Every structural
// defect is reported wrapped in ErrInvalidStation; configuration references
// to unknown compressors additionally wrap ErrUnresolvedCompressorReference.
func NewStation(id string, compressors []Compressor, drives []Drive, configs []*Configuration) (*Station, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty station id", ErrInvalidStation)
	}
	st := &Station{
		id:          id,
		compressors: make(map[string]Compressor, len(compressors)),
		drives:      make(map[string]Drive, len(drives)),
		configs:     make(map[string]*Configuration, len(configs)),
	}
	var errs []error
	for _, d := range drives {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := st.drives[d.DriveID()]; dup {
			errs = append(errs, fmt.Errorf("duplicate drive id %s", d.DriveID()))
			continue
		}
		st.drives[d.DriveID()] = d
		st.driveOrder = append(st.driveOrder, d.DriveID())
	}
	for _, c := range compressors {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := st.compressors[c.CompressorID()]; dup {
			errs = append(errs, fmt.Errorf("duplicate compressor id %s", c.CompressorID()))
			continue
		}
		if _, ok := st.drives[c.DriveID()]; !ok {
			errs = append(errs, fmt.Errorf("compressor %s references unknown drive %q", c.CompressorID(), c.DriveID()))
		}
		st.compressors[c.CompressorID()] = c
		st.compressorOrder = append(st.compressorOrder, c.CompressorID())
	}
	for _, cfg := range configs {
		if _, dup := st.configs[cfg.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate configuration id %s", cfg.ID))
			continue
		}
		if err := st.validateConfiguration(cfg); err != nil {
			errs = append(errs, err)
			continue
		}
		st.configs[cfg.ID] = cloneConfiguration(cfg)
		st.configOrder = append(st.configOrder, cfg.ID)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: station %s: %w", ErrInvalidStation, id, errors.Join(errs...))
	}
	return st, nil
}

func (st *Station) validateConfiguration(cfg *Configuration) error {
	if cfg.ID == "" {
		return fmt.Errorf("configuration with empty id")
	}
	if len(cfg.Stages) == 0 {
		return fmt.Errorf("configuration %s has no stages", cfg.ID)
	}
	stages := append([]Stage(nil), cfg.Stages...)
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].StageNr < stages[j].StageNr })
	seen := make(map[string]bool)
	for i, s := range stages {
		if s.StageNr != i+1 {
			return fmt.Errorf("configuration %s: stage numbers must run 1..%d, found %d", cfg.ID, len(stages), s.StageNr)
		}
		if s.NrOfParallelUnits < 1 || len(s.Units) != s.NrOfParallelUnits {
			return fmt.Errorf("configuration %s stage %d: %d units listed for nrOfParallelUnits %d",
				cfg.ID, s.StageNr, len(s.Units), s.NrOfParallelUnits)
		}
		for _, u := range s.Units {
			c, ok := st.compressors[u.CompressorID]
			if !ok {
				return fmt.Errorf("configuration %s stage %d: %w %q",
					cfg.ID, s.StageNr, ErrUnresolvedCompressorReference, u.CompressorID)
			}
			if seen[u.CompressorID] {
				return fmt.Errorf("configuration %s: compressor %s used more than once", cfg.ID, u.CompressorID)
			}
			seen[u.CompressorID] = true
			lo, hi := c.SpeedRange()
			if u.NominalSpeed < lo || u.NominalSpeed > hi {
				return fmt.Errorf("configuration %s: nominal speed %g of %s outside [%g, %g]",
					cfg.ID, u.NominalSpeed, u.CompressorID, lo, hi)
			}
		}
	}
	return nil
}

// cloneConfiguration copies cfg with its stages sorted by stage number.
func cloneConfiguration(cfg *Configuration) *Configuration {
	out := &Configuration{ID: cfg.ID, Stages: make([]Stage, len(cfg.Stages))}
	for i, s := range cfg.Stages {
		out.Stages[i] = Stage{
			StageNr:           s.StageNr,
			NrOfParallelUnits: s.NrOfParallelUnits,
			Units:             append([]Unit(nil), s.Units...),
		}
	}
	sort.SliceStable(out.Stages, func(i, j int) bool { return out.Stages[i].StageNr < out.Stages[j].StageNr })
	return out
}

// ID returns the station id.
func (st *Station) ID() string { return st.id }

// Compressor looks up a compressor by id.
func (st *Station) Compressor(id string) (Compressor, bool) {
	c, ok := st.compressors[id]
	return c, ok
}

// Drive looks up a drive by id.
func (st *Station) Drive(id string) (Drive, bool) {
	d, ok := st.drives[id]
	return d, ok
}

// Configuration looks up a configuration by id. Missing ids yield
// ErrUnknownConfiguration. Stages are ordered by stage number.
func (st *Station) Configuration(id string) (*Configuration, error) {
	cfg, ok := st.configs[id]
	if !ok {
		return nil, fmt.Errorf("station %s: %w %q", st.id, ErrUnknownConfiguration, id)
	}
	return cfg, nil
}

// Compressors returns the compressors in declaration order.
func (st *Station) Compressors() []Compressor {
	out := make([]Compressor, 0, len(st.compressorOrder))
	for _, id := range st.compressorOrder {
		out = append(out, st.compressors[id])
	}
	return out
}

// Drives returns the drives in declaration order.
func (st *Station) Drives() []Drive {
	out := make([]Drive, 0, len(st.driveOrder))
	for _, id := range st.driveOrder {
		out = append(out, st.drives[id])
	}
	return out
}

// ConfigurationIDs returns the configuration ids in declaration order.
func (st *Station) ConfigurationIDs() []string {
	return append([]string(nil), st.configOrder...)
}
