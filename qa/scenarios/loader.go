package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/compstation/core/performance"
	"github.com/kilianp07/compstation/core/station"
	"github.com/kilianp07/compstation/internal/batch"
)

// ConditionsDef overrides the default gas state. Zero fields keep the
// defaults.
type ConditionsDef struct {
	Density            float64  `yaml:"density"`
	InletTemperature   float64  `yaml:"inlet_temperature"`
	Compressibility    float64  `yaml:"compressibility"`
	GasConstant        float64  `yaml:"gas_constant"`
	IsentropicExponent float64  `yaml:"isentropic_exponent"`
	AmbientTemperature *float64 `yaml:"ambient_temperature"`
}

func (c *ConditionsDef) ToModel() performance.Conditions {
	if c == nil {
		return performance.Conditions{}
	}
	return performance.Conditions{
		Density:            c.Density,
		InletTemperature:   c.InletTemperature,
		Compressibility:    c.Compressibility,
		GasConstant:        c.GasConstant,
		IsentropicExponent: c.IsentropicExponent,
		AmbientTemperature: c.AmbientTemperature,
	}
}

// Expected is the outcome a nomination must produce. ErrorKind and
// Boundary are only checked when set; Drives when positive.
type Expected struct {
	Feasible  bool   `yaml:"feasible"`
	ErrorKind string `yaml:"error_kind,omitempty"`
	Boundary  string `yaml:"boundary,omitempty"`
	Drives    int    `yaml:"drives,omitempty"`
}

type Nomination struct {
	ID            string            `yaml:"id"`
	Configuration string            `yaml:"configuration"`
	Flow          float64           `yaml:"flow"`
	Head          float64           `yaml:"head"`
	Mode          string            `yaml:"mode,omitempty"`
	Conditions    *ConditionsDef    `yaml:"conditions,omitempty"`
	SplitRatios   map[int][]float64 `yaml:"split_ratios,omitempty"`
	Expect        Expected          `yaml:"expect"`
}

func (n Nomination) ToRequest() station.Request {
	return station.Request{
		ConfigurationID: n.Configuration,
		Flow:            n.Flow,
		Head:            n.Head,
		Mode:            performance.Mode(n.Mode),
		Conditions:      n.Conditions.ToModel(),
		SplitRatios:     n.SplitRatios,
	}
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Station     string       `yaml:"station"`
	Nominations []Nomination `yaml:"nominations"`
}

// Jobs converts the nominations into batch jobs.
func (s *Scenario) Jobs() []batch.Job {
	jobs := make([]batch.Job, len(s.Nominations))
	for i, n := range s.Nominations {
		jobs[i] = batch.Job{ID: n.ID, StationID: s.Station, Request: n.ToRequest()}
	}
	return jobs
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Station == "" {
		return nil, fmt.Errorf("%s: station is required", path)
	}
	if len(sc.Nominations) == 0 {
		return nil, fmt.Errorf("%s: no nominations", path)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml file of dir in name order.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
