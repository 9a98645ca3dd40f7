package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Nomination holds from Slot until the next nomination's slot.
type Nomination struct {
	Slot int     `json:"slot" yaml:"slot"`
	Flow float64 `json:"flow" yaml:"flow"`
	Head float64 `json:"head" yaml:"head"`
}

// PlanConfig describes the station, slot grid and nomination profile of a
// plan. An empty Configurations list considers every configuration of the
// station.
type PlanConfig struct {
	StationID           string       `json:"station_id" yaml:"station_id"`
	SlotDurationMinutes int          `json:"slot_duration_minutes" yaml:"slot_duration_minutes"`
	Configurations      []string     `json:"configurations,omitempty" yaml:"configurations,omitempty"`
	Mode                string       `json:"mode,omitempty" yaml:"mode,omitempty"`
	Nominations         []Nomination `json:"nominations" yaml:"nominations"`
}

// LoadConfig loads a PlanConfig from a JSON or YAML file.
func LoadConfig(path string) (PlanConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return PlanConfig{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	cfg, err := DecodeConfig(f, ext)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig reads from r to decode a PlanConfig.
func DecodeConfig(r io.Reader, format string) (PlanConfig, error) {
	var cfg PlanConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, nil
}
