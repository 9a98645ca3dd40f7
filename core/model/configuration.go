package model

// Unit is one compressor slot of a stage.
type Unit struct {
	CompressorID string  `json:"compressor_id"`
	NominalSpeed float64 `json:"nominal_speed"`
}

// Stage is a group of units running in parallel.
type Stage struct {
	StageNr           int    `json:"stage_nr"`
	NrOfParallelUnits int    `json:"nr_of_parallel_units"`
	Units             []Unit `json:"units"`
}

// Configuration is a named arrangement of serial stages.
type Configuration struct {
	ID     string  `json:"id"`
	Stages []Stage `json:"stages"`
}

// NumStages returns the number of serial stages.
func (c *Configuration) NumStages() int { return len(c.Stages) }

// NumUnits returns the number of compressor slots across all stages.
func (c *Configuration) NumUnits() int {
	n := 0
	for _, s := range c.Stages {
		n += len(s.Units)
	}
	return n
}
