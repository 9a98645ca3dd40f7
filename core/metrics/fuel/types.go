package fuel

import "time"

// Record aggregates the feasible evaluations of one station and day.
// Power figures are sums of instantaneous rates in kW.
type Record struct {
	StationID   string
	Date        time.Time
	Evaluations int
	ShaftPower  float64
	EnergyRate  float64
}

// MeanEnergyRate returns the average fuel energy rate in kW.
func (r Record) MeanEnergyRate() float64 {
	if r.Evaluations == 0 {
		return 0
	}
	return r.EnergyRate / float64(r.Evaluations)
}

// DriveEfficiency returns delivered shaft power over fuel energy rate.
func (r Record) DriveEfficiency() float64 {
	if r.EnergyRate == 0 {
		return 0
	}
	return r.ShaftPower / r.EnergyRate
}

// CO2Rate returns the mean emission rate in kg/h for the given factor in
// kg CO2 per kWh of fuel energy.
func (r Record) CO2Rate(factor float64) float64 {
	return r.MeanEnergyRate() * factor
}
