package stations

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/compstation/core/metrics/fuel"
	"github.com/kilianp07/compstation/core/model"
)

// Catalog lists the loaded stations.
type Catalog interface {
	Stations() []*model.Station
}

// Summary describes a station's units, drives and configurations.
type Summary struct {
	ID             string        `json:"id"`
	Compressors    []UnitSummary `json:"compressors"`
	Drives         []UnitSummary `json:"drives"`
	Configurations []string      `json:"configurations"`
}

// UnitSummary names a compressor or drive and its kind. Compressors also
// carry their drive and speed range.
type UnitSummary struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Drive    string  `json:"drive,omitempty"`
	MinSpeed float64 `json:"min_speed,omitempty"`
	MaxSpeed float64 `json:"max_speed,omitempty"`
}

// Summarize builds the summary of st.
func Summarize(st *model.Station) Summary {
	s := Summary{ID: st.ID(), Configurations: st.ConfigurationIDs()}
	for _, c := range st.Compressors() {
		lo, hi := c.SpeedRange()
		s.Compressors = append(s.Compressors, UnitSummary{
			ID:       c.CompressorID(),
			Kind:     string(c.Kind()),
			Drive:    c.DriveID(),
			MinSpeed: lo,
			MaxSpeed: hi,
		})
	}
	for _, d := range st.Drives() {
		s.Drives = append(s.Drives, UnitSummary{ID: d.DriveID(), Kind: string(d.Kind())})
	}
	return s
}

// NewListHandler exposes the loaded stations via GET /api/stations.
func NewListHandler(cat Catalog) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sts := cat.Stations()
		out := make([]Summary, len(sts))
		for i, st := range sts {
			out[i] = Summarize(st)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

// NewFuelHandler exposes the daily fuel aggregates of a station via
// GET /api/stations/{id}/fuel. start and end are RFC 3339 timestamps; end
// defaults to now and start to end. factor converts kWh to kg of CO2.
func NewFuelHandler(store fuel.Store, factor float64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.PathValue("id")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		end := time.Now()
		if s := r.URL.Query().Get("end"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			end = t
		}
		start := end
		if s := r.URL.Query().Get("start"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			start = t
		}
		recs, err := store.Query(id, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type day struct {
			Date            string  `json:"date"`
			Evaluations     int     `json:"evaluations"`
			MeanEnergyRate  float64 `json:"mean_energy_rate"`
			DriveEfficiency float64 `json:"drive_efficiency"`
			CO2Rate         float64 `json:"co2_rate"`
		}
		out := make([]day, len(recs))
		for i, rec := range recs {
			out[i] = day{
				Date:            rec.Date.Format("2006-01-02"),
				Evaluations:     rec.Evaluations,
				MeanEnergyRate:  rec.MeanEnergyRate(),
				DriveEfficiency: rec.DriveEfficiency(),
				CO2Rate:         rec.CO2Rate(factor),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}
