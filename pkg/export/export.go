// Package export writes operating plans and archived evaluations as JSON
// or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/scheduler"
)

// Formats lists the accepted output formats.
var Formats = []string{"json", "csv"}

// WriteJSON writes the operating plan to w in JSON format.
func WriteJSON(w io.Writer, entries []scheduler.PlanEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes the operating plan to w in CSV format.
func WriteCSV(w io.Writer, entries []scheduler.PlanEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timeslot", "flow", "head", "configuration_id",
		"shaft_power_kw", "energy_rate_kw", "energy_kwh", "reason"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.TimeSlot.Format(time.RFC3339),
			formatFloat(e.Flow),
			formatFloat(e.Head),
			e.ConfigurationID,
			formatFloat(e.ShaftPower),
			formatFloat(e.EnergyRate),
			formatFloat(e.EnergyKWh),
			string(e.Reason),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePlan writes entries in the named format.
func WritePlan(w io.Writer, format string, entries []scheduler.PlanEntry) error {
	switch format {
	case "json":
		return WriteJSON(w, entries)
	case "csv":
		return WriteCSV(w, entries)
	}
	return fmt.Errorf("unknown format %q", format)
}

// WriteRecordsCSV writes archived evaluations, one row per record. Result
// columns are empty for failed evaluations.
func WriteRecordsCSV(w io.Writer, recs []evallog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "run_id", "station_id", "configuration_id",
		"flow", "head", "feasible", "error_kind", "boundary", "shaft_power_kw",
		"energy_rate_kw", "duration_ms"}); err != nil {
		return err
	}
	for _, r := range recs {
		var shaft, rate string
		if r.Result != nil {
			shaft = formatFloat(r.Result.ShaftPower)
			rate = formatFloat(r.Result.EnergyRate)
		}
		rec := []string{
			r.Timestamp.Format(time.RFC3339Nano),
			r.RunID,
			r.StationID,
			r.ConfigurationID,
			formatFloat(r.Request.Flow),
			formatFloat(r.Request.Head),
			strconv.FormatBool(r.Feasible),
			string(r.ErrorKind),
			string(r.Boundary),
			shaft,
			rate,
			formatFloat(r.DurationMS),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
