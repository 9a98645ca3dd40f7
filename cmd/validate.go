package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/compstation/config"
	"github.com/kilianp07/compstation/core/calibration"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/infra/chart"
	"github.com/kilianp07/compstation/infra/gaslib"
)

var validateFlags struct {
	stations  string
	station   string
	tolerance float64
	chartDir  string
	json      bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the fitted characteristics against their measurements",
	Long: `Validate loads the station file, compares every fitted head, efficiency
and surge characteristic with the measurements it was fitted from and
reports the largest relative residuals. --chart writes one HTML
characteristic map per station with turbo compressors.`,
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateFlags.stations, "stations", "", "station file, overrides station_file from the config")
	f.StringVarP(&validateFlags.station, "station", "s", "", "only check this station")
	f.Float64Var(&validateFlags.tolerance, "tolerance", calibration.DefaultTolerance, "relative residual tolerance")
	f.StringVar(&validateFlags.chartDir, "chart", "", "directory receiving the characteristic map HTML files")
	f.BoolVar(&validateFlags.json, "json", false, "print the reports as JSON")
	rootCmd.AddCommand(validateCmd)
}

type stationReport struct {
	Station string               `json:"station"`
	Reports []calibration.Report `json:"reports"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	path := validateFlags.stations
	if path == "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.StationFile
	}
	cat, err := gaslib.Load(path)
	if err != nil {
		return err
	}
	stations := cat.Stations()
	if validateFlags.station != "" {
		st, err := cat.Station(validateFlags.station)
		if err != nil {
			return err
		}
		stations = []*model.Station{st}
	}

	out := make([]stationReport, 0, len(stations))
	failed := 0
	for _, st := range stations {
		reps := calibration.CheckStation(st, validateFlags.tolerance)
		for _, r := range reps {
			if !r.Passed(validateFlags.tolerance) {
				failed++
			}
		}
		out = append(out, stationReport{Station: st.ID(), Reports: reps})
		if validateFlags.chartDir != "" {
			if err := writeChart(validateFlags.chartDir, st); err != nil {
				return err
			}
		}
	}

	if validateFlags.json {
		err = writeJSON(cmd.OutOrStdout(), out)
	} else {
		err = writeCalibration(cmd.OutOrStdout(), out, validateFlags.tolerance)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d characteristics exceed tolerance %g", failed, validateFlags.tolerance)
	}
	return nil
}

// writeChart renders the station's turbo compressors into dir. Stations
// without turbo compressors are skipped.
func writeChart(dir string, st *model.Station) error {
	if !hasTurbo(st) {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, st.ID()+".html"))
	if err != nil {
		return err
	}
	if _, err := chart.RenderStation(f, st, chart.Options{}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func hasTurbo(st *model.Station) bool {
	for _, c := range st.Compressors() {
		if _, ok := c.(*model.TurboCompressor); ok {
			return true
		}
	}
	return false
}

func writeCalibration(w io.Writer, out []stationReport, tol float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATION\tSUBJECT\tSAMPLES\tHEAD\tEFFICIENCY\tSURGE\tSURGE OUTSIDE\tRESULT")
	for _, sr := range out {
		for _, r := range sr.Reports {
			status := "ok"
			if !r.Passed(tol) {
				status = "FAIL"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\t%d\t%s\n", sr.Station, r.Subject, r.Samples,
				r.MaxHeadResidual, r.MaxEfficiencyResidual, r.MaxSurgeResidual, r.SurgeOutside, status)
		}
	}
	return tw.Flush()
}
