package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/compstation/app"
	"github.com/kilianp07/compstation/core/scheduler"
	"github.com/kilianp07/compstation/pkg/export"
)

var planFlags struct {
	file    string
	station string
	date    string
	format  string
	out     string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a day-ahead operating plan from flow nominations",
	Long: `Plan chooses, for every slot of the day, the configuration that serves
the nominated flow and head with the lowest fuel energy rate.`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVarP(&planFlags.file, "file", "f", "", "nomination file (yaml or json)")
	f.StringVarP(&planFlags.station, "station", "s", "", "station id, overrides the file")
	f.StringVar(&planFlags.date, "date", "", "plan day as YYYY-MM-DD (default today, UTC)")
	f.StringVar(&planFlags.format, "format", "json", "output format: json or csv")
	f.StringVarP(&planFlags.out, "out", "o", "", "output file (default stdout)")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func planDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	pc, err := scheduler.LoadConfig(planFlags.file)
	if err != nil {
		return fmt.Errorf("nominations: %w", err)
	}
	if planFlags.station != "" {
		pc.StationID = planFlags.station
	}
	date, err := planDate(planFlags.date, time.Now())
	if err != nil {
		return fmt.Errorf("--date: %w", err)
	}
	return withApp(func(_ context.Context, a *app.App) error {
		s := &scheduler.Scheduler{Config: pc, Stations: a.Engine, Eval: a.Engine}
		entries, err := s.GeneratePlan(date)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if planFlags.out != "" {
			f, err := os.Create(planFlags.out)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		if err := export.WritePlan(w, planFlags.format, entries); err != nil {
			return err
		}

		unserved := 0
		for _, e := range entries {
			if !e.Served() {
				unserved++
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d slots, %d unserved, %.1f kWh\n",
			len(entries), unserved, scheduler.TotalEnergy(entries))
		return nil
	})
}
