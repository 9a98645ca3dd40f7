package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/compstation/app"
	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/pkg/export"
)

type historyOptions struct {
	station       string
	configuration string
	run           string
	kind          string
	since         time.Duration
	feasible      bool
	failed        bool
	format        string
}

var historyFlags historyOptions

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query archived evaluations",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVarP(&historyFlags.station, "station", "s", "", "station id")
	f.StringVar(&historyFlags.configuration, "configuration", "", "configuration id")
	f.StringVar(&historyFlags.run, "run", "", "batch run id")
	f.StringVar(&historyFlags.kind, "kind", "", "error kind, e.g. power_exceeds_maximum")
	f.DurationVar(&historyFlags.since, "since", 0, "only records newer than this duration")
	f.BoolVar(&historyFlags.feasible, "feasible", false, "only feasible evaluations")
	f.BoolVar(&historyFlags.failed, "failed", false, "only failed evaluations")
	f.StringVar(&historyFlags.format, "format", "json", "output format: json or csv")
	historyCmd.MarkFlagsMutuallyExclusive("feasible", "failed")
	rootCmd.AddCommand(historyCmd)
}

func historyQuery(now time.Time) evallog.Query {
	q := evallog.Query{
		StationID:       historyFlags.station,
		ConfigurationID: historyFlags.configuration,
		RunID:           historyFlags.run,
		ErrorKind:       model.ErrorKind(historyFlags.kind),
	}
	if historyFlags.since > 0 {
		q.Start = now.Add(-historyFlags.since)
	}
	switch {
	case historyFlags.feasible:
		v := true
		q.Feasible = &v
	case historyFlags.failed:
		v := false
		q.Feasible = &v
	}
	return q
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		recs, err := a.History(ctx, historyQuery(time.Now()))
		if err != nil {
			return err
		}
		switch historyFlags.format {
		case "json":
			return writeJSON(cmd.OutOrStdout(), recs)
		case "csv":
			return export.WriteRecordsCSV(cmd.OutOrStdout(), recs)
		}
		return fmt.Errorf("unknown format %q", historyFlags.format)
	})
}
