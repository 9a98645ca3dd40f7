package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/compstation/app"
	coremqtt "github.com/kilianp07/compstation/core/mqtt"
	"github.com/kilianp07/compstation/internal/batch"
	"github.com/kilianp07/compstation/qa/scenarios"
)

var batchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch <file|dir>...",
	Short: "Evaluate nomination scenarios or job lists",
	Long: `Batch evaluates YAML scenarios (files or directories of *.yaml) and
checks every nomination against its expected outcome, and JSON job lists
whose responses are printed as a JSON array.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent evaluations (default from config)")
	rootCmd.AddCommand(batchCmd)
}

// batchInput groups what the batch arguments resolved to.
type batchInput struct {
	scenarios []*scenarios.Scenario
	jobs      []batch.Job
}

func loadBatchInput(paths []string) (batchInput, error) {
	var in batchInput
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return in, err
		}
		if info.IsDir() {
			scs, err := scenarios.LoadDir(p)
			if err != nil {
				return in, err
			}
			in.scenarios = append(in.scenarios, scs...)
			continue
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			sc, err := scenarios.Load(p)
			if err != nil {
				return in, err
			}
			in.scenarios = append(in.scenarios, sc)
		case ".json":
			jobs, err := loadJobs(p)
			if err != nil {
				return in, err
			}
			in.jobs = append(in.jobs, jobs...)
		default:
			return in, fmt.Errorf("%s: unsupported input, expected .yaml or .json", p)
		}
	}
	if len(in.scenarios) == 0 && len(in.jobs) == 0 {
		return in, errors.New("no scenarios or jobs found")
	}
	return in, nil
}

func loadJobs(path string) ([]batch.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var jobs []batch.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return jobs, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	in, err := loadBatchInput(args)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app.App) error {
		runner := a.Runner(batchWorkers)
		failed := 0
		if len(in.scenarios) > 0 {
			reports := make([]scenarios.Report, 0, len(in.scenarios))
			for _, sc := range in.scenarios {
				rep, err := scenarios.Run(ctx, runner, sc)
				if err != nil {
					return err
				}
				reports = append(reports, rep)
			}
			failed = writeReports(cmd.OutOrStdout(), reports)
		}
		if len(in.jobs) > 0 {
			outcomes, sum, err := runner.Run(ctx, in.jobs)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), responses(outcomes)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d jobs: %d feasible, %d infeasible, %d failed in %s\n",
				sum.Total, sum.Feasible, sum.Infeasible, sum.Failed, sum.Duration.Round(time.Millisecond))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(in.scenarios))
		}
		return nil
	})
}

func responses(outcomes []batch.Outcome) []coremqtt.EvaluationResponse {
	out := make([]coremqtt.EvaluationResponse, len(outcomes))
	now := time.Now()
	for i, o := range outcomes {
		out[i] = coremqtt.NewResponse(coremqtt.EvaluationRequest{
			RequestID: o.Job.ID,
			StationID: o.Job.StationID,
			Request:   o.Job.Request,
		}, o.Result, o.Err, o.Duration, now)
	}
	return out
}

// writeReports prints one line per scenario followed by its mismatches and
// returns the number of failed scenarios.
func writeReports(w io.Writer, reports []scenarios.Report) int {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tNOMINATIONS\tFEASIBLE\tRESULT")
	failed := 0
	for _, r := range reports {
		feasible := 0
		for _, o := range r.Outcomes {
			if o.Err == nil {
				feasible++
			}
		}
		status := "ok"
		if !r.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Scenario, len(r.Outcomes), feasible, status)
	}
	_ = tw.Flush()
	for _, r := range reports {
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "%s: %s\n", r.Scenario, m)
		}
	}
	return failed
}
