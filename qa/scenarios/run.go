package scenarios

import (
	"context"
	"fmt"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/internal/batch"
)

// Report lists the nominations whose outcome differs from the expectation.
type Report struct {
	Scenario   string
	Outcomes   []batch.Outcome
	Mismatches []string
}

func (r Report) Passed() bool { return len(r.Mismatches) == 0 }

// Run evaluates the scenario with runner and compares every outcome with
// its expectation. The error reports a run that could not complete.
func Run(ctx context.Context, runner *batch.Runner, sc *Scenario) (Report, error) {
	rep := Report{Scenario: sc.Name}
	outcomes, _, err := runner.Run(ctx, sc.Jobs())
	if err != nil {
		return rep, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	rep.Outcomes = outcomes
	for i, n := range sc.Nominations {
		if msg := check(n.Expect, outcomes[i]); msg != "" {
			rep.Mismatches = append(rep.Mismatches, fmt.Sprintf("%s: %s", outcomes[i].Job.ID, msg))
		}
	}
	return rep, nil
}

func check(want Expected, got batch.Outcome) string {
	if want.Feasible != (got.Err == nil) {
		return fmt.Sprintf("expected feasible=%t, got error %v", want.Feasible, got.Err)
	}
	if kind := model.Classify(got.Err); want.ErrorKind != "" && string(kind) != want.ErrorKind {
		return fmt.Sprintf("expected error kind %s, got %s", want.ErrorKind, kind)
	}
	if b, _ := model.BoundaryOf(got.Err); want.Boundary != "" && string(b) != want.Boundary {
		return fmt.Sprintf("expected boundary %s, got %q", want.Boundary, b)
	}
	if want.Drives > 0 && got.Result != nil && len(got.Result.Drives) != want.Drives {
		return fmt.Sprintf("expected %d drives, got %d", want.Drives, len(got.Result.Drives))
	}
	return ""
}
