package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/nlq/internal/ir"
)

// Snapshot returns the canonical JSON recorded for a scenario run: the
// query ID and description of every case, plus counts when the case was
// executed.
func Snapshot(name string, result *Result) ([]byte, error) {
	cases := make([]any, len(result.Outputs))
	for i, out := range result.Outputs {
		entry := map[string]any{
			"text":        out.Text,
			"queryId":     out.QueryID,
			"description": out.Description,
		}
		if out.Execution != nil {
			entry["rows"] = len(out.Execution.Rows)
			if out.Execution.Count != nil {
				entry["count"] = *out.Execution.Count
			}
			if out.Execution.Distinct != nil {
				entry["distinct"] = *out.Execution.Distinct
			}
		}
		cases[i] = entry
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario": name,
		"cases":    cases,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file, by default testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result, opts...); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t, append([]goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}, opts...)...)
	g.Assert(t, name, snapshot)

	return nil
}
