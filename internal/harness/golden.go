package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tabled/internal/canon"
)

// Snapshot renders a result as canonical JSON: scenario name, run ID and
// every answer with its sorted bindings.
func Snapshot(name string, result *Result) ([]byte, error) {
	answers := make([]any, len(result.Answers))
	for i, a := range result.Answers {
		bindings := make([]any, len(a.Bindings))
		for j, b := range a.Bindings {
			bindings[j] = b
		}
		answers[i] = map[string]any{
			"seq":      a.Seq,
			"query":    a.Query,
			"outcome":  a.Outcome,
			"bindings": bindings,
		}
	}
	return canon.Marshal(map[string]any{
		"scenario": name,
		"run_id":   result.RunID,
		"answers":  answers,
	})
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()
	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()
	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
