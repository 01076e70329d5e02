package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/tabled/internal/engine"
)

// ScenarioNotFoundError is returned when a scenario path does not exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// FindScenarios returns the scenario files at path: the file itself, or
// every .yaml and .yml file directly inside a directory, sorted.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var out []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}

// SuiteResult summarizes a set of scenario runs.
type SuiteResult struct {
	Total    int                `json:"total"`
	Passed   int                `json:"passed"`
	Failed   int                `json:"failed"`
	Results  map[string]*Result `json:"results,omitempty"`
	Failures []SuiteFailure     `json:"failures,omitempty"`
}

// SuiteFailure is one scenario that failed to load, run or pass.
type SuiteFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RunSuite loads and runs every scenario at path. Load and run errors are
// recorded as failures; only a missing path is returned as an error.
func RunSuite(ctx context.Context, path string, opts ...engine.Option) (*SuiteResult, error) {
	paths, err := FindScenarios(path)
	if err != nil {
		return nil, err
	}
	return RunFiles(ctx, paths, opts...), nil
}

// RunFiles runs the scenario files at paths in order.
func RunFiles(ctx context.Context, paths []string, opts ...engine.Option) *SuiteResult {
	suite := &SuiteResult{Results: map[string]*Result{}}
	for _, p := range paths {
		suite.Total++
		s, err := LoadScenario(p)
		if err != nil {
			suite.fail(p, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}
		r, err := Run(ctx, s, opts...)
		if err != nil {
			suite.fail(p, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		suite.Results[p] = r
		if !r.Pass {
			suite.fail(p, fmt.Sprintf("scenario expectations failed: %v", r.Errors))
			continue
		}
		suite.Passed++
	}
	return suite
}

func (s *SuiteResult) fail(path, msg string) {
	s.Failed++
	s.Failures = append(s.Failures, SuiteFailure{Path: path, Error: msg})
}
