package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tabled/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario file name glob, without extension
	Golden string // directory of {scenario}.golden snapshots
	Update bool   // regenerate golden files
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>",
		Short: "Run scenario files",
		Long: `Run YAML scenarios: each names a schema, programs, optional SQLite sources
and queries with expected outcomes.

With --golden, each scenario's answers are also compared against
{golden}/{name}.golden. --update rewrites those files instead.

Exit codes:
  0 - all scenarios passed
  1 - one or more scenarios failed
  2 - command error (missing path, bad filter)

Examples:
  tabled test ./scenarios
  tabled test ./scenarios --filter "family*"
  tabled test ./scenarios --golden ./scenarios/golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden snapshots")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if opts.Update && opts.Golden == "" {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "--update needs --golden")
	}

	files, err := harness.FindScenarios(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, err.Error())
	}
	files, err = filterScenarios(files, opts.Filter)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}

	log, err := opts.Logger(formatter.GetErrWriter())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	runOpts, err := opts.engineOptions(log, nil)
	if err != nil {
		return err
	}

	suite := harness.RunFiles(cmd.Context(), files, runOpts...)
	failures := map[string][]string{}
	for _, f := range suite.Failures {
		failures[f.Path] = append(failures[f.Path], f.Error)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr := ScenarioResult{Path: file, Pass: len(failures[file]) == 0, Errors: failures[file]}
		if r, ok := suite.Results[file]; ok {
			sr.Name = r.Scenario
			if opts.Golden != "" {
				if err := opts.checkGolden(r); err != nil {
					sr.Pass = false
					sr.Errors = append(sr.Errors, err.Error())
				}
			}
		}
		formatter.VerboseLog("%s: pass=%t", file, sr.Pass)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{Code: "E_TEST_FAILED", Message: fmt.Sprintf("%d scenario(s) failed", result.Failed)}
	}
	if err := formatter.Respond(resp, func(w io.Writer) { writeTestResult(w, result) }); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func filterScenarios(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	var out []string
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// checkGolden compares r against its golden file, or rewrites it with
// --update.
func (o *TestOptions) checkGolden(r *harness.Result) error {
	data, err := harness.Snapshot(r.Scenario, r)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	path := filepath.Join(o.Golden, r.Scenario+".golden")
	if o.Update {
		if err := os.MkdirAll(o.Golden, 0o755); err != nil {
			return fmt.Errorf("create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write golden file: %w", err)
		}
		return nil
	}
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden file: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), data) {
		return fmt.Errorf("answers do not match %s (run with --update to regenerate)", path)
	}
	return nil
}

func writeTestResult(w io.Writer, r TestResult) {
	for _, s := range r.Scenarios {
		name := s.Name
		if name == "" {
			name = filepath.Base(s.Path)
		}
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 && r.Total > 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}
