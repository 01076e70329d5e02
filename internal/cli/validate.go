package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tabled/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schema string
	Strict bool // fail on warnings
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Programs int                        `json:"programs"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.Warning         `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <program>...",
		Short: "Check programs without running them",
		Long: `Compile the schema and every program, reporting all errors at once.

Also reports recursion between relations and relations that are called but
never defined. Recursion through negation is a warning: such relations may
be unknown. With --strict, warnings fail validation.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "CUE schema declaring types and relations")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, loadErrs := LoadProgram(opts.Schema, paths, LoadModeCollectAll)
	if loaded == nil {
		return formatter.fail(ExitCommandError, loadErrorCode(loadErrs[0]), loadErrs[0].Error())
	}

	result := ValidationResult{Valid: true, Programs: len(loaded.Programs)}
	for _, err := range loadErrs {
		ve := compiler.ValidationError{Field: "load", Message: err.Error(), Code: loadErrorCode(err)}
		var le *LoadError
		if errors.As(err, &le) && le.Path != "" {
			ve.Field, ve.Message = le.Path, le.Message
		}
		result.Errors = append(result.Errors, ve)
	}
	for i, p := range loaded.Programs {
		formatter.VerboseLog("Validating %s", loaded.Paths[i])
		result.Errors = append(result.Errors, compiler.Validate(p)...)
		result.Warnings = append(result.Warnings, compiler.Lint(loaded.Schema, p)...)
	}

	failed := len(result.Errors) > 0
	if opts.Strict {
		for _, w := range result.Warnings {
			if w.Level == "warning" {
				failed = true
			}
		}
	}
	result.Valid = !failed

	resp := CLIResponse{Status: "ok", Data: result}
	if failed {
		resp.Status = "error"
		resp.Error = &CLIError{Code: "E100", Message: "validation failed"}
		if len(result.Errors) > 0 {
			resp.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
	}
	if err := formatter.Respond(resp, func(w io.Writer) { writeValidation(w, result) }); err != nil {
		return err
	}
	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func writeValidation(w io.Writer, r ValidationResult) {
	if r.Valid {
		fmt.Fprintf(w, "✓ %d program(s) valid\n", r.Programs)
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
	}
	for _, warn := range r.Warnings {
		code := warn.Code
		if code == "" {
			code = "-"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", warn.Level, code, warn.Message)
	}
}
