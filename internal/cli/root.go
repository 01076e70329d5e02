package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/tabled/internal/config"
	"github.com/roach88/tabled/internal/engine"
	"github.com/roach88/tabled/internal/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a .yaml or .cue config file

	cfg    *config.Config
	loaded bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the tabled CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tabled",
		Short: "tabled - three-valued tabled inference",
		Long: `Compile Datalog programs against a CUE schema and ask them questions.

Answers are true, false or unknown. Recursion through negation that has
no well-founded answer is reported as unknown instead of looping.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			_, err := opts.Settings()
			return err
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "engine config file (.yaml or .cue)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// Settings returns the loaded configuration, reading --config on first use.
func (o *RootOptions) Settings() (config.Config, error) {
	if o.loaded {
		return *o.cfg, nil
	}
	cfg := config.Default()
	if o.Config != "" {
		var err error
		cfg, err = config.Load(o.Config)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
		}
	}
	o.cfg, o.loaded = &cfg, true
	return cfg, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Logger builds the zap logger for a command. Logs go to w; --verbose
// lowers the level to debug.
func (o *RootOptions) Logger(w io.Writer) (*zap.Logger, error) {
	cfg, err := o.Settings()
	if err != nil {
		return nil, err
	}
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "logging level", err)
	}
	if o.Verbose {
		level = zapcore.DebugLevel
	}
	var enc zapcore.Encoder
	if cfg.Logging.Format == "json" {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level)), nil
}

// engineOptions returns the run options shared by every command. Counters
// are registered on reg when it is non-nil.
func (o *RootOptions) engineOptions(log *zap.Logger, reg prometheus.Registerer) ([]engine.Option, error) {
	cfg, err := o.Settings()
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{engine.WithConfig(cfg), engine.WithLogger(log)}
	if reg != nil {
		opts = append(opts, engine.WithMetrics(metrics.New(reg)))
	}
	return opts, nil
}
