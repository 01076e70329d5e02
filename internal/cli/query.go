package cli

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/tabled/internal/canon"
	"github.com/roach88/tabled/internal/compiler"
	"github.com/roach88/tabled/internal/engine"
	"github.com/roach88/tabled/internal/harness"
	"github.com/roach88/tabled/internal/logic"
	"github.com/roach88/tabled/internal/source"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Schema   string
	Programs []string
	DB       string
	Imports  []string
	Record   bool
	Metrics  bool
}

// QueryAnswer is the answer to one query argument.
type QueryAnswer struct {
	Seq      int64            `json:"seq"`
	Query    string           `json:"query"`
	Outcome  string           `json:"outcome"`
	Bindings []map[string]any `json:"bindings"`
}

// QueryResult is the output of the query command.
type QueryResult struct {
	RunID   string        `json:"run_id"`
	Answers []QueryAnswer `json:"answers"`
	Facts   int           `json:"facts"`
	Rules   int           `json:"rules"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query>...",
		Short: "Ask queries against compiled programs",
		Long: `Compile the schema and programs, declare them in a fresh knowledge base
and ask each query in order.

Facts can be imported from SQLite tables with --db and --import. Each
--import maps a table onto a relation: relation=table(col1,col2).

Exit codes:
  0 - every query is true
  1 - some query is false or unknown
  2 - command error (missing files, compile errors, bad imports)

Examples:
  tabled query --schema family.cue --program family.mgl 'ancestor(/alice, X)'
  tabled query --program rules.mgl --db people.db --import 'age=people(name,years)' 'adult(/ann)'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "CUE schema declaring types and relations")
	cmd.Flags().StringArrayVarP(&opts.Programs, "program", "p", nil, "Datalog program file or directory (repeatable)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database to import facts from")
	cmd.Flags().StringArrayVar(&opts.Imports, "import", nil, "table import relation=table(col,...) (repeatable, needs --db)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "log answers to the answers table of --db")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print engine counters after the run")

	return cmd
}

func runQuery(opts *QueryOptions, texts []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.DB == "" && (len(opts.Imports) > 0 || opts.Record) {
		return formatter.fail(ExitCommandError, ErrCodeSource, "--import and --record need --db")
	}

	loaded, errs := LoadProgram(opts.Schema, opts.Programs, LoadModeFailFast)
	if len(errs) > 0 {
		return formatter.fail(ExitCommandError, loadErrorCode(errs[0]), errs[0].Error())
	}
	formatter.VerboseLog("Compiled %d program(s)", len(loaded.Programs))

	queries := make([]*compiler.Query, 0, len(texts))
	for _, text := range texts {
		q, err := compiler.ParseQuery(loaded.Schema, text)
		if err != nil {
			return formatter.fail(ExitCommandError, loadErrorCode(convertCompileError("", err)), err.Error())
		}
		queries = append(queries, q)
	}

	var db *source.DB
	var imported []*logic.Term
	if opts.DB != "" {
		var err error
		db, err = source.Open(opts.DB)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeSource, err.Error())
		}
		defer db.Close()
		for _, spec := range opts.Imports {
			t, err := ParseImport(loaded.Schema, spec)
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeSource, err.Error())
			}
			facts, err := db.Import(ctx, t)
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeSource, err.Error())
			}
			formatter.VerboseLog("Imported %d fact(s) from %s", len(facts), t.Name)
			imported = append(imported, facts...)
		}
	}

	log, err := opts.Logger(formatter.GetErrWriter())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
	}
	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	runOpts, err := opts.engineOptions(log, registerer)
	if err != nil {
		return err
	}

	result := QueryResult{Answers: []QueryAnswer{}}
	snapshot, err := engine.Run(ctx, func(c *engine.Context) error {
		result.RunID = c.RunID()
		for _, f := range imported {
			if err := c.Fact(f); err != nil {
				return fmt.Errorf("imported fact %s: %w", f, err)
			}
		}
		for i, p := range loaded.Programs {
			if err := p.Declare(c); err != nil {
				return fmt.Errorf("program %s: %w", loaded.Paths[i], err)
			}
		}
		for i, q := range queries {
			a, err := harness.Ask(c, q)
			if err != nil {
				return err
			}
			seq := int64(i + 1)
			if opts.Record {
				if err := db.Record(ctx, c.RunID(), seq, canon.Answer{Query: q.Text, Outcome: a.Outcome, Bindings: c.Bindings(q.Predicate)}); err != nil {
					return err
				}
			}
			log.Debug("answered", zap.Int64("seq", seq), zap.String("query", q.Text), zap.String("outcome", a.Outcome))
			result.Answers = append(result.Answers, QueryAnswer{Seq: seq, Query: a.Query, Outcome: a.Outcome, Bindings: a.Bindings})
		}
		return nil
	}, nil, runOpts...)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeQuery, err.Error())
	}
	stats := snapshot.Stats()
	result.Facts, result.Rules = stats.Facts, stats.Rules

	err = formatter.Respond(CLIResponse{Status: "ok", Data: result, RunID: result.RunID}, func(w io.Writer) {
		writeAnswers(w, result.Answers)
	})
	if err != nil {
		return err
	}
	if reg != nil {
		if err := writeMetrics(formatter.GetErrWriter(), reg); err != nil {
			return err
		}
	}

	for _, a := range result.Answers {
		if a.Outcome != harness.OutcomeTrue {
			return NewExitError(ExitFailure, fmt.Sprintf("%s is %s", a.Query, a.Outcome))
		}
	}
	return nil
}

var importSpec = regexp.MustCompile(`^\s*(\w+)\s*=\s*(\w+)\s*\(([^)]*)\)\s*$`)

// ParseImport parses relation=table(col,...) against s.
func ParseImport(s *compiler.Schema, spec string) (source.Table, error) {
	m := importSpec.FindStringSubmatch(spec)
	if m == nil {
		return source.Table{}, fmt.Errorf("invalid import %q: want relation=table(col,...)", spec)
	}
	rel, ok := s.Relations[m[1]]
	if !ok || s.IsBuiltin(m[1]) {
		return source.Table{}, fmt.Errorf("relation %s is not declared in the schema", m[1])
	}
	var cols []string
	for _, c := range strings.Split(m[3], ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return source.Table{Name: m[2], Columns: cols, Relation: rel}, nil
}

func writeAnswers(w io.Writer, answers []QueryAnswer) {
	for _, a := range answers {
		fmt.Fprintf(w, "%s: %s\n", a.Query, a.Outcome)
		for _, b := range a.Bindings {
			if len(b) == 0 {
				continue
			}
			fmt.Fprintf(w, "  %s\n", formatBinding(b))
		}
	}
}

// formatBinding renders a binding as "X = v, Y = w" with names sorted.
func formatBinding(b map[string]any) string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		var v string
		if s, ok := b[name].(string); ok {
			v = s
		} else if data, err := canon.Marshal(b[name]); err == nil {
			v = string(data)
		} else {
			v = fmt.Sprint(b[name])
		}
		parts[i] = name + " = " + v
	}
	return strings.Join(parts, ", ")
}

// writeMetrics prints every counter and histogram count in reg, one per
// line.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, len(labels))
				for i, l := range labels {
					pairs[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				fmt.Fprintf(w, "%s_count %d\n", name, m.GetHistogram().GetSampleCount())
			}
		}
	}
	return nil
}
