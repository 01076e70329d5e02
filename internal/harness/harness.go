package harness

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/roach88/tabled/internal/canon"
	"github.com/roach88/tabled/internal/compiler"
	"github.com/roach88/tabled/internal/engine"
	"github.com/roach88/tabled/internal/logic"
	"github.com/roach88/tabled/internal/source"
	"github.com/roach88/tabled/internal/testutil"
)

// loaded is a scenario with every file compiled.
type loaded struct {
	schema   *compiler.Schema
	programs []*compiler.Program
	queries  []*compiler.Query
}

func load(s *Scenario) (*loaded, error) {
	l := &loaded{schema: compiler.NewSchema()}
	if s.Schema != "" {
		schema, err := compiler.LoadSchema(s.Schema)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", s.Schema, err)
		}
		l.schema = schema
	}
	for _, path := range s.Programs {
		p, err := compileFile(l.schema, path)
		if err != nil {
			return nil, err
		}
		l.programs = append(l.programs, p)
	}
	for i, step := range s.Queries {
		q, err := compiler.ParseQuery(l.schema, step.Query)
		if err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		l.queries = append(l.queries, q)
	}
	return l, nil
}

func compileFile(schema *compiler.Schema, path string) (*compiler.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", path, err)
	}
	defer f.Close()
	p, err := compiler.CompileProgram(schema, f)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", path, err)
	}
	return p, nil
}

// Run executes a scenario in a fresh knowledge base and returns the
// answers with every expectation checked.
//
// Execution flow:
//  1. Compile the schema, programs and queries
//  2. Open an in-memory database and import the sources
//  3. Declare the imported facts, then each program
//  4. Ask each query, logging its answer to the database
//  5. Check expectations and assertions
//
// An error is returned only when the scenario cannot run; failed
// expectations are reported in the result.
func Run(ctx context.Context, s *Scenario, opts ...engine.Option) (*Result, error) {
	l, err := load(s)
	if err != nil {
		return nil, err
	}

	db, err := source.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	defer db.Close()

	var facts []*logic.Term
	for i, src := range s.Sources {
		imported, err := importSource(ctx, db, l.schema, src)
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		facts = append(facts, imported...)
	}

	result := NewResult()
	result.Scenario = s.Name
	opts = append([]engine.Option{engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(s.RunID))}, opts...)
	snapshot, err := engine.Run(ctx, func(c *engine.Context) error {
		result.RunID = c.RunID()
		for _, f := range facts {
			if err := c.Fact(f); err != nil {
				return fmt.Errorf("imported fact %s: %w", f, err)
			}
		}
		for i, p := range l.programs {
			if err := p.Declare(c); err != nil {
				return fmt.Errorf("program %s: %w", s.Programs[i], err)
			}
		}
		for i, q := range l.queries {
			a, err := Ask(c, q)
			if err != nil {
				return fmt.Errorf("queries[%d]: %w", i, err)
			}
			a.Seq = int64(i + 1)
			if err := db.Record(ctx, c.RunID(), a.Seq, canon.Answer{Query: q.Text, Outcome: a.Outcome, Bindings: c.Bindings(q.Predicate)}); err != nil {
				return err
			}
			result.Answers = append(result.Answers, a)
		}
		return nil
	}, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("run scenario %s: %w", s.Name, err)
	}

	stats := snapshot.Stats()
	result.Facts = stats.Facts
	result.Rules = stats.Rules
	logged, err := db.Answers(ctx, result.RunID)
	if err != nil {
		return nil, err
	}
	result.Logged = len(logged)

	checkExpectations(result, s.Queries)
	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func importSource(ctx context.Context, db *source.DB, schema *compiler.Schema, src Source) ([]*logic.Term, error) {
	rel, ok := schema.Relations[src.Relation]
	if !ok || schema.IsBuiltin(src.Relation) {
		return nil, fmt.Errorf("relation %s is not declared in the schema", src.Relation)
	}
	for _, stmt := range src.SQL {
		if _, err := db.SQL().ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("setup sql: %w", err)
		}
	}
	return db.Import(ctx, source.Table{Name: src.Table, Columns: src.Columns, Relation: rel})
}

// Ask infers q and renders its outcome and bindings canonically.
func Ask(c *engine.Context, q *compiler.Query) (Answer, error) {
	r := c.Infer(q.Predicate)
	a := Answer{Query: q.Text, Outcome: Outcome(r, q.Predicate), Bindings: []map[string]any{}}

	type entry struct {
		key     string
		binding map[string]any
	}
	var entries []entry
	for _, b := range c.Bindings(q.Predicate) {
		m := canon.Binding(b)
		data, err := canon.Marshal(m)
		if err != nil {
			return Answer{}, err
		}
		entries = append(entries, entry{key: string(data), binding: m})
	}
	slices.SortFunc(entries, func(x, y entry) int { return strings.Compare(x.key, y.key) })
	for _, e := range entries {
		a.Bindings = append(a.Bindings, e.binding)
		a.canonical = append(a.canonical, e.key)
	}
	return a, nil
}

// Outcome names the truth value of p in r.
func Outcome(r logic.Result, p *logic.Term) string {
	switch {
	case r.IsUnknown(p):
		return OutcomeUnknown
	case r.IsTrue():
		return OutcomeTrue
	default:
		return OutcomeFalse
	}
}

func checkExpectations(result *Result, steps []QueryStep) {
	for i, step := range steps {
		if i >= len(result.Answers) {
			break
		}
		got := result.Answers[i]
		if got.Outcome != step.Expect {
			result.AddError(fmt.Sprintf("queries[%d] %q: expected %s, got %s", i, step.Query, step.Expect, got.Outcome))
			continue
		}
		if step.Bindings == nil {
			continue
		}
		want := make([]string, 0, len(step.Bindings))
		for _, b := range step.Bindings {
			data, err := canon.Marshal(b)
			if err != nil {
				result.AddError(fmt.Sprintf("queries[%d]: invalid expected binding: %v", i, err))
				continue
			}
			want = append(want, string(data))
		}
		slices.Sort(want)
		if !slices.Equal(want, got.canonical) {
			result.AddError(fmt.Sprintf("queries[%d] %q: expected bindings [%s], got [%s]",
				i, step.Query, strings.Join(want, " "), strings.Join(got.canonical, " ")))
		}
	}
}
