package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/tabled/internal/kb"
	"github.com/roach88/tabled/internal/lib/integers"
	"github.com/roach88/tabled/internal/logic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	parentChild        = logic.NewRelation("parentChild", []*logic.Type{logic.String, logic.String})
	ancestorDescendant = logic.NewRelation("ancestorDescendant", []*logic.Type{logic.String, logic.String})
	fib                = logic.NewRelation("fib", []*logic.Type{logic.Integer, logic.Integer})
	reach              = logic.NewRelation("reach", []*logic.Type{logic.Integer})

	A = logic.V("A", logic.String)
	D = logic.V("D", logic.String)
	X = logic.V("X", logic.String)
	C = logic.V("C", logic.String)

	N  = logic.V("N", logic.Integer)
	M  = logic.V("M", logic.Integer)
	F  = logic.V("F", logic.Integer)
	N1 = logic.V("N1", logic.Integer)
	N2 = logic.V("N2", logic.Integer)
	F1 = logic.V("F1", logic.Integer)
	F2 = logic.V("F2", logic.Integer)
	P  = logic.V("P", logic.Integer)
)

// ancestry declares ancestorDescendant as the transitive closure of
// parentChild.
func ancestry(c *Context) error {
	if err := c.Rule(ancestorDescendant.Of(A, D), parentChild.Of(A, D)); err != nil {
		return err
	}
	return c.Rule(ancestorDescendant.Of(A, D), logic.And(parentChild.Of(A, X), ancestorDescendant.Of(X, D)))
}

// countdown declares reach(N) :- N = 0 ; M is N-1, reach(M). Only the
// first disjunct holds at zero, so reach never needs to look below it.
func countdown(c *Context) error {
	return c.Rule(reach.Of(N), logic.Or(
		logic.Equals(N, logic.NewInt(0)),
		logic.And(logic.Is(M, integers.Sub.Of(N, 1)), reach.Of(M)),
	))
}

func facts(c *Context, ts ...*logic.Term) error {
	for _, t := range ts {
		if err := c.Fact(t); err != nil {
			return err
		}
	}
	return nil
}

// fibonacci declares fib as a pair of self-referential rules.
func fibonacci(c *Context) error {
	if err := c.Rule(fib.Of(N, F), logic.And(integers.Le.Of(N, 1), logic.Equals(F, N))); err != nil {
		return err
	}
	return c.Rule(fib.Of(N, F), logic.And(
		integers.Gt.Of(N, 1),
		logic.Is(N1, integers.Sub.Of(N, 1)),
		logic.Is(N2, integers.Sub.Of(N, 2)),
		fib.Of(N1, F1),
		fib.Of(N2, F2),
		integers.Plus.Of(F1, F2, F),
	))
}

func run(t *testing.T, block Block, opts ...Option) *kb.KnowledgeBase {
	t.Helper()
	return runOn(t, nil, block, opts...)
}

func runOn(t *testing.T, base *kb.KnowledgeBase, block Block, opts ...Option) *kb.KnowledgeBase {
	t.Helper()
	snap, err := Run(context.Background(), block, base, opts...)
	require.NoError(t, err)
	return snap
}

func lookup(t *testing.T, b logic.Binding, name string) logic.Arg {
	t.Helper()
	v, ok := b.Lookup(name)
	require.True(t, ok, "no binding for %s in %s", name, b)
	return v
}

func strs(t *testing.T, bs []logic.Binding, name string) []string {
	t.Helper()
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, lookup(t, b, name).(logic.Str).Value())
	}
	return out
}
