package tabled_test

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/tabled"
	"github.com/roach88/tabled/internal/lib/integers"
	"github.com/roach88/tabled/internal/lib/lists"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	parentChild        = tabled.Relation("parentChild", []*tabled.Type{tabled.String, tabled.String})
	ancestorDescendant = tabled.Relation("ancestorDescendant", []*tabled.Type{tabled.String, tabled.String})
	fib                = tabled.Relation("fib", []*tabled.Type{tabled.Integer, tabled.Integer})
)

func run(t *testing.T, block tabled.Block, opts ...tabled.Option) *tabled.KnowledgeBase {
	t.Helper()
	snap, err := tabled.Run(context.Background(), block, nil, opts...)
	require.NoError(t, err)
	return snap
}

func value(t *testing.T, b tabled.Binding, name string) string {
	t.Helper()
	v, ok := b.Lookup(name)
	require.True(t, ok, "no binding for %s", name)
	return fmt.Sprint(v)
}

func ancestry(c *tabled.Context) error {
	A, D, X := tabled.Var("A", tabled.String), tabled.Var("D", tabled.String), tabled.Var("X", tabled.String)
	if err := c.Rule(ancestorDescendant.Of(A, D), parentChild.Of(A, D)); err != nil {
		return err
	}
	return c.Rule(ancestorDescendant.Of(A, D), tabled.And(parentChild.Of(A, X), ancestorDescendant.Of(X, D)))
}

func TestAncestry(t *testing.T) {
	run(t, func(c *tabled.Context) error {
		require.NoError(t, c.Fact(parentChild.Of("Carel", "Jan")))
		require.NoError(t, c.Fact(parentChild.Of("Jan", "Wim")))
		require.NoError(t, ancestry(c))

		assert.True(t, c.IsTrue(ancestorDescendant.Of("Carel", "Wim")))
		assert.True(t, c.IsFalse(ancestorDescendant.Of("Wim", "Carel")))
		assert.False(t, c.IsUnknown(ancestorDescendant.Of("Wim", "Carel")))
		return nil
	})
}

func TestPlusAndSqrt(t *testing.T) {
	P := tabled.Var("P", tabled.Integer)
	run(t, func(c *tabled.Context) error {
		bs := c.Bindings(integers.Plus.Of(7, 3, P))
		require.Len(t, bs, 1)
		assert.Equal(t, "10", value(t, bs[0], "P"))

		bs = c.Bindings(integers.Plus.Of(7, P, 10))
		require.Len(t, bs, 1)
		assert.Equal(t, "3", value(t, bs[0], "P"))

		bs = c.Bindings(integers.Sqrt.Of(49, P))
		require.Len(t, bs, 2)
		assert.ElementsMatch(t, []string{"7", "-7"}, []string{value(t, bs[0], "P"), value(t, bs[1], "P")})
		return nil
	})
}

func TestCollect(t *testing.T) {
	C := tabled.Var("C", tabled.String)
	PL := tabled.Var("PL", tabled.List)
	run(t, func(c *tabled.Context) error {
		require.NoError(t, c.Fact(parentChild.Of("Wim", "Joppe")))
		require.NoError(t, c.Fact(parentChild.Of("Wim", "Marijn")))

		bs := c.Bindings(tabled.Collect(parentChild.Of("Wim", C), lists.Add.Of(C, tabled.ListOf(), PL)))
		require.Len(t, bs, 1)
		assert.Equal(t, "[Joppe, Marijn]", value(t, bs[0], "PL"))
		return nil
	})
}

func TestFibonacci(t *testing.T) {
	N, F := tabled.Var("N", tabled.Integer), tabled.Var("F", tabled.Integer)
	N1, N2 := tabled.Var("N1", tabled.Integer), tabled.Var("N2", tabled.Integer)
	F1, F2 := tabled.Var("F1", tabled.Integer), tabled.Var("F2", tabled.Integer)

	want, prev := new(big.Int), big.NewInt(1)
	for i := 0; i < 1000; i++ {
		want, prev = prev.Add(prev, want), want
	}

	run(t, func(c *tabled.Context) error {
		require.NoError(t, c.Rule(fib.Of(N, F), tabled.And(integers.Le.Of(N, 1), tabled.Eq(F, N))))
		require.NoError(t, c.Rule(fib.Of(N, F), tabled.And(
			integers.Gt.Of(N, 1),
			tabled.Is(N1, integers.Sub.Of(N, 1)),
			tabled.Is(N2, integers.Sub.Of(N, 2)),
			fib.Of(N1, F1),
			fib.Of(N2, F2),
			integers.Plus.Of(F1, F2, F),
		)))
		bs := c.Bindings(fib.Of(1000, F))
		require.Len(t, bs, 1)
		assert.Equal(t, want.String(), value(t, bs[0], "F"))
		return nil
	})
}

func TestCapabilityRulesApplyToConcreteTypes(t *testing.T) {
	animal := tabled.NewCapability("Animal")
	dog := tabled.NewType("Dog", animal)
	rex := tabled.Constructor("rex", dog, nil)
	legs := tabled.Relation("legs", []*tabled.Type{animal, tabled.Integer})
	walks := tabled.Relation("walks", []*tabled.Type{animal})
	X, N := tabled.Var("X", animal), tabled.Var("N", tabled.Integer)

	run(t, func(c *tabled.Context) error {
		require.NoError(t, c.Rule(walks.Of(X), legs.Of(X, N)))
		require.NoError(t, c.Fact(legs.Of(rex.Of(), 4)))
		assert.True(t, c.IsTrue(walks.Of(rex.Of())))
		return nil
	})
}

func TestNegationWithoutFoundationIsUnknown(t *testing.T) {
	move := tabled.Relation("move", []*tabled.Type{tabled.String, tabled.String})
	win := tabled.Relation("win", []*tabled.Type{tabled.String})
	X, Y := tabled.Var("X", tabled.String), tabled.Var("Y", tabled.String)

	run(t, func(c *tabled.Context) error {
		for _, f := range []*tabled.Term{move.Of("a", "b"), move.Of("b", "a"), move.Of("c", "d")} {
			require.NoError(t, c.Fact(f))
		}
		require.NoError(t, c.Rule(win.Of(X), tabled.And(move.Of(X, Y), tabled.Not(win.Of(Y)))))

		assert.True(t, c.IsTrue(win.Of("c")))
		assert.True(t, c.IsFalse(win.Of("d")))
		assert.True(t, c.IsUnknown(win.Of("a")))
		assert.True(t, c.IsUnknown(tabled.Not(win.Of("a"))))
		return nil
	})
}

func TestErrors(t *testing.T) {
	_, err := tabled.Run(context.Background(), func(c *tabled.Context) error {
		if err := c.Fact(integers.Plus.Of(1, 2, 3)); !tabled.IsNativeFactError(err) {
			return fmt.Errorf("want native fact error, got %v", err)
		}
		parentChild.Of(parentChild.Of("a", "b").Arg(0), "c")
		return nil
	}, nil)
	require.Error(t, err)
	assert.True(t, tabled.IsWrappedValueError(err))
}

func TestPoolAndOptions(t *testing.T) {
	base := run(t, func(c *tabled.Context) error {
		require.NoError(t, c.Fact(parentChild.Of("Carel", "Jan")))
		require.NoError(t, c.Fact(parentChild.Of("Jan", "Wim")))
		return ancestry(c)
	})

	reg := prometheus.NewRegistry()
	pool := tabled.NewPool(2, tabled.WithPrometheus(reg), tabled.WithConfig(tabled.DefaultConfig()))
	answers := make([]bool, 2)
	_, err := pool.RunAll(context.Background(), base,
		func(c *tabled.Context) error {
			answers[0] = c.IsTrue(ancestorDescendant.Of("Carel", "Wim"))
			return nil
		},
		func(c *tabled.Context) error {
			answers[1] = c.IsFalse(ancestorDescendant.Of("Wim", "Jan"))
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, answers)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
	assert.Equal(t, 2, base.Stats().Facts)
	assert.Equal(t, 2, base.Stats().Rules)
}

func ExampleRun() {
	parent := tabled.Relation("parent", []*tabled.Type{tabled.String, tabled.String})
	X := tabled.Var("X", tabled.String)

	_, err := tabled.Run(context.Background(), func(c *tabled.Context) error {
		if err := c.Fact(parent.Of("alice", "bob")); err != nil {
			return err
		}
		fmt.Println(c.IsTrue(parent.Of("alice", "bob")))
		fmt.Println(c.IsFalse(parent.Of("bob", "alice")))
		fmt.Println(len(c.Bindings(parent.Of("alice", X))))
		return nil
	}, nil)
	if err != nil {
		fmt.Println(err)
	}
	// Output:
	// true
	// true
	// 1
}
