package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabled/internal/config"
	"github.com/roach88/tabled/internal/kb"
	"github.com/roach88/tabled/internal/lib/integers"
	"github.com/roach88/tabled/internal/logic"
	"github.com/roach88/tabled/internal/metrics"
)

func counter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestRun_DeclarationErrors(t *testing.T) {
	run(t, func(c *Context) error {
		err := c.Fact(integers.Plus.Of(1, 2, 3))
		assert.True(t, logic.IsNativeFactError(err))

		require.NoError(t, ancestry(c))
		err = c.Fact(ancestorDescendant.Of("a", "b"))
		assert.True(t, logic.IsRuleFactError(err))

		err = c.Fact(parentChild.Of("a", D))
		assert.True(t, logic.HasCode(err, logic.ErrCodeNotGround))
		return nil
	})
}

func TestRun_RecoversTermErrors(t *testing.T) {
	snap, err := Run(context.Background(), func(c *Context) error {
		parentChild.Of(logic.NewStr("x"), "y")
		return nil
	}, nil)
	require.Error(t, err)
	assert.True(t, logic.IsWrappedValueError(err))
	assert.NotNil(t, snap)

	_, err = Run(context.Background(), func(c *Context) error {
		c.Infer(logic.EmptyList())
		return nil
	}, nil)
	assert.True(t, logic.HasCode(err, logic.ErrCodeNotPredicate))
}

func TestRun_PropagatesBlockError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), func(c *Context) error { return boom }, nil)
	assert.ErrorIs(t, err, boom)

	_, err = Run(context.Background(), nil, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, func(c *Context) error { return nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_SnapshotIsFrozen(t *testing.T) {
	snap := run(t, func(c *Context) error {
		return c.Fact(parentChild.Of("a", "b"))
	})
	assert.True(t, snap.Frozen())
	err := snap.AddFact(parentChild.Of("b", "c"))
	assert.True(t, logic.HasCode(err, logic.ErrCodeFrozen))
}

func TestRun_CacheTransparency(t *testing.T) {
	query := ancestorDescendant.Of("Carel", D)
	declare := func(c *Context) error {
		if err := facts(c,
			parentChild.Of("Carel", "Jan"),
			parentChild.Of("Jan", "Wim"),
			parentChild.Of("Wim", "Joppe"),
		); err != nil {
			return err
		}
		return ancestry(c)
	}

	var cold logic.Result
	warmBase := run(t, func(c *Context) error {
		require.NoError(t, declare(c))
		cold = c.Infer(query)
		return nil
	})
	_, memoized := warmBase.Lookup(logic.Unbind(query).Key())
	require.True(t, memoized)

	var warm, fresh logic.Result
	runOn(t, warmBase, func(c *Context) error {
		warm = c.Infer(query)
		return nil
	})
	run(t, func(c *Context) error {
		require.NoError(t, declare(c))
		fresh = c.Infer(query)
		return nil
	})
	assert.True(t, cold.Equal(warm), "cold %s, warm %s", cold, warm)
	assert.True(t, cold.Equal(fresh))
	assert.Equal(t, 3, cold.Facts.Len())
}

func TestRun_DerivedAndFactualRelations(t *testing.T) {
	linked := logic.NewRelation("linked", []*logic.Type{logic.String, logic.String}, logic.Derived())
	known := logic.NewRelation("known", []*logic.Type{logic.String, logic.String}, logic.Factual())
	snap := run(t, func(c *Context) error {
		require.NoError(t, c.Fact(parentChild.Of("a", "b")))
		require.NoError(t, c.Rule(linked.Of(A, D), parentChild.Of(A, D)))
		require.NoError(t, c.Rule(known.Of(A, D), parentChild.Of(A, D)))
		assert.True(t, c.IsTrue(linked.Of("a", "b")))
		assert.True(t, c.IsTrue(known.Of("a", "b")))
		return nil
	})

	_, ok := snap.Lookup(linked.Of("a", "b").Key())
	assert.False(t, ok, "derived results are not memoized")

	_, ok = snap.Lookup(known.Of("a", "b").Key())
	assert.False(t, ok)
	r, ok := snap.FactualResult(known.Of("a", "b").Key())
	require.True(t, ok, "factual results land in the fact table")
	assert.True(t, r.IsTrue())
}

func TestRun_DepthOverflowFlattens(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	run(t, func(c *Context) error {
		require.NoError(t, countdown(c))
		assert.True(t, c.IsTrue(reach.Of(300)))
		assert.True(t, c.IsTrue(reach.Of(301)), "answers below the first call are memoized")
		return nil
	}, WithMaxDepth(16), WithMetrics(m))

	assert.Positive(t, counter(t, reg, "tabled_depth_overflows_total"))
	assert.Positive(t, counter(t, reg, "tabled_flattens_total"))
}

func TestRun_EvictsMemoInBackground(t *testing.T) {
	double := logic.NewRelation("double", []*logic.Type{logic.Integer, logic.Integer})
	reg := prometheus.NewRegistry()
	snap := run(t, func(c *Context) error {
		require.NoError(t, c.Rule(double.Of(N, M), integers.Plus.Of(N, N, M)))
		for i := 0; i < 40; i++ {
			bs := c.Bindings(double.Of(i, M))
			require.Len(t, bs, 1)
			assert.Equal(t, fmt.Sprint(2*i), lookup(t, bs[0], "M").(logic.Int).String())
		}
		return nil
	},
		WithMetrics(metrics.New(reg)),
		WithKBOptions(kb.WithLimits(kb.Limits{HotLimit: 2, ColdLimit: 3})),
	)

	assert.Positive(t, counter(t, reg, "tabled_memo_evictions_total"))
	stats := snap.Stats()
	assert.LessOrEqual(t, stats.MemoHot, 2)
	// TestMain checks that no eviction goroutine outlives the run.
}

func TestRun_UsesRunIDGenerator(t *testing.T) {
	ids := NewSequenceGenerator("run-1", "run-2")
	var seen []string
	for i := 0; i < 2; i++ {
		run(t, func(c *Context) error {
			seen = append(seen, c.RunID())
			return nil
		}, WithRunIDGenerator(ids))
	}
	assert.Equal(t, []string{"run-1", "run-2"}, seen)
	assert.Panics(t, func() { ids.Generate() })

	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.MaxDepth = 32
	cfg.Cache.HotLimit = 7
	s := newSettings([]Option{WithConfig(cfg)})
	assert.Equal(t, 32, s.maxDepth)
	assert.Equal(t, 16, s.flattenDepth())
	assert.Equal(t, cfg.Engine.MaxIterations, s.maxIterations)

	k := kb.New(s.kbOptions...)
	assert.Equal(t, 7, k.Limits().HotLimit)
}
