package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunAllSharesBase(t *testing.T) {
	base := run(t, func(c *Context) error {
		if err := facts(c,
			parentChild.Of("Carel", "Jan"),
			parentChild.Of("Jan", "Wim"),
		); err != nil {
			return err
		}
		return ancestry(c)
	})

	var proven atomic.Int32
	blocks := make([]Block, 8)
	for i := range blocks {
		blocks[i] = func(c *Context) error {
			if c.IsTrue(ancestorDescendant.Of("Carel", "Wim")) {
				proven.Add(1)
			}
			return c.Fact(parentChild.Of("Wim", "Joppe"))
		}
	}

	snaps, err := NewPool(3).RunAll(context.Background(), base, blocks...)
	require.NoError(t, err)
	require.Len(t, snaps, 8)
	assert.Equal(t, int32(8), proven.Load())
	for _, s := range snaps {
		assert.Equal(t, 3, s.Stats().Facts)
	}
	assert.Equal(t, 2, base.Stats().Facts, "derived runs do not write through to the base")
}

func TestPool_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewPool(0).RunAll(context.Background(), nil,
		func(c *Context) error { return nil },
		func(c *Context) error { return boom },
	)
	assert.ErrorIs(t, err, boom)
}

func TestPool_RunHoldsASlot(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(context.Background(), func(c *Context) error {
		_, inner := p.Run(ctx, func(c *Context) error { return nil }, nil)
		assert.ErrorIs(t, inner, context.Canceled, "the only slot is taken by the outer run")
		return nil
	}, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), func(c *Context) error { return nil }, nil)
	assert.NoError(t, err, "the slot is released when the run returns")
}
