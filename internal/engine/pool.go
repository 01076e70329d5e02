package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/roach88/tabled/internal/kb"
)

// Pool bounds the number of runs executing concurrently. Runs share no
// mutable state except through knowledge bases derived from a common base,
// which is safe because Derive copies store pointers.
type Pool struct {
	sem  *semaphore.Weighted
	opts []Option
}

// NewPool creates a pool admitting at most workers concurrent runs.
// workers below 1 is treated as 1. opts apply to every run.
func NewPool(workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers)), opts: opts}
}

// Run waits for a free slot and executes block as Run does.
func (p *Pool) Run(ctx context.Context, block Block, base *kb.KnowledgeBase, opts ...Option) (*kb.KnowledgeBase, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)
	return Run(ctx, block, base, append(append([]Option{}, p.opts...), opts...)...)
}

// RunAll executes every block against its own knowledge base derived from
// base. Snapshots are returned in block order. The first error cancels
// blocks that have not started yet.
func (p *Pool) RunAll(ctx context.Context, base *kb.KnowledgeBase, blocks ...Block) ([]*kb.KnowledgeBase, error) {
	out := make([]*kb.KnowledgeBase, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	for i, block := range blocks {
		g.Go(func() error {
			snap, err := p.Run(gctx, block, base)
			out[i] = snap
			return err
		})
	}
	return out, g.Wait()
}
