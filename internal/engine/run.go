package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tabled/internal/kb"
	"github.com/roach88/tabled/internal/logic"
)

// Block is the body of a run: declarations and queries against c.
type Block func(c *Context) error

// Run executes block against a knowledge base derived from base, or a fresh
// one when base is nil, and returns the resulting snapshot.
//
// The snapshot is frozen: it can seed later runs through Derive but not be
// written to. It is returned even when block fails.
//
// Block runs on the calling goroutine and is not limited by any pool. To
// run blocks as tasks on a shared, bounded set of workers, use Pool.Run or
// Pool.RunAll.
//
// Panics raised by term construction inside block (*logic.Error values) are
// recovered and returned as errors. Any other panic propagates.
func Run(ctx context.Context, block Block, base *kb.KnowledgeBase, opts ...Option) (*kb.KnowledgeBase, error) {
	if block == nil {
		return nil, errors.New("engine: nil block")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := newSettings(opts)

	var k *kb.KnowledgeBase
	if base != nil {
		k = base.Derive(s.kbOptions...)
	} else {
		k = kb.New(append([]kb.Option{kb.WithLogger(s.log)}, s.kbOptions...)...)
	}

	runID := s.ids.Generate()
	log := s.log.With(zap.String("run", runID))

	evictCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, gctx := errgroup.WithContext(evictCtx)

	c := &Context{
		ctx:       gctx,
		kb:        k,
		cfg:       s,
		log:       log,
		metrics:   s.metrics,
		runID:     runID,
		group:     group,
		active:    map[string]int{},
		cycleMemo: map[string]logic.Result{},
	}

	start := time.Now()
	log.Debug("run started", zap.Bool("derived", base != nil))

	err := call(block, c)

	// Evictions stop early once the block is done.
	cancel()
	_ = group.Wait()
	k.Freeze()

	elapsed := time.Since(start)
	s.metrics.Run(elapsed, err)
	stats := k.Stats()
	log.Debug("run finished",
		zap.Duration("elapsed", elapsed),
		zap.Int("facts", stats.Facts),
		zap.Int("rules", stats.Rules),
		zap.Error(err))
	return k, err
}

// call runs block, converting a *logic.Error panic into an error.
func call(block Block, c *Context) (err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if e, ok := v.(error); ok {
			var le *logic.Error
			if errors.As(e, &le) {
				err = fmt.Errorf("run %s: %w", c.runID, e)
				return
			}
		}
		panic(v)
	}()
	return block(c)
}
