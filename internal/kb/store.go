package kb

import (
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"go.uber.org/zap"

	"github.com/roach88/tabled/internal/logic"
)

// Limits bounds the memo table and signature indexing.
type Limits struct {
	// HotLimit is the size at which the hot generation rotates.
	HotLimit int
	// ColdLimit is the size of the cold generation that triggers eviction.
	ColdLimit int
	// PromoteUses is the usage count that saves a cold entry from eviction.
	PromoteUses int64
	// SignatureLimit caps the generalized signatures a fact or rule is
	// indexed under.
	SignatureLimit int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		HotLimit:       4096,
		ColdLimit:      16384,
		PromoteUses:    2,
		SignatureLimit: 64,
	}
}

// KnowledgeBase holds the state of one run.
//
// Thread-safety: all methods are safe for concurrent use.
type KnowledgeBase struct {
	facts atomic.Pointer[factStore]
	rules atomic.Pointer[ruleStore]
	specs atomic.Pointer[specStore]
	memo  atomic.Pointer[memoStore]

	limits   Limits
	log      *zap.Logger
	frozen   atomic.Bool
	evicting atomic.Bool
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithLimits overrides DefaultLimits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(k *KnowledgeBase) {
		d := DefaultLimits()
		if l.HotLimit > 0 {
			d.HotLimit = l.HotLimit
		}
		if l.ColdLimit > 0 {
			d.ColdLimit = l.ColdLimit
		}
		if l.PromoteUses > 0 {
			d.PromoteUses = l.PromoteUses
		}
		if l.SignatureLimit > 0 {
			d.SignatureLimit = l.SignatureLimit
		}
		k.limits = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(k *KnowledgeBase) {
		if l != nil {
			k.log = l
		}
	}
}

// New returns an empty knowledge base.
func New(opts ...Option) *KnowledgeBase {
	k := &KnowledgeBase{limits: DefaultLimits(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(k)
	}
	k.facts.Store(&factStore{
		byKey:   immutable.NewSortedMap[string, *logic.Term](nil),
		bySig:   immutable.NewMap[string, logic.Set](nil),
		results: immutable.NewMap[string, logic.Result](nil),
	})
	k.rules.Store(&ruleStore{
		bySig:    immutable.NewMap[string, *immutable.List[*logic.Rule]](nil),
		declared: immutable.NewList[*logic.Rule](),
		keys:     immutable.NewMap[string, struct{}](nil),
	})
	k.specs.Store(&specStore{
		types:    immutable.NewSortedMap[string, *logic.Type](nil),
		concrete: immutable.NewMap[string, *immutable.SortedMap[string, *logic.Type]](nil),
	})
	k.memo.Store(emptyMemo())
	return k
}

// Derive returns a writable knowledge base sharing k's current contents.
// Later writes to either side are not visible to the other.
func (k *KnowledgeBase) Derive(opts ...Option) *KnowledgeBase {
	d := &KnowledgeBase{limits: k.limits, log: k.log}
	for _, opt := range opts {
		opt(d)
	}
	d.facts.Store(k.facts.Load())
	d.rules.Store(k.rules.Load())
	d.specs.Store(k.specs.Load())
	d.memo.Store(k.memo.Load().clone())
	return d
}

// Freeze makes k read-only. Writes after Freeze return an error with code
// FROZEN; memoization becomes a no-op.
func (k *KnowledgeBase) Freeze() { k.frozen.Store(true) }

// Frozen reports whether Freeze was called.
func (k *KnowledgeBase) Frozen() bool { return k.frozen.Load() }

// Limits returns the configured limits.
func (k *KnowledgeBase) Limits() Limits { return k.limits }

func (k *KnowledgeBase) checkWritable(t *logic.Term) error {
	if k.frozen.Load() {
		return logic.NewError(logic.ErrCodeFrozen, "knowledge base belongs to a completed run", t)
	}
	return nil
}

// update runs fn against the current value of p until the compare-and-swap
// succeeds. fn must not mutate its argument. Returning the argument itself
// skips the write.
func update[T any](p *atomic.Pointer[T], fn func(*T) (*T, error)) error {
	for {
		old := p.Load()
		next, err := fn(old)
		if err != nil {
			return err
		}
		if next == old || p.CompareAndSwap(old, next) {
			return nil
		}
	}
}
