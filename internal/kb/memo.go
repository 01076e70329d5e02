package kb

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"go.uber.org/zap"

	"github.com/roach88/tabled/internal/logic"
)

// ErrEvictionConflict is returned when eviction lost every compare-and-swap
// attempt. Eviction is best effort; callers may ignore it.
var ErrEvictionConflict = errors.New("kb: memo eviction lost to concurrent writers")

const (
	evictRetries    = 8
	evictCheckEvery = 64
)

// memoStore is the generational memo table. New entries enter hot; when hot
// is full, warm is merged into cold and hot becomes warm.
type memoStore struct {
	hot, warm, cold *immutable.Map[string, *memoEntry]
}

type memoEntry struct {
	result logic.Result
	uses   atomic.Int64
}

func emptyMemo() *memoStore {
	return &memoStore{
		hot:  immutable.NewMap[string, *memoEntry](nil),
		warm: immutable.NewMap[string, *memoEntry](nil),
		cold: immutable.NewMap[string, *memoEntry](nil),
	}
}

// clone copies the generations. Entries are shared, usage counters too.
func (m *memoStore) clone() *memoStore {
	return &memoStore{hot: m.hot, warm: m.warm, cold: m.cold}
}

func (m *memoStore) get(key string) (*memoEntry, bool) {
	for _, gen := range []*immutable.Map[string, *memoEntry]{m.hot, m.warm, m.cold} {
		if e, ok := gen.Get(key); ok {
			return e, true
		}
	}
	return nil, false
}

// Lookup returns the memoized result for a call key and counts the use.
func (k *KnowledgeBase) Lookup(key string) (logic.Result, bool) {
	e, ok := k.memo.Load().get(key)
	if !ok {
		return logic.Result{}, false
	}
	e.uses.Add(1)
	return e.result, true
}

// Uses returns the usage counter of a memo entry.
func (k *KnowledgeBase) Uses(key string) int64 {
	e, ok := k.memo.Load().get(key)
	if !ok {
		return 0
	}
	return e.uses.Load()
}

// Memoize stores r under key. It returns true when the cold generation has
// outgrown its limit and the caller now owns the eviction: it must call
// Evict exactly once.
func (k *KnowledgeBase) Memoize(key string, r logic.Result) bool {
	if k.frozen.Load() {
		return false
	}
	entry := &memoEntry{result: r}
	var coldLen int
	_ = update(&k.memo, func(m *memoStore) (*memoStore, error) {
		next := &memoStore{hot: m.hot.Set(key, entry), warm: m.warm, cold: m.cold}
		if next.hot.Len() > k.limits.HotLimit {
			cold := next.cold
			itr := next.warm.Iterator()
			for !itr.Done() {
				wk, we, _ := itr.Next()
				cold = cold.Set(wk, we)
			}
			next = &memoStore{hot: immutable.NewMap[string, *memoEntry](nil), warm: next.hot, cold: cold}
		}
		coldLen = next.cold.Len()
		return next, nil
	})
	if coldLen <= k.limits.ColdLimit {
		return false
	}
	return k.evicting.CompareAndSwap(false, true)
}

// Evict drops cold entries used fewer than PromoteUses times and promotes
// the rest to warm. It stops with ctx's error when ctx is done. The caller
// must own the eviction (see Memoize).
func (k *KnowledgeBase) Evict(ctx context.Context) (int, error) {
	defer k.evicting.Store(false)
	for attempt := 0; attempt < evictRetries; attempt++ {
		old := k.memo.Load()
		warm := old.warm
		dropped := 0
		itr := old.cold.Iterator()
		for i := 0; !itr.Done(); i++ {
			if i%evictCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return 0, err
				}
			}
			key, e, _ := itr.Next()
			if e.uses.Load() >= k.limits.PromoteUses {
				if _, ok := warm.Get(key); !ok {
					warm = warm.Set(key, e)
				}
				continue
			}
			dropped++
		}
		next := &memoStore{hot: old.hot, warm: warm, cold: immutable.NewMap[string, *memoEntry](nil)}
		if k.memo.CompareAndSwap(old, next) {
			k.log.Debug("memo eviction complete",
				zap.Int("dropped", dropped),
				zap.Int("warm", warm.Len()))
			return dropped, nil
		}
	}
	return 0, ErrEvictionConflict
}

// ResetMemo drops every memoized result.
func (k *KnowledgeBase) ResetMemo() {
	k.memo.Store(emptyMemo())
}
