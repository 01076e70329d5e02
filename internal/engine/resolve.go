package engine

import (
	"go.uber.org/zap"

	"github.com/roach88/tabled/internal/logic"
)

// relation evaluates an atomic predicate.
func (c *Context) relation(call *logic.Term) logic.Result {
	q := logic.Unbind(call)
	if indeterminate(q) {
		return logic.Unknown(q)
	}
	if native := q.Functor().Native(); native != nil {
		return native(q)
	}
	r := c.resolve(q)
	if r.Overflow != nil && len(c.stack) <= c.cfg.flattenDepth() {
		r = c.flatten(q, r.Overflow)
	}
	return r
}

// indeterminate reports whether q has too many open arguments to decide:
// more than one, or the only argument of a unary relation.
func indeterminate(q *logic.Term) bool {
	open := 0
	for i := 0; i < q.Len(); i++ {
		if logic.IsUnbound(q.Arg(i)) {
			open++
		}
	}
	return open > 1 || (q.Len() == 1 && open == 1)
}

// resolve decides q from the fact table, the memo, the active stack or its
// rules, in that order.
//
// CRITICAL: results that depend on a provisional value (non-empty Cycles)
// or that overflowed are never memoized; they are only valid for the
// evaluation that produced them.
func (c *Context) resolve(q *logic.Term) logic.Result {
	key := q.Key()
	f := q.Functor()
	if f.IsFactual() {
		if r, ok := c.kb.FactualResult(key); ok {
			return r
		}
	}
	if r, ok := c.kb.Lookup(key); ok {
		c.metrics.CacheHit()
		return r
	}
	c.metrics.CacheMiss()

	if _, active := c.active[key]; active {
		c.metrics.Cycle()
		if prov, ok := c.cycleMemo[key]; ok {
			return prov.WithCycles(logic.NewSet(q))
		}
		return logic.CycleMarker(q)
	}

	if len(c.stack) >= c.cfg.maxDepth {
		c.metrics.Overflow()
		chain := make([]*logic.Term, 0, len(c.stack)+1)
		chain = append(chain, c.stack...)
		return logic.OverflowResult(append(chain, q))
	}

	c.push(q)
	r := c.fixpoint(q)
	c.pop(q)

	if r.Overflow == nil && r.Cycles.Empty() && !f.IsDerived() {
		if f.IsFactual() {
			c.kb.StoreFactual(key, r)
		} else if c.kb.Memoize(key, r) {
			c.startEviction()
		}
	}
	return r
}

// fixpoint evaluates the facts and rules of q. When the rules reach q
// again through the stack, q is re-evaluated with the previous iteration's
// answer as its provisional value until two iterations agree.
//
// The first provisional value depends on how q reaches itself. Through
// positive recursion only, it assumes the self reference adds nothing, so
// the iteration climbs to the least fixpoint. When some path passes through
// a negation it is unknown, and only instances that hold regardless of the
// cycle get decided. Either way the outcome does not depend on which call
// of a cycle was asked first.
func (c *Context) fixpoint(q *logic.Term) logic.Result {
	key := q.Key()
	facts := c.factInstances(q)
	rules := c.kb.RulesFor(q)
	if len(rules) == 0 {
		return logic.Conclude(q, facts, false)
	}
	if q.IsGround() && facts.Has(q) {
		return logic.True(q)
	}
	defer delete(c.cycleMemo, key)

	notQ := logic.Not(q)
	negative := false
	var prev logic.Result
	for i := 0; ; i++ {
		instances, unknown, cycles, overflow := c.applyRules(q, rules, facts)
		negative = negative || cycles.Has(notQ)
		self := cycles.Has(q) || cycles.Has(notQ)
		cycles = cycles.Remove(q).Remove(notQ)
		if overflow != nil {
			return logic.Result{Overflow: overflow, Cycles: cycles}
		}
		r := logic.Conclude(q, instances, unknown).WithCycles(cycles)
		if !self {
			return r
		}

		next := r
		if !negative {
			next = logic.Conclude(q, instances, false)
		}
		if i > 0 && next.Equal(prev) {
			return r
		}
		if i+1 >= c.cfg.maxIterations {
			c.log.Warn("fixpoint did not stabilize",
				zap.Stringer("call", q),
				zap.Int("iterations", i+1))
			return logic.Unknown(q).WithCycles(cycles)
		}
		prev = next
		c.cycleMemo[key] = next
	}
}

// applyRules unions the instances every applicable rule derives for q,
// starting from the matching facts. A ground call stops at its first proof
// and only needs its conditions decided, not enumerated.
func (c *Context) applyRules(q *logic.Term, rules []*logic.Rule, facts logic.Set) (logic.Set, bool, logic.Set, *logic.Overflow) {
	instances := facts
	unknown := false
	var cycles logic.Set
	for _, rule := range rules {
		head, cond, ok := rule.Instantiate(q)
		if !ok {
			continue
		}
		var s solution
		if q.IsGround() {
			s = c.decide(cond)
		} else {
			s = c.solve(cond)
		}
		cycles = cycles.Union(s.cycles)
		if s.overflow != nil {
			return instances, unknown, cycles, s.overflow
		}
		if s.unknown {
			unknown = true
		}
		for _, b := range s.bindings {
			instances = instances.Add(logic.Unbind(logic.SetBinding(head, b)))
		}
		if q.IsGround() && instances.Has(q) {
			break
		}
	}
	return instances, unknown, cycles, nil
}

// factInstances returns the asserted facts matching q.
func (c *Context) factInstances(q *logic.Term) logic.Set {
	all, ok := c.kb.FactsFor(q)
	if !ok {
		return logic.Set{}
	}
	if q.IsGround() {
		if c.kb.HasFact(q) {
			return logic.NewSet(q)
		}
		return logic.Set{}
	}
	var out logic.Set
	all.Each(func(f *logic.Term) bool {
		if _, ok := logic.GetBinding(q, f); ok {
			out = out.Add(f)
		}
		return true
	})
	return out
}
