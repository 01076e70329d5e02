package engine

import (
	"slices"

	"github.com/roach88/tabled/internal/logic"
)

// infer dispatches on the predicate node kind.
func (c *Context) infer(p *logic.Term) logic.Result {
	return c.inferIn(p, modeFor(p))
}

func (c *Context) inferIn(p *logic.Term, m Mode) logic.Result {
	prev := c.mode
	c.mode = m
	defer func() { c.mode = prev }()

	switch p.Kind() {
	case logic.KindTrue:
		return logic.True(p)
	case logic.KindFalse:
		return logic.False(p)
	case logic.KindRelation:
		return c.relation(p)
	case logic.KindAnd:
		return c.and(p)
	case logic.KindOr:
		return c.or(p)
	case logic.KindNot:
		return c.not(p)
	case logic.KindCollect:
		return c.collect(p)
	default:
		panic(logic.NewError(logic.ErrCodeNotPredicate, "cannot infer a "+p.Kind().String()+" term", p))
	}
}

func modeFor(p *logic.Term) Mode {
	if p.IsGround() {
		return Reduce
	}
	return Expand
}

// solution is a result read back against the pattern that produced it.
type solution struct {
	bindings []logic.Binding
	unknown  bool
	cycles   logic.Set
	overflow *logic.Overflow
}

func (c *Context) solve(p *logic.Term) solution {
	return solutionsOf(p, c.infer(p))
}

// decide solves p when only the existence of a solution matters, as for
// the condition of a ground call: every variable of p is local. And and Or
// then run in reduce mode and stop at their first proven instance.
func (c *Context) decide(p *logic.Term) solution {
	switch p.Kind() {
	case logic.KindAnd, logic.KindOr:
		return solutionsOf(p, c.inferIn(p, Reduce))
	}
	return c.solve(p)
}

// solutionsOf extracts the bindings of pattern from each proven instance in
// r, in term order. Bindings to bare types are dropped. unknown is set when
// the call itself is undecided.
func solutionsOf(pattern *logic.Term, r logic.Result) solution {
	s := solution{cycles: r.Cycles, overflow: r.Overflow}
	if r.Overflow != nil {
		return s
	}
	q := logic.Unbind(pattern)
	s.unknown = r.IsUnknown(q)

	facts := r.Facts.Slice()
	slices.SortFunc(facts, logic.CompareTerms)
	seen := map[string]bool{}
	for _, f := range facts {
		var b logic.Binding
		if f.Key() == q.Key() {
			if s.unknown {
				continue
			}
			b = logic.Binding{}
		} else {
			m, ok := logic.GetBinding(pattern, f)
			if !ok {
				continue
			}
			b = m.Values()
		}
		if key := b.Key(); !seen[key] {
			seen[key] = true
			s.bindings = append(s.bindings, b)
		}
	}
	return s
}

// accumulator gathers the instances of a combinator call.
type accumulator struct {
	q         *logic.Term
	reduce    bool
	instances logic.Set
	unknown   bool
	cycles    logic.Set
	overflow  *logic.Overflow
}

func newAccumulator(call *logic.Term, m Mode) *accumulator {
	return &accumulator{q: logic.Unbind(call), reduce: m == Reduce}
}

// absorb records the cycles of s and reports whether s overflowed.
func (a *accumulator) absorb(s solution) bool {
	a.cycles = a.cycles.Union(s.cycles)
	if s.overflow != nil {
		a.overflow = s.overflow
		return true
	}
	return false
}

func (a *accumulator) add(t *logic.Term) {
	a.instances = a.instances.Add(logic.Unbind(t))
}

// proven reports whether a call in reduce mode already holds. A ground
// call is always in reduce mode, so its only instance is itself.
func (a *accumulator) proven() bool {
	return a.reduce && !a.instances.Empty()
}

func (a *accumulator) result() logic.Result {
	if a.overflow != nil {
		return logic.Result{Overflow: a.overflow, Cycles: a.cycles}
	}
	return logic.Conclude(a.q, a.instances, a.unknown).WithCycles(a.cycles)
}

// not negates its argument. A ground negation collapses to a crisp value;
// an open one swaps the facts and falsehoods of its argument. An argument
// that is exactly undecided stays undecided.
//
// Cycles reached through the negation are recorded negated, so fixpoint
// can tell recursion through negation from positive recursion.
func (c *Context) not(call *logic.Term) logic.Result {
	inner := call.Arg(0).(*logic.Term)
	q := logic.Unbind(call)
	r := c.infer(inner)
	cycles := negated(r.Cycles)
	if r.Overflow != nil {
		return logic.Result{Overflow: r.Overflow, Cycles: cycles}
	}
	if c.mode == Reduce {
		s := solutionsOf(inner, r)
		switch {
		case len(s.bindings) > 0:
			return logic.False(q).WithCycles(cycles)
		case s.unknown:
			return logic.Unknown(q).WithCycles(cycles)
		default:
			return logic.True(q).WithCycles(cycles)
		}
	}
	innerQ := logic.Unbind(inner)
	if r.Facts.Len() == 1 && r.Falsehoods.Len() == 1 && r.IsUnknown(innerQ) {
		return logic.Unknown(q).WithCycles(cycles)
	}
	return logic.Result{
		Facts:      r.Falsehoods.Map(logic.Not),
		Falsehoods: r.Facts.Map(logic.Not),
		Cycles:     cycles,
	}
}

// negated marks every cycle in s as reached through a negation.
func negated(s logic.Set) logic.Set {
	return s.Map(func(t *logic.Term) *logic.Term {
		if t.Kind() == logic.KindNot {
			return t
		}
		return logic.Not(t)
	})
}
