package engine

import (
	"github.com/roach88/tabled/internal/logic"
)

// and evaluates a conjunction as a worklist of partially bound instances.
//
// Bindings of the first conjunct are substituted into the second. When the
// first conjunct is undecided as a whole, the second is solved first and
// each of its bindings yields a more specific instance of the conjunction,
// which is queued and evaluated in turn. The loop ends when no new
// instances appear.
//
// In reduce mode only existence matters: the second conjunct is decided
// rather than enumerated and the loop stops at the first proven instance.
func (c *Context) and(call *logic.Term) logic.Result {
	acc := newAccumulator(call, c.mode)
	work := []*logic.Term{call}
	seen := map[string]bool{call.Key(): true}

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		p1, p2 := cur.Arg(0).(*logic.Term), cur.Arg(1).(*logic.Term)

		s1 := c.solve(p1)
		if acc.absorb(s1) {
			return acc.result()
		}

		if len(s1.bindings) == 0 {
			if !s1.unknown {
				continue
			}
			s2 := c.solve(p2)
			if acc.absorb(s2) {
				return acc.result()
			}
			for _, b := range s2.bindings {
				next := logic.SetBinding(cur, b)
				if next.Key() == cur.Key() {
					acc.unknown = true
					continue
				}
				if !seen[next.Key()] {
					seen[next.Key()] = true
					work = append(work, next)
				}
			}
			if s2.unknown {
				acc.unknown = true
			}
			continue
		}

		for _, b1 := range s1.bindings {
			s2 := c.branch(logic.SetBinding(p2, b1), acc)
			if acc.absorb(s2) {
				return acc.result()
			}
			bound := logic.SetBinding(cur, b1)
			for _, b2 := range s2.bindings {
				acc.add(logic.SetBinding(bound, b2))
			}
			if s2.unknown {
				acc.unknown = true
			}
			if acc.proven() {
				return acc.result()
			}
		}

		// Part of p1 is undecided: the conjunction is too, unless p2 fails.
		if s1.unknown {
			s2 := c.solve(p2)
			if acc.absorb(s2) {
				return acc.result()
			}
			if len(s2.bindings) > 0 || s2.unknown {
				acc.unknown = true
			}
		}
	}
	return acc.result()
}

// or unions the solutions of both disjuncts. In reduce mode it stops at
// the first proven branch, so a later branch is never evaluated once an
// earlier one holds.
//
// A disjunct that is undecided as a whole may still be decidable once the
// other disjunct binds its variables. Each binding of the other disjunct
// yields a more specific instance of the disjunction, which is queued and
// evaluated like the instances of a conjunction.
func (c *Context) or(call *logic.Term) logic.Result {
	acc := newAccumulator(call, c.mode)
	work := []*logic.Term{call}
	seen := map[string]bool{call.Key(): true}

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		var sols [2]solution
		for i := range sols {
			s := c.branch(cur.Arg(i).(*logic.Term), acc)
			if acc.absorb(s) {
				return acc.result()
			}
			for _, b := range s.bindings {
				acc.add(logic.SetBinding(cur, b))
			}
			if acc.proven() {
				return acc.result()
			}
			sols[i] = s
		}

		for i, s := range sols {
			if !s.unknown {
				continue
			}
			acc.unknown = true
			for _, b := range sols[1-i].bindings {
				next := logic.SetBinding(cur, b)
				if !seen[next.Key()] {
					seen[next.Key()] = true
					work = append(work, next)
				}
			}
		}
	}
	return acc.result()
}

// branch solves one operand of a combinator, deciding it when the
// combinator only needs existence.
func (c *Context) branch(p *logic.Term, acc *accumulator) solution {
	if acc.reduce {
		return c.decide(p)
	}
	return c.solve(p)
}
