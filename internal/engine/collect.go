package engine

import (
	"slices"

	"github.com/roach88/tabled/internal/logic"
)

// collect folds the accumulator over every solution of the generator.
//
// The accumulator's result position is its variable that does not occur
// in the generator; its identity position is the first other argument that
// mentions none of the variables shared with the generator. Each fold step
// plugs the running value into the identity position. An accumulator with
// several solutions keeps every candidate, so the fold may end with more
// than one result.
func (c *Context) collect(call *logic.Term) logic.Result {
	gen, acc := call.Arg(0).(*logic.Term), call.Arg(1).(*logic.Term)
	q := logic.Unbind(call)

	genVars := logic.Variables(gen)
	locals := map[logic.Var]bool{}
	for v := range logic.Variables(acc) {
		if _, ok := genVars[v]; ok {
			locals[v] = true
		}
	}

	resultPos := -1
	var resultVar logic.Var
	for i := acc.Len() - 1; i >= 0; i-- {
		if v, ok := acc.Arg(i).(logic.Var); ok && !locals[v] {
			resultPos, resultVar = i, v
			break
		}
	}
	identityPos := -1
	for i := 0; i < acc.Len() && resultPos >= 0; i++ {
		if i != resultPos && !mentions(acc.Arg(i), locals) && !logic.IsUnbound(acc.Arg(i)) {
			identityPos = i
			break
		}
	}
	if identityPos < 0 {
		return logic.Unknown(q)
	}

	gs := c.solve(gen)
	cycles := gs.cycles
	if gs.overflow != nil {
		return logic.Result{Overflow: gs.overflow, Cycles: cycles}
	}
	if gs.unknown {
		return logic.Unknown(q).WithCycles(cycles)
	}

	solutions := slices.Clone(gs.bindings)
	slices.SortStableFunc(solutions, func(a, b logic.Binding) int {
		return logic.CompareTerms(logic.SetBinding(gen, a), logic.SetBinding(gen, b))
	})

	candidates := []logic.Arg{acc.Arg(identityPos)}
	for _, b := range solutions {
		step := logic.SetBinding(acc, b)
		var next []logic.Arg
		seen := map[string]bool{}
		for _, cand := range candidates {
			s := c.solve(step.WithArg(identityPos, cand))
			cycles = cycles.Union(s.cycles)
			if s.overflow != nil {
				return logic.Result{Overflow: s.overflow, Cycles: cycles}
			}
			if s.unknown {
				return logic.Unknown(q).WithCycles(cycles)
			}
			for _, rb := range s.bindings {
				v, ok := rb[resultVar]
				if !ok || seen[logic.ArgKey(v)] {
					continue
				}
				seen[logic.ArgKey(v)] = true
				next = append(next, v)
			}
		}
		if len(next) == 0 {
			return logic.False(q).WithCycles(cycles)
		}
		candidates = next
	}

	instances := make([]*logic.Term, 0, len(candidates))
	for _, v := range candidates {
		instances = append(instances, logic.Unbind(logic.SetBinding(call, logic.Binding{resultVar: v})))
	}
	return logic.Solved(q, false, instances...).WithCycles(cycles)
}

func mentions(a logic.Arg, vars map[logic.Var]bool) bool {
	for v := range logic.Variables(a) {
		if vars[v] {
			return true
		}
	}
	return false
}
