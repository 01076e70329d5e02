// Package lists provides relations over cons lists.
package lists

import (
	"github.com/roach88/tabled/internal/logic"
)

var (
	// Add relates an element, a list and that list with the element
	// appended at the end. Any one argument may be open.
	Add = logic.NewRelation("add", []*logic.Type{logic.Any, logic.List, logic.List}, logic.WithNative(decideAdd))
	// Length relates a list to its number of elements.
	Length = logic.NewRelation("length", []*logic.Type{logic.List, logic.Integer}, logic.WithNative(decideLength))
	// Member enumerates the elements of a bound list.
	Member = logic.NewRelation("member", []*logic.Type{logic.Any, logic.List}, logic.WithNative(decideMember))
)

func elements(a logic.Arg) ([]logic.Arg, bool) {
	t, ok := a.(*logic.Term)
	if !ok {
		return nil, false
	}
	return logic.ListElements(t)
}

func decideAdd(call *logic.Term) logic.Result {
	x, l, r := call.Arg(0), call.Arg(1), call.Arg(2)
	ls, lok := elements(l)
	rs, rok := elements(r)
	switch {
	case lok && !logic.IsUnbound(x):
		appended := logic.ListOf(append(append([]logic.Arg{}, ls...), x)...)
		return logic.Solved(call, false, logic.New(call.Functor(), x, l, appended))
	case rok && len(rs) == 0:
		return logic.False(call)
	case rok && lok:
		if len(rs) != len(ls)+1 {
			return logic.False(call)
		}
		for i, e := range ls {
			if !logic.ArgEqual(e, rs[i]) {
				return logic.False(call)
			}
		}
		return logic.Solved(call, false, logic.New(call.Functor(), rs[len(rs)-1], l, r))
	case rok && !logic.IsUnbound(x):
		last := rs[len(rs)-1]
		if _, ok := logic.Eq(x, last); !ok {
			return logic.False(call)
		}
		return logic.Solved(call, false, logic.New(call.Functor(), last, logic.ListOf(rs[:len(rs)-1]...), r))
	}
	return logic.Unknown(call)
}

func decideLength(call *logic.Term) logic.Result {
	es, ok := elements(call.Arg(0))
	if !ok {
		return logic.Unknown(call)
	}
	return logic.Solved(call, false, logic.New(call.Functor(), call.Arg(0), logic.NewInt(int64(len(es)))))
}

func decideMember(call *logic.Term) logic.Result {
	es, ok := elements(call.Arg(1))
	if !ok {
		return logic.Unknown(call)
	}
	inst := make([]*logic.Term, 0, len(es))
	for _, e := range es {
		t, err := logic.Build(call.Functor(), e, call.Arg(1))
		if err != nil {
			continue
		}
		inst = append(inst, t)
	}
	return logic.Solved(call, false, inst...)
}
