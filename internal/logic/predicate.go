package logic

// Built-in predicate functors.
var (
	andFunctor     = newFunctor("and", KindAnd, Predicate, []*Type{Predicate, Predicate}, nil)
	orFunctor      = newFunctor("or", KindOr, Predicate, []*Type{Predicate, Predicate}, nil)
	notFunctor     = newFunctor("not", KindNot, Predicate, []*Type{Predicate}, nil)
	trueFunctor    = newFunctor("true", KindTrue, Predicate, nil, nil)
	falseFunctor   = newFunctor("false", KindFalse, Predicate, nil, nil)
	collectFunctor = newFunctor("collect", KindCollect, Predicate, []*Type{Predicate, Predicate}, nil)

	// EqRelation decides structural equality of its two arguments.
	EqRelation = NewRelation("eq", []*Type{Any, Any}, WithNative(decideEq))

	// IsRelation relates a function term to its evaluated value.
	IsRelation = NewRelation("is", []*Type{Any, Any}, WithNative(decideIs))

	trueTerm  = Make(trueFunctor)
	falseTerm = Make(falseFunctor)
)

// TruePredicate returns the predicate that always holds.
func TruePredicate() *Term { return trueTerm }

// FalsePredicate returns the predicate that never holds.
func FalsePredicate() *Term { return falseTerm }

// And conjoins predicates, nesting to the right. And() is true.
func And(ps ...*Term) *Term {
	return fold(andFunctor, trueTerm, ps)
}

// Or disjoins predicates, nesting to the right. Or() is false.
func Or(ps ...*Term) *Term {
	return fold(orFunctor, falseTerm, ps)
}

func fold(f *Functor, empty *Term, ps []*Term) *Term {
	switch len(ps) {
	case 0:
		return empty
	case 1:
		return ps[0]
	}
	out := ps[len(ps)-1]
	for i := len(ps) - 2; i >= 0; i-- {
		out = New(f, ps[i], out)
	}
	return out
}

// Not negates a predicate.
func Not(p *Term) *Term { return New(notFunctor, p) }

// Collect folds the accumulator over every solution of the generator.
func Collect(generator, accumulator *Term) *Term {
	return New(collectFunctor, generator, accumulator)
}

// Equals builds eq(a, b).
func Equals(a, b Arg) *Term { return New(EqRelation, a, b) }

// Is builds is(a, b) where one side is a function term.
func Is(a, b Arg) *Term { return New(IsRelation, a, b) }

func decideEq(call *Term) Result {
	m, ok := Eq(call.Arg(0), call.Arg(1))
	if !ok {
		return False(call)
	}
	if !argGround(m) {
		return Unknown(call)
	}
	return Solved(call, false, New(call.functor, m, m))
}

func decideIs(call *Term) Result {
	left, right := call.Arg(0), call.Arg(1)
	fnSide, other, fnLeft := right, left, false
	if isFunctionTerm(left) {
		fnSide, other, fnLeft = left, right, true
	} else if !isFunctionTerm(right) {
		return decideEq(call)
	}
	v, state := Evaluate(fnSide)
	switch state {
	case EvalUnbound:
		return Unknown(call)
	case EvalUndefined:
		return False(call)
	}
	m, ok := Eq(other, v)
	if !ok {
		return False(call)
	}
	if fnLeft {
		return Solved(call, false, New(call.functor, fnSide, m))
	}
	return Solved(call, false, New(call.functor, m, fnSide))
}

func isFunctionTerm(a Arg) bool {
	t, ok := a.(*Term)
	return ok && t.functor.kind == KindFunction
}
