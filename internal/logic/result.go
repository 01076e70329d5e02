package logic

// Result is the three-valued outcome of inferring a predicate.
//
// Facts holds proven instances, Falsehoods refuted instances and Cycles the
// calls whose still-open evaluation this result depends on. For a call q:
//
//   - q is true when Facts is non-empty and q is not in both sets
//   - q is false when Facts is empty and Falsehoods is not
//   - q is unknown when q is in both Facts and Falsehoods
//
// A partially bound call lists its proven instances in Facts and itself in
// Falsehoods, meaning every instance not listed is false. An open call
// whose Facts hold the call itself and whose Falsehoods are empty holds for
// every value. Facts and Falsehoods only ever intersect in the call itself.
//
// Overflow is set when evaluation hit the depth limit. Such results carry
// no facts and are never memoized.
type Result struct {
	Facts      Set
	Falsehoods Set
	Cycles     Set
	Overflow   *Overflow
}

// Overflow carries the pending call chain, outermost first, at the point
// the depth limit was reached.
type Overflow struct {
	Chain []*Term
}

// True returns the result of a proven ground call.
func True(q *Term) Result { return Result{Facts: NewSet(q)} }

// False returns the result of a refuted call.
func False(q *Term) Result { return Result{Falsehoods: NewSet(q)} }

// Unknown returns the undecided result of q.
func Unknown(q *Term) Result {
	s := NewSet(q)
	return Result{Facts: s, Falsehoods: s}
}

// CycleMarker is the provisional result of a call found active on the
// evaluation stack.
func CycleMarker(q *Term) Result {
	s := NewSet(q)
	return Result{Facts: s, Falsehoods: s, Cycles: s}
}

// Solved builds the result of call q from its proven instances. Instances
// that do not match q are ignored. unknown marks that some instances could
// not be decided.
//
// For a ground call a matching instance makes q true even when other
// derivations were undecided.
func Solved(q *Term, unknown bool, instances ...*Term) Result {
	return Conclude(q, NewSet(instances...), unknown)
}

// Conclude is Solved over a set of instances.
func Conclude(q *Term, instances Set, unknown bool) Result {
	q = Unbind(q)
	if q.ground {
		switch {
		case instances.Has(q):
			return True(q)
		case unknown:
			return Unknown(q)
		default:
			return False(q)
		}
	}
	if instances.Has(q) {
		// the call holds for every value of its open arguments
		return Result{Facts: NewSet(q)}
	}
	var facts Set
	instances.Each(func(t *Term) bool {
		if _, ok := GetBinding(q, t); ok {
			facts = facts.Add(t)
		}
		return true
	})
	if unknown {
		facts = facts.Add(q)
	}
	return Result{Facts: facts, Falsehoods: NewSet(q)}
}

// OverflowResult returns a result signalling the depth limit.
func OverflowResult(chain []*Term) Result {
	cp := make([]*Term, len(chain))
	copy(cp, chain)
	return Result{Overflow: &Overflow{Chain: cp}}
}

// WithCycles returns r with cycles added.
func (r Result) WithCycles(c Set) Result {
	if c.Empty() {
		return r
	}
	r.Cycles = r.Cycles.Union(c)
	return r
}

// IsTrue reports whether r proves at least one instance without undecided
// parts.
func (r Result) IsTrue() bool {
	return !r.Facts.Empty() && r.Facts.Intersect(r.Falsehoods).Empty()
}

// IsFalse reports whether r refutes its call.
func (r Result) IsFalse() bool {
	return r.Facts.Empty() && !r.Falsehoods.Empty()
}

// IsUnknown reports whether q is undecided in r.
func (r Result) IsUnknown(q *Term) bool {
	q = Unbind(q)
	return r.Facts.Has(q) && r.Falsehoods.Has(q)
}

// IsOverflow reports whether evaluation hit the depth limit.
func (r Result) IsOverflow() bool { return r.Overflow != nil }

// Equal compares facts and falsehoods.
func (r Result) Equal(o Result) bool {
	return r.Facts.Equal(o.Facts) && r.Falsehoods.Equal(o.Falsehoods)
}

func (r Result) String() string {
	s := "facts=" + r.Facts.String() + " falsehoods=" + r.Falsehoods.String()
	if !r.Cycles.Empty() {
		s += " cycles=" + r.Cycles.String()
	}
	if r.Overflow != nil {
		s += " overflow"
	}
	return s
}
