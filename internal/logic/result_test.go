package logic

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_Operations(t *testing.T) {
	a, b, c := personF.Of("a"), personF.Of("b"), personF.Of("c")
	s1 := NewSet(a, b)
	s2 := NewSet(b, c)

	assert.Equal(t, 3, s1.Union(s2).Len())
	assert.True(t, s1.Intersect(s2).Equal(NewSet(b)))
	assert.True(t, s1.Difference(s2).Equal(NewSet(a)))
	assert.True(t, s1.Any(func(x *Term) bool { return x.Equal(a) }))
	assert.False(t, s1.Remove(a).Has(a))
	assert.True(t, s1.Has(a), "sets are persistent")
	assert.Equal(t, []*Term{a, b}, s1.Slice())

	var empty Set
	assert.True(t, empty.Empty())
	assert.True(t, empty.Union(s1).Equal(s1))
}

func TestConclude_Ground(t *testing.T) {
	q := ageF.Of("wim", 3)
	assert.True(t, Solved(q, false, q).IsTrue())
	assert.True(t, Solved(q, true, q).IsTrue(), "a proof wins over undecided derivations")
	assert.True(t, Solved(q, false).IsFalse())
	assert.True(t, Solved(q, true).IsUnknown(q))
}

func TestConclude_Open(t *testing.T) {
	x := V("X", Integer)
	q := New(ageF, NewStr("wim"), x)
	r := Solved(q, false, ageF.Of("wim", 3), ageF.Of("ann", 4))
	assert.Equal(t, 1, r.Facts.Len(), "instances not matching the call are dropped")
	assert.True(t, r.IsTrue())
	assert.True(t, r.Falsehoods.Has(Unbind(q)))

	r = Solved(q, true, ageF.Of("wim", 3))
	assert.True(t, r.IsUnknown(q))
	assert.False(t, r.IsTrue())
}

// For any result built through the constructors, facts and falsehoods only
// intersect in the call itself.
func TestResult_ThreeValuedConsistency(t *testing.T) {
	q := New(ageF, NewStr("wim"), V("X", Integer))
	g := ageF.Of("wim", 1)
	results := map[string]Result{
		"true":    True(g),
		"false":   False(g),
		"unknown": Unknown(g),
		"cycle":   CycleMarker(q),
		"open":    Solved(q, false, ageF.Of("wim", 1), ageF.Of("wim", 2)),
		"openUnk": Solved(q, true, ageF.Of("wim", 1)),
		"eq":      decideEq(Equals(NewInt(1), P(Integer))),
		"is":      decideIs(Is(P(Integer), New(addF, NewInt(1), NewInt(2)))),
	}
	for name, r := range results {
		inter := r.Facts.Intersect(r.Falsehoods)
		assert.LessOrEqual(t, inter.Len(), 1, name)
		if inter.Len() == 1 {
			assert.True(t, inter.Slice()[0].Equal(r.Falsehoods.Slice()[0]), name)
		}
	}
}

var addF = NewFunction("add", Integer, []*Type{Integer, Integer}, func(args []Arg) (Arg, bool) {
	return NewBigInt(new(big.Int).Add(args[0].(Int).Value(), args[1].(Int).Value())), true
})

var divF = NewFunction("div", Integer, []*Type{Integer, Integer}, func(args []Arg) (Arg, bool) {
	d := args[1].(Int).Value()
	if d.Sign() == 0 {
		return nil, false
	}
	return NewBigInt(new(big.Int).Quo(args[0].(Int).Value(), d)), true
})

func TestIs_EvaluatesFunctionTerms(t *testing.T) {
	expr := New(addF, NewInt(3), New(addF, NewInt(4), NewInt(5)))

	r := decideIs(Is(P(Integer), expr))
	require.True(t, r.IsTrue())
	b, ok := GetBinding(Is(V("R", Integer), expr), r.Facts.Slice()[0])
	require.True(t, ok)
	assert.Equal(t, "12", b[V("R", Integer)].(Int).String())

	assert.True(t, decideIs(Is(expr, NewInt(12))).IsTrue())
	assert.True(t, decideIs(Is(expr, NewInt(11))).IsFalse())
	assert.True(t, decideIs(Is(P(Integer), New(divF, NewInt(1), NewInt(0)))).IsFalse())

	open := Is(P(Integer), New(addF, NewInt(1), P(Integer)))
	assert.True(t, decideIs(open).IsUnknown(open))
}

func TestEq_Decision(t *testing.T) {
	assert.True(t, decideEq(Equals(NewInt(1), NewInt(1))).IsTrue())
	assert.True(t, decideEq(Equals(NewInt(1), NewStr("1"))).IsFalse())
	r := decideEq(Equals(P(Any), NewStr("v")))
	require.True(t, r.IsTrue())
	b, ok := GetBinding(Equals(V("X", Any), NewStr("v")), r.Facts.Slice()[0])
	require.True(t, ok)
	assert.Equal(t, NewStr("v"), b[V("X", Any)])
}

func TestRule_PriorityAndVariants(t *testing.T) {
	a, b, c := V("A", String), V("B", String), V("C", String)
	parent := NewRelation("parent", []*Type{String, String})
	anc := NewRelation("anc", []*Type{String, String})

	base, err := NewRule(New(anc, a, c), New(parent, a, c))
	require.NoError(t, err)
	step, err := NewRule(New(anc, a, c), And(New(anc, a, b), New(parent, b, c)))
	require.NoError(t, err)
	assert.Equal(t, 0, base.Priority())
	assert.Equal(t, 1, step.Priority())

	x, y := V("X", String), V("Y", String)
	renamed, err := NewRule(New(anc, x, y), New(parent, x, y))
	require.NoError(t, err)
	assert.Equal(t, base.Key(), renamed.Key())

	_, err = NewRule(Equals(a, b), TruePredicate())
	assert.True(t, IsNativeFactError(err))

	head, cond, ok := step.Instantiate(New(anc, NewStr("carel"), P(String)))
	require.True(t, ok)
	assert.Equal(t, "anc(carel, C)", head.String())
	assert.Equal(t, "and(anc(carel, B), parent(B, C))", cond.String())
}
