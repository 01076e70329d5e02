package logic

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pairF   = NewConstructor("pair", Any, []*Type{Any, Any})
	personF = NewRelation("person", []*Type{String})
	ageF    = NewRelation("age", []*Type{String, Integer})
)

// ratio is a normalizing constructor used to check canonicalization.
var ratioF = NewConstructor("ratio", Any, []*Type{Integer, Integer}, WithNormalize(func(t *Term) *Term {
	n := t.Arg(0).(Int).Value()
	d := t.Arg(1).(Int).Value()
	if d.Sign() == 0 {
		return t
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), new(big.Int).Abs(d))
	if g.Sign() == 0 {
		g.SetInt64(1)
	}
	if d.Sign() < 0 {
		g.Neg(g)
	}
	return Make(t.Functor(), NewBigInt(new(big.Int).Quo(n, g)), NewBigInt(new(big.Int).Quo(d, g)))
}))

func TestTerm_KeyIsStructural(t *testing.T) {
	a := pairF.Of("x", 1)
	b := pairF.Of("x", 1)
	c := pairF.Of("x", 2)

	assert.NotSame(t, a, b)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, `pair("x",1)`, a.Key())
	assert.Equal(t, Hash(a), Hash(b))
	assert.NotEqual(t, Hash(a), Hash(c))
}

func TestTerm_StringNFC(t *testing.T) {
	// "é" as e + combining acute vs precomposed.
	decomposed := personF.Of("e\u0301")
	composed := personF.Of("\u00e9")
	assert.True(t, decomposed.Equal(composed))
}

func TestTerm_Groundness(t *testing.T) {
	assert.True(t, ageF.Of("wim", 3).IsGround())
	assert.False(t, ageF.Of("wim", V("A", Integer)).IsGround())
	assert.False(t, pairF.Of(pairF.Of(P(Any), 1), 2).IsGround())
}

func TestTerm_ArityAndTypeChecks(t *testing.T) {
	_, err := Build(ageF, NewStr("wim"))
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeTypeMismatch))

	_, err = Build(ageF, NewInt(3), NewInt(3))
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeTypeMismatch))

	// A variable of an incompatible type is rejected too.
	_, err = Build(ageF, NewStr("wim"), V("X", String))
	require.Error(t, err)
}

func TestWrap_RejectsWrappedConstants(t *testing.T) {
	_, err := Wrap(NewStr("x"))
	require.Error(t, err)
	assert.True(t, IsWrappedValueError(err))

	assert.PanicsWithError(t, `WRAPPED_VALUE: wrapped constant 3 passed where a raw value is required (term=age)`, func() {
		ageF.Of("wim", NewInt(3))
	})
}

func TestWrap_RawValues(t *testing.T) {
	for _, v := range []any{"s", 1, int64(2), uint8(3), big.NewInt(4), true, V("X", nil), P(String), pairF.Of(1, 2)} {
		a, err := Wrap(v)
		require.NoError(t, err, "%T", v)
		assert.NotNil(t, a)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	cases := [][2]int64{{2, 4}, {-3, 9}, {3, -9}, {0, 5}, {7, 1}, {12, 18}}
	for _, c := range cases {
		once := ratioF.Of(c[0], c[1])
		twice := New(ratioF, once.Args()...)
		assert.True(t, once.Equal(twice), "%v", c)
	}
	assert.Equal(t, "ratio(1, 2)", ratioF.Of(2, 4).String())
	assert.Equal(t, "ratio(-1, 3)", ratioF.Of(3, -9).String())
}

func TestNormalize_SkippedForOpenTerms(t *testing.T) {
	open := New(ratioF, NewInt(2), V("D", Integer))
	assert.Equal(t, "ratio(2, D)", open.String())
}

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare(NewInt(2), NewInt(10)))
	assert.Positive(t, Compare(NewStr("b"), NewStr("a")))
	assert.Negative(t, Compare(NewBool(false), NewBool(true)))
	assert.Zero(t, Compare(pairF.Of(1, "a"), pairF.Of(1, "a")))
	assert.Negative(t, Compare(pairF.Of(1, "a"), pairF.Of(1, "b")))
	// Mixed kinds fall back to canonical keys and stay antisymmetric.
	assert.Equal(t, -Compare(NewInt(1), NewStr("1")), Compare(NewStr("1"), NewInt(1)))
}

func TestList_RoundTrip(t *testing.T) {
	l := ListOf(NewStr("Joppe"), NewStr("Marijn"))
	elems, ok := ListElements(l)
	require.True(t, ok)
	assert.Len(t, elems, 2)
	assert.Equal(t, "[Joppe, Marijn]", l.String())
	assert.Equal(t, "[]", EmptyList().String())

	_, ok = ListElements(pairF.Of(1, 2))
	assert.False(t, ok)
}

func TestType_Assignability(t *testing.T) {
	animal := NewCapability("Animal")
	pet := NewCapability("Pet", animal)
	dog := NewType("Dog", pet)

	assert.True(t, animal.IsAssignableFrom(dog))
	assert.True(t, pet.IsAssignableFrom(dog))
	assert.False(t, dog.IsAssignableFrom(animal))
	assert.True(t, Compatible(dog, animal))
	assert.Equal(t, dog, MoreSpecific(animal, dog))
	assert.Equal(t, []*Type{dog, pet, animal, Any}, dog.Ancestors())
	assert.True(t, Any.IsAssignableFrom(String))
}
