package logic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groundTerms returns a small universe of ground terms of mixed shape.
func groundTerms() []*Term {
	return []*Term{
		pairF.Of(1, 2),
		pairF.Of("a", "a"),
		pairF.Of(pairF.Of(1, "x"), true),
		pairF.Of(ListOf(NewInt(1), NewInt(2)), pairF.Of("k", 3)),
		ageF.Of("wim", 40),
	}
}

// patternsFor abstracts every combination of top-level and nested argument
// positions of t into variables.
func patternsFor(t *Term) []*Term {
	var out []*Term
	n := t.Len()
	for mask := 0; mask < 1<<n; mask++ {
		args := t.Args()
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				args[i] = V(fmt.Sprintf("V%d", i), Any)
				continue
			}
			if sub, ok := args[i].(*Term); ok && sub.Len() > 0 {
				inner := sub.Args()
				inner[0] = V(fmt.Sprintf("W%d", i), Any)
				args[i] = New(sub.Functor(), inner...)
			}
		}
		p, err := Build(t.Functor(), args...)
		if err != nil {
			// typed positions reject Any variables; retry with the slot's type
			for i := range args {
				if v, ok := args[i].(Var); ok {
					args[i] = V(v.Name, t.Functor().ArgType(i))
				}
			}
			p = New(t.Functor(), args...)
		}
		out = append(out, p)
	}
	return out
}

func TestGetBinding_Soundness(t *testing.T) {
	for _, g := range groundTerms() {
		for _, p := range patternsFor(g) {
			b, ok := GetBinding(p, g)
			require.True(t, ok, "pattern %s should match %s", p, g)
			assert.True(t, SetBinding(p, b).Equal(g), "setBinding(%s, %s) != %s", p, b, g)
		}
	}
}

func TestGetBinding_Mismatch(t *testing.T) {
	g := pairF.Of(1, 2)
	_, ok := GetBinding(pairF.Of(1, 3), g)
	assert.False(t, ok)

	x := V("X", Any)
	_, ok = GetBinding(New(pairF, x, x), g)
	assert.False(t, ok, "repeated variable must bind consistently")

	b, ok := GetBinding(New(pairF, x, x), pairF.Of(5, 5))
	require.True(t, ok)
	assert.Equal(t, NewInt(5), b[x])

	_, ok = GetBinding(personF.Of("a"), ageF.Of("a", 1))
	assert.False(t, ok, "different functors never match")
}

func TestGetBinding_PlaceholdersAreTypedWildcards(t *testing.T) {
	animal := NewCapability("Animal")
	dog := NewType("Dog", animal)
	rex := NewConstructor("rex", dog, nil)
	owns := NewRelation("owns", []*Type{String, animal})

	call := New(owns, NewStr("ann"), P(animal))
	fact := New(owns, NewStr("ann"), Make(rex))

	_, ok := GetBinding(fact, call)
	assert.True(t, ok, "placeholder accepts a more specific value")

	pet := V("Pet", animal)
	b, ok := GetBinding(New(owns, NewStr("ann"), pet), New(owns, NewStr("ann"), P(dog)))
	require.True(t, ok)
	assert.Equal(t, P(dog), b[pet], "variable bound to a type records the more specific type")
	assert.Empty(t, b.Values())
}

func TestSetBinding_SharesUnchangedSubterms(t *testing.T) {
	shared := pairF.Of(1, 2)
	x := V("X", Any)
	p := New(pairF, shared, x)
	out := SetBinding(p, Binding{x: NewStr("v")})
	assert.Same(t, shared, out.Arg(0).(*Term))
	assert.Same(t, p, SetBinding(p, Binding{V("Y", Any): NewInt(1)}))
}

func TestEq_MergesPartialTerms(t *testing.T) {
	a := New(pairF, NewInt(1), P(Any))
	b := New(pairF, P(Integer), NewStr("z"))
	m, ok := Eq(a, b)
	require.True(t, ok)
	assert.Equal(t, `pair(1,"z")`, ArgKey(m))

	_, ok = Eq(pairF.Of(1, 2), pairF.Of(1, 3))
	assert.False(t, ok)

	m, ok = Eq(P(Any), P(Integer))
	require.True(t, ok)
	assert.Equal(t, P(Integer), m)
}

func TestUnbindAndSignature(t *testing.T) {
	x := V("X", Integer)
	call := New(ageF, NewStr("wim"), x)
	assert.Equal(t, `age("wim",_:Integer)`, Unbind(call).Key())
	assert.Equal(t, `age(_:String,_:Integer)`, Signature(call).Key())

	gens := Generalizations(Signature(call), 64)
	require.Len(t, gens, 4)
	assert.Equal(t, Signature(call).Key(), gens[0].Key())
	assert.Equal(t, `age(_:Any,_:Any)`, gens[3].Key())
}

func TestVariantKey(t *testing.T) {
	a := New(pairF, V("A", Any), V("B", Any))
	b := New(pairF, V("X", Any), V("Y", Any))
	c := New(pairF, V("X", Any), V("X", Any))
	assert.Equal(t, VariantKey(a), VariantKey(b))
	assert.NotEqual(t, VariantKey(a), VariantKey(c))
}

func TestVariables(t *testing.T) {
	x, y := V("X", Integer), V("Y", Any)
	vars := Variables(New(pairF, x, New(pairF, y, x)))
	assert.Equal(t, map[Var]*Type{x: Integer, y: Any}, vars)
}
