package canon

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabled/internal/lib/rationals"
	"github.com/roach88/tabled/internal/logic"
)

func TestMarshal(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hi", `"hi"`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"nfc", "e\u0301", "\"\u00e9\""},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash kept", `\u2028`, `"\\u2028"`},
		{"big int", huge, "123456789012345678901234567890"},
		{"bools", []any{true, false}, "[true,false]"},
		{"sorted keys", map[string]any{"b": 1, "a": int64(2)}, `{"a":2,"b":1}`},
		{"utf16 key order", map[string]any{"\uffff": 1, "\U0001F600": 2}, "{\"\U0001F600\":2,\"\uffff\":1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_Rejects(t *testing.T) {
	for _, in := range []any{nil, 1.5, float32(2), struct{}{}, []any{nil}} {
		_, err := Marshal(in)
		assert.Error(t, err, "%#v", in)
	}
}

func TestArg(t *testing.T) {
	assert.Equal(t, "x", Arg(logic.NewStr("x")))
	assert.Equal(t, big.NewInt(7), Arg(logic.NewInt(7)))
	assert.Equal(t, []any{"a", big.NewInt(1)}, Arg(logic.ListOf(logic.NewStr("a"), logic.NewInt(1))))
	assert.Equal(t, "_", Arg(logic.P(logic.String)))

	data, err := Marshal(Arg(rationals.Of(2, 4)))
	require.NoError(t, err)
	assert.Equal(t, `{"args":[1,2],"functor":"ratio"}`, string(data))
}

func TestMarshalAnswer_SortsBindings(t *testing.T) {
	x := logic.V("X", logic.String)
	a := Answer{
		Query:   "p(X)",
		Outcome: "true",
		Bindings: []logic.Binding{
			{x: logic.NewStr("b")},
			{x: logic.NewStr("a")},
		},
	}
	got, err := MarshalAnswer(a)
	require.NoError(t, err)
	assert.Equal(t, `{"bindings":[{"X":"a"},{"X":"b"}],"outcome":"true","query":"p(X)"}`, string(got))

	a.Bindings[0], a.Bindings[1] = a.Bindings[1], a.Bindings[0]
	again, err := MarshalAnswer(a)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, Hash(got), Hash(again))
	assert.NotEqual(t, logic.HashWithDomain(logic.DomainTerm, got), Hash(got))
}
