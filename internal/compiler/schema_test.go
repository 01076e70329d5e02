package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabled/internal/logic"
)

func TestCompileSchema(t *testing.T) {
	s := mustSchema(t, familySchema+`
relation: owns: {args: ["string", "Animal"], derived: true}
relation: score: {args: ["Dog", "int"], factual: true}
`)

	animal := s.Types["Animal"]
	dog := s.Types["Dog"]
	require.NotNil(t, animal)
	require.NotNil(t, dog)
	assert.True(t, animal.Abstract())
	assert.False(t, dog.Abstract())
	assert.True(t, animal.IsAssignableFrom(dog))

	owns := s.Relations["owns"]
	require.NotNil(t, owns)
	assert.Equal(t, 2, owns.Arity())
	assert.Equal(t, logic.String, owns.ArgType(0))
	assert.Equal(t, animal, owns.ArgType(1))
	assert.True(t, owns.IsDerived())
	assert.True(t, s.Relations["score"].IsFactual())

	assert.Equal(t, []string{"ancestor", "blocked", "fib", "owns", "parent", "score", "trusted"}, s.Declared())
	assert.True(t, s.IsBuiltin("plus"))
	assert.False(t, s.IsBuiltin("parent"))
}

func TestCompileSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"unknown arg type", `relation: r: args: ["Cat"]`, ErrCodeUnknownType},
		{"unknown supertype", `type: Dog: supers: ["Animal"]`, ErrCodeUnknownType},
		{"supertype cycle", `type: {A: supers: ["B"], B: supers: ["A"]}`, ErrCodeTypeCycle},
		{"self supertype", `type: A: supers: ["A"]`, ErrCodeTypeCycle},
		{"shadows builtin type", `type: string: {}`, ErrCodeDuplicate},
		{"shadows builtin relation", `relation: plus: args: ["int", "int", "int"]`, ErrCodeDuplicate},
		{"args not a list", `relation: r: args: "string"`, ErrCodeSchema},
		{"unknown field", `relations: r: args: ["string"]`, ErrCodeSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSchemaSource("schema.cue", []byte(tt.src))
			require.Error(t, err)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.code, ce.Code)
		})
	}
}

func TestCompileSchema_CycleMessageHasPath(t *testing.T) {
	_, err := CompileSchemaSource("schema.cue", []byte(`type: {A: supers: ["B"], B: supers: ["A"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A → B → A")
}

func TestLoadSchema_MissingFile(t *testing.T) {
	_, err := LoadSchema("testdata/does-not-exist.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read schema")
}
