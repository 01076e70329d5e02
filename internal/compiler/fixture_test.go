package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tabled/internal/engine"
	"github.com/roach88/tabled/internal/logic"
)

const familySchema = `
type: {
	Animal: abstract: true
	Dog: supers: ["Animal"]
}
relation: {
	parent: args: ["string", "string"]
	ancestor: args: ["string", "string"]
	blocked: args: ["string"]
	trusted: args: ["string"]
	fib: args: ["int", "int"]
}
`

const familyProgram = `
parent(/alice, /bob).
parent(/bob, /carol).
parent(/carol, /dave).
blocked(/carol).

ancestor(X, Y) :- parent(X, Y).
ancestor(X, Z) :- parent(X, Y), ancestor(Y, Z).

trusted(X) :- ancestor(/alice, X), !blocked(X).

fib(N, F) :- N <= 1, F = N.
fib(N, F) :- N > 1, N1 = fn:minus(N, 1), N2 = fn:minus(N, 2),
	fib(N1, F1), fib(N2, F2), F = fn:plus(F1, F2).
`

func mustSchema(t *testing.T, src string) *Schema {
	t.Helper()
	s, err := CompileSchemaSource("schema.cue", []byte(src))
	require.NoError(t, err)
	return s
}

func mustProgram(t *testing.T, s *Schema, src string) *Program {
	t.Helper()
	p, err := CompileProgram(s, strings.NewReader(src))
	require.NoError(t, err)
	return p
}

// ask declares p in a fresh run and returns the result of each query.
func ask(t *testing.T, s *Schema, p *Program, queries ...string) []askResult {
	t.Helper()
	var out []askResult
	_, err := engine.Run(context.Background(), func(c *engine.Context) error {
		if err := p.Declare(c); err != nil {
			return err
		}
		for _, text := range queries {
			q, err := ParseQuery(s, text)
			if err != nil {
				return err
			}
			r := c.Infer(q.Predicate)
			out = append(out, askResult{
				result:   r,
				query:    q,
				bindings: c.Bindings(q.Predicate),
			})
		}
		return nil
	}, nil)
	require.NoError(t, err)
	return out
}

type askResult struct {
	result   logic.Result
	query    *Query
	bindings []logic.Binding
}

func (a askResult) values(name string) []string {
	var out []string
	for _, b := range a.bindings {
		if v, ok := b.Lookup(name); ok {
			out = append(out, strings.Trim(v.String(), `"`))
		}
	}
	return out
}
