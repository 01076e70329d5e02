package logic

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is an immutable functor application.
//
// The canonical key is computed once at construction and identifies the
// term structurally: two terms are equal iff their keys are equal.
type Term struct {
	functor *Functor
	args    []Arg
	key     string
	ground  bool
}

// New builds a term, checking arity and argument types. Ground terms are
// passed through the functor's normalize function.
//
// New panics with a *Error on invalid input. Use Build for an error return.
func New(f *Functor, args ...Arg) *Term {
	t, err := Build(f, args...)
	if err != nil {
		panic(err)
	}
	return t
}

// Build is New with an error return.
func Build(f *Functor, args ...Arg) (*Term, error) {
	t, err := build(f, args)
	if err != nil {
		return nil, err
	}
	if t.ground && f.normalize != nil {
		n := f.normalize(t)
		if n == nil || n.functor != f {
			return nil, newError(ErrCodeTypeMismatch, "normalize must return a term of the same functor", t)
		}
		return n, nil
	}
	return t, nil
}

// Make builds a term without running the normalize function. It is meant
// for use inside a NormalizeFunc.
func Make(f *Functor, args ...Arg) *Term {
	t, err := build(f, args)
	if err != nil {
		panic(err)
	}
	return t
}

func build(f *Functor, args []Arg) (*Term, error) {
	if f == nil {
		return nil, newError(ErrCodeTypeMismatch, "nil functor", nil)
	}
	if len(args) != len(f.args) {
		return nil, &Error{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("%s expects %d arguments, got %d", f, len(f.args), len(args)),
			Term:    f.name,
		}
	}
	t := &Term{functor: f, args: make([]Arg, len(args)), ground: true}
	for i, a := range args {
		if a == nil {
			return nil, &Error{Code: ErrCodeTypeMismatch, Message: fmt.Sprintf("%s: nil argument %d", f, i), Term: f.name}
		}
		if !argFits(f.args[i], a) {
			return nil, &Error{
				Code:    ErrCodeTypeMismatch,
				Message: fmt.Sprintf("%s: argument %d has type %s, want %s", f, i, a.Type(), f.args[i]),
				Term:    f.name,
			}
		}
		t.args[i] = a
		if !argGround(a) {
			t.ground = false
		}
	}
	t.key = encodeKey(t)
	return t, nil
}

func argFits(want *Type, a Arg) bool {
	if IsUnbound(a) {
		return Compatible(want, a.Type())
	}
	return want.IsAssignableFrom(a.Type())
}

func argGround(a Arg) bool {
	switch x := a.(type) {
	case Var, Placeholder:
		return false
	case *Term:
		return x.ground
	}
	return true
}

// Type returns the functor's result type.
func (t *Term) Type() *Type { return t.functor.result }

// Bound is always true for terms.
func (t *Term) Bound() bool { return true }

// Functor returns the term's functor.
func (t *Term) Functor() *Functor { return t.functor }

// Kind is shorthand for Functor().Kind().
func (t *Term) Kind() Kind { return t.functor.kind }

// Len returns the number of arguments.
func (t *Term) Len() int { return len(t.args) }

// Arg returns the i-th argument.
func (t *Term) Arg(i int) Arg { return t.args[i] }

// Args returns a copy of the arguments.
func (t *Term) Args() []Arg {
	out := make([]Arg, len(t.args))
	copy(out, t.args)
	return out
}

// Key returns the canonical key.
func (t *Term) Key() string { return t.key }

// IsGround reports whether the term contains no variables or placeholders.
func (t *Term) IsGround() bool { return t.ground }

// Equal reports structural equality.
func (t *Term) Equal(o *Term) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t == o || t.key == o.key
}

// WithArg returns a copy of t with argument i replaced.
func (t *Term) WithArg(i int, a Arg) *Term {
	args := t.Args()
	args[i] = a
	return New(t.functor, args...)
}

// String renders the term for humans. Lists render as [a, b].
func (t *Term) String() string {
	var b strings.Builder
	writeTerm(&b, t)
	return b.String()
}

func writeTerm(b *strings.Builder, t *Term) {
	if elems, ok := ListElements(t); ok {
		b.WriteByte('[')
		for i, e := range elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeArg(b, e)
		}
		b.WriteByte(']')
		return
	}
	b.WriteString(t.functor.name)
	if len(t.args) == 0 && t.functor.kind != KindConstructor {
		return
	}
	b.WriteByte('(')
	for i, a := range t.args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeArg(b, a)
	}
	b.WriteByte(')')
}

func writeArg(b *strings.Builder, a Arg) {
	switch x := a.(type) {
	case *Term:
		writeTerm(b, x)
	case Str:
		if isPlainWord(x.v) {
			b.WriteString(x.v)
		} else {
			b.WriteString(strconv.Quote(x.v))
		}
	case Placeholder:
		b.WriteByte('_')
	default:
		b.WriteString(fmt.Sprint(a))
	}
}

func isPlainWord(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != "true" && s != "false"
}
