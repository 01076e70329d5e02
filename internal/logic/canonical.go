package logic

import (
	"cmp"
	"strconv"
	"strings"
)

// encodeKey renders the canonical key of a freshly built term.
//
// Format:
//   - term:        name(arg,arg)
//   - string:      Go-quoted, NFC (normalized in NewStr)
//   - integer:     base 10
//   - bool:        #t / #f
//   - variable:    ?Name:Type
//   - placeholder: _:Type
//
// Nested term keys are reused, so a key is built in one pass over the
// top-level arguments.
func encodeKey(t *Term) string {
	var b strings.Builder
	b.WriteString(t.functor.name)
	b.WriteByte('(')
	for i, a := range t.args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(ArgKey(a))
	}
	b.WriteByte(')')
	return b.String()
}

// ArgKey returns the canonical key of an argument.
func ArgKey(a Arg) string {
	switch x := a.(type) {
	case *Term:
		return x.key
	case Str:
		return strconv.Quote(x.v)
	case Int:
		return x.String()
	case Bool:
		if x.v {
			return "#t"
		}
		return "#f"
	case Var:
		return "?" + x.Name + ":" + x.T.Name()
	case Placeholder:
		return "_:" + x.T.Name()
	}
	return ""
}

// ArgEqual reports structural equality of two arguments.
func ArgEqual(a, b Arg) bool {
	return ArgKey(a) == ArgKey(b)
}

// Compare orders arguments: integers numerically, strings and booleans by
// value, terms by functor name, arity then arguments lexicographically.
// Arguments of different kinds fall back to their canonical keys.
func Compare(a, b Arg) int {
	switch x := a.(type) {
	case Int:
		if y, ok := b.(Int); ok {
			return x.Value().Cmp(y.Value())
		}
	case Str:
		if y, ok := b.(Str); ok {
			return strings.Compare(x.v, y.v)
		}
	case Bool:
		if y, ok := b.(Bool); ok {
			switch {
			case x.v == y.v:
				return 0
			case !x.v:
				return -1
			default:
				return 1
			}
		}
	case *Term:
		if y, ok := b.(*Term); ok {
			return compareTerms(x, y)
		}
	}
	return strings.Compare(ArgKey(a), ArgKey(b))
}

func compareTerms(x, y *Term) int {
	if x == y {
		return 0
	}
	if c := strings.Compare(x.functor.name, y.functor.name); c != 0 {
		return c
	}
	if c := cmp.Compare(len(x.args), len(y.args)); c != 0 {
		return c
	}
	for i := range x.args {
		if c := Compare(x.args[i], y.args[i]); c != 0 {
			return c
		}
	}
	return 0
}

// CompareTerms orders terms as Compare does.
func CompareTerms(x, y *Term) int { return compareTerms(x, y) }
