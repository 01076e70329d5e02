package logic

// List constructors. A list is a chain of cons cells ending in nil.
var (
	ConsFunctor = NewConstructor("cons", List, []*Type{Any, List})
	NilFunctor  = NewConstructor("nil", List, nil)

	nilTerm = Make(NilFunctor)
)

// EmptyList returns [].
func EmptyList() *Term { return nilTerm }

// ListOf builds a list of the given elements.
func ListOf(elems ...Arg) *Term {
	out := nilTerm
	for i := len(elems) - 1; i >= 0; i-- {
		out = New(ConsFunctor, elems[i], out)
	}
	return out
}

// ListElements returns the elements of a nil-terminated list.
func ListElements(t *Term) ([]Arg, bool) {
	var out []Arg
	for {
		switch t.functor {
		case NilFunctor:
			return out, true
		case ConsFunctor:
			out = append(out, t.args[0])
			next, ok := t.args[1].(*Term)
			if !ok {
				return nil, false
			}
			t = next
		default:
			return nil, false
		}
	}
}
