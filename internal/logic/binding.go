package logic

import (
	"sort"
	"strconv"
	"strings"
)

// Binding maps variables to arguments. A variable bound to a Placeholder is
// "bound to a type": its value is still open but its type has been refined.
type Binding map[Var]Arg

// Lookup finds a variable by name.
func (b Binding) Lookup(name string) (Arg, bool) {
	for v, a := range b {
		if v.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Values returns the binding without entries bound only to a type.
func (b Binding) Values() Binding {
	out := make(Binding, len(b))
	for v, a := range b {
		if _, open := a.(Placeholder); open {
			continue
		}
		out[v] = a
	}
	return out
}

// Vars returns the bound variables sorted by name.
func (b Binding) Vars() []Var {
	vars := make([]Var, 0, len(b))
	for v := range b {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool {
		if vars[i].Name != vars[j].Name {
			return vars[i].Name < vars[j].Name
		}
		return vars[i].T.Name() < vars[j].T.Name()
	})
	return vars
}

// Key returns a canonical rendering usable as a map key.
func (b Binding) Key() string {
	var sb strings.Builder
	for i, v := range b.Vars() {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(ArgKey(v))
		sb.WriteByte('=')
		sb.WriteString(ArgKey(b[v]))
	}
	return sb.String()
}

func (b Binding) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range b.Vars() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.Name)
		sb.WriteByte('=')
		writeArg(&sb, b[v])
	}
	sb.WriteByte('}')
	return sb.String()
}

// Variables collects the free variables of a and their required types.
func Variables(a Arg) map[Var]*Type {
	out := map[Var]*Type{}
	collectVars(a, out)
	return out
}

func collectVars(a Arg, out map[Var]*Type) {
	switch x := a.(type) {
	case Var:
		out[x] = x.T
	case *Term:
		if x.ground {
			return
		}
		for _, sub := range x.args {
			collectVars(sub, out)
		}
	}
}

// GetBinding matches pattern against other in one direction.
//
// Variables in pattern bind to the corresponding value of other. When the
// other side is unbound the variable is bound to a placeholder of the more
// specific of the two types. Placeholders in either side act as typed
// wildcards that match anything assignable. Returns false on mismatch.
func GetBinding(pattern, other Arg) (Binding, bool) {
	b := Binding{}
	if !match(pattern, other, b) {
		return nil, false
	}
	return b, true
}

func match(p, o Arg, b Binding) bool {
	switch x := p.(type) {
	case Var:
		return bindVar(x, o, b)
	case Placeholder:
		if IsUnbound(o) {
			return Compatible(x.T, o.Type())
		}
		return x.T.IsAssignableFrom(o.Type())
	case *Term:
		switch y := o.(type) {
		case *Term:
			if x.functor != y.functor || len(x.args) != len(y.args) {
				return false
			}
			if x.key == y.key && x.ground {
				return true
			}
			for i := range x.args {
				if !match(x.args[i], y.args[i], b) {
					return false
				}
			}
			return true
		case Var, Placeholder:
			return Compatible(x.Type(), y.Type())
		default:
			return false
		}
	default:
		if IsUnbound(o) {
			return Compatible(p.Type(), o.Type())
		}
		return ArgEqual(p, o)
	}
}

func bindVar(v Var, o Arg, b Binding) bool {
	var val Arg
	if IsUnbound(o) {
		if !Compatible(v.T, o.Type()) {
			return false
		}
		val = P(MoreSpecific(v.T, o.Type()))
	} else {
		if !v.T.IsAssignableFrom(o.Type()) {
			return false
		}
		val = o
	}
	if prev, ok := b[v]; ok {
		merged, ok := Eq(prev, val)
		if !ok {
			return false
		}
		b[v] = merged
		return true
	}
	b[v] = val
	return true
}

// Eq merges two partially bound arguments into the most specific argument
// consistent with both, or returns false on conflict.
func Eq(a, b Arg) (Arg, bool) {
	au, bu := IsUnbound(a), IsUnbound(b)
	switch {
	case au && bu:
		if !Compatible(a.Type(), b.Type()) {
			return nil, false
		}
		return P(MoreSpecific(a.Type(), b.Type())), true
	case au:
		if !a.Type().IsAssignableFrom(b.Type()) {
			return nil, false
		}
		return b, true
	case bu:
		if !b.Type().IsAssignableFrom(a.Type()) {
			return nil, false
		}
		return a, true
	}
	x, xok := a.(*Term)
	y, yok := b.(*Term)
	if xok && yok {
		if x.key == y.key {
			return x, true
		}
		if x.functor != y.functor || len(x.args) != len(y.args) {
			return nil, false
		}
		merged := make([]Arg, len(x.args))
		for i := range x.args {
			m, ok := Eq(x.args[i], y.args[i])
			if !ok {
				return nil, false
			}
			merged[i] = m
		}
		t, err := Build(x.functor, merged...)
		if err != nil {
			return nil, false
		}
		return t, true
	}
	if xok || yok {
		return nil, false
	}
	if ArgEqual(a, b) {
		return a, true
	}
	return nil, false
}

// SetBinding substitutes bound variables into t. Subterms without bound
// variables are shared with t.
func SetBinding(t *Term, b Binding) *Term {
	if len(b) == 0 || t.ground {
		return t
	}
	var args []Arg
	for i, a := range t.args {
		n, changed := substitute(a, b)
		if !changed {
			continue
		}
		if args == nil {
			args = t.Args()
		}
		args[i] = n
	}
	if args == nil {
		return t
	}
	return New(t.functor, args...)
}

// Substitute is SetBinding for an arbitrary argument.
func Substitute(a Arg, b Binding) Arg {
	n, _ := substitute(a, b)
	return n
}

func substitute(a Arg, b Binding) (Arg, bool) {
	switch x := a.(type) {
	case Var:
		if v, ok := b[x]; ok {
			return v, true
		}
	case *Term:
		n := SetBinding(x, b)
		return n, n != x
	}
	return a, false
}

// Unbind replaces every variable of t by a placeholder of its type. The
// result is the call form used for memo and cycle keys.
func Unbind(t *Term) *Term {
	if t.ground {
		return t
	}
	vars := Variables(t)
	if len(vars) == 0 {
		return t
	}
	b := make(Binding, len(vars))
	for v, typ := range vars {
		b[v] = P(typ)
	}
	return SetBinding(t, b)
}

// Signature replaces every argument of t by a placeholder of its type.
func Signature(t *Term) *Term {
	args := make([]Arg, len(t.args))
	for i, a := range t.args {
		args[i] = P(a.Type())
	}
	return Make(t.functor, args...)
}

// Generalizations returns sig followed by every signature obtained by
// replacing argument types with their ancestors, at most limit entries.
func Generalizations(sig *Term, limit int) []*Term {
	combos := [][]Arg{nil}
	for _, a := range sig.args {
		var next [][]Arg
		for _, anc := range a.Type().Ancestors() {
			for _, c := range combos {
				if len(next) >= limit {
					break
				}
				row := make([]Arg, len(c), len(c)+1)
				copy(row, c)
				next = append(next, append(row, P(anc)))
			}
		}
		combos = next
	}
	out := make([]*Term, 0, len(combos))
	for _, c := range combos {
		out = append(out, Make(sig.functor, c...))
	}
	return out
}

// Subsumes reports whether specific is an instance of general: some
// substitution of general's variables yields specific. Variables of
// specific only match a general variable bound to that same variable, and
// placeholders of general match any assignable argument.
func Subsumes(general, specific Arg) bool {
	return subsumes(general, specific, map[Var]Arg{})
}

func subsumes(g, s Arg, b map[Var]Arg) bool {
	switch x := g.(type) {
	case Var:
		if prev, ok := b[x]; ok {
			return ArgKey(prev) == ArgKey(s)
		}
		if !x.T.IsAssignableFrom(s.Type()) {
			return false
		}
		b[x] = s
		return true
	case Placeholder:
		return x.T.IsAssignableFrom(s.Type())
	case *Term:
		y, ok := s.(*Term)
		if !ok || x.functor != y.functor || len(x.args) != len(y.args) {
			return false
		}
		if x.ground {
			return x.key == y.key
		}
		for i := range x.args {
			if !subsumes(x.args[i], y.args[i], b) {
				return false
			}
		}
		return true
	default:
		if IsUnbound(s) {
			return false
		}
		return ArgEqual(g, s)
	}
}

// VariantKey returns a key identifying t up to consistent renaming of its
// variables.
func VariantKey(t *Term) string {
	b := Binding{}
	renameVars(t, b)
	return SetBinding(t, b).key
}

func renameVars(a Arg, b Binding) {
	switch x := a.(type) {
	case Var:
		if _, ok := b[x]; !ok {
			b[x] = Var{Name: "_G" + strconv.Itoa(len(b)), T: x.T}
		}
	case *Term:
		if x.ground {
			return
		}
		for _, sub := range x.args {
			renameVars(sub, b)
		}
	}
}
