package logic

import "sync"

// Type is a named capability. Concrete types can be instantiated by terms;
// abstract capabilities only group concrete types through their supers.
//
// Types form a DAG through Supers. Assignability follows that DAG: a value
// of type T may appear where any ancestor of T is required.
type Type struct {
	name     string
	abstract bool
	supers   []*Type

	once      sync.Once
	ancestors []*Type
}

// Built-in types.
var (
	Any       = &Type{name: "Any", abstract: true}
	String    = NewType("String")
	Integer   = NewType("Integer")
	Boolean   = NewType("Boolean")
	Predicate = NewType("Predicate")
	List      = NewType("List")
)

// NewType declares a concrete type implementing the given capabilities.
// Every type implicitly implements Any.
func NewType(name string, supers ...*Type) *Type {
	return &Type{name: name, supers: withAny(supers)}
}

// NewCapability declares an abstract capability.
func NewCapability(name string, supers ...*Type) *Type {
	return &Type{name: name, abstract: true, supers: withAny(supers)}
}

func withAny(supers []*Type) []*Type {
	out := make([]*Type, 0, len(supers)+1)
	for _, s := range supers {
		if s != nil && s != Any {
			out = append(out, s)
		}
	}
	return append(out, Any)
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Abstract reports whether t is a capability without instances.
func (t *Type) Abstract() bool { return t.abstract }

// Supers returns the directly declared capabilities.
func (t *Type) Supers() []*Type {
	out := make([]*Type, len(t.supers))
	copy(out, t.supers)
	return out
}

func (t *Type) String() string { return t.name }

// Ancestors returns t followed by every capability it implements
// transitively, breadth first, without duplicates. Any is always last.
func (t *Type) Ancestors() []*Type {
	t.once.Do(func() {
		seen := map[*Type]bool{t: true}
		out := []*Type{t}
		queue := []*Type{t}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, s := range cur.supers {
				if s == Any || seen[s] {
					continue
				}
				seen[s] = true
				out = append(out, s)
				queue = append(queue, s)
			}
		}
		if t != Any {
			out = append(out, Any)
		}
		t.ancestors = out
	})
	return t.ancestors
}

// IsAssignableFrom reports whether a value of type other may be used where
// t is required.
func (t *Type) IsAssignableFrom(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	if t == Any || t == other {
		return true
	}
	for _, a := range other.Ancestors() {
		if a == t {
			return true
		}
	}
	return false
}

// Compatible reports whether the two types share instances, i.e. one is
// assignable from the other.
func Compatible(a, b *Type) bool {
	return a.IsAssignableFrom(b) || b.IsAssignableFrom(a)
}

// MoreSpecific returns whichever of a and b is assignable to the other.
// Callers must check Compatible first.
func MoreSpecific(a, b *Type) *Type {
	if a.IsAssignableFrom(b) {
		return b
	}
	return a
}
