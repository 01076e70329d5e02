package logic

import (
	"github.com/benbjohnson/immutable"
)

// Set is a persistent set of terms keyed by canonical key. The zero value
// is an empty set. Iteration is in key order.
type Set struct {
	m *immutable.SortedMap[string, *Term]
}

// NewSet returns a set holding ts.
func NewSet(ts ...*Term) Set {
	var s Set
	for _, t := range ts {
		s = s.Add(t)
	}
	return s
}

func (s Set) sm() *immutable.SortedMap[string, *Term] {
	if s.m == nil {
		return immutable.NewSortedMap[string, *Term](nil)
	}
	return s.m
}

// Len returns the number of members.
func (s Set) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Empty reports whether the set has no members.
func (s Set) Empty() bool { return s.Len() == 0 }

// Has reports membership by canonical key.
func (s Set) Has(t *Term) bool { return s.HasKey(t.key) }

// HasKey reports membership of a canonical key.
func (s Set) HasKey(key string) bool {
	if s.m == nil {
		return false
	}
	_, ok := s.m.Get(key)
	return ok
}

// Add returns s with t added.
func (s Set) Add(t *Term) Set {
	if s.Has(t) {
		return s
	}
	return Set{m: s.sm().Set(t.key, t)}
}

// Remove returns s without t.
func (s Set) Remove(t *Term) Set { return s.RemoveKey(t.key) }

// RemoveKey returns s without the member with the given key.
func (s Set) RemoveKey(key string) Set {
	if !s.HasKey(key) {
		return s
	}
	return Set{m: s.m.Delete(key)}
}

// Union returns the members of s or o.
func (s Set) Union(o Set) Set {
	if s.Len() < o.Len() {
		s, o = o, s
	}
	out := s
	o.Each(func(t *Term) bool {
		out = out.Add(t)
		return true
	})
	return out
}

// Intersect returns the members of both s and o.
func (s Set) Intersect(o Set) Set {
	var out Set
	s.Each(func(t *Term) bool {
		if o.Has(t) {
			out = out.Add(t)
		}
		return true
	})
	return out
}

// Difference returns the members of s not in o.
func (s Set) Difference(o Set) Set {
	out := s
	o.Each(func(t *Term) bool {
		out = out.Remove(t)
		return true
	})
	return out
}

// Any reports whether some member satisfies pred.
func (s Set) Any(pred func(*Term) bool) bool {
	found := false
	s.Each(func(t *Term) bool {
		if pred(t) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Map returns the set of fn applied to every member.
func (s Set) Map(fn func(*Term) *Term) Set {
	var out Set
	s.Each(func(t *Term) bool {
		out = out.Add(fn(t))
		return true
	})
	return out
}

// Each calls fn for every member in key order until fn returns false.
func (s Set) Each(fn func(*Term) bool) {
	if s.m == nil {
		return
	}
	itr := s.m.Iterator()
	for !itr.Done() {
		_, t, _ := itr.Next()
		if !fn(t) {
			return
		}
	}
}

// Slice returns the members in key order.
func (s Set) Slice() []*Term {
	out := make([]*Term, 0, s.Len())
	s.Each(func(t *Term) bool {
		out = append(out, t)
		return true
	})
	return out
}

// Equal reports whether both sets have the same members.
func (s Set) Equal(o Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	return !s.Any(func(t *Term) bool { return !o.Has(t) })
}

func (s Set) String() string {
	out := "{"
	for i, t := range s.Slice() {
		if i > 0 {
			out += ", "
		}
		out += t.String()
	}
	return out + "}"
}
