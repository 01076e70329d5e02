package kb

import (
	"github.com/benbjohnson/immutable"

	"github.com/roach88/tabled/internal/logic"
)

type specStore struct {
	types *immutable.SortedMap[string, *logic.Type]
	// concrete maps a type name to the concrete types assignable to it.
	concrete *immutable.Map[string, *immutable.SortedMap[string, *logic.Type]]
}

// UpdateSpecializations records t and, when t is concrete, adds it to the
// specialization set of every ancestor. Rules declared on an ancestor are
// then indexed under the new concrete signatures.
func (k *KnowledgeBase) UpdateSpecializations(t *logic.Type) {
	added := false
	_ = update(&k.specs, func(s *specStore) (*specStore, error) {
		added = false
		if _, ok := s.types.Get(t.Name()); ok {
			return s, nil
		}
		next := &specStore{types: s.types.Set(t.Name(), t), concrete: s.concrete}
		if !t.Abstract() {
			for _, anc := range t.Ancestors() {
				set, ok := next.concrete.Get(anc.Name())
				if !ok {
					set = immutable.NewSortedMap[string, *logic.Type](nil)
				}
				next.concrete = next.concrete.Set(anc.Name(), set.Set(t.Name(), t))
			}
			added = true
		}
		return next, nil
	})
	if added {
		k.reindexRules()
	}
}

// Specializations returns t and the known concrete types assignable to it.
func (k *KnowledgeBase) Specializations(t *logic.Type) []*logic.Type {
	out := []*logic.Type{t}
	set, ok := k.specs.Load().concrete.Get(t.Name())
	if !ok {
		return out
	}
	itr := set.Iterator()
	for !itr.Done() {
		_, c, _ := itr.Next()
		if c != t {
			out = append(out, c)
		}
	}
	return out
}

// Types returns every registered type in name order.
func (k *KnowledgeBase) Types() []*logic.Type {
	s := k.specs.Load()
	out := make([]*logic.Type, 0, s.types.Len())
	itr := s.types.Iterator()
	for !itr.Done() {
		_, t, _ := itr.Next()
		out = append(out, t)
	}
	return out
}

// registerTerm registers every type mentioned by a.
func (k *KnowledgeBase) registerTerm(a logic.Arg) {
	seen := map[*logic.Type]bool{}
	var walk func(logic.Arg)
	walk = func(a logic.Arg) {
		t := a.Type()
		if !seen[t] {
			seen[t] = true
			k.UpdateSpecializations(t)
		}
		if term, ok := a.(*logic.Term); ok {
			for _, sub := range term.Args() {
				walk(sub)
			}
		}
	}
	walk(a)
}

// specializeSignature returns the signatures obtained by replacing each
// argument type of sig with its known specializations, at most limit
// entries. The first entry is sig itself.
func (k *KnowledgeBase) specializeSignature(sig *logic.Term, limit int) []*logic.Term {
	combos := [][]logic.Arg{nil}
	for _, a := range sig.Args() {
		var next [][]logic.Arg
		for _, t := range k.Specializations(a.Type()) {
			for _, c := range combos {
				if len(next) >= limit {
					break
				}
				row := make([]logic.Arg, len(c), len(c)+1)
				copy(row, c)
				next = append(next, append(row, logic.P(t)))
			}
		}
		combos = next
	}
	out := make([]*logic.Term, 0, len(combos))
	for _, c := range combos {
		out = append(out, logic.Make(sig.Functor(), c...))
	}
	return out
}
