package kb

import (
	"github.com/benbjohnson/immutable"

	"github.com/roach88/tabled/internal/logic"
)

type ruleStore struct {
	// bySig maps a signature key to its applicable rules in priority order.
	bySig    *immutable.Map[string, *immutable.List[*logic.Rule]]
	declared *immutable.List[*logic.Rule]
	keys     *immutable.Map[string, struct{}]
}

// AddRule declares a rule. It returns false when a rule already indexed
// under the same signature subsumes it: r is that rule with some variables
// replaced, so it can derive nothing new. Variants are the simplest case.
func (k *KnowledgeBase) AddRule(r *logic.Rule) (bool, error) {
	if err := k.checkWritable(r.Head()); err != nil {
		return false, err
	}
	k.registerTerm(r.Head())
	k.registerTerm(r.Condition())

	sigs := k.ruleSignatures(r)
	added := false
	err := update(&k.rules, func(s *ruleStore) (*ruleStore, error) {
		added = false
		if _, dup := s.keys.Get(r.Key()); dup || subsumed(s, r) {
			return s, nil
		}
		next := &ruleStore{
			bySig:    s.bySig,
			declared: s.declared.Append(r),
			keys:     s.keys.Set(r.Key(), struct{}{}),
		}
		for _, sig := range sigs {
			next.bySig = indexRule(next.bySig, sig.Key(), r)
		}
		added = true
		return next, nil
	})
	if err != nil || !added {
		return false, err
	}
	k.ResetMemo()
	return true, nil
}

// subsumed reports whether a rule under r's signature subsumes r.
func subsumed(s *ruleStore, r *logic.Rule) bool {
	list, ok := s.bySig.Get(r.Signature().Key())
	if !ok {
		return false
	}
	itr := list.Iterator()
	for !itr.Done() {
		_, cur := itr.Next()
		if cur.Subsumes(r) {
			return true
		}
	}
	return false
}

// ruleSignatures returns every signature r is indexed under: the consequence
// signature, its generalizations and its known specializations.
func (k *KnowledgeBase) ruleSignatures(r *logic.Rule) []*logic.Term {
	sig := r.Signature()
	limit := k.limits.SignatureLimit
	out := logic.Generalizations(sig, limit)
	return append(out, k.specializeSignature(sig, limit)[1:]...)
}

// indexRule inserts r into the list under key, after every rule of equal or
// lower priority. It is a no-op when the list already holds r.
func indexRule(m *immutable.Map[string, *immutable.List[*logic.Rule]], key string, r *logic.Rule) *immutable.Map[string, *immutable.List[*logic.Rule]] {
	list, ok := m.Get(key)
	if !ok {
		return m.Set(key, immutable.NewList(r))
	}
	pos := list.Len()
	for i := 0; i < list.Len(); i++ {
		cur := list.Get(i)
		if cur.Key() == r.Key() {
			return m
		}
		if cur.Priority() > r.Priority() && pos == list.Len() {
			pos = i
		}
	}
	if pos == list.Len() {
		return m.Set(key, list.Append(r))
	}
	next := immutable.NewList[*logic.Rule]()
	for i := 0; i < list.Len(); i++ {
		if i == pos {
			next = next.Append(r)
		}
		next = next.Append(list.Get(i))
	}
	return m.Set(key, next)
}

// reindexRules indexes every declared rule under signatures that became
// known after it was declared.
func (k *KnowledgeBase) reindexRules() {
	declared := k.rules.Load().declared
	if declared.Len() == 0 {
		return
	}
	type entry struct {
		rule *logic.Rule
		sigs []*logic.Term
	}
	entries := make([]entry, 0, declared.Len())
	itr := declared.Iterator()
	for !itr.Done() {
		_, r := itr.Next()
		entries = append(entries, entry{rule: r, sigs: k.ruleSignatures(r)})
	}
	_ = update(&k.rules, func(s *ruleStore) (*ruleStore, error) {
		next := &ruleStore{bySig: s.bySig, declared: s.declared, keys: s.keys}
		for _, e := range entries {
			for _, sig := range e.sigs {
				next.bySig = indexRule(next.bySig, sig.Key(), e.rule)
			}
		}
		return next, nil
	})
	k.ResetMemo()
}

// RulesFor returns the rules applicable to call in priority order.
func (k *KnowledgeBase) RulesFor(call *logic.Term) []*logic.Rule {
	list, ok := k.rules.Load().bySig.Get(logic.Signature(call).Key())
	if !ok {
		return nil
	}
	out := make([]*logic.Rule, 0, list.Len())
	itr := list.Iterator()
	for !itr.Done() {
		_, r := itr.Next()
		out = append(out, r)
	}
	return out
}

// HasRules reports whether any rule is indexed under sig.
func (k *KnowledgeBase) HasRules(sig *logic.Term) bool {
	list, ok := k.rules.Load().bySig.Get(sig.Key())
	return ok && list.Len() > 0
}
