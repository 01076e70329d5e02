package kb

import (
	"github.com/benbjohnson/immutable"

	"github.com/roach88/tabled/internal/logic"
)

type factStore struct {
	byKey *immutable.SortedMap[string, *logic.Term]
	// bySig indexes each fact under its signature and every generalization.
	bySig *immutable.Map[string, logic.Set]
	// results holds inferred results of factual relations.
	results *immutable.Map[string, logic.Result]
}

// AddFact asserts a ground relation.
func (k *KnowledgeBase) AddFact(t *logic.Term) error {
	if err := k.checkWritable(t); err != nil {
		return err
	}
	if t.Kind() != logic.KindRelation {
		return logic.NewError(logic.ErrCodeNotPredicate, "facts must be relations", t)
	}
	if !t.IsGround() {
		return logic.NewError(logic.ErrCodeNotGround, "facts must be ground", t)
	}
	if t.Functor().Native() != nil {
		return logic.NewError(logic.ErrCodeNativeFact, "fact declared for a native relation", t)
	}
	sig := logic.Signature(t)
	if k.HasRules(sig) {
		return logic.NewError(logic.ErrCodeRuleFact, "fact declared for a signature that has rules", t)
	}
	k.registerTerm(t)

	gens := logic.Generalizations(sig, k.limits.SignatureLimit)
	err := update(&k.facts, func(s *factStore) (*factStore, error) {
		if _, ok := s.byKey.Get(t.Key()); ok {
			return s, nil
		}
		next := &factStore{byKey: s.byKey.Set(t.Key(), t), bySig: s.bySig, results: s.results}
		for _, g := range gens {
			set, _ := next.bySig.Get(g.Key())
			next.bySig = next.bySig.Set(g.Key(), set.Add(t))
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	k.ResetMemo()
	return nil
}

// Facts returns the facts indexed under the signature of call, and whether
// the signature has any facts at all.
func (k *KnowledgeBase) FactsFor(call *logic.Term) (logic.Set, bool) {
	set, ok := k.facts.Load().bySig.Get(logic.Signature(call).Key())
	return set, ok && !set.Empty()
}

// HasFact reports whether the ground term t was asserted.
func (k *KnowledgeBase) HasFact(t *logic.Term) bool {
	_, ok := k.facts.Load().byKey.Get(t.Key())
	return ok
}

// FactualResult returns the stored result of a factual relation call.
func (k *KnowledgeBase) FactualResult(key string) (logic.Result, bool) {
	return k.facts.Load().results.Get(key)
}

// StoreFactual records the result of a factual relation call in the fact
// table. Results stored here survive memo resets and eviction.
func (k *KnowledgeBase) StoreFactual(key string, r logic.Result) {
	if k.frozen.Load() {
		return
	}
	_ = update(&k.facts, func(s *factStore) (*factStore, error) {
		return &factStore{byKey: s.byKey, bySig: s.bySig, results: s.results.Set(key, r)}, nil
	})
}
