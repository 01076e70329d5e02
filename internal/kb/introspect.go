package kb

import (
	"sort"
	"strings"

	"github.com/roach88/tabled/internal/logic"
)

// RuleGroup lists the rules declared for one consequence signature, in
// priority order.
type RuleGroup struct {
	Signature *logic.Term
	Rules     []*logic.Rule
}

// FactGroup lists the facts asserted for one signature, in key order.
type FactGroup struct {
	Signature *logic.Term
	Facts     []*logic.Term
}

// Stats summarizes the size of each store.
type Stats struct {
	Facts    int `json:"facts"`
	Rules    int `json:"rules"`
	Types    int `json:"types"`
	MemoHot  int `json:"memo_hot"`
	MemoWarm int `json:"memo_warm"`
	MemoCold int `json:"memo_cold"`
}

// Rules groups the declared rules by the exact signature of their
// consequence. Groups are sorted by signature key.
func (k *KnowledgeBase) Rules() []RuleGroup {
	s := k.rules.Load()
	groups := map[string]*RuleGroup{}
	itr := s.declared.Iterator()
	for !itr.Done() {
		_, r := itr.Next()
		sig := r.Signature()
		if _, ok := groups[sig.Key()]; !ok {
			groups[sig.Key()] = &RuleGroup{Signature: sig}
		}
	}
	out := make([]RuleGroup, 0, len(groups))
	for key, g := range groups {
		list, _ := s.bySig.Get(key)
		lit := list.Iterator()
		for !lit.Done() {
			_, r := lit.Next()
			if r.Signature().Key() == key {
				g.Rules = append(g.Rules, r)
			}
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature.Key() < out[j].Signature.Key() })
	return out
}

// Facts groups the asserted facts by exact signature.
func (k *KnowledgeBase) Facts() []FactGroup {
	s := k.facts.Load()
	var out []FactGroup
	index := map[string]int{}
	itr := s.byKey.Iterator()
	for !itr.Done() {
		_, t, _ := itr.Next()
		sig := logic.Signature(t)
		i, ok := index[sig.Key()]
		if !ok {
			i = len(out)
			index[sig.Key()] = i
			out = append(out, FactGroup{Signature: sig})
		}
		out[i].Facts = append(out[i].Facts, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature.Key() < out[j].Signature.Key() })
	return out
}

// Stats returns store sizes.
func (k *KnowledgeBase) Stats() Stats {
	m := k.memo.Load()
	return Stats{
		Facts:    k.facts.Load().byKey.Len(),
		Rules:    k.rules.Load().declared.Len(),
		Types:    k.specs.Load().types.Len(),
		MemoHot:  m.hot.Len(),
		MemoWarm: m.warm.Len(),
		MemoCold: m.cold.Len(),
	}
}

// Digest fingerprints the declared facts and rules. Two knowledge bases
// with the same declarations have the same digest regardless of order.
func (k *KnowledgeBase) Digest() string {
	var keys []string
	itr := k.facts.Load().byKey.Iterator()
	for !itr.Done() {
		key, _, _ := itr.Next()
		keys = append(keys, "f:"+key)
	}
	ritr := k.rules.Load().declared.Iterator()
	for !ritr.Done() {
		_, r := ritr.Next()
		keys = append(keys, "r:"+r.Key())
	}
	sort.Strings(keys)
	return logic.HashWithDomain(logic.DomainKB, []byte(strings.Join(keys, "\n")))
}
