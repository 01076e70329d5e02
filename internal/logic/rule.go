package logic

import "fmt"

var ruleFunctor = newFunctor(":-", KindConstructor, Any, []*Type{Predicate, Predicate}, nil)

// Rule derives instances of its consequence from solutions of its
// condition.
//
// Priority is the number of condition variables that do not occur in the
// consequence. Rules with fewer such variables are tried first.
type Rule struct {
	head     *Term
	cond     *Term
	term     *Term
	priority int
	key      string
}

// NewRule validates and builds a rule. The consequence must be a non-native
// relation and the condition any predicate.
func NewRule(head, cond *Term) (*Rule, error) {
	if head == nil || head.Kind() != KindRelation {
		return nil, newError(ErrCodeNotPredicate, "rule consequence must be a relation", head)
	}
	if head.functor.native != nil {
		return nil, newError(ErrCodeNativeFact, "rule declared for a native relation", head)
	}
	if cond == nil || !cond.Kind().IsPredicate() {
		return nil, newError(ErrCodeNotPredicate, "rule condition must be a predicate", cond)
	}
	headVars := Variables(head)
	free := 0
	for v := range Variables(cond) {
		if _, ok := headVars[v]; !ok {
			free++
		}
	}
	t := Make(ruleFunctor, head, cond)
	return &Rule{
		head:     head,
		cond:     cond,
		term:     t,
		priority: free,
		key:      VariantKey(t),
	}, nil
}

func (r *Rule) Head() *Term      { return r.head }
func (r *Rule) Condition() *Term { return r.cond }
func (r *Rule) Priority() int    { return r.priority }

// Key identifies the rule up to variable renaming.
func (r *Rule) Key() string { return r.key }

// Subsumes reports whether every instance o derives is also derived by r:
// o is r with some of its variables replaced. Variants subsume each other.
func (r *Rule) Subsumes(o *Rule) bool { return Subsumes(r.term, o.term) }

// Signature returns the signature of the consequence.
func (r *Rule) Signature() *Term { return Signature(r.head) }

// Instantiate matches the consequence against call. It returns the
// consequence and condition with the call's values substituted.
func (r *Rule) Instantiate(call *Term) (head, cond *Term, ok bool) {
	b, ok := GetBinding(r.head, call)
	if !ok {
		return nil, nil, false
	}
	b = b.Values()
	return SetBinding(r.head, b), SetBinding(r.cond, b), true
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s :- %s", r.head, r.cond)
}
