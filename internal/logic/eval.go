package logic

// EvalState reports the outcome of Evaluate.
type EvalState int

const (
	EvalOK EvalState = iota
	// EvalUnbound means an argument was still a variable or placeholder.
	EvalUnbound
	// EvalUndefined means a function is undefined for its arguments.
	EvalUndefined
)

// Evaluate reduces function terms inside a to values. Constructor terms
// are rebuilt from their evaluated arguments.
func Evaluate(a Arg) (Arg, EvalState) {
	if IsUnbound(a) {
		return nil, EvalUnbound
	}
	t, ok := a.(*Term)
	if !ok {
		return a, EvalOK
	}
	switch t.functor.kind {
	case KindFunction, KindConstructor:
	default:
		return t, EvalOK
	}
	args := make([]Arg, len(t.args))
	changed := false
	for i, sub := range t.args {
		v, state := Evaluate(sub)
		if state != EvalOK {
			return nil, state
		}
		args[i] = v
		if v != sub {
			changed = true
		}
	}
	if t.functor.kind == KindConstructor {
		if !changed {
			return t, EvalOK
		}
		n, err := Build(t.functor, args...)
		if err != nil {
			return nil, EvalUndefined
		}
		return n, EvalOK
	}
	if t.functor.compute == nil {
		return nil, EvalUndefined
	}
	v, ok := t.functor.compute(args)
	if !ok || v == nil {
		return nil, EvalUndefined
	}
	return v, EvalOK
}
