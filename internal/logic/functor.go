package logic

import "fmt"

// Kind selects the role of a functor, and for predicates, the node of the
// predicate algebra.
type Kind int

const (
	// KindConstructor builds data terms.
	KindConstructor Kind = iota
	// KindFunction builds uninterpreted function terms evaluated by Is.
	KindFunction
	// KindRelation is an atomic predicate.
	KindRelation
	KindAnd
	KindOr
	KindNot
	KindTrue
	KindFalse
	KindCollect
)

func (k Kind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindFunction:
		return "function"
	case KindRelation:
		return "relation"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindCollect:
		return "collect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsPredicate reports whether terms of this kind can be inferred.
func (k Kind) IsPredicate() bool { return k >= KindRelation }

// NativeFunc decides a relation call directly. The call has its unbound
// arguments replaced by placeholders; the result must be expressed with
// Solved, True, False or Unknown for that call.
type NativeFunc func(call *Term) Result

// NormalizeFunc returns the canonical form of a ground term. It must be
// idempotent and must return a term of the same functor.
type NormalizeFunc func(t *Term) *Term

// ComputeFunc evaluates a function term whose arguments are ground values.
// It returns false when the function is undefined for the arguments.
type ComputeFunc func(args []Arg) (Arg, bool)

// Functor describes an operation: its name, argument types, result type and
// evaluation hooks. Functors are identified by pointer; two functors with
// the same name and arity must not coexist in one knowledge base.
type Functor struct {
	name      string
	kind      Kind
	result    *Type
	args      []*Type
	native    NativeFunc
	normalize NormalizeFunc
	compute   ComputeFunc
	factual   bool
	derived   bool
}

// FunctorOption configures a functor declaration.
type FunctorOption func(*Functor)

// WithNative attaches a native decision function to a relation.
func WithNative(fn NativeFunc) FunctorOption {
	return func(f *Functor) { f.native = fn }
}

// WithNormalize attaches a canonicalization function.
func WithNormalize(fn NormalizeFunc) FunctorOption {
	return func(f *Functor) { f.normalize = fn }
}

// WithCompute attaches the evaluator of a function functor.
func WithCompute(fn ComputeFunc) FunctorOption {
	return func(f *Functor) { f.compute = fn }
}

// Factual stores inferred results in the fact table instead of the memo.
func Factual() FunctorOption {
	return func(f *Functor) { f.factual = true }
}

// Derived disables memoization of inferred results.
func Derived() FunctorOption {
	return func(f *Functor) { f.derived = true }
}

// NewRelation declares an atomic predicate.
func NewRelation(name string, args []*Type, opts ...FunctorOption) *Functor {
	return newFunctor(name, KindRelation, Predicate, args, opts)
}

// NewConstructor declares a data constructor producing values of result.
func NewConstructor(name string, result *Type, args []*Type, opts ...FunctorOption) *Functor {
	return newFunctor(name, KindConstructor, result, args, opts)
}

// NewFunction declares a function whose terms are evaluated by Is.
func NewFunction(name string, result *Type, args []*Type, compute ComputeFunc, opts ...FunctorOption) *Functor {
	opts = append([]FunctorOption{WithCompute(compute)}, opts...)
	return newFunctor(name, KindFunction, result, args, opts)
}

func newFunctor(name string, kind Kind, result *Type, args []*Type, opts []FunctorOption) *Functor {
	if result == nil {
		result = Any
	}
	f := &Functor{name: name, kind: kind, result: result, args: make([]*Type, len(args))}
	for i, t := range args {
		if t == nil {
			t = Any
		}
		f.args[i] = t
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Functor) Name() string              { return f.name }
func (f *Functor) Kind() Kind                { return f.kind }
func (f *Functor) Result() *Type             { return f.result }
func (f *Functor) Arity() int                { return len(f.args) }
func (f *Functor) ArgType(i int) *Type       { return f.args[i] }
func (f *Functor) Native() NativeFunc        { return f.native }
func (f *Functor) Normalizer() NormalizeFunc { return f.normalize }
func (f *Functor) Compute() ComputeFunc      { return f.compute }
func (f *Functor) IsFactual() bool           { return f.factual }
func (f *Functor) IsDerived() bool           { return f.derived }

// ArgTypes returns a copy of the declared argument types.
func (f *Functor) ArgTypes() []*Type {
	out := make([]*Type, len(f.args))
	copy(out, f.args)
	return out
}

func (f *Functor) String() string { return fmt.Sprintf("%s/%d", f.name, len(f.args)) }

// Of builds a term from raw Go values, wrapping each with Wrap.
// It panics with a *Error on invalid input; Run recovers such panics.
func (f *Functor) Of(args ...any) *Term {
	wrapped := make([]Arg, len(args))
	for i, a := range args {
		w, err := Wrap(a)
		if err != nil {
			panic(withTerm(err, f.name))
		}
		wrapped[i] = w
	}
	return New(f, wrapped...)
}
