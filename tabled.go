// Package tabled is a tabled logic-inference engine with three-valued
// semantics.
//
// Callers declare types and functors, build immutable terms, and assert
// facts and rules inside a Run. Questions are answered true, false or
// unknown; recursion is memoized and cycle safe, and recursion through
// negation without a well-founded answer is unknown rather than looping.
//
//	parent := tabled.Relation("parent", []*tabled.Type{tabled.String, tabled.String})
//	X := tabled.Var("X", tabled.String)
//
//	_, err := tabled.Run(ctx, func(c *tabled.Context) error {
//		if err := c.Fact(parent.Of("alice", "bob")); err != nil {
//			return err
//		}
//		for _, b := range c.Bindings(parent.Of("alice", X)) {
//			fmt.Println(b)
//		}
//		return nil
//	}, nil)
package tabled

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/roach88/tabled/internal/config"
	"github.com/roach88/tabled/internal/engine"
	"github.com/roach88/tabled/internal/kb"
	"github.com/roach88/tabled/internal/logic"
	"github.com/roach88/tabled/internal/metrics"
)

type (
	Type          = logic.Type
	Functor       = logic.Functor
	FunctorOption = logic.FunctorOption
	NativeFunc    = logic.NativeFunc
	NormalizeFunc = logic.NormalizeFunc
	ComputeFunc   = logic.ComputeFunc

	Term        = logic.Term
	Arg         = logic.Arg
	Variable    = logic.Var
	Placeholder = logic.Placeholder
	Binding     = logic.Binding
	Result      = logic.Result
	Error       = logic.Error

	KnowledgeBase = kb.KnowledgeBase
	RuleGroup     = kb.RuleGroup
	FactGroup     = kb.FactGroup
	Stats         = kb.Stats

	Context = engine.Context
	Block   = engine.Block
	Option  = engine.Option
	Pool    = engine.Pool

	// Config holds engine, cache, pool and logging settings.
	Config = config.Config
)

// Built-in types.
var (
	Any       = logic.Any
	String    = logic.String
	Integer   = logic.Integer
	Boolean   = logic.Boolean
	Predicate = logic.Predicate
	List      = logic.List
)

// NewType declares a concrete type implementing supers.
func NewType(name string, supers ...*Type) *Type { return logic.NewType(name, supers...) }

// NewCapability declares an abstract type. Rules on a capability apply to
// every concrete type that implements it.
func NewCapability(name string, supers ...*Type) *Type { return logic.NewCapability(name, supers...) }

// Relation declares a predicate functor.
func Relation(name string, args []*Type, opts ...FunctorOption) *Functor {
	return logic.NewRelation(name, args, opts...)
}

// Constructor declares a data functor whose terms have type result.
func Constructor(name string, result *Type, args []*Type, opts ...FunctorOption) *Functor {
	return logic.NewConstructor(name, result, args, opts...)
}

// Function declares an interpreted function, evaluated by Is.
func Function(name string, result *Type, args []*Type, compute ComputeFunc, opts ...FunctorOption) *Functor {
	return logic.NewFunction(name, result, args, compute, opts...)
}

// Native decides calls of a relation in Go instead of by rules.
func Native(fn NativeFunc) FunctorOption { return logic.WithNative(fn) }

// Normalize canonicalizes ground terms of a functor at construction.
func Normalize(fn NormalizeFunc) FunctorOption { return logic.WithNormalize(fn) }

// Factual stores inferred results of a relation with its facts, where they
// survive memo eviction.
func Factual() FunctorOption { return logic.Factual() }

// Derived disables memoization of a relation.
func Derived() FunctorOption { return logic.Derived() }

// Var returns a variable that binds values of type t.
func Var(name string, t *Type) Variable { return logic.V(name, t) }

// Wildcard matches any value of type t without binding it.
func Wildcard(t *Type) Placeholder { return logic.P(t) }

// ListOf builds a list term from raw Go values or terms.
func ListOf(elems ...any) *Term {
	args := make([]Arg, len(elems))
	for i, e := range elems {
		a, err := logic.Wrap(e)
		if err != nil {
			panic(err)
		}
		args[i] = a
	}
	return logic.ListOf(args...)
}

// And holds when every p holds. And() is True().
func And(ps ...*Term) *Term { return logic.And(ps...) }

// Or holds when some p holds. Or() is False().
func Or(ps ...*Term) *Term { return logic.Or(ps...) }

// Not negates p. Not of an unknown predicate is unknown.
func Not(p *Term) *Term { return logic.Not(p) }

// Eq unifies a and b, which may be raw Go values.
func Eq(a, b any) *Term { return logic.EqRelation.Of(a, b) }

// Is binds a to the value of the function term b.
func Is(a, b any) *Term { return logic.IsRelation.Of(a, b) }

// Collect folds every solution of generator through accumulator.
func Collect(generator, accumulator *Term) *Term { return logic.Collect(generator, accumulator) }

// True is the predicate that always holds.
func True() *Term { return logic.TruePredicate() }

// False is the predicate that never holds.
func False() *Term { return logic.FalsePredicate() }

// Run executes block against a knowledge base derived from base, or a new
// one when base is nil, and returns the frozen result. Block runs on the
// calling goroutine; use a Pool to share a bounded set of workers between
// runs.
func Run(ctx context.Context, block Block, base *KnowledgeBase, opts ...Option) (*KnowledgeBase, error) {
	return engine.Run(ctx, block, base, opts...)
}

// NewPool bounds concurrent runs to workers.
func NewPool(workers int, opts ...Option) *Pool { return engine.NewPool(workers, opts...) }

// WithMaxDepth sets the number of nested relation calls allowed before
// evaluation falls back to bottom-up flattening.
func WithMaxDepth(n int) Option { return engine.WithMaxDepth(n) }

// WithMaxIterations bounds the fixpoint iterations of one call.
func WithMaxIterations(n int) Option { return engine.WithMaxIterations(n) }

// WithFlattenSteps bounds one flatten pass.
func WithFlattenSteps(n int) Option { return engine.WithFlattenSteps(n) }

// WithLogger sets the run logger.
func WithLogger(l *zap.Logger) Option { return engine.WithLogger(l) }

// WithPrometheus registers engine counters on reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	return engine.WithMetrics(metrics.New(reg))
}

// WithConfig applies the engine and cache sections of cfg.
func WithConfig(cfg Config) Option { return engine.WithConfig(cfg) }

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads settings from a .yaml, .yml or .cue file.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// IsNativeFactError reports whether err is a fact declared for a native
// relation.
func IsNativeFactError(err error) bool { return logic.IsNativeFactError(err) }

// IsRuleFactError reports whether err is a fact declared for a relation
// that has rules.
func IsRuleFactError(err error) bool { return logic.IsRuleFactError(err) }

// IsWrappedValueError reports whether err is a wrapped constant passed
// where a raw Go value was required.
func IsWrappedValueError(err error) bool { return logic.IsWrappedValueError(err) }
