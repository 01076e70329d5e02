package engine

import (
	"context"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tabled/internal/kb"
	"github.com/roach88/tabled/internal/logic"
	"github.com/roach88/tabled/internal/metrics"
)

// Mode is the evaluation mode of the predicate being inferred.
type Mode int

const (
	// Reduce collapses a ground predicate to a crisp answer as soon as
	// possible.
	Reduce Mode = iota
	// Expand enumerates every consistent binding of an open predicate.
	Expand
)

func (m Mode) String() string {
	if m == Expand {
		return "expand"
	}
	return "reduce"
}

// Context scopes one knowledge base to a run. It carries the evaluation
// stack and the provisional values of calls being stabilized.
//
// A Context is confined to the goroutine running the block; it must not be
// shared.
type Context struct {
	ctx     context.Context
	kb      *kb.KnowledgeBase
	cfg     settings
	log     *zap.Logger
	metrics *metrics.Metrics
	runID   string
	group   *errgroup.Group

	mode Mode
	// stack holds the active relation calls, outermost first.
	stack []*logic.Term
	// active maps the key of each stacked call to its stack index.
	active map[string]int
	// cycleMemo holds the provisional value of calls under stabilization.
	cycleMemo map[string]logic.Result
}

// RunID returns the identifier of the run.
func (c *Context) RunID() string { return c.runID }

// KB returns the knowledge base bound to the run.
func (c *Context) KB() *kb.KnowledgeBase { return c.kb }

// Mode returns the mode of the predicate currently being inferred.
func (c *Context) Mode() Mode { return c.mode }

// Depth returns the number of active relation calls.
func (c *Context) Depth() int { return len(c.stack) }

// Rule declares that head holds whenever cond holds.
func (c *Context) Rule(head, cond *logic.Term) error {
	r, err := logic.NewRule(head, cond)
	if err != nil {
		return err
	}
	added, err := c.kb.AddRule(r)
	if err != nil {
		return err
	}
	if !added {
		c.log.Debug("subsumed rule ignored", zap.Stringer("rule", r))
	}
	return nil
}

// Fact asserts a ground relation.
func (c *Context) Fact(t *logic.Term) error {
	return c.kb.AddFact(t)
}

// Infer evaluates p and returns its three-valued result.
//
// Panics with a *logic.Error when p is not a predicate; Run recovers it.
func (c *Context) Infer(p *logic.Term) logic.Result {
	if !p.Kind().IsPredicate() {
		panic(logic.NewError(logic.ErrCodeNotPredicate, "cannot infer a data term", p))
	}
	r := c.infer(p)
	if r.Overflow != nil {
		// Unreachable with a flatten depth below the limit; kept so overflow
		// can never leak to callers.
		c.log.Warn("overflow reached the top level", zap.Stringer("query", p))
		return logic.Unknown(logic.Unbind(p)).WithCycles(r.Cycles)
	}
	return r
}

// IsTrue reports whether p is proven without undecided parts.
func (c *Context) IsTrue(p *logic.Term) bool { return c.Infer(p).IsTrue() }

// IsFalse reports whether p is refuted.
func (c *Context) IsFalse(p *logic.Term) bool { return c.Infer(p).IsFalse() }

// IsUnknown reports whether p is undecided.
func (c *Context) IsUnknown(p *logic.Term) bool { return c.Infer(p).IsUnknown(p) }

// Facts returns the proven instances of p in term order.
func (c *Context) Facts(p *logic.Term) []*logic.Term {
	r := c.Infer(p)
	q := logic.Unbind(p)
	if r.IsUnknown(q) {
		r.Facts = r.Facts.Remove(q)
	}
	out := r.Facts.Slice()
	slices.SortFunc(out, logic.CompareTerms)
	return out
}

// Bindings returns the variable bindings of every proven instance of p.
// A proven ground predicate yields a single empty binding.
func (c *Context) Bindings(p *logic.Term) []logic.Binding {
	s := solutionsOf(p, c.Infer(p))
	return s.bindings
}

func (c *Context) push(q *logic.Term) {
	c.active[q.Key()] = len(c.stack)
	c.stack = append(c.stack, q)
}

func (c *Context) pop(q *logic.Term) {
	delete(c.active, q.Key())
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Context) startEviction() {
	c.group.Go(func() error {
		n, err := c.kb.Evict(c.ctx)
		c.metrics.Eviction(err)
		if err != nil {
			c.log.Debug("memo eviction stopped", zap.Error(err))
			return nil
		}
		c.log.Debug("memo eviction finished", zap.Int("dropped", n))
		return nil
	})
}
