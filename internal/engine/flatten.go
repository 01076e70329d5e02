package engine

import (
	"go.uber.org/zap"

	"github.com/roach88/tabled/internal/logic"
)

// flatten resolves the pending call chain of an overflow bottom-up.
//
// q has just been popped, so it sat at stack index len(c.stack). Chain
// entries deeper than q are resolved deepest first on top of the current
// stack; an entry that overflows again pushes its own deeper chain. Each
// resolved entry lands in the memo, so re-resolving q then makes progress
// within the depth limit. Gives up as unknown after flattenSteps entries.
func (c *Context) flatten(q *logic.Term, ov *logic.Overflow) logic.Result {
	base := len(c.stack)
	steps := 0
	c.log.Debug("flattening overflow",
		zap.Stringer("call", q),
		zap.Int("depth", base),
		zap.Int("chain", len(ov.Chain)))

	for steps < c.cfg.flattenSteps {
		work := deeper(ov.Chain, base)
		for len(work) > 0 && steps < c.cfg.flattenSteps {
			steps++
			e := work[len(work)-1]
			r := c.resolve(e)
			if r.Overflow != nil {
				work = append(work, deeper(r.Overflow.Chain, base)...)
				continue
			}
			work = work[:len(work)-1]
		}
		steps++
		r := c.resolve(q)
		if r.Overflow == nil {
			c.metrics.Flatten(true)
			return r
		}
		ov = r.Overflow
	}

	c.metrics.Flatten(false)
	c.log.Warn("flatten gave up", zap.Stringer("call", q), zap.Int("steps", steps))
	return logic.Unknown(q)
}

// deeper returns the chain entries below stack index base, outermost first.
func deeper(chain []*logic.Term, base int) []*logic.Term {
	if len(chain) <= base+1 {
		return nil
	}
	out := make([]*logic.Term, len(chain)-base-1)
	copy(out, chain[base+1:])
	return out
}
