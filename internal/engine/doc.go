// Package engine evaluates predicates against a knowledge base.
//
// A run binds one knowledge base to a Context and executes a block of
// declarations and queries on the calling goroutine. Evaluation is eager
// recursion to a fixed point:
//
//   - Relations consult natives, facts, the memo table, the active call
//     stack (cycles) and the depth limit before resolving their rules
//   - A call found active on the stack yields a provisional value; the
//     owning call re-evaluates its rules until two iterations agree
//   - Reaching MaxDepth returns an overflow carrying the pending call chain;
//     calls at or above half the limit resolve that chain bottom-up
//
// Overflow is control flow and never escapes Run. Undecidable queries are
// unknown, not errors.
//
// The only goroutines a run starts are memo evictions, tracked by an
// errgroup and stopped when the block returns.
package engine
