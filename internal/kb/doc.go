// Package kb implements the knowledge base: facts, rules, the type
// specialization index and the memoization table.
//
// Each of the four stores is an immutable value behind its own
// atomic.Pointer. Readers load a pointer and never block. Writers run a
// read-transform-compare-and-swap loop and re-run their transform when
// another writer won the race. Derive copies the four pointers, so a
// snapshot handed to a later run shares all of its structure with the run
// that produced it.
package kb
