// Package logic defines the immutable term model of the inference engine.
//
// A Term is a functor applied to an ordered list of arguments. Arguments are
// wrapped constants (Str, Int, Bool), variables (Var), typed placeholders
// (Placeholder) or nested terms. Predicates are terms too: the functor's Kind
// selects the node of the predicate algebra (relation, and, or, not, true,
// false, collect).
//
// Everything in this package is a value: terms, rules, sets and results are
// never mutated after construction, which is what lets knowledge bases share
// them across concurrent runs without locks.
//
// Canonical form:
//   - Strings are NFC normalized at construction
//   - Ground terms are passed through their functor's normalize function once
//   - Every term carries a canonical key used for equality, hashing and indexing
package logic
