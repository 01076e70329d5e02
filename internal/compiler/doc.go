// Package compiler turns declarative sources into knowledge base content.
//
// A schema is CUE: it declares types (with their supertypes) and relations
// (with their argument types). A program is Datalog text in mangle syntax:
// facts, rules with negation and equality, and fn: function calls. The
// compiler resolves every predicate and constant against the schema and
// the built-in libraries and produces logic terms ready to be declared
// in a run.
package compiler
