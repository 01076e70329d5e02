// Package harness runs declarative test scenarios against the engine.
//
// A scenario is a YAML file naming a CUE schema, Datalog programs and
// optional SQL fact tables, followed by queries with their expected
// outcome. Each scenario runs in a fresh knowledge base with a fixed run
// ID and an in-memory SQLite database, so its answers are reproducible
// and can be compared against golden files:
//
//	name: family
//	description: ancestors through two generations
//	schema: family.cue
//	programs: [family.mgl]
//	queries:
//	  - query: ancestor(/alice, X)
//	    expect: "true"
//	    bindings:
//	      - {X: bob}
//	      - {X: carol}
//
// Paths are resolved relative to the scenario file.
package harness
