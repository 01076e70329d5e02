package compiler

import (
	"fmt"
	"sort"
)

// Validate reports program errors that would make declaration fail.
// An empty result means the program can be declared.
func Validate(p *Program) []ValidationError {
	var errs []ValidationError
	for _, name := range sortedKeys(p.factRel) {
		if p.ruleRel[name] {
			errs = append(errs, ValidationError{
				Field:   "relation." + name,
				Message: "relation has both facts and rules",
				Code:    ErrCodeFactRule,
			})
		}
	}
	return errs
}

// Lint returns the non-fatal findings for p: cycle analysis plus relations
// that are called but never defined, which are always false unless facts
// come from another source.
func Lint(s *Schema, p *Program) []Warning {
	warnings := AnalyzeCycles(p)
	var undefined []string
	for name := range p.used {
		if s.IsBuiltin(name) || p.factRel[name] || p.ruleRel[name] {
			continue
		}
		undefined = append(undefined, name)
	}
	sort.Strings(undefined)
	for _, name := range undefined {
		warnings = append(warnings, Warning{
			Code:    ErrCodeUndefined,
			Message: fmt.Sprintf("relation %s is used but has no facts or rules", name),
			Level:   "info",
		})
	}
	return warnings
}
