package logic

import (
	"errors"
	"fmt"
)

// Error is a programming error detected while building terms or declaring
// facts and rules. Undecidable queries are never errors: they are unknown.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Term is the canonical form of the offending term, if any.
	Term string
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeNativeFact indicates a fact declared for a native relation.
	ErrCodeNativeFact ErrorCode = "NATIVE_FACT"

	// ErrCodeRuleFact indicates a fact declared for a signature that has rules.
	ErrCodeRuleFact ErrorCode = "RULE_FACT"

	// ErrCodeWrappedValue indicates a wrapped constant where a raw value is required.
	ErrCodeWrappedValue ErrorCode = "WRAPPED_VALUE"

	// ErrCodeTypeMismatch indicates an argument of the wrong type or arity.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeNotGround indicates a fact with unbound arguments.
	ErrCodeNotGround ErrorCode = "NOT_GROUND"

	// ErrCodeNotPredicate indicates inference of a data term or a rule
	// whose head is not a relation.
	ErrCodeNotPredicate ErrorCode = "NOT_PREDICATE"

	// ErrCodeFrozen indicates a write to a completed run's knowledge base.
	ErrCodeFrozen ErrorCode = "FROZEN"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Term != "" {
		return fmt.Sprintf("%s: %s (term=%s)", e.Code, e.Message, e.Term)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, msg string, t *Term) *Error {
	e := &Error{Code: code, Message: msg}
	if t != nil {
		e.Term = t.String()
	}
	return e
}

// NewError creates an *Error for t (which may be nil).
func NewError(code ErrorCode, msg string, t *Term) *Error {
	return newError(code, msg, t)
}

func withTerm(err error, term string) error {
	var e *Error
	if errors.As(err, &e) && e.Term == "" {
		cp := *e
		cp.Term = term
		return &cp
	}
	return err
}

// HasCode reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNativeFactError reports whether err is a fact declared on a native relation.
func IsNativeFactError(err error) bool { return HasCode(err, ErrCodeNativeFact) }

// IsRuleFactError reports whether err is a fact declared on a ruled signature.
func IsRuleFactError(err error) bool { return HasCode(err, ErrCodeRuleFact) }

// IsWrappedValueError reports whether err is a wrapped-value construction error.
func IsWrappedValueError(err error) bool { return HasCode(err, ErrCodeWrappedValue) }
