package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes (E1xx schema, E2xx program).
const (
	ErrCodeSchema          = "E101" // malformed schema value
	ErrCodeUnknownType     = "E102" // type name not declared
	ErrCodeTypeCycle       = "E103" // cyclic supertype chain
	ErrCodeDuplicate       = "E104" // name declared twice or shadows a built-in
	ErrCodeParse           = "E201" // program text does not parse
	ErrCodeUnknownRelation = "E202" // predicate not declared
	ErrCodeArity           = "E203" // wrong number of arguments
	ErrCodeTerm            = "E204" // argument does not fit its position
	ErrCodeUnsupported     = "E205" // syntax the engine has no meaning for
	ErrCodeBuiltinHead     = "E206" // rule or fact for a built-in relation
	ErrCodeFactRule        = "E207" // relation has both facts and rules
	ErrCodeUndefined       = "E208" // relation used but never defined
	ErrCodeNegativeCycle   = "E209" // recursion through negation
)

// CompileError is a schema or program error with an optional source
// position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func compileErr(code, field, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// formatCUEError keeps the first error of a CUE error list with its
// position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	ce := &CompileError{Code: ErrCodeSchema, Field: "cue", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// ValidationError is a finding of Validate.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}
