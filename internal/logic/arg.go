package logic

import (
	"fmt"
	"math/big"

	"golang.org/x/text/unicode/norm"
)

// Arg is a term argument.
//
// This is a sealed interface: only types in this package implement it.
// Implementations: Str, Int, Bool, Var, Placeholder, *Term.
type Arg interface {
	// Type returns the type of the value, or the required type of an
	// unbound argument.
	Type() *Type

	// Bound reports whether the argument denotes a value. Nested terms are
	// bound even when they contain variables.
	Bound() bool

	isArg() // sealed
}

// Str is a string constant.
type Str struct{ v string }

// Int is an arbitrary precision integer constant.
type Int struct{ v *big.Int }

// Bool is a boolean constant.
type Bool struct{ v bool }

// Var is a named variable with a required type. Variables are scoped to a
// single binding map.
type Var struct {
	Name string
	T    *Type
}

// Placeholder is an unbound slot whose only known information is its type.
type Placeholder struct {
	T *Type
}

func (Str) isArg()         {}
func (Int) isArg()         {}
func (Bool) isArg()        {}
func (Var) isArg()         {}
func (Placeholder) isArg() {}
func (*Term) isArg()       {}

// NewStr returns a string constant in NFC form.
func NewStr(s string) Str { return Str{v: norm.NFC.String(s)} }

// NewInt returns an integer constant.
func NewInt(i int64) Int { return Int{v: big.NewInt(i)} }

// NewBigInt returns an integer constant holding a copy of i.
func NewBigInt(i *big.Int) Int { return Int{v: new(big.Int).Set(i)} }

// NewBool returns a boolean constant.
func NewBool(b bool) Bool { return Bool{v: b} }

// V declares a variable. A nil type means Any.
func V(name string, t *Type) Var {
	if t == nil {
		t = Any
	}
	return Var{Name: name, T: t}
}

// P returns a placeholder of type t.
func P(t *Type) Placeholder {
	if t == nil {
		t = Any
	}
	return Placeholder{T: t}
}

func (s Str) Type() *Type         { return String }
func (i Int) Type() *Type         { return Integer }
func (b Bool) Type() *Type        { return Boolean }
func (v Var) Type() *Type         { return v.T }
func (p Placeholder) Type() *Type { return p.T }

func (Str) Bound() bool         { return true }
func (Int) Bound() bool         { return true }
func (Bool) Bound() bool        { return true }
func (Var) Bound() bool         { return false }
func (Placeholder) Bound() bool { return false }

// Value returns the Go string.
func (s Str) Value() string { return s.v }

// Value returns a copy of the integer.
func (i Int) Value() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

// Int64 returns the value and whether it fits in an int64.
func (i Int) Int64() (int64, bool) {
	if i.v == nil {
		return 0, true
	}
	return i.v.Int64(), i.v.IsInt64()
}

// Value returns the Go bool.
func (b Bool) Value() bool { return b.v }

func (s Str) String() string { return fmt.Sprintf("%q", s.v) }
func (i Int) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}
func (b Bool) String() string {
	if b.v {
		return "true"
	}
	return "false"
}
func (v Var) String() string         { return v.Name }
func (p Placeholder) String() string { return "_" + p.T.Name() }

// Wrap converts a raw Go value into an Arg.
//
// Accepted: string, the signed and unsigned integer kinds, *big.Int, bool,
// Var, Placeholder and *Term. Passing an already wrapped constant (Str, Int,
// Bool) returns an error with code ErrCodeWrappedValue: constants must be
// built from raw values so that canonicalization always runs.
func Wrap(v any) (Arg, error) {
	switch x := v.(type) {
	case string:
		return NewStr(x), nil
	case int:
		return NewInt(int64(x)), nil
	case int8:
		return NewInt(int64(x)), nil
	case int16:
		return NewInt(int64(x)), nil
	case int32:
		return NewInt(int64(x)), nil
	case int64:
		return NewInt(x), nil
	case uint:
		return Int{v: new(big.Int).SetUint64(uint64(x))}, nil
	case uint8:
		return NewInt(int64(x)), nil
	case uint16:
		return NewInt(int64(x)), nil
	case uint32:
		return NewInt(int64(x)), nil
	case uint64:
		return Int{v: new(big.Int).SetUint64(x)}, nil
	case *big.Int:
		if x == nil {
			return nil, newError(ErrCodeTypeMismatch, "nil *big.Int", nil)
		}
		return NewBigInt(x), nil
	case bool:
		return NewBool(x), nil
	case Var:
		return V(x.Name, x.T), nil
	case Placeholder:
		return P(x.T), nil
	case *Term:
		if x == nil {
			return nil, newError(ErrCodeTypeMismatch, "nil term", nil)
		}
		return x, nil
	case Str, Int, Bool:
		return nil, newError(ErrCodeWrappedValue,
			fmt.Sprintf("wrapped constant %v passed where a raw value is required", x), nil)
	default:
		return nil, newError(ErrCodeTypeMismatch, fmt.Sprintf("unsupported value %T", v), nil)
	}
}

// Raw returns the Go value held by a constant argument: string, *big.Int,
// bool or *Term. Unbound arguments return nil.
func Raw(a Arg) any {
	switch x := a.(type) {
	case Str:
		return x.v
	case Int:
		return x.Value()
	case Bool:
		return x.v
	case *Term:
		return x
	default:
		return nil
	}
}

// IsUnbound reports whether a is a variable or placeholder.
func IsUnbound(a Arg) bool {
	switch a.(type) {
	case Var, Placeholder:
		return true
	}
	return false
}
