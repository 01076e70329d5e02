package compiler

import (
	"github.com/roach88/tabled/internal/lib/integers"
	"github.com/roach88/tabled/internal/lib/lists"
	"github.com/roach88/tabled/internal/lib/rationals"
	"github.com/roach88/tabled/internal/logic"
)

// listFn is the mangle function list literals compile to.
const listFn = "fn:list"

func builtinTypes() map[string]*logic.Type {
	return map[string]*logic.Type{
		"any":      logic.Any,
		"string":   logic.String,
		"int":      logic.Integer,
		"bool":     logic.Boolean,
		"list":     logic.List,
		"rational": rationals.Rational,
	}
}

func builtinRelations() map[string]*logic.Functor {
	return map[string]*logic.Functor{
		"plus":   integers.Plus,
		"times":  integers.Times,
		"sqrt":   integers.Sqrt,
		":lt":    integers.Lt,
		":le":    integers.Le,
		":gt":    integers.Gt,
		":ge":    integers.Ge,
		"lt":     integers.Lt,
		"le":     integers.Le,
		"gt":     integers.Gt,
		"ge":     integers.Ge,
		"append": lists.Add,
		"length": lists.Length,
		"member": lists.Member,
		"rplus":  rationals.Plus,
	}
}

func builtinFunctions() map[string]*logic.Functor {
	return map[string]*logic.Functor{
		"fn:plus":  integers.Add,
		"fn:minus": integers.Sub,
		"fn:mult":  integers.Mul,
		"fn:div":   integers.Div,
		"fn:rsum":  rationals.Sum,
		"fn:ratio": rationals.Ratio,
	}
}
