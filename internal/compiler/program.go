package compiler

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"

	"github.com/roach88/tabled/internal/logic"
)

// Program is compiled Datalog: ground facts and rules, in source order.
type Program struct {
	Facts []*logic.Term
	Rules []CompiledRule

	// deps maps a defined relation to the relations its rules call.
	deps    dependencyGraph
	factRel map[string]bool
	ruleRel map[string]bool
	used    map[string]bool
}

// CompiledRule is a consequence and its condition.
type CompiledRule struct {
	Head      *logic.Term
	Condition *logic.Term
}

func (r CompiledRule) String() string {
	return fmt.Sprintf("%s :- %s", r.Head, r.Condition)
}

// Declarer receives compiled facts and rules. *engine.Context implements
// it.
type Declarer interface {
	Fact(t *logic.Term) error
	Rule(head, cond *logic.Term) error
}

// Declare asserts every fact, then every rule, into d.
func (p *Program) Declare(d Declarer) error {
	for _, f := range p.Facts {
		if err := d.Fact(f); err != nil {
			return fmt.Errorf("fact %s: %w", f, err)
		}
	}
	for _, r := range p.Rules {
		if err := d.Rule(r.Head, r.Condition); err != nil {
			return fmt.Errorf("rule %s: %w", r, err)
		}
	}
	return nil
}

// Defined returns the relations that have facts or rules, sorted.
func (p *Program) Defined() []string {
	set := map[string]bool{}
	for name := range p.factRel {
		set[name] = true
	}
	for name := range p.ruleRel {
		set[name] = true
	}
	return sortedKeys(set)
}

// CompileProgram parses Datalog text and resolves it against s.
//
// Supported syntax: facts, rules, negated atoms (!p(X)), equality and
// inequality (X = Y, X != Y), comparisons (X < Y) and fn: calls. A
// premise X = fn:f(...) evaluates the function. Constants are names
// (/alice, read as the string "alice"), strings and integers. The names
// /true and /false are booleans where a bool is expected.
func CompileProgram(s *Schema, r io.Reader) (*Program, error) {
	unit, err := parse.Unit(r)
	if err != nil {
		return nil, &CompileError{Code: ErrCodeParse, Field: "program", Message: err.Error()}
	}
	p := &Program{
		deps:    dependencyGraph{},
		factRel: map[string]bool{},
		ruleRel: map[string]bool{},
		used:    map[string]bool{},
	}
	for _, clause := range unit.Clauses {
		if err := p.addClause(s, clause); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Program) addClause(s *Schema, clause ast.Clause) error {
	name := clause.Head.Predicate.Symbol
	field := "clause " + name
	if clause.Transform != nil {
		return compileErr(ErrCodeUnsupported, field, "transforms (|>) are not supported")
	}
	rel, ok := s.Relations[name]
	if !ok {
		return compileErr(ErrCodeUnknownRelation, field, "relation %s is not declared", name)
	}
	if s.IsBuiltin(name) {
		return compileErr(ErrCodeBuiltinHead, field, "%s is built in and cannot be defined", name)
	}

	cc := &clauseCompiler{schema: s, vars: map[string]*logic.Type{}}
	if err := cc.inferVars(clause); err != nil {
		return err
	}
	head, err := cc.atom(clause.Head)
	if err != nil {
		return err
	}

	if len(clause.Premises) == 0 && head.IsGround() {
		p.Facts = append(p.Facts, head)
		p.factRel[rel.Name()] = true
		return nil
	}

	premises := make([]*logic.Term, 0, len(clause.Premises))
	if p.deps[name] == nil {
		p.deps[name] = []edge{}
	}
	for _, prem := range clause.Premises {
		t, err := cc.premise(prem)
		if err != nil {
			return err
		}
		premises = append(premises, t)
		for _, e := range cc.calls(prem) {
			p.used[e.to] = true
			if !s.IsBuiltin(e.to) {
				p.deps[name] = append(p.deps[name], e)
			}
		}
	}
	cond := logic.TruePredicate()
	if len(premises) > 0 {
		cond = logic.And(premises...)
	}
	p.Rules = append(p.Rules, CompiledRule{Head: head, Condition: cond})
	p.ruleRel[name] = true
	return nil
}

type clauseCompiler struct {
	schema *Schema
	vars   map[string]*logic.Type
}

// constrain narrows the type of variable name to t.
func (cc *clauseCompiler) constrain(name string, t *logic.Type) error {
	if name == "_" || t == nil {
		return nil
	}
	cur, ok := cc.vars[name]
	if !ok {
		cc.vars[name] = t
		return nil
	}
	if !logic.Compatible(cur, t) {
		return compileErr(ErrCodeTerm, "variable "+name, "used as both %s and %s", cur, t)
	}
	cc.vars[name] = logic.MoreSpecific(cur, t)
	return nil
}

// inferVars assigns each variable the most specific type of the positions
// it occurs in.
func (cc *clauseCompiler) inferVars(clause ast.Clause) error {
	if err := cc.inferAtom(clause.Head); err != nil {
		return err
	}
	for _, prem := range clause.Premises {
		var err error
		switch t := prem.(type) {
		case ast.Atom:
			err = cc.inferAtom(t)
		case ast.NegAtom:
			err = cc.inferAtom(t.Atom)
		case ast.Eq:
			err = cc.inferEq(t.Left, t.Right)
		case ast.Ineq:
			err = cc.inferEq(t.Left, t.Right)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (cc *clauseCompiler) inferAtom(a ast.Atom) error {
	rel, ok := cc.schema.Relations[a.Predicate.Symbol]
	if !ok || rel.Arity() != len(a.Args) {
		// reported when the atom is built
		return nil
	}
	for i, arg := range a.Args {
		if err := cc.inferArg(arg, rel.ArgType(i)); err != nil {
			return err
		}
	}
	return nil
}

func (cc *clauseCompiler) inferArg(arg ast.BaseTerm, want *logic.Type) error {
	switch t := arg.(type) {
	case ast.Variable:
		return cc.constrain(t.Symbol, want)
	case ast.ApplyFn:
		if t.Function.Symbol == listFn {
			for _, sub := range t.Args {
				if err := cc.inferArg(sub, logic.Any); err != nil {
					return err
				}
			}
			return nil
		}
		fn, ok := cc.schema.Functions[t.Function.Symbol]
		if !ok || fn.Arity() != len(t.Args) {
			return nil
		}
		for i, sub := range t.Args {
			if err := cc.inferArg(sub, fn.ArgType(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cc *clauseCompiler) inferEq(left, right ast.BaseTerm) error {
	if err := cc.inferArg(left, logic.Any); err != nil {
		return err
	}
	if err := cc.inferArg(right, logic.Any); err != nil {
		return err
	}
	lv, lok := left.(ast.Variable)
	rv, rok := right.(ast.Variable)
	switch {
	case lok && !rok:
		return cc.constrain(lv.Symbol, cc.staticType(right))
	case rok && !lok:
		return cc.constrain(rv.Symbol, cc.staticType(left))
	}
	return nil
}

// staticType is the type a non-variable term evaluates to.
func (cc *clauseCompiler) staticType(arg ast.BaseTerm) *logic.Type {
	switch t := arg.(type) {
	case ast.Constant:
		switch t.Type {
		case ast.NumberType:
			return logic.Integer
		case ast.StringType, ast.NameType:
			return logic.String
		}
	case ast.ApplyFn:
		if t.Function.Symbol == listFn {
			return logic.List
		}
		if fn, ok := cc.schema.Functions[t.Function.Symbol]; ok {
			return fn.Result()
		}
	}
	return nil
}

func (cc *clauseCompiler) atom(a ast.Atom) (*logic.Term, error) {
	name := a.Predicate.Symbol
	rel, ok := cc.schema.Relations[name]
	if !ok {
		return nil, compileErr(ErrCodeUnknownRelation, "atom "+name, "relation %s is not declared", name)
	}
	if rel.Arity() != len(a.Args) {
		return nil, compileErr(ErrCodeArity, "atom "+name, "%s takes %d arguments, got %d", name, rel.Arity(), len(a.Args))
	}
	args := make([]logic.Arg, len(a.Args))
	for i, arg := range a.Args {
		v, err := cc.arg(arg, rel.ArgType(i))
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return build(name, rel, args)
}

func (cc *clauseCompiler) premise(t ast.Term) (*logic.Term, error) {
	switch x := t.(type) {
	case ast.Atom:
		return cc.atom(x)
	case ast.NegAtom:
		inner, err := cc.atom(x.Atom)
		if err != nil {
			return nil, err
		}
		return logic.Not(inner), nil
	case ast.Eq:
		l, r, err := cc.sides(x.Left, x.Right)
		if err != nil {
			return nil, err
		}
		if isFunction(l) || isFunction(r) {
			return build("=", logic.IsRelation, []logic.Arg{l, r})
		}
		return build("=", logic.EqRelation, []logic.Arg{l, r})
	case ast.Ineq:
		l, r, err := cc.sides(x.Left, x.Right)
		if err != nil {
			return nil, err
		}
		eq, err := build("!=", logic.EqRelation, []logic.Arg{l, r})
		if err != nil {
			return nil, err
		}
		return logic.Not(eq), nil
	}
	return nil, compileErr(ErrCodeUnsupported, "premise", "unsupported premise %v", t)
}

func (cc *clauseCompiler) sides(left, right ast.BaseTerm) (logic.Arg, logic.Arg, error) {
	l, err := cc.arg(left, logic.Any)
	if err != nil {
		return nil, nil, err
	}
	r, err := cc.arg(right, logic.Any)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func (cc *clauseCompiler) arg(b ast.BaseTerm, want *logic.Type) (logic.Arg, error) {
	switch t := b.(type) {
	case ast.Variable:
		if t.Symbol == "_" {
			return logic.P(want), nil
		}
		return logic.V(t.Symbol, cc.vars[t.Symbol]), nil
	case ast.Constant:
		return constant(t, want)
	case ast.ApplyFn:
		args := make([]logic.Arg, len(t.Args))
		if t.Function.Symbol == listFn {
			for i, sub := range t.Args {
				v, err := cc.arg(sub, logic.Any)
				if err != nil {
					return nil, err
				}
				args[i] = v
			}
			return logic.ListOf(args...), nil
		}
		fn, ok := cc.schema.Functions[t.Function.Symbol]
		if !ok {
			return nil, compileErr(ErrCodeUnknownRelation, "function "+t.Function.Symbol, "function is not defined")
		}
		if fn.Arity() != len(t.Args) {
			return nil, compileErr(ErrCodeArity, "function "+t.Function.Symbol,
				"takes %d arguments, got %d", fn.Arity(), len(t.Args))
		}
		for i, sub := range t.Args {
			v, err := cc.arg(sub, fn.ArgType(i))
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return build(t.Function.Symbol, fn, args)
	}
	return nil, compileErr(ErrCodeUnsupported, "term", "unsupported term %v", b)
}

func constant(c ast.Constant, want *logic.Type) (logic.Arg, error) {
	switch c.Type {
	case ast.NumberType:
		return logic.NewInt(c.NumValue), nil
	case ast.StringType:
		return logic.NewStr(c.Symbol), nil
	case ast.NameType:
		name := strings.TrimPrefix(c.Symbol, "/")
		if want == logic.Boolean && (name == "true" || name == "false") {
			return logic.NewBool(name == "true"), nil
		}
		return logic.NewStr(name), nil
	}
	return nil, compileErr(ErrCodeUnsupported, "constant", "unsupported constant %s", c.Symbol)
}

func build(field string, f *logic.Functor, args []logic.Arg) (*logic.Term, error) {
	t, err := logic.Build(f, args...)
	if err != nil {
		var le *logic.Error
		if errors.As(err, &le) {
			return nil, compileErr(ErrCodeTerm, field, "%s", le.Message)
		}
		return nil, compileErr(ErrCodeTerm, field, "%v", err)
	}
	return t, nil
}

func isFunction(a logic.Arg) bool {
	t, ok := a.(*logic.Term)
	return ok && t.Kind() == logic.KindFunction
}

// calls returns the relations a premise depends on.
func (cc *clauseCompiler) calls(t ast.Term) []edge {
	switch x := t.(type) {
	case ast.Atom:
		return []edge{{to: x.Predicate.Symbol}}
	case ast.NegAtom:
		return []edge{{to: x.Atom.Predicate.Symbol, negative: true}}
	}
	return nil
}

// Query is a compiled query predicate and the variables it binds.
type Query struct {
	Text      string
	Predicate *logic.Term
	Vars      []logic.Var
}

// queryHead is the synthetic consequence used to parse query text as a
// rule body.
const queryHead = "tabled_query"

// ParseQuery compiles a rule body, for example
//
//	ancestor(/alice, X), !blocked(X)
func ParseQuery(s *Schema, text string) (*Query, error) {
	src := queryHead + "(0) :- " + strings.TrimSuffix(strings.TrimSpace(text), ".") + "."
	unit, err := parse.Unit(strings.NewReader(src))
	if err != nil {
		return nil, &CompileError{Code: ErrCodeParse, Field: "query", Message: err.Error()}
	}
	if len(unit.Clauses) != 1 {
		return nil, compileErr(ErrCodeParse, "query", "expected a single query")
	}
	clause := unit.Clauses[0]
	cc := &clauseCompiler{schema: s, vars: map[string]*logic.Type{}}
	if err := cc.inferVars(ast.Clause{Premises: clause.Premises}); err != nil {
		return nil, err
	}
	premises := make([]*logic.Term, 0, len(clause.Premises))
	for _, prem := range clause.Premises {
		t, err := cc.premise(prem)
		if err != nil {
			return nil, err
		}
		premises = append(premises, t)
	}
	q := &Query{Text: text, Predicate: logic.And(premises...)}
	for v := range logic.Variables(q.Predicate) {
		q.Vars = append(q.Vars, v)
	}
	sort.Slice(q.Vars, func(i, j int) bool { return q.Vars[i].Name < q.Vars[j].Name })
	return q, nil
}
