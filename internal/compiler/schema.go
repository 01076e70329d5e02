package compiler

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/tabled/internal/logic"
)

// Schema is the vocabulary a program is compiled against.
type Schema struct {
	Types     map[string]*logic.Type
	Relations map[string]*logic.Functor
	Functions map[string]*logic.Functor

	// declared holds the relations named in the schema source, as opposed
	// to the built-in libraries.
	declared map[string]bool
}

// NewSchema returns a schema holding only the built-in libraries.
func NewSchema() *Schema {
	return &Schema{
		Types:     builtinTypes(),
		Relations: builtinRelations(),
		Functions: builtinFunctions(),
		declared:  map[string]bool{},
	}
}

// Declared returns the names of the schema's own relations, sorted.
func (s *Schema) Declared() []string {
	out := make([]string, 0, len(s.declared))
	for name := range s.declared {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsBuiltin reports whether name is a library relation.
func (s *Schema) IsBuiltin(name string) bool {
	_, ok := s.Relations[name]
	return ok && !s.declared[name]
}

//go:embed meta.cue
var metaSchema string

// LoadSchema compiles the CUE schema file at path.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return CompileSchemaSource(path, data)
}

// CompileSchemaSource compiles CUE schema text; filename is used in error
// positions.
func CompileSchemaSource(filename string, data []byte) (*Schema, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	return CompileSchema(v)
}

type typeDecl struct {
	name     string
	abstract bool
	supers   []string
	pos      cue.Value
}

// CompileSchema reads the type and relation sections of v:
//
//	type: {
//		Animal: abstract: true
//		Dog: supers: ["Animal"]
//	}
//	relation: {
//		owns: args: ["string", "Animal"]
//		ancestor: {args: ["string", "string"], derived: true}
//	}
//
// Relation options are derived (never memoized) and factual (results kept
// with the facts).
func CompileSchema(v cue.Value) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	meta := v.Context().CompileString(metaSchema).LookupPath(cue.ParsePath("#Schema"))
	if err := meta.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	s := NewSchema()

	decls, err := typeDecls(v)
	if err != nil {
		return nil, err
	}
	if err := s.buildTypes(decls); err != nil {
		return nil, err
	}

	rels := v.LookupPath(cue.ParsePath("relation"))
	if !rels.Exists() {
		return s, nil
	}
	iter, err := rels.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		if err := s.addRelation(iter.Selector().Unquoted(), iter.Value()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func typeDecls(v cue.Value) (map[string]*typeDecl, error) {
	out := map[string]*typeDecl{}
	types := v.LookupPath(cue.ParsePath("type"))
	if !types.Exists() {
		return out, nil
	}
	iter, err := types.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		d := &typeDecl{name: iter.Selector().Unquoted(), pos: iter.Value()}
		if a := iter.Value().LookupPath(cue.ParsePath("abstract")); a.Exists() {
			if d.abstract, err = a.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if sv := iter.Value().LookupPath(cue.ParsePath("supers")); sv.Exists() {
			if err := sv.Decode(&d.supers); err != nil {
				return nil, formatCUEError(err)
			}
		}
		out[d.name] = d
	}
	return out, nil
}

// buildTypes creates declared types supertypes first. Cyclic supertype
// chains are reported with their path.
func (s *Schema) buildTypes(decls map[string]*typeDecl) error {
	graph := dependencyGraph{}
	for name, d := range decls {
		if _, ok := s.Types[name]; ok {
			return &CompileError{Code: ErrCodeDuplicate, Field: "type." + name,
				Message: "shadows a built-in type", Pos: d.pos.Pos()}
		}
		graph[name] = nil
		for _, sup := range d.supers {
			if _, declared := decls[sup]; declared {
				graph[name] = append(graph[name], edge{to: sup})
				continue
			}
			if _, builtin := s.Types[sup]; !builtin {
				return &CompileError{Code: ErrCodeUnknownType, Field: "type." + name + ".supers",
					Message: "unknown type " + sup, Pos: d.pos.Pos()}
			}
		}
	}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(scc, graph)
			return compileErr(ErrCodeTypeCycle, "type", "cyclic supertypes: %s", strings.Join(path, " → "))
		}
	}

	var build func(name string) *logic.Type
	build = func(name string) *logic.Type {
		if t, ok := s.Types[name]; ok {
			return t
		}
		d := decls[name]
		supers := make([]*logic.Type, 0, len(d.supers))
		for _, sup := range d.supers {
			supers = append(supers, build(sup))
		}
		var t *logic.Type
		if d.abstract {
			t = logic.NewCapability(name, supers...)
		} else {
			t = logic.NewType(name, supers...)
		}
		s.Types[name] = t
		return t
	}
	for _, name := range sortedKeys(decls) {
		build(name)
	}
	return nil
}

func (s *Schema) addRelation(name string, v cue.Value) error {
	field := "relation." + name
	if _, ok := s.Relations[name]; ok {
		return &CompileError{Code: ErrCodeDuplicate, Field: field,
			Message: "relation already defined", Pos: v.Pos()}
	}
	var names []string
	if err := v.LookupPath(cue.ParsePath("args")).Decode(&names); err != nil {
		return &CompileError{Code: ErrCodeSchema, Field: field + ".args",
			Message: "args must be a list of type names", Pos: v.Pos()}
	}
	args := make([]*logic.Type, len(names))
	for i, n := range names {
		t, ok := s.Types[n]
		if !ok {
			return &CompileError{Code: ErrCodeUnknownType, Field: field + ".args",
				Message: "unknown type " + n, Pos: v.Pos()}
		}
		args[i] = t
	}

	var opts []logic.FunctorOption
	if flag(v, "derived") {
		opts = append(opts, logic.Derived())
	}
	if flag(v, "factual") {
		opts = append(opts, logic.Factual())
	}
	s.Relations[name] = logic.NewRelation(name, args, opts...)
	s.declared[name] = true
	return nil
}

func flag(v cue.Value, name string) bool {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return false
	}
	b, err := f.Bool()
	return err == nil && b
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
