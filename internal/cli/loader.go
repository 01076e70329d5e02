package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tabled/internal/compiler"
)

// LoadMode controls how errors are handled while loading programs.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll compiles every program and returns all errors.
	LoadModeCollectAll
)

// ProgramExt is the file extension of Datalog programs.
const ProgramExt = ".mgl"

// Error codes of the loader. Compile errors keep the compiler's codes.
const (
	ErrCodeGeneric  = "E001" // generic/unknown error
	ErrCodeScan     = "E002" // directory scan error
	ErrCodeNoFiles  = "E003" // no program files found
	ErrCodeNotFound = "E005" // path not found
	ErrCodeQuery    = "E006" // query failed to run
	ErrCodeSource   = "E007" // fact import failed
)

// LoadResult is a compiled schema and its programs.
type LoadResult struct {
	Schema   *compiler.Schema
	Programs []*compiler.Program
	// Paths holds the file of each entry of Programs.
	Paths []string
}

// LoadError is a loader failure with a code and, for CUE schema errors, a
// position.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProgram compiles the schema at schemaPath, or the built-in schema
// when it is empty, and every program in paths. A directory in paths
// contributes its *.mgl files.
//
// A nil result means nothing could be compiled. With LoadModeCollectAll a
// non-nil result may come with errors for the programs that failed.
func LoadProgram(schemaPath string, paths []string, mode LoadMode) (*LoadResult, []error) {
	result := &LoadResult{Schema: compiler.NewSchema()}
	if schemaPath != "" {
		if _, err := os.Stat(schemaPath); err != nil {
			return nil, []error{notFound(schemaPath, err)}
		}
		s, err := compiler.LoadSchema(schemaPath)
		if err != nil {
			return nil, []error{convertCompileError(schemaPath, err)}
		}
		result.Schema = s
	}

	files, err := FindPrograms(paths)
	if err != nil {
		return nil, []error{err}
	}

	var errs []error
	for _, path := range files {
		p, err := compileProgram(result.Schema, path)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}
		result.Programs = append(result.Programs, p)
		result.Paths = append(result.Paths, path)
	}
	return result, errs
}

// FindPrograms expands paths into program files. Files are kept as given;
// directories are walked for *.mgl files in lexical order.
func FindPrograms(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, notFound(path, err)
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		var found []string
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ProgramExt {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScan, Path: path, Message: err.Error()}
		}
		if len(found) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Path: path, Message: "no " + ProgramExt + " files found"}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

func compileProgram(s *compiler.Schema, path string) (*compiler.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	defer f.Close()
	p, err := compiler.CompileProgram(s, f)
	if err != nil {
		return nil, convertCompileError(path, err)
	}
	return p, nil
}

func notFound(path string, err error) *LoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Path: path, Message: "no such file or directory"}
	}
	return &LoadError{Code: ErrCodeGeneric, Path: path, Message: err.Error()}
}

// convertCompileError keeps the compiler's code and position.
func convertCompileError(path string, err error) *LoadError {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		msg := ce.Message
		if ce.Field != "" {
			msg = ce.Field + ": " + msg
		}
		return &LoadError{Code: ce.Code, Path: path, Message: msg, Pos: ce.Pos}
	}
	return &LoadError{Code: ErrCodeGeneric, Path: path, Message: err.Error()}
}

// loadErrorCode returns the code of a loader error.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
