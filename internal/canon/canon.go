// Package canon renders query answers as canonical JSON (RFC 8785): keys
// in UTF-16 order, strings in NFC, no HTML escaping, no floats. Equal
// answers always produce identical bytes, so they can be hashed, diffed
// against golden files and stored as keys.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tabled/internal/logic"
)

// Marshal encodes v canonically. Accepted values are string, bool, int,
// int64, *big.Int, []any and map[string]any, nested freely.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return encodeString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case *big.Int:
		if val == nil {
			return fmt.Errorf("null is forbidden in canonical JSON")
		}
		buf.WriteString(val.String())
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareUTF16)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(unescapeSeparators(out))
	return nil
}

// unescapeSeparators turns the \u2028 and \u2029 escapes that
// encoding/json emits back into literal characters. Escaped backslashes
// are skipped as a pair so a literal `\\u2028` text is left alone.
func unescapeSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) && string(data[i+2:i+5]) == "202" &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// compareUTF16 orders keys by UTF-16 code units.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Arg converts a logic argument to its canonical JSON form. Lists become
// arrays; other terms become {"functor": name, "args": [...]}; unbound
// slots render as "_".
func Arg(a logic.Arg) any {
	switch x := a.(type) {
	case logic.Str:
		return x.Value()
	case logic.Int:
		return x.Value()
	case logic.Bool:
		return x.Value()
	case *logic.Term:
		if elems, ok := logic.ListElements(x); ok {
			out := make([]any, len(elems))
			for i, e := range elems {
				out[i] = Arg(e)
			}
			return out
		}
		args := make([]any, x.Len())
		for i := range args {
			args[i] = Arg(x.Arg(i))
		}
		return map[string]any{"functor": x.Functor().Name(), "args": args}
	}
	return "_"
}

// Binding converts a variable binding to an object keyed by variable name.
func Binding(b logic.Binding) map[string]any {
	out := make(map[string]any, len(b))
	for v, a := range b {
		out[v.Name] = Arg(a)
	}
	return out
}

// Answer is the canonical form of one query outcome.
type Answer struct {
	Query    string
	Outcome  string
	Bindings []logic.Binding
}

// MarshalAnswer encodes a as {"bindings": [...], "outcome": ..., "query": ...}
// with bindings sorted by their canonical encoding.
func MarshalAnswer(a Answer) ([]byte, error) {
	encoded := make([][]byte, 0, len(a.Bindings))
	for _, b := range a.Bindings {
		data, err := Marshal(Binding(b))
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, data)
	}
	slices.SortFunc(encoded, bytes.Compare)
	var buf bytes.Buffer
	buf.WriteString(`{"bindings":[`)
	for i, data := range encoded {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(data)
	}
	buf.WriteString(`],"outcome":`)
	if err := encodeString(&buf, a.Outcome); err != nil {
		return nil, err
	}
	buf.WriteString(`,"query":`)
	if err := encodeString(&buf, a.Query); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Hash fingerprints canonical bytes under the answer domain.
func Hash(data []byte) string {
	return logic.HashWithDomain(DomainAnswer, data)
}

// DomainAnswer separates answer hashes from term and rule hashes.
const DomainAnswer = "tabled/answer/v1"
