package source

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/roach88/tabled/internal/logic"
)

// Table maps the columns of a SQL table onto the arguments of a relation,
// in order.
type Table struct {
	Name     string
	Columns  []string
	Relation *logic.Functor
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (t Table) query() (string, error) {
	if !identifier.MatchString(t.Name) {
		return "", fmt.Errorf("invalid table name %q", t.Name)
	}
	if t.Relation == nil {
		return "", fmt.Errorf("table %s: no relation", t.Name)
	}
	if len(t.Columns) != t.Relation.Arity() {
		return "", fmt.Errorf("table %s: %d columns for %s", t.Name, len(t.Columns), t.Relation)
	}
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if !identifier.MatchString(c) {
			return "", fmt.Errorf("table %s: invalid column name %q", t.Name, c)
		}
		cols[i] = `"` + c + `"`
	}
	return fmt.Sprintf(`SELECT %s FROM "%s" ORDER BY rowid`, strings.Join(cols, ", "), t.Name), nil
}

// Import reads every row of t as a ground fact. Rows holding NULL are
// rejected: facts must be ground.
func (d *DB) Import(ctx context.Context, t Table) ([]*logic.Term, error) {
	q, err := t.query()
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", t.Name, err)
	}
	defer rows.Close()

	var facts []*logic.Term
	row := 0
	for rows.Next() {
		row++
		raw := make([]any, len(t.Columns))
		ptrs := make([]any, len(raw))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("import %s: row %d: %w", t.Name, row, err)
		}
		args := make([]logic.Arg, len(raw))
		for i, v := range raw {
			a, err := convert(v, t.Relation.ArgType(i))
			if err != nil {
				return nil, fmt.Errorf("import %s: row %d column %s: %w", t.Name, row, t.Columns[i], err)
			}
			args[i] = a
		}
		fact, err := logic.Build(t.Relation, args...)
		if err != nil {
			return nil, fmt.Errorf("import %s: row %d: %w", t.Name, row, err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("import %s: %w", t.Name, err)
	}
	return facts, nil
}

// convert maps a SQLite value onto an argument of type want. Integer and
// boolean columns accept integers and their text forms; every other
// argument type reads the column as text.
func convert(v any, want *logic.Type) (logic.Arg, error) {
	if v == nil {
		return nil, fmt.Errorf("NULL value")
	}
	switch want {
	case logic.Integer:
		switch x := v.(type) {
		case int64:
			return logic.NewInt(x), nil
		case []byte:
			return parseInt(string(x))
		case string:
			return parseInt(x)
		}
	case logic.Boolean:
		switch x := v.(type) {
		case int64:
			return logic.NewBool(x != 0), nil
		case bool:
			return logic.NewBool(x), nil
		}
	default:
		switch x := v.(type) {
		case string:
			return logic.NewStr(x), nil
		case []byte:
			return logic.NewStr(string(x)), nil
		case int64:
			return logic.NewStr(fmt.Sprint(x)), nil
		}
	}
	return nil, fmt.Errorf("cannot read %T as %s", v, want)
}

func parseInt(s string) (logic.Arg, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return logic.NewBigInt(n), nil
}
