package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one reproducible run with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE file declaring types and relations. Empty means
	// built-in relations only.
	Schema string `yaml:"schema,omitempty"`

	// Programs are Datalog files, declared in order.
	Programs []string `yaml:"programs,omitempty"`

	// Sources import SQL rows as facts before the programs are declared.
	Sources []Source `yaml:"sources,omitempty"`

	// Queries are asked in order after all declarations.
	Queries []QueryStep `yaml:"queries"`

	// Assertions check the run as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is a fixed run identifier. Empty means "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Source creates and fills a table with SQL, then imports its rows.
type Source struct {
	// SQL statements run against the scenario database first.
	SQL []string `yaml:"sql,omitempty"`

	Table    string   `yaml:"table"`
	Columns  []string `yaml:"columns"`
	Relation string   `yaml:"relation"`
}

// QueryStep is one query and what it should produce.
type QueryStep struct {
	// Query is a rule body, for example "ancestor(/alice, X), !blocked(X)".
	Query string `yaml:"query"`

	// Expect is "true", "false" or "unknown".
	Expect string `yaml:"expect"`

	// Bindings, when set, must equal the proven bindings exactly
	// (order-insensitive). Values are strings, integers, booleans or
	// lists of those.
	Bindings []map[string]any `yaml:"bindings,omitempty"`
}

// Assertion checks a property of the whole run.
type Assertion struct {
	// Type is one of outcome_count, kb_stats, log_count.
	Type string `yaml:"type"`

	// Outcome selects answers for outcome_count.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number for outcome_count and log_count.
	Count int `yaml:"count,omitempty"`

	// Facts and Rules are the expected knowledge base sizes for kb_stats.
	Facts *int `yaml:"facts,omitempty"`
	Rules *int `yaml:"rules,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomeCount = "outcome_count"
	AssertKBStats      = "kb_stats"
	AssertLogCount     = "log_count"
)

// Outcome values.
const (
	OutcomeTrue    = "true"
	OutcomeFalse   = "false"
	OutcomeUnknown = "unknown"
)

// LoadScenario reads a scenario file and resolves its paths relative to
// the file's directory. Unknown fields are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if s.Schema != "" && !filepath.IsAbs(s.Schema) {
		s.Schema = filepath.Join(base, s.Schema)
	}
	for i, p := range s.Programs {
		if !filepath.IsAbs(p) {
			s.Programs[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}
	for i, q := range s.Queries {
		if q.Query == "" {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		switch q.Expect {
		case OutcomeTrue, OutcomeFalse, OutcomeUnknown:
		default:
			return fmt.Errorf("queries[%d]: expect must be true, false or unknown, got %q", i, q.Expect)
		}
	}
	for i, src := range s.Sources {
		if src.Table == "" || src.Relation == "" || len(src.Columns) == 0 {
			return fmt.Errorf("sources[%d]: table, columns and relation are required", i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertOutcomeCount, AssertKBStats, AssertLogCount:
		default:
			return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}
	return nil
}
