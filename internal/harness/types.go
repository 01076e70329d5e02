package harness

// Answer is the outcome of one scenario query.
type Answer struct {
	Seq      int64            `json:"seq"`
	Query    string           `json:"query"`
	Outcome  string           `json:"outcome"`
	Bindings []map[string]any `json:"bindings"`
	// canonical holds each binding's canonical JSON, sorted.
	canonical []string
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Scenario string   `json:"scenario"`
	RunID    string   `json:"run_id"`
	Answers  []Answer `json:"answers"`

	// Facts and Rules are the sizes of the final knowledge base.
	Facts int `json:"facts"`
	Rules int `json:"rules"`

	// Logged is the number of answers in the answer log for this run.
	Logged int `json:"logged"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Answers: []Answer{},
		Errors:  []string{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
