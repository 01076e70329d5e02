package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func sampleResult() *Result {
	r := NewResult()
	r.Answers = []Answer{
		{Seq: 1, Query: "p(1)", Outcome: OutcomeTrue},
		{Seq: 2, Query: "p(2)", Outcome: OutcomeUnknown},
		{Seq: 3, Query: "p(3)", Outcome: OutcomeTrue},
	}
	r.Facts, r.Rules, r.Logged = 2, 1, 3
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertOutcomeCount, Outcome: OutcomeTrue, Count: 2},
		{Type: AssertOutcomeCount, Outcome: OutcomeFalse, Count: 0},
		{Type: AssertKBStats, Facts: intp(2), Rules: intp(1)},
		{Type: AssertKBStats, Rules: intp(1)},
		{Type: AssertLogCount, Count: 3},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Fail(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertOutcomeCount, Outcome: OutcomeUnknown, Count: 0},
		{Type: AssertKBStats, Facts: intp(5)},
		{Type: AssertLogCount, Count: 1},
		{Type: "final_state"},
	})
	require.Len(t, errs, 4)
	assert.Contains(t, errs[0], "Expected: 0 unknown answers")
	assert.Contains(t, errs[0], "[2] p(2) => unknown")
	assert.Contains(t, errs[1], "Actual: 2 facts")
	assert.Contains(t, errs[2], "Expected: 1 logged answers")
	assert.Contains(t, errs[3], `unknown assertion type "final_state"`)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
