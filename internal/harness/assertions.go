package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails. It lists every
// answer for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Answers  []Answer
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Answers) > 0 {
		fmt.Fprintf(&buf, "\nAnswers:\n")
		for _, a := range e.Answers {
			fmt.Fprintf(&buf, "  [%d] %s => %s\n", a.Seq, a.Query, a.Outcome)
		}
	}
	return buf.String()
}

func assertOutcomeCount(result *Result, a Assertion) error {
	n := 0
	for _, ans := range result.Answers {
		if ans.Outcome == a.Outcome {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutcomeCount,
		Expected: fmt.Sprintf("%d %s answers", a.Count, a.Outcome),
		Actual:   fmt.Sprintf("%d %s answers", n, a.Outcome),
		Answers:  result.Answers,
	}
}

func assertKBStats(result *Result, a Assertion) error {
	var want, got []string
	if a.Facts != nil && *a.Facts != result.Facts {
		want = append(want, fmt.Sprintf("%d facts", *a.Facts))
		got = append(got, fmt.Sprintf("%d facts", result.Facts))
	}
	if a.Rules != nil && *a.Rules != result.Rules {
		want = append(want, fmt.Sprintf("%d rules", *a.Rules))
		got = append(got, fmt.Sprintf("%d rules", result.Rules))
	}
	if len(want) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertKBStats,
		Expected: strings.Join(want, ", "),
		Actual:   strings.Join(got, ", "),
	}
}

func assertLogCount(result *Result, a Assertion) error {
	if result.Logged == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertLogCount,
		Expected: fmt.Sprintf("%d logged answers", a.Count),
		Actual:   fmt.Sprintf("%d logged answers", result.Logged),
	}
}

// EvaluateAssertions returns a message for each assertion that does not
// hold.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutcomeCount:
			err = assertOutcomeCount(result, a)
		case AssertKBStats:
			err = assertKBStats(result, a)
		case AssertLogCount:
			err = assertLogCount(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
