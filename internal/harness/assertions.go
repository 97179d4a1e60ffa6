package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the written records to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Actions  []string // Actions of the written records, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nRecords written:\n")
	for i, action := range e.Actions {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, action)
	}

	return buf.String()
}

// EvaluateAssertions evaluates every assertion against result and returns
// the error messages of those that fail.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertStateCount:
		if len(result.State) != a.Count {
			return result.failure(a.Type, fmt.Sprintf("%d tracked names", a.Count), fmt.Sprintf("%d tracked names", len(result.State)))
		}
	case AssertRecordCount:
		if len(result.Records) != a.Count {
			return result.failure(a.Type, fmt.Sprintf("%d records", a.Count), fmt.Sprintf("%d records", len(result.Records)))
		}
	case AssertRecordOrder:
		actions := result.Actions()
		if !slices.Equal(actions, a.Actions) {
			return result.failure(a.Type, strings.Join(a.Actions, " -> "), strings.Join(actions, " -> "))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertFinalState requires the mapping to equal the expected one exactly.
// The message lists every differing name.
func assertFinalState(result *Result, a Assertion) error {
	var diffs []string
	for name, want := range a.State {
		got, ok := result.State[name]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("%q missing (want %q)", name, want))
		case got != want:
			diffs = append(diffs, fmt.Sprintf("%q is %q (want %q)", name, got, want))
		}
	}
	for name, got := range result.State {
		if _, ok := a.State[name]; !ok {
			diffs = append(diffs, fmt.Sprintf("%q unexpected (is %q)", name, got))
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	sort.Strings(diffs)
	return result.failure(a.Type, formatState(a.State), strings.Join(diffs, "; "))
}

func (r *Result) failure(kind, expected, actual string) *AssertionError {
	return &AssertionError{
		Type:     kind,
		Expected: expected,
		Actual:   actual,
		Actions:  r.Actions(),
	}
}

// formatState renders a mapping with names in order.
func formatState(state map[string]string) string {
	names := make([]string, 0, len(state))
	for n := range state {
		names = append(names, n)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "=" + state[n]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
