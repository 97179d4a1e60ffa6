package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transitions/internal/ir"
)

func resultWith(state map[string]string, actions ...ir.ActionKind) *Result {
	r := NewResult()
	r.State = state
	for _, a := range actions {
		r.Records = append(r.Records, ir.ActionRecord{Action: a})
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	r := resultWith(map[string]string{"1": "a"}, ir.ActionAdd, ir.ActionTransition)

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertFinalState, State: map[string]string{"1": "a"}},
		{Type: AssertStateCount, Count: 1},
		{Type: AssertRecordCount, Count: 2},
		{Type: AssertRecordOrder, Actions: []string{"add", "transition"}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_EmptyFinalState(t *testing.T) {
	r := resultWith(map[string]string{})
	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertFinalState, State: map[string]string{}}}))

	r = resultWith(map[string]string{"1": "a"})
	errs := EvaluateAssertions(r, []Assertion{{Type: AssertFinalState, State: map[string]string{}}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `"1" unexpected`)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	r := resultWith(map[string]string{"1": "b"}, ir.ActionAdd, ir.ActionRemove)

	tests := []struct {
		name      string
		assertion Assertion
		want      []string
	}{
		{
			name:      "final_state",
			assertion: Assertion{Type: AssertFinalState, State: map[string]string{"1": "a"}},
			want:      []string{"Assertion failed: final_state", "Expected: {1=a}", `"1" is "b" (want "a")`},
		},
		{
			name:      "state_count",
			assertion: Assertion{Type: AssertStateCount, Count: 3},
			want:      []string{"Expected: 3 tracked names", "Actual: 1 tracked names"},
		},
		{
			name:      "record_count",
			assertion: Assertion{Type: AssertRecordCount, Count: 1},
			want:      []string{"Expected: 1 records", "Actual: 2 records"},
		},
		{
			name:      "record_order",
			assertion: Assertion{Type: AssertRecordOrder, Actions: []string{"remove", "add"}},
			want:      []string{"Expected: remove -> add", "Actual: add -> remove"},
		},
		{
			name:      "unknown",
			assertion: Assertion{Type: "trace_contains"},
			want:      []string{`unknown assertion type "trace_contains"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(r, []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			for _, w := range tt.want {
				assert.Contains(t, errs[0], w)
			}
		})
	}
}

func TestAssertionError_ListsRecords(t *testing.T) {
	err := &AssertionError{
		Type:     AssertRecordCount,
		Expected: "1 records",
		Actual:   "2 records",
		Actions:  []string{"add", "remove"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Records written:")
	assert.Contains(t, msg, "[1] add")
	assert.Contains(t, msg, "[2] remove")
}
