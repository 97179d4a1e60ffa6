package harness

import "github.com/roach88/transitions/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	// True if every step expectation and assertion holds.
	Pass bool `json:"pass"`

	// Records are the action records the scenario wrote, in log order,
	// as read back from disk.
	Records []ir.ActionRecord `json:"records"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final name -> state mapping.
	State map[string]string `json:"state"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []ir.ActionRecord{},
		Errors:  []string{},
		State:   map[string]string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Actions returns the action of each written record, in order.
func (r *Result) Actions() []string {
	actions := make([]string, len(r.Records))
	for i, rec := range r.Records {
		actions[i] = string(rec.Action)
	}
	return actions
}
