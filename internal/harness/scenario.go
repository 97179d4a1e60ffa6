package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/transitions/internal/engine"
)

// Scenario defines a conformance scenario: a sequence of operations with
// expected outcomes and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the fixed session id stamped on every record.
	// If empty, testutil.DefaultSession is used.
	Session string `yaml:"session,omitempty"`

	// Setup steps establish initial state. Each must succeed and may not
	// carry an expect clause.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps is the main flow, each optionally checked against Expect.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the written records.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation. Exactly one of Add, Transition, Remove or Select
// is set.
type Step struct {
	Add        map[string]string `yaml:"add,omitempty"`
	Transition *TransitionStep   `yaml:"transition,omitempty"`
	Remove     []string          `yaml:"remove,omitempty"`
	Select     *SelectStep       `yaml:"select,omitempty"`

	// Forced applies to add, transition and remove.
	Forced bool `yaml:"forced,omitempty"`

	// Expect checks the step's outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// TransitionStep holds the arguments of a transition.
type TransitionStep struct {
	Names []string `yaml:"names"`
	From  string   `yaml:"from,omitempty"`
	To    string   `yaml:"to"`
}

// SelectStep previews an unforced operation. Op is add, transition or
// remove; Content is used by add, Names and From by the others.
type SelectStep struct {
	Op      string            `yaml:"op"`
	Content map[string]string `yaml:"content,omitempty"`
	Names   []string          `yaml:"names,omitempty"`
	From    string            `yaml:"from,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
//
// A nil slice means "not checked"; an empty list in YAML means "expected
// empty".
type ExpectClause struct {
	// Error is the expected error kind (see engine.ErrorKind). Empty means
	// the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Names are the expected offending names of a rejection.
	Names []string `yaml:"names,omitempty"`

	// Audit fields of the written record.
	Reset          []string `yaml:"reset,omitempty"`
	OriginalStates []string `yaml:"original_states,omitempty"`
	Skipped        []string `yaml:"skipped,omitempty"`

	// Partition of a select step.
	Accepted []string `yaml:"accepted,omitempty"`
	Rejected []string `yaml:"rejected,omitempty"`
}

// Assertion validates the final state or the written records.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": the mapping equals State exactly
	// - "state_count": the number of tracked names equals Count
	// - "record_count": the number of written records equals Count
	// - "record_order": the written records carry Actions in order
	Type string `yaml:"type"`

	State   map[string]string `yaml:"state,omitempty"`
	Count   int               `yaml:"count,omitempty"`
	Actions []string          `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState  = "final_state"
	AssertStateCount  = "state_count"
	AssertRecordCount = "record_count"
	AssertRecordOrder = "record_order"
)

// Step kind names, as reported in errors.
const (
	stepAdd        = "add"
	stepTransition = "transition"
	stepRemove     = "remove"
	stepSelect     = "select"
)

// Kind returns the operation the step performs, or "" if it names none or
// more than one.
func (s Step) Kind() string {
	var kinds []string
	if s.Add != nil {
		kinds = append(kinds, stepAdd)
	}
	if s.Transition != nil {
		kinds = append(kinds, stepTransition)
	}
	if s.Remove != nil {
		kinds = append(kinds, stepRemove)
	}
	if s.Select != nil {
		kinds = append(kinds, stepSelect)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the scenario files under dir (*.yaml and *.yml),
// sorted by path.
func FindScenarios(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// validateScenario checks that required fields are present and valid.
// It does not reject operation arguments the engine would reject; those
// are legitimate expect: {error: invalid_input} steps.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Kind() == stepSelect {
			return fmt.Errorf("setup[%d]: select is not allowed in setup", i)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	kind := step.Kind()
	if kind == "" {
		return fmt.Errorf("exactly one of add, transition, remove or select is required")
	}

	if kind == stepSelect {
		switch step.Select.Op {
		case engine.OpAdd, engine.OpTransition, engine.OpRemove:
		default:
			return fmt.Errorf("select: unknown op %q", step.Select.Op)
		}
		if step.Forced {
			return fmt.Errorf("select: forced is not allowed")
		}
	}

	e := step.Expect
	if e == nil {
		return nil
	}

	switch e.Error {
	case "", engine.KindInvalidInput, engine.KindConflict, engine.KindStateMismatch, engine.KindNotFound, engine.KindIO:
	default:
		return fmt.Errorf("expect: unknown error kind %q", e.Error)
	}

	if kind != stepSelect && (e.Accepted != nil || e.Rejected != nil) {
		return fmt.Errorf("expect: accepted and rejected apply to select steps only")
	}
	if e.Error != "" && (e.Reset != nil || e.OriginalStates != nil || e.Skipped != nil) {
		return fmt.Errorf("expect: a rejected step writes no record to check")
	}
	if e.Error == "" && e.Names != nil {
		return fmt.Errorf("expect: names requires error")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if a.State == nil {
			return fmt.Errorf("assertions[%d]: state is required for final_state (use {} for empty)", index)
		}
	case AssertStateCount, AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertRecordOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for record_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
