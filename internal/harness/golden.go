package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/testutil"
)

// Snapshot captures the records and final mapping of a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Session      string            `json:"session"`
	Records      []ir.ActionRecord `json:"records"`
	FinalState   map[string]string `json:"final_state"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization, which only handles plain maps, slices and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	records := make([]any, len(s.Records))
	for i, rec := range s.Records {
		fields := rec.Fields()
		if rec.Digest != "" {
			fields["digest"] = rec.Digest
		}
		records[i] = fields
	}

	state := s.FinalState
	if state == nil {
		state = map[string]string{}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"session":       s.Session,
		"records":       records,
		"final_state":   state,
	}
}

// Marshal returns the canonical JSON form of the snapshot.
func (s *Snapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	session := scenario.Session
	if session == "" {
		session = testutil.DefaultSession
	}
	return result, AssertGolden(t, scenario.Name, session, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName, session string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Session:      session,
		Records:      result.Records,
		FinalState:   result.State,
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
