package harness

import (
	"context"
	"fmt"
	"os"
)

// SuiteResult summarizes a run over several scenario files.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a scenario that could not be loaded, could not
// be executed, or did not pass.
type ScenarioFailure struct {
	ScenarioPath string   `json:"scenario_path"`
	Scenario     string   `json:"scenario,omitempty"`
	Errors       []string `json:"errors"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

// RunPaths loads and runs each scenario file, or every scenario under each
// directory, and returns a summary.
//
// For each scenario file:
// 1. Load and validate the scenario
// 2. Run it via Run
// 3. Record the outcome
//
// The context is checked between scenarios.
func RunPaths(ctx context.Context, paths []string) (*SuiteResult, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := FindScenarios(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	result := &SuiteResult{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail(path, "", fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		run, err := Run(scenario)
		if err != nil {
			result.fail(path, scenario.Name, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}

		if !run.Pass {
			result.fail(path, scenario.Name, run.Errors...)
			continue
		}

		result.Passed++
	}

	return result, nil
}

func (r *SuiteResult) fail(path, name string, errs ...string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{
		ScenarioPath: path,
		Scenario:     name,
		Errors:       errs,
	})
}
