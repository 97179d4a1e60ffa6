package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/transitions/internal/harness"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test PATH...",
		Short: "Run conformance scenarios",
		Long: `Run scenario files against a fresh engine. A PATH may be a
scenario file or a directory, which runs every .yaml/.yml file in it.

Each scenario runs in its own temporary store with a deterministic clock.
The stores selected by --db or --project are never touched.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (path not found)

Examples:
  transitions test ./scenarios
  transitions test ./scenarios/forced_add.yaml --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := harness.RunPaths(ctx, paths)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	const msg = "one or more scenarios failed"
	if f.JSON() {
		if result.OK() {
			return f.Success(result)
		}
		if err := f.Failure(result, "scenario_failed", msg); err != nil {
			return err
		}
		return &ExitError{Code: ExitFailure, Message: msg, Reported: true}
	}

	for _, fail := range result.Failures {
		label := fail.Scenario
		if label == "" {
			label = fail.ScenarioPath
		}
		f.Printf("%s %s\n", failMark, label)
		for _, e := range fail.Errors {
			f.Printf("    %s\n", e)
		}
	}

	mark := okMark
	if !result.OK() {
		mark = failMark
	}
	f.Printf("%s %d scenarios, %d passed, %d failed\n", mark, result.TotalScenarios, result.Passed, result.Failed)
	if !result.OK() {
		return &ExitError{Code: ExitFailure, Message: msg, Reported: true}
	}
	return nil
}
