// Package harness runs conformance scenarios against the operation engine.
//
// A scenario drives a real engine over a scratch store and action log,
// checks each step's outcome, evaluates assertions on the final state and
// the written records, and finally replays the log into a second scratch
// store to confirm it reproduces the same mapping.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session: "test-session-a"      # optional, see testutil.DefaultSession
//	setup:                         # optional, every step must succeed
//	  - add: {"1": a, "2": a}
//	steps:
//	  - add: {"3": b}
//	    forced: true
//	    expect:
//	      reset: ["3"]
//	  - transition: {names: ["1"], from: z, to: c}
//	    expect:
//	      error: state_mismatch
//	      names: ["1"]
//	  - remove: ["9"]
//	    expect:
//	      error: not_found
//	  - select: {op: transition, names: ["1", "2"], from: a}
//	    expect:
//	      accepted: ["1", "2"]
//	      rejected: []
//	assertions:
//	  - type: final_state
//	    state: {"1": a, "2": a, "3": b}
//	  - type: record_count
//	    count: 2
//	  - type: record_order
//	    actions: [add, add]
//
// Every step names exactly one of add, transition, remove or select.
// Select steps preview an unforced operation and never write.
//
// # Assertion Types
//
//   - final_state: the tracked mapping equals state exactly
//   - state_count: the number of tracked names equals count
//   - record_count: the number of records written equals count
//   - record_order: the written records carry these actions in order
//
// # Deterministic Testing
//
// Scenarios execute with testutil.DeterministicClock and a fixed session
// id, so the same scenario always writes byte-identical records. This is
// what makes golden snapshots (RunWithGolden) stable.
package harness
