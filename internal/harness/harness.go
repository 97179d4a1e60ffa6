package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/engine"
	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/replay"
	"github.com/roach88/transitions/internal/store"
	"github.com/roach88/transitions/internal/testutil"
)

// Harness is the scenario execution engine: a real engine over a scratch
// store and action log, driven with a deterministic clock and session.
type Harness struct {
	store  *store.Store
	log    *actionlog.Log
	engine *engine.Engine
	logger *slog.Logger
}

// open creates a harness whose store and log live under dir.
func open(dir, session string) (*Harness, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	path := filepath.Join(dir, "states.db")

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario store: %w", err)
	}
	l, err := actionlog.Open(path)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create scenario log: %w", err)
	}
	eng, err := engine.New(st, l,
		engine.WithTimeSource(testutil.NewDeterministicClock()),
		engine.WithSessionGenerator(testutil.NewFixedSessionGenerator(session)),
	)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &Harness{
		store:  st,
		log:    l,
		engine: eng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}, nil
}

func (h *Harness) close() error {
	return h.store.Close()
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh scratch directory for isolation.
//
// Execution flow:
// 1. Run setup steps, each of which must succeed
// 2. Run the main steps, checking each against its expect clause
// 3. Read back the written records and the final mapping
// 4. Evaluate assertions
// 5. Replay the records into a second store and compare the mappings
//
// An error is returned only when the scenario could not be executed at all;
// failed expectations are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "transitions-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	h, err := open(filepath.Join(dir, "source"), scenario.Session)
	if err != nil {
		return nil, err
	}
	defer h.close()

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Setup {
		if _, err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("failed to execute setup step %d: %w", i, err)
		}
	}

	for i, step := range scenario.Steps {
		for _, msg := range h.executeStep(ctx, step) {
			result.AddError(fmt.Sprintf("steps[%d] (%s): %s", i, step.Kind(), msg))
		}
	}

	items, err := h.store.Query(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.State = ir.States(items)

	records, err := replay.LoadDir(h.log.Dir())
	if err != nil {
		return nil, fmt.Errorf("failed to read action log: %w", err)
	}
	result.Records = records

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	if err := checkReplay(ctx, filepath.Join(dir, "replayed"), scenario.Session, h.store, records, result); err != nil {
		return nil, err
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"records", len(records),
		"pass", result.Pass,
	)
	return result, nil
}

// stepOutcome is what a step produced: a record for mutations, a selection
// for previews.
type stepOutcome struct {
	record    ir.ActionRecord
	selection engine.Selection
}

func (h *Harness) execute(ctx context.Context, step Step) (stepOutcome, error) {
	var (
		out stepOutcome
		err error
	)
	switch step.Kind() {
	case stepAdd:
		out.record, err = h.engine.Add(ctx, step.Add, step.Forced)
	case stepTransition:
		t := step.Transition
		out.record, err = h.engine.Transition(ctx, t.Names, t.From, t.To, step.Forced)
	case stepRemove:
		out.record, err = h.engine.Remove(ctx, step.Remove, step.Forced)
	case stepSelect:
		out.selection, err = h.preview(ctx, step.Select)
	default:
		err = fmt.Errorf("step names no operation")
	}
	return out, err
}

func (h *Harness) preview(ctx context.Context, s *SelectStep) (engine.Selection, error) {
	switch s.Op {
	case engine.OpAdd:
		return h.engine.SelectForAddition(ctx, s.Content)
	case engine.OpTransition:
		return h.engine.SelectForTransition(ctx, s.Names, s.From)
	case engine.OpRemove:
		return h.engine.SelectForRemoval(ctx, s.Names)
	}
	return engine.Selection{}, fmt.Errorf("unknown select op %q", s.Op)
}

// executeStep runs one step and returns the mismatches against its expect
// clause.
func (h *Harness) executeStep(ctx context.Context, step Step) []string {
	out, err := h.execute(ctx, step)

	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}

	var msgs []string
	if expect.Error == "" {
		if err != nil {
			return []string{fmt.Sprintf("expected success, got %v", err)}
		}
	} else {
		if err == nil {
			return []string{fmt.Sprintf("expected %s error, got success", expect.Error)}
		}
		if kind := engine.ErrorKind(err); kind != expect.Error {
			return []string{fmt.Sprintf("expected %s error, got %s (%v)", expect.Error, kindOrUnknown(kind), err)}
		}
		if expect.Names != nil {
			msgs = appendMismatch(msgs, "offending names", expect.Names, engine.OffendingNames(err))
		}
		return msgs
	}

	h.logger.Debug("step succeeded", "kind", step.Kind(), "id", out.record.ID)

	if expect.Reset != nil {
		msgs = appendMismatch(msgs, "reset", expect.Reset, out.record.Reset)
	}
	if expect.OriginalStates != nil {
		msgs = appendMismatch(msgs, "original_states", expect.OriginalStates, out.record.OriginalStates)
	}
	if expect.Skipped != nil {
		msgs = appendMismatch(msgs, "skipped", expect.Skipped, out.record.Skipped)
	}
	if expect.Accepted != nil {
		msgs = appendMismatch(msgs, "accepted", expect.Accepted, out.selection.Accepted)
	}
	if expect.Rejected != nil {
		msgs = appendMismatch(msgs, "rejected", expect.Rejected, out.selection.Rejected)
	}
	return msgs
}

// checkReplay replays records into a fresh store under dir and reports
// every name whose state differs from source.
func checkReplay(ctx context.Context, dir, session string, source *store.Store, records []ir.ActionRecord, result *Result) error {
	h, err := open(dir, session)
	if err != nil {
		return err
	}
	defer h.close()

	if _, err := replay.Replay(ctx, h.engine, records); err != nil {
		result.AddError(fmt.Sprintf("replay: %v", err))
		return nil
	}

	diffs, err := replay.Compare(ctx, source, h.store)
	if err != nil {
		return fmt.Errorf("failed to compare replayed state: %w", err)
	}
	for _, d := range diffs {
		result.AddError(fmt.Sprintf("replay: %q is %q in the store but %q after replay", d.Name, d.Source, d.Replayed))
	}
	return nil
}

func appendMismatch(msgs []string, field string, want, got []string) []string {
	if got == nil {
		got = []string{}
	}
	if slices.Equal(want, got) {
		return msgs
	}
	return append(msgs, fmt.Sprintf("%s: expected %q, got %q", field, want, got))
}

func kindOrUnknown(kind string) string {
	if kind == "" {
		return "unclassified error"
	}
	return kind
}
