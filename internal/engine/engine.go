package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/store"
)

// Engine performs add, transition and remove against one store and writes
// one action record per successful call.
//
// Every operation validates its inputs, reads the affected items, decides,
// and mutates inside a single store transaction. The action record is
// written after the mutations are staged and before the commit; if the
// commit fails the record is discarded. A failing call therefore leaves
// neither store changes nor a record behind.
//
// Thread-safety: operations on one Engine are serialized by a mutex. Two
// engines must not share a store.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	log     *actionlog.Log
	clock   *Clock
	now     TimeSource
	gen     SessionGenerator
	session string

	// last is the recorded_at of the newest committed record.
	last time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeSource sets the wall clock used for recorded_at.
//
// Default: SystemTime{}
func WithTimeSource(ts TimeSource) Option {
	return func(e *Engine) {
		e.now = ts
	}
}

// WithSessionGenerator sets the generator for the engine's session id.
//
// Default: UUIDv7Generator{}
func WithSessionGenerator(gen SessionGenerator) Option {
	return func(e *Engine) {
		e.gen = gen
	}
}

// New creates an Engine over s that records into l.
//
// The logical clock and the recorded_at floor resume from the newest record
// already in l, so ids keep sorting in creation order across sessions.
func New(s *store.Store, l *actionlog.Log, opts ...Option) (*Engine, error) {
	e := &Engine{
		store: s,
		log:   l,
		now:   SystemTime{},
		gen:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}

	pos, ok, err := l.Last()
	if err != nil {
		return nil, fmt.Errorf("%w: resume action log: %w", ErrIO, err)
	}
	if ok {
		e.clock = NewClockAt(pos.Seq)
		e.last = pos.RecordedAt
	} else {
		e.clock = NewClock()
	}
	e.session = e.gen.Generate()

	slog.Debug("engine ready",
		"session", e.session,
		"seq", e.clock.Current(),
		"logs", l.Dir(),
	)
	return e, nil
}

// Session returns the id stamped on every record this engine writes.
func (e *Engine) Session() string {
	return e.session
}

// Store returns the store the engine mutates.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Log returns the action log the engine writes to.
func (e *Engine) Log() *actionlog.Log {
	return e.log
}

// Add introduces items from content (name -> desired state).
//
// A conflict is a name already tracked with a different state. Unforced,
// any conflict rejects the whole call with ErrConflict naming every
// conflicting name. Forced, conflicting names are overwritten and listed in
// the record's Reset field. Names already at their desired state are left
// untouched; absent names are inserted.
func (e *Engine) Add(ctx context.Context, content map[string]string, forced bool) (ir.ActionRecord, error) {
	if len(content) == 0 {
		return ir.ActionRecord{}, e.reject(OpAdd, invalidInput(OpAdd, "empty content"))
	}
	names := slices.Sorted(maps.Keys(content))
	if err := checkNames(OpAdd, names); err != nil {
		return ir.ActionRecord{}, e.reject(OpAdd, err)
	}
	for _, n := range names {
		if err := checkState(OpAdd, fmt.Sprintf("state for %q", n), content[n]); err != nil {
			return ir.ActionRecord{}, e.reject(OpAdd, err)
		}
	}

	return e.commit(ctx, OpAdd, func(tx *store.Tx) (ir.ActionRecord, error) {
		lookups, err := tx.GetMany(ctx, names)
		if err != nil {
			return ir.ActionRecord{}, err
		}

		conflicts := []string{}
		for _, l := range lookups {
			if l.Found && l.State != content[l.Name] {
				conflicts = append(conflicts, l.Name)
			}
		}
		if len(conflicts) > 0 && !forced {
			return ir.ActionRecord{}, &OperationError{Kind: ErrConflict, Op: OpAdd, Names: conflicts}
		}

		for _, l := range lookups {
			switch {
			case !l.Found:
				err = tx.Insert(ctx, l.Name, content[l.Name])
			case l.State != content[l.Name]:
				err = tx.Update(ctx, l.Name, content[l.Name])
			}
			if err != nil {
				return ir.ActionRecord{}, err
			}
		}

		rec := ir.ActionRecord{
			Action:  ir.ActionAdd,
			Content: maps.Clone(content),
			Forced:  forced,
		}
		if forced {
			rec.Reset = conflicts
		}
		return rec, nil
	})
}

// Transition moves existing items from one state to another.
//
// Every name must be tracked, forced or not; otherwise ErrNotFound names
// the absent ones. Unforced, every current state must equal from, otherwise
// ErrStateMismatch names the mismatched ones. Forced, the from check is
// skipped and the record's OriginalStates holds the pre-mutation states
// aligned with names.
func (e *Engine) Transition(ctx context.Context, names []string, from, to string, forced bool) (ir.ActionRecord, error) {
	if err := checkNames(OpTransition, names); err != nil {
		return ir.ActionRecord{}, e.reject(OpTransition, err)
	}
	if err := checkState(OpTransition, "target state", to); err != nil {
		return ir.ActionRecord{}, e.reject(OpTransition, err)
	}
	if from != "" || !forced {
		if err := checkState(OpTransition, "from state", from); err != nil {
			return ir.ActionRecord{}, e.reject(OpTransition, err)
		}
	}

	return e.commit(ctx, OpTransition, func(tx *store.Tx) (ir.ActionRecord, error) {
		lookups, err := tx.GetMany(ctx, names)
		if err != nil {
			return ir.ActionRecord{}, err
		}

		if missing := absent(lookups); len(missing) > 0 {
			return ir.ActionRecord{}, &OperationError{Kind: ErrNotFound, Op: OpTransition, Names: missing}
		}

		if !forced {
			var mismatched []string
			for _, l := range lookups {
				if l.State != from {
					mismatched = appendUnique(mismatched, l.Name)
				}
			}
			if len(mismatched) > 0 {
				return ir.ActionRecord{}, &OperationError{Kind: ErrStateMismatch, Op: OpTransition, Names: mismatched}
			}
		}

		original := make([]string, len(lookups))
		updated := make(map[string]bool, len(lookups))
		for i, l := range lookups {
			original[i] = l.State
			if updated[l.Name] {
				continue
			}
			if err := tx.Update(ctx, l.Name, to); err != nil {
				return ir.ActionRecord{}, err
			}
			updated[l.Name] = true
		}

		rec := ir.ActionRecord{
			Action:    ir.ActionTransition,
			Names:     slices.Clone(names),
			FromState: from,
			ToState:   to,
			Forced:    forced,
		}
		if forced {
			rec.OriginalStates = original
		}
		return rec, nil
	})
}

// Remove retires items.
//
// Unforced, any absent name rejects the whole call with ErrNotFound.
// Forced, tracked names are deleted and absent names are listed in the
// record's Skipped field.
func (e *Engine) Remove(ctx context.Context, names []string, forced bool) (ir.ActionRecord, error) {
	if err := checkNames(OpRemove, names); err != nil {
		return ir.ActionRecord{}, e.reject(OpRemove, err)
	}

	return e.commit(ctx, OpRemove, func(tx *store.Tx) (ir.ActionRecord, error) {
		lookups, err := tx.GetMany(ctx, names)
		if err != nil {
			return ir.ActionRecord{}, err
		}

		missing := absent(lookups)
		if len(missing) > 0 && !forced {
			return ir.ActionRecord{}, &OperationError{Kind: ErrNotFound, Op: OpRemove, Names: missing}
		}

		deleted := make(map[string]bool, len(lookups))
		for _, l := range lookups {
			if !l.Found || deleted[l.Name] {
				continue
			}
			if err := tx.Delete(ctx, l.Name); err != nil {
				return ir.ActionRecord{}, err
			}
			deleted[l.Name] = true
		}

		rec := ir.ActionRecord{
			Action: ir.ActionRemove,
			Names:  slices.Clone(names),
			Forced: forced,
		}
		if forced {
			rec.Skipped = missing
		}
		return rec, nil
	})
}

// commit runs stage inside one store transaction, stamps and appends the
// record it returns, and commits. A commit failure discards the record.
func (e *Engine) commit(
	ctx context.Context,
	op string,
	stage func(tx *store.Tx) (ir.ActionRecord, error),
) (ir.ActionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		rec  ir.ActionRecord
		path string
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		staged, err := stage(tx)
		if err != nil {
			return err
		}

		staged = e.stamp(staged)
		p, err := e.log.Append(&staged)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		rec, path = staged, p
		return nil
	})
	if err != nil {
		if path != "" {
			if dErr := e.log.Discard(path); dErr != nil {
				err = errors.Join(err, dErr)
			}
		}
		var oe *OperationError
		if !errors.As(err, &oe) && !errors.Is(err, ErrIO) {
			err = fmt.Errorf("%w: %s: %w", ErrIO, op, err)
		}
		return ir.ActionRecord{}, e.reject(op, err)
	}

	e.last = rec.RecordedAt
	slog.Info("operation committed",
		"op", op,
		"id", rec.ID,
		"seq", rec.Seq,
		"forced", rec.Forced,
		"session", rec.Session,
	)
	return rec, nil
}

// stamp assigns the record metadata. recorded_at never goes backwards,
// even if the wall clock does.
func (e *Engine) stamp(rec ir.ActionRecord) ir.ActionRecord {
	at := e.now.Now().UTC()
	if at.Before(e.last) {
		at = e.last
	}
	seq := e.clock.Next()

	rec.ID = ir.RecordID(at, seq)
	rec.Seq = seq
	rec.RecordedAt = at
	rec.Session = e.session
	rec.Version = ir.RecordVersion
	return rec
}

// reject logs a failed operation and returns err unchanged.
func (e *Engine) reject(op string, err error) error {
	if errors.Is(err, ErrIO) {
		slog.Error("operation failed", "op", op, "error", err)
	} else {
		slog.Debug("operation rejected", "op", op, "kind", ErrorKind(err), "error", err)
	}
	return err
}

func checkNames(op string, names []string) *OperationError {
	if len(names) == 0 {
		return invalidInput(op, "empty name list")
	}
	for i, n := range names {
		if n == "" {
			return invalidInput(op, fmt.Sprintf("empty name at position %d", i))
		}
		if !utf8.ValidString(n) {
			return invalidInput(op, fmt.Sprintf("name at position %d is not valid UTF-8", i))
		}
	}
	return nil
}

// checkState rejects empty labels and labels that would not survive the
// JSON record encoding unchanged.
func checkState(op, what, state string) *OperationError {
	switch {
	case state == "":
		return invalidInput(op, "empty "+what)
	case !utf8.ValidString(state):
		return invalidInput(op, what+" is not valid UTF-8")
	}
	return nil
}

// absent returns the untracked names in input order, without duplicates.
// The result is never nil.
func absent(lookups []ir.Lookup) []string {
	missing := []string{}
	for _, l := range lookups {
		if !l.Found {
			missing = appendUnique(missing, l.Name)
		}
	}
	return missing
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
