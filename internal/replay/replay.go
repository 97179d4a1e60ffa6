package replay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/engine"
	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/store"
)

// RecordError reports the record at which a replay stopped. Records before
// Index were applied and stay applied.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// LoadDir reads and decodes every record file in dir in file-name order.
func LoadDir(dir string) ([]ir.ActionRecord, error) {
	paths, err := actionlog.ListDir(dir)
	if err != nil {
		return nil, err
	}
	return LoadFiles(paths)
}

// LoadFiles reads and decodes the given record files in the order given.
func LoadFiles(paths []string) ([]ir.ActionRecord, error) {
	records := make([]ir.ActionRecord, 0, len(paths))
	for _, p := range paths {
		data, err := actionlog.Read(p)
		if err != nil {
			return nil, err
		}
		rec, err := Decode(p, data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Replay validates every record, then applies them in order through e.
//
// Only the operation parameters are used; audit fields and metadata are
// ignored, and e writes fresh records to its own log. If record i fails,
// Replay stops and returns a *RecordError for i. Records before i stay
// applied. The number of applied records is returned either way.
func Replay(ctx context.Context, e *engine.Engine, records []ir.ActionRecord) (int, error) {
	for i, rec := range records {
		if err := Validate(rec); err != nil {
			return 0, &RecordError{Index: i, ID: rec.ID, Err: err}
		}
	}

	for i, rec := range records {
		if err := apply(ctx, e, rec); err != nil {
			slog.Debug("replay stopped", "index", i, "id", rec.ID, "error", err)
			return i, &RecordError{Index: i, ID: rec.ID, Err: err}
		}
	}

	slog.Info("replay complete", "records", len(records), "session", e.Session())
	return len(records), nil
}

func apply(ctx context.Context, e *engine.Engine, rec ir.ActionRecord) error {
	var err error
	switch rec.Action {
	case ir.ActionAdd:
		_, err = e.Add(ctx, rec.Content, rec.Forced)
	case ir.ActionTransition, ir.ActionTransit:
		_, err = e.Transition(ctx, rec.Names, rec.FromState, rec.ToState, rec.Forced)
	case ir.ActionRemove:
		_, err = e.Remove(ctx, rec.Names, rec.Forced)
	default:
		err = &InvalidLogError{Source: rec.ID, Reason: fmt.Sprintf("unknown action %q", rec.Action)}
	}
	return err
}

// Difference is one name whose state differs between two stores.
// An empty state means the name is absent from that store.
type Difference struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Replayed string `json:"replayed"`
}

// Verify replays records into a scratch store and compares the result with
// source. It returns the names whose states differ, ordered by name. An
// empty result means the log reproduces the store.
func Verify(ctx context.Context, source *store.Store, records []ir.ActionRecord) ([]Difference, error) {
	dir, err := os.MkdirTemp("", "transitions-verify-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create scratch directory: %w", engine.ErrIO, err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "scratch.db")
	scratch, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrIO, err)
	}
	defer scratch.Close()

	l, err := actionlog.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrIO, err)
	}
	e, err := engine.New(scratch, l)
	if err != nil {
		return nil, err
	}

	if _, err := Replay(ctx, e, records); err != nil {
		return nil, err
	}
	return Compare(ctx, source, scratch)
}

// Compare returns the names whose states differ between a and b.
func Compare(ctx context.Context, a, b *store.Store) ([]Difference, error) {
	left, err := a.Query(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrIO, err)
	}
	right, err := b.Query(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrIO, err)
	}

	// Both sides are ordered by name; merge them.
	diffs := []Difference{}
	i, j := 0, 0
	for i < len(left) || j < len(right) {
		switch {
		case j >= len(right) || (i < len(left) && left[i].Name < right[j].Name):
			diffs = append(diffs, Difference{Name: left[i].Name, Source: left[i].State})
			i++
		case i >= len(left) || right[j].Name < left[i].Name:
			diffs = append(diffs, Difference{Name: right[j].Name, Replayed: right[j].State})
			j++
		default:
			if left[i].State != right[j].State {
				diffs = append(diffs, Difference{Name: left[i].Name, Source: left[i].State, Replayed: right[j].State})
			}
			i++
			j++
		}
	}
	return diffs, nil
}
