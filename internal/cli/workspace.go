package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/config"
	"github.com/roach88/transitions/internal/engine"
	"github.com/roach88/transitions/internal/store"
)

// workspace is an opened store with its action log and engine.
type workspace struct {
	path   string
	store  *store.Store
	log    *actionlog.Log
	engine *engine.Engine
}

// openWorkspace opens the store at path. Unless create is set, the store
// must already exist, so a mistyped --db or --project does not silently
// start an empty store.
func openWorkspace(path string, create bool) (*workspace, error) {
	if create {
		if err := config.EnsureDir(path); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create store", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("store not found: %s (run 'transitions init' first)", path))
		}
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	l, err := actionlog.Open(path)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open action log", err)
	}
	eng, err := engine.New(st, l)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	return &workspace{path: path, store: st, log: l, engine: eng}, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

// reportOperationError prints an engine error in the selected format and
// returns the matching exit error. Rejections exit 1; I/O failures exit 2.
func reportOperationError(f *OutputFormatter, err error) error {
	kind := engine.ErrorKind(err)
	code := ExitFailure
	if kind == "" || kind == engine.KindIO {
		code = ExitCommandError
	}
	if kind == "" {
		kind = engine.KindIO
	}

	var details any
	if names := engine.OffendingNames(err); len(names) > 0 {
		details = map[string][]string{"names": names}
	}
	if pErr := f.Error(kind, err.Error(), details); pErr != nil {
		return pErr
	}
	return &ExitError{Code: code, Message: "operation failed", Err: err, Reported: true}
}

// reportError prints a command error in the selected format and returns it
// marked as reported.
func reportError(f *OutputFormatter, code int, kind string, err error) error {
	if pErr := f.Error(kind, err.Error(), nil); pErr != nil {
		return pErr
	}
	return &ExitError{Code: code, Message: kind, Err: err, Reported: true}
}
