package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/transitions/internal/store"
)

// Error kinds returned by the operation engine. Every rejected operation
// returns an *OperationError whose Kind is one of the first four; I/O
// failures wrap ErrIO around their cause.
var (
	// ErrInvalidInput indicates a malformed call: empty content or name
	// list, an empty name, or an empty state.
	ErrInvalidInput = store.ErrInvalidInput

	// ErrConflict indicates an unforced add found names tracked with a
	// different state.
	ErrConflict = errors.New("conflicting state")

	// ErrStateMismatch indicates an unforced transition found names whose
	// current state differs from the expected from-state.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrNotFound indicates names that are not tracked.
	ErrNotFound = errors.New("not found")

	// ErrIO indicates the store or the action log could not be read or
	// written. It is never one of the kinds above.
	ErrIO = errors.New("i/o failure")
)

// Operation names used in errors, records and logs.
const (
	OpAdd        = "add"
	OpTransition = "transition"
	OpRemove     = "remove"
)

// OperationError describes a rejected operation.
//
// Names lists the offending names in input order (sorted for add, whose
// input is unordered). Reason is set for invalid input.
type OperationError struct {
	Kind   error
	Op     string
	Names  []string
	Reason string
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, e.Kind)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.Names) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Names, ", "))
	}
	return b.String()
}

// Unwrap lets errors.Is match the error kind.
func (e *OperationError) Unwrap() error {
	return e.Kind
}

func invalidInput(op, reason string) *OperationError {
	return &OperationError{Kind: ErrInvalidInput, Op: op, Reason: reason}
}

// Kind names used by the scenario harness and the CLI's JSON output.
const (
	KindInvalidInput  = "invalid_input"
	KindConflict      = "conflict"
	KindStateMismatch = "state_mismatch"
	KindNotFound      = "not_found"
	KindIO            = "io"
)

// ErrorKind returns the kind name of err, or "" when err is nil or not one
// of the engine's error kinds.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStateMismatch):
		return KindStateMismatch
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrIO):
		return KindIO
	}
	return ""
}

// OffendingNames returns the names carried by an *OperationError in err's
// chain, or nil.
func OffendingNames(err error) []string {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Names
	}
	return nil
}
