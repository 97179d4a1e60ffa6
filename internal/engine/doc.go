// Package engine implements the operation engine for tracked items.
//
// The engine owns the three mutating operations (add, transition, remove)
// and the read-only selectors that preview them.
//
// ARCHITECTURE:
//
// Validate-then-mutate:
// Each operation runs inside one store transaction:
// 1. Input is checked (empty lists, names and states are invalid)
// 2. The affected items are read through the transaction
// 3. The operation's rule decides accept or reject
// 4. Mutations are staged with store.Tx primitives
// 5. The action record is stamped and appended to the action log
// 6. The transaction commits; on commit failure the record is discarded
//
// A rejected or failed call leaves the store unchanged and writes no record.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every record is stamped with a strictly increasing seq from Clock.Next().
// The clock resumes from the newest record in the log, so seq keeps
// increasing across sessions.
//
// Monotonic recorded_at:
// recorded_at is clamped to the previous record's value if the wall clock
// moves backwards. Together with seq this keeps record ids sorted in
// creation order.
//
// Typed errors:
// Rejections are *OperationError values matching ErrInvalidInput,
// ErrConflict, ErrStateMismatch or ErrNotFound through errors.Is. Store and
// log failures wrap ErrIO.
package engine
