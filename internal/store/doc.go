// Package store provides SQLite-backed durable storage for tracked items.
//
// The store holds one relation, items(name, state), with name unique and
// state never empty. It is the single source of truth for the current
// mapping; the history of how it got there lives in the action log.
//
// # Critical Patterns
//
// Grouped mutations:
//   - Insert, Update and Delete exist only on Tx
//   - Store.WithTx runs a function inside one SQL transaction; any error
//     returned by the function rolls every primitive back
//
// Deterministic query results:
//   - All multi-row reads are ordered by name COLLATE BINARY
//
// Injection safety:
//   - Filters are built as queryir predicates and compiled by querysql
//   - Values are always bound parameters
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: a single logical writer per store
//
// # Legacy databases
//
// Files written by the legacy tool hold a states(name, state) table.
// Migration v1 copies its rows into items; the legacy table is left untouched.
package store
