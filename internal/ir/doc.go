// Package ir provides the shared data types for transitions: tracked items,
// action records, and their canonical encoding.
//
// This package contains type definitions and encoding helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - An item's state is never empty while the item exists
//   - All JSON tags use snake_case
//   - Record identifiers sort lexicographically in creation order
//   - Record digests are computed over RFC 8785 canonical JSON
package ir
