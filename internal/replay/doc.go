// Package replay rebuilds a store from an action log.
//
// Record files are validated against an embedded CUE schema (schema.cue)
// before anything is applied. Each action has a closed definition, so a
// record with a missing, extra or mistyped field is rejected as
// ErrInvalidLog. Records written by the legacy tool use the "transit"
// discriminator for transitions; it is accepted and normalized.
//
// Replay applies records through an engine.Engine, so every operation runs
// with the same validation and atomicity as a live call and the target
// store gets its own fresh log.
package replay
