package ir

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ActionKind discriminates the three mutating operations.
type ActionKind string

const (
	ActionAdd        ActionKind = "add"
	ActionTransition ActionKind = "transition"
	ActionRemove     ActionKind = "remove"

	// ActionTransit is the discriminator written by the legacy tool
	// for transitions. Decoders accept it and normalize to ActionTransition.
	ActionTransit ActionKind = "transit"
)

// Valid reports whether k is one of the three current discriminators.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionAdd, ActionTransition, ActionRemove:
		return true
	}
	return false
}

// ActionRecord is one immutable entry of the action log. It holds exactly
// what is needed to re-run the mutation (Content, Names, FromState, ToState,
// Forced) plus audit-only fields describing what a forced call overrode.
//
// Audit fields (Reset, OriginalStates, Skipped) are informational. Replay
// never reads them.
type ActionRecord struct {
	Action    ActionKind        `json:"action"`
	Content   map[string]string `json:"content,omitempty"`
	Names     []string          `json:"names,omitempty"`
	FromState string            `json:"from_state,omitempty"`
	ToState   string            `json:"to_state,omitempty"`
	Forced    bool              `json:"forced"`

	Reset          []string `json:"reset,omitempty"`
	OriginalStates []string `json:"original_states,omitempty"`
	Skipped        []string `json:"skipped,omitempty"`

	ID         string    `json:"id,omitempty"`
	Seq        int64     `json:"seq,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	Session    string    `json:"session,omitempty"`
	Version    string    `json:"version,omitempty"`
	Digest     string    `json:"digest,omitempty"`
}

// ContentNames returns the names of an add record in sorted order.
func (r ActionRecord) ContentNames() []string {
	names := make([]string, 0, len(r.Content))
	for n := range r.Content {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fields returns the record as a plain map with only the keys that belong to
// its action schema. Digest is excluded; MarshalJSON adds it back.
//
// Audit fields are emitted (possibly empty) exactly when Forced is set, so a
// record survives a write/read round trip with an unchanged digest.
func (r ActionRecord) Fields() map[string]any {
	m := map[string]any{
		"action": string(r.Action),
		"forced": r.Forced,
	}

	switch r.Action {
	case ActionAdd:
		content := r.Content
		if content == nil {
			content = map[string]string{}
		}
		m["content"] = content
		if r.Forced {
			m["reset"] = nonNil(r.Reset)
		}
	case ActionTransition, ActionTransit:
		m["names"] = nonNil(r.Names)
		m["from_state"] = r.FromState
		m["to_state"] = r.ToState
		if r.Forced {
			m["original_states"] = nonNil(r.OriginalStates)
		}
	case ActionRemove:
		m["names"] = nonNil(r.Names)
		if r.Forced {
			m["skipped"] = nonNil(r.Skipped)
		}
	}

	if r.ID != "" {
		m["id"] = r.ID
	}
	if r.Seq != 0 {
		m["seq"] = r.Seq
	}
	if !r.RecordedAt.IsZero() {
		m["recorded_at"] = r.RecordedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.Session != "" {
		m["session"] = r.Session
	}
	if r.Version != "" {
		m["version"] = r.Version
	}
	return m
}

// MarshalJSON writes the schema-shaped form of the record (see Fields).
func (r ActionRecord) MarshalJSON() ([]byte, error) {
	m := r.Fields()
	if r.Digest != "" {
		m["digest"] = r.Digest
	}
	return json.Marshal(m)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// recordIDLayout is fixed width so that ids compare lexicographically in
// time order. The trailing "Z" is appended separately.
const recordIDLayout = "20060102T150405.000000000"

// RecordID builds the sortable identifier for a record written at the given
// instant with the given sequence number.
//
// Format: "20261018T130645.123456789Z-000000042"
func RecordID(at time.Time, seq int64) string {
	return at.UTC().Format(recordIDLayout) + "Z-" + fmt.Sprintf("%09d", seq)
}

// ParseRecordID is the inverse of RecordID.
func ParseRecordID(id string) (time.Time, int64, error) {
	ts, seqText, ok := strings.Cut(id, "Z-")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("parse record id %q: missing separator", id)
	}
	at, err := time.ParseInLocation(recordIDLayout, ts, time.UTC)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse record id %q: %w", id, err)
	}
	seq, err := strconv.ParseInt(seqText, 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse record id %q: %w", id, err)
	}
	return at, seq, nil
}
