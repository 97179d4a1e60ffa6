package ir

// Version constants for the record schema and the tool.
const (
	// RecordVersion is the action record schema version.
	RecordVersion = "1"

	// ToolVersion is the transitions release version.
	ToolVersion = "0.1.0"
)
