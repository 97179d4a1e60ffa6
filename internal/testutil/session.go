package testutil

// DefaultSession is the session id used when a scenario does not set one.
const DefaultSession = "test-session-default"

// FixedSessionGenerator generates the same session id every time.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// never runs out, so a test can create as many engines as it needs and all
// of their records share one session id.
//
// Implements engine.SessionGenerator.
type FixedSessionGenerator struct {
	session string
}

// NewFixedSessionGenerator creates a fixed session generator.
//
// The id is typically set in the scenario YAML:
//
//	session: "test-session-00000000-0000-0000-0000-000000000001"
//
// If session is empty, Generate() returns DefaultSession.
func NewFixedSessionGenerator(session string) *FixedSessionGenerator {
	if session == "" {
		session = DefaultSession
	}
	return &FixedSessionGenerator{session: session}
}

// Generate returns the fixed session id.
func (g *FixedSessionGenerator) Generate() string {
	return g.session
}
