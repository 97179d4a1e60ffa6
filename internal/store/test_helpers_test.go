package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedItems inserts items directly, bypassing Tx validation.
func seedItems(t *testing.T, s *Store, items map[string]string) {
	t.Helper()
	for name, state := range items {
		if _, err := s.db.Exec("INSERT INTO items (name, state) VALUES (?, ?)", name, state); err != nil {
			t.Fatalf("seed %q: %v", name, err)
		}
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
