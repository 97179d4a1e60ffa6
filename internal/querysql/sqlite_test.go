package querysql

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transitions/internal/queryir"
)

// openItems creates an items table seeded with rows whose binary order
// differs from a case-insensitive order.
func openItems(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (name TEXT PRIMARY KEY, state TEXT NOT NULL)`)
	require.NoError(t, err)
	for _, row := range [][2]string{{"b", "x"}, {"B", "y"}, {"a", "x"}, {"A", "z"}} {
		_, err := db.Exec(`INSERT INTO items (name, state) VALUES (?, ?)`, row[0], row[1])
		require.NoError(t, err)
	}
	return db
}

func queryNames(t *testing.T, db *sql.DB, q queryir.Select) []string {
	t.Helper()
	query, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	rows, err := db.Query(query, params...)
	require.NoError(t, err, "compiled SQL must execute: %s", query)
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		dest := make([]any, len(q.Columns))
		dest[0] = &name
		for i := 1; i < len(dest); i++ {
			dest[i] = new(string)
		}
		require.NoError(t, rows.Scan(dest...))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestCompiledSQLRunsOnSQLite(t *testing.T) {
	db := openItems(t)

	tests := []struct {
		name  string
		query queryir.Select
		want  []string
	}{
		{
			name:  "no filter",
			query: queryir.Select{From: "items", Columns: []string{"name", "state"}},
			want:  []string{"A", "B", "a", "b"},
		},
		{
			name:  "equals",
			query: queryir.Select{From: "items", Columns: []string{"name", "state"}, Filter: queryir.Equals{Field: "name", Value: "a"}},
			want:  []string{"a"},
		},
		{
			name:  "in",
			query: queryir.Select{From: "items", Columns: []string{"name"}, Filter: queryir.In{Field: "state", Values: []string{"x", "y"}}, OrderBy: "name"},
			want:  []string{"B", "a", "b"},
		},
		{
			name:  "empty in",
			query: queryir.Select{From: "items", Columns: []string{"name"}, Filter: queryir.In{Field: "name"}},
			want:  []string{},
		},
		{
			name: "and",
			query: queryir.Select{From: "items", Columns: []string{"name", "state"}, Filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.In{Field: "name", Values: []string{"a", "A", "b"}},
				queryir.In{Field: "state", Values: []string{"x"}},
			}}},
			want: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, queryNames(t, db, tt.query))
		})
	}
}
