package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transitions/internal/queryir"
)

func TestCompile_SelectWithoutFilter(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "items",
		Columns: []string{"name", "state"},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT name, state FROM items ORDER BY name COLLATE BINARY ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_InIsParameterized(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(&queryir.Select{
		From:    "items",
		Columns: []string{"name", "state"},
		Filter:  queryir.In{Field: "name", Values: []string{`x" OR 1=1 --`, "b"}},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE name IN (?, ?)")
	assert.NotContains(t, sql, "OR 1=1", "values must never be interpolated")
	assert.Equal(t, []any{`x" OR 1=1 --`, "b"}, params)
}

func TestCompile_AndAcrossFilters(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "items",
		Columns: []string{"name", "state"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.In{Field: "name", Values: []string{"1", "2"}},
			queryir.In{Field: "state", Values: []string{"a"}},
		}},
		OrderBy: "name",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT name, state FROM items WHERE (name IN (?, ?)) AND (state IN (?)) ORDER BY name COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{"1", "2", "a"}, params)
}

func TestCompile_EmptyInMatchesNothing(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "items",
		Columns: []string{"name"},
		Filter:  queryir.In{Field: "state"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE 1 = 0")
	assert.Empty(t, params)
}

func TestCompile_Equals(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "items",
		Columns: []string{"state"},
		Filter:  queryir.Equals{Field: "name", Value: "1"},
		OrderBy: "name",
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT state FROM items WHERE name = ? ORDER BY name COLLATE BINARY ASC", sql)
	assert.Equal(t, []any{"1"}, params)
}

func TestCompile_RejectsUnsafeIdentifiers(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		query queryir.Select
	}{
		{"table", queryir.Select{From: "items; DROP TABLE items", Columns: []string{"name"}}},
		{"column", queryir.Select{From: "items", Columns: []string{"name, state"}}},
		{"filter field", queryir.Select{From: "items", Columns: []string{"name"}, Filter: queryir.In{Field: "1=1 OR name", Values: []string{"x"}}}},
		{"order by", queryir.Select{From: "items", Columns: []string{"name"}, OrderBy: "name DESC"}},
		{"no columns", queryir.Select{From: "items"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := compiler.Compile(tc.query)
			assert.Error(t, err)
		})
	}
}

func TestCompile_NilQuery(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(nil)
	assert.Error(t, err)
}
