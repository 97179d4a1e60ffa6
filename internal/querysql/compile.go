package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/transitions/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY so results are deterministic.
// CRITICAL: All values are parameterized, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The query is validated first; identifiers that fail validation are never
// printed into the SQL text.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if errs := queryir.Validate(q); len(errs) > 0 {
		return "", nil, fmt.Errorf("invalid query: %w", errs[0])
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileSelect compiles a queryir.Select to SQL.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(q.Columns, ", "),
		q.From,
		whereClause,
		stableOrderKey(q))

	return sql, params, nil
}

// stableOrderKey returns the ORDER BY clause body for a query.
// COLLATE BINARY keeps text ordering identical across SQLite builds.
func stableOrderKey(q queryir.Select) string {
	col := q.OrderBy
	if col == "" {
		col = q.Columns[0]
	}
	return col + " COLLATE BINARY ASC"
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return pred.Field + " = ?", []any{pred.Value}, nil
	case queryir.In:
		return compileIn(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileIn compiles an In predicate to "field IN (?, ?, ...)".
// An empty value list compiles to a predicate that is always false.
func compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}

	placeholders := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		placeholders[i] = "?"
		params[i] = v
	}

	return fmt.Sprintf("%s IN (%s)", in.Field, strings.Join(placeholders, ", ")), params, nil
}

// compileAnd compiles an And predicate to a parenthesized conjunction.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		allParams = append(allParams, params...)
	}

	return strings.Join(parts, " AND "), allParams, nil
}
