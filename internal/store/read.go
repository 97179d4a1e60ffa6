package store

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/queryir"
	"github.com/roach88/transitions/internal/querysql"
)

// lookupChunk bounds the number of bound parameters per IN (...) lookup.
// SQLite's default limit is 999 on older builds.
const lookupChunk = 500

// itemsTable and its columns, as referenced by compiled queries.
const (
	itemsTable  = "items"
	nameColumn  = "name"
	stateColumn = "state"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so reads run the same
// way inside and outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Filter restricts Query results.
//
// Within one field the values are alternatives (OR); when both fields are
// set an item must satisfy both (AND). A nil or empty slice means the
// filter is omitted.
type Filter struct {
	Names  []string
	States []string
}

// Get returns the lookup result for a single name.
func (s *Store) Get(ctx context.Context, name string) (ir.Lookup, error) {
	lookups, err := getMany(ctx, s.db, s.compiler, []string{name})
	if err != nil {
		return ir.Lookup{}, err
	}
	return lookups[0], nil
}

// GetMany looks up every name and returns one result per input, in input
// order. Duplicate names produce duplicate results.
//
// Returns ErrInvalidInput if any name is empty.
func (s *Store) GetMany(ctx context.Context, names []string) ([]ir.Lookup, error) {
	return getMany(ctx, s.db, s.compiler, names)
}

// Query returns the items matching the filter, ordered by name.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, f Filter) ([]ir.Item, error) {
	q := queryir.Select{
		From:    itemsTable,
		Columns: []string{nameColumn, stateColumn},
		Filter:  f.predicate(),
		OrderBy: nameColumn,
	}

	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []ir.Item{}
	for rows.Next() {
		var it ir.Item
		if err := rows.Scan(&it.Name, &it.State); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Count returns the number of tracked items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// predicate converts the filter to a queryir predicate, or nil when no
// field is set.
func (f Filter) predicate() queryir.Predicate {
	var preds []queryir.Predicate
	if len(f.Names) > 0 {
		preds = append(preds, queryir.In{Field: nameColumn, Values: f.Names})
	}
	if len(f.States) > 0 {
		preds = append(preds, queryir.In{Field: stateColumn, Values: f.States})
	}

	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return queryir.And{Predicates: preds}
	}
}

// getMany resolves names in chunks and reassembles results in input order.
func getMany(ctx context.Context, q querier, c *querysql.SQLCompiler, names []string) ([]ir.Lookup, error) {
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%w: name at position %d is empty", ErrInvalidInput, i)
		}
		if !utf8.ValidString(n) {
			return nil, fmt.Errorf("%w: name at position %d is not valid UTF-8", ErrInvalidInput, i)
		}
	}

	found := make(map[string]string, len(names))
	unique := dedupe(names)
	for start := 0; start < len(unique); start += lookupChunk {
		end := min(start+lookupChunk, len(unique))
		if err := lookupChunkInto(ctx, q, c, unique[start:end], found); err != nil {
			return nil, err
		}
	}

	out := make([]ir.Lookup, len(names))
	for i, n := range names {
		state, ok := found[n]
		out[i] = ir.Lookup{Name: n, State: state, Found: ok}
	}
	return out, nil
}

func lookupChunkInto(ctx context.Context, q querier, c *querysql.SQLCompiler, names []string, found map[string]string) error {
	var filter queryir.Predicate = queryir.In{Field: nameColumn, Values: names}
	if len(names) == 1 {
		filter = queryir.Equals{Field: nameColumn, Value: names[0]}
	}
	query, args, err := c.Compile(queryir.Select{
		From:    itemsTable,
		Columns: []string{nameColumn, stateColumn},
		Filter:  filter,
	})
	if err != nil {
		return fmt.Errorf("lookup items: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("lookup items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, state string
		if err := rows.Scan(&name, &state); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		found[name] = state
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate items: %w", err)
	}
	return nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
