package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/querysql"
)

// ErrMissing is returned by Tx.Update and Tx.Delete when the named item is
// not tracked.
var ErrMissing = errors.New("item not tracked")

// Tx groups single-record primitives into one SQL transaction.
// A Tx is only valid inside the function passed to WithTx.
type Tx struct {
	tx       *sql.Tx
	compiler *querysql.SQLCompiler
}

// WithTx runs fn inside one SQL transaction. If fn returns an error the
// transaction is rolled back and the error is returned unchanged. Otherwise
// the transaction is committed; a commit failure is returned wrapped.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Tx{tx: sqlTx, compiler: s.compiler}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the lookup result for name as seen by this transaction.
func (t *Tx) Get(ctx context.Context, name string) (ir.Lookup, error) {
	lookups, err := getMany(ctx, t.tx, t.compiler, []string{name})
	if err != nil {
		return ir.Lookup{}, err
	}
	return lookups[0], nil
}

// GetMany is Store.GetMany as seen by this transaction.
func (t *Tx) GetMany(ctx context.Context, names []string) ([]ir.Lookup, error) {
	return getMany(ctx, t.tx, t.compiler, names)
}

// Insert creates a new item. Inserting a name that is already tracked
// violates the primary key and returns an error.
func (t *Tx) Insert(ctx context.Context, name, state string) error {
	if err := checkItem(name, state); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx,
		"INSERT INTO items (name, state) VALUES (?, ?)", name, state); err != nil {
		return fmt.Errorf("insert %q: %w", name, err)
	}
	return nil
}

// Update sets the state of an existing item.
// Returns ErrMissing if the name is not tracked.
func (t *Tx) Update(ctx context.Context, name, state string) error {
	if err := checkItem(name, state); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		"UPDATE items SET state = ? WHERE name = ?", state, name)
	if err != nil {
		return fmt.Errorf("update %q: %w", name, err)
	}
	return requireAffected(res, name)
}

// Delete removes an item.
// Returns ErrMissing if the name is not tracked.
func (t *Tx) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	res, err := t.tx.ExecContext(ctx, "DELETE FROM items WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return requireAffected(res, name)
}

func checkItem(name, state string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if state == "" {
		return fmt.Errorf("%w: empty state for %q", ErrInvalidInput, name)
	}
	if !utf8.ValidString(name) || !utf8.ValidString(state) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidInput, name+"="+state)
	}
	return nil
}

func requireAffected(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrMissing, name)
	}
	return nil
}
