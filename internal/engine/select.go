package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/transitions/internal/ir"
)

// Selection partitions the names of a prospective operation into those the
// unforced operation would accept and those it would reject.
//
// Both slices are never nil. Input order is preserved; addition inputs are
// ordered by name because maps carry no order.
type Selection struct {
	Accepted []string `json:"accepted"`
	Rejected []string `json:"rejected"`
}

// SelectForAddition accepts names that are absent or already at their
// desired state, and rejects names tracked with a different state.
func (e *Engine) SelectForAddition(ctx context.Context, content map[string]string) (Selection, error) {
	names := slices.Sorted(maps.Keys(content))
	return e.selectBy(ctx, names, func(l ir.Lookup) bool {
		return !l.Found || l.State == content[l.Name]
	})
}

// SelectForTransition accepts names that are tracked and currently at from.
func (e *Engine) SelectForTransition(ctx context.Context, names []string, from string) (Selection, error) {
	return e.selectBy(ctx, names, func(l ir.Lookup) bool {
		return l.Found && l.State == from
	})
}

// SelectForRemoval accepts names that are tracked.
func (e *Engine) SelectForRemoval(ctx context.Context, names []string) (Selection, error) {
	return e.selectBy(ctx, names, func(l ir.Lookup) bool {
		return l.Found
	})
}

// selectBy reads the store without a transaction; selections never write.
func (e *Engine) selectBy(ctx context.Context, names []string, accept func(ir.Lookup) bool) (Selection, error) {
	sel := Selection{Accepted: []string{}, Rejected: []string{}}
	if len(names) == 0 {
		return sel, nil
	}

	lookups, err := e.store.GetMany(ctx, names)
	if err != nil {
		if ErrorKind(err) == KindInvalidInput {
			return Selection{}, err
		}
		return Selection{}, fmt.Errorf("%w: select: %w", ErrIO, err)
	}

	for _, l := range lookups {
		if accept(l) {
			sel.Accepted = append(sel.Accepted, l.Name)
		} else {
			sel.Rejected = append(sel.Rejected, l.Name)
		}
	}
	return sel, nil
}
