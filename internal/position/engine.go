package position

import (
	"context"
	"fmt"
)

// Store exposes the positions of the groups. The repository of the
// positioned records implements it.
type Store interface {
	// MaxPosition returns the highest position of group, false when the
	// group is empty.
	MaxPosition(ctx context.Context, group uint) (int, bool, error)
	// Shift adds delta to every position of group within [from, to]. A
	// negative to leaves the range unbounded.
	Shift(ctx context.Context, group uint, from, to, delta int) error
}

// Engine renumbers the siblings of a group around inserts, moves and
// removals. It must run inside the transaction persisting the member, while
// the group is locked.
type Engine struct {
	store Store
	plan  Plan
}

// NewEngine creates an Engine applying plan through store.
func NewEngine(store Store, plan Plan) *Engine {
	return &Engine{store: store, plan: plan}
}

// Insert makes room for a new member and returns the position it must be
// persisted with.
func (e *Engine) Insert(ctx context.Context, group uint, requested int) (int, error) {
	last, ok, err := e.store.MaxPosition(ctx, group)
	if err != nil {
		return 0, err
	}
	pos, err := e.plan.Insert(last, ok, requested)
	if err != nil {
		return 0, err
	}
	if ok && pos <= last {
		if err := e.store.Shift(ctx, group, pos, -1, 1); err != nil {
			return 0, fmt.Errorf("failed to make room at position %d: %w", pos, err)
		}
	}
	return pos, nil
}

// Move shifts the siblings between from and the requested position and
// returns the position the member must be persisted with.
func (e *Engine) Move(ctx context.Context, group uint, from, requested int) (int, error) {
	last, ok, err := e.store.MaxPosition(ctx, group)
	if err != nil {
		return 0, err
	}
	if !ok {
		last = -1
	}
	to, err := e.plan.Move(last, from, requested)
	if err != nil {
		return 0, err
	}

	switch {
	case to < from:
		err = e.store.Shift(ctx, group, to, from-1, 1)
	case to > from:
		err = e.store.Shift(ctx, group, from+1, to, -1)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to move position %d to %d: %w", from, to, err)
	}
	return to, nil
}

// Remove closes the gap left by the member removed from position at.
func (e *Engine) Remove(ctx context.Context, group uint, at int) error {
	if err := e.store.Shift(ctx, group, at+1, -1, -1); err != nil {
		return fmt.Errorf("failed to close gap at position %d: %w", at, err)
	}
	return nil
}
