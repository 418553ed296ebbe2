package mcp

import (
	"context"

	"github.com/claude/fitplan/internal/store"
)

// Workouts abstracts the workout state for MCP tools. Both Local (a store in
// this process) and HTTPClient (a session on a remote fitplan server)
// satisfy this interface.
type Workouts interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
	SelectDay(ctx context.Context, day int) (store.Outcome, error)
	ToggleExerciseCompletion(ctx context.Context, day, exerciseID int) (store.Outcome, error)
}

// Local serves MCP tools from a store owned by this process.
type Local struct {
	store *store.Store
}

// Compile-time check: Local satisfies Workouts.
var _ Workouts = (*Local)(nil)

// NewLocal wraps s. The caller keeps ownership and closes it.
func NewLocal(s *store.Store) *Local {
	return &Local{store: s}
}

func (l *Local) Snapshot(ctx context.Context) (store.Snapshot, error) {
	return l.store.Snapshot(), nil
}

func (l *Local) SelectDay(ctx context.Context, day int) (store.Outcome, error) {
	return l.store.SelectDay(day), nil
}

func (l *Local) ToggleExerciseCompletion(ctx context.Context, day, exerciseID int) (store.Outcome, error) {
	return l.store.ToggleExerciseCompletion(day, exerciseID), nil
}
