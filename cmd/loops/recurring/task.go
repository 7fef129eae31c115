package recurring

import (
	"context"

	"github.com/lsst-dm/cm-service-sub002/pkg/loop"
)

// Task is one sweep of a maintenance loop. It receives the state from
// the previous cycle and returns the new state, whether it made
// progress (more backlog may remain when true), and an error that
// should stop the loop.
type Task[T any] func(context.Context, T) (T, bool, error)

// Applied binds the task to a rescheduling policy, yielding a
// loop.Task: p.Next decides, from the progress flag and the error,
// when the next cycle runs.
func (rt Task[T]) Applied(p Policy) loop.Task[T] {
	return func(ctx context.Context, t T) (T, loop.Next) {
		state, updated, err := rt(ctx, t)
		return state, p.Next(updated, err)
	}
}
