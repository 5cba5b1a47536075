package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task pairs an input with the result of processing it.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc is the function signature for processing a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over a slice of inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute processes every input and returns the tasks in input order.
// A failing task does not stop the others; inputs not started before ctx
// is cancelled carry ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))

	if len(inputs) == 1 || p.workers == 1 {
		for i, in := range inputs {
			results[i] = p.run(ctx, in)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range inputs {
		g.Go(func() error {
			results[i] = p.run(ctx, inputs[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Pool[T, R]) run(ctx context.Context, in T) Task[T, R] {
	task := Task[T, R]{Input: in}
	if err := ctx.Err(); err != nil {
		task.Err = err
		return task
	}
	task.Result, task.Err = p.process(ctx, in)
	return task
}
