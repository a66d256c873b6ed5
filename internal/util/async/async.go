// Package async provides utilities for parallel task execution.
//
// This package contains generic helpers for running multiple operations
// concurrently with a bounded worker pool, collecting per-task results.
// It's used for applying the resources of a phase in parallel.
package async

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Result pairs a task name with its outcome.
type Result struct {
	Name string
	Err  error
}

// DefaultWorkers bounds concurrent task execution when no explicit limit
// is given.
const DefaultWorkers = 4

// RunBounded executes tasks through a worker pool of at most limit
// goroutines and returns one Result per task, in task order. Unlike a
// plain errgroup wait, every task runs to completion and every outcome is
// reported; callers decide which failures matter.
func RunBounded(ctx context.Context, limit int, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if limit <= 0 {
		limit = DefaultWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, task := range tasks {
		results[i].Name = task.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = fmt.Errorf("%s not started: %w", task.Name, err)
				return nil
			}
			results[i].Err = task.Func(ctx)
			// Errors are carried in the slot so sibling tasks keep running.
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// RunParallel executes tasks with the default pool width and returns the
// first error encountered, after all tasks finish.
func RunParallel(ctx context.Context, tasks []Task) error {
	for _, res := range RunBounded(ctx, DefaultWorkers, tasks) {
		if res.Err != nil {
			return fmt.Errorf("failed to run %s: %w", res.Name, res.Err)
		}
	}
	return nil
}

// FirstError returns the first non-nil error in results, or nil.
func FirstError(results []Result) error {
	for _, res := range results {
		if res.Err != nil {
			return fmt.Errorf("%s: %w", res.Name, res.Err)
		}
	}
	return nil
}
