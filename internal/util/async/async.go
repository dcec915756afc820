package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Result is the outcome of a single Task.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// PanicError is returned for a task that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Run executes all tasks in parallel and blocks until every task returned.
// The returned slice has one entry per task, in the order tasks were given.
//
// Example:
//
//	results := async.Run(ctx, []async.Task{
//	    {Name: "east", Func: installEast},
//	    {Name: "west", Func: installWest},
//	})
//	if err := async.Join(results); err != nil {
//	    return err
//	}
func Run(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	type indexed struct {
		index  int
		result Result
	}
	resultChan := make(chan indexed, len(tasks))

	for i, task := range tasks {
		go func() {
			resultChan <- indexed{index: i, result: runOne(ctx, task)}
		}()
	}

	for range len(tasks) {
		res := <-resultChan
		results[res.index] = res.result
	}
	return results
}

func runOne(ctx context.Context, task Task) (res Result) {
	res.Name = task.Name
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		res.Duration = time.Since(start)
	}()
	res.Err = task.Func(ctx)
	return res
}

// Join returns nil when every result succeeded, otherwise an errors.Join of
// the failures, each prefixed with its task name.
func Join(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
