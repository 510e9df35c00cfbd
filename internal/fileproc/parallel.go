// Package fileproc provides a generic parallel-map helper over a file
// list, built on sourcegraph/conc/pool: one pool.Go call per file item,
// bounded to a fixed goroutine ceiling, with per-file errors collected
// instead of aborting the batch.
//
// This is a different fan-out shape than pkg/orchestrator's fixed worker
// pool pulling from a shared atomic cursor: that shape exists because the
// batch orchestrator's worker count is itself a resource-policy decision
// tied to the memory governor and descriptor semaphore, whereas the
// helpers here suit a one-off parallel pass with no such constraints (the
// two-tier combiner's per-pair processing, in particular).
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError pairs a path with the error encountered processing it.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects every per-file error from a parallel pass.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection; safe for concurrent use.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any error has been recorded.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for the
// default worker ceiling; 2x suits the mixed CPU/IO cost of opening and
// scanning an output file.
const DefaultWorkerMultiplier = 2

// ForEachFile runs fn over every path in files concurrently, bounded to
// 2*NumCPU in-flight goroutines, collecting successful results (in
// arbitrary order) and per-file errors separately. A nil
// *ProcessingErrors return means every file succeeded.
func ForEachFile[T any](ctx context.Context, files []string, fn func(string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	maxWorkers := runtime.NumCPU() * DefaultWorkerMultiplier
	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for _, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return nil
			default:
			}

			result, err := fn(path)
			if err != nil {
				errs.Add(path, err)
				return nil
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
