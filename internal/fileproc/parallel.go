// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
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

// Unwrap returns every collected error so errors.Is and errors.As see them.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// Tool runs are I/O bound, so more workers than cores keeps the CPU busy.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Options configures Map.
type Options struct {
	// MaxWorkers bounds concurrent files. <= 0 means 2x NumCPU.
	MaxWorkers int
	// OnProgress, if set, is called once per file, failed or not.
	OnProgress ProgressFunc
}

// Map runs fn over files on a bounded worker pool. Results keep the order
// of files; a file whose fn failed leaves the zero value in its slot and
// an entry in the returned errors. Once ctx is canceled the remaining files
// are skipped and recorded with ctx.Err().
func Map[T any](ctx context.Context, files []string, fn func(context.Context, string) (T, error), opts Options) ([]T, *ProcessingErrors) {
	errs := &ProcessingErrors{}
	if len(files) == 0 {
		return nil, errs
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	results := make([]T, len(files))
	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, path := range files {
		p.Go(func() {
			if opts.OnProgress != nil {
				defer opts.OnProgress()
			}
			if err := ctx.Err(); err != nil {
				errs.Add(path, err)
				return
			}
			result, err := fn(ctx, path)
			if err != nil {
				errs.Add(path, err)
				return
			}
			results[i] = result
		})
	}
	p.Wait()

	return results, errs
}
