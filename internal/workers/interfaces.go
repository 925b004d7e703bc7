// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that runs a set of
// workers in parallel with a bounded number of goroutines.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
// Run blocks until the worker's unit of work is done or ctx is cancelled.
//
// Example implementation:
//
//	type MyWorker struct{}
//
//	func (w *MyWorker) Run(ctx context.Context) error {
//	    // process one unit of work
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a plain function to [Worker].
type WorkerFunc func(ctx context.Context) error

// Run implements [Worker].
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
