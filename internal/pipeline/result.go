package pipeline

import (
	"context"
	"sync"
)

// Result is the outcome of one submitted unit. It resolves once, when the
// unit has been persisted, has failed, or was skipped after a stop.
type Result struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newResult() *Result { return &Result{done: make(chan struct{})} }

// failedResult returns a result that is already resolved with err.
func failedResult(err error) *Result {
	r := newResult()
	r.resolve(err)
	return r
}

func (r *Result) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done is closed when the result resolves.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err returns the unit's error. It is nil until the result resolves.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the result resolves or ctx is done and returns the
// unit's error or ctx's.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
