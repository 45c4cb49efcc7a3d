package pipeline

import (
	"context"
	"sync"
)

// CountLatch counts outstanding units of work. Wait blocks until the count
// drops to zero.
type CountLatch struct {
	mu    sync.Mutex
	count int64
	zero  chan struct{}
}

// NewCountLatch returns a latch at zero.
func NewCountLatch() *CountLatch {
	zero := make(chan struct{})
	close(zero)
	return &CountLatch{zero: zero}
}

// Increment adds one outstanding unit.
func (l *CountLatch) Increment() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		l.zero = make(chan struct{})
	}
	l.count++
}

// Decrement marks one unit as finished. Calls beyond the count are ignored.
func (l *CountLatch) Decrement() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return
	}
	l.count--
	if l.count == 0 {
		close(l.zero)
	}
}

// Count returns the number of outstanding units.
func (l *CountLatch) Count() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Wait blocks until the count is zero or ctx is done.
func (l *CountLatch) Wait(ctx context.Context) error {
	l.mu.Lock()
	zero := l.zero
	l.mu.Unlock()
	select {
	case <-zero:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
