package pipeline

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a unit of work run by a WorkerPool.
type Task func()

// WorkerPool runs tasks on a fixed number of goroutines fed by a bounded
// queue. Submit blocks while the queue is full.
type WorkerPool struct {
	tasks chan Task
	group errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts workers goroutines with a queue of queueSize tasks.
// Values below 1 are raised to 1.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	workers = max(workers, 1)
	queueSize = max(queueSize, 1)
	p := &WorkerPool{tasks: make(chan Task, queueSize)}
	for range workers {
		p.group.Go(func() error {
			for task := range p.tasks {
				task()
			}
			return nil
		})
	}
	return p
}

// Submit queues task, blocking while the queue is full. It returns ctx's
// error if ctx is done first.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, runs the queued ones and waits for the
// workers to exit. It must not be called from a task of the same pool.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.group.Wait()
}
