// Tests for the outstanding-work latch and the worker pool.
package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountLatchWait(t *testing.T) {
	l := NewCountLatch()
	require.NoError(t, l.Wait(context.Background()), "a new latch is at zero")

	l.Increment()
	l.Increment()
	assert.Equal(t, int64(2), l.Count())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- l.Wait(context.Background()) }()
	l.Decrement()
	l.Decrement()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the count reached zero")
	}

	l.Decrement()
	assert.Zero(t, l.Count(), "extra decrements are ignored")
}

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	p := NewWorkerPool(4, 2)
	var ran atomic.Int64
	for range 100 {
		require.NoError(t, p.Submit(context.Background(), func() { ran.Add(1) }))
	}
	p.Close()
	assert.Equal(t, int64(100), ran.Load())

	assert.ErrorIs(t, p.Submit(context.Background(), func() {}), ErrPoolClosed)
	p.Close()
}

func TestWorkerPoolSubmitBlocksWhenFull(t *testing.T) {
	p := NewWorkerPool(1, 1)
	gate := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() {
		close(started)
		<-gate
	}))
	<-started
	require.NoError(t, p.Submit(context.Background(), func() {}), "fills the queue")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Submit(ctx, func() {}), context.DeadlineExceeded)

	close(gate)
	p.Close()
}
