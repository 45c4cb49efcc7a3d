// Package pipeline drives units of work through a convert stage and a
// persist stage, each backed by a bounded WorkerPool.
//
// A producer submits source units one at a time; Submit blocks while the
// convert queue is full, so a slow sink throttles the producer. Every unit
// resolves its Result exactly once. The first unrecoverable error stops
// the pipeline and becomes its terminal error; Cancel stops it without an
// error. A stopped pipeline starts no new work, but units already running
// complete normally.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

// ErrStopped resolves units that were submitted or queued after the
// pipeline stopped.
var ErrStopped = errors.New("pipeline stopped")

// ConvertFunc turns a source unit into a persistable one.
type ConvertFunc[S, C any] func(ctx context.Context, src S) (C, error)

// PersistFunc writes a converted unit.
type PersistFunc[C any] func(ctx context.Context, unit C) error

// Source yields source units. Next returns io.EOF when exhausted.
type Source[S any] interface {
	Next(ctx context.Context) (S, error)
}

// Options configures a Pipeline.
type Options struct {
	// Name labels the pipeline's metrics and log entries.
	Name string
	// ConvertWorkers and PersistWorkers size the stages. Use one persist
	// worker for sinks that must be written sequentially.
	ConvertWorkers int
	PersistWorkers int
	// QueueSize bounds each stage's queue. Zero uses twice the stage's
	// worker count.
	QueueSize int
	// FailFast stops the pipeline at the first failed unit. Otherwise only
	// persistence failures stop it.
	FailFast bool
	// Registerer receives the pipeline metrics. Nil disables registration.
	Registerer prometheus.Registerer
	Log        *logrus.Entry
}

// Pipeline runs units through convert and persist. It is safe for
// concurrent use.
type Pipeline[S, C any] struct {
	convert  ConvertFunc[S, C]
	persist  PersistFunc[C]
	failFast bool
	log      *logrus.Entry
	metrics  *metrics

	converters *WorkerPool
	persisters *WorkerPool
	latch      *CountLatch

	stopped atomic.Bool
	errMu   sync.Mutex
	err     error

	closeOnce sync.Once
	closeErr  error
	closersMu sync.Mutex
	closers   []io.Closer

	succeeded atomic.Int64
	failed    atomic.Int64
}

// New starts the worker pools of a pipeline.
func New[S, C any](convert ConvertFunc[S, C], persist PersistFunc[C], opts Options) *Pipeline[S, C] {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}
	convertWorkers, persistWorkers := max(opts.ConvertWorkers, 1), max(opts.PersistWorkers, 1)
	convertQueue, persistQueue := opts.QueueSize, opts.QueueSize
	if opts.QueueSize < 1 {
		convertQueue, persistQueue = 2*convertWorkers, 2*persistWorkers
	}
	return &Pipeline[S, C]{
		convert:    convert,
		persist:    persist,
		failFast:   opts.FailFast,
		log:        log.WithFields(logrus.Fields{"component": "pipeline", "pipeline": name}),
		metrics:    newMetrics(opts.Registerer, name),
		converters: NewWorkerPool(convertWorkers, convertQueue),
		persisters: NewWorkerPool(persistWorkers, persistQueue),
		latch:      NewCountLatch(),
	}
}

// Submit queues src for conversion, blocking while the convert queue is
// full. After a stop it returns a result already failed with ErrStopped.
// ctx is passed to the unit's stages; Cancel does not cancel it.
func (p *Pipeline[S, C]) Submit(ctx context.Context, src S) *Result {
	if p.stopped.Load() {
		p.metrics.unit(stageConvert, statusSkipped)
		return failedResult(ErrStopped)
	}
	r := newResult()
	p.latch.Increment()
	p.metrics.outstanding.Inc()
	err := p.converters.Submit(ctx, func() { p.runConvert(ctx, src, r) })
	if err != nil {
		p.finish(r, fmt.Errorf("submitting unit: %w", err))
	}
	return r
}

func (p *Pipeline[S, C]) runConvert(ctx context.Context, src S, r *Result) {
	if p.stopped.Load() {
		p.metrics.unit(stageConvert, statusSkipped)
		p.finish(r, ErrStopped)
		return
	}
	unit, err := p.convert(ctx, src)
	if err != nil {
		p.metrics.unit(stageConvert, statusFailed)
		p.fail(err)
		p.finish(r, err)
		return
	}
	p.metrics.unit(stageConvert, statusOK)
	if err := p.persisters.Submit(ctx, func() { p.runPersist(ctx, unit, r) }); err != nil {
		p.finish(r, fmt.Errorf("submitting unit: %w", err))
	}
}

func (p *Pipeline[S, C]) runPersist(ctx context.Context, unit C, r *Result) {
	if p.stopped.Load() {
		p.metrics.unit(stagePersist, statusSkipped)
		p.finish(r, ErrStopped)
		return
	}
	if err := p.persist(ctx, unit); err != nil {
		p.metrics.unit(stagePersist, statusFailed)
		p.fail(err)
		p.finish(r, err)
		return
	}
	p.metrics.unit(stagePersist, statusOK)
	p.finish(r, nil)
}

// finish resolves r and releases its latch slot.
func (p *Pipeline[S, C]) finish(r *Result, err error) {
	switch {
	case err == nil:
		p.succeeded.Add(1)
	case !errors.Is(err, ErrStopped):
		p.failed.Add(1)
		p.log.WithError(err).Debug("unit failed")
	}
	r.resolve(err)
	p.metrics.outstanding.Dec()
	p.latch.Decrement()
}

// fail records err as the terminal error and stops the pipeline if err is
// unrecoverable.
func (p *Pipeline[S, C]) fail(err error) {
	if !p.failFast && !errors.Is(err, types.ErrPersistence) {
		return
	}
	if p.setErr(err) {
		p.log.WithError(err).Error("stopping pipeline")
	}
	p.stopped.Store(true)
}

// setErr records err unless a terminal error exists. It reports whether err
// was recorded.
func (p *Pipeline[S, C]) setErr(err error) bool {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.err != nil {
		return false
	}
	p.err = err
	return true
}

// Run submits every unit of src until it is exhausted, the pipeline stops,
// or src fails. A read error is terminal. Run does not wait for the
// submitted units; use Wait.
func (p *Pipeline[S, C]) Run(ctx context.Context, src Source[S]) error {
	for !p.stopped.Load() {
		unit, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			err = fmt.Errorf("reading source: %w", err)
			p.setErr(err)
			p.stopped.Store(true)
			return err
		}
		p.Submit(ctx, unit)
	}
	return nil
}

// Cancel stops the pipeline without recording an error.
func (p *Pipeline[S, C]) Cancel() {
	if !p.stopped.Swap(true) {
		p.log.Info("pipeline cancelled")
	}
}

// Stopped reports whether the pipeline was cancelled or failed.
func (p *Pipeline[S, C]) Stopped() bool { return p.stopped.Load() }

// Err returns the terminal error, or nil.
func (p *Pipeline[S, C]) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// Wait blocks until every submitted unit has resolved or ctx is done.
func (p *Pipeline[S, C]) Wait(ctx context.Context) error { return p.latch.Wait(ctx) }

// Outstanding returns the number of unresolved units.
func (p *Pipeline[S, C]) Outstanding() int64 { return p.latch.Count() }

// Counts returns the number of succeeded and failed units. Units skipped
// after a stop are not counted.
func (p *Pipeline[S, C]) Counts() (succeeded, failed int64) {
	return p.succeeded.Load(), p.failed.Load()
}

// AddCloser registers c to be closed by Close after the pools shut down.
// Closers run in reverse registration order.
func (p *Pipeline[S, C]) AddCloser(c io.Closer) {
	p.closersMu.Lock()
	defer p.closersMu.Unlock()
	p.closers = append(p.closers, c)
}

// Close waits for every submitted unit, shuts down the pools and closes the
// registered closers exactly once. It returns their joined errors.
func (p *Pipeline[S, C]) Close() error {
	p.closeOnce.Do(func() {
		p.latch.Wait(context.Background())
		p.converters.Close()
		p.persisters.Close()

		p.closersMu.Lock()
		closers := p.closers
		p.closers = nil
		p.closersMu.Unlock()

		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
