// Package worker defines worker contracts for asynchronous counter updates.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/zanshin/internal/domain/counter"
	"github.com/okian/zanshin/internal/domain/model"
	"github.com/okian/zanshin/pkg/logger"
	"github.com/okian/zanshin/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Event abstracts what workers read off the queue.
// Using the model.PointEvent type for consistency.
type Event = model.PointEvent

// Incrementer applies a delta to a daily technique counter.
type Incrementer interface {
	IncrementDailyCounter(ctx context.Context, key counter.Key, delta int64) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes point events and writes counter updates using the
// provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining events before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing point events.
type InMemoryWorker struct {
	queue       Queue
	incrementer Incrementer
	name        string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, incrementer Incrementer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       queue,
		incrementer: incrementer,
		name:        "worker", // default name
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent fans a single point event out into its daily counter rows.
// A failed row is logged and skipped so the remaining rows still land; the
// batch rebuild reconciles whatever was missed.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	keys := counter.FromEvent(event)
	if len(keys) == 0 {
		return nil
	}

	var failed int
	for _, key := range keys {
		if err := w.incrementer.IncrementDailyCounter(ctx, key, 1); err != nil {
			failed++
			metrics.RecordCounterError("worker")
			w.logger.Error(ctx, "counter increment failed",
				logger.String("eventID", event.EventID),
				logger.String("player", key.PlayerID),
				logger.String("counter", key.Name),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordCounterIncrement(string(key.Kind))
	}

	if failed > 0 {
		metrics.RecordWorkerError()
		return fmt.Errorf("event %s: %d of %d counter updates failed", event.EventID, failed, len(keys))
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers     []*InMemoryWorker
	queue       Queue
	incrementer Incrementer

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, incrementer Incrementer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:     make([]*InMemoryWorker, workerCount),
		queue:       queue,
		incrementer: incrementer,
		shutdown:    make(chan struct{}),
		logger:      logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			incrementer,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new events
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerCount(0)

	return nil
}
