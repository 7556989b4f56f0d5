// Package worker drains the match queue. A single worker owns the rating
// store, so matches are rated one at a time in arrival order.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/mmr/internal/adapters/mq/queue"
	"github.com/okian/mmr/internal/domain/model"
	"github.com/okian/mmr/pkg/logger"
	"github.com/okian/mmr/pkg/metrics"
)

// Processor rates one match.
type Processor interface {
	Process(ctx context.Context, job model.MatchJob) (model.MatchResult, error)
}

// Queue defines how the worker receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue is closed.
type Worker interface {
	// Run blocks until the queue is closed and drained, ctx is canceled or
	// the worker is force-stopped by Shutdown.
	Run(ctx context.Context)

	// Shutdown waits for Run to return. Close the queue first so Run can
	// drain it. If ctx expires first the worker is stopped without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q and rating with p.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.handle(ctx, job)
		}
	}
}

// Shutdown waits for the worker to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.stopOnce.Do(func() { close(w.stop) })
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// handle processes one job and replies. A panicking processor fails the
// job instead of the worker.
func (w *InMemoryWorker) handle(ctx context.Context, job model.MatchJob) {
	var res model.MatchResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				res = model.MatchResult{Err: fmt.Errorf("%w: %v", ErrProcessorPanic, r)}
			}
		}()
		var err error
		res, err = w.processor.Process(ctx, job)
		res.Err = err
	}()
	res.MatchID = job.MatchID

	if res.Err != nil {
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Debug(ctx, "match failed",
			logger.String("match_id", job.MatchID),
			logger.Error(res.Err))
	}

	if job.Reply == nil {
		return
	}
	select {
	case job.Reply <- res:
	default:
		metrics.RecordErrorByComponent("worker", "reply_dropped")
		w.logger.Warn(ctx, "reply channel full, result dropped",
			logger.String("match_id", job.MatchID))
	}
}
