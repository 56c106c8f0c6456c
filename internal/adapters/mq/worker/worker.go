// Package worker runs jobs from a queue on a fixed pool of goroutines.
// Fit uses it to run sampler chains in parallel; ingest uses it to fetch
// line scores with bounded concurrency.
package worker

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"

	"github.com/okian/pairwise/pkg/logger"
	"github.com/okian/pairwise/pkg/metrics"
)

// Processor handles one job.
type Processor[T any] interface {
	Process(ctx context.Context, job T) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc[T any] func(ctx context.Context, job T) error

// Process calls f.
func (f ProcessorFunc[T]) Process(ctx context.Context, job T) error { return f(ctx, job) }

// Queue defines how workers receive jobs.
type Queue[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// InMemoryWorker pulls jobs from a queue and hands them to a processor.
type InMemoryWorker[T any] struct {
	queue  Queue[T]
	proc   Processor[T]
	name   string
	report func(error)
	done   chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker[T any](q Queue[T], proc Processor[T], opts ...Option) *InMemoryWorker[T] {
	s := settings{name: "worker"}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named(s.name)
	}
	return &InMemoryWorker[T]{
		queue:  q,
		proc:   proc,
		name:   s.name,
		report: func(error) {},
		done:   make(chan struct{}),
		logger: s.logger,
	}
}

// Run processes jobs until the queue is drained or ctx is done.
func (w *InMemoryWorker[T]) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.AddActiveWorkers(1)
			err := w.proc.Process(ctx, job)
			metrics.AddActiveWorkers(-1)
			if err != nil {
				metrics.RecordErrorByComponent("worker", "process")
				w.logger.Error(ctx, "job failed", logger.Error(err))
				w.report(err)
			}
		}
	}
}

// Pool manages a fixed set of workers sharing one queue and processor.
type Pool[T any] struct {
	workers  []*InMemoryWorker[T]
	failFast bool
	cancel   context.CancelFunc

	mu   sync.Mutex
	errs []error
}

// NewPool creates a pool of workerCount workers; values below one mean one
// worker per CPU.
func NewPool[T any](workerCount int, q Queue[T], proc Processor[T], opts ...PoolOption) *Pool[T] {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	ps := poolSettings{name: "pool"}
	for _, opt := range opts {
		opt(&ps)
	}

	p := &Pool[T]{
		workers:  make([]*InMemoryWorker[T], workerCount),
		failFast: ps.failFast,
	}
	for i := range workerCount {
		w := NewInMemoryWorker(q, proc, WithName(ps.name+"-"+strconv.Itoa(i)))
		w.report = p.record
		p.workers[i] = w
	}
	return p
}

func (p *Pool[T]) record(err error) {
	p.mu.Lock()
	p.errs = append(p.errs, err)
	cancel := p.cancel
	p.mu.Unlock()
	if p.failFast && cancel != nil {
		cancel()
	}
}

// Start launches every worker. With fail-fast enabled the first job error
// cancels the context passed to the remaining jobs.
func (p *Pool[T]) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has exited and returns the job errors.
// Workers exit once the queue is closed and drained.
func (p *Pool[T]) Wait() error {
	for _, w := range p.workers {
		<-w.done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	return errors.Join(p.errs...)
}

// Size returns the number of workers.
func (p *Pool[T]) Size() int { return len(p.workers) }
