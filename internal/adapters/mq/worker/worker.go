// Package worker drains the race queue: each job is analysed and its report saved.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/pkg/logger"
	"github.com/okian/handicap/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job abstracts what workers read off the queue.
type Job = model.RaceJob

// Analyzer runs the handicapping pipeline for one race. A nil report with a
// nil error means the race was skipped.
type Analyzer interface {
	Analyze(ctx context.Context, job Job) (*report.Report, error)
}

// Saver persists a finished report.
type Saver interface {
	Save(ctx context.Context, r report.Report) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Counters tallies job outcomes.
type Counters struct {
	Reported atomic.Int64
	Skipped  atomic.Int64
	Failed   atomic.Int64
}

// Worker processes race jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	saver    Saver
	name     string
	counters *Counters

	shutdown chan struct{}
	stopped  atomic.Bool
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, analyzer Analyzer, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		analyzer: analyzer,
		saver:    saver,
		name:     "worker",
		counters: &Counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Default().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
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
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing race job", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	if w.stopped.CompareAndSwap(false, true) {
		close(w.shutdown)
	}
}

// Counters returns the outcome counters the worker updates.
func (w *InMemoryWorker) Counters() *Counters { return w.counters }

func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	log := w.logger.With(logger.String("job_id", job.ID), logger.String("race", job.Race.String()))

	r, err := w.analyzer.Analyze(ctx, job)
	if err != nil {
		w.counters.Failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordError("worker", "analysis_error")
		return fmt.Errorf("analyse %s: %w", job.Race, err)
	}
	if r == nil {
		w.counters.Skipped.Add(1)
		log.Debug(ctx, "race skipped")
		return nil
	}

	if err := w.saver.Save(ctx, *r); err != nil {
		w.counters.Failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordError("worker", "save_error")
		return fmt.Errorf("save report %s: %w", job.Race, err)
	}
	w.counters.Reported.Add(1)
	log.Debug(ctx, "report saved", logger.String("report_id", r.Metadata.ReportID))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *Counters
	logger   logger.Logger
}

// NewPool creates a worker pool. A count below 1 uses one worker per CPU.
func NewPool(workerCount int, queue Queue, analyzer Analyzer, saver Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		counters: &Counters{},
		logger:   optionLogger(opts),
	}
	for i := range pool.workers {
		wopts := append([]Option{WithCounters(pool.counters)}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, analyzer, saver, wopts...)
	}
	return pool
}

// optionLogger returns the logger set through opts, or the default pool logger.
func optionLogger(opts []Option) logger.Logger {
	var w InMemoryWorker
	for _, opt := range opts {
		opt(&w)
	}
	if w.logger != nil {
		return w.logger.Named("pool")
	}
	return logger.Default().Named("worker-pool")
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Counters returns the outcome counters shared by the pool's workers.
func (p *Pool) Counters() *Counters { return p.counters }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx (or the pool timeout) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			w.stop()
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
