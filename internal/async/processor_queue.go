package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// ErrClosed is returned by Enqueue once Shutdown has begun.
var ErrClosed = errors.New("queue is shutting down")

// SnapshotProcessor handles one queued snapshot.
type SnapshotProcessor interface {
	ProcessSnapshot(ctx context.Context, runID uuid.UUID, path string) (*entity.ShiftRecord, error)
}

// Stats counts processed jobs.
type Stats struct {
	Processed int64
	Records   int64
	Failed    int64
}

type ProcessorQueue struct {
	proc    SnapshotProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool

	processed atomic.Int64
	records   atomic.Int64
	failed    atomic.Int64
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc SnapshotProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.handle(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) handle(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	rec, err := q.proc.ProcessSnapshot(ctx, job.RunID, job.Path)
	q.processed.Add(1)
	switch {
	case err != nil:
		q.failed.Add(1)
		q.logger.Error("watch.snapshot.failed", "worker_id", workerID, "path", job.Path, "error", err)
	case rec != nil:
		q.records.Add(1)
		q.logger.Info("watch.snapshot.parsed",
			"worker_id", workerID,
			"path", job.Path,
			"month", rec.Month,
			"date", rec.DayOfMonth,
			"shift_start", rec.ShiftStart,
			"shift_end", rec.ShiftEnd,
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds(),
		)
	default:
		q.logger.Info("watch.snapshot.skipped", "worker_id", workerID, "path", job.Path)
	}
}

// Enqueue blocks while the buffer is full, until ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued snapshot", "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the counts so far.
func (q *ProcessorQueue) Stats() Stats {
	return Stats{
		Processed: q.processed.Load(),
		Records:   q.records.Load(),
		Failed:    q.failed.Load(),
	}
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete", "processed", q.processed.Load())
	}
}
