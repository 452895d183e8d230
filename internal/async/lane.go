package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/product-extractor/internal/common"
	"github.com/joseph-ayodele/product-extractor/internal/entity"
	"github.com/joseph-ayodele/product-extractor/internal/pipeline"
)

// DocumentRunner is the single-document orchestrator the lane drives.
type DocumentRunner interface {
	ProcessDocument(ctx context.Context, path string, opts pipeline.DocumentOptions) (*entity.ProcessingSummary, error)
}

// ResultFunc observes every finished job. It runs on the lane's goroutine.
type ResultFunc func(job Job, summary *entity.ProcessingSummary, err error)

// Lane processes queued documents one at a time on a single worker, so the
// storage sink behind it only ever sees one writer.
type Lane struct {
	proc    DocumentRunner
	opts    pipeline.DocumentOptions
	logger  *slog.Logger
	timeout time.Duration
	onDone  ResultFunc

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	closed  bool
	done    chan struct{} // closed when Shutdown starts
	senders sync.WaitGroup
}

var _ Queue = (*Lane)(nil)

type Option func(*Lane)

func WithQueueSize(n int) Option {
	return func(l *Lane) {
		if n > 0 {
			l.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(l *Lane) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithResultFunc(fn ResultFunc) Option {
	return func(l *Lane) { l.onDone = fn }
}

func NewLane(proc DocumentRunner, opts pipeline.DocumentOptions, logger *slog.Logger, options ...Option) *Lane {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Lane{
		proc:    proc,
		opts:    opts,
		logger:  logger,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		done:    make(chan struct{}),
	}
	for _, o := range options {
		o(l)
	}
	l.start()
	return l
}

func (l *Lane) start() {
	l.once.Do(func() {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.logger.Info("lane worker started")
			for job := range l.ch {
				l.run(job)
			}
			l.logger.Info("lane worker stopped")
		}()
	})
}

func (l *Lane) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if job.RunID != "" {
		ctx = common.WithRunID(ctx, job.RunID)
	}

	var (
		summary *entity.ProcessingSummary
		err     error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		summary, err = l.proc.ProcessDocument(ctx, job.Path, l.opts)
	}()

	if err != nil {
		l.logger.Error("processing failed", "path", job.Path, "waited_ms", time.Since(job.SubmittedAt).Milliseconds(), "error", err)
	} else {
		l.logger.Info("processed file successfully",
			"path", job.Path,
			"products", summary.DataProcessing.ProductCount,
			"stored", !summary.DatabaseStorage.Skipped() && summary.DatabaseStorage.Outcome.Success,
		)
	}
	if l.onDone != nil {
		l.onDone(job, summary, err)
	}
}

// Enqueue blocks while the queue is full, until ctx is done or Shutdown
// starts.
func (l *Lane) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrClosed
	}
	l.senders.Add(1)
	l.mu.Unlock()
	defer l.senders.Done()

	select {
	case l.ch <- job:
		l.logger.Info("queued file for processing", "path", job.Path)
		return nil
	default:
	}
	l.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case l.ch <- job:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for
// ctx to end. Enqueue calls blocked on a full queue return ErrClosed.
func (l *Lane) Shutdown(ctx context.Context) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.done)
	l.mu.Unlock()

	// blocked senders see done and return before ch is closed
	l.senders.Wait()
	close(l.ch)

	done := make(chan struct{})
	go func() { defer close(done); l.wg.Wait() }()

	select {
	case <-ctx.Done():
		l.logger.Warn("shutdown interrupted by context")
	case <-done:
		l.logger.Info("queue drained, shutdown complete")
	}
}
