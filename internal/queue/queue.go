// Package queue serializes requests from many connections onto a single
// processing goroutine. The goroutine running Queue.Run is the only one that
// touches the processor, so the processor and the store behind it need no locks.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eternalApril/starlight/internal/metrics"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by Submit once the queue stopped accepting requests
	ErrClosed = errors.New("request queue is closed")
	// ErrTimeout is returned by Future.Wait when the caller gave up waiting
	ErrTimeout = errors.New("request timed out")
	// ErrRunning is returned by a second concurrent call to Run
	ErrRunning = errors.New("request queue is already running")
)

// ShutdownReply completes requests that were still queued when the loop stopped
const ShutdownReply = "ERROR server shutting down"

// Processor turns one request line into one response line
type Processor interface {
	Process(request string) string
}

// Sweeper is implemented by processors that can reclaim expired keys in bulk.
// Run calls it between requests when Options.SweepInterval is set
type Sweeper interface {
	Sweep() int
}

// Options configures a Queue
type Options struct {
	Capacity      int           // buffered requests before Submit waits
	SweepInterval time.Duration // 0 disables periodic sweeps
}

type task struct {
	request  string
	future   *Future
	enqueued time.Time
}

// Queue is a FIFO of requests with many producers and one consumer
type Queue struct {
	tasks   chan *task
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Collector

	mu        sync.RWMutex // held for reading while sending to tasks
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
}

// New creates a Queue. collector may be nil
func New(opts Options, logger *zap.Logger, collector *metrics.Collector) *Queue {
	if opts.Capacity < 0 {
		opts.Capacity = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Queue{
		tasks:   make(chan *task, opts.Capacity),
		opts:    opts,
		logger:  logger,
		metrics: collector,
		done:    make(chan struct{}),
	}
}

// Submit enqueues request and returns its future.
// It only waits, bounded by ctx, when the buffer is full
func (q *Queue) Submit(ctx context.Context, request string) (*Future, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrClosed
	}

	t := &task{
		request:  request,
		future:   newFuture(),
		enqueued: time.Now(),
	}

	select {
	case q.tasks <- t:
		q.metrics.QueueDepth(len(q.tasks))
		return t.future, nil
	case <-q.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of requests waiting to be processed
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Close stops accepting requests and makes Run return.
// Requests still queued are completed with ShutdownReply
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)

		// wait for in-flight Submit calls, none can send after this
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
	})
}

// Run processes requests one at a time, in arrival order, until ctx ends or Close is called
func (q *Queue) Run(ctx context.Context, p Processor) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer q.running.Store(false)

	var tick <-chan time.Time
	sweeper, canSweep := p.(Sweeper)
	if canSweep && q.opts.SweepInterval > 0 {
		ticker := time.NewTicker(q.opts.SweepInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	q.logger.Info("request processing started",
		zap.Int("capacity", q.opts.Capacity),
		zap.Duration("sweep_interval", q.opts.SweepInterval),
	)

	for {
		// a stop signal wins over queued work
		select {
		case <-ctx.Done():
			q.shutdown()
			return nil
		case <-q.done:
			q.shutdown()
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			q.shutdown()
			return nil

		case <-q.done:
			q.shutdown()
			return nil

		case t := <-q.tasks:
			q.process(p, t)

		case <-tick:
			n := sweeper.Sweep()
			q.metrics.KeysSwept(n)
		}
	}
}

func (q *Queue) process(p Processor, t *task) {
	t.future.complete(q.safeProcess(p, t.request))
	q.metrics.RequestCompleted(time.Since(t.enqueued))
	q.metrics.QueueDepth(len(q.tasks))
}

// safeProcess keeps the loop alive if the processor panics
func (q *Queue) safeProcess(p Processor, request string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("request processing panicked",
				zap.String("request", request),
				zap.Any("panic", r),
			)
			result = fmt.Sprintf("ERROR internal error: %v", r)
		}
	}()
	return p.Process(request)
}

// shutdown closes the queue and completes everything left in it
func (q *Queue) shutdown() {
	q.Close()

	drained := 0
	for {
		select {
		case t := <-q.tasks:
			t.future.complete(ShutdownReply)
			drained++
		default:
			q.metrics.QueueDepth(0)
			q.logger.Info("request processing stopped", zap.Int("drained", drained))
			return
		}
	}
}
