package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

const defaultDrainTimeout = 10 * time.Second

// MemoryQueue runs jobs on in-process worker goroutines.
type MemoryQueue struct {
	jobs         chan Job
	mu           sync.RWMutex
	closed       bool
	handler      Handler
	workers      int
	drainTimeout time.Duration
	logger       *log.Logger
}

type MemoryQueueOption func(*MemoryQueue)

// WithDrainTimeout bounds how long Run keeps delivering buffered jobs after
// its context is cancelled.
func WithDrainTimeout(d time.Duration) MemoryQueueOption {
	return func(q *MemoryQueue) {
		if d > 0 {
			q.drainTimeout = d
		}
	}
}

func NewMemoryQueue(handler Handler, workers, buffer int, logger *log.Logger, opts ...MemoryQueueOption) *MemoryQueue {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if logger == nil {
		logger = log.Default()
	}
	q := &MemoryQueue{
		jobs:         make(chan Job, buffer),
		handler:      handler,
		workers:      workers,
		drainTimeout: defaultDrainTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue hands job to the workers without waiting. A full buffer returns
// ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes jobs until ctx is cancelled. It then stops accepting jobs and
// keeps delivering the buffer for up to the drain timeout; whatever is left
// after that is logged and discarded.
func (q *MemoryQueue) Run(ctx context.Context) error {
	workCtx, stopWork := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWork()

	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-q.jobs:
					q.handle(workCtx, job)
				case <-ctx.Done():
					q.drain(workCtx)
					return
				}
			}
		}()
	}

	<-ctx.Done()
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	deadline := time.AfterFunc(q.drainTimeout, stopWork)
	defer deadline.Stop()
	wg.Wait()

	q.drain(workCtx)
	return nil
}

// drain empties the buffer.
func (q *MemoryQueue) drain(workCtx context.Context) {
	for {
		select {
		case job := <-q.jobs:
			q.handle(workCtx, job)
		default:
			return
		}
	}
}

// handle delivers job while workCtx is live and discards it after the drain
// deadline.
func (q *MemoryQueue) handle(workCtx context.Context, job Job) {
	if workCtx.Err() != nil {
		q.logger.Printf("notify job discarded on shutdown booking_id=%s tx_ref=%s", job.BookingID, job.TxRef)
		return
	}
	if err := q.handler.Handle(workCtx, job); err != nil {
		q.logger.Printf("notify job failed booking_id=%s err=%v", job.BookingID, err)
	}
}
