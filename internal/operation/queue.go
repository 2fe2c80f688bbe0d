package operation

import (
	"sync"

	"github.com/roach88/ledgerd/internal/model"
)

// jobQueue is a thread-safe unbounded FIFO of operations awaiting a worker.
//
// Waiters block on a size-1 signal channel. A dequeue that leaves work
// behind re-arms the signal so idle workers wake in turn. Close closes the
// channel, waking every waiter.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []model.Operation
	closed bool
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]model.Operation, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds op to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(op model.Operation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, op)
	q.notify()
	return true
}

// TryDequeue removes the front job without blocking.
func (q *jobQueue) TryDequeue() (model.Operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return model.Operation{}, false
	}
	op := q.jobs[0]
	q.jobs[0] = model.Operation{}
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
		q.notify()
	}
	return op, true
}

// notify arms the signal without blocking. Caller holds mu.
func (q *jobQueue) notify() {
	if q.closed {
		return
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Wait returns a channel that fires when jobs may be available or the
// queue has been closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Drained reports whether the queue is closed and empty.
func (q *jobQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.jobs) == 0
}

// Close stops accepting jobs and wakes all waiters. Idempotent.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
