// Implements the StageQueue, the unbounded FIFO in front of each stage's worker pool.
// Generators (Regular stage) or upstream workers (AdditionalService stage) enqueue;
// the stage's workers block in Dequeue until an item arrives or the queue drains.

package sim

import (
	"fmt"
	"strings"
	"sync"
)

// StageQueue is an unbounded FIFO of requests waiting for a stage's workers.
// All methods are safe for concurrent use by multiple producers and consumers.
//
// Close marks the point after which no producer is left. Workers keep
// dequeuing until the queue is both closed and empty, which is the drain.
type StageQueue struct {
	stage Stage

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*Request // FIFO queue of requests
	closed bool
	peak   int // largest observed queue length
}

// NewStageQueue creates an empty, open queue for stage.
func NewStageQueue(stage Stage) *StageQueue {
	q := &StageQueue{stage: stage}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Stage returns the stage this queue feeds.
func (q *StageQueue) Stage() Stage {
	return q.stage
}

// Enqueue adds a request to the back of the queue and wakes one waiting worker.
// It never blocks on capacity. Returns the queue length after the insert.
func (q *StageQueue) Enqueue(r *Request) int {
	if r == nil {
		panic("Enqueue: req must not be nil")
	}
	q.mu.Lock()
	q.queue = append(q.queue, r)
	n := len(q.queue)
	if n > q.peak {
		q.peak = n
	}
	q.mu.Unlock()
	q.cond.Signal()
	return n
}

// Dequeue removes the request at the front of the queue, blocking while the
// queue is empty and still open. It returns (nil, false) once the queue has
// been closed and every remaining request has been handed out.
func (q *StageQueue) Dequeue() (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.queue) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.queue) == 0 {
		return nil, false
	}
	r := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return r, true
}

// Close triggers the drain: waiting workers wake up, and any worker that
// finds the queue empty from now on stops. Close is idempotent.
func (q *StageQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Closed reports whether Close has been called.
func (q *StageQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of requests in the queue.
func (q *StageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// PeakLen returns the largest queue length observed so far.
// The queue is unbounded, so this is the only overload signal it offers.
func (q *StageQueue) PeakLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peak
}

func (q *StageQueue) String() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var sb strings.Builder
	sb.WriteString(string(q.stage))
	sb.WriteString("[")
	for i, val := range q.queue {
		sb.WriteString(fmt.Sprint(val.ID))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
