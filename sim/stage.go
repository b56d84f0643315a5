package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// WorkerPool is a fixed-size set of workers consuming one StageQueue.
// The same type serves both stages; the Regular pool additionally forwards
// AdditionalService-class requests to the next queue.
type WorkerPool struct {
	stage      Stage
	size       int
	processing DurationRange

	queue     *StageQueue
	next      *StageQueue // nil for the last stage
	processed *RequestLog
	clock     Clock
	rngs      []*rand.Rand // one per worker
	observers observerSet

	// hold simulates the busy time spent on one request.
	hold func(d time.Duration)
}

func newWorkerPool(stage Stage, size int, processing DurationRange, queue, next *StageQueue,
	processed *RequestLog, clock Clock, rngs *PartitionedRNG, observers observerSet) *WorkerPool {
	p := &WorkerPool{
		stage:      stage,
		size:       size,
		processing: processing,
		queue:      queue,
		next:       next,
		processed:  processed,
		clock:      clock,
		rngs:       make([]*rand.Rand, size),
		observers:  observers,
		hold:       time.Sleep,
	}
	for i := range p.rngs {
		p.rngs[i] = rngs.ForSubsystem(SubsystemWorker(stage, i))
	}
	return p
}

// Stage returns the stage this pool serves.
func (p *WorkerPool) Stage() Stage {
	return p.stage
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.size
}

// Run starts every worker and returns once all of them have stopped. A worker
// stops only after the queue has been closed and it finds the queue empty.
// The first error any worker reports is returned after the whole pool joins.
func (p *WorkerPool) Run() error {
	var g errgroup.Group
	for i := 0; i < p.size; i++ {
		id := i
		g.Go(func() error { return p.work(id) })
	}
	return g.Wait()
}

// work is one worker's loop. A failure while handling a request is recorded
// and the worker keeps draining, so the rest of the queue is still processed.
func (p *WorkerPool) work(id int) error {
	var firstErr error
	failures := 0
	for {
		req, ok := p.queue.Dequeue()
		if !ok {
			break
		}
		if err := guard(fmt.Sprintf("%s worker %d", p.stage, id), func() error {
			p.process(id, req)
			return nil
		})(); err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	logrus.Debugf("%s worker %d stopped: queue drained", p.stage, id)
	if failures > 1 {
		return fmt.Errorf("%w (and %d more failures)", firstErr, failures-1)
	}
	return firstErr
}

// process holds req for a sampled processing time, stamps its completion,
// records it, and forwards it when it needs the next stage. Observers run
// last, so a failing observer cannot lose the request.
func (p *WorkerPool) process(id int, req *Request) {
	p.hold(p.processing.Sample(p.rngs[id]))

	now := p.clock.Now()
	if now.Before(req.CreatedAt) {
		now = req.CreatedAt
	}
	if now.Before(req.RegularCompletedAt) {
		now = req.RegularCompletedAt
	}
	req.markCompleted(p.stage, now)
	snapshot := *req
	p.processed.Append(snapshot)

	forward := p.next != nil && req.Class == ClassAdditionalService
	forwardDepth := 0
	if forward {
		forwardDepth = p.next.Enqueue(req)
	}

	p.observers.notify(Event{
		Kind:       EventProcessed,
		Stage:      p.stage,
		Request:    snapshot,
		At:         now,
		WorkerID:   id,
		QueueDepth: p.queue.Len(),
	})
	if forward {
		p.observers.notify(Event{
			Kind:       EventForwarded,
			Stage:      p.next.Stage(),
			Request:    snapshot,
			At:         now,
			WorkerID:   id,
			QueueDepth: forwardDepth,
		})
	}
}
