package sim

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"
)

// classDecider decides, once per tick, whether to emit a request and of which class.
type classDecider func(rng *rand.Rand) (RequestClass, bool)

// coinFlip emits on every tick, classifying AdditionalService with probability split/100.
func coinFlip(split float64) classDecider {
	return func(rng *rand.Rand) (RequestClass, bool) {
		if rng.Float64()*100 < split {
			return ClassAdditionalService, true
		}
		return ClassRegular, true
	}
}

// emitWithProbability emits class with probability pct/100 and skips the tick otherwise.
func emitWithProbability(class RequestClass, pct float64) classDecider {
	return func(rng *rand.Rand) (RequestClass, bool) {
		if rng.Float64()*100 < pct {
			return class, true
		}
		return "", false
	}
}

// requestBudget caps the number of requests generated across all generators.
// A nil budget is unlimited.
type requestBudget struct {
	remaining atomic.Int64
}

func newRequestBudget(limit int) *requestBudget {
	if limit <= 0 {
		return nil
	}
	b := &requestBudget{}
	b.remaining.Store(int64(limit))
	return b
}

func (b *requestBudget) take() bool {
	if b == nil {
		return true
	}
	return b.remaining.Add(-1) >= 0
}

// RequestGenerator emits requests into the Regular stage queue at a fixed tick.
// Each generator owns its RNG and runs in its own goroutine.
type RequestGenerator struct {
	ID int

	tick   time.Duration
	decide classDecider
	rng    *rand.Rand

	ids       *IDGenerator
	clock     Clock
	generated *RequestLog
	target    *StageQueue
	budget    *requestBudget
	observers observerSet
}

// newGenerators builds the generators for the configured topology.
func newGenerators(cfg Config, rngs *PartitionedRNG, ids *IDGenerator, clock Clock,
	generated *RequestLog, target *StageQueue, observers observerSet) []*RequestGenerator {
	var deciders []classDecider
	switch cfg.Topology {
	case TopologyPerClass:
		deciders = []classDecider{
			emitWithProbability(ClassRegular, 100-cfg.SplitPercentage),
			emitWithProbability(ClassAdditionalService, cfg.SplitPercentage),
		}
	default:
		deciders = []classDecider{coinFlip(cfg.SplitPercentage)}
	}

	budget := newRequestBudget(cfg.MaxRequests)
	gens := make([]*RequestGenerator, len(deciders))
	for i, decide := range deciders {
		gens[i] = &RequestGenerator{
			ID:        i,
			tick:      cfg.Tick,
			decide:    decide,
			rng:       rngs.ForSubsystem(SubsystemGenerator(i)),
			ids:       ids,
			clock:     clock,
			generated: generated,
			target:    target,
			budget:    budget,
			observers: observers,
		}
	}
	return gens
}

// Run evaluates one tick immediately and then once per tick interval until
// ctx is done. Requests already enqueued are left for the workers to drain.
func (g *RequestGenerator) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return nil
		}
		g.evaluateTick()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// evaluateTick draws the tick's decision and, if it says so, emits a request.
func (g *RequestGenerator) evaluateTick() {
	class, emit := g.decide(g.rng)
	if !emit || !g.budget.take() {
		return
	}
	req := &Request{
		ID:          g.ids.Next(),
		Class:       class,
		GeneratorID: g.ID,
		CreatedAt:   g.clock.Now(),
	}
	// Snapshot before the enqueue: once queued, a worker owns the request.
	snapshot := *req
	g.generated.Append(snapshot)
	depth := g.target.Enqueue(req)
	g.observers.notify(Event{
		Kind:       EventGenerated,
		Stage:      g.target.Stage(),
		Request:    snapshot,
		At:         snapshot.CreatedAt,
		WorkerID:   -1,
		QueueDepth: depth,
	})
}
