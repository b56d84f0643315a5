// Package sim provides the concurrent engine of the two-stage service network
// simulator.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - request.go: Request lifecycle (created → regular done → final done) and the two classes
//   - queue.go: StageQueue, the unbounded blocking FIFO in front of each stage
//   - stage.go: WorkerPool, the per-stage workers that drain a StageQueue
//   - simulator.go: wiring, the drain chain, and the join of every task
//
// # Lifecycle
//
// A run context fires once Config.Duration has elapsed. Generators stop at
// that signal. When the last generator returns, the Regular queue is closed;
// Regular workers keep processing until they find it empty, and when the last
// of them stops the AdditionalService queue is closed and drained the same way.
// Every request admitted before the signal is therefore processed by each stage
// its class requires.
//
// # Extension points
//   - Observer: receives generated/processed/forwarded events (loggers, metrics)
//   - Clock: timestamps requests
//   - Config.Seed: keys the PartitionedRNG; every goroutine owns its own *rand.Rand
//
// The queues are unbounded and generation is never throttled, so a pool far
// slower than the arrival rate grows its queue for the whole run.
// StageQueue.PeakLen exposes how far it grew.
package sim
