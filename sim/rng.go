package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
)

// === SimulationKey ===

// SimulationKey identifies the random stream of a run. Two runs with the same
// key draw the same per-task sequences; wall-clock scheduling still decides
// how many draws each task makes.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem names ===

// SubsystemGenerator returns the subsystem name for generator N.
func SubsystemGenerator(id int) string {
	return fmt.Sprintf("generator_%d", id)
}

// SubsystemWorker returns the subsystem name for worker N of stage.
func SubsystemWorker(stage Stage, id int) string {
	return fmt.Sprintf("%s_worker_%d", stage, id)
}

// === PartitionedRNG ===

// PartitionedRNG provides isolated RNG instances per subsystem, so that every
// generator and worker goroutine owns its own *rand.Rand and no random source
// is shared across goroutines.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: ForSubsystem is safe for concurrent use. Each returned
// *rand.Rand is NOT; hand it to exactly one goroutine.
type PartitionedRNG struct {
	key SimulationKey

	mu         sync.Mutex
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
