package sim

import "sync/atomic"

// IDGenerator hands out request identifiers. The zero value is ready to use
// and the first identifier returned is 1.
type IDGenerator struct {
	last atomic.Int64
}

// Next returns an identifier never returned before by this generator.
// Safe for concurrent use.
func (g *IDGenerator) Next() int64 {
	return g.last.Add(1)
}
