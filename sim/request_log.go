package sim

import "sync"

// RequestLog is an append-only record of request snapshots, used for
// end-of-run reporting. Safe for concurrent Append from many goroutines.
// Insertion order follows the order in which appenders won the lock and
// carries no meaning.
type RequestLog struct {
	mu      sync.Mutex
	records []Request
}

// Append stores a copy of r.
func (l *RequestLog) Append(r Request) {
	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()
}

// Len returns the number of stored records.
func (l *RequestLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Snapshot returns a copy of the stored records. Callers may modify the
// returned slice freely.
func (l *RequestLog) Snapshot() []Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Request, len(l.records))
	copy(out, l.records)
	return out
}
