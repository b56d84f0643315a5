package sim

import "time"

// Clock stamps request timestamps. Tests substitute it to control the
// timestamps the engine records.
type Clock interface {
	Now() time.Time
}

// RealClock wraps time.Now()
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
