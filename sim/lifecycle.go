package sim

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// NewRunContext derives the run's cancellation signal: it fires once duration
// has elapsed since clock.Now(), or earlier if parent is cancelled (manual abort).
// A zero duration yields a context that is already done.
func NewRunContext(parent context.Context, clock Clock, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithDeadline(parent, clock.Now().Add(duration))
}

// guard runs fn and converts a panic into an error, so a failing task is
// reported through the join instead of crashing the process.
func guard(task string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("%s panicked: %v\n%s", task, r, debug.Stack())
				err = fmt.Errorf("%s: panic: %v", task, r)
			}
		}()
		return fn()
	}
}
