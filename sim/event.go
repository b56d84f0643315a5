// Defines the notification hook through which loggers and metrics exporters
// follow a run. The engine never depends on anything listening.

package sim

import "time"

// EventKind names what happened to a request.
type EventKind string

const (
	EventGenerated EventKind = "generated" // created and queued for the Regular stage
	EventProcessed EventKind = "processed" // finished processing at Stage
	EventForwarded EventKind = "forwarded" // handed from the Regular stage to AdditionalService
)

// Event describes one step of a request's journey.
type Event struct {
	Kind       EventKind
	Stage      Stage   // stage the event concerns (the destination stage for generated/forwarded)
	Request    Request // snapshot taken when the event fired
	At         time.Time
	WorkerID   int // -1 for generator events
	QueueDepth int // length of Stage's queue right after the event
}

// Observer receives events. OnEvent is called synchronously from the
// generator or worker goroutine that produced the event, so implementations
// must be safe for concurrent use and should return quickly.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// observerSet fans an event out to every subscribed observer.
type observerSet []Observer

func (s observerSet) notify(e Event) {
	for _, o := range s {
		o.OnEvent(e)
	}
}
