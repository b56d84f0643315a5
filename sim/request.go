// Defines the Request struct that models a single client request in the service network.
// Tracks creation time and the completion timestamp of each stage it passes through.

package sim

import (
	"fmt"
	"time"
)

// RequestClass is the routing category assigned to a request at creation.
type RequestClass string

const (
	// ClassRegular requests visit the Regular stage only.
	ClassRegular RequestClass = "regular"
	// ClassAdditionalService requests visit the Regular stage, then the AdditionalService stage.
	ClassAdditionalService RequestClass = "additional_service"
)

// Stage identifies one of the two sequential processing steps.
type Stage string

const (
	StageRegular           Stage = "regular"
	StageAdditionalService Stage = "additional_service"
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{StageRegular, StageAdditionalService}

// Request models one request's lifecycle in the simulation.
// A request is created by a generator, then mutated only by the worker that
// currently holds it. Logs and events carry copies, never the live pointer.
type Request struct {
	ID          int64        // Unique, strictly increasing in generation order
	Class       RequestClass // Fixed at creation, decides routing
	GeneratorID int          // Index of the generator that emitted the request

	CreatedAt          time.Time // Set by the generator
	RegularCompletedAt time.Time // Set once by the Regular worker; zero until then
	FinalCompletedAt   time.Time // Set once by the worker of the last applicable stage
}

func (req Request) String() string {
	return fmt.Sprintf("Request: (ID: %d, Class: %s, Generator: %d, Done: %v)", req.ID, req.Class, req.GeneratorID, req.Done())
}

// Done reports whether the request finished its last applicable stage.
func (req Request) Done() bool {
	return !req.FinalCompletedAt.IsZero()
}

// CompletedAt returns the completion timestamp recorded for stage, or the zero
// time if the request has not finished that stage.
func (req Request) CompletedAt(stage Stage) time.Time {
	switch stage {
	case StageRegular:
		return req.RegularCompletedAt
	case StageAdditionalService:
		if req.Class != ClassAdditionalService {
			return time.Time{}
		}
		return req.FinalCompletedAt
	}
	return time.Time{}
}

// Latency returns the time between creation and completion of stage.
// Returns 0 if the stage has not completed.
func (req Request) Latency(stage Stage) time.Duration {
	done := req.CompletedAt(stage)
	if done.IsZero() {
		return 0
	}
	return done.Sub(req.CreatedAt)
}

// markCompleted stamps the completion timestamp for stage.
// A Regular-class request finishes for good at the Regular stage.
func (req *Request) markCompleted(stage Stage, at time.Time) {
	switch stage {
	case StageRegular:
		req.RegularCompletedAt = at
		if req.Class == ClassRegular {
			req.FinalCompletedAt = at
		}
	case StageAdditionalService:
		req.FinalCompletedAt = at
	default:
		panic(fmt.Sprintf("markCompleted: unknown stage %q", stage))
	}
}
