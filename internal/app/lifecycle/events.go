// internal/app/lifecycle/events.go
package lifecycle

import (
	"context"
	"time"
)

// Operation names used in events, audit records and metrics labels.
const (
	OpCreate              = "create"
	OpClaim               = "claim"
	OpRelease             = "release"
	OpReassignVolunteer   = "reassign_volunteer"
	OpChangeStatus        = "change_status"
	OpChangeClosureReason = "change_closure_reason"
	OpGeocodeRepair       = "geocode_repair"
)

// OutcomeSuccess is the Outcome of an operation that returned no error.
// Failed operations carry their Kind as outcome.
const OutcomeSuccess = "success"

// Event describes one attempted operation.
type Event struct {
	Op        string
	InquiryID string
	ActorID   string
	Outcome   string
	Message   string
	Details   map[string]string
	At        time.Time
}

// Succeeded reports whether the operation completed.
func (e Event) Succeeded() bool { return e.Outcome == OutcomeSuccess }

// EventSink receives one Event per attempted operation. Implementations must
// not block for long; the caller waits.
type EventSink interface {
	Record(ctx context.Context, ev Event)
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Record(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, ev)
		}
	}
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Record(ctx context.Context, ev Event) { f(ctx, ev) }
