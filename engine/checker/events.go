package checker

import (
	"context"
	"time"

	"github.com/WessleyAI/vincheck/engine/domain"
)

// LookupEvent summarizes a finished cycle for observers outside the process.
type LookupEvent struct {
	Cycle      uint64                 `json:"cycle"`
	VIN        domain.VIN             `json:"vin,omitempty"`
	Outcome    Phase                  `json:"outcome"`
	ErrorKind  ErrorKind              `json:"error_kind"`
	Vehicle    *domain.VehicleSummary `json:"vehicle,omitempty"`
	Recalls    int                    `json:"recalls"`
	Complaints int                    `json:"complaints"`
	DurationMS int64                  `json:"duration_ms"`
	At         time.Time              `json:"at"`
}

func newEvent(s Snapshot, took time.Duration) LookupEvent {
	ev := LookupEvent{
		Cycle:      s.Cycle,
		VIN:        s.VIN,
		Outcome:    s.Phase,
		Vehicle:    s.Vehicle,
		Recalls:    len(s.Recalls),
		Complaints: len(s.Complaints),
		DurationMS: took.Milliseconds(),
		At:         time.Now().UTC(),
	}
	if s.Failure != nil {
		ev.ErrorKind = s.Failure.Kind
	}
	return ev
}

// EventSink receives one LookupEvent per finished cycle. Errors are logged
// and never change the cycle's outcome.
type EventSink interface {
	Send(ctx context.Context, ev LookupEvent) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev LookupEvent) error

func (f SinkFunc) Send(ctx context.Context, ev LookupEvent) error { return f(ctx, ev) }
