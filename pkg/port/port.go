// Package port holds the definition of a physical input line event
package port

import "time"

// EventType indicates the type of change to the line active state.
//
// Note that for active low lines a low line level results in a high active
// state.
type EventType int

const (
	_ EventType = iota
	// RisingEdge indicates an inactive to active event (low to high).
	RisingEdge
	// FallingEdge indicates an active to inactive event (high to low).
	FallingEdge
)

// Event is a single edge of the input line.
type Event struct {
	// Timestamp indicates the time the event was detected.
	// Only the microsecond part is significant.
	Timestamp time.Duration
	// The type of state change event this structure represents.
	Type EventType
}

// Level returns the line level after the edge.
func (e Event) Level() bool {
	return e.Type == RisingEdge
}

// EdgeTo returns the event type of an edge that ends at the given level.
func EdgeTo(level bool) EventType {
	if level {
		return RisingEdge
	}
	return FallingEdge
}

func (t EventType) String() string {
	switch t {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	default:
		return "unknown"
	}
}
