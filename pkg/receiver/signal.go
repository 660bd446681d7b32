package receiver

import (
	"sync/atomic"
	"time"

	"zeusrx/pkg/port"
)

const (
	pendingBit = uint64(1) << 63
	levelBit   = uint64(1) << 62
	stampMask  = levelBit - 1
)

// Signal is the single slot handoff between the edge handler and the sampler.
//  The flag, the new line level and the edge timestamp share one word, so the
//  sampler reads and clears all of them in the same atomic step.
type Signal struct {
	slot atomic.Uint64
	// overruns counts edges that replaced an edge not yet taken.
	overruns atomic.Uint64
}

// Notify is the edge handler. It only latches the event and raises the flag.
func (s *Signal) Notify(evt port.Event) {
	v := pendingBit | uint64(evt.Timestamp/time.Microsecond)&stampMask
	if evt.Level() {
		v |= levelBit
	}

	if old := s.slot.Swap(v); old&pendingBit != 0 {
		s.overruns.Add(1)
	}
}

// Take returns the pending edge and clears the flag.
func (s *Signal) Take() (port.Event, bool) {
	v := s.slot.Swap(0)
	if v&pendingBit == 0 {
		return port.Event{}, false
	}

	return port.Event{
		Timestamp: time.Duration(v&stampMask) * time.Microsecond,
		Type:      port.EdgeTo(v&levelBit != 0),
	}, true
}

// Pending reports whether an edge waits to be taken.
func (s *Signal) Pending() bool {
	return s.slot.Load()&pendingBit != 0
}

// Clear drops a pending edge.
func (s *Signal) Clear() {
	s.slot.Store(0)
}

// Overruns returns the number of edges lost because the sampler was too slow.
func (s *Signal) Overruns() uint64 {
	return s.overruns.Load()
}
