package receiver

import (
	"context"
	"math"
	"time"

	"zeusrx/pkg/port"
)

// sampler turns the edges latched by the Signal into pulse durations.
type sampler struct {
	sig   *Signal
	clock Clock
	yield func()
	proto *Protocol

	// cursor is the timestamp of the last accepted edge.
	cursor time.Duration
}

// reset places the cursor at t.
func (s *sampler) reset(t time.Duration) {
	s.cursor = t
}

// wait blocks until the next edge is latched.
//  With armed set, the wait also ends (ok == false) once the clock passes the cursor by more
//  than the protocol gap, which is the end of a transmission. yield runs on every iteration.
func (s *sampler) wait(ctx context.Context, armed bool) (evt port.Event, ok bool, err error) {
	deadline := s.cursor + s.proto.GapMin.Duration()

	for {
		if evt, ok = s.sig.Take(); ok {
			return evt, true, nil
		}
		if err = ctx.Err(); err != nil {
			return evt, false, err
		}
		if armed && s.clock.Now() > deadline {
			return evt, false, nil
		}
		s.yield()
	}
}

// interval returns the time between the cursor and t in whole microseconds.
func (s *sampler) interval(t time.Duration) Pulse {
	d := t - s.cursor
	switch {
	case d <= 0:
		return 0
	case d/time.Microsecond > math.MaxUint32:
		return math.MaxUint32
	}
	return Pulse(d / time.Microsecond)
}

// nextPulse returns the next pulse.
//  Intervals shorter than the glitch threshold are not returned; the cursor stays where it is,
//  so the glitch becomes part of the following interval. An interval longer than the protocol
//  gap ends the transmission and is not returned either.
func (s *sampler) nextPulse(ctx context.Context, armed bool) (Pulse, bool, error) {
	for {
		evt, ok, err := s.wait(ctx, armed)
		if !ok {
			return 0, false, err
		}

		p := s.interval(evt.Timestamp)
		if p < s.proto.GlitchMax {
			continue
		}

		s.cursor = evt.Timestamp
		if p > s.proto.GapMin {
			return 0, false, nil
		}
		return p, true, nil
	}
}

// nextReading returns the raw interval to the next edge and always advances the cursor.
//  The transmission ends if the interval exceeds the protocol gap or no edge arrives in time.
func (s *sampler) nextReading(ctx context.Context) (Pulse, bool, error) {
	evt, ok, err := s.wait(ctx, true)
	if !ok {
		return 0, false, err
	}

	p := s.interval(evt.Timestamp)
	s.cursor = evt.Timestamp
	if p > s.proto.GapMin {
		return 0, false, nil
	}
	return p, true, nil
}
