// Package receiver decodes the on-off keyed transmissions of Zeus wireless security sensors.
//
// A capture session samples the edges of one input line, waits for the protocol preamble,
// collects the payload pulses of all repeats of the transmission into a fixed-size buffer and
// decodes every frame of the buffer by comparing the widths of pulse pairs.
//
// The edge handler installed on the line only latches the edge in a Signal. All timing and
// decoding runs on the goroutine calling Capture, which busy waits for edges and calls the
// configured yield function on every iteration of the wait. A session allocates nothing.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/womat/debug"

	"zeusrx/pkg/port"
)

var ErrClosed = errors.New("receiver is not open")

// Line is the input line the receiver module is connected to.
type Line interface {
	// Level returns the current logic level of the line.
	Level() bool
	// Watch installs handler as the edge handler of the line.
	// The handler is called for every level change of the line.
	Watch(handler func(port.Event)) error
	// Unwatch removes the edge handler.
	Unwatch()
}

// Clock is the monotonic time base of the edge timestamps.
type Clock interface {
	Now() time.Duration
}

// Stats are the counters of a receiver.
type Stats struct {
	Sessions            uint64 `json:"sessions"`
	RejectedPreambles   uint64 `json:"rejectedPreambles"`
	CalibratedPreambles uint64 `json:"calibratedPreambles"`
	Frames              uint64 `json:"frames"`
	CorruptFrames       uint64 `json:"corruptFrames"`
	Messages            uint64 `json:"messages"`
	Overflows           uint64 `json:"overflows"`
	Overruns            uint64 `json:"overruns"`
}

type counters struct {
	sessions, rejected, calibrated, frames, corrupt, messages, overflows atomic.Uint64
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithProtocol selects the sensor family. The default is Zeus.
func WithProtocol(p Protocol) Option {
	return func(r *Receiver) { r.proto = p }
}

// WithYield sets the function called on every iteration of a wait loop.
// The default is runtime.Gosched.
func WithYield(yield func()) Option {
	return func(r *Receiver) {
		if yield != nil {
			r.yield = yield
		}
	}
}

// WithPreambleCheck sets the check of the preamble pulses of each frame candidate.
// The default is AcceptPreamble.
func WithPreambleCheck(check PreambleCheck) Option {
	return func(r *Receiver) {
		if check != nil {
			r.check = check
		}
	}
}

// Receiver captures and decodes transmissions on one line.
type Receiver struct {
	line  Line
	clock Clock
	proto Protocol
	check PreambleCheck
	yield func()

	sig      Signal
	sampler  sampler
	detector PreambleDetector
	buf      SampleBuffer

	open  atomic.Bool
	stats counters
}

// New creates a receiver for line. The line isn't watched before Open is called.
func New(line Line, clock Clock, opts ...Option) (*Receiver, error) {
	r := &Receiver{
		line:  line,
		clock: clock,
		proto: Zeus,
		check: AcceptPreamble,
		yield: runtime.Gosched,
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.proto.Validate(); err != nil {
		return nil, err
	}

	r.sampler = sampler{sig: &r.sig, clock: clock, yield: r.yield, proto: &r.proto}
	r.detector = PreambleDetector{proto: &r.proto}
	r.detector.Reset()
	return r, nil
}

// Protocol returns the protocol the receiver decodes.
func (r *Receiver) Protocol() Protocol {
	return r.proto
}

// Open installs the edge handler on the line.
func (r *Receiver) Open() error {
	if r.open.Load() {
		return nil
	}

	r.sig.Clear()
	if err := r.line.Watch(r.sig.Notify); err != nil {
		return fmt.Errorf("can't watch line: %w", err)
	}

	r.open.Store(true)
	return nil
}

// Close removes the edge handler. A running Capture only ends with its context.
func (r *Receiver) Close() error {
	if !r.open.Swap(false) {
		return nil
	}

	r.line.Unwatch()
	return nil
}

// Capture waits for a transmission, decodes it and appends the decoded messages to out.
//  Capture blocks until a preamble is received or ctx is done; there is no timeout.
//  A transmission without a valid frame returns out unchanged and no error.
func (r *Receiver) Capture(ctx context.Context, out []Message) ([]Message, error) {
	if !r.open.Load() {
		return out, ErrClosed
	}
	r.stats.sessions.Add(1)

	if err := r.acquire(ctx); err != nil {
		return out, err
	}

	full, err := accumulate(ctx, &r.sampler, &r.buf)
	if err != nil {
		return out, err
	}
	if full {
		r.stats.overflows.Add(1)
	}

	res := Decode(&r.proto, r.check, r.buf.Pulses(), func(m Message) {
		out = append(out, m)
	})

	r.stats.frames.Add(uint64(res.Frames))
	r.stats.corrupt.Add(uint64(res.Corrupt))
	r.stats.messages.Add(uint64(res.Messages))

	debug.TraceLog.Printf("capture: %d pulses, %d frames, %d corrupt, %d messages",
		r.buf.Len(), res.Frames, res.Corrupt, res.Messages)
	return out, nil
}

// acquire waits until a complete preamble is stored in the sample buffer.
//  Every rejected pulse restarts the acquisition with an empty buffer. This is the only
//  retry point of a session and it isn't bounded.
func (r *Receiver) acquire(ctx context.Context) error {
	r.buf.Reset()
	r.detector.Reset()
	r.sig.Clear()

	// pulses are measured from a high level
	if r.line.Level() {
		r.sampler.reset(r.clock.Now())
	} else {
		evt, _, err := r.sampler.wait(ctx, false)
		if err != nil {
			return err
		}
		r.sampler.reset(evt.Timestamp)
	}

	for {
		p, ok, err := r.sampler.nextPulse(ctx, false)
		if err != nil {
			return err
		}

		if !ok {
			if r.detector.Offset() > 0 {
				debug.TraceLog.Printf("preamble interrupted by gap after %d pulses", r.detector.Offset())
				r.stats.rejected.Add(1)
			}
			r.detector.Reset()
			r.buf.Reset()
			continue
		}

		started, calibrated := r.detector.Offset() > 0, r.detector.Calibrated()

		switch r.detector.Feed(p) {
		case Rejected:
			if started {
				debug.TraceLog.Printf("preamble rejected: pulse %dµs", p)
				r.stats.rejected.Add(1)
			}
			r.buf.Reset()

			// the rejected pulse may be the long sync of the next preamble
			if r.detector.Feed(p) == Pending {
				r.buf.Append(p)
			}

		case Pending:
			// the calibration pulse is not part of the frame
			if r.detector.Calibrated() && !calibrated {
				continue
			}
			r.buf.Append(p)

		case Locked:
			r.buf.Append(p)
			if r.detector.Calibrated() {
				r.stats.calibrated.Add(1)
			}
			return nil
		}
	}
}

// Stats returns a snapshot of the receiver counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Sessions:            r.stats.sessions.Load(),
		RejectedPreambles:   r.stats.rejected.Load(),
		CalibratedPreambles: r.stats.calibrated.Load(),
		Frames:              r.stats.frames.Load(),
		CorruptFrames:       r.stats.corrupt.Load(),
		Messages:            r.stats.messages.Load(),
		Overflows:           r.stats.overflows.Load(),
		Overruns:            r.sig.Overruns(),
	}
}
