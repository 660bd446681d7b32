package raspberry

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"zeusrx/pkg/port"
	"zeusrx/pkg/receiver"
)

const spinThreshold = 2 * time.Millisecond

// Emulator is a line without hardware. It plays pulse trains in real time.
//  The edge timestamps are the exact sums of the played pulses, the pacing only
//  keeps the clock ahead of the last played edge.
type Emulator struct {
	start   time.Time
	level   atomic.Bool
	handler atomic.Pointer[func(port.Event)]
	playing atomic.Bool
}

// NewEmulator returns an idle emulated line with a high level.
func NewEmulator() *Emulator {
	e := &Emulator{start: time.Now()}
	e.level.Store(true)
	return e
}

// Level returns the current level of the line.
func (e *Emulator) Level() bool {
	return e.level.Load()
}

// Watch installs the edge handler.
func (e *Emulator) Watch(handler func(port.Event)) error {
	e.handler.Store(&handler)
	return nil
}

// Unwatch removes the edge handler.
func (e *Emulator) Unwatch() {
	e.handler.Store(nil)
}

// Now returns the time since the emulator was created.
func (e *Emulator) Now() time.Duration {
	return time.Since(e.start)
}

// Close removes the edge handler.
func (e *Emulator) Close() error {
	e.Unwatch()
	return nil
}

// Play toggles the line once at the end of every pulse.
//  Play returns when all pulses are played or ctx is done. Concurrent calls are not allowed.
func (e *Emulator) Play(ctx context.Context, pulses []receiver.Pulse) error {
	if !e.playing.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.playing.Store(false)

	t := e.Now()
	for _, p := range pulses {
		t += p.Duration()
		if err := e.waitUntil(ctx, t); err != nil {
			return err
		}

		level := !e.level.Load()
		e.level.Store(level)
		if h := e.handler.Load(); h != nil {
			(*h)(port.Event{Timestamp: t, Type: port.EdgeTo(level)})
		}
	}

	return nil
}

// waitUntil sleeps for the coarse part of the wait and spins for the rest,
// timer resolution is too low for the pulse widths.
func (e *Emulator) waitUntil(ctx context.Context, t time.Duration) error {
	if d := t - e.Now(); d > spinThreshold {
		timer := time.NewTimer(d - spinThreshold)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	for e.Now() < t {
		runtime.Gosched()
	}
	return ctx.Err()
}

// Transmit plays the transmission of msgs as a sensor of protocol p sends it.
//  An idle lead-in longer than the protocol gap comes first, its closing edge opens the
//  long sync of the first frame. The line is left at the level it had before.
func (e *Emulator) Transmit(ctx context.Context, p *receiver.Protocol, calibrated bool, msgs ...receiver.Message) error {
	frames := receiver.Synthesize(p, calibrated, msgs...)

	pulses := make([]receiver.Pulse, 0, len(frames)+2)
	pulses = append(pulses, p.GapMin+p.Sync.Min)
	pulses = append(pulses, frames...)
	if len(pulses)%2 != 0 {
		pulses = append(pulses, p.Sync.Min)
	}
	return e.Play(ctx, pulses)
}
