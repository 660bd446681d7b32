package app

import (
	"context"
	"errors"
	"math/bits"
	"time"

	"github.com/womat/debug"

	"zeusrx/pkg/raspberry"
	"zeusrx/pkg/receiver"
)

// retryDelay is the wait after a failed capture.
const retryDelay = time.Second

// runReceiver captures transmissions until ctx is done and hands the decoded messages
// to handleMessage. It's designed to run in a separate go function.
func (app *App) runReceiver(ctx context.Context) {
	proto := app.receiver.Protocol()
	msgs := make([]receiver.Message, 0, receiver.SampleCapacity/proto.FrameStep())

	debug.InfoLog.Printf("receiver started, protocol %s on gpio %d (%s)", proto.Name, app.config.Gpio, app.config.Backend)
	defer debug.InfoLog.Print("receiver stopped")

	for {
		var err error
		if msgs, err = app.receiver.Capture(ctx, msgs[:0]); err != nil {
			if ctx.Err() != nil {
				return
			}

			debug.ErrorLog.Printf("capture: %v", err)
			if !sleep(ctx, retryDelay) {
				return
			}
			continue
		}

		now := time.Now()
		for _, m := range msgs {
			app.handleMessage(ctx, &proto, m, now)
		}
	}
}

// runEmulator transmits a test message on the emulated line every interval.
//  The messages count up, every transmission carries three copies and every second
//  one starts with a calibration pulse.
func (app *App) runEmulator(ctx context.Context, interval time.Duration) {
	e, ok := app.line.(*raspberry.Emulator)
	if !ok {
		debug.ErrorLog.Printf("emulation needs the %s backend", raspberry.Emulated)
		return
	}

	proto := app.receiver.Protocol()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m := testMessage(&proto, n)
		debug.DebugLog.Printf("emulate transmission %d", n)
		if err := e.Transmit(ctx, &proto, n%2 == 1, m, m, m); err != nil && !errors.Is(err, context.Canceled) {
			debug.ErrorLog.Printf("emulate transmission: %v", err)
		}
	}
}

// testMessage returns a message with n in the bytes 4 to 7.
//  The last transmitted bit is set to match the parity policy of p.
func testMessage(p *receiver.Protocol, n int) receiver.Message {
	m := receiver.Message{0x5A, 0x5A, 0x00, 0x01}
	m[4], m[5], m[6], m[7] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	m = receiver.Mask(p, m)

	last := p.PayloadBits - 1
	m[last/8] &^= 0x80 >> (last % 8)

	ones := 0
	for _, b := range m {
		ones += bits.OnesCount8(b)
	}
	if (p.Parity == receiver.ParityEven && ones%2 == 1) || (p.Parity == receiver.ParityOdd && ones%2 == 0) {
		m[last/8] |= 0x80 >> (last % 8)
	}

	return m
}

// sleep waits for d and returns false if ctx is done before.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
