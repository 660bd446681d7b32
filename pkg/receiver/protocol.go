package receiver

import (
	"errors"
	"fmt"
	"time"
)

// Pulse is the duration between two consecutive edges in microseconds.
type Pulse uint32

// Duration converts the pulse to a time.Duration.
func (p Pulse) Duration() time.Duration {
	return time.Duration(p) * time.Microsecond
}

// Window is an inclusive range of pulse durations (µs).
type Window struct {
	Min, Max Pulse
}

// Contains reports whether p lies within the window.
func (w Window) Contains(p Pulse) bool {
	return p >= w.Min && p <= w.Max
}

// ParityType selects how the trailing parity bit of a frame is handled.
type ParityType int

const (
	// ParityNone decodes the parity bit but never checks it.
	ParityNone ParityType = iota
	// ParityEven rejects frames with an odd number of one bits.
	ParityEven
	// ParityOdd rejects frames with an even number of one bits.
	ParityOdd
)

func (p ParityType) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// ParseParity converts the config name of a parity policy.
func ParseParity(s string) (ParityType, error) {
	switch s {
	case "", "none":
		return ParityNone, nil
	case "even":
		return ParityEven, nil
	case "odd":
		return ParityOdd, nil
	}
	return ParityNone, fmt.Errorf("%w: parity %q", ErrInvalidProtocol, s)
}

const (
	// MessageBytes is the size of a decoded message.
	MessageBytes = 9
	// SampleCapacity is the number of pulses one capture session can hold.
	SampleCapacity = 800
)

// Message is one decoded frame.
type Message [MessageBytes]byte

// Protocol specifies the timing of a sensor family.
type Protocol struct {
	Name string

	// LongSync is the window of the first preamble pulse.
	LongSync Window
	// Calibration is the window of the optional pulse following the long sync.
	Calibration Window
	// Sync is the window of the short preamble pulses.
	Sync Window
	// SyncCount is the number of short preamble pulses.
	SyncCount int

	// PayloadLen is the number of payload pulses of a frame.
	PayloadLen int
	// PayloadBits is the number of decoded bits of a frame.
	PayloadBits int
	// Bit is the window of a valid data pulse.
	Bit Window

	// GlitchMax is the shortest interval accepted as a pulse.
	GlitchMax Pulse
	// GapMin is the longest interval accepted as a pulse, anything longer ends the transmission.
	GapMin Pulse

	Parity ParityType
}

// Zeus is the protocol of the Zeus wireless PIR detectors and door contacts.
var Zeus = Protocol{
	Name:        "zeus",
	LongSync:    Window{Min: 16000, Max: 21000},
	Calibration: Window{Min: 1200, Max: 1350},
	Sync:        Window{Min: 350, Max: 600},
	SyncCount:   24,
	PayloadLen:  130,
	PayloadBits: 65,
	Bit:         Window{Min: 200, Max: 1000},
	GlitchMax:   100,
	GapMin:      30000,
	Parity:      ParityNone,
}

var ErrInvalidProtocol = errors.New("invalid protocol")

// PreambleLen is the number of preamble pulses stored in front of each payload.
func (p Protocol) PreambleLen() int {
	return 1 + p.SyncCount
}

// FrameLen is the number of pulses of a frame (preamble and payload).
func (p Protocol) FrameLen() int {
	return p.PreambleLen() + p.PayloadLen
}

// FrameStep is the distance between two frames in the sample buffer.
// A single inter-frame gap pulse separates consecutive frames.
func (p Protocol) FrameStep() int {
	return p.FrameLen() + 1
}

// Validate checks that the protocol values are consistent.
func (p Protocol) Validate() error {
	switch {
	case p.SyncCount < 1:
		return fmt.Errorf("%w: sync count %d", ErrInvalidProtocol, p.SyncCount)
	case p.PayloadBits < 1 || p.PayloadBits > MessageBytes*8:
		return fmt.Errorf("%w: %d payload bits do not fit %d bytes", ErrInvalidProtocol, p.PayloadBits, MessageBytes)
	case p.PayloadLen < 2*p.PayloadBits:
		return fmt.Errorf("%w: %d payload pulses can't hold %d bits", ErrInvalidProtocol, p.PayloadLen, p.PayloadBits)
	case p.FrameLen() > SampleCapacity:
		return fmt.Errorf("%w: frame of %d pulses exceeds sample capacity", ErrInvalidProtocol, p.FrameLen())
	case p.LongSync.Min > p.LongSync.Max, p.Calibration.Min > p.Calibration.Max,
		p.Sync.Min > p.Sync.Max, p.Bit.Min > p.Bit.Max:
		return fmt.Errorf("%w: empty window", ErrInvalidProtocol)
	case p.Calibration.Min <= p.Sync.Max && p.Sync.Min <= p.Calibration.Max:
		return fmt.Errorf("%w: calibration window overlaps the sync window", ErrInvalidProtocol)
	case p.GapMin <= p.LongSync.Max:
		return fmt.Errorf("%w: gap %dµs must exceed the long sync", ErrInvalidProtocol, p.GapMin)
	case p.GlitchMax >= p.Sync.Min || p.GlitchMax >= p.Bit.Min:
		return fmt.Errorf("%w: glitch threshold %dµs overlaps valid pulses", ErrInvalidProtocol, p.GlitchMax)
	}
	return nil
}
