package receiver

import "context"

// SampleBuffer holds the pulses of one capture session.
type SampleBuffer struct {
	pulses [SampleCapacity]Pulse
	n      int
}

// Reset empties the buffer.
func (b *SampleBuffer) Reset() {
	b.n = 0
}

// Append adds p and reports false if the buffer is full.
func (b *SampleBuffer) Append(p Pulse) bool {
	if b.n == len(b.pulses) {
		return false
	}
	b.pulses[b.n] = p
	b.n++
	return true
}

// Full reports whether the buffer reached its capacity.
func (b *SampleBuffer) Full() bool {
	return b.n == len(b.pulses)
}

// Len returns the number of stored pulses.
func (b *SampleBuffer) Len() int {
	return b.n
}

// Pulses returns the stored pulses. The slice is only valid until the next Reset.
func (b *SampleBuffer) Pulses() []Pulse {
	return b.pulses[:b.n]
}

// accumulate fills buf with the readings following a preamble until buf is full or the
// transmission ends. It reports whether the buffer overflowed.
//  A glitch reading is dropped together with the reading that follows it; the pair is the
//  short spike a glitch causes, and dropping both keeps the high/low phase of the pulses.
func accumulate(ctx context.Context, s *sampler, buf *SampleBuffer) (full bool, err error) {
	for !buf.Full() {
		p, ok, err := s.nextReading(ctx)
		if !ok {
			return false, err
		}

		if p < s.proto.GlitchMax {
			if _, ok, err = s.nextReading(ctx); !ok {
				return false, err
			}
			continue
		}

		buf.Append(p)
	}

	return true, nil
}
