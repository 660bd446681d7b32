package receiver

// PreambleCheck validates the preamble pulses of a frame candidate.
type PreambleCheck func(p *Protocol, preamble []Pulse) bool

// AcceptPreamble accepts every frame candidate. Corrupt frames are still caught by the bit decoder.
func AcceptPreamble(*Protocol, []Pulse) bool {
	return true
}

// SyncPreamble accepts a frame candidate whose preamble has the long sync and sync pulse timing.
func SyncPreamble(p *Protocol, preamble []Pulse) bool {
	if len(preamble) != p.PreambleLen() || !p.LongSync.Contains(preamble[0]) {
		return false
	}
	for _, s := range preamble[1:] {
		if !p.Sync.Contains(s) {
			return false
		}
	}
	return true
}

// DecodeBit decodes one pulse pair.
// The bit is 1 if the right pulse is longer than the left one; ok is false if a pulse is out of range.
func DecodeBit(p *Protocol, left, right Pulse) (bit byte, ok bool) {
	if !p.Bit.Contains(left) || !p.Bit.Contains(right) {
		return 0, false
	}
	if right > left {
		return 1, true
	}
	return 0, true
}

// DecodeFrame decodes the payload pulses of one frame, most significant bit first.
func DecodeFrame(p *Protocol, payload []Pulse) (m Message, ok bool) {
	if len(payload) < 2*p.PayloadBits {
		return m, false
	}

	ones := 0
	for i := 0; i < p.PayloadBits; i++ {
		bit, ok := DecodeBit(p, payload[2*i], payload[2*i+1])
		if !ok {
			return Message{}, false
		}
		if bit == 1 {
			m[i/8] |= 0x80 >> (i % 8)
			ones++
		}
	}

	switch p.Parity {
	case ParityEven:
		ok = ones%2 == 0
	case ParityOdd:
		ok = ones%2 == 1
	default:
		ok = true
	}
	if !ok {
		return Message{}, false
	}

	return m, true
}

// DecodeResult summarizes a Decode run.
type DecodeResult struct {
	// Frames is the number of frame candidates that passed the preamble check.
	Frames int
	// Corrupt is the number of frames rejected by the bit decoder.
	Corrupt int
	// Messages is the number of decoded messages.
	Messages int
}

// Decode scans pulses for frames at fixed offsets and calls fn for every decoded message in order.
//  Frames start at offset 0 and repeat every FrameStep pulses. A corrupt frame is skipped,
//  decoding continues with the next offset.
func Decode(p *Protocol, check PreambleCheck, pulses []Pulse, fn func(Message)) (r DecodeResult) {
	if check == nil {
		check = AcceptPreamble
	}

	preambleLen, frameLen := p.PreambleLen(), p.FrameLen()

	for off := 0; off+frameLen <= len(pulses); off += p.FrameStep() {
		if !check(p, pulses[off:off+preambleLen]) {
			continue
		}
		r.Frames++

		m, ok := DecodeFrame(p, pulses[off+preambleLen:off+frameLen])
		if !ok {
			r.Corrupt++
			continue
		}

		r.Messages++
		fn(m)
	}

	return r
}
