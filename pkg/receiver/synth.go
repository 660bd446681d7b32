package receiver

// Synthesize returns the pulses a sensor sends for msgs, one frame per message.
//  Each frame is the long sync, the sync pulses and the payload, followed by the inter-frame
//  gap pulse. With calibrated set, the calibration pulse follows the first long sync.
//  A one bit is a short pulse followed by a long one, a zero bit the reverse.
func Synthesize(p *Protocol, calibrated bool, msgs ...Message) []Pulse {
	short := p.Bit.Min + (p.Bit.Max-p.Bit.Min)/4
	long := p.Bit.Min + (p.Bit.Max-p.Bit.Min)*3/4
	sync := (p.Sync.Min + p.Sync.Max) / 2

	pulses := make([]Pulse, 0, len(msgs)*p.FrameStep()+1)
	for i, m := range msgs {
		pulses = append(pulses, (p.LongSync.Min+p.LongSync.Max)/2)
		if calibrated && i == 0 {
			pulses = append(pulses, (p.Calibration.Min+p.Calibration.Max)/2)
		}
		for n := 0; n < p.SyncCount; n++ {
			pulses = append(pulses, sync)
		}

		for bit := 0; bit < p.PayloadBits; bit++ {
			if m[bit/8]&(0x80>>(bit%8)) != 0 {
				pulses = append(pulses, short, long)
			} else {
				pulses = append(pulses, long, short)
			}
		}
		for n := 2 * p.PayloadBits; n < p.PayloadLen; n++ {
			pulses = append(pulses, short)
		}

		pulses = append(pulses, sync)
	}

	return pulses
}

// Mask clears the bits of m the protocol does not transmit.
func Mask(p *Protocol, m Message) Message {
	for bit := p.PayloadBits; bit < MessageBytes*8; bit++ {
		m[bit/8] &^= 0x80 >> (bit % 8)
	}
	return m
}
