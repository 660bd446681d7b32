package receiver

const (
	// waitLongSync is the detector state before the first pulse.
	waitLongSync detectorState = iota
	// waitCalibration expects the optional calibration pulse or the first sync pulse.
	waitCalibration
	// waitSync counts the remaining sync pulses.
	waitSync
	// locked means the preamble is complete.
	locked
)

// detectorState represents the state of the preamble detection.
type detectorState int

// Verdict is the result of feeding a pulse to the PreambleDetector.
type Verdict int

const (
	// Pending means the pulse belongs to the preamble, more pulses are needed.
	Pending Verdict = iota
	// Rejected means the pulse can't be part of the preamble. The detector is reset.
	Rejected
	// Locked means the preamble is complete; payload pulses follow.
	Locked
)

func (v Verdict) String() string {
	switch v {
	case Pending:
		return "pending"
	case Rejected:
		return "rejected"
	case Locked:
		return "locked"
	}
	return "unknown"
}

// PreambleDetector recognizes the preamble of a transmission pulse by pulse.
//  The preamble starts with one long sync pulse, optionally followed by a calibration pulse
//  (door contacts send one), followed by SyncCount short sync pulses.
type PreambleDetector struct {
	proto *Protocol

	state detectorState
	// remaining is the number of sync pulses still expected.
	remaining int
	// consumed is the number of pulses fed since the last reset.
	consumed int
	// calibrated is set if a calibration pulse was consumed.
	calibrated bool
}

// NewPreambleDetector returns a detector for the protocol p.
func NewPreambleDetector(p *Protocol) *PreambleDetector {
	d := &PreambleDetector{proto: p}
	d.Reset()
	return d
}

// Reset restarts the detection.
func (d *PreambleDetector) Reset() {
	d.state = waitLongSync
	d.remaining = d.proto.SyncCount
	d.consumed = 0
	d.calibrated = false
}

// Feed classifies the next pulse.
func (d *PreambleDetector) Feed(p Pulse) Verdict {
	switch d.state {
	case waitLongSync:
		if !d.proto.LongSync.Contains(p) {
			return d.reject()
		}
		d.consumed++
		d.state = waitCalibration
		return Pending

	case waitCalibration:
		if d.proto.Calibration.Contains(p) {
			d.consumed++
			d.calibrated = true
			d.state = waitSync
			return Pending
		}
		// no calibration pulse, this is the first sync pulse
		d.state = waitSync
		return d.sync(p)

	case waitSync:
		return d.sync(p)
	}

	return Locked
}

func (d *PreambleDetector) sync(p Pulse) Verdict {
	if !d.proto.Sync.Contains(p) {
		return d.reject()
	}

	d.consumed++
	d.remaining--
	if d.remaining > 0 {
		return Pending
	}

	d.state = locked
	return Locked
}

func (d *PreambleDetector) reject() Verdict {
	d.Reset()
	return Rejected
}

// Locked reports whether a complete preamble was detected.
func (d *PreambleDetector) Locked() bool {
	return d.state == locked
}

// Calibrated reports whether the preamble contained a calibration pulse.
func (d *PreambleDetector) Calibrated() bool {
	return d.calibrated
}

// Offset is the number of pulses consumed so far; once locked, the offset of the first payload pulse.
func (d *PreambleDetector) Offset() int {
	return d.consumed
}

// DetectPreamble checks whether pulses starts with a preamble of protocol p.
// It returns the offset of the first payload pulse.
func DetectPreamble(p *Protocol, pulses []Pulse) (offset int, ok bool) {
	d := NewPreambleDetector(p)
	for _, pulse := range pulses {
		switch d.Feed(pulse) {
		case Rejected:
			return 0, false
		case Locked:
			return d.Offset(), true
		}
	}
	return 0, false
}
