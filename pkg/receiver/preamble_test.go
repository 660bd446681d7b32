package receiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func syncPulses(n int, p Pulse) []Pulse {
	s := make([]Pulse, n)
	for i := range s {
		s[i] = p
	}
	return s
}

func TestDetectPreamble(t *testing.T) {
	long, cal := Pulse(18000), Pulse(1300)

	tests := []struct {
		name   string
		pulses []Pulse
		offset int
		ok     bool
	}{
		{name: "without calibration", pulses: append([]Pulse{long}, syncPulses(24, 450)...), offset: 25, ok: true},
		{name: "with calibration", pulses: append([]Pulse{long, cal}, syncPulses(24, 450)...), offset: 26, ok: true},
		{name: "payload follows", pulses: append(append([]Pulse{long}, syncPulses(24, 500)...), 400, 800), offset: 25, ok: true},
		{name: "window bounds", pulses: append([]Pulse{16000, 1200}, append(syncPulses(23, 350), 600)...), offset: 26, ok: true},
		{name: "short long sync", pulses: append([]Pulse{15999}, syncPulses(24, 450)...)},
		{name: "long long sync", pulses: append([]Pulse{21001}, syncPulses(24, 450)...)},
		{name: "sync too long", pulses: append(append([]Pulse{long}, syncPulses(10, 450)...), 700)},
		{name: "sync too short", pulses: append([]Pulse{long, cal}, syncPulses(24, 349)...)},
		{name: "second calibration", pulses: append([]Pulse{long, cal, cal}, syncPulses(24, 450)...)},
		{name: "incomplete", pulses: append([]Pulse{long}, syncPulses(23, 450)...)},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, ok := DetectPreamble(&Zeus, tt.pulses)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestPreambleDetectorRejectKeepsInitialState(t *testing.T) {
	d := NewPreambleDetector(&Zeus)

	for _, p := range []Pulse{0, 99, 450, 15999, 21001, 40000} {
		assert.Equal(t, Rejected, d.Feed(p), "pulse %d", p)
		assert.Zero(t, d.Offset())
		assert.False(t, d.Calibrated())
		assert.False(t, d.Locked())
	}

	// a rejection later in the preamble restarts the detection as well
	assert.Equal(t, Pending, d.Feed(18000))
	assert.Equal(t, Pending, d.Feed(1300))
	assert.Equal(t, Rejected, d.Feed(2000))
	assert.Zero(t, d.Offset())
	assert.False(t, d.Calibrated())

	assert.Equal(t, Pending, d.Feed(18000))
	assert.Equal(t, 1, d.Offset())
}

func TestPreambleDetectorCalibration(t *testing.T) {
	d := NewPreambleDetector(&Zeus)

	assert.Equal(t, Pending, d.Feed(17000))
	assert.Equal(t, Pending, d.Feed(1250))
	assert.True(t, d.Calibrated())

	for i := 0; i < Zeus.SyncCount-1; i++ {
		assert.Equal(t, Pending, d.Feed(400))
	}
	assert.Equal(t, Locked, d.Feed(400))
	assert.True(t, d.Locked())
	assert.Equal(t, 2+Zeus.SyncCount, d.Offset())

	d.Reset()
	assert.False(t, d.Locked())
	assert.False(t, d.Calibrated())
}
