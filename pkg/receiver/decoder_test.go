package receiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBit(t *testing.T) {
	tests := []struct {
		left, right Pulse
		bit         byte
		ok          bool
	}{
		{left: 400, right: 800, bit: 1, ok: true},
		{left: 800, right: 400, bit: 0, ok: true},
		{left: 500, right: 500, bit: 0, ok: true},
		{left: 200, right: 1000, bit: 1, ok: true},
		{left: 0, right: 800},
		{left: 400, right: 0},
		{left: 199, right: 800},
		{left: 400, right: 1001},
		{left: 5000, right: 400},
	}

	for _, tt := range tests {
		bit, ok := DecodeBit(&Zeus, tt.left, tt.right)
		assert.Equal(t, tt.ok, ok, "left %d right %d", tt.left, tt.right)
		assert.Equal(t, tt.bit, bit, "left %d right %d", tt.left, tt.right)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	msgs := []Message{
		{},
		Mask(&Zeus, Message{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}),
		msgA,
		msgB,
	}

	for _, m := range msgs {
		pulses := Synthesize(&Zeus, false, m)
		require.Len(t, pulses, Zeus.FrameStep())

		got, ok := DecodeFrame(&Zeus, pulses[Zeus.PreambleLen():Zeus.FrameLen()])
		require.True(t, ok)
		assert.Equal(t, m, got)
	}
}

func TestDecodeIgnoresBitsBeyondPayload(t *testing.T) {
	m := Message{0x80, 0, 0, 0, 0, 0, 0, 0, 0xFF}
	pulses := Synthesize(&Zeus, false, m)

	got, ok := DecodeFrame(&Zeus, pulses[Zeus.PreambleLen():Zeus.FrameLen()])
	require.True(t, ok)
	assert.Equal(t, Message{0x80, 0, 0, 0, 0, 0, 0, 0, 0x80}, got)
}

func TestDecode(t *testing.T) {
	var got []Message
	collect := func(m Message) { got = append(got, m) }

	t.Run("one frame", func(t *testing.T) {
		got = nil
		pulses := Synthesize(&Zeus, false, msgA)[:Zeus.FrameLen()]

		r := Decode(&Zeus, nil, pulses, collect)
		assert.Equal(t, []Message{msgA}, got)
		assert.Equal(t, DecodeResult{Frames: 1, Messages: 1}, r)
	})

	t.Run("two frames in order", func(t *testing.T) {
		got = nil
		r := Decode(&Zeus, nil, Synthesize(&Zeus, false, msgA, msgB), collect)
		assert.Equal(t, []Message{msgA, msgB}, got)
		assert.Equal(t, 2, r.Messages)
	})

	t.Run("incomplete frame", func(t *testing.T) {
		got = nil
		pulses := Synthesize(&Zeus, false, msgA)[:Zeus.FrameLen()-1]

		r := Decode(&Zeus, nil, pulses, collect)
		assert.Empty(t, got)
		assert.Zero(t, r.Frames)
	})

	t.Run("zero pulse corrupts one frame only", func(t *testing.T) {
		got = nil
		pulses := Synthesize(&Zeus, false, msgA, msgB, msgA)
		pulses[Zeus.PreambleLen()+10] = 0

		r := Decode(&Zeus, nil, pulses, collect)
		assert.Equal(t, []Message{msgB, msgA}, got)
		assert.Equal(t, DecodeResult{Frames: 3, Corrupt: 1, Messages: 2}, r)
	})

	t.Run("pulse above range", func(t *testing.T) {
		got = nil
		pulses := Synthesize(&Zeus, false, msgA, msgB)
		pulses[Zeus.FrameStep()+Zeus.FrameLen()-1] = 1001

		r := Decode(&Zeus, nil, pulses, collect)
		assert.Equal(t, []Message{msgA}, got)
		assert.Equal(t, 1, r.Corrupt)
	})

	t.Run("empty buffer", func(t *testing.T) {
		got = nil
		r := Decode(&Zeus, nil, nil, collect)
		assert.Empty(t, got)
		assert.Equal(t, DecodeResult{}, r)
	})
}

func TestDecodePreambleCheck(t *testing.T) {
	pulses := Synthesize(&Zeus, false, msgA, msgB)
	pulses[Zeus.FrameStep()+3] = 900

	var got []Message
	r := Decode(&Zeus, SyncPreamble, pulses, func(m Message) { got = append(got, m) })
	assert.Equal(t, []Message{msgA}, got)
	assert.Equal(t, 1, r.Frames)

	got = nil
	Decode(&Zeus, AcceptPreamble, pulses, func(m Message) { got = append(got, m) })
	assert.Equal(t, []Message{msgA, msgB}, got)
}

func TestDecodeParity(t *testing.T) {
	// msgB has 13 one bits
	even := Zeus
	even.Parity = ParityEven
	odd := Zeus
	odd.Parity = ParityOdd

	payload := Synthesize(&Zeus, false, msgB)[Zeus.PreambleLen():Zeus.FrameLen()]

	_, ok := DecodeFrame(&Zeus, payload)
	assert.True(t, ok)
	_, ok = DecodeFrame(&odd, payload)
	assert.True(t, ok)
	_, ok = DecodeFrame(&even, payload)
	assert.False(t, ok)
}

func TestParseParity(t *testing.T) {
	for s, want := range map[string]ParityType{"": ParityNone, "none": ParityNone, "even": ParityEven, "odd": ParityOdd} {
		got, err := ParseParity(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseParity("mark")
	assert.ErrorIs(t, err, ErrInvalidProtocol)
}

func TestProtocolValidate(t *testing.T) {
	require.NoError(t, Zeus.Validate())
	assert.Equal(t, 25, Zeus.PreambleLen())
	assert.Equal(t, 155, Zeus.FrameLen())
	assert.Equal(t, 156, Zeus.FrameStep())

	tests := map[string]func(p *Protocol){
		"no sync":           func(p *Protocol) { p.SyncCount = 0 },
		"too many bits":     func(p *Protocol) { p.PayloadBits = MessageBytes*8 + 1 },
		"short payload":     func(p *Protocol) { p.PayloadLen = 100 },
		"empty window":      func(p *Protocol) { p.Sync = Window{Min: 600, Max: 350} },
		"gap below sync":    func(p *Protocol) { p.GapMin = 20000 },
		"glitch above data": func(p *Protocol) { p.GlitchMax = 300 },
		"frame too long":    func(p *Protocol) { p.PayloadLen = SampleCapacity },
		"calibration sync":  func(p *Protocol) { p.Calibration = Window{Min: 550, Max: 1350} },
		"calibration equal": func(p *Protocol) { p.Calibration = p.Sync },
	}

	for name, mod := range tests {
		p := Zeus
		mod(&p)
		assert.ErrorIs(t, p.Validate(), ErrInvalidProtocol, name)
	}
}
