// Package message turns decoded receiver messages into records which are logged,
// published and served. A record is encoded as JSON or CBOR.
package message

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"zeusrx/pkg/receiver"
)

var (
	ErrInvalidSize   = errors.New("invalid message size")
	ErrUnknownFormat = errors.New("unknown message format")
)

// Format is the wire format of an encoded record.
type Format string

const (
	JSON Format = "json"
	CBOR Format = "cbor"
)

// Record is a received message.
//  Repeats counts the identical messages which were received after the first one.
type Record struct {
	ID       uuid.UUID        `json:"id" cbor:"1,keyasint"`
	Time     time.Time        `json:"time" cbor:"2,keyasint"`
	Protocol string           `json:"protocol" cbor:"3,keyasint"`
	Message  receiver.Message `json:"-" cbor:"4,keyasint"`
	Data     string           `json:"data" cbor:"-"`
	Parity   uint8            `json:"parity" cbor:"5,keyasint"`
	Repeats  int              `json:"repeats" cbor:"6,keyasint"`
}

var cborEnc cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano

	var err error
	if cborEnc, err = opts.EncMode(); err != nil {
		panic(err)
	}
}

// New creates the record of message m received at t.
func New(p *receiver.Protocol, m receiver.Message, t time.Time) Record {
	return Record{
		ID:       uuid.New(),
		Time:     t,
		Protocol: p.Name,
		Message:  m,
		Data:     Hex(m),
		Parity:   ParityBit(p, m),
	}
}

// ParityBit returns the last transmitted bit of m, the sensor sends its parity bit there.
func ParityBit(p *receiver.Protocol, m receiver.Message) uint8 {
	bit := p.PayloadBits - 1
	return (m[bit/8] >> (7 - bit%8)) & 1
}

// Hex returns the message as upper case hex string.
func Hex(m receiver.Message) string {
	return strings.ToUpper(hex.EncodeToString(m[:]))
}

// ParseHex is the inverse of Hex.
func ParseHex(s string) (receiver.Message, error) {
	var m receiver.Message

	b, err := hex.DecodeString(s)
	if err != nil {
		return m, fmt.Errorf("message %q: %w", s, err)
	}
	if len(b) != len(m) {
		return m, fmt.Errorf("message %q: %w", s, ErrInvalidSize)
	}

	copy(m[:], b)
	return m, nil
}

// ParseFormat checks the format name of the configuration.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", JSON:
		return JSON, nil
	case CBOR:
		return CBOR, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
	}
}

// Marshal encodes the record in format f.
func Marshal(f Format, r Record) ([]byte, error) {
	switch f {
	case JSON:
		return json.Marshal(r)
	case CBOR:
		return cborEnc.Marshal(r)
	default:
		return nil, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}
}

// Unmarshal decodes a record encoded in format f.
func Unmarshal(f Format, b []byte) (Record, error) {
	var r Record

	switch f {
	case JSON:
		if err := json.Unmarshal(b, &r); err != nil {
			return r, err
		}
		m, err := ParseHex(r.Data)
		if err != nil {
			return r, err
		}
		r.Message = m
	case CBOR:
		if err := cbor.Unmarshal(b, &r); err != nil {
			return r, err
		}
		r.Data = Hex(r.Message)
	default:
		return r, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}

	return r, nil
}
