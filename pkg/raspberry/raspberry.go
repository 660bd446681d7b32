// Package raspberry is the watcher for gpio lines
//  It provides the input line of the receiver module: the line level, an edge handler and
//  the clock the edge timestamps are based on.
package raspberry

import (
	"errors"
	"fmt"

	"zeusrx/pkg/receiver"
)

var (
	ErrInvalidParam = errors.New("invalid parameters")
	ErrUnsupported  = errors.New("gpio backend not supported on this platform")
	ErrBusy         = errors.New("emulator is already playing")
)

const (
	// Chardev uses the gpio character device (/dev/gpiochipN) with kernel edge timestamps.
	Chardev = "chardev"
	// Gpiomem uses the memory mapped gpio registers (/dev/gpiomem).
	Gpiomem = "gpiomem"
	// Emulated replays synthesized transmissions, no hardware is used.
	Emulated = "emulator"
)

// Line is an input line with its clock.
type Line interface {
	receiver.Line
	receiver.Clock
	// Close releases the line.
	Close() error
}

// Open requests the input line gpio with the given backend.
//  terminator is one of pullup, pulldown or none.
func Open(backend, chip string, gpio int, terminator string) (Line, error) {
	if gpio < 0 {
		return nil, fmt.Errorf("%w: gpio %d", ErrInvalidParam, gpio)
	}

	switch terminator {
	case "pullup", "pulldown", "none":
	default:
		return nil, fmt.Errorf("%w: terminator %q", ErrInvalidParam, terminator)
	}

	var l Line
	var err error

	switch backend {
	case Chardev, "":
		l, err = OpenChardev(chip, gpio, terminator)
	case Gpiomem:
		l, err = OpenGpiomem(gpio, terminator)
	case Emulated:
		l = NewEmulator()
	default:
		return nil, fmt.Errorf("%w: backend %q", ErrInvalidParam, backend)
	}

	if err != nil {
		return nil, fmt.Errorf("can't open %v line %v: %w", backend, gpio, err)
	}
	return l, nil
}
