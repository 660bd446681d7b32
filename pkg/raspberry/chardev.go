//go:build linux

package raspberry

import (
	"sync/atomic"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"
	"golang.org/x/sys/unix"

	"zeusrx/pkg/port"
)

// ChipLine represents a single line requested from a GPIO chip.
type ChipLine struct {
	gpiodLine *gpiod.Line
	chip      *gpiod.Chip
	// handler is the installed edge handler, nil if the line isn't watched.
	handler atomic.Pointer[func(port.Event)]
}

// OpenChardev opens the GPIO character device chip and requests the line gpio as input.
//  Both edges are reported with the kernel timestamp of the edge.
func OpenChardev(chip string, gpio int, terminator string) (*ChipLine, error) {
	if chip == "" {
		chip = "gpiochip0"
	}

	c, err := gpiod.NewChip(chip)
	if err != nil {
		return nil, err
	}

	line := &ChipLine{chip: c}

	opts := []gpiod.LineReqOption{gpiod.WithEventHandler(line.handle), gpiod.WithBothEdges, gpiod.AsInput}
	switch terminator {
	case "pullup":
		opts = append(opts, gpiod.WithPullUp)
	case "pulldown":
		opts = append(opts, gpiod.WithPullDown)
	case "none", "":
	default:
		_ = c.Close()
		return nil, ErrInvalidParam
	}

	if line.gpiodLine, err = c.RequestLine(gpio, opts...); err != nil {
		_ = c.Close()
		return nil, err
	}

	debug.InfoLog.Printf("requested line %v on %v (%v)", gpio, chip, terminator)
	return line, nil
}

// handle forwards a line event to the installed edge handler.
func (l *ChipLine) handle(evt gpiod.LineEvent) {
	h := l.handler.Load()
	if h == nil {
		return
	}

	switch evt.Type {
	case gpiod.LineEventRisingEdge:
		(*h)(port.Event{Type: port.RisingEdge, Timestamp: evt.Timestamp})
	case gpiod.LineEventFallingEdge:
		(*h)(port.Event{Type: port.FallingEdge, Timestamp: evt.Timestamp})
	}
}

// Level returns the current level of the line.
func (l *ChipLine) Level() bool {
	v, err := l.gpiodLine.Value()
	if err != nil {
		debug.ErrorLog.Printf("can't read line value: %v", err)
		return false
	}
	return v == 1
}

// Watch installs the edge handler.
func (l *ChipLine) Watch(handler func(port.Event)) error {
	l.handler.Store(&handler)
	return nil
}

// Unwatch removes the edge handler.
func (l *ChipLine) Unwatch() {
	l.handler.Store(nil)
}

// Now returns the monotonic clock the kernel uses for the event timestamps.
// Kernels before 5.7 stamp uAPI v1 events with the realtime clock; they aren't supported.
func (l *ChipLine) Now() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}

// Close releases all resources held by the requested line and the chip.
//
// Note that this includes waiting for any running event handler to return.
// As a consequence the Close must not be called from the context of the event
// handler - the Close should be called from a different goroutine.
func (l *ChipLine) Close() error {
	l.Unwatch()
	if err := l.gpiodLine.Close(); err != nil {
		return err
	}
	return l.chip.Close()
}
