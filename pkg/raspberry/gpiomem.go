//go:build linux

package raspberry

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpio"
	"github.com/womat/debug"

	"zeusrx/pkg/port"
)

// gpiomemMu guards the mapping of the gpio memory.
var gpiomemMu sync.Mutex

// MemPin is a line of the memory mapped gpio.
//  The edges are detected by the sysfs interrupt watcher of the gpio package and
//  stamped with the process clock when the watcher reports them, so the timing is less
//  accurate than the Chardev backend.
type MemPin struct {
	gpioPin *gpio.Pin
	start   time.Time
	mapped  bool
}

// OpenGpiomem maps the gpio memory range from /dev/gpiomem and configures gpio as input.
func OpenGpiomem(n int, terminator string) (*MemPin, error) {
	gpiomemMu.Lock()
	defer gpiomemMu.Unlock()

	if err := gpio.Open(); err != nil {
		return nil, err
	}

	p := &MemPin{gpioPin: gpio.NewPin(n), start: time.Now(), mapped: true}
	p.gpioPin.Input()

	switch terminator {
	case "pullup":
		p.gpioPin.PullUp()
	case "pulldown":
		p.gpioPin.PullDown()
	case "none", "":
		p.gpioPin.PullNone()
	default:
		_ = gpio.Close()
		return nil, fmt.Errorf("%w: terminator %q", ErrInvalidParam, terminator)
	}

	debug.InfoLog.Printf("mapped gpio %v (%v)", n, terminator)
	return p, nil
}

// Level returns the current level of the pin.
func (p *MemPin) Level() bool {
	return bool(p.gpioPin.Read())
}

// Watch the pin for changes to level.
// There can only be one watcher on the pin at a time.
func (p *MemPin) Watch(handler func(port.Event)) error {
	return p.gpioPin.Watch(gpio.EdgeBoth, func(g *gpio.Pin) {
		handler(port.Event{Timestamp: p.Now(), Type: port.EdgeTo(bool(g.Read()))})
	})
}

// Unwatch removes any watch from the pin.
func (p *MemPin) Unwatch() {
	p.gpioPin.Unwatch()
}

// Now returns the time since the pin was opened.
func (p *MemPin) Now() time.Duration {
	return time.Since(p.start)
}

// Close removes the interrupt handler and unmaps GPIO memory.
func (p *MemPin) Close() error {
	gpiomemMu.Lock()
	defer gpiomemMu.Unlock()

	if !p.mapped {
		return nil
	}
	p.Unwatch()
	p.mapped = false
	return gpio.Close()
}
