// Package uart forwards received messages to a serial port, one hex line per message.
package uart

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"zeusrx/pkg/message"
	"zeusrx/pkg/receiver"
)

var ErrClosed = errors.New("serial port is closed")

const lineEnd = "\r\n"

// Writer writes messages to a serial port.
type Writer struct {
	mu   sync.Mutex
	port io.WriteCloser
}

// Open opens the serial port path with baudrate 8N1.
func Open(path string, baudrate int) (*Writer, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %q: %w", path, err)
	}

	return New(port), nil
}

// New returns a writer on an already opened port.
func New(port io.WriteCloser) *Writer {
	return &Writer{port: port}
}

// WriteMessage writes m as upper case hex line terminated by CR LF.
func (w *Writer) WriteMessage(m receiver.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.port == nil {
		return ErrClosed
	}

	_, err := io.WriteString(w.port, message.Hex(m)+lineEnd)
	return err
}

// Close closes the port, further writes return ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.port == nil {
		return nil
	}

	err := w.port.Close()
	w.port = nil
	return err
}
