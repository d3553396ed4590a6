package scpi

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TimedReadWriteCloser interface for ports that support timeout operations
type TimedReadWriteCloser interface {
	io.ReadWriteCloser
	SetReadTimeout(timeout time.Duration) error
	SetWriteTimeout(timeout time.Duration) error
}

// SerialTransporter handles SCPI communication over a serial port, for
// instruments addressed through ASRL resources. The port is typically
// opened with github.com/hootrhino/goserial.
type SerialTransporter struct {
	port        io.ReadWriteCloser
	timeout     time.Duration
	isTimedPort bool // Whether port supports timeout operations
	address     string
	mu          sync.RWMutex
	closed      bool
}

// NewSerialTransporter creates a SerialTransporter over an already-open
// serial port. The address is kept only for reporting.
func NewSerialTransporter(port io.ReadWriteCloser, address string, timeout time.Duration) *SerialTransporter {
	_, isTimedPort := port.(TimedReadWriteCloser)

	t := &SerialTransporter{
		port:        port,
		timeout:     timeout,
		isTimedPort: isTimedPort,
		address:     address,
	}
	t.applyTimeout()
	return t
}

// SetTimeout updates the communication timeout
func (t *SerialTransporter) SetTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	t.applyTimeout()
}

// applyTimeout pushes the timeout down to the port when it supports it.
// Ports opened with a Timeout in their serial.Config already enforce one.
func (t *SerialTransporter) applyTimeout() {
	if timed, ok := t.port.(TimedReadWriteCloser); ok {
		timed.SetReadTimeout(t.timeout)
		timed.SetWriteTimeout(t.timeout)
	}
}

// Write writes bytes to the serial port.
func (t *SerialTransporter) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	if len(data) == 0 {
		return 0, fmt.Errorf("no data to write")
	}

	written := 0
	for written < len(data) {
		n, err := t.port.Write(data[written:])
		if err != nil {
			return written, fmt.Errorf("serial write failed after %d bytes: %w", written, err)
		}
		written += n
	}
	return written, nil
}

// Read reads available bytes from the serial port into p.
func (t *SerialTransporter) Read(p []byte) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, ErrClosed
	}

	return t.port.Read(p)
}

// Close closes the serial port and marks the transporter as closed.
func (t *SerialTransporter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil // Already closed
	}
	t.closed = true

	if t.port != nil {
		return t.port.Close()
	}
	return nil
}

// IsClosed returns whether the transporter is closed
func (t *SerialTransporter) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// RemoteAddr returns the serial port address.
func (t *SerialTransporter) RemoteAddr() string {
	return t.address
}
