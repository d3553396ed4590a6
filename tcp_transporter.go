package scpi

import (
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// TCPTransporter handles raw-socket SCPI communication over a net.Conn.
// Most LXI instruments expose this kind of line-oriented socket service.
type TCPTransporter struct {
	conn    net.Conn
	timeout time.Duration
	logger  *log.Logger
	mu      sync.RWMutex // Protects connection operations
	closed  bool
}

// NewTCPTransporter creates a new TCPTransporter with the given connection and timeout.
func NewTCPTransporter(conn net.Conn, timeout time.Duration, logger io.Writer) *TCPTransporter {
	var tcpLogger *log.Logger
	if logger != nil {
		tcpLogger = log.New(logger, "[TCP] ", log.LstdFlags|log.Lshortfile)
	}

	return &TCPTransporter{
		conn:    conn,
		timeout: timeout,
		logger:  tcpLogger,
		closed:  false,
	}
}

// log writes a log message if logger is configured
func (t *TCPTransporter) log(format string, v ...interface{}) {
	if t.logger != nil {
		t.logger.Printf(format, v...)
	}
}

// SetTimeout updates the per-operation I/O timeout.
func (t *TCPTransporter) SetTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
}

// setDeadline sets read/write deadline for the connection
func (t *TCPTransporter) setDeadline() error {
	if t.timeout > 0 {
		return t.conn.SetDeadline(time.Now().Add(t.timeout))
	}
	return nil
}

// clearDeadline clears the deadline on the connection
func (t *TCPTransporter) clearDeadline() {
	t.conn.SetDeadline(time.Time{})
}

// Write writes bytes to the connection, honoring the configured timeout.
func (t *TCPTransporter) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	if len(data) == 0 {
		return 0, fmt.Errorf("no data to write")
	}

	// Set deadline for write operation
	if err := t.setDeadline(); err != nil {
		return 0, fmt.Errorf("failed to set write deadline: %w", err)
	}
	defer t.clearDeadline()

	// Write all data
	written := 0
	for written < len(data) {
		n, err := t.conn.Write(data[written:])
		if err != nil {
			return written, fmt.Errorf("write failed after %d bytes: %w", written, err)
		}
		written += n
	}

	t.log("Successfully wrote %d bytes", written)
	return written, nil
}

// Read reads available bytes from the connection into p, honoring the
// configured timeout.
func (t *TCPTransporter) Read(p []byte) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, ErrClosed
	}

	// Set deadline for read operation
	if err := t.setDeadline(); err != nil {
		return 0, fmt.Errorf("failed to set read deadline: %w", err)
	}
	defer t.clearDeadline()

	n, err := t.conn.Read(p)
	if err != nil {
		return n, err
	}

	t.log("Read %d bytes", n)
	return n, nil
}

// Close closes the underlying connection and marks the transporter as closed
func (t *TCPTransporter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil // Already closed
	}

	t.closed = true
	t.log("Closing TCP transporter")

	if t.conn != nil {
		return t.conn.Close()
	}

	return nil
}

// IsClosed returns whether the transporter is closed
func (t *TCPTransporter) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// RemoteAddr returns the remote network address as a string.
func (t *TCPTransporter) RemoteAddr() string {
	if t.conn == nil {
		return ""
	}
	return t.conn.RemoteAddr().String()
}
