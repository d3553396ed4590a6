package scpi

import (
	"io"
	"time"
)

// Transporter defines the common interface for the communication links a
// session can run over (raw TCP socket, serial port). It is the surface the
// session delegates all byte-level I/O to.
type Transporter interface {
	io.ReadWriteCloser
	SetTimeout(timeout time.Duration)
	RemoteAddr() string
}
