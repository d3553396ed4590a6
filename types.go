// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package scpi

import (
	"io"
	"time"
)

// SessionApi defines the interface for message-based SCPI session operations.
type SessionApi interface {
	SetLogger(io.Writer) // SetLogger sets the logger for the session
	RemoteAddr() string  // RemoteAddr returns the remote address of the transport
	Close() error        // Close releases the transport; idempotent
	IsClosed() bool      // IsClosed reports whether the session has been closed
	// Message operations
	Write(message string) (int, error)                                  // Write sends a terminated message
	WriteWith(message, termination string, encoding Encoding) (int, error) // WriteWith sends with per-call overrides
	Command(message string) (int, error)                                // Command is Write for no-response messages
	Read() (string, error)                                              // Read receives one terminated message
	ReadWith(termination string, encoding Encoding) (string, error)     // ReadWith receives with per-call overrides
	Query(message string) (string, error)                               // Query is Write followed by Read
	QueryWith(message string, delay time.Duration) (string, error)      // QueryWith uses an alternative query delay
	// Binary block operations
	ReadBinaryValues(opts BinaryOptions) ([]float64, error)                                          // ReadBinaryValues decodes one binary block
	QueryBinaryValues(message string, opts BinaryOptions) ([]float64, error)                         // QueryBinaryValues is Write then ReadBinaryValues
	QueryBinaryValuesWith(message string, opts BinaryOptions, delay time.Duration) ([]float64, error) // QueryBinaryValuesWith uses an alternative delay
	// Standard identification and status
	IDN() (string, error)      // IDN returns the identification string
	OPC() (string, error)      // OPC performs an operation-complete query
	STB() (int, error)         // STB reads the status byte
	CLS() error                // CLS clears the device status
	CheckCommunication() error // CheckCommunication probes the device identity
	// Attribute escape hatch
	GetAttribute(name Attribute) (interface{}, error)       // GetAttribute reads a transport-level attribute
	SetAttribute(name Attribute, state interface{}) error   // SetAttribute modifies a transport-level attribute
}

// Instrument is the capability every instrument model implements: a fixed
// brand and model, the resource it was opened on, an idempotent close, and
// a communication self-check run at construction time.
type Instrument interface {
	Brand() string
	Model() string
	ResourceName() string
	Close() error
	CheckCommunication() error
}
