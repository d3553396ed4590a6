package scpi

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Session is a message-based SCPI session over a Transporter. It owns the
// transporter exclusively and frames every exchange: terminators are
// appended on write, stripped on read, and binary blocks are parsed into
// numeric values.
//
// A session is a single-threaded, blocking object. Every call runs to
// completion or times out at the transport; sharing one session between
// goroutines is not supported.
type Session struct {
	transporter Transporter
	config      SessionConfig
	reader      *bufio.Reader
	logger      io.Writer
	closed      bool
}

// NewSession creates a session over an already-open transporter.
func NewSession(t Transporter, config SessionConfig) *Session {
	if config.ReadTermination == "" {
		config.ReadTermination = DefaultReadTermination
	}
	if config.WriteTermination == "" {
		config.WriteTermination = DefaultWriteTermination
	}
	if config.Encoding == "" {
		config.Encoding = DefaultEncoding
	}
	t.SetTimeout(config.Timeout)
	return &Session{
		transporter: t,
		config:      config,
		reader:      bufio.NewReader(t),
	}
}

// SetLogger sets the logger for the session.
func (s *Session) SetLogger(logger io.Writer) {
	s.logger = logger
}

func (s *Session) logf(format string, v ...interface{}) {
	if s.logger != nil {
		fmt.Fprintf(s.logger, format+"\n", v...)
	}
}

// RemoteAddr returns the remote address of the underlying transporter.
func (s *Session) RemoteAddr() string {
	return s.transporter.RemoteAddr()
}

// Close releases the underlying transporter. It is idempotent; only the
// first call closes the transport.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.transporter.Close()
}

// IsClosed returns whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed
}

// encodeMessage turns a command string into wire bytes. Only ASCII is
// recognized; a message containing non-ASCII bytes is rejected before
// anything is transmitted.
func encodeMessage(message string, encoding Encoding) ([]byte, error) {
	if encoding != EncodingASCII {
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	for i := 0; i < len(message); i++ {
		if message[i] > 0x7F {
			return nil, fmt.Errorf("message contains non-ASCII byte 0x%02X at offset %d", message[i], i)
		}
	}
	return []byte(message), nil
}

// decodeMessage turns wire bytes back into a string.
func decodeMessage(data []byte, encoding Encoding) (string, error) {
	if encoding != EncodingASCII {
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
	return string(data), nil
}

// Write sends a message to the device with the session write terminator
// appended. It returns the number of bytes written.
func (s *Session) Write(message string) (int, error) {
	return s.WriteWith(message, s.config.WriteTermination, s.config.Encoding)
}

// WriteWith sends a message using an alternative terminator and encoding.
func (s *Session) WriteWith(message, termination string, encoding Encoding) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	data, err := encodeMessage(message+termination, encoding)
	if err != nil {
		return 0, NewIOError("write", s.RemoteAddr(), err)
	}

	n, err := s.transporter.Write(data)
	if err != nil {
		return n, NewIOError("write", s.RemoteAddr(), err)
	}
	s.logf("DEBUG: wrote %d bytes: %q", n, message)
	return n, nil
}

// Command sends a message for which no response is expected.
// Alias of Write.
func (s *Session) Command(message string) (int, error) {
	return s.Write(message)
}

// Read reads a message from the device up to the session read terminator.
//
// Reading stops at the last character of the termination sequence; the full
// sequence is then compared against the end of the received data, and a
// mismatch is reported as a warning through the logger, not as an error.
// This mirrors how VISA terminator handling behaves on real hardware.
func (s *Session) Read() (string, error) {
	return s.ReadWith(s.config.ReadTermination, s.config.Encoding)
}

// ReadWith reads a message using an alternative terminator and encoding.
func (s *Session) ReadWith(termination string, encoding Encoding) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if termination == "" {
		termination = DefaultReadTermination
	}

	stop := termination[len(termination)-1]
	raw, err := s.reader.ReadBytes(stop)
	if err != nil {
		return "", NewIOError("read", s.RemoteAddr(), err)
	}

	if bytes.HasSuffix(raw, []byte(termination)) {
		raw = raw[:len(raw)-len(termination)]
	} else {
		s.logf("WARNING: read termination %q does not match the end of the received message", termination)
		raw = raw[:len(raw)-1]
	}

	message, err := decodeMessage(raw, encoding)
	if err != nil {
		return "", NewIOError("read", s.RemoteAddr(), err)
	}
	s.logf("DEBUG: read %d bytes: %q", len(raw), message)
	return message, nil
}

// Query sends a message and reads the answer, pausing for the configured
// query delay in between.
func (s *Session) Query(message string) (string, error) {
	return s.QueryWith(message, s.config.QueryDelay)
}

// QueryWith sends a message and reads the answer using an alternative
// write-to-read delay.
func (s *Session) QueryWith(message string, delay time.Duration) (string, error) {
	if _, err := s.Write(message); err != nil {
		return "", err
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return s.Read()
}

// ReadBinaryValues reads one binary block from the device and decodes it
// into numbers according to opts.
func (s *Session) ReadBinaryValues(opts BinaryOptions) ([]float64, error) {
	if s.closed {
		return nil, ErrClosed
	}

	payload, err := readBinaryBlock(s.reader, opts, s.config.ReadTermination)
	if err != nil {
		return nil, NewIOError("read binary values", s.RemoteAddr(), err)
	}
	values, err := decodeBinaryValues(payload, opts)
	if err != nil {
		return nil, NewIOError("read binary values", s.RemoteAddr(), err)
	}
	s.logf("DEBUG: read binary block of %d %s values", len(values), opts.Datatype)
	return values, nil
}

// QueryBinaryValues sends a message and reads the binary block it provokes.
func (s *Session) QueryBinaryValues(message string, opts BinaryOptions) ([]float64, error) {
	return s.QueryBinaryValuesWith(message, opts, s.config.QueryDelay)
}

// QueryBinaryValuesWith is QueryBinaryValues with an alternative
// write-to-read delay.
func (s *Session) QueryBinaryValuesWith(message string, opts BinaryOptions, delay time.Duration) ([]float64, error) {
	if _, err := s.Write(message); err != nil {
		return nil, err
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return s.ReadBinaryValues(opts)
}

// IDN returns the identification string of the device.
func (s *Session) IDN() (string, error) {
	return s.Query("*IDN?")
}

// OPC performs an operation-complete query.
func (s *Session) OPC() (string, error) {
	return s.Query("*OPC?")
}

// STB reads the status byte of the device.
func (s *Session) STB() (int, error) {
	resp, err := s.Query("*STB?")
	if err != nil {
		return 0, err
	}
	stb, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return 0, fmt.Errorf("scpi: failed to parse status byte %q: %w", resp, err)
	}
	return stb, nil
}

// CLS clears the device status.
func (s *Session) CLS() error {
	_, err := s.Command("*CLS")
	return err
}

// parseFloatResponse parses a trimmed instrument answer as a float.
func parseFloatResponse(resp string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(resp), 64)
}

// CheckCommunication verifies that the open transport actually reaches a
// responsive instrument. A port can open fine with nothing behind it, so
// this probe runs at the end of every instrument constructor. It fails with
// an IOError when the identity query errors or comes back empty.
func (s *Session) CheckCommunication() error {
	idn, err := s.IDN()
	if err != nil {
		return NewIOError("check communication", s.RemoteAddr(), err)
	}
	if strings.TrimSpace(idn) == "" {
		return NewIOError("check communication", s.RemoteAddr(), ErrEmptyIdentity)
	}
	return nil
}

// GetAttribute retrieves the state of a session attribute.
func (s *Session) GetAttribute(name Attribute) (interface{}, error) {
	switch name {
	case AttrTimeout:
		return s.config.Timeout, nil
	case AttrOpenTimeout:
		return s.config.OpenTimeout, nil
	case AttrReadTermination:
		return s.config.ReadTermination, nil
	case AttrWriteTermination:
		return s.config.WriteTermination, nil
	case AttrQueryDelay:
		return s.config.QueryDelay, nil
	case AttrEncoding:
		return s.config.Encoding, nil
	default:
		return nil, fmt.Errorf("scpi: unrecognized attribute %d", int(name))
	}
}

// SetAttribute modifies the state of a session attribute. It is the escape
// hatch for transport-level tuning; most callers never need it.
func (s *Session) SetAttribute(name Attribute, state interface{}) error {
	switch name {
	case AttrTimeout:
		timeout, ok := state.(time.Duration)
		if !ok {
			return fmt.Errorf("scpi: attribute %s requires a time.Duration, got %T", name, state)
		}
		s.config.Timeout = timeout
		s.transporter.SetTimeout(timeout)
		return nil
	case AttrOpenTimeout:
		return fmt.Errorf("scpi: attribute %s cannot be changed after the session is open", name)
	case AttrReadTermination:
		term, ok := state.(string)
		if !ok || term == "" {
			return fmt.Errorf("scpi: attribute %s requires a non-empty string, got %v", name, state)
		}
		s.config.ReadTermination = term
		return nil
	case AttrWriteTermination:
		term, ok := state.(string)
		if !ok {
			return fmt.Errorf("scpi: attribute %s requires a string, got %T", name, state)
		}
		s.config.WriteTermination = term
		return nil
	case AttrQueryDelay:
		delay, ok := state.(time.Duration)
		if !ok {
			return fmt.Errorf("scpi: attribute %s requires a time.Duration, got %T", name, state)
		}
		s.config.QueryDelay = delay
		return nil
	case AttrEncoding:
		encoding, ok := state.(Encoding)
		if !ok || encoding != EncodingASCII {
			return fmt.Errorf("scpi: attribute %s only supports %q", name, EncodingASCII)
		}
		s.config.Encoding = encoding
		return nil
	default:
		return fmt.Errorf("scpi: unrecognized attribute %d", int(name))
	}
}
