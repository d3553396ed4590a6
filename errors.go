package scpi

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when an operation is attempted on a session or
// transporter that has already been closed.
var ErrClosed = errors.New("scpi: session is closed")

// ErrEmptyIdentity is returned by the communication check when the
// instrument answers the identification query with an empty string.
var ErrEmptyIdentity = errors.New("scpi: empty identification response")

// IOError represents an instrument I/O failure. It distinguishes
// communication problems (transport errors, a failed identity probe) from
// generic errors so that callers can detect them with errors.As.
type IOError struct {
	Op       string // The operation that failed, e.g. "write", "query", "check communication"
	Resource string // The resource name or remote address of the instrument
	Err      error  // The underlying transport error, if any
}

func (e *IOError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("scpi: io error during %s (%s): %v", e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("scpi: io error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError wraps err as an instrument I/O failure for the given operation.
func NewIOError(op, resource string, err error) *IOError {
	return &IOError{Op: op, Resource: resource, Err: err}
}

// ValidationError reports a caller-supplied value outside its declared
// domain. It is raised locally, before any command text is sent to the
// instrument.
type ValidationError struct {
	Param  string      // Name of the offending parameter
	Value  interface{} // The rejected value
	Reason string      // Why the value was rejected
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scpi: invalid %s: got %v, %s", e.Param, e.Value, e.Reason)
}

// newValidationError is the constructor used by the command catalog setters.
func newValidationError(param string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Param: param, Value: value, Reason: reason}
}
