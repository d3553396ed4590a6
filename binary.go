package scpi

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// BinaryDatatype identifies the element type of a binary block. The set is
// closed: a block is decoded only through one of the combinations below.
type BinaryDatatype int

const (
	Int8 BinaryDatatype = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

// Width returns the element size in bytes.
func (d BinaryDatatype) Width() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

func (d BinaryDatatype) String() string {
	switch d {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// BinaryHeader identifies the framing that prefixes a binary block.
type BinaryHeader int

const (
	// HeaderIEEE is the definite-length IEEE 488.2 block: '#', one digit
	// giving the length-field width, then the payload byte count in ASCII.
	// '#0' starts an indefinite-length block ended by the read terminator.
	HeaderIEEE BinaryHeader = iota + 1
	// HeaderNone means the device sends the bare payload; the expected
	// length must come from the DataPoints hint.
	HeaderNone
)

// BinaryOptions describes how a binary block is framed and decoded.
type BinaryOptions struct {
	Datatype          BinaryDatatype
	BigEndian         bool
	Header            BinaryHeader
	ExpectTermination bool // Consume the read terminator after the block
	DataPoints        int  // Expected element count; used only when the device omits a length header
	ChunkSize         int  // Read granularity for large blocks
}

// DefaultBinaryOptions returns the options matching the most common
// instrument output: IEEE block of little-endian float32 values.
func DefaultBinaryOptions() BinaryOptions {
	return BinaryOptions{
		Datatype:          Float32,
		BigEndian:         false,
		Header:            HeaderIEEE,
		ExpectTermination: true,
		ChunkSize:         20480,
	}
}

// byteOrder returns the binary.ByteOrder for the configured endianness.
func (o BinaryOptions) byteOrder() binary.ByteOrder {
	if o.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// readBinaryBlock consumes one binary block from r according to the framing
// in o and returns the raw payload. terminator is the session read
// termination, used to end indefinite blocks and to consume the trailing
// terminator of definite ones.
func readBinaryBlock(r *bufio.Reader, o BinaryOptions, terminator string) ([]byte, error) {
	width := o.Datatype.Width()
	if width == 0 {
		return nil, fmt.Errorf("unrecognized binary datatype: %d", int(o.Datatype))
	}

	switch o.Header {
	case HeaderIEEE:
		return readIEEEBlock(r, o, terminator)
	case HeaderNone:
		if o.DataPoints <= 0 {
			return nil, fmt.Errorf("headerless binary block requires a data points hint")
		}
		payload := make([]byte, o.DataPoints*width)
		if err := readFullChunked(r, payload, o.ChunkSize); err != nil {
			return nil, fmt.Errorf("failed to read %d payload bytes: %w", len(payload), err)
		}
		if o.ExpectTermination {
			consumeTerminator(r, terminator)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unrecognized binary header format: %d", int(o.Header))
	}
}

// readIEEEBlock parses a '#'-prefixed IEEE 488.2 block.
func readIEEEBlock(r *bufio.Reader, o BinaryOptions, terminator string) ([]byte, error) {
	marker, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("failed to read block marker: %w", err)
	}
	if marker != '#' {
		return nil, fmt.Errorf("expected block marker '#', got %q", marker)
	}

	digit, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("failed to read block length digit: %w", err)
	}
	if digit < '0' || digit > '9' {
		return nil, fmt.Errorf("invalid block length digit %q", digit)
	}

	// '#0': indefinite length, the block runs until the read terminator.
	if digit == '0' {
		stop := byte('\n')
		if terminator != "" {
			stop = terminator[len(terminator)-1]
		}
		payload, err := r.ReadBytes(stop)
		if err != nil {
			return nil, fmt.Errorf("failed to read indefinite block: %w", err)
		}
		return payload[:len(payload)-1], nil
	}

	nDigits := int(digit - '0')
	lenField := make([]byte, nDigits)
	if _, err := io.ReadFull(r, lenField); err != nil {
		return nil, fmt.Errorf("failed to read block length field: %w", err)
	}
	count := 0
	for _, b := range lenField {
		if b < '0' || b > '9' {
			return nil, fmt.Errorf("invalid block length field %q", lenField)
		}
		count = count*10 + int(b-'0')
	}

	payload := make([]byte, count)
	if err := readFullChunked(r, payload, o.ChunkSize); err != nil {
		return nil, fmt.Errorf("failed to read %d payload bytes: %w", count, err)
	}

	if o.ExpectTermination {
		consumeTerminator(r, terminator)
	}
	return payload, nil
}

// readFullChunked fills buf from r, reading at most chunkSize bytes at a
// time. Large transfers stay bounded regardless of the block size.
func readFullChunked(r io.Reader, buf []byte, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = 20480
	}
	for off := 0; off < len(buf); {
		end := off + chunkSize
		if end > len(buf) {
			end = len(buf)
		}
		n, err := io.ReadFull(r, buf[off:end])
		off += n
		if err != nil {
			return err
		}
	}
	return nil
}

// consumeTerminator discards the trailing read terminator, if present.
func consumeTerminator(r *bufio.Reader, terminator string) {
	for range terminator {
		if _, err := r.ReadByte(); err != nil {
			return
		}
	}
}

// decodeBinaryValues converts a raw payload into numbers according to the
// element datatype and endianness in o.
func decodeBinaryValues(payload []byte, o BinaryOptions) ([]float64, error) {
	width := o.Datatype.Width()
	if width == 0 {
		return nil, fmt.Errorf("unrecognized binary datatype: %d", int(o.Datatype))
	}
	if len(payload)%width != 0 {
		return nil, fmt.Errorf("binary payload length %d is not a multiple of element width %d", len(payload), width)
	}

	order := o.byteOrder()
	values := make([]float64, len(payload)/width)
	for i := range values {
		chunk := payload[i*width : (i+1)*width]
		switch o.Datatype {
		case Int8:
			values[i] = float64(int8(chunk[0]))
		case Uint8:
			values[i] = float64(chunk[0])
		case Int16:
			values[i] = float64(int16(order.Uint16(chunk)))
		case Uint16:
			values[i] = float64(order.Uint16(chunk))
		case Int32:
			values[i] = float64(int32(order.Uint32(chunk)))
		case Uint32:
			values[i] = float64(order.Uint32(chunk))
		case Float32:
			values[i] = float64(math.Float32frombits(order.Uint32(chunk)))
		case Float64:
			values[i] = math.Float64frombits(order.Uint64(chunk))
		}
	}
	return values, nil
}
