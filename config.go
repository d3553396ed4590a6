package scpi

import "time"

// Default session parameters. They mirror the factory settings of the
// Tektronix MDO series socket service.
const (
	DefaultReadTermination  = "\n"
	DefaultWriteTermination = "\n"
	DefaultTimeout          = 2000 * time.Millisecond
	DefaultOpenTimeout      = 0
	DefaultQueryDelay       = 1 * time.Millisecond
	DefaultEncoding         = EncodingASCII
)

// Encoding names the text encoding used to turn command strings into wire
// bytes. Only ASCII is recognized; SCPI is an ASCII command language.
type Encoding string

// EncodingASCII is the only supported text encoding.
const EncodingASCII Encoding = "ascii"

// SerialSettings holds the port parameters used when a session is opened
// over an ASRL resource.
type SerialSettings struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// SessionConfig holds the transport configuration of a session. It is fixed
// at construction; individual calls may override terminator, encoding and
// delay, and the attribute escape hatch may adjust it afterwards.
type SessionConfig struct {
	ReadTermination  string
	WriteTermination string
	Timeout          time.Duration // I/O timeout for every read and write
	OpenTimeout      time.Duration // Dial timeout when opening the resource
	QueryDelay       time.Duration // Delay between the write and read halves of a query
	Encoding         Encoding
	Serial           SerialSettings
}

// DefaultSessionConfig returns a SessionConfig with default values.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ReadTermination:  DefaultReadTermination,
		WriteTermination: DefaultWriteTermination,
		Timeout:          DefaultTimeout,
		OpenTimeout:      DefaultOpenTimeout,
		QueryDelay:       DefaultQueryDelay,
		Encoding:         DefaultEncoding,
		Serial: SerialSettings{
			BaudRate: 9600,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
		},
	}
}

// Attribute identifies a transport-level session attribute reachable through
// the Get/SetAttribute escape hatch. The set is closed: only the attributes
// listed here are recognized.
type Attribute int

const (
	AttrTimeout Attribute = iota + 1
	AttrOpenTimeout
	AttrReadTermination
	AttrWriteTermination
	AttrQueryDelay
	AttrEncoding
)

// attrNames maps attributes to the names used in error messages.
var attrNames = map[Attribute]string{
	AttrTimeout:          "timeout",
	AttrOpenTimeout:      "open timeout",
	AttrReadTermination:  "read termination",
	AttrWriteTermination: "write termination",
	AttrQueryDelay:       "query delay",
	AttrEncoding:         "encoding",
}

func (a Attribute) String() string {
	if name, ok := attrNames[a]; ok {
		return name
	}
	return "unknown attribute"
}
