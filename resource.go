package scpi

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	serial "github.com/hootrhino/goserial"
)

// ResourceKind identifies the transport family of a VISA resource name.
type ResourceKind int

const (
	ResourceTCP ResourceKind = iota + 1
	ResourceSerial
)

// DefaultSocketPort is the raw-socket port most LXI instruments listen on.
const DefaultSocketPort = 4000

// Resource is a parsed VISA resource name.
type Resource struct {
	Kind   ResourceKind
	Host   string // TCP resources
	Port   int    // TCP resources
	Device string // Serial resources: port path, e.g. /dev/ttyUSB0 or COM6
	Name   string // The original resource string
}

// ParseResource parses a VISA-style resource name. Recognized forms:
//
//	TCPIP[board]::<host>[::<port>]::SOCKET
//	ASRL::<device>::INSTR
//	<host>:<port>
//
// The last form is the bare address convention used with instruments that
// expose a plain socket service.
func ParseResource(name string) (Resource, error) {
	res := Resource{Name: name}
	parts := strings.Split(name, "::")

	switch {
	case strings.HasPrefix(strings.ToUpper(parts[0]), "TCPIP"):
		if len(parts) < 3 || !strings.EqualFold(parts[len(parts)-1], "SOCKET") {
			return res, fmt.Errorf("scpi: unsupported TCPIP resource %q, expected TCPIP[board]::host[::port]::SOCKET", name)
		}
		res.Kind = ResourceTCP
		res.Host = parts[1]
		res.Port = DefaultSocketPort
		if len(parts) == 4 {
			port, err := strconv.Atoi(parts[2])
			if err != nil || port <= 0 || port > 65535 {
				return res, fmt.Errorf("scpi: invalid port %q in resource %q", parts[2], name)
			}
			res.Port = port
		} else if len(parts) > 4 {
			return res, fmt.Errorf("scpi: malformed TCPIP resource %q", name)
		}
		if res.Host == "" {
			return res, fmt.Errorf("scpi: missing host in resource %q", name)
		}
		return res, nil

	case strings.HasPrefix(strings.ToUpper(parts[0]), "ASRL"):
		res.Kind = ResourceSerial
		// Accept both ASRL::<device>::INSTR and ASRL<device>::INSTR.
		device := strings.TrimPrefix(strings.TrimPrefix(parts[0], "ASRL"), "asrl")
		if len(parts) == 3 && parts[0] != "" && device == "" {
			device = parts[1]
		}
		if device == "" || !strings.EqualFold(parts[len(parts)-1], "INSTR") {
			return res, fmt.Errorf("scpi: unsupported ASRL resource %q, expected ASRL::device::INSTR", name)
		}
		res.Device = device
		return res, nil

	case len(parts) == 1 && strings.Contains(name, ":"):
		host, portStr, err := net.SplitHostPort(name)
		if err != nil {
			return res, fmt.Errorf("scpi: unrecognized resource name %q", name)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return res, fmt.Errorf("scpi: invalid port %q in resource %q", portStr, name)
		}
		res.Kind = ResourceTCP
		res.Host = host
		res.Port = port
		return res, nil

	default:
		return res, fmt.Errorf("scpi: unrecognized resource name %q", name)
	}
}

// OpenResource parses a resource name and opens the matching transporter.
// The open timeout in config bounds the dial; the I/O timeout applies to
// every subsequent operation.
func OpenResource(name string, config SessionConfig) (Transporter, error) {
	res, err := ParseResource(name)
	if err != nil {
		return nil, err
	}

	switch res.Kind {
	case ResourceTCP:
		addr := net.JoinHostPort(res.Host, strconv.Itoa(res.Port))
		var conn net.Conn
		if config.OpenTimeout > 0 {
			conn, err = net.DialTimeout("tcp", addr, config.OpenTimeout)
		} else {
			conn, err = net.Dial("tcp", addr)
		}
		if err != nil {
			return nil, NewIOError("open", name, err)
		}
		return NewTCPTransporter(conn, config.Timeout, nil), nil

	case ResourceSerial:
		port, err := serial.Open(&serial.Config{
			Address:  res.Device,
			BaudRate: config.Serial.BaudRate,
			DataBits: config.Serial.DataBits,
			StopBits: config.Serial.StopBits,
			Parity:   config.Serial.Parity,
			Timeout:  config.Timeout,
		})
		if err != nil {
			return nil, NewIOError("open", name, err)
		}
		return NewSerialTransporter(port, res.Device, config.Timeout), nil

	default:
		return nil, fmt.Errorf("scpi: unrecognized resource kind for %q", name)
	}
}
