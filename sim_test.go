package scpi

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

// simScope is an in-process simulated MDO34 used to exercise sessions and
// the command catalog without hardware. It speaks newline-terminated SCPI
// over one end of a net.Pipe, stores every setting it receives and echoes
// it back on the matching query.
type simScope struct {
	idn      string
	settings map[string]string
	binary   map[string][]byte // raw responses for binary queries, e.g. "CURVe?"
}

func newSimScope() *simScope {
	return &simScope{
		idn:      "TEKTRONIX,MDO34,C019245,CF:91.1CT FV:v1.30",
		settings: make(map[string]string),
		binary:   make(map[string][]byte),
	}
}

// startSimScope serves sim on one end of a pipe and returns a transporter
// connected to the other end.
func startSimScope(t *testing.T, sim *simScope) *TCPTransporter {
	t.Helper()
	client, server := net.Pipe()
	go sim.serve(server)
	return NewTCPTransporter(client, 2*time.Second, nil)
}

func (s *simScope) serve(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		s.handle(conn, strings.TrimRight(line, "\r\n"))
	}
}

func (s *simScope) handle(conn net.Conn, line string) {
	if raw, ok := s.binary[line]; ok {
		conn.Write(raw)
		return
	}

	switch {
	case line == "*IDN?":
		io.WriteString(conn, s.idn+"\n")
	case line == "*OPC?":
		io.WriteString(conn, "1\n")
	case line == "*STB?":
		io.WriteString(conn, "0\n")
	case line == "*CLS" || line == ":HDR OFF":
		// Commands without a response.
	case strings.HasSuffix(line, "?"):
		key := strings.ToUpper(strings.TrimSuffix(line, "?"))
		io.WriteString(conn, s.settings[key]+"\n")
	default:
		// Setter: "HEADer value" stored under the uppercased header.
		if i := strings.IndexByte(line, ' '); i > 0 {
			s.settings[strings.ToUpper(line[:i])] = line[i+1:]
		}
	}
}

// ieeeBlock frames a payload as a definite-length IEEE 488.2 block,
// terminated for a newline-reading session.
func ieeeBlock(payload []byte) []byte {
	lenField := strconv.Itoa(len(payload))
	block := []byte(fmt.Sprintf("#%d%s", len(lenField), lenField))
	block = append(block, payload...)
	return append(block, '\n')
}
