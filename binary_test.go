package scpi

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func TestBinaryDatatypeWidth(t *testing.T) {
	widths := map[BinaryDatatype]int{
		Int8:    1,
		Uint8:   1,
		Int16:   2,
		Uint16:  2,
		Int32:   4,
		Uint32:  4,
		Float32: 4,
		Float64: 8,
	}
	for datatype, want := range widths {
		if got := datatype.Width(); got != want {
			t.Errorf("%s: expected width %d, got %d", datatype, want, got)
		}
	}
	if BinaryDatatype(0).Width() != 0 {
		t.Error("expected width 0 for an invalid datatype")
	}
}

func TestDecodeBinaryValues(t *testing.T) {
	le := binary.LittleEndian
	be := binary.BigEndian

	u16 := func(order binary.ByteOrder, vs ...uint16) []byte {
		buf := make([]byte, 2*len(vs))
		for i, v := range vs {
			order.PutUint16(buf[2*i:], v)
		}
		return buf
	}
	u32 := func(order binary.ByteOrder, vs ...uint32) []byte {
		buf := make([]byte, 4*len(vs))
		for i, v := range vs {
			order.PutUint32(buf[4*i:], v)
		}
		return buf
	}

	tests := []struct {
		name    string
		payload []byte
		opts    BinaryOptions
		want    []float64
	}{
		{
			name:    "int8",
			payload: []byte{0x80, 0xFF, 0x00, 0x7F},
			opts:    BinaryOptions{Datatype: Int8},
			want:    []float64{-128, -1, 0, 127},
		},
		{
			name:    "uint8",
			payload: []byte{0x00, 0x80, 0xFF},
			opts:    BinaryOptions{Datatype: Uint8},
			want:    []float64{0, 128, 255},
		},
		{
			name:    "int16 big endian",
			payload: u16(be, 0x8000, 0xFFFF, 0x7FFF),
			opts:    BinaryOptions{Datatype: Int16, BigEndian: true},
			want:    []float64{-32768, -1, 32767},
		},
		{
			name:    "uint16 little endian",
			payload: u16(le, 0, 515, 65535),
			opts:    BinaryOptions{Datatype: Uint16},
			want:    []float64{0, 515, 65535},
		},
		{
			name:    "int32 little endian",
			payload: u32(le, 0xFFFFFFFF, 100000),
			opts:    BinaryOptions{Datatype: Int32},
			want:    []float64{-1, 100000},
		},
		{
			name:    "uint32 big endian",
			payload: u32(be, 0, 4294967295),
			opts:    BinaryOptions{Datatype: Uint32, BigEndian: true},
			want:    []float64{0, 4294967295},
		},
		{
			name:    "float32 little endian",
			payload: u32(le, math.Float32bits(1.5), math.Float32bits(-0.25)),
			opts:    BinaryOptions{Datatype: Float32},
			want:    []float64{1.5, -0.25},
		},
		{
			name: "float64 big endian",
			payload: func() []byte {
				buf := make([]byte, 16)
				be.PutUint64(buf, math.Float64bits(3.141592653589793))
				be.PutUint64(buf[8:], math.Float64bits(-1e-9))
				return buf
			}(),
			opts: BinaryOptions{Datatype: Float64, BigEndian: true},
			want: []float64{3.141592653589793, -1e-9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBinaryValues(tt.payload, tt.opts)
			if err != nil {
				t.Fatalf("decodeBinaryValues failed: %v", err)
			}
			assertFloat64SliceEqual(t, tt.want, got, 0)
		})
	}
}

func TestDecodeBinaryValuesErrors(t *testing.T) {
	if _, err := decodeBinaryValues([]byte{1, 2, 3}, BinaryOptions{Datatype: Uint16}); err == nil {
		t.Error("expected an error for a payload not divisible by the element width")
	}
	if _, err := decodeBinaryValues([]byte{1}, BinaryOptions{Datatype: BinaryDatatype(42)}); err == nil {
		t.Error("expected an error for an unrecognized datatype")
	}
}

func TestReadIEEEBlock(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	opts := DefaultBinaryOptions()
	opts.Datatype = Uint8

	r := bufio.NewReader(bytes.NewReader(ieeeBlock(payload)))
	got, err := readBinaryBlock(r, opts, "\n")
	if err != nil {
		t.Fatalf("readBinaryBlock failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("expected payload %v, got %v", payload, got)
	}
	// The trailing terminator must have been consumed as well.
	if _, err := r.ReadByte(); err == nil {
		t.Error("expected the reader to be drained")
	}
}

func TestReadIEEEBlockIndefinite(t *testing.T) {
	opts := DefaultBinaryOptions()
	opts.Datatype = Uint8

	r := bufio.NewReader(strings.NewReader("#0ABC\n"))
	got, err := readBinaryBlock(r, opts, "\n")
	if err != nil {
		t.Fatalf("readBinaryBlock failed: %v", err)
	}
	if string(got) != "ABC" {
		t.Errorf("expected payload %q, got %q", "ABC", string(got))
	}
}

func TestReadIEEEBlockErrors(t *testing.T) {
	opts := DefaultBinaryOptions()
	opts.Datatype = Uint8

	tests := []struct {
		name  string
		input string
	}{
		{"missing marker", "X15hello\n"},
		{"non-digit length digit", "#Xhello\n"},
		{"non-digit length field", "#2a5hello\n"},
		{"truncated payload", "#15hel"},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.input))
			if _, err := readBinaryBlock(r, opts, "\n"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestReadHeaderlessBlock(t *testing.T) {
	payload := []byte{10, 20, 30, 40}
	opts := BinaryOptions{
		Datatype:   Uint8,
		Header:     HeaderNone,
		DataPoints: len(payload),
	}

	r := bufio.NewReader(bytes.NewReader(payload))
	got, err := readBinaryBlock(r, opts, "\n")
	if err != nil {
		t.Fatalf("readBinaryBlock failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("expected payload %v, got %v", payload, got)
	}

	// Without a data points hint the expected length is unknown.
	opts.DataPoints = 0
	r = bufio.NewReader(bytes.NewReader(payload))
	if _, err := readBinaryBlock(r, opts, "\n"); err == nil {
		t.Error("expected an error without a data points hint")
	}
}

func TestReadBinaryBlockLargePayloadChunked(t *testing.T) {
	payload := make([]byte, 100000)
	for i := range payload {
		payload[i] = byte(i)
	}
	opts := DefaultBinaryOptions()
	opts.Datatype = Uint8
	opts.ChunkSize = 4096

	r := bufio.NewReader(bytes.NewReader(ieeeBlock(payload)))
	got, err := readBinaryBlock(r, opts, "\n")
	if err != nil {
		t.Fatalf("readBinaryBlock failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("chunked payload mismatch")
	}
}
