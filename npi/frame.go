package npi

import (
	"encoding/binary"
	"fmt"
)

// SOF starts every frame on the wire.
const SOF = 0xFE

// Frame header layout after the SOF byte.
const (
	lenOffset    = 1
	cmd0Offset   = 3
	cmd1Offset   = 4
	headerLength = 5 // SOF + len(2) + cmd0 + cmd1
	fcsLength    = 1

	// MaxPayload is the largest payload the NP accepts in one frame.
	MaxPayload = 4096
)

// Message types carried in the upper bits of cmd0. The lower five bits
// select the SNP subsystem.
const (
	TypeSREQ = 0x35 // synchronous request
	TypeAREQ = 0x55 // asynchronous request / indication
	TypeSRSP = 0x75 // synchronous response
)

// Command groups carried in the upper two bits of cmd1.
const (
	GroupDevice = 0x00
	GroupGAP    = 0x40
	GroupGATT   = 0x80

	groupMask = 0xC0
)

// Frame is one NPI message without the SOF, length and checksum.
type Frame struct {
	Cmd0    byte
	Cmd1    byte
	Payload []byte
}

// Group returns the command group of the frame.
func (f Frame) Group() byte {
	return f.Cmd1 & groupMask
}

func (f Frame) String() string {
	return fmt.Sprintf("cmd0 0x%02X cmd1 0x%02X [% X]", f.Cmd0, f.Cmd1, f.Payload)
}

// Marshal encodes f for the wire.
func (f Frame) Marshal() ([]byte, error) {
	if len(f.Payload) > MaxPayload {
		return nil, fmt.Errorf("payload too long: %d > %d", len(f.Payload), MaxPayload)
	}

	b := make([]byte, headerLength+len(f.Payload)+fcsLength)
	b[0] = SOF
	binary.LittleEndian.PutUint16(b[lenOffset:], uint16(len(f.Payload)))
	b[cmd0Offset] = f.Cmd0
	b[cmd1Offset] = f.Cmd1
	copy(b[headerLength:], f.Payload)
	b[len(b)-1] = fcs(b[lenOffset : len(b)-1])
	return b, nil
}

// Unmarshal decodes one complete wire frame.
func Unmarshal(b []byte) (Frame, error) {
	if len(b) < headerLength+fcsLength {
		return Frame{}, fmt.Errorf("frame too short: %d", len(b))
	}
	if b[0] != SOF {
		return Frame{}, fmt.Errorf("bad start byte 0x%02X", b[0])
	}

	l := int(binary.LittleEndian.Uint16(b[lenOffset:]))
	if len(b) != headerLength+l+fcsLength {
		return Frame{}, fmt.Errorf("frame length mismatch: have %d, header says %d", len(b), headerLength+l+fcsLength)
	}
	if want := fcs(b[lenOffset : len(b)-1]); want != b[len(b)-1] {
		return Frame{}, fmt.Errorf("bad fcs 0x%02X, want 0x%02X", b[len(b)-1], want)
	}

	p := make([]byte, l)
	copy(p, b[headerLength:])
	return Frame{Cmd0: b[cmd0Offset], Cmd1: b[cmd1Offset], Payload: p}, nil
}

func fcs(b []byte) byte {
	var x byte
	for _, v := range b {
		x ^= v
	}
	return x
}
