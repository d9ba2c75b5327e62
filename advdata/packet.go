// Package advdata builds and parses advertisement data and scan responses:
// a sequence of length, type, data records of at most 31 bytes.
package advdata

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// MaxLength is the largest legacy advertisement payload.
const MaxLength = 31

var (
	ErrNotFit  = errors.New("field does not fit in the packet")
	ErrInvalid = errors.New("invalid field")
)

// Record types, from the GAP assigned numbers.
const (
	typeFlags             = 0x01
	typeSomeUUID16        = 0x02
	typeAllUUID16         = 0x03
	typeShortName         = 0x08
	typeCompleteName      = 0x09
	typeTxPower           = 0x0A
	typeConnIntervalRange = 0x12
	typeServiceData16     = 0x16
	typeManufacturerData  = 0xFF
)

// Flags bits.
const (
	FlagLimitedDiscoverable = 0x01
	FlagGeneralDiscoverable = 0x02
	FlagBREDRNotSupported   = 0x04
)

// Packet is an advertisement payload being built or one that was parsed.
type Packet struct {
	b []byte
	m map[byte][]byte
}

// Bytes returns the bytes of the packet.
func (p *Packet) Bytes() []byte {
	return p.b
}

// Len returns the length of the packet.
func (p *Packet) Len() int {
	return len(p.b)
}

// NewPacket builds a packet from fields, in order.
func NewPacket(fields ...Field) (*Packet, error) {
	p := &Packet{b: make([]byte, 0, MaxLength)}
	for _, f := range fields {
		if err := f(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Field is an advertising field which can be appended to a packet.
type Field func(p *Packet) error

// Append appends a field to the packet. It returns ErrNotFit if the field
// doesn't fit into the packet, and leaves the packet intact.
func (p *Packet) Append(f Field) error {
	return f(p)
}

func (p *Packet) append(typ byte, b []byte) error {
	if p.Len()+1+1+len(b) > MaxLength {
		return ErrNotFit
	}
	p.b = append(p.b, byte(len(b)+1), typ)
	p.b = append(p.b, b...)
	p.m = nil
	return nil
}

// Raw appends already encoded records.
func Raw(b []byte) Field {
	return func(p *Packet) error {
		if p.Len()+len(b) > MaxLength {
			return ErrNotFit
		}
		p.b = append(p.b, b...)
		p.m = nil
		return nil
	}
}

func Flags(f byte) Field {
	return func(p *Packet) error {
		return p.append(typeFlags, []byte{f})
	}
}

// ShortName is a shortened local name.
func ShortName(n string) Field {
	return func(p *Packet) error {
		return p.append(typeShortName, []byte(n))
	}
}

// CompleteName is the complete local name.
func CompleteName(n string) Field {
	return func(p *Packet) error {
		if len(n) == 0 {
			return ErrInvalid
		}
		return p.append(typeCompleteName, []byte(n))
	}
}

// TxPower is the transmit power level in dBm.
func TxPower(dbm int8) Field {
	return func(p *Packet) error {
		return p.append(typeTxPower, []byte{byte(dbm)})
	}
}

// ConnIntervalRange is the peripheral's preferred connection interval range,
// in units of 1.25 msec.
func ConnIntervalRange(min, max uint16) Field {
	return func(p *Packet) error {
		if min > max {
			return ErrInvalid
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint16(b, min)
		binary.LittleEndian.PutUint16(b[2:], max)
		return p.append(typeConnIntervalRange, b)
	}
}

// ManufacturerData is manufacturer specific data.
func ManufacturerData(id uint16, b []byte) Field {
	return func(p *Packet) error {
		d := append([]byte{uint8(id), uint8(id >> 8)}, b...)
		return p.append(typeManufacturerData, d)
	}
}

// AllUUID16 is the complete list of 16 bit service UUIDs.
func AllUUID16(ids ...uint16) Field {
	return func(p *Packet) error {
		if len(ids) == 0 {
			return ErrInvalid
		}
		b := make([]byte, 2*len(ids))
		for i, id := range ids {
			binary.LittleEndian.PutUint16(b[2*i:], id)
		}
		return p.append(typeAllUUID16, b)
	}
}

// ServiceData16 is service data for a 16 bit service UUID.
func ServiceData16(id uint16, b []byte) Field {
	return func(p *Packet) error {
		d := append([]byte{uint8(id), uint8(id >> 8)}, b...)
		return p.append(typeServiceData16, d)
	}
}
