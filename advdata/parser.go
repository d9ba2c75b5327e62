package advdata

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

type decoder struct {
	minSz          int
	arrayElementSz int
}

var pduDecodeMap = map[byte]decoder{
	typeFlags:             {1, 0},
	typeSomeUUID16:        {2, 2},
	typeAllUUID16:         {2, 2},
	typeShortName:         {1, 0},
	typeCompleteName:      {1, 0},
	typeTxPower:           {1, 0},
	typeConnIntervalRange: {4, 0},
	typeServiceData16:     {2, 0},
	typeManufacturerData:  {2, 0},
}

// Parse decodes b. Unknown record types are kept but not interpreted.
func Parse(b []byte) (*Packet, error) {
	if len(b) > MaxLength {
		return nil, errors.Errorf("packet too long: %d", len(b))
	}

	m, err := decode(b)
	if err != nil {
		return nil, errors.Wrap(err, "pdu decode")
	}
	return &Packet{b: append([]byte(nil), b...), m: m}, nil
}

func decode(pdu []byte) (map[byte][]byte, error) {
	m := make(map[byte][]byte)
	for i := 0; i < len(pdu); {
		length := int(pdu[i])

		// a zero length ends the significant part
		if length == 0 {
			break
		}
		if i+length >= len(pdu) {
			return nil, errors.Errorf("buffer overflow: want %v, have %v", i+length+1, len(pdu))
		}

		typ := pdu[i+1]
		data := pdu[i+2 : i+1+length]
		i += 1 + length

		dec, ok := pduDecodeMap[typ]
		if ok {
			if dec.minSz > len(data) {
				return nil, errors.Errorf("adv type 0x%02X: min length %v, have %v", typ, dec.minSz, len(data))
			}
			if dec.arrayElementSz > 0 && len(data)%dec.arrayElementSz != 0 {
				return nil, errors.Errorf("adv type 0x%02X: length %v not a multiple of %v", typ, len(data), dec.arrayElementSz)
			}
		}
		m[typ] = data
	}
	return m, nil
}

func (p *Packet) field(typ byte) ([]byte, bool) {
	if p.m == nil {
		m, err := decode(p.b)
		if err != nil {
			return nil, false
		}
		p.m = m
	}
	b, ok := p.m[typ]
	return b, ok
}

// Flags returns the flags of the packet.
func (p *Packet) Flags() (flags byte, present bool) {
	if b, ok := p.field(typeFlags); ok {
		return b[0], true
	}
	return 0, false
}

// LocalName returns the complete name, or the short one if that is all
// the packet has.
func (p *Packet) LocalName() string {
	if b, ok := p.field(typeCompleteName); ok {
		return string(b)
	}
	if b, ok := p.field(typeShortName); ok {
		return string(b)
	}
	return ""
}

// TxPower returns the TxPower, if it presents.
func (p *Packet) TxPower() (power int, present bool) {
	if b, ok := p.field(typeTxPower); ok {
		return int(int8(b[0])), true
	}
	return 0, false
}

// ConnIntervalRange returns the preferred connection interval range.
func (p *Packet) ConnIntervalRange() (min, max uint16, present bool) {
	if b, ok := p.field(typeConnIntervalRange); ok {
		return binary.LittleEndian.Uint16(b), binary.LittleEndian.Uint16(b[2:]), true
	}
	return 0, 0, false
}

// UUID16s returns the 16 bit service UUIDs of the complete and the
// incomplete list.
func (p *Packet) UUID16s() []uint16 {
	var out []uint16
	for _, typ := range []byte{typeAllUUID16, typeSomeUUID16} {
		b, _ := p.field(typ)
		for ; len(b) >= 2; b = b[2:] {
			out = append(out, binary.LittleEndian.Uint16(b))
		}
	}
	return out
}

// ManufacturerData returns the company id and the data following it.
func (p *Packet) ManufacturerData() (id uint16, data []byte, present bool) {
	if b, ok := p.field(typeManufacturerData); ok {
		return binary.LittleEndian.Uint16(b), b[2:], true
	}
	return 0, nil, false
}
