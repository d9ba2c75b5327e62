package snp

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"

	"github.com/rigado/snp/sliceops"
)

// Client characteristic configuration bits.
const (
	CCCDNotify   uint16 = 0x0001
	CCCDIndicate uint16 = 0x0002
)

// Char is a characteristic hosted by the NP whose value the host pushes to
// the peer. The NP owns the attribute table; the host only tracks the value
// handle, the CCCD written by the peer and the last value written locally.
type Char struct {
	Handle     uint16 // attribute value handle
	CCCDHandle uint16

	mu    sync.Mutex
	cccd  uint16
	value []byte
}

// NewChar tracks the characteristic at handle with its CCCD at cccdHandle.
func NewChar(handle, cccdHandle uint16) *Char {
	return &Char{Handle: handle, CCCDHandle: cccdHandle}
}

// CCCD returns the configuration last written by the peer.
func (c *Char) CCCD() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cccd
}

// SetCCCD records a peer configuration write.
func (c *Char) SetCCCD(v uint16) {
	c.mu.Lock()
	c.cccd = v
	c.mu.Unlock()
}

// Value returns a copy of the stored value.
func (c *Char) Value() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sliceops.Clone(c.value)
}

// SetValue replaces the stored value with a copy of b.
func (c *Char) SetValue(b []byte) {
	v := sliceops.Clone(b)
	if v == nil {
		v = []byte{}
	}

	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// Len is the size of the stored value in bytes.
func (c *Char) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.value)
}

// fixed returns the value only if it is exactly n bytes long.
func (c *Char) fixed(n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.value) != n {
		return nil, ErrSizeMismatch
	}
	return c.value, nil
}

func (c *Char) ReadBool() (bool, error) {
	b, err := c.fixed(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (c *Char) ReadInt8() (int8, error) {
	b, err := c.fixed(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (c *Char) ReadUint8() (uint8, error) {
	b, err := c.fixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Char) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

func (c *Char) ReadUint32() (uint32, error) {
	b, err := c.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Char) ReadInt64() (int64, error) {
	v, err := c.ReadUint64()
	return int64(v), err
}

func (c *Char) ReadUint64() (uint64, error) {
	b, err := c.fixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Char) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	return math.Float32frombits(v), err
}

func (c *Char) ReadFloat64() (float64, error) {
	v, err := c.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBytes returns a copy of the value, whatever its size.
func (c *Char) ReadBytes() []byte {
	return c.Value()
}

// ReadString returns the value up to the first NUL.
func (c *Char) ReadString() string {
	v := c.Value()
	if i := bytes.IndexByte(v, 0); i >= 0 {
		v = v[:i]
	}
	return string(v)
}

// Encoders for the typed writes. Multi-byte values are little endian,
// strings carry a terminating NUL.

func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func EncodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func EncodeFloat32(v float32) []byte { return EncodeUint32(math.Float32bits(v)) }

func EncodeFloat64(v float64) []byte { return EncodeUint64(math.Float64bits(v)) }

func EncodeString(s string) []byte {
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	return append(b, 0)
}
