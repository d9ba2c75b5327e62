package snp

import (
	"bytes"
	"testing"
)

func TestCharTypedReads(t *testing.T) {
	c := NewChar(0x0030, 0x0031)

	c.SetValue(EncodeUint32(0xDEADBEEF))
	if v, err := c.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("uint32: 0x%X %v", v, err)
	}
	if v, err := c.ReadInt32(); err != nil || v != -559038737 {
		t.Fatalf("int32: %d %v", v, err)
	}
	if _, err := c.ReadUint64(); err != ErrSizeMismatch {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if _, err := c.ReadBool(); err != ErrSizeMismatch {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}

	c.SetValue(EncodeFloat64(-2.5))
	if v, err := c.ReadFloat64(); err != nil || v != -2.5 {
		t.Fatalf("float64: %v %v", v, err)
	}
	if v, err := c.ReadInt64(); err != nil || v >= 0 {
		t.Fatalf("int64: %d %v", v, err)
	}

	c.SetValue(EncodeFloat32(1.5))
	if v, err := c.ReadFloat32(); err != nil || v != 1.5 {
		t.Fatalf("float32: %v %v", v, err)
	}

	c.SetValue(EncodeBool(true))
	if v, err := c.ReadBool(); err != nil || !v {
		t.Fatalf("bool: %v %v", v, err)
	}
	c.SetValue([]byte{0xFE})
	if v, err := c.ReadInt8(); err != nil || v != -2 {
		t.Fatalf("int8: %d %v", v, err)
	}
	if v, err := c.ReadUint8(); err != nil || v != 0xFE {
		t.Fatalf("uint8: %d %v", v, err)
	}
}

func TestCharStringAndBytes(t *testing.T) {
	c := NewChar(1, 2)

	c.SetValue(nil)
	if c.Len() != 0 || c.Value() == nil {
		t.Fatalf("empty value: %v", c.Value())
	}

	b := EncodeString("hello")
	if !bytes.Equal(b, []byte("hello\x00")) {
		t.Fatalf("encoded string % X", b)
	}
	c.SetValue(b)
	if s := c.ReadString(); s != "hello" {
		t.Fatalf("read %q", s)
	}
	c.SetValue([]byte("no nul"))
	if s := c.ReadString(); s != "no nul" {
		t.Fatalf("read %q", s)
	}

	// stored values are copies
	b = []byte{1, 2, 3}
	c.SetValue(b)
	b[0] = 9
	out := c.ReadBytes()
	out[1] = 9
	if !bytes.Equal(c.Value(), []byte{1, 2, 3}) {
		t.Fatalf("value aliased: % X", c.Value())
	}

	c.SetCCCD(CCCDIndicate)
	if c.CCCD() != CCCDIndicate {
		t.Fatalf("cccd 0x%04X", c.CCCD())
	}
}
