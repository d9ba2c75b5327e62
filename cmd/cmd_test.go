package cmd

import (
	"bytes"
	"testing"

	"github.com/rigado/snp/npi"
)

func TestSendNotifInd(t *testing.T) {
	c := &SendNotifInd{ConnHandle: 0x0001, AttrHandle: 0x001E, Type: Indication, Data: []byte{0xAA, 0xBB}}
	f, err := Frame(c)
	if err != nil {
		t.Fatal(err)
	}

	if f.Cmd0 != npi.TypeAREQ || f.Cmd1 != SendNotifIndCode {
		t.Fatalf("wrong header %v", f)
	}
	exp := []byte{0x01, 0x00, 0x1E, 0x00, 0x00, 0x02, 0xAA, 0xBB}
	if !bytes.Equal(f.Payload, exp) {
		t.Fatalf("payload [% X], want [% X]", f.Payload, exp)
	}
}

func TestSynchronousType(t *testing.T) {
	f, err := Frame(&GetRand{})
	if err != nil {
		t.Fatal(err)
	}
	if f.Cmd0 != npi.TypeSREQ || len(f.Payload) != 0 {
		t.Fatalf("wrong frame %v", f)
	}
}

func TestHCICommandReset(t *testing.T) {
	f, err := Frame(&HCICommand{Opcode: ResetOpcode})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(f.Payload, []byte{0x1D, 0xFC}) {
		t.Fatalf("payload [% X]", f.Payload)
	}
}

func TestUpdateConnParams(t *testing.T) {
	c := &UpdateConnParams{ConnHandle: 0, IntervalMin: 80, IntervalMax: 80, Latency: 0, SupervisionTimeout: 600}
	b := make([]byte, c.Len())
	if err := c.Marshal(b); err != nil {
		t.Fatal(err)
	}
	exp := []byte{0x00, 0x00, 0x50, 0x00, 0x50, 0x00, 0x00, 0x00, 0x58, 0x02}
	if !bytes.Equal(b, exp) {
		t.Fatalf("payload [% X], want [% X]", b, exp)
	}

	if err := c.Marshal(make([]byte, 3)); err != ErrShortBuffer {
		t.Fatalf("expected short buffer, have %v", err)
	}
}
