package snp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestDefaultAdvData(t *testing.T) {
	nonConn := []byte{
		0x02, 0x01, 0x06,
		0x06, 0xFF, 0x0D, 0x00, 0x03, 0x00, 0x00,
	}
	if b := DefaultAdvData(AdvNonConn); !bytes.Equal(b, nonConn) {
		t.Fatalf("non-connectable: % X", b)
	}

	scanRsp := append([]byte{0x0C, 0x09}, "Energia BLE"...)
	scanRsp = append(scanRsp,
		0x05, 0x12, 0x50, 0x00, 0x20, 0x03,
		0x02, 0x0A, 0x00,
	)
	if b := DefaultAdvData(AdvScanRsp); !bytes.Equal(b, scanRsp) {
		t.Fatalf("scan response: % X", b)
	}

	if b := DefaultAdvData(AdvConn); b != nil {
		t.Fatalf("connectable slot has a default: % X", b)
	}

	// callers get a copy
	b := DefaultAdvData(AdvNonConn)
	b[0] = 0xFF
	if DefaultAdvData(AdvNonConn)[0] != 0x02 {
		t.Fatalf("default data was modified")
	}
}

func TestScanRspWithName(t *testing.T) {
	b, err := ScanRspWithName("abc")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b[0] != 4 || b[1] != 0x09 || string(b[2:5]) != "abc" || len(b) != 14 {
		t.Fatalf("unexpected scan response % X", b)
	}

	if _, err := ScanRspWithName(strings.Repeat("x", 20)); err != nil {
		t.Fatalf("longest name rejected: %v", err)
	}
	if _, err := ScanRspWithName(strings.Repeat("x", 21)); errors.Cause(err) != ErrInvalidParameter {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := ScanRspWithName(""); errors.Cause(err) != ErrInvalidParameter {
		t.Fatalf("expected ErrInvalidParameter for an empty name, got %v", err)
	}
}

func TestAdvTypeValid(t *testing.T) {
	for _, typ := range []AdvType{AdvScanRsp, AdvNonConn, AdvConn} {
		if !typ.Valid() {
			t.Fatalf("%v not valid", typ)
		}
	}
	if AdvType(3).Valid() || AdvType(3).String() != "unknown" {
		t.Fatalf("slot 3 accepted")
	}
}
