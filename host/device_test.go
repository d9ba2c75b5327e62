package host

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/npi"
)

func hciResponse(status uint8, opcode uint16, data ...byte) npi.Frame {
	return areq(cmd.HCICommandCode, cat([]byte{status}, le16(opcode), data)...)
}

func TestHCICommand(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.HCICommandCode, func(fr npi.Frame) []npi.Frame {
		op := binary.LittleEndian.Uint16(fr.Payload)
		return []npi.Frame{hciResponse(snp.StatusSuccess, op, 0xDE, 0xAD)}
	})

	data, err := h.HCICommand(0x1009, nil)
	if err != nil {
		t.Fatalf("hci command: %v", err)
	}
	if !bytes.Equal(data, []byte{0xDE, 0xAD}) {
		t.Fatalf("unexpected data % X", data)
	}
	if h.LastOpcode() != 0x1009 {
		t.Fatalf("expected last opcode 0x1009, got 0x%04X", h.LastOpcode())
	}

	// the acknowledgment let the delivery context move on
	f.inject(powerUp())
	if _, err := h.Wait(TagPowerUp, testTimeout/2); err != nil {
		t.Fatalf("delivery still blocked: %v", err)
	}
}

func TestHCICommandRejected(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.HCICommandCode, func(fr npi.Frame) []npi.Frame {
		return []npi.Frame{hciResponse(snp.StatusHCICmdUnknown, 0xFFFF)}
	})

	_, err := h.HCICommand(0xFFFF, []byte{1})
	if snp.KindOf(err) != snp.KindRemoteRejected {
		t.Fatalf("expected remote rejected, got %v", err)
	}
	if se, ok := h.LastError().(*snp.StatusError); !ok || se.Opcode != 0xFFFF {
		t.Fatalf("expected status error carrying the opcode, got %v", h.LastError())
	}
}

func TestPayloadHoldsDelivery(t *testing.T) {
	h, f := newTestHost(t, snp.OptTimeout(time.Second))

	// nobody has claimed the first payload, the connection event waits
	f.inject(hciResponse(snp.StatusSuccess, 0x1009, 1, 2, 3))
	f.inject(connEstablished(0x0001, 80, 0, 600))

	waitUntil(t, "hci payload", func() bool {
		_, ok := h.evts.peek(TagHCIRsp)
		return ok
	})
	time.Sleep(50 * time.Millisecond)
	if h.IsConnected() {
		t.Fatalf("connection event dispatched while payload was borrowed")
	}

	h.evts.post(TagPayloadCopied, nil)
	waitUntil(t, "connection", h.IsConnected)
}

func TestTestCommand(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.TestCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{areq(cmd.TestCode, cat(le16(100), le16(200), le16(4096))...)}
	})

	r, err := h.TestCommand()
	if err != nil {
		t.Fatalf("test command: %v", err)
	}
	if r != (TestResult{MemAlo: 100, MemMax: 200, MemSize: 4096}) {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestRevision(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.GetRevisionCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{srsp(cmd.GetRevisionCode, cat([]byte{0}, le16(0x0102), []byte("0123456789"))...)}
	})

	r, err := h.Revision()
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if r.SNPVersion != 0x0102 || string(r.StackBuildVersion) != "0123456789" {
		t.Fatalf("unexpected revision %+v", r)
	}
}

func TestStatus(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.GetStatusCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{srsp(cmd.GetStatusCode, 1, 2, 3, 4)}
	})

	s, err := h.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if s != (DeviceStatus{GAPRole: 1, Advertise: 2, ATT: 3, ATTMethod: 4}) {
		t.Fatalf("unexpected status %+v", s)
	}
}

func TestGapParam(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.GetGAPParamCode, func(fr npi.Frame) []npi.Frame {
		return []npi.Frame{srsp(cmd.GetGAPParamCode, cat([]byte{0}, fr.Payload[:2], le16(0x00A0))...)}
	})
	f.on(cmd.SetGAPParamCode, func(fr npi.Frame) []npi.Frame {
		return []npi.Frame{srsp(cmd.SetGAPParamCode, snp.StatusSuccess)}
	})

	v, err := h.GetGapParam(0x0010)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 0x00A0 {
		t.Fatalf("expected 0x00A0, got 0x%04X", v)
	}
	if err := h.SetGapParam(0x0010, 0x00B0); err != nil {
		t.Fatalf("set: %v", err)
	}
}
