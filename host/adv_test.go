package host

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/npi"
)

// doublePost confirms every adv data request twice, like the NP does.
func doublePost(npi.Frame) []npi.Frame {
	return []npi.Frame{
		areq(cmd.SetAdvertisementDataCode, snp.StatusSuccess),
		areq(cmd.SetAdvertisementDataCode, snp.StatusSuccess),
	}
}

func TestStopAdvertNotAdvertising(t *testing.T) {
	h, f := newTestHost(t)
	before := f.sentCount()

	for i := 0; i < 2; i++ {
		err := h.StopAdvert()
		if errors.Cause(err) != snp.ErrNotAdvertising {
			t.Fatalf("call %d: expected ErrNotAdvertising, got %v", i, err)
		}
	}
	if f.sentCount() != before {
		t.Fatalf("nothing should have been sent")
	}
	if h.IsAdvertising() {
		t.Fatalf("advertising flag changed")
	}

	// same after a full start and stop
	f.on(cmd.SetAdvertisementDataCode, doublePost)
	f.on(cmd.StartAdvertisingCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{event(evt.AdvStartedCode, snp.StatusSuccess)}
	})
	f.on(cmd.StopAdvertisingCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{event(evt.AdvEndedCode, snp.StatusSuccess)}
	})
	if err := h.StartAdvert(nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.StopAdvert(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	before = f.sentCount()
	if err := h.StopAdvert(); errors.Cause(err) != snp.ErrNotAdvertising {
		t.Fatalf("after a cycle: expected ErrNotAdvertising, got %v", err)
	}
	if n := len(f.sentWith(cmd.StopAdvertisingCode)); n != 1 || f.sentCount() != before {
		t.Fatalf("stop sent again, %d stop frames", n)
	}
}

func TestSetAdvertDataAbsorbsDuplicate(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.SetAdvertisementDataCode, doublePost)

	data := []byte{0x02, 0x01, 0x06}
	if err := h.SetAdvertData(snp.AdvConn, data); err != nil {
		t.Fatalf("set adv data: %v", err)
	}
	if _, ok := h.evts.peek(TagAdvDataRsp); ok {
		t.Fatalf("second confirmation left pending")
	}

	// the host keeps its own copy
	data[2] = 0xFF
	if got := h.AdvertData(snp.AdvConn); !bytes.Equal(got, []byte{0x02, 0x01, 0x06}) {
		t.Fatalf("unexpected stored data % X", got)
	}

	sent := f.sentWith(cmd.SetAdvertisementDataCode)
	if len(sent) != 1 || sent[0].Payload[0] != uint8(snp.AdvConn) {
		t.Fatalf("unexpected frames %v", sent)
	}

	// a following request is not satisfied by a leftover
	if err := h.SetAdvertData(snp.AdvNonConn, []byte{0x02, 0x01, 0x04}); err != nil {
		t.Fatalf("second set adv data: %v", err)
	}
}

func TestSetAdvertDataTooLong(t *testing.T) {
	h, f := newTestHost(t)
	before := f.sentCount()

	err := h.SetAdvertData(snp.AdvNonConn, make([]byte, snp.MaxAdvDataLen+1))
	if errors.Cause(err) != snp.ErrInvalidParameter {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if f.sentCount() != before {
		t.Fatalf("nothing should have been sent")
	}
}

func TestSetAdvertName(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.SetAdvertisementDataCode, doublePost)

	if err := h.SetAdvertName("sensor"); err != nil {
		t.Fatalf("set name: %v", err)
	}

	sent := f.sentWith(cmd.SetAdvertisementDataCode)
	if len(sent) != 1 {
		t.Fatalf("expected one frame, got %d", len(sent))
	}
	b := sent[0].Payload
	if b[0] != uint8(snp.AdvScanRsp) || b[1] != 7 || string(b[3:9]) != "sensor" {
		t.Fatalf("unexpected scan response % X", b)
	}
}

func TestAdvertiseLifecycle(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.SetAdvertisementDataCode, doublePost)
	f.on(cmd.StartAdvertisingCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{event(evt.AdvStartedCode, snp.StatusSuccess)}
	})
	f.on(cmd.StopAdvertisingCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{event(evt.AdvEndedCode, snp.StatusSuccess)}
	})

	if err := h.StartAdvert(nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !h.IsAdvertising() {
		t.Fatalf("not advertising")
	}

	// defaults for the non-connectable slot and the scan response
	if n := len(f.sentWith(cmd.SetAdvertisementDataCode)); n != 2 {
		t.Fatalf("expected 2 default slots set, got %d", n)
	}
	if got := h.AdvertData(snp.AdvScanRsp); !bytes.Equal(got, snp.DefaultAdvData(snp.AdvScanRsp)) {
		t.Fatalf("unexpected scan response % X", got)
	}
	start := f.sentWith(cmd.StartAdvertisingCode)
	if len(start) != 1 || start[0].Payload[0] != snp.DefaultAdvSettings.Mode {
		t.Fatalf("unexpected start frames %v", start)
	}

	if err := h.StartAdvert(nil); errors.Cause(err) != snp.ErrAlreadyAdvertising {
		t.Fatalf("expected ErrAlreadyAdvertising, got %v", err)
	}

	if err := h.StopAdvert(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if h.IsAdvertising() {
		t.Fatalf("still advertising")
	}

	// slots are only initialized once
	if err := h.StartAdvert(&snp.AdvSettings{Mode: snp.AdvModeScannable, Interval: 320}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if n := len(f.sentWith(cmd.SetAdvertisementDataCode)); n != 2 {
		t.Fatalf("slots set again, %d frames", n)
	}
}

func TestStartAdvertRejected(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.SetAdvertisementDataCode, doublePost)
	f.on(cmd.StartAdvertisingCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{event(evt.AdvStartedCode, snp.StatusInvalidParams)}
	})

	err := h.StartAdvert(nil)
	if snp.KindOf(err) != snp.KindRemoteRejected {
		t.Fatalf("expected remote rejected, got %v", err)
	}
	if h.IsAdvertising() {
		t.Fatalf("advertising after rejection")
	}
}
