package host

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/npi"
)

var errTest = errors.New("test error")

func TestInitWithPowerUp(t *testing.T) {
	h, f := newTestHost(t)

	if n := len(f.sentWith(cmd.HCICommandCode)); n != 0 {
		t.Fatalf("NP announced itself, expected no reset, got %d", n)
	}
	if h.ConnHandle() != snp.InvalidConnHandle || h.IsConnected() || h.IsAdvertising() {
		t.Fatalf("unexpected initial state %+v", h.Conn())
	}
	if h.MTU() != DefaultMTU {
		t.Fatalf("expected mtu %d, got %d", DefaultMTU, h.MTU())
	}
}

func TestInitResetsSilentNP(t *testing.T) {
	f := newFakeNP()
	f.on(cmd.HCICommandCode, func(npi.Frame) []npi.Frame { return []npi.Frame{powerUp()} })

	h, err := New(snp.OptTransport(f), snp.OptTimeout(testTimeout))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer h.Close()

	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	sent := f.sentWith(cmd.HCICommandCode)
	if len(sent) != 1 {
		t.Fatalf("expected one reset, got %d", len(sent))
	}
	if op := binary.LittleEndian.Uint16(sent[0].Payload); op != cmd.ResetOpcode {
		t.Fatalf("expected reset opcode, got 0x%04X", op)
	}
}

func TestConnectionLifecycle(t *testing.T) {
	h, f := newTestHost(t)
	connect(t, h, f)

	c := h.Conn()
	if !c.Connected || c.Handle != 0x0000 {
		t.Fatalf("unexpected conn %+v", c)
	}
	if c.Params != (snp.ConnParams{Interval: 80, Latency: 0, SupervisionTimeout: 600}) {
		t.Fatalf("unexpected params %+v", c.Params)
	}
	if c.PeerAddr != "11:22:33:44:55:66" {
		t.Fatalf("unexpected peer %s", c.PeerAddr)
	}

	f.inject(connTerminated(0x0000, 0x13))
	if _, err := h.Wait(TagConnTerminated, time.Second); err != nil {
		t.Fatalf("wait terminated: %v", err)
	}
	if h.IsConnected() || h.ConnHandle() != snp.InvalidConnHandle {
		t.Fatalf("expected disconnected, got %+v", h.Conn())
	}
}

func TestTerminateConnNotConnected(t *testing.T) {
	h, f := newTestHost(t)
	before := f.sentCount()

	err := h.TerminateConn()
	if errors.Cause(err) != snp.ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if snp.KindOf(err) != snp.KindPrecondition {
		t.Fatalf("expected precondition kind, got %v", snp.KindOf(err))
	}
	if errors.Cause(h.LastError()) != snp.ErrNotConnected {
		t.Fatalf("last error not recorded: %v", h.LastError())
	}
	if f.sentCount() != before {
		t.Fatalf("nothing should have been sent")
	}
}

func TestTerminateConn(t *testing.T) {
	h, f := newTestHost(t)
	connect(t, h, f)

	f.on(cmd.TerminateConnCode, func(fr npi.Frame) []npi.Frame {
		return []npi.Frame{connTerminated(binary.LittleEndian.Uint16(fr.Payload), 0x16)}
	})
	if err := h.TerminateConn(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if h.IsConnected() {
		t.Fatalf("still connected")
	}
	if h.LastError() != nil {
		t.Fatalf("unexpected last error %v", h.LastError())
	}
}

func TestTimeoutLeavesStateUnchanged(t *testing.T) {
	h, f := newTestHost(t)
	connect(t, h, f)
	before := h.Conn()

	err := h.SetConnParams(snp.ConnUpdateRequest{
		Handle:             before.Handle,
		IntervalMin:        24,
		IntervalMax:        40,
		Latency:            0,
		SupervisionTimeout: 400,
	})
	if snp.KindOf(err) != snp.KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !errors.Is(err, snp.ErrTimeout) {
		t.Fatalf("expected errors.Is ErrTimeout, got %v", err)
	}
	if h.Conn() != before {
		t.Fatalf("state changed: %+v -> %+v", before, h.Conn())
	}
	if snp.KindOf(h.LastError()) != snp.KindTimeout {
		t.Fatalf("last error should be the timeout, got %v", h.LastError())
	}
}

func TestSetConnParams(t *testing.T) {
	h, f := newTestHost(t)
	connect(t, h, f)

	f.on(cmd.UpdateConnParamsCode, func(fr npi.Frame) []npi.Frame {
		return []npi.Frame{
			areq(cmd.UpdateConnParamsCode, snp.StatusSuccess),
			event(evt.ConnParamUpdatedCode, cat(le16(0), le16(40), le16(0), le16(400))...),
		}
	})

	if err := h.SetConnParams(snp.ConnUpdateRequest{
		IntervalMin:        24,
		IntervalMax:        40,
		SupervisionTimeout: 400,
	}); err != nil {
		t.Fatalf("set conn params: %v", err)
	}
	if _, err := h.Wait(TagConnParamsUpdated, time.Second); err != nil {
		t.Fatalf("wait update: %v", err)
	}
	if p := h.Conn().Params; p.Interval != 40 || p.SupervisionTimeout != 400 {
		t.Fatalf("params not applied: %+v", p)
	}
}

func TestSetConnParamsInvalid(t *testing.T) {
	h, f := newTestHost(t)
	connect(t, h, f)
	before := f.sentCount()

	err := h.SetConnParams(snp.ConnUpdateRequest{IntervalMin: 40, IntervalMax: 24, SupervisionTimeout: 400})
	if errors.Cause(err) != snp.ErrInvalidParameter {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if f.sentCount() != before {
		t.Fatalf("nothing should have been sent")
	}
}

func TestSetSingleConnParam(t *testing.T) {
	h, f := newTestHost(t)
	connect(t, h, f)
	f.on(cmd.UpdateConnParamsCode, always(cmd.UpdateConnParamsCode))

	if err := h.SetBleTimeout(1000); err != nil {
		t.Fatalf("set timeout: %v", err)
	}

	sent := f.sentWith(cmd.UpdateConnParamsCode)
	if len(sent) != 1 {
		t.Fatalf("expected one request, got %d", len(sent))
	}
	b := sent[0].Payload
	if min := binary.LittleEndian.Uint16(b[2:]); min != snp.DefaultDesiredMinConnInt {
		t.Fatalf("expected default min interval, got %d", min)
	}
	if max := binary.LittleEndian.Uint16(b[4:]); max != snp.DefaultDesiredMaxConnInt {
		t.Fatalf("expected default max interval, got %d", max)
	}
	if lat := binary.LittleEndian.Uint16(b[6:]); lat != 0 {
		t.Fatalf("expected current latency 0, got %d", lat)
	}
	if to := binary.LittleEndian.Uint16(b[8:]); to != 1000 {
		t.Fatalf("expected timeout 1000, got %d", to)
	}
}

func TestBusy(t *testing.T) {
	h, f := newTestHost(t)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.on(cmd.GetRandCode, func(npi.Frame) []npi.Frame {
		close(entered)
		<-proceed
		return []npi.Frame{srsp(cmd.GetRandCode, 0x78, 0x56, 0x34, 0x12)}
	})

	var wg sync.WaitGroup
	var v uint32
	var rerr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, rerr = h.Rand()
	}()

	<-entered
	if _, err := h.Status(); err != snp.ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(proceed)
	wg.Wait()

	if rerr != nil {
		t.Fatalf("rand: %v", rerr)
	}
	if v != 0x12345678 {
		t.Fatalf("expected 0x12345678, got 0x%08X", v)
	}
}

func TestRemoteRejected(t *testing.T) {
	h, f := newTestHost(t)
	f.on(cmd.SetWhiteListPolicyCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{areq(cmd.SetWhiteListPolicyCode, snp.StatusCommandRejected)}
	})

	err := h.UseWhiteListPolicy(snp.WhiteListEnabled)
	se, ok := errors.Cause(err).(*snp.StatusError)
	if !ok {
		t.Fatalf("expected a status error, got %v", err)
	}
	if se.Status != snp.StatusCommandRejected || se.Unsolicited {
		t.Fatalf("unexpected status error %+v", se)
	}
	if snp.KindOf(err) != snp.KindRemoteRejected {
		t.Fatalf("expected remote rejected, got %v", snp.KindOf(err))
	}
}

func TestUnsolicitedError(t *testing.T) {
	handled := make(chan error, 1)
	h, f := newTestHost(t, snp.OptErrorHandler(func(err error) { handled <- err }))

	f.inject(event(evt.ErrorCode, append(le16(0xFC1D), snp.StatusHCIRspCollision)...))

	select {
	case err := <-handled:
		if snp.KindOf(err) != snp.KindRemoteUnsolicited {
			t.Fatalf("expected unsolicited kind, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("error handler not called")
	}

	se, ok := h.LastError().(*snp.StatusError)
	if !ok || !se.Unsolicited || se.Opcode != 0xFC1D {
		t.Fatalf("expected the unsolicited error as last error, got %v", h.LastError())
	}
	if h.LastOpcode() != 0xFC1D {
		t.Fatalf("expected last opcode 0xFC1D, got 0x%04X", h.LastOpcode())
	}

	// the next request starts clean
	f.on(cmd.GetRandCode, func(npi.Frame) []npi.Frame {
		return []npi.Frame{srsp(cmd.GetRandCode, 1, 0, 0, 0)}
	})
	if _, err := h.Rand(); err != nil {
		t.Fatalf("rand after unsolicited error: %v", err)
	}
	if h.LastError() != nil {
		t.Fatalf("expected no last error, got %v", h.LastError())
	}
}

func TestTransportRejected(t *testing.T) {
	h, f := newTestHost(t)
	f.mu.Lock()
	f.sendErr = errTest
	f.mu.Unlock()

	_, err := h.Rand()
	if snp.KindOf(err) != snp.KindTransportRejected {
		t.Fatalf("expected transport rejected, got %v", err)
	}
	if errors.Cause(err) != errTest {
		t.Fatalf("expected the transport's error as cause, got %v", errors.Cause(err))
	}
}

func TestStaleCompletionDropped(t *testing.T) {
	h, f := newTestHost(t)

	// a confirmation nobody asked for
	f.inject(areq(cmd.SetWhiteListPolicyCode, snp.StatusSuccess))
	waitUntil(t, "stale confirmation", func() bool {
		_, ok := h.evts.peek(TagWhiteListRsp)
		return ok
	})

	err := h.UseWhiteListPolicy(snp.WhiteListDisabled)
	if snp.KindOf(err) != snp.KindTimeout {
		t.Fatalf("stale confirmation completed the request: %v", err)
	}
}

func TestClosedHost(t *testing.T) {
	h, _ := newTestHost(t)
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := h.Rand(); err != snp.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCloseWakesWaiter(t *testing.T) {
	h, _ := newTestHost(t)

	got := make(chan error)
	go func() {
		_, err := h.Wait(TagConnEstablished, 5*time.Second)
		got <- err
	}()

	time.Sleep(20 * time.Millisecond)
	h.Close()

	select {
	case err := <-got:
		if err != snp.ErrClosed {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("wait not ended by close")
	}
}
