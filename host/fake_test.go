package host

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/rigado/snp"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/npi"
)

const testTimeout = 150 * time.Millisecond

// fakeNP is a scripted transport. Replies are delivered on one goroutine,
// in order, like the real port does.
type fakeNP struct {
	mu          sync.Mutex
	handler     npi.Handler
	sent        []npi.Frame
	reply       map[byte]func(f npi.Frame) []npi.Frame
	sendErr     error
	onSubscribe func()

	rx   chan npi.Frame
	done chan struct{}
	once sync.Once
}

func newFakeNP() *fakeNP {
	f := &fakeNP{
		reply: map[byte]func(npi.Frame) []npi.Frame{},
		rx:    make(chan npi.Frame, 64),
		done:  make(chan struct{}),
	}
	go f.deliverLoop()
	return f
}

func (f *fakeNP) Send(fr npi.Frame) error {
	f.mu.Lock()
	if f.sendErr != nil {
		err := f.sendErr
		f.mu.Unlock()
		return err
	}
	f.sent = append(f.sent, fr)
	fn := f.reply[fr.Cmd1]
	f.mu.Unlock()

	if fn != nil {
		for _, r := range fn(fr) {
			f.inject(r)
		}
	}
	return nil
}

func (f *fakeNP) Subscribe(h npi.Handler) {
	f.mu.Lock()
	f.handler = h
	fn := f.onSubscribe
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (f *fakeNP) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeNP) inject(fr npi.Frame) {
	select {
	case f.rx <- fr:
	case <-f.done:
	}
}

func (f *fakeNP) deliverLoop() {
	for {
		select {
		case fr := <-f.rx:
			f.mu.Lock()
			h := f.handler
			f.mu.Unlock()
			if h != nil {
				h(fr)
			}
		case <-f.done:
			return
		}
	}
}

func (f *fakeNP) on(cmd1 byte, fn func(npi.Frame) []npi.Frame) {
	f.mu.Lock()
	f.reply[cmd1] = fn
	f.mu.Unlock()
}

// sentWith returns the frames sent so far with the given cmd1.
func (f *fakeNP) sentWith(cmd1 byte) []npi.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []npi.Frame
	for _, fr := range f.sent {
		if fr.Cmd1 == cmd1 {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeNP) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func areq(cmd1 byte, payload ...byte) npi.Frame {
	return npi.Frame{Cmd0: npi.TypeAREQ, Cmd1: cmd1, Payload: payload}
}

func srsp(cmd1 byte, payload ...byte) npi.Frame {
	return npi.Frame{Cmd0: npi.TypeSRSP, Cmd1: cmd1, Payload: payload}
}

func event(code uint16, body ...byte) npi.Frame {
	b := make([]byte, 2, 2+len(body))
	binary.LittleEndian.PutUint16(b, code)
	return areq(evt.EventInd, append(b, body...)...)
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func powerUp() npi.Frame { return areq(evt.PowerUpInd) }

func connEstablished(handle, interval, latency, timeout uint16) npi.Frame {
	return event(evt.ConnEstablishedCode, cat(
		le16(handle), le16(interval), le16(latency), le16(timeout),
		[]byte{snp.AddrTypePublic, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11},
	)...)
}

func connTerminated(handle uint16, reason uint8) npi.Frame {
	return event(evt.ConnTerminatedCode, append(le16(handle), reason)...)
}

func mtuUpdated(handle, mtu uint16) npi.Frame {
	return event(evt.ATTMTUUpdatedCode, cat(le16(handle), le16(mtu))...)
}

// always answers every request with cmd1 with a success status.
func always(cmd1 byte) func(npi.Frame) []npi.Frame {
	return func(npi.Frame) []npi.Frame { return []npi.Frame{areq(cmd1, snp.StatusSuccess)} }
}

// newTestHost returns an initialized host talking to a fresh fake NP.
func newTestHost(t *testing.T, opts ...snp.Option) (*Host, *fakeNP) {
	t.Helper()

	f := newFakeNP()
	f.onSubscribe = func() { f.inject(powerUp()) }

	opts = append([]snp.Option{snp.OptTransport(f), snp.OptTimeout(testTimeout)}, opts...)
	h, err := New(opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h, f
}

// connect drives the host into a connection and waits for it.
func connect(t *testing.T, h *Host, f *fakeNP) {
	t.Helper()
	f.inject(connEstablished(0x0000, 80, 0, 600))
	if _, err := h.Wait(TagConnEstablished, time.Second); err != nil {
		t.Fatalf("wait conn: %v", err)
	}
}

// waitUntil polls cond for up to a second.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var _ npi.Transport = (*fakeNP)(nil)
