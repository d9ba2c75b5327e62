// Package npsim simulates a network processor on the other end of an NPI
// byte stream. It answers requests the way the NP firmware does, including
// the double confirmation of advertisement data, and lets a test or a demo
// play the peer: connect, subscribe, pair and disconnect.
package npsim

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/advdata"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/npi"
)

// Pairing states reported in security state events.
const (
	PairingStarted   = 0x00
	PairingComplete  = 0x01
	PairingBonded    = 0x02
	PairingBondSaved = 0x03
)

// NumCmpFailed is the status of a pairing rejected by the user.
const NumCmpFailed = 0x0C

// ReadBDAddrOpcode is the one HCI command the simulator implements besides reset.
const ReadBDAddrOpcode = 0x1009

const (
	outQueueSize      = 64
	gapRolePeripheral = 0x04
)

// Config describes the simulated device.
type Config struct {
	Addr         snp.Addr
	SNPVersion   uint16
	BuildVersion [10]byte
	// MTU is the ATT MTU negotiated after a connection, 0 keeps the default.
	MTU uint16
	// Rand produces the values returned to GetRand. Defaults to a counter.
	Rand func() uint32
}

// Notification is one SendNotifInd received from the host.
type Notification struct {
	AttrHandle uint16
	Type       uint8
	Data       []byte
}

// NP is the simulated device. It implements io.ReadWriteCloser so it can sit
// under npi.NewPort like a serial line.
type NP struct {
	cfg    Config
	logger snp.Logger

	asm *npi.Assembler

	out     chan []byte
	pending []byte // unread part of the current out frame
	rmu     sync.Mutex

	done chan struct{}
	once sync.Once

	mu          sync.Mutex
	advertising bool
	advData     [3][]byte
	connected   bool
	connHandle  uint16
	params      snp.ConnParams
	gapParams   map[uint16]uint16
	secParams   map[uint8][]byte
	whiteList   uint8
	answers     []uint32
	notifs      []Notification
	cccdCnfs    int
	secRequests int
	failures    map[byte]uint8
	pairing     *pairing
	randCount   uint32
}

// New returns a powered but silent NP: like one that was already running,
// it only announces itself after a reset or PowerUp.
func New(cfg Config) *NP {
	n := &NP{
		cfg:       cfg,
		logger:    snp.GetLogger().ChildLogger(map[string]interface{}{"npsim": cfg.Addr.String()}),
		out:       make(chan []byte, outQueueSize),
		done:      make(chan struct{}),
		gapParams: map[uint16]uint16{},
		secParams: map[uint8][]byte{},
		failures:  map[byte]uint8{},
	}
	n.asm = npi.NewAssembler(n.handle, func(err error) {
		n.logger.Warnf("bad frame from host: %v", err)
	})
	return n
}

// Transport wraps the simulator in an NPI port. The NP powers up as soon as
// the host subscribes.
func (n *NP) Transport(l npi.Logger) npi.Transport {
	return &transport{Transport: npi.NewPort(n, l, nil), np: n}
}

type transport struct {
	npi.Transport
	np *NP
}

func (t *transport) Subscribe(h npi.Handler) {
	t.Transport.Subscribe(h)
	t.np.PowerUp()
}

// Read returns bytes of the frames the NP sends, blocking until one is ready.
func (n *NP) Read(b []byte) (int, error) {
	n.rmu.Lock()
	defer n.rmu.Unlock()

	if len(n.pending) == 0 {
		select {
		case f := <-n.out:
			n.pending = f
		case <-n.done:
			return 0, io.EOF
		}
	}

	c := copy(b, n.pending)
	n.pending = n.pending[c:]
	return c, nil
}

// Write takes bytes from the host. Complete frames are answered before Write
// returns.
func (n *NP) Write(b []byte) (int, error) {
	select {
	case <-n.done:
		return 0, io.ErrClosedPipe
	default:
	}

	n.asm.Assemble(b)
	return len(b), nil
}

func (n *NP) Close() error {
	n.once.Do(func() { close(n.done) })
	return nil
}

func (n *NP) emit(f npi.Frame) {
	b, err := f.Marshal()
	if err != nil {
		n.logger.Errorf("can't marshal %v: %v", f, err)
		return
	}
	select {
	case n.out <- b:
	case <-n.done:
	}
}

func (n *NP) emitStatus(cmd1 byte, status uint8) {
	n.emit(areq(cmd1, status))
}

func (n *NP) emitEvent(code uint16, body ...byte) {
	b := make([]byte, 2, 2+len(body))
	binary.LittleEndian.PutUint16(b, code)
	n.emit(areq(evt.EventInd, append(b, body...)...))
}

func areq(cmd1 byte, payload ...byte) npi.Frame {
	return npi.Frame{Cmd0: npi.TypeAREQ, Cmd1: cmd1, Payload: payload}
}

func srsp(cmd1 byte, payload ...byte) npi.Frame {
	return npi.Frame{Cmd0: npi.TypeSRSP, Cmd1: cmd1, Payload: payload}
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Fail makes the next request with cmd1 fail with status.
func (n *NP) Fail(cmd1 byte, status uint8) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures[cmd1] = status
}

func (n *NP) takeFailure(cmd1 byte) (uint8, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.failures[cmd1]
	delete(n.failures, cmd1)
	return st, ok
}

// PowerUp announces the NP to the host.
func (n *NP) PowerUp() {
	n.emit(areq(evt.PowerUpInd))
}

// handle answers one request. It runs on the host's writing goroutine.
func (n *NP) handle(f npi.Frame) {
	n.logger.Debugf("rx %v", f)

	if st, ok := n.takeFailure(f.Cmd1); ok {
		n.reject(f, st)
		return
	}

	var err error
	switch f.Cmd1 {
	case cmd.HCICommandCode:
		err = n.onHCICommand(f.Payload)
	case cmd.TestCode:
		n.emit(areq(cmd.TestCode, append(append(le16(512), le16(1024)...), le16(4096)...)...))
	case cmd.GetRevisionCode:
		b := append([]byte{snp.StatusSuccess}, le16(n.cfg.SNPVersion)...)
		n.emit(srsp(cmd.GetRevisionCode, append(b, n.cfg.BuildVersion[:]...)...))
	case cmd.GetStatusCode:
		n.mu.Lock()
		adv := boolByte(n.advertising)
		n.mu.Unlock()
		n.emit(srsp(cmd.GetStatusCode, gapRolePeripheral, adv, 0, 0))
	case cmd.GetRandCode:
		n.emit(srsp(cmd.GetRandCode, le32(n.rand())...))

	case cmd.SetAdvertisementDataCode:
		err = n.onSetAdvData(f.Payload)
	case cmd.StartAdvertisingCode:
		n.onStartAdvertising()
	case cmd.StopAdvertisingCode:
		n.onStopAdvertising()
	case cmd.UpdateConnParamsCode:
		err = n.onUpdateConnParams(f.Payload)
	case cmd.TerminateConnCode:
		n.Disconnect(0x16)
	case cmd.SetGAPParamCode, cmd.GetGAPParamCode:
		err = n.onGAPParam(f.Cmd1, f.Payload)
	case cmd.SetSecurityParamCode:
		err = n.onSetSecurityParam(f.Payload)
	case cmd.SendSecurityRequestCode:
		n.mu.Lock()
		n.secRequests++
		n.mu.Unlock()
	case cmd.SetAuthenticationDataCode:
		err = n.onAuthenticationData(f.Payload)
	case cmd.SetWhiteListPolicyCode:
		err = n.onWhiteListPolicy(f.Payload)

	case cmd.SendNotifIndCode:
		err = n.onSendNotifInd(f.Payload)
	case cmd.CCCDUpdatedCnfCode:
		n.mu.Lock()
		n.cccdCnfs++
		n.mu.Unlock()

	default:
		n.emitEvent(evt.ErrorCode, append(le16(uint16(f.Cmd0)<<8|uint16(f.Cmd1)), snp.StatusHCICmdUnknown)...)
	}

	if err != nil {
		n.logger.Warnf("cmd1 0x%02X: %v", f.Cmd1, err)
		n.reject(f, snp.StatusInvalidParams)
	}
}

// reject answers f with a failure status in whatever shape its normal
// response has.
func (n *NP) reject(f npi.Frame, status uint8) {
	switch f.Cmd1 {
	case cmd.HCICommandCode:
		var op uint16
		if len(f.Payload) >= 2 {
			op = binary.LittleEndian.Uint16(f.Payload)
		}
		n.emit(areq(cmd.HCICommandCode, append([]byte{status}, le16(op)...)...))
	case cmd.GetRevisionCode:
		n.emit(srsp(f.Cmd1, status, 0, 0))
	case cmd.StartAdvertisingCode:
		n.emitEvent(evt.AdvStartedCode, status)
	case cmd.StopAdvertisingCode:
		n.emitEvent(evt.AdvEndedCode, status)
	case cmd.SetGAPParamCode, cmd.GetGAPParamCode:
		n.emit(areq(f.Cmd1, status, 0, 0))
	case cmd.TerminateConnCode, cmd.SendSecurityRequestCode, cmd.GetStatusCode,
		cmd.GetRandCode, cmd.TestCode, cmd.CCCDUpdatedCnfCode:
		op := uint16(f.Cmd0)<<8 | uint16(f.Cmd1)
		n.emitEvent(evt.ErrorCode, append(le16(op), status)...)
	default:
		n.emitStatus(f.Cmd1, status)
	}
}

func (n *NP) rand() uint32 {
	if n.cfg.Rand != nil {
		return n.cfg.Rand()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.randCount++
	return n.randCount * 2654435761
}

func (n *NP) onHCICommand(b []byte) error {
	if len(b) < 2 {
		return errors.New("hci command too short")
	}
	op := binary.LittleEndian.Uint16(b)

	switch op {
	case cmd.ResetOpcode:
		n.reset()
		n.PowerUp()
	case ReadBDAddrOpcode:
		rsp := append([]byte{snp.StatusSuccess}, le16(op)...)
		n.emit(areq(cmd.HCICommandCode, append(rsp, n.cfg.Addr.Bytes[:]...)...))
	default:
		n.emit(areq(cmd.HCICommandCode, append([]byte{snp.StatusHCICmdUnknown}, le16(op)...)...))
	}
	return nil
}

func (n *NP) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.advertising = false
	n.advData = [3][]byte{}
	n.connected = false
	n.pairing = nil
}

func (n *NP) onSetAdvData(b []byte) error {
	if len(b) < 1 || !snp.AdvType(b[0]).Valid() {
		return errors.New("bad adv data type")
	}
	if len(b)-1 > snp.MaxAdvDataLen {
		return errors.Errorf("adv data too long: %d", len(b)-1)
	}

	n.mu.Lock()
	n.advData[b[0]] = append([]byte(nil), b[1:]...)
	n.mu.Unlock()

	// the firmware confirms adv data twice
	n.emitStatus(cmd.SetAdvertisementDataCode, snp.StatusSuccess)
	n.emitStatus(cmd.SetAdvertisementDataCode, snp.StatusSuccess)
	return nil
}

func (n *NP) onStartAdvertising() {
	n.mu.Lock()
	already := n.advertising
	n.advertising = true
	n.mu.Unlock()

	if already {
		n.emitEvent(evt.AdvStartedCode, snp.StatusAlreadyAdvertising)
		return
	}
	n.emitEvent(evt.AdvStartedCode, snp.StatusSuccess)
}

func (n *NP) onStopAdvertising() {
	n.mu.Lock()
	was := n.advertising
	n.advertising = false
	n.mu.Unlock()

	if !was {
		n.emitEvent(evt.AdvEndedCode, snp.StatusNotAdvertising)
		return
	}
	n.emitEvent(evt.AdvEndedCode, snp.StatusSuccess)
}

func (n *NP) onUpdateConnParams(b []byte) error {
	if len(b) < 10 {
		return errors.New("conn params too short")
	}

	n.mu.Lock()
	if !n.connected {
		n.mu.Unlock()
		n.emitStatus(cmd.UpdateConnParamsCode, snp.StatusNotConnected)
		return nil
	}
	n.params = snp.ConnParams{
		Interval:           binary.LittleEndian.Uint16(b[4:]),
		Latency:            binary.LittleEndian.Uint16(b[6:]),
		SupervisionTimeout: binary.LittleEndian.Uint16(b[8:]),
	}
	p, h := n.params, n.connHandle
	n.mu.Unlock()

	n.emitStatus(cmd.UpdateConnParamsCode, snp.StatusSuccess)
	n.emitEvent(evt.ConnParamUpdatedCode, connParamsBody(h, p)...)
	return nil
}

func (n *NP) onGAPParam(cmd1 byte, b []byte) error {
	if len(b) < 2 {
		return errors.New("gap param too short")
	}
	id := binary.LittleEndian.Uint16(b)

	n.mu.Lock()
	if cmd1 == cmd.SetGAPParamCode {
		if len(b) < 4 {
			n.mu.Unlock()
			return errors.New("gap param value missing")
		}
		n.gapParams[id] = binary.LittleEndian.Uint16(b[2:])
	}
	v := n.gapParams[id]
	n.mu.Unlock()

	rsp := append([]byte{snp.StatusSuccess}, le16(id)...)
	n.emit(areq(cmd1, append(rsp, le16(v)...)...))
	return nil
}

func (n *NP) onSetSecurityParam(b []byte) error {
	if len(b) < 1 {
		return errors.New("security param id missing")
	}

	n.mu.Lock()
	n.secParams[b[0]] = append([]byte(nil), b[1:]...)
	n.mu.Unlock()

	n.emitStatus(cmd.SetSecurityParamCode, snp.StatusSuccess)
	return nil
}

func (n *NP) onWhiteListPolicy(b []byte) error {
	if len(b) < 1 || b[0] > snp.WhiteListEnabled {
		return errors.New("bad white list policy")
	}

	n.mu.Lock()
	n.whiteList = b[0]
	n.mu.Unlock()

	n.emitStatus(cmd.SetWhiteListPolicyCode, snp.StatusSuccess)
	return nil
}

func (n *NP) onSendNotifInd(b []byte) error {
	if len(b) < 6 {
		return errors.New("notif/ind too short")
	}

	n.mu.Lock()
	connected := n.connected
	if connected {
		n.notifs = append(n.notifs, Notification{
			AttrHandle: binary.LittleEndian.Uint16(b[2:]),
			Type:       b[5],
			Data:       append([]byte(nil), b[6:]...),
		})
	}
	n.mu.Unlock()

	// for an indication this stands for the peer's confirmation
	if !connected {
		n.emitStatus(cmd.SendNotifIndCode, snp.StatusNotifIndNotConnected)
	} else {
		n.emitStatus(cmd.SendNotifIndCode, snp.StatusSuccess)
	}
	return nil
}

// Connect plays a central connecting with the default parameters, followed
// by an MTU exchange if the config asks for one.
func (n *NP) Connect(peer snp.Addr) {
	p := snp.ConnParams{Interval: 80, Latency: 0, SupervisionTimeout: 600}

	n.mu.Lock()
	n.connected = true
	n.advertising = false
	n.params = p
	h := n.connHandle
	n.mu.Unlock()

	body := connParamsBody(h, p)
	body = append(body, peer.Type)
	body = append(body, peer.Bytes[:]...)
	n.emitEvent(evt.ConnEstablishedCode, body...)

	if n.cfg.MTU != 0 {
		n.emitEvent(evt.ATTMTUUpdatedCode, append(le16(h), le16(n.cfg.MTU)...)...)
	}
}

// Disconnect ends the connection with the given reason.
func (n *NP) Disconnect(reason uint8) {
	n.mu.Lock()
	if !n.connected {
		n.mu.Unlock()
		n.emitEvent(evt.ErrorCode, append(le16(uint16(npi.TypeAREQ)<<8|cmd.TerminateConnCode), snp.StatusNotConnected)...)
		return
	}
	n.connected = false
	n.pairing = nil
	h := n.connHandle
	n.connHandle++
	n.mu.Unlock()

	n.emitEvent(evt.ConnTerminatedCode, append(le16(h), reason)...)
}

// Subscribe plays the peer writing a CCCD. The host has to confirm it.
func (n *NP) Subscribe(cccdHandle, value uint16) {
	n.mu.Lock()
	h := n.connHandle
	n.mu.Unlock()

	b := append(le16(h), le16(cccdHandle)...)
	b = append(b, 1)
	n.emit(areq(evt.CCCDUpdatedInd, append(b, le16(value)...)...))
}

func connParamsBody(h uint16, p snp.ConnParams) []byte {
	b := le16(h)
	b = append(b, le16(p.Interval)...)
	b = append(b, le16(p.Latency)...)
	return append(b, le16(p.SupervisionTimeout)...)
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// Accessors for what the host told the NP.

func (n *NP) IsAdvertising() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.advertising
}

func (n *NP) AdvData(t snp.AdvType) []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !t.Valid() {
		return nil
	}
	return append([]byte(nil), n.advData[t]...)
}

// AdvName returns the local name a scanner would see.
func (n *NP) AdvName() string {
	for _, t := range []snp.AdvType{snp.AdvScanRsp, snp.AdvConn, snp.AdvNonConn} {
		p, err := advdata.Parse(n.AdvData(t))
		if err != nil {
			continue
		}
		if name := p.LocalName(); name != "" {
			return name
		}
	}
	return ""
}

func (n *NP) ConnParams() snp.ConnParams {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.params
}

func (n *NP) GAPParam(id uint16) uint16 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gapParams[id]
}

func (n *NP) SecurityParam(id uint8) []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]byte(nil), n.secParams[id]...)
}

func (n *NP) WhiteListPolicy() uint8 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.whiteList
}

func (n *NP) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notifs...)
}

func (n *NP) CCCDConfirmations() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cccdCnfs
}

func (n *NP) SecurityRequests() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.secRequests
}

// Answers returns the authentication data the host sent, in order.
func (n *NP) Answers() []uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint32(nil), n.answers...)
}
