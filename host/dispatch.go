package host

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/npi"
)

// handleFrame is the transport subscription. It runs on the transport's
// delivery goroutine, one frame at a time.
func (h *Host) handleFrame(f npi.Frame) {
	switch f.Group() {
	case npi.GroupDevice, npi.GroupGAP, npi.GroupGATT:
	default:
		h.logger.Debugf("ignoring frame in unknown group: %v", f)
		return
	}

	fn, ok := h.msgh[f.Cmd1]
	if !ok {
		h.logger.Debugf("ignoring unhandled frame: %v", f)
		return
	}

	if err := fn(f.Payload); err != nil {
		h.logger.Warnf("handle cmd1 0x%02X: %v", f.Cmd1, err)
	}
}

func (h *Host) handleEventIndication(b []byte) error {
	e := evt.EventIndication(b)
	code, err := e.CodeWErr()
	if err != nil {
		return errors.Wrap(err, "event indication")
	}

	fn, ok := h.evth[code]
	if !ok {
		h.logger.Debugf("ignoring unhandled event 0x%04X", code)
		return nil
	}
	return fn(e.Body())
}

// postError reports a failure status in place of a completion tag.
func (h *Host) postError(op string, status uint8, opcode uint16, unsolicited bool) {
	err := &snp.StatusError{Op: op, Status: status, Opcode: opcode, Unsolicited: unsolicited}
	h.logger.Warnf("%v", err)
	h.evts.post(TagError, err)
}

// statusHandler builds the handler for responses that carry only a status.
func (h *Host) statusHandler(op string, tag Tag) handlerFn {
	return func(b []byte) error {
		st, err := evt.Status(b).StatusWErr()
		if err != nil {
			return errors.Wrap(err, op)
		}
		if st != snp.StatusSuccess {
			h.postError(op, st, 0, false)
			return nil
		}
		h.evts.post(tag, nil)
		return nil
	}
}

// deliverPayload attaches b to tag and holds the delivery goroutine until
// the application has copied it, or the timeout passes. No later message is
// dispatched in the meantime.
func (h *Host) deliverPayload(op string, tag Tag, b []byte) {
	h.evts.drain(TagPayloadCopied)
	h.evts.post(tag, b)

	if p := h.evts.pend(TagPayloadCopied, h.timeout); p.Tags == 0 && !p.Closed {
		h.logger.Debugf("%s: payload not consumed within %v", op, h.timeout)
	}
}

func (h *Host) handlePowerUp(b []byte) error {
	h.logger.Info("NP power up")
	h.evts.post(TagPowerUp, nil)
	return nil
}

func (h *Host) handleHCICommandResponse(b []byte) error {
	r := evt.HCICommandResponse(b)
	st, err := r.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "hci command response")
	}
	opcode := r.Opcode()

	h.st.mu.Lock()
	h.st.opcode = opcode
	h.st.mu.Unlock()

	if st != snp.StatusSuccess {
		h.postError("hci command response", st, opcode, false)
		return nil
	}
	h.deliverPayload("hci command response", TagHCIRsp, b)
	return nil
}

func (h *Host) handleTestResponse(b []byte) error {
	r := evt.TestResponse(b)
	if _, err := r.MemSizeWErr(); err != nil {
		return errors.Wrap(err, "test response")
	}
	h.logger.Debugf("test response: memAlo %d memMax %d memSize %d", r.MemAlo(), r.MemMax(), r.MemSize())

	// no status in this response
	h.deliverPayload("test response", TagTestRsp, b)
	return nil
}

func (h *Host) handleRevisionResponse(b []byte) error {
	r := evt.RevisionResponse(b)
	st, err := r.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "revision response")
	}
	if st != snp.StatusSuccess {
		h.postError("revision response", st, 0, false)
		return nil
	}
	h.evts.post(TagRevisionRsp, b)
	return nil
}

func (h *Host) handleStatusResponse(b []byte) error {
	if _, err := evt.StatusResponse(b).ATTMethodWErr(); err != nil {
		return errors.Wrap(err, "status response")
	}
	h.evts.post(TagStatusRsp, b)
	return nil
}

func (h *Host) handleRandResponse(b []byte) error {
	v, err := evt.RandResponse(b).ValueWErr()
	if err != nil {
		return errors.Wrap(err, "rand response")
	}
	h.evts.post(TagRandRsp, v)
	return nil
}

func (h *Host) handleGAPParamResponse(b []byte) error {
	r := evt.GAPParamResponse(b)
	st, err := r.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "gap param response")
	}
	if st != snp.StatusSuccess {
		h.postError("gap param response", st, 0, false)
		return nil
	}
	// a set response has no value
	v, _ := r.ValueWErr()
	h.evts.post(TagGAPParamRsp, v)
	return nil
}

// handleNotifIndCnf consumes the status of notification chunks still
// outstanding. Anything else is an indication confirmation.
func (h *Host) handleNotifIndCnf(b []byte) error {
	st, err := evt.Status(b).StatusWErr()
	if err != nil {
		return errors.Wrap(err, "notif/ind cnf")
	}

	h.notifMu.Lock()
	if h.notifPending == 0 {
		h.notifMu.Unlock()
		return h.statusHandler("send indication", TagNotifIndCnf)(b)
	}
	h.notifPending--
	if h.notifPending == 0 {
		h.evts.post(TagNotifSettled, nil)
	}
	h.notifMu.Unlock()

	if st != snp.StatusSuccess {
		err := &snp.StatusError{Op: "send notification", Status: st}
		h.logger.Warnf("%v", err)
		h.setErr(err)
	}
	return nil
}

func (h *Host) handleCCCDUpdated(b []byte) error {
	e := evt.CCCDUpdated(b)
	v, err := e.ValueWErr()
	if err != nil {
		return errors.Wrap(err, "cccd updated")
	}

	h.charsMu.Lock()
	c, ok := h.cccds[e.CCCDHandle()]
	h.charsMu.Unlock()

	status := uint8(snp.StatusSuccess)
	if ok {
		c.SetCCCD(v)
		h.logger.Debugf("cccd 0x%04X = 0x%04X", e.CCCDHandle(), v)
	} else {
		h.logger.Warnf("cccd update for untracked handle 0x%04X", e.CCCDHandle())
		status = snp.StatusUnknownAttribute
	}

	if e.RspNeeded() == 0 {
		return nil
	}

	// answered from here, it's not a correlated request
	f, err := cmd.Frame(&cmd.CCCDUpdatedCnf{Status: status, ConnHandle: e.ConnHandle()})
	if err != nil {
		return err
	}
	if err := h.transport.Send(f); err != nil {
		h.dispatchError(&snp.TransportError{Op: "cccd updated cnf", Err: err})
	}
	return nil
}

func (h *Host) handleConnEstablished(b []byte) error {
	e := evt.ConnEstablished(b)
	a, err := e.AddressWErr()
	if err != nil {
		return errors.Wrap(err, "conn established")
	}
	peer := snp.Addr{Type: e.AddressType(), Bytes: a}
	params := snp.ConnParams{
		Interval:           e.Interval(),
		Latency:            e.Latency(),
		SupervisionTimeout: e.SupervisionTimeout(),
	}

	h.st.mu.Lock()
	h.st.connHandle = e.ConnHandle()
	h.st.connected = true
	h.st.params = params
	h.st.peer = peer
	h.st.mu.Unlock()

	h.logger.Infof("connected: %v handle 0x%04X, interval %d latency %d timeout %d",
		peer, e.ConnHandle(), params.Interval, params.Latency, params.SupervisionTimeout)
	h.recordPeer(peer, func(r *snp.PeerRecord) {
		r.Params = params
		r.Connections++
	})
	h.evts.post(TagConnEstablished, nil)
	return nil
}

func (h *Host) handleConnTerminated(b []byte) error {
	e := evt.ConnTerminated(b)

	h.st.mu.Lock()
	h.st.connHandle = snp.InvalidConnHandle
	h.st.connected = false
	h.st.mu.Unlock()

	h.resetCCCDs()

	h.logger.Infof("disconnected: handle 0x%04X reason 0x%02X", e.ConnHandle(), e.Reason())
	h.evts.post(TagConnTerminated, nil)
	return nil
}

func (h *Host) handleConnParamUpdated(b []byte) error {
	e := evt.ConnParamUpdated(b)
	if _, err := e.SupervisionTimeoutWErr(); err != nil {
		return errors.Wrap(err, "conn param updated")
	}
	params := snp.ConnParams{
		Interval:           e.Interval(),
		Latency:            e.Latency(),
		SupervisionTimeout: e.SupervisionTimeout(),
	}

	h.st.mu.Lock()
	old := h.st.params
	h.st.params = params
	peer := h.st.peer
	h.st.mu.Unlock()

	if old != params {
		h.logger.Debugf("conn params: %+v -> %+v", old, params)
	}
	h.recordPeer(peer, func(r *snp.PeerRecord) { r.Params = params })
	h.evts.post(TagConnParamsUpdated, nil)
	return nil
}

func (h *Host) handleAdvStarted(b []byte) error {
	st, err := evt.AdvStatus(b).StatusWErr()
	if err != nil {
		return errors.Wrap(err, "adv started")
	}
	if st != snp.StatusSuccess {
		h.postError("adv started", st, 0, false)
		return nil
	}

	h.st.mu.Lock()
	h.st.advertising = true
	h.st.mu.Unlock()
	h.evts.post(TagAdvEnabled, nil)
	return nil
}

func (h *Host) handleAdvEnded(b []byte) error {
	st, err := evt.AdvStatus(b).StatusWErr()
	if err != nil {
		return errors.Wrap(err, "adv ended")
	}
	if st != snp.StatusSuccess {
		h.postError("adv ended", st, 0, false)
		return nil
	}

	h.st.mu.Lock()
	h.st.advertising = false
	h.st.mu.Unlock()
	h.evts.post(TagAdvEnded, nil)
	return nil
}

func (h *Host) handleATTMTUUpdated(b []byte) error {
	m, err := evt.ATTMTUUpdated(b).AttMTUWErr()
	if err != nil {
		return errors.Wrap(err, "att mtu")
	}
	if int(m) <= attOverhead {
		return errors.Errorf("att mtu %d too small", m)
	}

	h.st.mu.Lock()
	h.st.mtu = int(m) - attOverhead
	h.st.mu.Unlock()

	h.logger.Debugf("mtu %d", int(m)-attOverhead)
	h.evts.post(TagMTUUpdated, nil)
	return nil
}

func (h *Host) handleSecurityState(b []byte) error {
	e := evt.SecurityState(b)
	st, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "security state")
	}

	h.st.mu.Lock()
	h.st.securityState = e.State()
	peer := h.st.peer
	h.st.mu.Unlock()

	h.logger.Debugf("security state 0x%02X", e.State())
	if st != snp.StatusSuccess {
		h.postError("security state", st, 0, false)
		return nil
	}
	h.recordPeer(peer, func(r *snp.PeerRecord) { r.SecurityState = e.State() })
	h.evts.post(TagSecurityState, nil)
	return nil
}

func (h *Host) handleAuthentication(b []byte) error {
	e := evt.Authentication(b)
	n, err := e.NumCmpWErr()
	if err != nil {
		return errors.Wrap(err, "authentication")
	}

	h.evts.post(TagAuthEvent, snp.AuthEvent{
		Display: e.Display() != 0,
		Input:   e.Input() != 0,
		NumCmp:  n,
	})
	return nil
}

func (h *Host) handleErrorEvent(b []byte) error {
	e := evt.ErrorEvent(b)
	st, err := e.StatusWErr()
	if err != nil {
		return errors.Wrap(err, "error event")
	}

	h.st.mu.Lock()
	h.st.opcode = e.Opcode()
	h.st.mu.Unlock()

	h.postError("error event", st, e.Opcode(), true)
	h.dispatchError(&snp.StatusError{Op: "error event", Status: st, Opcode: e.Opcode(), Unsolicited: true})
	return nil
}

// recordPeer updates the peer history, if one is configured.
func (h *Host) recordPeer(a snp.Addr, update func(r *snp.PeerRecord)) {
	if h.peers == nil || a.IsZero() {
		return
	}

	r, err := h.peers.Load(a)
	if err != nil {
		r = snp.PeerRecord{}
	}
	update(&r)
	r.LastSeen = time.Now()

	if err := h.peers.Store(a, r); err != nil {
		h.logger.Warnf("can't store peer %v: %v", a, err)
	}
}
