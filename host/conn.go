package host

import (
	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
)

// TerminateConn disconnects the current peer and waits for the NP to report
// the connection gone.
func (h *Host) TerminateConn() error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	c := h.Conn()
	if !c.Connected {
		return h.precondition("terminate conn", snp.ErrNotConnected)
	}
	_, err := h.request("terminate conn", &cmd.TerminateConn{
		ConnHandle: c.Handle,
		Option:     cmd.TerminateGraceful,
	}, TagConnTerminated)
	return err
}

// SetConnParams asks the NP to renegotiate the connection. It returns once
// the NP has accepted the request; the new parameters arrive later with a
// parameter update event.
func (h *Host) SetConnParams(p snp.ConnUpdateRequest) error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	return h.setConnParams(p)
}

// SetMinConnInt requests a new minimum connection interval, N * 1.25 msec.
func (h *Host) SetMinConnInt(v uint16) error {
	return h.setSingleConnParam(func(p *snp.ConnUpdateRequest) { p.IntervalMin = v })
}

// SetMaxConnInt requests a new maximum connection interval, N * 1.25 msec.
func (h *Host) SetMaxConnInt(v uint16) error {
	return h.setSingleConnParam(func(p *snp.ConnUpdateRequest) { p.IntervalMax = v })
}

// SetRespLatency requests a new peripheral latency, in connection events.
func (h *Host) SetRespLatency(v uint16) error {
	return h.setSingleConnParam(func(p *snp.ConnUpdateRequest) { p.Latency = v })
}

// SetBleTimeout requests a new supervision timeout, N * 10 msec.
func (h *Host) SetBleTimeout(v uint16) error {
	return h.setSingleConnParam(func(p *snp.ConnUpdateRequest) { p.SupervisionTimeout = v })
}

// setSingleConnParam changes one field of a request built from the default
// interval range and the latency and timeout in use.
func (h *Host) setSingleConnParam(set func(p *snp.ConnUpdateRequest)) error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	c := h.Conn()
	p := snp.ConnUpdateRequest{
		Handle:             c.Handle,
		IntervalMin:        snp.DefaultDesiredMinConnInt,
		IntervalMax:        snp.DefaultDesiredMaxConnInt,
		Latency:            c.Params.Latency,
		SupervisionTimeout: c.Params.SupervisionTimeout,
	}
	set(&p)
	return h.setConnParams(p)
}

// Caller holds the guard.
func (h *Host) setConnParams(p snp.ConnUpdateRequest) error {
	const op = "update conn params"
	if !h.IsConnected() {
		return h.precondition(op, snp.ErrNotConnected)
	}
	if err := p.Validate(); err != nil {
		return h.precondition(op, errors.Wrap(snp.ErrInvalidParameter, err.Error()))
	}

	h.logger.Debugf("%s: interval %d-%d latency %d timeout %d", op,
		p.IntervalMin, p.IntervalMax, p.Latency, p.SupervisionTimeout)
	_, err := h.request(op, &cmd.UpdateConnParams{
		ConnHandle:         p.Handle,
		IntervalMin:        p.IntervalMin,
		IntervalMax:        p.IntervalMax,
		Latency:            p.Latency,
		SupervisionTimeout: p.SupervisionTimeout,
	}, TagConnParamsCnf)
	return err
}
