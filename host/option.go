package host

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/npi"
)

// SetTimeout sets the completion wait timeout.
func (h *Host) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.Wrapf(snp.ErrInvalidParameter, "timeout %v", d)
	}
	h.timeout = d
	return nil
}

// SetErrorHandler ...
func (h *Host) SetErrorHandler(handler func(error)) error {
	h.errorHandler = handler
	return nil
}

// SetDisplay sets the pairing display callbacks. Either may be nil.
func (h *Host) SetDisplay(str func(string), num func(uint32)) error {
	h.authMu.Lock()
	defer h.authMu.Unlock()
	h.displayStr = str
	h.displayNum = num
	return nil
}

func (h *Host) SetDisplayWriter(w io.Writer) error {
	if w == nil {
		return errors.Wrap(snp.ErrInvalidParameter, "nil display writer")
	}
	h.authMu.Lock()
	defer h.authMu.Unlock()
	h.displayW = w
	return nil
}

// SetNumCmpInputs sets the inputs armed during numeric comparison.
func (h *Host) SetNumCmpInputs(confirm, deny snp.InputSource) error {
	if confirm == nil || deny == nil {
		return errors.Wrap(snp.ErrInvalidParameter, "numeric comparison needs both inputs")
	}
	h.authMu.Lock()
	defer h.authMu.Unlock()
	h.confirm = confirm
	h.deny = deny
	return nil
}

func (h *Host) SetPeerCache(c snp.PeerCache) error {
	h.peers = c
	return nil
}

// SetTransport uses t instead of opening one in Init.
func (h *Host) SetTransport(t npi.Transport) error {
	h.transport = t
	return nil
}

// SetTransportUart sets the NP uart path
func (h *Host) SetTransportUart(path string, baud uint) error {
	if baud == 0 {
		baud = npi.DefaultBaudRate
	}
	h.transportCfg = transportConfig{
		uart: &transportUart{path, baud},
	}
	return nil
}

// SetTransportSocket sets the NP socket server
func (h *Host) SetTransportSocket(addr string, timeout time.Duration) error {
	h.transportCfg = transportConfig{
		socket: &transportSocket{addr, timeout},
	}
	return nil
}
