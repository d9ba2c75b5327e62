package host

import (
	"sync"

	"github.com/rigado/snp"
)

// DefaultMTU is the usable payload of one ATT PDU before negotiation.
const DefaultMTU = 20

// attOverhead is subtracted from the negotiated ATT MTU.
const attOverhead = 3

// state is the part of the host the delivery goroutine maintains. Only
// dispatch handlers (and Close) write it; everything else reads through the
// accessors below.
type state struct {
	mu sync.RWMutex

	connHandle    uint16
	connected     bool
	params        snp.ConnParams
	peer          snp.Addr
	advertising   bool
	mtu           int
	securityState uint8
	opcode        uint16 // last opcode the NP reported back
}

func (s *state) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connHandle = snp.InvalidConnHandle
	s.connected = false
	s.params = snp.ConnParams{}
	s.peer = snp.Addr{}
	s.advertising = false
	s.mtu = DefaultMTU
	s.securityState = 0
	s.opcode = 0
}

// IsConnected reports whether a peer is connected.
func (h *Host) IsConnected() bool {
	h.st.mu.RLock()
	defer h.st.mu.RUnlock()
	return h.st.connected
}

// IsAdvertising reports whether the NP is advertising.
func (h *Host) IsAdvertising() bool {
	h.st.mu.RLock()
	defer h.st.mu.RUnlock()
	return h.st.advertising
}

// ConnHandle is the current connection handle, snp.InvalidConnHandle when
// not connected.
func (h *Host) ConnHandle() uint16 {
	h.st.mu.RLock()
	defer h.st.mu.RUnlock()
	return h.st.connHandle
}

// Conn returns a snapshot of the connection state.
func (h *Host) Conn() snp.ConnInfo {
	h.st.mu.RLock()
	defer h.st.mu.RUnlock()
	return snp.ConnInfo{
		Handle:    h.st.connHandle,
		Connected: h.st.connected,
		Params:    h.st.params,
		Peer:      h.st.peer,
		PeerAddr:  h.st.peer.String(),
	}
}

// MTU is the largest chunk the host sends in one notification or indication.
func (h *Host) MTU() int {
	h.st.mu.RLock()
	defer h.st.mu.RUnlock()
	return h.st.mtu
}

// SecurityState is the state byte of the last security event.
func (h *Host) SecurityState() uint8 {
	h.st.mu.RLock()
	defer h.st.mu.RUnlock()
	return h.st.securityState
}

// LastOpcode is the opcode carried by the last HCI response or NP error.
func (h *Host) LastOpcode() uint16 {
	h.st.mu.RLock()
	defer h.st.mu.RUnlock()
	return h.st.opcode
}
