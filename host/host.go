package host

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/npi"
)

// DefaultTimeout bounds every wait for the NP.
const DefaultTimeout = time.Second

type handlerFn func(b []byte) error

// New returns a host for one NP. Nothing is opened until Init.
func New(opts ...snp.Option) (*Host, error) {
	h := &Host{
		timeout: DefaultTimeout,
		evts:    newEvents(),

		msgh: map[byte]handlerFn{},
		evth: map[uint16]handlerFn{},

		chars:    map[uint16]*snp.Char{},
		cccds:    map[uint16]*snp.Char{},
		displayW: os.Stdout,

		done: make(chan struct{}),
	}
	h.st.reset()
	h.initHandlers()
	h.logger = snp.GetLogger().ChildLogger(map[string]interface{}{"session": uuid.New().String()})

	if err := h.Option(opts...); err != nil {
		return nil, errors.Wrap(err, "can't set options")
	}

	return h, nil
}

// Host bridges the NP's asynchronous messages to synchronous calls.
// At most one correlated request is outstanding at any time.
type Host struct {
	logger snp.Logger

	transport    npi.Transport
	transportCfg transportConfig

	timeout time.Duration
	evts    *events

	// held for the duration of every correlated call
	inflight sync.Mutex

	// written only from the delivery goroutine
	st state

	// dispatch tables, keyed by cmd1 and by event code
	msgh map[byte]handlerFn
	evth map[uint16]handlerFn

	advMu sync.Mutex
	adv   [3]advSlot

	errMu   sync.Mutex
	lastErr error

	errorHandler func(error)
	peers        snp.PeerCache

	// notification chunks whose status the NP has not sent back yet
	notifMu      sync.Mutex
	notifPending int

	charsMu sync.Mutex
	chars   map[uint16]*snp.Char // by value handle
	cccds   map[uint16]*snp.Char // by CCCD handle

	authMu     sync.Mutex
	auth       authContext
	displayStr func(string)
	displayNum func(uint32)
	displayW   io.Writer
	confirm    snp.InputSource
	deny       snp.InputSource

	muClose sync.Mutex
	done    chan struct{}
}

func (h *Host) initHandlers() {
	h.msgh[evt.PowerUpInd] = h.handlePowerUp
	h.msgh[cmd.HCICommandCode] = h.handleHCICommandResponse
	h.msgh[cmd.TestCode] = h.handleTestResponse
	h.msgh[cmd.GetRevisionCode] = h.handleRevisionResponse
	h.msgh[cmd.GetStatusCode] = h.handleStatusResponse
	h.msgh[cmd.GetRandCode] = h.handleRandResponse
	h.msgh[evt.EventInd] = h.handleEventIndication

	h.msgh[cmd.SetAdvertisementDataCode] = h.statusHandler("set adv data", TagAdvDataRsp)
	h.msgh[cmd.UpdateConnParamsCode] = h.statusHandler("update conn params", TagConnParamsCnf)
	h.msgh[cmd.SetAuthenticationDataCode] = h.statusHandler("send authentication data", TagAuthRsp)
	h.msgh[cmd.SetWhiteListPolicyCode] = h.statusHandler("set white list policy", TagWhiteListRsp)
	h.msgh[cmd.SetSecurityParamCode] = h.statusHandler("set security param", TagSecurityParamRsp)
	h.msgh[cmd.SetGAPParamCode] = h.handleGAPParamResponse
	h.msgh[cmd.GetGAPParamCode] = h.handleGAPParamResponse

	h.msgh[cmd.SendNotifIndCode] = h.handleNotifIndCnf
	h.msgh[evt.CCCDUpdatedInd] = h.handleCCCDUpdated

	h.evth[evt.ConnEstablishedCode] = h.handleConnEstablished
	h.evth[evt.ConnTerminatedCode] = h.handleConnTerminated
	h.evth[evt.ConnParamUpdatedCode] = h.handleConnParamUpdated
	h.evth[evt.AdvStartedCode] = h.handleAdvStarted
	h.evth[evt.AdvEndedCode] = h.handleAdvEnded
	h.evth[evt.ATTMTUUpdatedCode] = h.handleATTMTUUpdated
	h.evth[evt.SecurityStateCode] = h.handleSecurityState
	h.evth[evt.AuthenticationCode] = h.handleAuthentication
	h.evth[evt.ErrorCode] = h.handleErrorEvent
}

// Option sets the options specified.
func (h *Host) Option(opts ...snp.Option) error {
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return err
		}
	}
	return nil
}

// Init opens the transport and brings the NP to a known state: if it does
// not announce itself with a power-up indication it is reset.
func (h *Host) Init() error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	if h.transport == nil {
		t, err := getTransport(h.transportCfg, h.logger, h.dispatchError)
		if err != nil {
			return errors.Wrap(err, "can't open transport")
		}
		h.transport = t
	}
	h.transport.Subscribe(h.handleFrame)

	// an NP that just started announces itself, one that was already
	// running has to be reset to get to a known state
	if _, err := h.waitFor("power up", TagPowerUp); err == nil {
		return nil
	} else if snp.KindOf(err) != snp.KindTimeout {
		return err
	}

	h.logger.Info("no power up indication, resetting NP")
	h.evts.drain(TagPowerUp | TagError)
	if err := h.send("reset", &cmd.HCICommand{Opcode: cmd.ResetOpcode}); err != nil {
		return err
	}
	_, err := h.waitFor("power up", TagPowerUp)
	return err
}

// Close drops all state, disarms the pairing inputs and closes the transport.
// Blocked waits return snp.ErrClosed.
func (h *Host) Close() error {
	h.muClose.Lock()
	defer h.muClose.Unlock()

	select {
	case <-h.done:
		//already closed, nothing to do
		return nil
	default:
		close(h.done)
	}

	h.evts.close()
	h.disarmInputs()

	h.st.reset()
	h.advMu.Lock()
	h.adv = [3]advSlot{}
	h.advMu.Unlock()

	h.authMu.Lock()
	h.auth = authContext{}
	h.authMu.Unlock()

	h.notifMu.Lock()
	h.notifPending = 0
	h.notifMu.Unlock()

	if h.transport == nil {
		return nil
	}
	return errors.Wrap(h.transport.Close(), "can't close transport")
}

func (h *Host) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *Host) dispatchError(e error) {
	switch {
	case e == nil:
	case h.errorHandler == nil:
		h.logger.Error(e)
	case !h.isOpen():
		//don't dispatch
		h.logger.Debugf("host closing: %v", e)
	default:
		h.errorHandler(e)
	}
}

// Register tracks c so peer CCCD writes reach it and disconnects reset it.
func (h *Host) Register(c *snp.Char) {
	h.charsMu.Lock()
	defer h.charsMu.Unlock()
	h.chars[c.Handle] = c
	if c.CCCDHandle != 0 {
		h.cccds[c.CCCDHandle] = c
	}
}

func (h *Host) resetCCCDs() {
	h.charsMu.Lock()
	defer h.charsMu.Unlock()
	for _, c := range h.chars {
		c.SetCCCD(0)
	}
}
