package host

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
)

// Numeric comparison answers.
const (
	numCmpConfirm = 1
	numCmpDeny    = 0
)

type authContext struct {
	state    snp.AuthState
	evt      snp.AuthEvent
	answer   uint32
	answered bool
}

// HandleEvents does the pairing work the NP asked for since the last call:
// it shows passkeys and comparison values, and sends the user's answer once
// an armed input fired. Call it periodically from the application loop.
func (h *Host) HandleEvents() error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	p := h.evts.drain(TagAuthEvent | TagNumCmpInput)

	// an answer to the previous prompt goes out before a new prompt
	// replaces the context it is stored in
	var err error
	if p.Has(TagNumCmpInput) {
		err = h.sendNumCmpAnswer()
	}

	if p.Has(TagAuthEvent) {
		e, _ := p.Value(TagAuthEvent).(snp.AuthEvent)
		h.logger.Debugf("auth event: %+v", e)

		var aerr error
		switch {
		case e.IsNumCmp():
			aerr = h.handleNumCmp(e)
		case e.Display:
			aerr = h.handleAuthKey(e)
		}
		if aerr != nil && err == nil {
			err = aerr
		}
	}
	return err
}

// AuthState reports where the host is in the pairing exchange.
func (h *Host) AuthState() snp.AuthState {
	h.authMu.Lock()
	defer h.authMu.Unlock()
	return h.auth.state
}

// CancelPairing disarms the numeric comparison inputs and forgets any
// answer not yet sent.
func (h *Host) CancelPairing() {
	h.disarmInputs()

	h.authMu.Lock()
	h.auth = authContext{}
	h.authMu.Unlock()

	h.evts.drain(TagNumCmpInput)
}

func (h *Host) setAuthState(s snp.AuthState) {
	h.authMu.Lock()
	h.auth.state = s
	h.authMu.Unlock()
}

// Caller holds the guard.
func (h *Host) handleNumCmp(e snp.AuthEvent) error {
	h.displayValue("Check if equal:", e.NumCmp)

	h.authMu.Lock()
	h.auth = authContext{state: snp.AuthPromptDisplayed, evt: e}
	confirm, deny := h.confirm, h.deny
	h.authMu.Unlock()

	if !e.Input {
		h.setAuthState(snp.AuthIdle)
		return nil
	}

	h.displayLine("Press button1 if equal, button2 if not.")
	if confirm == nil || deny == nil {
		h.setAuthState(snp.AuthIdle)
		return h.fail(errors.Wrap(snp.ErrInvalidParameter, "numeric comparison: no inputs configured"))
	}

	h.setAuthState(snp.AuthAwaitingInput)
	err := confirm.Arm(func() { h.numCmpInput(numCmpConfirm) })
	if err == nil {
		err = deny.Arm(func() { h.numCmpInput(numCmpDeny) })
	}
	if err != nil {
		h.CancelPairing()
		return h.fail(errors.Wrap(err, "numeric comparison: can't arm input"))
	}
	return nil
}

// numCmpInput runs when an armed input fires. The first one wins.
func (h *Host) numCmpInput(v uint32) {
	h.authMu.Lock()
	if h.auth.state != snp.AuthAwaitingInput || h.auth.answered {
		h.authMu.Unlock()
		return
	}
	h.auth.answer = v
	h.auth.answered = true
	h.authMu.Unlock()

	h.disarmInputs()
	h.evts.post(TagNumCmpInput, v)
}

// Caller holds the guard.
func (h *Host) sendNumCmpAnswer() error {
	h.authMu.Lock()
	if !h.auth.answered {
		h.authMu.Unlock()
		return nil
	}
	answer := h.auth.answer
	h.auth.state = snp.AuthResponseSent
	h.authMu.Unlock()

	h.logger.Debugf("send numeric comparison answer %d", answer)
	_, err := h.request("send num cmp rsp", &cmd.SetAuthenticationData{Answer: answer}, TagAuthRsp)

	h.authMu.Lock()
	h.auth = authContext{}
	h.authMu.Unlock()
	return err
}

// Caller holds the guard.
func (h *Host) handleAuthKey(e snp.AuthEvent) error {
	r, err := h.rand()
	if err != nil {
		return errors.Wrap(err, "can't generate passkey")
	}
	key := r % snp.PasskeyModulus

	h.displayValue("Auth key:", key)

	h.authMu.Lock()
	h.auth = authContext{state: snp.AuthPromptDisplayed, evt: e, answer: key}
	h.authMu.Unlock()

	if !e.Input {
		h.setAuthState(snp.AuthIdle)
		return nil
	}

	h.setAuthState(snp.AuthResponseSent)
	_, err = h.request("send auth key", &cmd.SetAuthenticationData{Answer: key}, TagAuthRsp)
	h.setAuthState(snp.AuthIdle)
	return err
}

func (h *Host) disarmInputs() {
	h.authMu.Lock()
	confirm, deny := h.confirm, h.deny
	h.authMu.Unlock()

	if confirm != nil {
		confirm.Disarm()
	}
	if deny != nil {
		deny.Disarm()
	}
}

func (h *Host) displayValue(label string, v uint32) {
	str, num, w := h.displays()
	if str != nil && num != nil {
		str(label)
		num(v)
		str("\n")
		return
	}
	fmt.Fprintf(w, "%s%d\n", label, v)
}

func (h *Host) displayLine(s string) {
	str, num, w := h.displays()
	if str != nil && num != nil {
		str(s)
		str("\n")
		return
	}
	fmt.Fprintln(w, s)
}

func (h *Host) displays() (func(string), func(uint32), io.Writer) {
	h.authMu.Lock()
	defer h.authMu.Unlock()
	return h.displayStr, h.displayNum, h.displayW
}
