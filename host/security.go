package host

import (
	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
)

// SetSecurityParam sets one NP security parameter and waits for it to be
// accepted.
func (h *Host) SetSecurityParam(id uint8, value []byte) error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	_, err := h.request("set security param", &cmd.SetSecurityParam{ParamID: id, Value: value}, TagSecurityParamRsp)
	return errors.Wrapf(err, "param 0x%02X", id)
}

func (h *Host) SetPairingMode(mode uint8) error {
	switch mode {
	case snp.PairingNotAllowed, snp.PairingWaitForReq, snp.PairingInitiate:
	default:
		return h.precondition("set pairing mode", errors.Wrapf(snp.ErrInvalidParameter, "mode %d", mode))
	}
	return h.SetSecurityParam(snp.SecParamPairingMode, []byte{mode})
}

func (h *Host) SetIoCapabilities(caps uint8) error {
	if caps > snp.IOCapKeyboardDisplay {
		return h.precondition("set io capabilities", errors.Wrapf(snp.ErrInvalidParameter, "io caps %d", caps))
	}
	return h.SetSecurityParam(snp.SecParamIOCaps, []byte{caps})
}

func (h *Host) UseBonding(on bool) error {
	return h.SetSecurityParam(snp.SecParamBonding, boolParam(on))
}

func (h *Host) EraseAllBonds() error {
	return h.SetSecurityParam(snp.SecParamEraseAllBonds, nil)
}

// ReplaceLruBond lets a new bond evict the least recently used one when
// the NP's bond table is full.
func (h *Host) ReplaceLruBond(on bool) error {
	return h.SetSecurityParam(snp.SecParamLRUBondReplace, boolParam(on))
}

// SendSecurityRequest asks the connected central to start pairing. The NP
// does not answer it; progress is reported through security state events.
func (h *Host) SendSecurityRequest() error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	c := h.Conn()
	if !c.Connected {
		return h.precondition("send security request", snp.ErrNotConnected)
	}
	return h.send("send security request", &cmd.SendSecurityRequest{ConnHandle: c.Handle})
}

// UseWhiteListPolicy enables or disables the NP's white list filtering.
func (h *Host) UseWhiteListPolicy(policy uint8) error {
	if policy != snp.WhiteListDisabled && policy != snp.WhiteListEnabled {
		return h.precondition("set white list policy", errors.Wrapf(snp.ErrInvalidParameter, "policy %d", policy))
	}

	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	_, err := h.request("set white list policy", &cmd.SetWhiteListPolicy{Policy: policy}, TagWhiteListRsp)
	return err
}

func boolParam(on bool) []byte {
	if on {
		return []byte{1}
	}
	return []byte{0}
}
