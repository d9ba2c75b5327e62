package npsim

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/smp"
)

// pairing is one LE Secure Connections exchange between the simulated
// central and the NP.
type pairing struct {
	passkey bool
	value   uint32
}

// StartNumericComparison plays a central starting numeric comparison
// pairing. It returns the value both sides display.
func (n *NP) StartNumericComparison() (uint32, error) {
	if !n.isConnected() {
		return 0, errors.New("not connected")
	}

	central, err := smp.GenerateKeys()
	if err != nil {
		return 0, err
	}
	periph, err := smp.GenerateKeys()
	if err != nil {
		return 0, err
	}

	dhKey, err := central.Secret(periph.Public())
	if err != nil {
		return 0, err
	}
	other, err := periph.Secret(central.Public())
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(dhKey, other) {
		return 0, errors.New("dhkey mismatch")
	}

	var v uint32
	// 0 reads as passkey pairing on the host, pick other nonces
	for v == 0 {
		na, err := smp.Nonce()
		if err != nil {
			return 0, err
		}
		nb, err := smp.Nonce()
		if err != nil {
			return 0, err
		}

		cb, err := smp.F4(periph.PublicX(), central.PublicX(), nb, 0)
		if err != nil {
			return 0, err
		}
		if err := smp.CheckConfirm(periph.PublicX(), central.PublicX(), nb, cb); err != nil {
			return 0, err
		}

		v, err = smp.NumericComparison(central.PublicX(), periph.PublicX(), na, nb)
		if err != nil {
			return 0, err
		}
	}

	n.mu.Lock()
	n.pairing = &pairing{value: v}
	n.mu.Unlock()

	n.logger.Debugf("numeric comparison %06d", v)
	n.emitEvent(evt.SecurityStateCode, PairingStarted, snp.StatusSuccess)
	n.emitEvent(evt.AuthenticationCode, append([]byte{1, 1}, le32(v)...)...)
	return v, nil
}

// StartPasskey plays a central starting passkey entry pairing. The host
// generates and displays the key, and the NP accepts whatever it sends.
func (n *NP) StartPasskey() error {
	if !n.isConnected() {
		return errors.New("not connected")
	}

	n.mu.Lock()
	n.pairing = &pairing{passkey: true}
	n.mu.Unlock()

	n.emitEvent(evt.SecurityStateCode, PairingStarted, snp.StatusSuccess)
	n.emitEvent(evt.AuthenticationCode, append([]byte{1, 1}, le32(0)...)...)
	return nil
}

func (n *NP) onAuthenticationData(b []byte) error {
	if len(b) < 4 {
		return errors.New("authentication data too short")
	}
	answer := binary.LittleEndian.Uint32(b)

	n.mu.Lock()
	n.answers = append(n.answers, answer)
	p := n.pairing
	n.pairing = nil
	n.mu.Unlock()

	n.emitStatus(cmd.SetAuthenticationDataCode, snp.StatusSuccess)

	switch {
	case p == nil:
		n.logger.Warnf("authentication data %d outside pairing", answer)
	case p.passkey || answer == 1:
		n.emitEvent(evt.SecurityStateCode, PairingComplete, snp.StatusSuccess)
	default:
		n.logger.Debugf("numeric comparison %06d denied", p.value)
		n.emitEvent(evt.SecurityStateCode, PairingComplete, NumCmpFailed)
	}
	return nil
}

func (n *NP) isConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connected
}
