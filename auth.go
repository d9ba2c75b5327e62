package snp

// AuthEvent is what the NP reports when pairing needs the host's help.
type AuthEvent struct {
	Display bool   // the host should show a value to the user
	Input   bool   // the NP expects an answer (passkey or confirmation)
	NumCmp  uint32 // numeric comparison value, 0 for passkey pairing
}

// IsNumCmp reports whether the event starts a numeric comparison.
func (e AuthEvent) IsNumCmp() bool {
	return e.NumCmp != 0
}

// AuthState is the host side of the pairing exchange.
type AuthState int

const (
	AuthIdle AuthState = iota
	AuthPromptDisplayed
	AuthAwaitingInput
	AuthResponseSent
)

func (s AuthState) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case AuthPromptDisplayed:
		return "prompt displayed"
	case AuthAwaitingInput:
		return "awaiting input"
	case AuthResponseSent:
		return "response sent"
	}
	return "unknown"
}

// PasskeyModulus bounds generated passkeys to six decimal digits.
const PasskeyModulus = 1000000

// Security parameter ids.
const (
	SecParamPairingMode    = 0x00
	SecParamIOCaps         = 0x01
	SecParamBonding        = 0x02
	SecParamEraseAllBonds  = 0x03
	SecParamLRUBondReplace = 0x04
)

// Pairing modes.
const (
	PairingNotAllowed = 0x00
	PairingWaitForReq = 0x01
	PairingInitiate   = 0x02
)

// IO capabilities.
const (
	IOCapDisplayOnly     = 0x00
	IOCapDisplayYesNo    = 0x01
	IOCapKeyboardOnly    = 0x02
	IOCapNoInputNoOutput = 0x03
	IOCapKeyboardDisplay = 0x04
)

// White list policies.
const (
	WhiteListDisabled = 0x00
	WhiteListEnabled  = 0x01
)
