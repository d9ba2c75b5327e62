package snp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors detected by the host before anything is sent to the network processor.
var (
	ErrTimeout            = errors.New("timeout waiting for network processor")
	ErrNotConnected       = errors.New("not connected")
	ErrAlreadyAdvertising = errors.New("already advertising")
	ErrNotAdvertising     = errors.New("not advertising")
	ErrSizeMismatch       = errors.New("stored value size mismatch")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrBusy               = errors.New("request already in flight")
	ErrClosed             = errors.New("host closed")
)

// Kind classifies an error returned by the host.
type Kind int

const (
	KindNone Kind = iota
	KindTimeout
	KindRemoteRejected
	KindRemoteUnsolicited
	KindPrecondition
	KindSizeMismatch
	KindTransportRejected
	KindBusy
	KindClosed
	KindOther
)

var kindStrings = map[Kind]string{
	KindNone:              "none",
	KindTimeout:           "timeout",
	KindRemoteRejected:    "remote rejected",
	KindRemoteUnsolicited: "remote unsolicited error",
	KindPrecondition:      "precondition violation",
	KindSizeMismatch:      "size mismatch",
	KindTransportRejected: "transport rejected",
	KindBusy:              "busy",
	KindClosed:            "closed",
	KindOther:             "other",
}

func (k Kind) String() string {
	if s, ok := kindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindOf maps err onto the error taxonomy.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	for err != nil {
		switch e := err.(type) {
		case *StatusError:
			if e.Unsolicited {
				return KindRemoteUnsolicited
			}
			return KindRemoteRejected
		case *TransportError:
			return KindTransportRejected
		case *PartialWriteError:
			err = e.Err
			continue
		}

		switch err {
		case ErrTimeout:
			return KindTimeout
		case ErrNotConnected, ErrAlreadyAdvertising, ErrNotAdvertising, ErrInvalidParameter:
			return KindPrecondition
		case ErrSizeMismatch:
			return KindSizeMismatch
		case ErrBusy:
			return KindBusy
		case ErrClosed:
			return KindClosed
		}

		c, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = c.Cause()
	}
	return KindOther
}

// StatusError is a non-success status reported by the network processor.
type StatusError struct {
	Status uint8
	Op     string
	Opcode uint16

	// Unsolicited is set when the NP raised the error on its own
	// (an error event) rather than as the answer to a request.
	Unsolicited bool
}

func (e *StatusError) Error() string {
	if e.Opcode != 0 {
		return fmt.Sprintf("%s: status 0x%02X (%s), opcode 0x%04X", e.Op, e.Status, StatusString(e.Status), e.Opcode)
	}
	return fmt.Sprintf("%s: status 0x%02X (%s)", e.Op, e.Status, StatusString(e.Status))
}

// TransportError is returned when the transport refuses a request outright.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport rejected request: %v", e.Op, e.Err)
}

func (e *TransportError) Cause() error { return e.Err }

// PartialWriteError reports a chunked delivery that stopped part way.
// Chunks already sent were received by the peer and are not rolled back.
type PartialWriteError struct {
	Sent   int // bytes confirmed handed to the NP
	Chunks int // chunks delivered before the failure
	Total  int
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: %d of %d bytes delivered in %d chunks: %v", e.Sent, e.Total, e.Chunks, e.Err)
}

func (e *PartialWriteError) Cause() error { return e.Err }

func (e *PartialWriteError) Unwrap() error { return e.Err }

// NP status codes.
const (
	StatusSuccess              = 0x00
	StatusFailure              = 0x83
	StatusInvalidParams        = 0x84
	StatusCommandAlreadyInProg = 0x85
	StatusCommandRejected      = 0x86
	StatusOutOfResources       = 0x87
	StatusUnknownAttribute     = 0x88
	StatusUnknownService       = 0x89
	StatusAlreadyAdvertising   = 0x8A
	StatusNotAdvertising       = 0x8B
	StatusHCIRspCollision      = 0x8C
	StatusHCICmdUnknown        = 0x8D
	StatusGattCollision        = 0x8E
	StatusNotifIndNotAllowed   = 0x8F
	StatusNotifIndNoCCCD       = 0x90
	StatusNotifIndNotConnected = 0x91
	StatusNotConnected         = 0x92
)

var statusStrings = map[uint8]string{
	StatusSuccess:              "success",
	StatusFailure:              "failure",
	StatusInvalidParams:        "invalid parameters",
	StatusCommandAlreadyInProg: "command already in progress",
	StatusCommandRejected:      "command rejected",
	StatusOutOfResources:       "out of resources",
	StatusUnknownAttribute:     "unknown attribute",
	StatusUnknownService:       "unknown service",
	StatusAlreadyAdvertising:   "already advertising",
	StatusNotAdvertising:       "not advertising",
	StatusHCIRspCollision:      "hci response collision",
	StatusHCICmdUnknown:        "unknown hci command",
	StatusGattCollision:        "gatt collision",
	StatusNotifIndNotAllowed:   "notification/indication not allowed",
	StatusNotifIndNoCCCD:       "notification/indication not enabled by peer",
	StatusNotifIndNotConnected: "notification/indication without connection",
	StatusNotConnected:         "not connected",
}

// StatusString names an NP status code.
func StatusString(s uint8) string {
	if v, ok := statusStrings[s]; ok {
		return v
	}
	return "unknown"
}
