// Package cmd encodes the requests the host sends to the network processor.
package cmd

import (
	"encoding/binary"

	"github.com/rigado/snp/npi"
)

// Device group.
const (
	GetRevisionCode = 0x03
	HCICommandCode  = 0x04
	GetStatusCode   = 0x06
	GetRandCode     = 0x07
	TestCode        = 0x10
)

// GAP group.
const (
	StartAdvertisingCode      = 0x42
	SetAdvertisementDataCode  = 0x43
	StopAdvertisingCode       = 0x44
	UpdateConnParamsCode      = 0x45
	TerminateConnCode         = 0x46
	SetGAPParamCode           = 0x48
	GetGAPParamCode           = 0x49
	SetSecurityParamCode      = 0x4A
	SendSecurityRequestCode   = 0x4B
	SetAuthenticationDataCode = 0x4C
	SetWhiteListPolicyCode    = 0x4D
)

// GATT group.
const (
	SendNotifIndCode   = 0x89
	CCCDUpdatedCnfCode = 0x8B
)

// ResetOpcode is the vendor HCI command that restarts the NP.
const ResetOpcode = 0xFC1D

// Notification or indication, as carried in SendNotifInd.
const (
	Notification = 0x01
	Indication   = 0x02
)

// Command is one request to the NP.
type Command interface {
	Cmd1() byte
	Len() int
	Marshal(b []byte) error
}

// Synchronous commands are answered with an SRSP instead of an async message.
type Synchronous interface {
	Sync()
}

// Frame wraps c into an NPI frame.
func Frame(c Command) (npi.Frame, error) {
	b := make([]byte, c.Len())
	if err := c.Marshal(b); err != nil {
		return npi.Frame{}, err
	}

	cmd0 := byte(npi.TypeAREQ)
	if _, ok := c.(Synchronous); ok {
		cmd0 = npi.TypeSREQ
	}
	return npi.Frame{Cmd0: cmd0, Cmd1: c.Cmd1(), Payload: b}, nil
}

type GetRevision struct{}

func (c *GetRevision) Cmd1() byte             { return GetRevisionCode }
func (c *GetRevision) Len() int               { return 0 }
func (c *GetRevision) Marshal(b []byte) error { return nil }
func (c *GetRevision) Sync()                  {}

type GetStatus struct{}

func (c *GetStatus) Cmd1() byte             { return GetStatusCode }
func (c *GetStatus) Len() int               { return 0 }
func (c *GetStatus) Marshal(b []byte) error { return nil }
func (c *GetStatus) Sync()                  {}

type GetRand struct{}

func (c *GetRand) Cmd1() byte             { return GetRandCode }
func (c *GetRand) Len() int               { return 0 }
func (c *GetRand) Marshal(b []byte) error { return nil }
func (c *GetRand) Sync()                  {}

type Test struct{}

func (c *Test) Cmd1() byte             { return TestCode }
func (c *Test) Len() int               { return 0 }
func (c *Test) Marshal(b []byte) error { return nil }
func (c *Test) Sync()                  {}

// HCICommand passes a raw HCI command through the NP.
type HCICommand struct {
	Opcode uint16
	Params []byte
}

func (c *HCICommand) Cmd1() byte { return HCICommandCode }
func (c *HCICommand) Len() int   { return 2 + len(c.Params) }
func (c *HCICommand) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b, c.Opcode)
	copy(b[2:], c.Params)
	return nil
}

type StartAdvertising struct {
	Type     uint8
	Timeout  uint16
	Interval uint16
	Behavior uint8
}

func (c *StartAdvertising) Cmd1() byte { return StartAdvertisingCode }
func (c *StartAdvertising) Len() int   { return 6 }
func (c *StartAdvertising) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	b[0] = c.Type
	binary.LittleEndian.PutUint16(b[1:], c.Timeout)
	binary.LittleEndian.PutUint16(b[3:], c.Interval)
	b[5] = c.Behavior
	return nil
}

type SetAdvertisementData struct {
	Type uint8
	Data []byte
}

func (c *SetAdvertisementData) Cmd1() byte { return SetAdvertisementDataCode }
func (c *SetAdvertisementData) Len() int   { return 1 + len(c.Data) }
func (c *SetAdvertisementData) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	b[0] = c.Type
	copy(b[1:], c.Data)
	return nil
}

type StopAdvertising struct{}

func (c *StopAdvertising) Cmd1() byte             { return StopAdvertisingCode }
func (c *StopAdvertising) Len() int               { return 0 }
func (c *StopAdvertising) Marshal(b []byte) error { return nil }

type UpdateConnParams struct {
	ConnHandle         uint16
	IntervalMin        uint16
	IntervalMax        uint16
	Latency            uint16
	SupervisionTimeout uint16
}

func (c *UpdateConnParams) Cmd1() byte { return UpdateConnParamsCode }
func (c *UpdateConnParams) Len() int   { return 10 }
func (c *UpdateConnParams) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b[0:], c.ConnHandle)
	binary.LittleEndian.PutUint16(b[2:], c.IntervalMin)
	binary.LittleEndian.PutUint16(b[4:], c.IntervalMax)
	binary.LittleEndian.PutUint16(b[6:], c.Latency)
	binary.LittleEndian.PutUint16(b[8:], c.SupervisionTimeout)
	return nil
}

// Terminate options.
const (
	TerminateGraceful = 0x00
	TerminateAbrupt   = 0x01
)

type TerminateConn struct {
	ConnHandle uint16
	Option     uint8
}

func (c *TerminateConn) Cmd1() byte { return TerminateConnCode }
func (c *TerminateConn) Len() int   { return 3 }
func (c *TerminateConn) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b, c.ConnHandle)
	b[2] = c.Option
	return nil
}

type SetGAPParam struct {
	ParamID uint16
	Value   uint16
}

func (c *SetGAPParam) Cmd1() byte { return SetGAPParamCode }
func (c *SetGAPParam) Len() int   { return 4 }
func (c *SetGAPParam) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b, c.ParamID)
	binary.LittleEndian.PutUint16(b[2:], c.Value)
	return nil
}

type GetGAPParam struct {
	ParamID uint16
}

func (c *GetGAPParam) Cmd1() byte { return GetGAPParamCode }
func (c *GetGAPParam) Len() int   { return 2 }
func (c *GetGAPParam) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b, c.ParamID)
	return nil
}

type SetSecurityParam struct {
	ParamID uint8
	Value   []byte
}

func (c *SetSecurityParam) Cmd1() byte { return SetSecurityParamCode }
func (c *SetSecurityParam) Len() int   { return 1 + len(c.Value) }
func (c *SetSecurityParam) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	b[0] = c.ParamID
	copy(b[1:], c.Value)
	return nil
}

type SendSecurityRequest struct {
	ConnHandle uint16
}

func (c *SendSecurityRequest) Cmd1() byte { return SendSecurityRequestCode }
func (c *SendSecurityRequest) Len() int   { return 2 }
func (c *SendSecurityRequest) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b, c.ConnHandle)
	return nil
}

// SetAuthenticationData answers an authentication event: the passkey, or
// 1/0 for a numeric comparison match/mismatch.
type SetAuthenticationData struct {
	Answer uint32
}

func (c *SetAuthenticationData) Cmd1() byte { return SetAuthenticationDataCode }
func (c *SetAuthenticationData) Len() int   { return 4 }
func (c *SetAuthenticationData) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint32(b, c.Answer)
	return nil
}

type SetWhiteListPolicy struct {
	Policy uint8
}

func (c *SetWhiteListPolicy) Cmd1() byte { return SetWhiteListPolicyCode }
func (c *SetWhiteListPolicy) Len() int   { return 1 }
func (c *SetWhiteListPolicy) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	b[0] = c.Policy
	return nil
}

type SendNotifInd struct {
	ConnHandle   uint16
	AttrHandle   uint16
	Authenticate uint8
	Type         uint8
	Data         []byte
}

func (c *SendNotifInd) Cmd1() byte { return SendNotifIndCode }
func (c *SendNotifInd) Len() int   { return 6 + len(c.Data) }
func (c *SendNotifInd) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint16(b[0:], c.ConnHandle)
	binary.LittleEndian.PutUint16(b[2:], c.AttrHandle)
	b[4] = c.Authenticate
	b[5] = c.Type
	copy(b[6:], c.Data)
	return nil
}

// CCCDUpdatedCnf answers a CCCD-updated indication that asked for a response.
type CCCDUpdatedCnf struct {
	Status     uint8
	ConnHandle uint16
}

func (c *CCCDUpdatedCnf) Cmd1() byte { return CCCDUpdatedCnfCode }
func (c *CCCDUpdatedCnf) Len() int   { return 3 }
func (c *CCCDUpdatedCnf) Marshal(b []byte) error {
	if len(b) < c.Len() {
		return ErrShortBuffer
	}
	b[0] = c.Status
	binary.LittleEndian.PutUint16(b[1:], c.ConnHandle)
	return nil
}
