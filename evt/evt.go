// Package evt decodes message bodies sent by the network processor.
//
// Every decoder is a byte slice type with getters. The WErr variants
// report short bodies; the plain getters return a default instead.
package evt

// cmd1 values of messages only the NP originates.
const (
	PowerUpInd     = 0x01
	EventInd       = 0x05
	CCCDUpdatedInd = 0x8B
)

// Event indication codes.
const (
	ConnEstablishedCode  = 0x0001
	ConnTerminatedCode   = 0x0002
	ConnParamUpdatedCode = 0x0004
	AdvStartedCode       = 0x0008
	AdvEndedCode         = 0x0010
	ATTMTUUpdatedCode    = 0x0020
	SecurityStateCode    = 0x0040
	AuthenticationCode   = 0x0080
	ErrorCode            = 0x8000
)

// EventIndication wraps every unsolicited NP event: a code then its body.
type EventIndication []byte

func (e EventIndication) Code() uint16 {
	v, _ := e.CodeWErr()
	return v
}

func (e EventIndication) Body() []byte {
	v, _ := e.BodyWErr()
	return v
}

type ConnEstablished []byte

func (e ConnEstablished) ConnHandle() uint16 {
	v, _ := e.ConnHandleWErr()
	return v
}

func (e ConnEstablished) Interval() uint16 {
	v, _ := e.IntervalWErr()
	return v
}

func (e ConnEstablished) Latency() uint16 {
	v, _ := e.LatencyWErr()
	return v
}

func (e ConnEstablished) SupervisionTimeout() uint16 {
	v, _ := e.SupervisionTimeoutWErr()
	return v
}

func (e ConnEstablished) AddressType() uint8 {
	v, _ := e.AddressTypeWErr()
	return v
}

func (e ConnEstablished) Address() [6]byte {
	v, _ := e.AddressWErr()
	return v
}

type ConnTerminated []byte

func (e ConnTerminated) ConnHandle() uint16 {
	v, _ := e.ConnHandleWErr()
	return v
}

func (e ConnTerminated) Reason() uint8 {
	v, _ := e.ReasonWErr()
	return v
}

type ConnParamUpdated []byte

func (e ConnParamUpdated) ConnHandle() uint16 {
	v, _ := e.ConnHandleWErr()
	return v
}

func (e ConnParamUpdated) Interval() uint16 {
	v, _ := e.IntervalWErr()
	return v
}

func (e ConnParamUpdated) Latency() uint16 {
	v, _ := e.LatencyWErr()
	return v
}

func (e ConnParamUpdated) SupervisionTimeout() uint16 {
	v, _ := e.SupervisionTimeoutWErr()
	return v
}

// AdvStatus is the body of the advertising started and ended events.
type AdvStatus []byte

func (e AdvStatus) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

type ATTMTUUpdated []byte

func (e ATTMTUUpdated) ConnHandle() uint16 {
	v, _ := e.ConnHandleWErr()
	return v
}

func (e ATTMTUUpdated) AttMTU() uint16 {
	v, _ := e.AttMTUWErr()
	return v
}

type SecurityState []byte

func (e SecurityState) State() uint8 {
	v, _ := e.StateWErr()
	return v
}

func (e SecurityState) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

type Authentication []byte

func (e Authentication) Display() uint8 {
	v, _ := e.DisplayWErr()
	return v
}

func (e Authentication) Input() uint8 {
	v, _ := e.InputWErr()
	return v
}

func (e Authentication) NumCmp() uint32 {
	v, _ := e.NumCmpWErr()
	return v
}

// Error is the body of the NP's unsolicited error event.
type ErrorEvent []byte

func (e ErrorEvent) Opcode() uint16 {
	v, _ := e.OpcodeWErr()
	return v
}

func (e ErrorEvent) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

// Status is the body of every response that only carries a status, optionally
// followed by a connection handle.
type Status []byte

func (e Status) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

type HCICommandResponse []byte

func (e HCICommandResponse) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e HCICommandResponse) Opcode() uint16 {
	v, _ := e.OpcodeWErr()
	return v
}

func (e HCICommandResponse) Data() []byte {
	v, _ := e.DataWErr()
	return v
}

type TestResponse []byte

func (e TestResponse) MemAlo() uint16 {
	v, _ := e.MemAloWErr()
	return v
}

func (e TestResponse) MemMax() uint16 {
	v, _ := e.MemMaxWErr()
	return v
}

func (e TestResponse) MemSize() uint16 {
	v, _ := e.MemSizeWErr()
	return v
}

type CCCDUpdated []byte

func (e CCCDUpdated) ConnHandle() uint16 {
	v, _ := e.ConnHandleWErr()
	return v
}

func (e CCCDUpdated) CCCDHandle() uint16 {
	v, _ := e.CCCDHandleWErr()
	return v
}

func (e CCCDUpdated) RspNeeded() uint8 {
	v, _ := e.RspNeededWErr()
	return v
}

func (e CCCDUpdated) Value() uint16 {
	v, _ := e.ValueWErr()
	return v
}

type RevisionResponse []byte

func (e RevisionResponse) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e RevisionResponse) SNPVersion() uint16 {
	v, _ := e.SNPVersionWErr()
	return v
}

func (e RevisionResponse) StackBuildVersion() []byte {
	v, _ := e.StackBuildVersionWErr()
	return v
}

type StatusResponse []byte

func (e StatusResponse) GAPRoleStatus() uint8 {
	v, _ := e.GAPRoleStatusWErr()
	return v
}

func (e StatusResponse) AdvStatus() uint8 {
	v, _ := e.AdvStatusWErr()
	return v
}

func (e StatusResponse) ATTStatus() uint8 {
	v, _ := e.ATTStatusWErr()
	return v
}

func (e StatusResponse) ATTMethod() uint8 {
	v, _ := e.ATTMethodWErr()
	return v
}

type RandResponse []byte

func (e RandResponse) Value() uint32 {
	v, _ := e.ValueWErr()
	return v
}

type GAPParamResponse []byte

func (e GAPParamResponse) Status() uint8 {
	v, _ := e.StatusWErr()
	return v
}

func (e GAPParamResponse) ParamID() uint16 {
	v, _ := e.ParamIDWErr()
	return v
}

func (e GAPParamResponse) Value() uint16 {
	v, _ := e.ValueWErr()
	return v
}
