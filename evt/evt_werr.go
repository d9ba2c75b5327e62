package evt

import (
	"encoding/binary"
	"fmt"
)

func (e EventIndication) CodeWErr() (uint16, error) {
	return getUint16LE(e, 0, 0)
}
func (e EventIndication) BodyWErr() ([]byte, error) {
	return getBytes(e, 2, -1)
}

func (e ConnEstablished) ConnHandleWErr() (uint16, error) {
	return getUint16LE(e, 0, 0xffff)
}
func (e ConnEstablished) IntervalWErr() (uint16, error) {
	return getUint16LE(e, 2, 0)
}
func (e ConnEstablished) LatencyWErr() (uint16, error) {
	return getUint16LE(e, 4, 0)
}
func (e ConnEstablished) SupervisionTimeoutWErr() (uint16, error) {
	return getUint16LE(e, 6, 0)
}
func (e ConnEstablished) AddressTypeWErr() (uint8, error) {
	return getByte(e, 8, 0xff)
}
func (e ConnEstablished) AddressWErr() ([6]byte, error) {
	var a [6]byte
	bb, err := getBytes(e, 9, 6)
	if err != nil {
		return a, err
	}
	copy(a[:], bb)
	return a, nil
}

func (e ConnTerminated) ConnHandleWErr() (uint16, error) {
	return getUint16LE(e, 0, 0xffff)
}
func (e ConnTerminated) ReasonWErr() (uint8, error) {
	return getByte(e, 2, 0)
}

func (e ConnParamUpdated) ConnHandleWErr() (uint16, error) {
	return getUint16LE(e, 0, 0xffff)
}
func (e ConnParamUpdated) IntervalWErr() (uint16, error) {
	return getUint16LE(e, 2, 0)
}
func (e ConnParamUpdated) LatencyWErr() (uint16, error) {
	return getUint16LE(e, 4, 0)
}
func (e ConnParamUpdated) SupervisionTimeoutWErr() (uint16, error) {
	return getUint16LE(e, 6, 0)
}

func (e AdvStatus) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e ATTMTUUpdated) ConnHandleWErr() (uint16, error) {
	return getUint16LE(e, 0, 0xffff)
}
func (e ATTMTUUpdated) AttMTUWErr() (uint16, error) {
	return getUint16LE(e, 2, 0)
}

func (e SecurityState) StateWErr() (uint8, error) {
	return getByte(e, 0, 0)
}
func (e SecurityState) StatusWErr() (uint8, error) {
	return getByte(e, 1, 0xff)
}

func (e Authentication) DisplayWErr() (uint8, error) {
	return getByte(e, 0, 0)
}
func (e Authentication) InputWErr() (uint8, error) {
	return getByte(e, 1, 0)
}
func (e Authentication) NumCmpWErr() (uint32, error) {
	return getUint32LE(e, 2, 0)
}

func (e ErrorEvent) OpcodeWErr() (uint16, error) {
	return getUint16LE(e, 0, 0)
}
func (e ErrorEvent) StatusWErr() (uint8, error) {
	return getByte(e, 2, 0xff)
}

func (e Status) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e HCICommandResponse) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}
func (e HCICommandResponse) OpcodeWErr() (uint16, error) {
	return getUint16LE(e, 1, 0)
}
func (e HCICommandResponse) DataWErr() ([]byte, error) {
	return getBytes(e, 3, -1)
}

func (e TestResponse) MemAloWErr() (uint16, error) {
	return getUint16LE(e, 0, 0)
}
func (e TestResponse) MemMaxWErr() (uint16, error) {
	return getUint16LE(e, 2, 0)
}
func (e TestResponse) MemSizeWErr() (uint16, error) {
	return getUint16LE(e, 4, 0)
}

func (e CCCDUpdated) ConnHandleWErr() (uint16, error) {
	return getUint16LE(e, 0, 0xffff)
}
func (e CCCDUpdated) CCCDHandleWErr() (uint16, error) {
	return getUint16LE(e, 2, 0)
}
func (e CCCDUpdated) RspNeededWErr() (uint8, error) {
	return getByte(e, 4, 0)
}
func (e CCCDUpdated) ValueWErr() (uint16, error) {
	return getUint16LE(e, 5, 0)
}

func (e RevisionResponse) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}
func (e RevisionResponse) SNPVersionWErr() (uint16, error) {
	return getUint16LE(e, 1, 0)
}
func (e RevisionResponse) StackBuildVersionWErr() ([]byte, error) {
	return getBytes(e, 3, 10)
}

func (e StatusResponse) GAPRoleStatusWErr() (uint8, error) {
	return getByte(e, 0, 0)
}
func (e StatusResponse) AdvStatusWErr() (uint8, error) {
	return getByte(e, 1, 0)
}
func (e StatusResponse) ATTStatusWErr() (uint8, error) {
	return getByte(e, 2, 0)
}
func (e StatusResponse) ATTMethodWErr() (uint8, error) {
	return getByte(e, 3, 0)
}

func (e RandResponse) ValueWErr() (uint32, error) {
	return getUint32LE(e, 0, 0)
}

func (e GAPParamResponse) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}
func (e GAPParamResponse) ParamIDWErr() (uint16, error) {
	return getUint16LE(e, 1, 0)
}
func (e GAPParamResponse) ValueWErr() (uint16, error) {
	return getUint16LE(e, 3, 0)
}

//get or default
func getByte(b []byte, i int, def byte) (byte, error) {
	bb, err := getBytes(b, i, 1)
	if err != nil {
		return def, err
	}
	return bb[0], nil
}

//get or default
func getUint16LE(b []byte, i int, def uint16) (uint16, error) {
	bb, err := getBytes(b, i, 2)
	if err != nil {
		return def, err
	}
	return binary.LittleEndian.Uint16(bb), nil
}

//get or default
func getUint32LE(b []byte, i int, def uint32) (uint32, error) {
	bb, err := getBytes(b, i, 4)
	if err != nil {
		return def, err
	}
	return binary.LittleEndian.Uint32(bb), nil
}

// getBytes returns count bytes from start, or the rest when count < 0.
// The rest of a body may be empty.
func getBytes(bytes []byte, start int, count int) ([]byte, error) {
	if count < 0 {
		if start > len(bytes) {
			return nil, fmt.Errorf("index error: start %d, len %d", start, len(bytes))
		}
		return bytes[start:], nil
	}

	end := start + count
	//end is non-inclusive
	if start >= len(bytes) || end > len(bytes) {
		return nil, fmt.Errorf("index error: [%d:%d], len %d", start, end, len(bytes))
	}

	return bytes[start:end], nil
}
