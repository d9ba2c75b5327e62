package snp

import (
	"github.com/pkg/errors"
	"github.com/rigado/snp/advdata"
)

// AdvType selects one of the three advertisement data slots on the NP.
type AdvType uint8

// Advertisement data slots, as numbered by the NP.
const (
	AdvScanRsp AdvType = 0x00
	AdvNonConn AdvType = 0x01
	AdvConn    AdvType = 0x02
)

func (t AdvType) String() string {
	switch t {
	case AdvScanRsp:
		return "scan response"
	case AdvNonConn:
		return "non-connectable"
	case AdvConn:
		return "connectable"
	}
	return "unknown"
}

// Valid reports whether t names an NP slot.
func (t AdvType) Valid() bool {
	return t <= AdvConn
}

// Advertising modes.
const (
	AdvModeConnUndirected    = 0x00
	AdvModeConnDirected      = 0x01
	AdvModeScannable         = 0x02
	AdvModeNonConnUndirected = 0x03
)

// Behavior of advertising once a connection is formed.
const (
	AdvStopOnConn            = 0x00
	AdvRestartNonConnOnConn  = 0x01
	AdvRestartConnOnTerm     = 0x02
	AdvRestartNonConnAndConn = 0x03
)

// AdvSettings override the NP's default advertising parameters.
type AdvSettings struct {
	Mode              uint8  `json:"mode"`
	Timeout           uint16 `json:"timeout"`  // msec, 0 = forever
	Interval          uint16 `json:"interval"` // N * 0.625 msec
	ConnectedBehavior uint8  `json:"connectedBehavior"`
}

// DefaultAdvSettings are used when advertising is started without settings:
// connectable undirected, no timeout, 100 msec interval.
var DefaultAdvSettings = AdvSettings{
	Mode:              AdvModeConnUndirected,
	Timeout:           0,
	Interval:          160,
	ConnectedBehavior: AdvStopOnConn,
}

// Desired connection interval range advertised in the default scan response.
const (
	DefaultDesiredMinConnInt = 0x0050
	DefaultDesiredMaxConnInt = 0x0320
)

const (
	defaultName = "Energia BLE"
	companyID   = 0x000D
)

var defaultNonConnAdv = mustPacket(
	advdata.Flags(advdata.FlagGeneralDiscoverable|advdata.FlagBREDRNotSupported),
	// device id, key data id, key state
	advdata.ManufacturerData(companyID, []byte{0x03, 0x00, 0x00}),
)

var defaultScanRsp = mustScanRsp(defaultName)

func mustPacket(fields ...advdata.Field) []byte {
	p, err := advdata.NewPacket(fields...)
	if err != nil {
		panic(err)
	}
	return p.Bytes()
}

func mustScanRsp(name string) []byte {
	b, err := ScanRspWithName(name)
	if err != nil {
		panic(err)
	}
	return b
}

// DefaultAdvData returns a copy of the built-in payload for a slot.
// The connectable slot has no default; the NP falls back to the
// non-connectable data when it is unset.
func DefaultAdvData(t AdvType) []byte {
	var src []byte
	switch t {
	case AdvNonConn:
		src = defaultNonConnAdv
	case AdvScanRsp:
		src = defaultScanRsp
	}
	if len(src) == 0 {
		return nil
	}
	return append([]byte(nil), src...)
}

// ScanRspWithName builds the default scan response around the complete
// local name.
func ScanRspWithName(name string) ([]byte, error) {
	p, err := advdata.NewPacket(
		advdata.CompleteName(name),
		advdata.ConnIntervalRange(DefaultDesiredMinConnInt, DefaultDesiredMaxConnInt),
		advdata.TxPower(0),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidParameter, "name %q: %v", name, err)
	}
	return p.Bytes(), nil
}

// MaxAdvDataLen is the largest legacy advertisement payload.
const MaxAdvDataLen = 31
