package snp

import "fmt"

// InvalidConnHandle is the connection handle while no connection exists.
const InvalidConnHandle uint16 = 0xFFFF

// Connection parameter limits, in NP units.
const (
	ConnIntervalMin = 0x0006 // N * 1.25 msec
	ConnIntervalMax = 0x0c80
	ConnLatencyMin  = 0x0000
	ConnLatencyMax  = 0x01f3

	SupervisionTimeoutMin = 0x000a // N * 10 msec
	SupervisionTimeoutMax = 0x0c80
)

// ConnParams are the parameters in use on the current connection.
type ConnParams struct {
	Interval           uint16 `json:"interval"`
	Latency            uint16 `json:"latency"`
	SupervisionTimeout uint16 `json:"supervisionTimeout"`
}

// ConnInfo is a snapshot of the connection part of the shared state.
type ConnInfo struct {
	Handle    uint16     `json:"handle"`
	Connected bool       `json:"connected"`
	Params    ConnParams `json:"params"`
	Peer      Addr       `json:"-"`
	PeerAddr  string     `json:"peer"`
}

// ConnUpdateRequest asks the NP to renegotiate connection parameters.
type ConnUpdateRequest struct {
	Handle             uint16
	IntervalMin        uint16
	IntervalMax        uint16
	Latency            uint16
	SupervisionTimeout uint16
}

// Validate checks the request against the ranges the NP accepts.
func (p ConnUpdateRequest) Validate() error {
	/* The supervision timeout in milliseconds shall be larger than
	(1 + latency) * interval_max * 2, where interval_max is given in milliseconds.
	*/
	minStoMs := (1 + float64(p.Latency)) * (float64(p.IntervalMax) * 1.25) * 2
	stoMs := float64(p.SupervisionTimeout) * 10

	switch {
	case p.IntervalMax < ConnIntervalMin || p.IntervalMax > ConnIntervalMax:
		return fmt.Errorf("invalid IntervalMax %v", p.IntervalMax)

	case p.IntervalMin < ConnIntervalMin || p.IntervalMin > ConnIntervalMax:
		return fmt.Errorf("invalid IntervalMin %v", p.IntervalMin)

	case p.IntervalMin > p.IntervalMax:
		return fmt.Errorf("IntervalMin %v > IntervalMax %v", p.IntervalMin, p.IntervalMax)

	case p.Latency > ConnLatencyMax:
		return fmt.Errorf("invalid Latency %v", p.Latency)

	case p.SupervisionTimeout < SupervisionTimeoutMin || p.SupervisionTimeout > SupervisionTimeoutMax:
		return fmt.Errorf("invalid SupervisionTimeout %v", p.SupervisionTimeout)

	case stoMs <= minStoMs:
		return fmt.Errorf("invalid SupervisionTimeout %v (too small)", p.SupervisionTimeout)
	}

	return nil
}
