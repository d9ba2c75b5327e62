package snp

import "time"

// PeerRecord is what the host remembers about a peer between connections.
type PeerRecord struct {
	Addr          string     `json:"addr"`
	AddrType      uint8      `json:"addrType"`
	Params        ConnParams `json:"params"`
	SecurityState uint8      `json:"securityState"`
	Connections   int        `json:"connections"`
	LastSeen      time.Time  `json:"lastSeen"`
}

// PeerCache persists PeerRecords keyed by peer address.
type PeerCache interface {
	Store(Addr, PeerRecord) error
	Load(Addr) (PeerRecord, error)
	List() ([]PeerRecord, error)
	Clear() error
}
