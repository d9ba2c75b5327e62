package snp

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rigado/snp/sliceops"
)

// Address types reported by the NP.
const (
	AddrTypePublic       = 0x00
	AddrTypeRandomStatic = 0x01
	AddrTypePublicID     = 0x02
	AddrTypeRandomID     = 0x03
)

// Addr is a peer Bluetooth device address in the NP's byte order (LSB first).
type Addr struct {
	Type  uint8
	Bytes [6]byte
}

// NewAddr parses "aa:bb:cc:dd:ee:ff" (MSB first, as printed).
func NewAddr(s string, typ uint8) (Addr, error) {
	hexStr := strings.Replace(s, ":", "", -1)
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return Addr{}, errors.Wrapf(err, "decode address %q", s)
	}
	if len(b) != 6 {
		return Addr{}, fmt.Errorf("address %q: want 6 bytes, have %d", s, len(b))
	}

	a := Addr{Type: typ}
	copy(a.Bytes[:], sliceops.SwapBuf(b))
	return a, nil
}

func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		a.Bytes[5], a.Bytes[4], a.Bytes[3], a.Bytes[2], a.Bytes[1], a.Bytes[0])
}

// IsZero reports whether no address has been recorded.
func (a Addr) IsZero() bool {
	return a.Bytes == [6]byte{}
}
