package host

import (
	"fmt"
	"time"

	"github.com/rigado/snp/npi"
)

type transportUart struct {
	path string
	baud uint
}

type transportSocket struct {
	addr    string
	timeout time.Duration
}

type transportConfig struct {
	uart   *transportUart
	socket *transportSocket
}

func getTransport(t transportConfig, l npi.Logger, onErr func(error)) (npi.Transport, error) {
	switch {
	case t.socket != nil:
		return npi.NewSocket(t.socket.addr, t.socket.timeout, l, onErr)

	case t.uart != nil:
		return npi.NewSerial(t.uart.path, t.uart.baud, l, onErr)

	default:
		return nil, fmt.Errorf("no valid transport found")
	}
}
