package npi

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// NewSocket dials an NP bridged over TCP (ser2net and the like).
func NewSocket(addr string, timeout time.Duration, l Logger, onErr func(error)) (Transport, error) {
	if timeout <= 0 {
		timeout = time.Second
	}

	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "can't dial %s", addr)
	}

	return NewPort(&connWithTimeout{c: c, timeout: timeout}, l, onErr), nil
}

type connWithTimeout struct {
	c       net.Conn
	timeout time.Duration
}

func (cwt *connWithTimeout) Read(b []byte) (int, error) {
	// with deadline
	cwt.c.SetReadDeadline(time.Now().Add(cwt.timeout))
	return cwt.c.Read(b)
}

func (cwt *connWithTimeout) Write(b []byte) (int, error) {
	// with deadline
	cwt.c.SetWriteDeadline(time.Now().Add(cwt.timeout))
	return cwt.c.Write(b)
}

func (cwt *connWithTimeout) Close() error {
	return cwt.c.Close()
}
