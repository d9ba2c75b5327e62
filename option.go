package snp

import (
	"io"
	"time"

	"github.com/rigado/snp/npi"
)

// DeviceOption is an interface which the host should implement to allow using configuration options
type DeviceOption interface {
	SetTimeout(time.Duration) error
	SetErrorHandler(handler func(error)) error
	SetDisplay(str func(string), num func(uint32)) error
	SetDisplayWriter(w io.Writer) error
	SetNumCmpInputs(confirm, deny InputSource) error
	SetPeerCache(c PeerCache) error

	SetTransport(t npi.Transport) error
	SetTransportUart(path string, baud uint) error
	SetTransportSocket(addr string, timeout time.Duration) error
}

// An Option is a configuration function, which configures the host.
type Option func(DeviceOption) error

// InputSource is an external signal (a button, a key, a line on a terminal)
// that can be armed to fire once.
type InputSource interface {
	// Arm registers fire to be called the next time the input triggers.
	Arm(fire func()) error
	// Disarm stops the source from firing. Safe to call when not armed.
	Disarm()
}

// OptTimeout sets the completion wait timeout. Default is one second.
func OptTimeout(d time.Duration) Option {
	return func(opt DeviceOption) error {
		return opt.SetTimeout(d)
	}
}

// OptErrorHandler sets error handler for unsolicited NP errors and transport failures
func OptErrorHandler(handler func(error)) Option {
	return func(opt DeviceOption) error {
		return opt.SetErrorHandler(handler)
	}
}

// OptDisplay sets the callbacks used to show pairing prompts and values.
func OptDisplay(str func(string), num func(uint32)) Option {
	return func(opt DeviceOption) error {
		return opt.SetDisplay(str, num)
	}
}

// OptDisplayWriter sets the plain text sink used when no display callbacks are set.
func OptDisplayWriter(w io.Writer) Option {
	return func(opt DeviceOption) error {
		return opt.SetDisplayWriter(w)
	}
}

// OptNumCmpInputs sets the confirm and deny inputs for numeric comparison.
func OptNumCmpInputs(confirm, deny InputSource) Option {
	return func(opt DeviceOption) error {
		return opt.SetNumCmpInputs(confirm, deny)
	}
}

// OptPeerCache records connected peers in c.
func OptPeerCache(c PeerCache) Option {
	return func(opt DeviceOption) error {
		return opt.SetPeerCache(c)
	}
}

// OptTransport uses an already opened transport
func OptTransport(t npi.Transport) Option {
	return func(opt DeviceOption) error {
		return opt.SetTransport(t)
	}
}

// OptTransportUart set NPI uart transport
func OptTransportUart(path string, baud uint) Option {
	return func(opt DeviceOption) error {
		return opt.SetTransportUart(path, baud)
	}
}

// OptTransportSocket set NPI tcp socket transport
func OptTransportSocket(addr string, timeout time.Duration) Option {
	return func(opt DeviceOption) error {
		return opt.SetTransportSocket(addr, timeout)
	}
}
