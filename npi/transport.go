package npi

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	rxQueueSize = 64
)

// Handler receives every inbound frame exactly once, in arrival order,
// always from the same goroutine.
type Handler func(Frame)

// Transport carries frames to and from the NP.
type Transport interface {
	// Send hands f to the link. An error means the frame was not sent.
	Send(f Frame) error
	// Subscribe sets the handler for inbound frames. Frames received
	// before a handler is set are dropped.
	Subscribe(h Handler)
	Close() error
}

// Logger is the subset of the module logger the transport uses.
type Logger interface {
	Debugf(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// port runs a Transport over any byte stream. One goroutine reads and
// assembles frames, another delivers them to the handler.
type port struct {
	rw     io.ReadWriteCloser
	logger Logger

	wmu sync.Mutex

	hmu     sync.RWMutex
	handler Handler

	rxQueue chan Frame
	done    chan struct{}
	cmu     sync.Mutex
	onErr   func(error)
}

// NewPort wraps rw. Read errors that are not timeouts end the port and are
// reported through onErr, which may be nil.
func NewPort(rw io.ReadWriteCloser, l Logger, onErr func(error)) Transport {
	if l == nil {
		l = nopLogger{}
	}
	p := &port{
		rw:      rw,
		logger:  l,
		rxQueue: make(chan Frame, rxQueueSize),
		done:    make(chan struct{}),
		onErr:   onErr,
	}

	go p.rxLoop()
	go p.deliverLoop()

	return p
}

func (p *port) Send(f Frame) error {
	if !p.isOpen() {
		return io.EOF
	}

	b, err := f.Marshal()
	if err != nil {
		return errors.Wrap(err, "can't marshal frame")
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()
	n, err := p.rw.Write(b)
	p.logger.Debugf("npi tx [% X], %v, %v", b, n, err)
	if err != nil {
		return errors.Wrap(err, "can't write npi")
	}
	if n != len(b) {
		return errors.Errorf("short write: %d of %d", n, len(b))
	}
	return nil
}

func (p *port) Subscribe(h Handler) {
	p.hmu.Lock()
	p.handler = h
	p.hmu.Unlock()
}

func (p *port) Close() error {
	p.cmu.Lock()
	defer p.cmu.Unlock()

	select {
	case <-p.done:
		return nil
	default:
		close(p.done)
		return errors.Wrap(p.rw.Close(), "can't close npi")
	}
}

func (p *port) isOpen() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *port) rxLoop() {
	a := NewAssembler(
		func(f Frame) {
			select {
			case p.rxQueue <- f:
			case <-p.done:
			}
		},
		func(err error) {
			p.logger.Warnf("npi rx: %v", err)
		},
	)

	tmp := make([]byte, 512)
	for {
		n, err := p.rw.Read(tmp)
		if !p.isOpen() {
			return
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			p.logger.Errorf("npi read: %v", err)
			if p.onErr != nil {
				p.onErr(errors.Wrap(err, "npi read"))
			}
			p.Close()
			return
		}
		if n == 0 {
			continue
		}

		p.logger.Debugf("npi rx [% X]", tmp[:n])
		a.Assemble(tmp[:n])
	}
}

func (p *port) deliverLoop() {
	for {
		select {
		case <-p.done:
			return
		case f := <-p.rxQueue:
			p.hmu.RLock()
			h := p.handler
			p.hmu.RUnlock()
			if h == nil {
				p.logger.Warnf("npi: no handler, dropping %v", f)
				continue
			}
			h(f)
		}
	}
}

func isTimeout(err error) bool {
	t, ok := errors.Cause(err).(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// waitOpenDelay gives the NP time to settle after the port opens.
var waitOpenDelay = 100 * time.Millisecond
