package host

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Tag identifies a class of asynchronous NP message. Tags are bits so that
// a wait can name several of them.
type Tag uint32

const (
	TagPowerUp Tag = 1 << iota
	TagAdvEnabled
	TagAdvEnded
	TagAdvDataRsp
	TagConnEstablished
	TagConnTerminated
	TagHCIRsp
	TagTestRsp
	TagConnParamsUpdated
	TagConnParamsCnf
	TagNotifIndCnf
	TagAuthEvent
	TagAuthRsp
	TagSecurityState
	TagSecurityParamRsp
	TagWhiteListRsp
	TagNumCmpInput
	TagRevisionRsp
	TagStatusRsp
	TagRandRsp
	TagGAPParamRsp
	TagMTUUpdated

	// TagNotifSettled is posted once every notification chunk sent so far
	// has been confirmed by the NP.
	TagNotifSettled

	// TagPayloadCopied is posted by the application once it has copied the
	// payload attached to TagHCIRsp or TagTestRsp.
	TagPayloadCopied Tag = 1 << 30
	// TagError is posted instead of a completion tag when the NP reports
	// a failure. Its value is the error.
	TagError Tag = 1 << 31
)

var tagNames = []string{
	"PowerUp", "AdvEnabled", "AdvEnded", "AdvDataRsp", "ConnEstablished",
	"ConnTerminated", "HCIRsp", "TestRsp", "ConnParamsUpdated", "ConnParamsCnf",
	"NotifIndCnf", "AuthEvent", "AuthRsp", "SecurityState", "SecurityParamRsp",
	"WhiteListRsp", "NumCmpInput", "RevisionRsp", "StatusRsp", "RandRsp",
	"GAPParamRsp", "MTUUpdated", "NotifSettled",
}

func (t Tag) String() string {
	if t == 0 {
		return "none"
	}

	var names []string
	for i := 0; i < 32; i++ {
		bit := Tag(1) << uint(i)
		if t&bit == 0 {
			continue
		}
		switch {
		case bit == TagPayloadCopied:
			names = append(names, "PayloadCopied")
		case bit == TagError:
			names = append(names, "Error")
		case i < len(tagNames):
			names = append(names, tagNames[i])
		default:
			names = append(names, fmt.Sprintf("bit%d", i))
		}
	}
	return strings.Join(names, "|")
}

// posting is the result of a wait: the tags that were consumed and the
// values posted with them.
type posting struct {
	Tags   Tag
	Closed bool
	vals   map[Tag]interface{}
}

func (p posting) Has(t Tag) bool {
	return p.Tags&t != 0
}

func (p posting) Value(t Tag) interface{} {
	return p.vals[t]
}

// events is the single wait channel shared by both contexts. Posts OR into
// a pending set and are consumed by the next wait whose mask matches.
type events struct {
	mu      sync.Mutex
	pending Tag
	vals    map[Tag]interface{}
	changed chan struct{}
	closed  bool
}

func newEvents() *events {
	return &events{
		vals:    make(map[Tag]interface{}),
		changed: make(chan struct{}),
	}
}

// post marks t pending. A non-nil v replaces any value already pending
// for t; t must be a single bit when v is set.
func (e *events) post(t Tag, v interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.pending |= t
	if v != nil {
		e.vals[t] = v
	}

	// wake every waiter, they re-check their masks
	close(e.changed)
	e.changed = make(chan struct{})
}

// take consumes the pending bits in mask. Caller holds mu.
func (e *events) take(mask Tag) posting {
	got := e.pending & mask
	if got == 0 {
		return posting{}
	}

	p := posting{Tags: got}
	for t, v := range e.vals {
		if got&t == 0 {
			continue
		}
		if p.vals == nil {
			p.vals = make(map[Tag]interface{})
		}
		p.vals[t] = v
		delete(e.vals, t)
	}
	e.pending &^= got
	return p
}

// pend blocks until a tag in mask is pending, the timeout elapses or the
// events are closed. A zero posting means timeout.
func (e *events) pend(mask Tag, timeout time.Duration) posting {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		e.mu.Lock()
		if p := e.take(mask); p.Tags != 0 {
			e.mu.Unlock()
			return p
		}
		if e.closed {
			e.mu.Unlock()
			return posting{Closed: true}
		}
		ch := e.changed
		e.mu.Unlock()

		select {
		case <-ch:
		case <-timer.C:
			return posting{}
		}
	}
}

// drain consumes whatever is pending in mask without blocking.
func (e *events) drain(mask Tag) posting {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.take(mask)
}

// peek returns the value pending for t without consuming it.
func (e *events) peek(t Tag) (interface{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending&t == 0 {
		return nil, false
	}
	return e.vals[t], true
}

// close wakes every waiter. Later posts are dropped.
func (e *events) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.changed)
}
