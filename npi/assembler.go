package npi

import (
	"encoding/binary"
	"fmt"
	"time"
)

// frameTimeout bounds how long a partial frame may wait for the rest of its bytes.
const frameTimeout = 500 * time.Millisecond

// Assembler turns a byte stream into frames. Garbage before a SOF and
// partial frames older than frameTimeout are dropped.
type Assembler struct {
	b       []byte
	timeout time.Time
	out     func(Frame)
	bad     func(error)
}

func NewAssembler(out func(Frame), bad func(error)) *Assembler {
	return &Assembler{
		b:   make([]byte, 0, 256),
		out: out,
		bad: bad,
	}
}

func (a *Assembler) Assemble(b []byte) {
	switch {
	case len(b) == 0:
		return

	case !a.timeout.IsZero() && time.Now().After(a.timeout):
		//timed out
		if len(a.b) != 0 && a.bad != nil {
			a.bad(fmt.Errorf("dropped %d byte partial frame", len(a.b)))
		}
		a.reset()
	}

	if len(a.b) == 0 {
		i := indexSOF(b)
		if i < 0 {
			return
		}
		b = b[i:]
		a.timeout = time.Now().Add(frameTimeout)
	}
	a.b = append(a.b, b...)

	for {
		n, ok := a.frameLength()
		if !ok {
			return
		}

		var f Frame
		var err error
		var rem []byte
		switch {
		case n > headerLength+MaxPayload+fcsLength:
			err = fmt.Errorf("frame length %d exceeds max", n)
		case len(a.b) < n:
			return
		default:
			f, err = Unmarshal(a.b[:n])
			rem = a.b[n:]
		}

		if err != nil {
			if a.bad != nil {
				a.bad(err)
			}
			// resync on the next start byte after the bad one
			rem = a.b[1:]
		} else {
			a.out(f)
		}

		next := make([]byte, 0, 256)
		if i := indexSOF(rem); i >= 0 {
			next = append(next, rem[i:]...)
		}
		a.b = next
		if len(a.b) == 0 {
			a.timeout = time.Time{}
			return
		}
		a.timeout = time.Now().Add(frameTimeout)
	}
}

func (a *Assembler) reset() {
	a.b = make([]byte, 0, 256)
	a.timeout = time.Time{}
}

func (a *Assembler) frameLength() (int, bool) {
	if len(a.b) < headerLength {
		return 0, false
	}
	l := int(binary.LittleEndian.Uint16(a.b[lenOffset:]))
	return headerLength + l + fcsLength, true
}

func indexSOF(b []byte) int {
	for i, v := range b {
		if v == SOF {
			return i
		}
	}
	return -1
}
