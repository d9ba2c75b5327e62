package host

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
)

// acquire takes the in-flight guard. A second caller fails fast instead of
// stealing the first one's completion.
func (h *Host) acquire() error {
	if !h.isOpen() {
		return snp.ErrClosed
	}
	if !h.inflight.TryLock() {
		return snp.ErrBusy
	}
	return nil
}

func (h *Host) release() {
	h.inflight.Unlock()
}

// fail records err as the last error and returns it.
func (h *Host) fail(err error) error {
	h.setErr(err)
	return err
}

func (h *Host) setErr(err error) {
	h.errMu.Lock()
	h.lastErr = err
	h.errMu.Unlock()
}

// LastError returns the error of the last failed call. An NP error that
// arrived while nothing was waiting is reported until the next request.
func (h *Host) LastError() error {
	if v, ok := h.evts.peek(TagError); ok {
		if err, ok := v.(error); ok {
			return err
		}
	}

	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.lastErr
}

// send hands c to the transport. Caller holds the guard.
func (h *Host) send(op string, c cmd.Command) error {
	f, err := cmd.Frame(c)
	if err != nil {
		return h.fail(errors.Wrapf(err, "%s: can't encode", op))
	}

	h.logger.Debugf("%s: send %v", op, f)
	if err := h.transport.Send(f); err != nil {
		return h.fail(&snp.TransportError{Op: op, Err: err})
	}
	return nil
}

// request sends c and waits for tag. Stale posts of tag or of the error
// tag are dropped first so they can't complete or fail this request.
// Caller holds the guard.
func (h *Host) request(op string, c cmd.Command, tag Tag) (posting, error) {
	if stale := h.evts.drain(tag | TagError); stale.Tags != 0 {
		h.logger.Debugf("%s: dropped stale %v", op, stale.Tags)
		if err, ok := stale.Value(TagError).(error); ok {
			h.logger.Warnf("%s: unhandled NP error: %v", op, err)
		}
	}

	if err := h.send(op, c); err != nil {
		return posting{}, err
	}
	return h.waitFor(op, tag)
}

// waitFor clears the last error and waits for tag or the error tag.
// Only tag counts as success.
func (h *Host) waitFor(op string, tag Tag) (posting, error) {
	h.setErr(nil)

	p := h.evts.pend(tag|TagError, h.timeout)
	switch {
	case p.Has(tag):
		if err, ok := p.Value(TagError).(error); ok {
			// arrived alongside the completion, keep it visible
			h.logger.Warnf("%s: NP error with completion: %v", op, err)
			h.setErr(err)
		}
		return p, nil

	case p.Has(TagError):
		err, ok := p.Value(TagError).(error)
		if !ok {
			err = &snp.StatusError{Op: op, Status: snp.StatusFailure}
		}
		return p, h.fail(err)

	case p.Closed:
		return p, h.fail(snp.ErrClosed)

	default:
		h.logger.Debugf("%s: timeout waiting for %v", op, tag)
		return p, h.fail(errors.Wrap(snp.ErrTimeout, op))
	}
}

// absorbDuplicate swallows the second confirmation the NP sends for some
// requests. It never fails the caller.
func (h *Host) absorbDuplicate(op string, tag Tag) {
	if p := h.evts.pend(tag, h.timeout); p.Tags == 0 {
		h.logger.Debugf("%s: no duplicate %v", op, tag)
	}
}

// Wait blocks until one of the tags in mask is posted, for example
// TagConnEstablished while advertising. It holds the in-flight guard.
func (h *Host) Wait(mask Tag, timeout time.Duration) (Tag, error) {
	if err := h.acquire(); err != nil {
		return 0, err
	}
	defer h.release()

	p := h.evts.pend(mask, timeout)
	switch {
	case p.Tags != 0:
		if err, ok := p.Value(TagError).(error); ok {
			return p.Tags, h.fail(err)
		}
		return p.Tags, nil
	case p.Closed:
		return 0, h.fail(snp.ErrClosed)
	default:
		return 0, h.fail(errors.Wrapf(snp.ErrTimeout, "wait %v", mask))
	}
}

// precondition fails a call before anything is sent.
func (h *Host) precondition(op string, err error) error {
	return h.fail(errors.Wrap(err, op))
}
