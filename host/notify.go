package host

import (
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
)

// WriteValue stores b as the value of c and, if the peer subscribed to c,
// sends it as notifications or indications. Notifications win when the peer
// enabled both.
func (h *Host) WriteValue(c *snp.Char, b []byte) error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	c.SetValue(b)

	cccd := c.CCCD()
	var mode uint8
	switch {
	case cccd&snp.CCCDNotify != 0:
		mode = cmd.Notification
	case cccd&snp.CCCDIndicate != 0:
		mode = cmd.Indication
	default:
		// nobody subscribed, the value is only stored
		return nil
	}
	return h.deliver(h.ConnHandle(), c.Handle, mode, c.Value())
}

func (h *Host) WriteBool(c *snp.Char, v bool) error { return h.WriteValue(c, snp.EncodeBool(v)) }

func (h *Host) WriteInt8(c *snp.Char, v int8) error { return h.WriteValue(c, []byte{byte(v)}) }

func (h *Host) WriteUint8(c *snp.Char, v uint8) error { return h.WriteValue(c, []byte{v}) }

func (h *Host) WriteInt32(c *snp.Char, v int32) error {
	return h.WriteValue(c, snp.EncodeUint32(uint32(v)))
}

func (h *Host) WriteUint32(c *snp.Char, v uint32) error {
	return h.WriteValue(c, snp.EncodeUint32(v))
}

func (h *Host) WriteInt64(c *snp.Char, v int64) error {
	return h.WriteValue(c, snp.EncodeUint64(uint64(v)))
}

func (h *Host) WriteUint64(c *snp.Char, v uint64) error {
	return h.WriteValue(c, snp.EncodeUint64(v))
}

func (h *Host) WriteFloat32(c *snp.Char, v float32) error {
	return h.WriteValue(c, snp.EncodeFloat32(v))
}

func (h *Host) WriteFloat64(c *snp.Char, v float64) error {
	return h.WriteValue(c, snp.EncodeFloat64(v))
}

func (h *Host) WriteBytes(c *snp.Char, b []byte) error { return h.WriteValue(c, b) }

// WriteString stores s with a terminating NUL.
func (h *Host) WriteString(c *snp.Char, s string) error {
	return h.WriteValue(c, snp.EncodeString(s))
}

// deliver sends data in chunks of at most the MTU, always at least one.
// In indication mode each chunk waits for its confirmation, after the
// statuses of earlier notifications are in. The first failure stops
// delivery; chunks already sent stay sent.
// Caller holds the guard.
func (h *Host) deliver(conn, attr uint16, mode uint8, data []byte) error {
	op := "send notification"
	if mode == cmd.Indication {
		op = "send indication"
		h.settleNotifications(op)
	}

	// the MTU can change while chunks are in flight, use one value
	mtu := h.MTU()
	sent, chunks := 0, 0
	for {
		n := len(data) - sent
		if n > mtu {
			n = mtu
		}
		c := &cmd.SendNotifInd{
			ConnHandle: conn,
			AttrHandle: attr,
			Type:       mode,
			Data:       data[sent : sent+n],
		}

		var err error
		if mode == cmd.Indication {
			_, err = h.request(op, c, TagNotifIndCnf)
		} else {
			h.expectNotification()
			if err = h.send(op, c); err != nil {
				h.notificationConfirmed()
			}
		}
		if err != nil {
			if sent == 0 {
				return err
			}
			h.logger.Warnf("%s: stopped after %d of %d bytes: %v", op, sent, len(data), err)
			return h.fail(&snp.PartialWriteError{Sent: sent, Chunks: chunks, Total: len(data), Err: err})
		}

		chunks++
		sent += n
		if sent >= len(data) {
			h.logger.Debugf("%s: %d bytes in %d chunks", op, sent, chunks)
			return nil
		}
	}
}

// expectNotification counts a notification chunk about to be sent so its
// status is not taken for an indication confirmation.
func (h *Host) expectNotification() {
	h.notifMu.Lock()
	defer h.notifMu.Unlock()
	if h.notifPending == 0 {
		h.evts.drain(TagNotifSettled)
	}
	h.notifPending++
}

// notificationConfirmed uncounts a chunk the transport refused.
func (h *Host) notificationConfirmed() {
	h.notifMu.Lock()
	defer h.notifMu.Unlock()
	if h.notifPending == 0 {
		return
	}
	h.notifPending--
	if h.notifPending == 0 {
		h.evts.post(TagNotifSettled, nil)
	}
}

// settleNotifications waits for the status of every notification chunk
// still outstanding. Statuses that never arrive are given up on after the
// timeout. Caller holds the guard.
func (h *Host) settleNotifications(op string) {
	h.notifMu.Lock()
	n := h.notifPending
	h.notifMu.Unlock()
	if n == 0 {
		return
	}

	if p := h.evts.pend(TagNotifSettled, h.timeout); p.Tags == 0 && !p.Closed {
		h.logger.Warnf("%s: %d notification statuses never arrived", op, n)
	}

	h.notifMu.Lock()
	h.notifPending = 0
	h.notifMu.Unlock()
}
