package host

import (
	"github.com/pkg/errors"
	"github.com/rigado/snp"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/sliceops"
)

// advSlot is the host's copy of what the NP holds in one advertisement slot.
type advSlot struct {
	data      []byte
	isDefault bool
}

// StartAdvert fills any unset slot with its default payload and starts
// advertising. A nil s uses snp.DefaultAdvSettings.
func (h *Host) StartAdvert(s *snp.AdvSettings) error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	if h.IsAdvertising() {
		return h.precondition("start advert", snp.ErrAlreadyAdvertising)
	}
	if err := h.advertDataInit(); err != nil {
		return err
	}

	if s == nil {
		d := snp.DefaultAdvSettings
		s = &d
	}
	_, err := h.request("start advert", &cmd.StartAdvertising{
		Type:     s.Mode,
		Timeout:  s.Timeout,
		Interval: s.Interval,
		Behavior: s.ConnectedBehavior,
	}, TagAdvEnabled)
	return err
}

// StopAdvert stops advertising and waits for the NP to confirm it ended.
func (h *Host) StopAdvert() error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	if !h.IsAdvertising() {
		return h.precondition("stop advert", snp.ErrNotAdvertising)
	}
	_, err := h.request("stop advert", &cmd.StopAdvertising{}, TagAdvEnded)
	return err
}

// SetAdvertData replaces the payload of one slot. The host keeps its own
// copy of data.
func (h *Host) SetAdvertData(t snp.AdvType, data []byte) error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	return h.setAdvertData(t, data, false)
}

// SetAdvertName advertises name in place of the default scan response name.
func (h *Host) SetAdvertName(name string) error {
	b, err := snp.ScanRspWithName(name)
	if err != nil {
		return h.precondition("set advert name", errors.Wrapf(err, "name %q", name))
	}
	return h.SetAdvertData(snp.AdvScanRsp, b)
}

// AdvertData returns a copy of the payload last set for slot t, nil if unset.
func (h *Host) AdvertData(t snp.AdvType) []byte {
	if !t.Valid() {
		return nil
	}
	h.advMu.Lock()
	defer h.advMu.Unlock()
	return sliceops.Clone(h.adv[t].data)
}

// setAdvertData sends one slot. Caller holds the guard.
func (h *Host) setAdvertData(t snp.AdvType, data []byte, isDefault bool) error {
	const op = "set adv data"
	if !t.Valid() {
		return h.precondition(op, errors.Wrapf(snp.ErrInvalidParameter, "adv type %d", t))
	}
	if len(data) > snp.MaxAdvDataLen {
		return h.precondition(op, errors.Wrapf(snp.ErrInvalidParameter, "%d bytes of %v data", len(data), t))
	}

	owned := sliceops.Clone(data)
	if _, err := h.request(op, &cmd.SetAdvertisementData{Type: uint8(t), Data: owned}, TagAdvDataRsp); err != nil {
		return err
	}
	// the NP confirms this one twice
	h.absorbDuplicate(op, TagAdvDataRsp)

	h.advMu.Lock()
	h.adv[t] = advSlot{data: owned, isDefault: isDefault}
	h.advMu.Unlock()

	h.logger.Debugf("%v adv data set, %d bytes", t, len(owned))
	return nil
}

// advertDataInit sets every slot that was never set and has a default.
// Caller holds the guard.
func (h *Host) advertDataInit() error {
	for _, t := range []snp.AdvType{snp.AdvNonConn, snp.AdvConn, snp.AdvScanRsp} {
		h.advMu.Lock()
		set := h.adv[t].data != nil
		h.advMu.Unlock()
		if set {
			continue
		}

		d := snp.DefaultAdvData(t)
		if d == nil {
			continue
		}
		if err := h.setAdvertData(t, d, true); err != nil {
			return err
		}
	}
	return nil
}
