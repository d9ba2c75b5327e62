package host

import (
	"github.com/pkg/errors"
	"github.com/rigado/snp/cmd"
	"github.com/rigado/snp/evt"
	"github.com/rigado/snp/sliceops"
)

// Revision identifies the NP firmware.
type Revision struct {
	SNPVersion        uint16 `json:"snpVersion"`
	StackBuildVersion []byte `json:"stackBuildVersion"`
}

// DeviceStatus is the NP's view of its own roles.
type DeviceStatus struct {
	GAPRole   uint8 `json:"gapRole"`
	Advertise uint8 `json:"advertise"`
	ATT       uint8 `json:"att"`
	ATTMethod uint8 `json:"attMethod"`
}

// TestResult is the NP's heap report.
type TestResult struct {
	MemAlo  uint16 `json:"memAlo"`
	MemMax  uint16 `json:"memMax"`
	MemSize uint16 `json:"memSize"`
}

func (h *Host) Revision() (Revision, error) {
	if err := h.acquire(); err != nil {
		return Revision{}, err
	}
	defer h.release()

	p, err := h.request("get revision", &cmd.GetRevision{}, TagRevisionRsp)
	if err != nil {
		return Revision{}, err
	}
	r, _ := p.Value(TagRevisionRsp).([]byte)
	rsp := evt.RevisionResponse(r)
	return Revision{
		SNPVersion:        rsp.SNPVersion(),
		StackBuildVersion: sliceops.Clone(rsp.StackBuildVersion()),
	}, nil
}

func (h *Host) Status() (DeviceStatus, error) {
	if err := h.acquire(); err != nil {
		return DeviceStatus{}, err
	}
	defer h.release()

	p, err := h.request("get status", &cmd.GetStatus{}, TagStatusRsp)
	if err != nil {
		return DeviceStatus{}, err
	}
	r, _ := p.Value(TagStatusRsp).([]byte)
	rsp := evt.StatusResponse(r)
	return DeviceStatus{
		GAPRole:   rsp.GAPRoleStatus(),
		Advertise: rsp.AdvStatus(),
		ATT:       rsp.ATTStatus(),
		ATTMethod: rsp.ATTMethod(),
	}, nil
}

// Rand returns a random number generated by the NP.
func (h *Host) Rand() (uint32, error) {
	if err := h.acquire(); err != nil {
		return 0, err
	}
	defer h.release()

	return h.rand()
}

// Caller holds the guard.
func (h *Host) rand() (uint32, error) {
	p, err := h.request("get rand", &cmd.GetRand{}, TagRandRsp)
	if err != nil {
		return 0, err
	}
	v, _ := p.Value(TagRandRsp).(uint32)
	return v, nil
}

// HCICommand passes an HCI command through the NP and returns a copy of the
// data in its response.
func (h *Host) HCICommand(opcode uint16, params []byte) ([]byte, error) {
	if err := h.acquire(); err != nil {
		return nil, err
	}
	defer h.release()

	h.releaseStalePayload(TagHCIRsp)
	p, err := h.request("hci command", &cmd.HCICommand{Opcode: opcode, Params: params}, TagHCIRsp)
	if err != nil {
		return nil, err
	}

	b, _ := p.Value(TagHCIRsp).([]byte)
	data := sliceops.Clone(evt.HCICommandResponse(b).Data())
	h.evts.post(TagPayloadCopied, nil)

	if got := evt.HCICommandResponse(b).Opcode(); got != opcode {
		h.logger.Warnf("hci command 0x%04X: response for 0x%04X", opcode, got)
	}
	return data, nil
}

// TestCommand asks the NP for its heap report.
func (h *Host) TestCommand() (TestResult, error) {
	if err := h.acquire(); err != nil {
		return TestResult{}, err
	}
	defer h.release()

	h.releaseStalePayload(TagTestRsp)
	p, err := h.request("test command", &cmd.Test{}, TagTestRsp)
	if err != nil {
		return TestResult{}, err
	}

	b, _ := p.Value(TagTestRsp).([]byte)
	rsp := evt.TestResponse(b)
	r := TestResult{
		MemAlo:  rsp.MemAlo(),
		MemMax:  rsp.MemMax(),
		MemSize: rsp.MemSize(),
	}
	h.evts.post(TagPayloadCopied, nil)
	return r, nil
}

// releaseStalePayload lets the delivery context go if it is still holding a
// payload nobody asked for. Caller holds the guard.
func (h *Host) releaseStalePayload(tag Tag) {
	if p := h.evts.drain(tag); p.Tags != 0 {
		h.logger.Debugf("releasing unclaimed %v payload", tag)
		h.evts.post(TagPayloadCopied, nil)
	}
}

// GetGapParam reads one GAP parameter.
func (h *Host) GetGapParam(id uint16) (uint16, error) {
	if err := h.acquire(); err != nil {
		return 0, err
	}
	defer h.release()

	p, err := h.request("get gap param", &cmd.GetGAPParam{ParamID: id}, TagGAPParamRsp)
	if err != nil {
		return 0, errors.Wrapf(err, "param 0x%04X", id)
	}
	v, _ := p.Value(TagGAPParamRsp).(uint16)
	return v, nil
}

// SetGapParam writes one GAP parameter.
func (h *Host) SetGapParam(id, value uint16) error {
	if err := h.acquire(); err != nil {
		return err
	}
	defer h.release()

	_, err := h.request("set gap param", &cmd.SetGAPParam{ParamID: id, Value: value}, TagGAPParamRsp)
	return err
}
