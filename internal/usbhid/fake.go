package usbhid

import "context"

// Fake is an in-memory Device used by the transceiver and service
// package tests. It is not built for production use -- just enough
// bookkeeping to drive the state machine and init sequence without a
// dongle attached.
type Fake struct {
	ConfigFlash map[uint16][]byte
	Frames      [][]byte // queued read_frame responses, consumed front to back
	States      []byte   // queued read_state low-nibble bytes, consumed front to back

	WrittenFrames    [][]byte
	WrittenRegisters [][2]byte
	WrittenCommands  [][]byte

	ReadFrameErr  error
	ReadStateErr  error
	WriteFrameErr error
	stateIdx      int
	frameIdx      int
	closed        bool
}

var _ Device = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{ConfigFlash: make(map[uint16][]byte)}
}

func (f *Fake) WriteRegister(addr, value byte) error {
	f.WrittenRegisters = append(f.WrittenRegisters, [2]byte{addr, value})
	return nil
}

func (f *Fake) WriteCommand(payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.WrittenCommands = append(f.WrittenCommands, cp)
	return nil
}

func (f *Fake) WriteFrame(frame []byte) error {
	if f.WriteFrameErr != nil {
		return f.WriteFrameErr
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.WrittenFrames = append(f.WrittenFrames, cp)
	return nil
}

func (f *Fake) ReadFrame() ([]byte, error) {
	if f.ReadFrameErr != nil {
		return nil, f.ReadFrameErr
	}
	if f.frameIdx >= len(f.Frames) {
		return nil, &TransportFault{Op: "read frame", Err: context.DeadlineExceeded}
	}
	frame := f.Frames[f.frameIdx]
	f.frameIdx++
	return frame, nil
}

func (f *Fake) ReadConfigFlash(addr uint16) ([]byte, error) {
	data, ok := f.ConfigFlash[addr]
	if !ok {
		return make([]byte, 35), nil
	}
	return data, nil
}

func (f *Fake) SetRX() error                         { return f.WriteCommand([]byte{idSetRX}) }
func (f *Fake) SetPreamblePattern(pattern byte) error { return f.WriteCommand([]byte{idSetPreamble, pattern}) }
func (f *Fake) Execute(sub byte) error                { return f.WriteCommand([]byte{idExecute, sub}) }

func (f *Fake) ReadState(ctx context.Context) (byte, bool, error) {
	if f.ReadStateErr != nil {
		return 0, false, f.ReadStateErr
	}
	if f.stateIdx >= len(f.States) {
		return StateIdle, false, nil
	}
	s := f.States[f.stateIdx]
	f.stateIdx++
	return s, s == StateReady, nil
}

func (f *Fake) Close() error {
	f.closed = true
	return nil
}
