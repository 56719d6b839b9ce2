package usbhid

import "context"

// Device is the subset of Transport the rest of the driver depends
// on. It exists so the Transceiver Controller and Service Loop can be
// tested against Fake instead of real hardware.
type Device interface {
	WriteRegister(addr, value byte) error
	WriteCommand(payload []byte) error
	WriteFrame(frame []byte) error
	ReadFrame() ([]byte, error)
	ReadConfigFlash(addr uint16) ([]byte, error)
	SetRX() error
	SetPreamblePattern(pattern byte) error
	Execute(sub byte) error
	ReadState(ctx context.Context) (stateByte byte, ready bool, err error)
	Close() error
}

var _ Device = (*Transport)(nil)
