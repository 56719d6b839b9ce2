// Package usbhid wraps the kernel USB/HID primitives the WS-28xx
// dongle speaks (§4.1): one control write per register, a
// control write for short commands, a control write/read pair for the
// 273-byte frame buffer, and an interrupt read for the dongle's state
// byte.
package usbhid

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/chrissnell/ws28xx/internal/constants"
)

// HID class-request constants (USB HID 1.11 §7.2).
const (
	hidSetReport = 0x09
	hidGetReport = 0x01

	reportTypeFeature = 0x03

	bmRequestTypeOut = 0x21 // host-to-device | class | interface
	bmRequestTypeIn  = 0xa1 // device-to-host | class | interface
)

// Message ids, the first byte of every control-transfer payload
// (§4.1).
const (
	idWriteRegister     = 0xf0
	idWriteCommand1     = 0xd1
	idSetPreamble       = 0xd8
	idSetRX             = 0xd0
	idExecute           = 0xd9
	idWriteFrame        = 0xd5
	idReadFrame         = 0xd6
	idReadConfigFlash   = 0xdd
	idReadState         = 0xde
)

// FrameSize is the fixed HID report size for write_frame/read_frame.
const FrameSize = 273

// StateReady, StateInitialising, StateIdle are the low-nibble values
// read_state returns (§4.1).
const (
	StateInitialising byte = 0x14
	StateIdle         byte = 0x15
	StateReady        byte = 0x16
)

// TransportFault wraps any USB I/O error. Per §7 it is always
// retryable by the caller and is never swallowed.
type TransportFault struct {
	Op  string
	Err error
}

func (e *TransportFault) Error() string { return fmt.Sprintf("usb transport: %s: %v", e.Op, e.Err) }
func (e *TransportFault) Unwrap() error { return e.Err }

func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportFault{Op: op, Err: err}
}

// Transport is a thin wrapper around a claimed gousb interface. It
// does not know anything about RF framing or the codec; it only
// issues the four control transfers and the interrupt read §4.1
// names.
type Transport struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	in     *gousb.InEndpoint
}

// Open claims the WS-28xx transceiver dongle by vendor/product id.
func Open() (*Transport, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(constants.USBVendorID), gousb.ID(constants.USBProductID))
	if err != nil {
		ctx.Close()
		return nil, fault("open device", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fault("open device", fmt.Errorf("transceiver not found (vid=%#04x pid=%#04x)", constants.USBVendorID, constants.USBProductID))
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fault("set auto detach", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fault("claim config", err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fault("claim interface", err)
	}

	in, err := intf.InEndpoint(0x81)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fault("open interrupt endpoint", err)
	}

	return &Transport{ctx: ctx, device: dev, config: cfg, intf: intf, in: in}, nil
}

// Close releases the interface, config and device in reverse order of
// acquisition.
func (t *Transport) Close() error {
	if t.intf != nil {
		t.intf.Close()
	}
	if t.config != nil {
		t.config.Close()
	}
	if t.device != nil {
		t.device.Close()
	}
	if t.ctx != nil {
		t.ctx.Close()
	}
	return nil
}

// WriteRegister issues the 5-byte AX5051 register write `f0 addr 01
// value 00` (§4.1, used only during Transceiver Controller init).
func (t *Transport) WriteRegister(addr, value byte) error {
	buf := []byte{idWriteRegister, addr, 0x01, value, 0x00}
	_, err := t.device.Control(bmRequestTypeOut, hidSetReport, reportTypeFeature<<8, 0, buf)
	return fault("write register", err)
}

// WriteCommand issues a short-command control write carrying payload
// as given. The caller sets payload[0] to the message id (d0, d1, d7,
// d8, d9, dd). The payload is not padded to a 15- or 21-byte report:
// SetRX, SetPreamblePattern and Execute send 1- or 2-byte payloads.
func (t *Transport) WriteCommand(payload []byte) error {
	_, err := t.device.Control(bmRequestTypeOut, hidSetReport, reportTypeFeature<<8, 0, payload)
	return fault("write command", err)
}

// WriteFrame writes a 273-byte frame buffer preceded by message id d5.
func (t *Transport) WriteFrame(frame []byte) error {
	buf := make([]byte, FrameSize+1)
	buf[0] = idWriteFrame
	copy(buf[1:], frame)
	_, err := t.device.Control(bmRequestTypeOut, hidSetReport, reportTypeFeature<<8, 0, buf)
	return fault("write frame", err)
}

// ReadFrame reads the current 273-byte frame buffer (message id d6).
func (t *Transport) ReadFrame() ([]byte, error) {
	buf := make([]byte, FrameSize+1)
	buf[0] = idReadFrame
	_, err := t.device.Control(bmRequestTypeIn, hidGetReport, reportTypeFeature<<8, 0, buf)
	if err != nil {
		return nil, fault("read frame", err)
	}
	return buf[1:], nil
}

// ReadConfigFlash reads a 36-byte EEPROM page at addr via message id dd.
func (t *Transport) ReadConfigFlash(addr uint16) ([]byte, error) {
	req := []byte{idReadConfigFlash, byte(addr >> 8), byte(addr), 0x00}
	if _, err := t.device.Control(bmRequestTypeOut, hidSetReport, reportTypeFeature<<8, 0, req); err != nil {
		return nil, fault("read config flash request", err)
	}
	resp := make([]byte, 36)
	resp[0] = idReadConfigFlash
	_, err := t.device.Control(bmRequestTypeIn, hidGetReport, reportTypeFeature<<8, 0, resp)
	if err != nil {
		return nil, fault("read config flash response", err)
	}
	return resp[1:], nil
}

// SetRX arms the receiver (message id d0).
func (t *Transport) SetRX() error {
	return t.WriteCommand([]byte{idSetRX})
}

// SetPreamblePattern sets the RF preamble byte (message id d8).
func (t *Transport) SetPreamblePattern(pattern byte) error {
	return t.WriteCommand([]byte{idSetPreamble, pattern})
}

// Execute arms the receiver with the given sub-command (message id d9).
func (t *Transport) Execute(sub byte) error {
	return t.WriteCommand([]byte{idExecute, sub})
}

// ReadState performs the 6-byte interrupt read of message id de and
// reports whether the console has data ready.
func (t *Transport) ReadState(ctx context.Context) (stateByte byte, ready bool, err error) {
	buf := make([]byte, 6)
	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, rerr := t.in.ReadContext(readCtx, buf)
	if rerr != nil {
		return 0, false, fault("read state", rerr)
	}
	if n < 1 {
		return 0, false, fault("read state", fmt.Errorf("short interrupt read: %d bytes", n))
	}
	stateByte = buf[0]
	return stateByte, stateByte == StateReady, nil
}
