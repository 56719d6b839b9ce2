// Package transceiver drives the one-shot dongle setup (EEPROM read,
// AX5051 register programming, frequency tuning) and the pairing
// handshake described in §4.2.
package transceiver

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/ws28xx/internal/protocol"
	"github.com/chrissnell/ws28xx/internal/usbhid"
)

// Region selects the base RF frequency (§4.2, §6).
type Region int

const (
	RegionUS Region = iota
	RegionEU
)

const (
	baseFreqUS = 905_000_000
	baseFreqEU = 868_000_000

	eepromSerialAddr = 0x1f9
	eepromFreqAddr   = 0x1f5

	preambleArm = 0xaa
	subExecuteArm = 0x05
)

// Controller owns the one-shot init sequence and the pairing
// handshake. It is not safe for concurrent use; the Service Loop is
// its only caller.
type Controller struct {
	dev    usbhid.Device
	logger *zap.SugaredLogger
	region Region

	info protocol.TransceiverInfo
}

func NewController(dev usbhid.Device, region Region, logger *zap.SugaredLogger) *Controller {
	return &Controller{dev: dev, logger: logger, region: region}
}

// Info returns the most recently established TransceiverInfo. It is
// the zero value until Init has completed successfully.
func (c *Controller) Info() protocol.TransceiverInfo { return c.info }

// Init runs the one-shot setup sequence (§4.2 steps 1-5). It is
// idempotent: calling it again re-reads the EEPROM and re-programs the
// register table, which is harmless but unnecessary.
func (c *Controller) Init(ctx context.Context) error {
	serial, deviceID, err := c.readSerialAndDeviceID()
	if err != nil {
		return fmt.Errorf("read transceiver serial: %w", err)
	}

	correction, err := c.readFrequencyCorrection()
	if err != nil {
		return fmt.Errorf("read frequency correction: %w", err)
	}

	freq := c.tunedFrequency(correction)
	freqHi, freqMid, freqLo := frequencyRegisters(freq)

	if err := c.writeRegisterTable(freqHi, freqMid, freqLo); err != nil {
		return fmt.Errorf("write AX5051 register table: %w", err)
	}

	if err := c.dev.SetRX(); err != nil {
		return fmt.Errorf("set rx: %w", err)
	}
	if err := c.dev.SetPreamblePattern(preambleArm); err != nil {
		return fmt.Errorf("set preamble: %w", err)
	}
	if err := c.dev.Execute(subExecuteArm); err != nil {
		return fmt.Errorf("arm receiver: %w", err)
	}

	c.info = protocol.TransceiverInfo{
		Serial:              serial,
		DeviceId:            deviceID,
		FrequencyCorrection: correction,
	}
	c.logger.Infow("transceiver initialised", "serial", serial, "deviceId", deviceID, "frequencyHz", freq)
	return nil
}

// readSerialAndDeviceID implements §4.2 step 1: 14 BCD digits
// plus a 16-bit device id read from EEPROM page 0x1f9.
func (c *Controller) readSerialAndDeviceID() (serial string, deviceID protocol.DeviceId, err error) {
	page, err := c.dev.ReadConfigFlash(eepromSerialAddr)
	if err != nil {
		return "", 0, err
	}
	if len(page) < 9 {
		return "", 0, fmt.Errorf("eeprom page too short: %d bytes", len(page))
	}
	for _, b := range page[0:7] {
		serial += fmt.Sprintf("%02x", b)
	}
	deviceID = protocol.DeviceId(uint16(page[7])<<8 | uint16(page[8]))
	return serial, deviceID, nil
}

// readFrequencyCorrection implements §4.2 step 2: a 24-bit
// signed, sign-extended offset read from EEPROM page 0x1f5.
func (c *Controller) readFrequencyCorrection() (int32, error) {
	page, err := c.dev.ReadConfigFlash(eepromFreqAddr)
	if err != nil {
		return 0, err
	}
	if len(page) < 3 {
		return 0, fmt.Errorf("eeprom page too short: %d bytes", len(page))
	}
	raw := uint32(page[0])<<16 | uint32(page[1])<<8 | uint32(page[2])
	if raw&0x800000 != 0 {
		raw |= 0xff000000 // sign-extend the 24-bit field
	}
	return int32(raw), nil
}

func (c *Controller) tunedFrequency(correction int32) int64 {
	base := int64(baseFreqUS)
	if c.region == RegionEU {
		base = baseFreqEU
	}
	return base + int64(correction)
}

// frequencyRegisters computes the three AX5051 frequency bytes from a
// tuned frequency in Hz (§4.2 step 3).
func frequencyRegisters(freqHz int64) (hi, mid, lo byte) {
	freqWords := uint32(math.Round(float64(freqHz) * 16777216.0 / 16_000_000.0))
	return byte(freqWords >> 16), byte(freqWords >> 8), byte(freqWords)
}

// writeRegisterTable writes the fixed AX5051 table, patching the three
// frequency registers with the tuned values (§4.2 step 3).
func (c *Controller) writeRegisterTable(freqHi, freqMid, freqLo byte) error {
	for _, reg := range ax5051InitTable {
		v := reg.Value
		switch reg.Addr {
		case regFreq3:
			v = freqHi
		case regFreq2:
			v = freqMid
		case regFreq1:
			v = freqLo
		}
		if err := c.dev.WriteRegister(reg.Addr, v); err != nil {
			return fmt.Errorf("register %#02x: %w", reg.Addr, err)
		}
	}
	return nil
}

// ErrPairingTimeout is returned by Pair when the console does not
// press SET within the requested window.
var ErrPairingTimeout = fmt.Errorf("pairing timeout: no response from console")

// Pair drives the handshake of §4.2: repeatedly arming the
// receiver and polling read_state until a frame is ready, then
// checking whether it carries a device id. It returns as soon as a
// response header yields a nonzero device id, or ErrPairingTimeout
// when timeout elapses first.
func (c *Controller) Pair(ctx context.Context, timeout time.Duration) (protocol.DeviceId, error) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := c.dev.Execute(preambleArm); err != nil {
			return 0, fmt.Errorf("arm for pairing: %w", err)
		}

		pollCtx, cancel := context.WithDeadline(ctx, deadline)
		_, ready, err := c.dev.ReadState(pollCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			continue
		}
		if !ready {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}

		frame, err := c.dev.ReadFrame()
		if err != nil {
			continue
		}
		_, deviceID, err := protocol.DecodeHeader(frame)
		if err != nil || deviceID == 0 {
			continue
		}

		c.info.DeviceId = deviceID
		c.logger.Infow("transceiver paired", "deviceId", deviceID)
		return deviceID, nil
	}

	return 0, ErrPairingTimeout
}
