// Package ws28xx drives a LaCrosse WS-28xx weather-console USB/RF
// transceiver. Driver is the public façade (§4.6): callers get an
// explicit handle from New, not a package-level singleton.
package ws28xx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/ws28xx/internal/config"
	"github.com/chrissnell/ws28xx/internal/protocol"
	"github.com/chrissnell/ws28xx/internal/service"
	"github.com/chrissnell/ws28xx/internal/transceiver"
	"github.com/chrissnell/ws28xx/internal/usbhid"
)

// Sentinel errors for façade callers (§7). New returns ErrNotPresent
// and Pair returns ErrTimeout; no Driver method returns ErrUnpaired or
// ErrShuttingDown.
var (
	ErrTimeout      = errors.New("ws28xx: operation timed out")
	ErrUnpaired     = errors.New("ws28xx: transceiver is not paired")
	ErrNotPresent   = errors.New("ws28xx: transceiver not found")
	ErrShuttingDown = errors.New("ws28xx: driver is shutting down")
)

// Driver is the thread-safe handle consumers interact with. One
// service worker goroutine owns the USB transport and protocol state
// machine (§5); every Driver method synchronizes through
// mutex-protected slots rather than touching the transport directly.
type Driver struct {
	dev        usbhid.Device
	controller *transceiver.Controller
	loop       *service.Loop
	logger     *zap.SugaredLogger
	cfg        config.DriverConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pairedMu sync.RWMutex
	paired   bool

	obsMu sync.RWMutex
	obs   *protocol.Observation

	cfgImgMu sync.RWMutex
	cfgImg   *protocol.Config

	histMu       sync.Mutex
	histCaching  bool
	histRecords  []protocol.HistoryRecord
	histScanned  int
	histUncached int
}

// New opens the dongle, runs the one-shot transceiver init sequence
// (§4.2), and starts the service worker. The returned Driver owns
// the USB device until Close is called.
func New(cfg config.DriverConfig, logger *zap.SugaredLogger) (*Driver, error) {
	transport, err := usbhid.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresent, err)
	}
	return newDriver(transport, cfg, logger)
}

// newDriver builds a Driver around an already-open usbhid.Device,
// letting tests substitute usbhid.Fake for the real transport.
func newDriver(dev usbhid.Device, cfg config.DriverConfig, logger *zap.SugaredLogger) (*Driver, error) {
	region := transceiver.RegionUS
	if cfg.TransceiverFrequency == config.RegionEU {
		region = transceiver.RegionEU
	}

	controller := transceiver.NewController(dev, region, logger)

	d := &Driver{
		dev:        dev,
		controller: controller,
		logger:     logger,
		cfg:        cfg,
	}

	commInitial, commSubsequent := cfg.CommIntervalDurations()
	opts := service.Options{
		CommInterval:    [2]time.Duration{commInitial, commSubsequent},
		PollingInterval: cfg.PollingIntervalDuration(),
		MaxTries:        cfg.MaxTries,
	}
	d.loop = service.NewLoop(dev, controller, d, logger, opts)

	d.ctx, d.cancel = context.WithCancel(context.Background())

	if err := controller.Init(d.ctx); err != nil {
		d.cancel()
		return nil, fmt.Errorf("transceiver init: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop.Run(d.ctx)
	}()

	return d, nil
}

// Close signals the service worker to shut down and waits up to one
// second for it to join (§5).
func (d *Driver) Close() error {
	d.cancel()
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		d.logger.Warn("service worker did not exit within 1s of shutdown")
	}
	return d.dev.Close()
}

// service.Sink implementation: publishes decoded frames into the
// mutex-protected slots the façade reads from.

func (d *Driver) PublishObservation(o *protocol.Observation) {
	d.obsMu.Lock()
	d.obs = o
	d.obsMu.Unlock()
}

func (d *Driver) PublishHistory(r *protocol.HistoryRecord) {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	if !d.histCaching {
		return
	}
	d.histRecords = append(d.histRecords, *r)
	d.histScanned++
	if d.histUncached > 0 {
		d.histUncached--
	}
}

func (d *Driver) PublishConfig(c *protocol.Config) {
	d.cfgImgMu.Lock()
	d.cfgImg = c
	d.cfgImgMu.Unlock()
}

func (d *Driver) ClearPendingSetTime()   {}
func (d *Driver) ClearPendingSetConfig() {}

// CurrentObservation returns the most recently decoded observation, or
// nil if none has been received yet (§4.6).
func (d *Driver) CurrentObservation() *protocol.Observation {
	d.obsMu.RLock()
	defer d.obsMu.RUnlock()
	if d.obs == nil {
		return nil
	}
	cp := *d.obs
	return &cp
}

// StartCachingHistory enables appending decoded history records to the
// cache, starting from since (§4.6).
func (d *Driver) StartCachingHistory(since protocol.HistoryIndex) {
	d.histMu.Lock()
	d.histCaching = true
	d.histRecords = nil
	d.histScanned = 0
	d.histMu.Unlock()

	d.loop.StartHistoryCatchup(since)
}

// StopCachingHistory disables further history appends without
// clearing what has already been cached.
func (d *Driver) StopCachingHistory() {
	d.histMu.Lock()
	d.histCaching = false
	d.histMu.Unlock()

	d.loop.StopHistoryCatchup()
}

// GetHistoryCacheRecords returns a snapshot of the cached records in
// arrival order.
func (d *Driver) GetHistoryCacheRecords() []protocol.HistoryRecord {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	out := make([]protocol.HistoryRecord, len(d.histRecords))
	copy(out, d.histRecords)
	return out
}

// ClearHistoryCache discards all cached records.
func (d *Driver) ClearHistoryCache() {
	d.histMu.Lock()
	d.histRecords = nil
	d.histScanned = 0
	d.histMu.Unlock()
}

// GetNumHistoryScanned reports how many history records have been
// decoded since the current caching run started.
func (d *Driver) GetNumHistoryScanned() int {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	return d.histScanned
}

// GetUncachedHistoryCount returns the uncached-record counter. Nothing
// sets it from the console's latest index, so it stays zero;
// PublishHistory only decrements it while it is positive.
func (d *Driver) GetUncachedHistoryCount() int {
	d.histMu.Lock()
	defer d.histMu.Unlock()
	return d.histUncached
}

// GetConfig returns the most recently fetched config image, or nil if
// none has been received yet.
func (d *Driver) GetConfig() *protocol.Config {
	d.cfgImgMu.RLock()
	defer d.cfgImgMu.RUnlock()
	if d.cfgImg == nil {
		return nil
	}
	cp := *d.cfgImg
	return &cp
}

// SetConfig queues cfg to be written to the console on the next
// opportunity (§4.6). It returns immediately; the write is
// confirmed asynchronously via an Ack that clears the pending slot.
func (d *Driver) SetConfig(cfg protocol.Config) {
	d.loop.QueueSetConfig(&cfg)
}

// SetInterval is a convenience over SetConfig that mutates only the
// history archive interval (§4.6).
func (d *Driver) SetInterval(interval protocol.HistoryInterval) error {
	cur := d.GetConfig()
	if cur == nil {
		return fmt.Errorf("ws28xx: no config image yet; call GetConfig first")
	}
	cur.HistoryInterval = interval
	d.SetConfig(*cur)
	return nil
}

// SetTime queues a SendTime request carrying the host clock, sent on
// the next Current response (§4.6).
func (d *Driver) SetTime() {
	d.loop.QueueSetTime()
}

// Pair blocks up to timeout waiting for the console's SET button to
// complete the pairing handshake (§4.2, §4.6).
func (d *Driver) Pair(timeout time.Duration) (protocol.DeviceId, error) {
	deviceID, err := d.controller.Pair(d.ctx, timeout)
	if err != nil {
		if errors.Is(err, transceiver.ErrPairingTimeout) {
			return 0, ErrTimeout
		}
		return 0, err
	}
	d.loop.SetDeviceID(deviceID)
	d.pairedMu.Lock()
	d.paired = true
	d.pairedMu.Unlock()
	return deviceID, nil
}

// TransceiverIsPresent reports whether the dongle responded to the
// EEPROM reads performed during Init.
func (d *Driver) TransceiverIsPresent() bool {
	return d.controller.Info().DeviceId != 0 || d.controller.Info().Serial != ""
}

// TransceiverIsPaired reports whether Pair has completed successfully.
func (d *Driver) TransceiverIsPaired() bool {
	d.pairedMu.RLock()
	defer d.pairedMu.RUnlock()
	return d.paired
}

// GetTransceiverSerial returns the 14-hex-digit serial read during
// Init.
func (d *Driver) GetTransceiverSerial() string {
	return d.controller.Info().Serial
}

// GetTransceiverId returns the device id established during Init or
// Pair.
func (d *Driver) GetTransceiverId() protocol.DeviceId {
	return d.controller.Info().DeviceId
}

// Health reports the service loop's connectivity state (§7).
func (d *Driver) Health() service.Health {
	return d.loop.Health()
}
