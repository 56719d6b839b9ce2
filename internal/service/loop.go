// Package service drives the USB transport at the cadence the
// console's RF half-duplex window requires (§4.5): poll
// read_state until data is ready, pull and decode a frame, apply it to
// the shared slots, ask the protocol state machine what to send next,
// write that frame, then sleep the inter-frame interval.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/ws28xx/internal/protocol"
	"github.com/chrissnell/ws28xx/internal/transceiver"
	"github.com/chrissnell/ws28xx/internal/usbhid"
)

// Options configures the loop's timing (§6 configuration table).
type Options struct {
	// CommInterval holds the two inter-frame sleeps: the first wait
	// after a write, then the steady-state wait for later reads in the
	// same cycle. Defaults to 380ms/200ms if zero.
	CommInterval [2]time.Duration
	// PollingInterval is how long read_state may be polled before a
	// cycle is considered a sync loss. Defaults to 10s if zero.
	PollingInterval time.Duration
	// MaxTries bounds transport-fault retries per request. Defaults to
	// 3 if zero.
	MaxTries int
	// SyncLossLimit is how many consecutive sync losses trigger a
	// NoContact health signal. Defaults to 3 if zero.
	SyncLossLimit int
}

func (o Options) withDefaults() Options {
	if o.CommInterval[0] == 0 {
		o.CommInterval[0] = 380 * time.Millisecond
	}
	if o.CommInterval[1] == 0 {
		o.CommInterval[1] = 200 * time.Millisecond
	}
	if o.PollingInterval == 0 {
		o.PollingInterval = 10 * time.Second
	}
	if o.MaxTries == 0 {
		o.MaxTries = 3
	}
	if o.SyncLossLimit == 0 {
		o.SyncLossLimit = 3
	}
	return o
}

// Health is a point-in-time snapshot of the loop's connectivity, read
// by the façade's health query (§7).
type Health struct {
	Degraded      bool
	SyncLossCount int
	LastFrameAt   time.Time
}

// Sink receives decoded results as the loop produces them. The façade
// implements this to publish into its shared slots (§4.6).
type Sink interface {
	PublishObservation(*protocol.Observation)
	PublishHistory(*protocol.HistoryRecord)
	PublishConfig(*protocol.Config)
	ClearPendingSetTime()
	ClearPendingSetConfig()
}

// Loop is the single service-worker task of §4.5, §5.
type Loop struct {
	dev        usbhid.Device
	controller *transceiver.Controller
	sink       Sink
	logger     *zap.SugaredLogger
	opts       Options

	pendingMu sync.Mutex
	pending   protocol.PendingWrites

	histMu sync.Mutex
	hist   protocol.HistoryProgress
	cache  bool // whether history caching is currently enabled

	healthMu sync.Mutex
	health   Health

	deviceIDMu sync.RWMutex
	deviceID   protocol.DeviceId

	dedupMu   sync.Mutex
	lastCurrentHash, lastHistoryHash uint64
	lastCurrentAt, lastHistoryAt     time.Time
}

// NewLoop builds a Loop. deviceID may be zero; Run will not write any
// frame until pairing (driven externally through SetDeviceID) supplies
// one, per the no-zero-id-emission invariant (§3, §8).
func NewLoop(dev usbhid.Device, controller *transceiver.Controller, sink Sink, logger *zap.SugaredLogger, opts Options) *Loop {
	return &Loop{
		dev:        dev,
		controller: controller,
		sink:       sink,
		logger:     logger,
		opts:       opts.withDefaults(),
	}
}

// SetDeviceID installs the device id the pairing handshake (or a
// loaded EEPROM id) established. Safe to call before or while Run is
// executing.
func (l *Loop) SetDeviceID(id protocol.DeviceId) {
	l.deviceIDMu.Lock()
	l.deviceID = id
	l.deviceIDMu.Unlock()
}

func (l *Loop) currentDeviceID() protocol.DeviceId {
	l.deviceIDMu.RLock()
	defer l.deviceIDMu.RUnlock()
	return l.deviceID
}

// QueueSetTime asks the loop to send the host clock on the next
// Current response (§4.6 set_time()).
func (l *Loop) QueueSetTime() {
	l.pendingMu.Lock()
	l.pending.SetTime = true
	l.pendingMu.Unlock()
}

// QueueSetConfig asks the loop to write cfg on the next opportunity
// (§4.6 set_config()).
func (l *Loop) QueueSetConfig(cfg *protocol.Config) {
	l.pendingMu.Lock()
	l.pending.SetConfig = cfg
	l.pendingMu.Unlock()
}

// StartHistoryCatchup enables history-cache draining starting at
// since, the façade's start_caching_history (§4.6).
func (l *Loop) StartHistoryCatchup(since protocol.HistoryIndex) {
	l.pendingMu.Lock()
	l.pending.HistoryCatchup = true
	l.pendingMu.Unlock()

	l.histMu.Lock()
	l.hist.ThisIndex = since
	l.cache = true
	l.histMu.Unlock()
}

// StopHistoryCatchup disables further history requests.
func (l *Loop) StopHistoryCatchup() {
	l.pendingMu.Lock()
	l.pending.HistoryCatchup = false
	l.pendingMu.Unlock()

	l.histMu.Lock()
	l.cache = false
	l.histMu.Unlock()
}

// Health returns the current health snapshot (§7 Degraded).
func (l *Loop) Health() Health {
	l.healthMu.Lock()
	defer l.healthMu.Unlock()
	return l.health
}

// Run drives the loop until ctx is cancelled. It is meant to be
// launched as `go loop.Run(ctx)` by the façade, which also owns the
// WaitGroup that confirms clean shutdown (§4.5 cancellation,
// §5).
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("service loop: shutdown requested, exiting")
			return
		default:
		}

		if err := l.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warnf("service loop iteration error: %v", err)
		}
	}
}

// iterate runs one poll/read/apply/write/sleep cycle.
func (l *Loop) iterate(ctx context.Context) error {
	ready, err := l.waitForReady(ctx)
	if err != nil {
		return err
	}
	if !ready {
		l.recordSyncLoss(ctx)
		return nil
	}
	l.resetSyncLoss()

	frame, err := l.readFrameWithRetry(ctx)
	if err != nil {
		return err
	}

	respType, err := l.apply(frame)
	if err != nil {
		// CodecFault: logged, discarded, loop continues with GetCurrent
		// (§4.5, §7).
		l.logger.Warnf("discarding frame: %v", err)
		return l.sendNext(ctx, protocol.ResponseAck)
	}

	return l.sendNext(ctx, respType)
}

// waitForReady polls read_state up to PollingInterval, sleeping
// CommInterval[1] between attempts (§4.5 step 1, §6).
func (l *Loop) waitForReady(ctx context.Context) (bool, error) {
	deadline := time.Now().Add(l.opts.PollingInterval)
	for {
		_, ready, err := l.dev.ReadState(ctx)
		if err == nil && ready {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(l.opts.CommInterval[1]):
		}
	}
}

// recordSyncLoss re-arms the receiver and, after SyncLossLimit
// consecutive losses, marks the health signal degraded (§4.5,
// §7 NoContact).
func (l *Loop) recordSyncLoss(ctx context.Context) {
	if err := l.dev.Execute(0x05); err != nil {
		l.logger.Warnf("re-arm after sync loss failed: %v", err)
	}

	l.healthMu.Lock()
	l.health.SyncLossCount++
	if l.health.SyncLossCount >= l.opts.SyncLossLimit {
		l.health.Degraded = true
	}
	l.healthMu.Unlock()
}

func (l *Loop) resetSyncLoss() {
	l.healthMu.Lock()
	wasDegraded := l.health.Degraded
	l.health.SyncLossCount = 0
	l.health.Degraded = false
	l.health.LastFrameAt = time.Now()
	l.healthMu.Unlock()
	if wasDegraded {
		l.logger.Info("service loop: contact restored")
	}
}

// readFrameWithRetry retries transport faults up to MaxTries times
// with exponential backoff (200ms, 400ms, 800ms). Codec errors are not
// transport errors and are returned immediately (§4.5, §7).
func (l *Loop) readFrameWithRetry(ctx context.Context) ([]byte, error) {
	backoff := 200 * time.Millisecond
	var lastErr error
	for try := 0; try <= l.opts.MaxTries; try++ {
		frame, err := l.dev.ReadFrame()
		if err == nil {
			return frame, nil
		}
		lastErr = err
		if try == l.opts.MaxTries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

// apply decodes the frame by its response-type byte and publishes the
// result into the sink (§4.5 step 3). It returns the response
// type so sendNext can consult the state machine.
func (l *Loop) apply(frame []byte) (protocol.ResponseType, error) {
	if len(frame) <= protocol.HeaderSize {
		return 0, protocol.ErrBadLength
	}
	respType := protocol.ResponseType(frame[protocol.HeaderSize])

	switch respType {
	case protocol.ResponseCurrent:
		obs, _, err := protocol.DecodeCurrent(frame)
		if err != nil {
			return respType, err
		}
		if l.duplicateCurrent(frame) {
			return respType, nil
		}
		obs.Timestamp = time.Now()
		l.sink.PublishObservation(obs)

	case protocol.ResponseHistory:
		rec, _, err := protocol.DecodeHistory(frame)
		if err != nil {
			return respType, err
		}
		if l.duplicateHistory(frame) {
			return respType, nil
		}
		l.advanceHistory(rec.Index)
		l.sink.PublishHistory(rec)

	case protocol.ResponseGetConfig:
		cfg, _, err := protocol.DecodeConfig(frame)
		if err != nil {
			return respType, err
		}
		l.sink.PublishConfig(cfg)

	case protocol.ResponseAck:
		l.clearAckedWrite()

	case protocol.ResponseRequestSetConfig, protocol.ResponseRequestSetTime:
		// handled entirely by the state machine in sendNext

	default:
		return respType, protocol.ErrUnknownResponseType
	}

	return respType, nil
}

// duplicateCurrent/duplicateHistory implement the 3-second duplicate
// suppression of §4.4: same content within the window is
// dropped, but the caller still proceeds to request the next frame to
// preserve cadence.
func (l *Loop) duplicateCurrent(frame []byte) bool {
	l.dedupMu.Lock()
	defer l.dedupMu.Unlock()
	h := contentHash(frame)
	dup := h == l.lastCurrentHash && time.Since(l.lastCurrentAt) < 3*time.Second
	l.lastCurrentHash = h
	l.lastCurrentAt = time.Now()
	return dup
}

func (l *Loop) duplicateHistory(frame []byte) bool {
	l.dedupMu.Lock()
	defer l.dedupMu.Unlock()
	h := contentHash(frame)
	dup := h == l.lastHistoryHash && time.Since(l.lastHistoryAt) < 3*time.Second
	l.lastHistoryHash = h
	l.lastHistoryAt = time.Now()
	return dup
}

func contentHash(buf []byte) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for _, b := range buf {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return h
}

func (l *Loop) advanceHistory(idx protocol.HistoryIndex) {
	l.histMu.Lock()
	defer l.histMu.Unlock()
	l.hist.ThisIndex = idx
	if l.hist.Outstanding > 0 {
		l.hist.Outstanding--
	}
}

func (l *Loop) clearAckedWrite() {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	if l.pending.SetTime {
		l.pending.SetTime = false
		l.sink.ClearPendingSetTime()
	}
	if l.pending.SetConfig != nil {
		l.pending.SetConfig = nil
		l.sink.ClearPendingSetConfig()
	}
}

// sendNext asks the state machine for the next request and writes it,
// sleeping the inter-frame interval afterward (§4.5 steps 4-5).
func (l *Loop) sendNext(ctx context.Context, respType protocol.ResponseType) error {
	deviceID := l.currentDeviceID()
	if deviceID == 0 {
		// No frame is ever emitted with a zero device id (§3, §8).
		return nil
	}

	l.pendingMu.Lock()
	pendingCopy := l.pending
	l.pendingMu.Unlock()

	l.histMu.Lock()
	histCopy := l.hist
	l.histMu.Unlock()

	req := protocol.NextRequest(respType, &pendingCopy, histCopy, time.Now())

	var frame []byte
	switch req.Kind {
	case protocol.RequestGetCurrent:
		frame = protocol.EncodeGetCurrentRequest(deviceID)
	case protocol.RequestGetHistory:
		frame = protocol.EncodeGetHistoryRequest(deviceID, req.HistoryIndex)
	case protocol.RequestSetConfig:
		frame = protocol.EncodeSetConfigRequest(deviceID, req.Config)
	case protocol.RequestGetConfig:
		frame = protocol.EncodeGetConfigRequest(deviceID)
	case protocol.RequestSendTime:
		frame = protocol.EncodeSendTimeRequest(deviceID, req.Time)
	}

	if err := l.writeFrameWithRetry(ctx, frame); err != nil {
		return err
	}

	return l.sleepCommInterval(ctx)
}

func (l *Loop) writeFrameWithRetry(ctx context.Context, frame []byte) error {
	backoff := 200 * time.Millisecond
	var lastErr error
	for try := 0; try <= l.opts.MaxTries; try++ {
		err := l.dev.WriteFrame(frame)
		if err == nil {
			return nil
		}
		lastErr = err
		if try == l.opts.MaxTries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

func (l *Loop) sleepCommInterval(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.opts.CommInterval[0]):
		return nil
	}
}
