package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/ws28xx/internal/protocol"
	"github.com/chrissnell/ws28xx/internal/transceiver"
	"github.com/chrissnell/ws28xx/internal/usbhid"
)

type fakeSink struct {
	mu                sync.Mutex
	observations      []*protocol.Observation
	history           []*protocol.HistoryRecord
	configs           []*protocol.Config
	setTimeCleared    int
	setConfigCleared  int
}

func (s *fakeSink) PublishObservation(o *protocol.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append(s.observations, o)
}

func (s *fakeSink) PublishHistory(r *protocol.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, r)
}

func (s *fakeSink) PublishConfig(c *protocol.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = append(s.configs, c)
}

func (s *fakeSink) ClearPendingSetTime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTimeCleared++
}

func (s *fakeSink) ClearPendingSetConfig() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConfigCleared++
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("zap.NewDevelopment: %v", err)
	}
	return logger.Sugar()
}

func currentFrame(t *testing.T, deviceID protocol.DeviceId) []byte {
	t.Helper()
	obs := &protocol.Observation{
		TempOutdoorValid: true,
		WindSpeedValid:   true,
		GustSpeedValid:   true,
	}
	return protocol.EncodeCurrent(deviceID, obs)
}

func TestLoopIterateAppliesCurrentAndSendsNext(t *testing.T) {
	fake := usbhid.NewFake()
	fake.States = []byte{usbhid.StateReady}
	fake.Frames = [][]byte{currentFrame(t, 0x12e)}

	sink := &fakeSink{}
	controller := transceiver.NewController(fake, transceiver.RegionUS, testLogger(t))
	l := NewLoop(fake, controller, sink, testLogger(t), Options{})
	l.SetDeviceID(0x12e)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.iterate(ctx); err != nil {
		t.Fatalf("iterate: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.observations) != 1 {
		t.Fatalf("observations published = %d, want 1", len(sink.observations))
	}
	if len(fake.WrittenFrames) != 1 {
		t.Fatalf("frames written = %d, want 1", len(fake.WrittenFrames))
	}
	if protocol.Action(fake.WrittenFrames[0][protocol.HeaderSize]) != protocol.ActionGetCurrent {
		t.Errorf("next request action = %#x, want ActionGetCurrent", fake.WrittenFrames[0][protocol.HeaderSize])
	}
}

func TestLoopWaitForReadyUsesConfiguredCommInterval(t *testing.T) {
	fake := usbhid.NewFake()
	fake.States = []byte{usbhid.StateIdle, usbhid.StateIdle, usbhid.StateReady}

	sink := &fakeSink{}
	controller := transceiver.NewController(fake, transceiver.RegionUS, testLogger(t))
	opts := Options{
		CommInterval:    [2]time.Duration{380 * time.Millisecond, 20 * time.Millisecond},
		PollingInterval: time.Second,
	}
	l := NewLoop(fake, controller, sink, testLogger(t), opts)

	start := time.Now()
	ready, err := l.waitForReady(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("waitForReady: %v", err)
	}
	if !ready {
		t.Fatal("waitForReady = false, want true")
	}
	// Two retry sleeps of CommInterval[1] must elapse before the third
	// (ready) poll. A hardcoded 200ms retry would take far longer than
	// the configured 20ms here.
	if elapsed < 2*opts.CommInterval[1] {
		t.Errorf("elapsed = %v, want at least %v (2x CommInterval[1])", elapsed, 2*opts.CommInterval[1])
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("elapsed = %v, want well under 150ms if CommInterval[1] was honored", elapsed)
	}
}

func TestLoopNoFrameSentWithoutDeviceID(t *testing.T) {
	fake := usbhid.NewFake()
	fake.States = []byte{usbhid.StateReady}
	fake.Frames = [][]byte{currentFrame(t, 0x12e)}

	sink := &fakeSink{}
	controller := transceiver.NewController(fake, transceiver.RegionUS, testLogger(t))
	l := NewLoop(fake, controller, sink, testLogger(t), Options{})
	// deviceID left zero: no pairing occurred yet.

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.iterate(ctx); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(fake.WrittenFrames) != 0 {
		t.Errorf("frames written = %d, want 0 (no device id yet)", len(fake.WrittenFrames))
	}
}

func TestLoopSyncLossReArmsAndMarksDegradedAfterLimit(t *testing.T) {
	fake := usbhid.NewFake() // States empty: read_state never reports ready
	sink := &fakeSink{}
	controller := transceiver.NewController(fake, transceiver.RegionUS, testLogger(t))
	opts := Options{PollingInterval: 10 * time.Millisecond, SyncLossLimit: 2}
	l := NewLoop(fake, controller, sink, testLogger(t), opts)
	l.SetDeviceID(0x12e)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := l.iterate(ctx); err != nil {
			t.Fatalf("iterate %d: %v", i, err)
		}
	}

	h := l.Health()
	if !h.Degraded {
		t.Errorf("Health().Degraded = false, want true after %d sync losses", opts.SyncLossLimit)
	}
	if len(fake.WrittenCommands) < 2 {
		t.Errorf("wrote %d re-arm commands, want at least 2", len(fake.WrittenCommands))
	}
}

func TestLoopReadFrameRetriesThenFails(t *testing.T) {
	fake := usbhid.NewFake()
	fake.States = []byte{usbhid.StateReady, usbhid.StateReady, usbhid.StateReady}
	fake.ReadFrameErr = &usbhid.TransportFault{Op: "read frame", Err: context.DeadlineExceeded}

	sink := &fakeSink{}
	controller := transceiver.NewController(fake, transceiver.RegionUS, testLogger(t))
	opts := Options{MaxTries: 2}
	l := NewLoop(fake, controller, sink, testLogger(t), opts)
	l.SetDeviceID(0x12e)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := l.iterate(ctx)
	if err == nil {
		t.Fatal("iterate: want error after exhausting retries, got nil")
	}
	if len(fake.WrittenFrames) != 0 {
		t.Errorf("frames written = %d, want 0 on read failure", len(fake.WrittenFrames))
	}
}

func TestLoopAckClearsPendingSetTime(t *testing.T) {
	fake := usbhid.NewFake()
	fake.States = []byte{usbhid.StateReady}
	ackFrame := make([]byte, protocol.HeaderSize+1)
	protocol.EncodeHeader(ackFrame, 1, 0x12e)
	ackFrame[protocol.HeaderSize] = byte(protocol.ResponseAck)
	fake.Frames = [][]byte{ackFrame}

	sink := &fakeSink{}
	controller := transceiver.NewController(fake, transceiver.RegionUS, testLogger(t))
	l := NewLoop(fake, controller, sink, testLogger(t), Options{})
	l.SetDeviceID(0x12e)
	l.QueueSetTime()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.iterate(ctx); err != nil {
		t.Fatalf("iterate: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.setTimeCleared != 1 {
		t.Errorf("setTimeCleared = %d, want 1", sink.setTimeCleared)
	}
}

func TestLoopCodecFaultDiscardedWithoutRetryAndContinues(t *testing.T) {
	fake := usbhid.NewFake()
	fake.States = []byte{usbhid.StateReady}
	bad := currentFrame(t, 0x12e)
	bad[len(bad)-1] ^= 0xff // corrupt checksum

	fake.Frames = [][]byte{bad}

	sink := &fakeSink{}
	controller := transceiver.NewController(fake, transceiver.RegionUS, testLogger(t))
	l := NewLoop(fake, controller, sink, testLogger(t), Options{})
	l.SetDeviceID(0x12e)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.iterate(ctx); err != nil {
		t.Fatalf("iterate: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.observations) != 0 {
		t.Errorf("observations published = %d, want 0 for a corrupt frame", len(sink.observations))
	}
	if len(fake.WrittenFrames) != 1 {
		t.Errorf("frames written after discard = %d, want 1 (loop continues)", len(fake.WrittenFrames))
	}
}
