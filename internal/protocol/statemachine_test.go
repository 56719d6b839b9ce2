package protocol

import (
	"testing"
	"time"
)

var allResponseTypes = []ResponseType{
	ResponseAck, ResponseGetConfig, ResponseCurrent, ResponseHistory,
	ResponseRequestSetConfig, ResponseRequestSetTime, ResponseType(0xff),
}

func TestNextRequestTotality(t *testing.T) {
	pendings := []*PendingWrites{
		nil,
		{},
		{SetTime: true},
		{SetConfig: &Config{}},
		{HistoryCatchup: true},
	}
	hists := []HistoryProgress{
		{LatestIndex: 5, ThisIndex: 5},
		{LatestIndex: 5, ThisIndex: 2, Outstanding: 3},
		{LatestIndex: 5, ThisIndex: 2, Outstanding: 0},
	}

	for _, resp := range allResponseTypes {
		for _, p := range pendings {
			for _, h := range hists {
				req := NextRequest(resp, p, h, time.Unix(0, 0))
				switch req.Kind {
				case RequestGetCurrent, RequestGetHistory, RequestSetConfig, RequestGetConfig, RequestSendTime:
				default:
					t.Fatalf("NextRequest(%v, %+v, %+v) returned unrecognised kind %v", resp, p, h, req.Kind)
				}
			}
		}
	}
}

func TestNextRequestCurrentWithPendingSetTime(t *testing.T) {
	req := NextRequest(ResponseCurrent, &PendingWrites{SetTime: true}, HistoryProgress{}, time.Unix(0, 0))
	if req.Kind != RequestSendTime {
		t.Errorf("Kind = %v, want RequestSendTime", req.Kind)
	}
}

func TestNextRequestCurrentWithPendingSetConfig(t *testing.T) {
	cfg := &Config{LCDContrast: 4}
	req := NextRequest(ResponseCurrent, &PendingWrites{SetConfig: cfg}, HistoryProgress{}, time.Unix(0, 0))
	if req.Kind != RequestSetConfig || req.Config != cfg {
		t.Errorf("req = %+v, want RequestSetConfig with the pending config", req)
	}
}

func TestNextRequestCurrentWithHistoryCatchup(t *testing.T) {
	hist := HistoryProgress{ThisIndex: 7}
	req := NextRequest(ResponseCurrent, &PendingWrites{HistoryCatchup: true}, hist, time.Unix(0, 0))
	if req.Kind != RequestGetHistory || req.HistoryIndex != 7 {
		t.Errorf("req = %+v, want RequestGetHistory at index 7", req)
	}
}

func TestNextRequestCurrentIdle(t *testing.T) {
	req := NextRequest(ResponseCurrent, nil, HistoryProgress{}, time.Unix(0, 0))
	if req.Kind != RequestGetCurrent {
		t.Errorf("Kind = %v, want RequestGetCurrent", req.Kind)
	}
}

func TestNextRequestHistoryCaughtUp(t *testing.T) {
	hist := HistoryProgress{LatestIndex: 9, ThisIndex: 9, Outstanding: 0}
	req := NextRequest(ResponseHistory, nil, hist, time.Unix(0, 0))
	if req.Kind != RequestGetCurrent {
		t.Errorf("Kind = %v, want RequestGetCurrent", req.Kind)
	}
}

func TestNextRequestHistoryContinues(t *testing.T) {
	hist := HistoryProgress{LatestIndex: 9, ThisIndex: 3, Outstanding: 5}
	req := NextRequest(ResponseHistory, nil, hist, time.Unix(0, 0))
	if req.Kind != RequestGetHistory || req.HistoryIndex != 4 {
		t.Errorf("req = %+v, want RequestGetHistory at index 4", req)
	}
}

func TestNextRequestGetConfigWithPendingWrite(t *testing.T) {
	cfg := &Config{LCDContrast: 2}
	req := NextRequest(ResponseGetConfig, &PendingWrites{SetConfig: cfg}, HistoryProgress{}, time.Unix(0, 0))
	if req.Kind != RequestSetConfig || req.Config != cfg {
		t.Errorf("req = %+v, want RequestSetConfig", req)
	}
}

func TestNextRequestGetConfigNoPending(t *testing.T) {
	req := NextRequest(ResponseGetConfig, nil, HistoryProgress{}, time.Unix(0, 0))
	if req.Kind != RequestGetCurrent {
		t.Errorf("Kind = %v, want RequestGetCurrent", req.Kind)
	}
}

func TestNextRequestRequestSetTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := NextRequest(ResponseRequestSetTime, nil, HistoryProgress{}, now)
	if req.Kind != RequestSendTime || !req.Time.Equal(now) {
		t.Errorf("req = %+v, want RequestSendTime carrying %v", req, now)
	}
}

func TestNextRequestAck(t *testing.T) {
	req := NextRequest(ResponseAck, nil, HistoryProgress{}, time.Unix(0, 0))
	if req.Kind != RequestGetCurrent {
		t.Errorf("Kind = %v, want RequestGetCurrent", req.Kind)
	}
}
