package protocol

import "time"

// RequestKind enumerates the frames the state machine can ask the
// service loop to send next (§4.4).
type RequestKind int

const (
	RequestGetCurrent RequestKind = iota
	RequestGetHistory
	RequestSetConfig
	RequestGetConfig
	RequestSendTime
)

// Request is the state machine's verdict: what to send next, and with
// what parameters.
type Request struct {
	Kind         RequestKind
	HistoryIndex HistoryIndex
	Config       *Config
	Time         time.Time
}

// HistoryProgress is the subset of the façade's history-cache
// bookkeeping the state machine needs to pick the next history index
// (§4.4, §4.6).
type HistoryProgress struct {
	LatestIndex HistoryIndex
	ThisIndex   HistoryIndex
	Outstanding int
}

func (p HistoryProgress) caughtUp() bool {
	return p.LatestIndex == p.ThisIndex
}

// NextRequest implements the §4.4 decision table. now is the host
// clock used when the verdict is RequestSendTime. It is total: every
// (pending, response) pair yields exactly one Request, including
// response types the table does not name (they fall back to
// RequestGetCurrent, the safest cadence-preserving choice, the same as
// an Ack).
func NextRequest(resp ResponseType, pending *PendingWrites, hist HistoryProgress, now time.Time) Request {
	switch resp {
	case ResponseCurrent:
		switch {
		case pending != nil && pending.SetTime:
			return Request{Kind: RequestSendTime, Time: now}
		case pending != nil && pending.SetConfig != nil:
			return Request{Kind: RequestSetConfig, Config: pending.SetConfig}
		case pending != nil && pending.HistoryCatchup:
			return Request{Kind: RequestGetHistory, HistoryIndex: hist.ThisIndex}
		default:
			return Request{Kind: RequestGetCurrent}
		}

	case ResponseHistory:
		switch {
		case hist.caughtUp():
			return Request{Kind: RequestGetCurrent}
		case hist.Outstanding > 0:
			return Request{Kind: RequestGetHistory, HistoryIndex: hist.ThisIndex.Next()}
		default:
			return Request{Kind: RequestGetCurrent}
		}

	case ResponseGetConfig:
		if pending != nil && pending.SetConfig != nil {
			return Request{Kind: RequestSetConfig, Config: pending.SetConfig}
		}
		return Request{Kind: RequestGetCurrent}

	case ResponseRequestSetConfig:
		if pending != nil && pending.SetConfig != nil {
			return Request{Kind: RequestSetConfig, Config: pending.SetConfig}
		}
		return Request{Kind: RequestGetConfig}

	case ResponseRequestSetTime:
		return Request{Kind: RequestSendTime, Time: now}

	case ResponseAck:
		return Request{Kind: RequestGetCurrent}

	default:
		return Request{Kind: RequestGetCurrent}
	}
}
