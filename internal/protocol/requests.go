package protocol

import "time"

// EncodeGetCurrentRequest builds the one-byte rtGetCurrent request
// (§4.3 action table).
func EncodeGetCurrentRequest(deviceID DeviceId) []byte {
	buf := make([]byte, HeaderSize+1)
	EncodeHeader(buf, 1, deviceID)
	buf[HeaderSize] = byte(ActionGetCurrent)
	return buf
}

// GetHistoryRequestLen is the fixed size of a rtGetHistory request:
// action byte plus a 3-nibble (12-bit) ring index.
const GetHistoryRequestLen = HeaderSize + 1 + 2

// EncodeGetHistoryRequest builds a rtGetHistory(idx) request for the
// given ring index (§4.3, §4.4).
func EncodeGetHistoryRequest(deviceID DeviceId, idx HistoryIndex) []byte {
	buf := make([]byte, GetHistoryRequestLen)
	EncodeHeader(buf, GetHistoryRequestLen-HeaderSize, deviceID)
	buf[HeaderSize] = byte(ActionGetHistory)
	writeNibbles(buf, nibbleIndex(HeaderSize+1, true), 3, uint64(idx))
	return buf
}

// EncodeGetConfigRequest builds the one-byte rtGetConfig request.
func EncodeGetConfigRequest(deviceID DeviceId) []byte {
	buf := make([]byte, HeaderSize+1)
	EncodeHeader(buf, 1, deviceID)
	buf[HeaderSize] = byte(ActionGetConfig)
	return buf
}

// EncodeSetConfigRequest builds a rtSetConfig write using the same
// nibble layout as DecodeConfig/EncodeConfig, but with the action byte
// (ActionSetConfig) in place of the response-type byte and the
// SetConfig reverse-nibble rule applied to the fields it covers
// (§4.3, §9) before the checksum is recomputed.
func EncodeSetConfigRequest(deviceID DeviceId, cfg *Config) []byte {
	buf := EncodeConfig(deviceID, cfg)
	applySetConfigReversal(buf)
	writeConfigChecksum(buf)
	cfg.Checksum = readChecksum(buf, ConfigChecksumByteOffset)
	buf[ConfigResponseByteOffset] = byte(ActionSetConfig)
	return buf
}

// DecodeSetConfigRequest is the inverse of EncodeSetConfigRequest: it
// un-reverses the SetConfig fields (the reversal is self-inverse) and
// decodes the result as a GetConfig-layout buffer. Used by tests and
// the console emulator to verify a captured write.
func DecodeSetConfigRequest(buf []byte) (*Config, DeviceId, error) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	cp[ConfigResponseByteOffset] = byte(ResponseGetConfig)
	applySetConfigReversal(cp)
	writeConfigChecksum(cp)
	return DecodeConfig(cp)
}

// EncodeSendTimeRequest builds the unsolicited SendTime frame (action
// 0xc0), used both on RequestSetTime and when a set_time() call is
// pending (§4.4).
func EncodeSendTimeRequest(deviceID DeviceId, now time.Time) []byte {
	buf := EncodeSetTime(deviceID, now)
	buf[SetTimeByteOffset] = byte(ActionSendTime)
	return buf
}
