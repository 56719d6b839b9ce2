package protocol

import "time"

// SetTime frames (§3, §6) carry the driver's wall clock down to
// the console in response to ResponseRequestSetTime. There is no
// checksum on this frame: it is short enough that the console simply
// re-requests on any framing error (§4.3).
const (
	SetTimeByteOffset = HeaderSize
	setTimeFieldStart = (SetTimeByteOffset + 1) * 2
	// SetTimeFrameLen is the action byte plus 6 BCD digit-pairs
	// (second, minute, hour, day, month, year-2000), packed 2 digits
	// per byte like every other BCD field in this protocol.
	SetTimeFrameLen = SetTimeByteOffset + 1 + 6
)

// EncodeSetTime builds a SetTime write frame carrying t.
func EncodeSetTime(deviceID DeviceId, t time.Time) []byte {
	buf := make([]byte, SetTimeFrameLen)
	EncodeHeader(buf, SetTimeFrameLen-HeaderSize, deviceID)
	buf[SetTimeByteOffset] = byte(ActionSetTime)

	idx := setTimeFieldStart
	writeBCDDigits(buf, idx, 2, t.Second())
	writeBCDDigits(buf, idx+2, 2, t.Minute())
	writeBCDDigits(buf, idx+4, 2, t.Hour())
	writeBCDDigits(buf, idx+6, 2, t.Day())
	writeBCDDigits(buf, idx+8, 2, int(t.Month()))
	writeBCDDigits(buf, idx+10, 2, t.Year()%100)
	return buf
}

// DecodeSetTime is the inverse of EncodeSetTime, used by the console
// emulator and by round-trip tests.
func DecodeSetTime(buf []byte) (time.Time, DeviceId, error) {
	if len(buf) < SetTimeFrameLen {
		return time.Time{}, 0, ErrBadLength
	}
	_, deviceID, err := DecodeHeader(buf)
	if err != nil {
		return time.Time{}, 0, err
	}
	if Action(buf[SetTimeByteOffset]) != ActionSetTime {
		return time.Time{}, 0, NewCodecFault("not a SetTime frame")
	}

	idx := setTimeFieldStart
	sec := bcdDigits(buf, idx, 2)
	min := bcdDigits(buf, idx+2, 2)
	hour := bcdDigits(buf, idx+4, 2)
	day := bcdDigits(buf, idx+6, 2)
	month := bcdDigits(buf, idx+8, 2)
	year := 2000 + bcdDigits(buf, idx+10, 2)

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC), deviceID, nil
}
