package protocol

// History frame layout (§3, §4.3): one archived record plus the
// ring index it was read from. Narrower than the Current Weather
// frame -- no min/max, no alarms, no battery/signal/tendency fields.
var (
	histIndex                                               int
	histTimestamp                                           int
	histTempIndoor, histTempOutdoor                         int
	histHumidityIndoor, histHumidityOutdoor                 int
	histPressureHPa                                         int
	histRainCounter                                         int
	histWindDir                                              int
	histWindSpeed, histGustSpeed                             int
)

// HistoryResponseByteOffset is the byte offset of the response-type
// byte preceding the History payload.
const HistoryResponseByteOffset = HeaderSize

var HistoryChecksumByteOffset int
var HistoryFrameLen int

func init() {
	c := &cursor{idx: nibbleIndex(HistoryResponseByteOffset+1, true)}

	histIndex = c.take(3) // 12-bit ring index packed as 3 nibbles
	histTempIndoor = c.take(5)
	histTempOutdoor = c.take(5)
	histHumidityIndoor = c.take(2)
	histHumidityOutdoor = c.take(2)
	histPressureHPa = c.take(5)
	histRainCounter = c.take(7)
	histWindSpeed = c.take(6)
	histGustSpeed = c.take(6)
	histWindDir = c.take(1)
	histTimestamp = c.take(10) // year,month,day,hour,minute -- last field on the wire (§8.2)

	c.take(1) // spare nibble; the fields above already end on a byte boundary, so end/2 rounds down and the checksum's first byte covers it

	end := c.idx
	HistoryChecksumByteOffset = end / 2
	HistoryFrameLen = HistoryChecksumByteOffset + 2
}

// DecodeHistory decodes one archived History frame.
func DecodeHistory(buf []byte) (*HistoryRecord, DeviceId, error) {
	if len(buf) < HistoryFrameLen {
		return nil, 0, ErrBadLength
	}
	_, deviceID, err := DecodeHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if ResponseType(buf[HistoryResponseByteOffset]) != ResponseHistory {
		return nil, 0, ErrUnknownResponseType
	}
	if !verifyWeatherChecksum(buf, HistoryChecksumByteOffset) {
		return nil, 0, ErrChecksum
	}

	r := &HistoryRecord{}
	r.Index = HistoryIndex(readNibbles(buf, histIndex, 3))
	r.Timestamp = decodeTimestampField(buf, histTimestamp).toTime()
	r.TempIndoor, r.TempIndoorValid = decodeTemperature(buf, histTempIndoor)
	r.TempOutdoor, r.TempOutdoorValid = decodeTemperature(buf, histTempOutdoor)
	r.HumidityIndoor, _ = decodeHumidity(buf, histHumidityIndoor)
	r.HumidityOutdoor, _ = decodeHumidity(buf, histHumidityOutdoor)
	r.PressureRelHPa = decodePressureHPa(buf, histPressureHPa)
	r.RainCounter = decodeRainCounter(buf, histRainCounter)
	r.WindSpeed, r.WindSpeedValid = decodeSpeed(buf, histWindSpeed)
	r.GustSpeed, r.GustSpeedValid = decodeSpeed(buf, histGustSpeed)
	r.WindDirection = decodeDirection(buf, histWindDir)

	return r, deviceID, nil
}

// EncodeHistory is the inverse of DecodeHistory, used by tests and the
// console emulator.
func EncodeHistory(deviceID DeviceId, r *HistoryRecord) []byte {
	buf := make([]byte, HistoryFrameLen)
	EncodeHeader(buf, HistoryFrameLen-HeaderSize, deviceID)
	buf[HistoryResponseByteOffset] = byte(ResponseHistory)

	writeNibbles(buf, histIndex, 3, uint64(r.Index))
	encodeTimestampField(buf, histTimestamp, timeFieldsFromTime(r.Timestamp))
	encodeTemperature(buf, histTempIndoor, r.TempIndoor, r.TempIndoorValid)
	encodeTemperature(buf, histTempOutdoor, r.TempOutdoor, r.TempOutdoorValid)
	encodeHumidity(buf, histHumidityIndoor, r.HumidityIndoor, true)
	encodeHumidity(buf, histHumidityOutdoor, r.HumidityOutdoor, true)
	encodePressureHPa(buf, histPressureHPa, r.PressureRelHPa)
	encodeRainCounter(buf, histRainCounter, r.RainCounter)
	encodeSpeed(buf, histWindSpeed, r.WindSpeed, r.WindSpeedValid)
	encodeSpeed(buf, histGustSpeed, r.GustSpeed, r.GustSpeedValid)
	encodeDirection(buf, histWindDir, r.WindDirection)

	writeChecksum(buf, HistoryChecksumByteOffset, weatherChecksum(buf[:HistoryChecksumByteOffset]))
	return buf
}
