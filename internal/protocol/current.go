package protocol

// Current Weather frame layout. Field order and widths follow the
// value-encoding rules of §4.3; see §4.3 for why the
// exact byte offsets are this package's own layout rather than a
// byte-for-byte match to the original console firmware (no verifiable
// source for the literal offsets was available to this module).
var (
	curTempIndoor, curTempOutdoor, curDewpoint, curWindchill int
	curHumidityIndoor, curHumidityOutdoor                    int
	curWindSpeed, curGustSpeed                                int
	curWindDirHist, curWindDir, curGustDirHist, curGustDir    int
	curRainCounter, curRain24h, curRainWeek, curRainMonth, curRainTotal int
	curLastRainReset                                          int
	curPressureHPa, curPressureInHg                           int
	curBattery, curSignalQuality                              int
	curWeatherState, curWeatherTendency                       int
	curAlarmRinging                                           int
	curTIMinVal, curTIMinTs, curTIMaxVal, curTIMaxTs         int
	curTOMinVal, curTOMinTs, curTOMaxVal, curTOMaxTs         int
	curHIMinVal, curHIMinTs, curHIMaxVal, curHIMaxTs         int
	curHOMinVal, curHOMinTs, curHOMaxVal, curHOMaxTs         int
	curPMinVal, curPMinTs, curPMaxVal, curPMaxTs             int

	currentPayloadStartNibble int
	currentPayloadEndNibble   int
)

// CurrentResponseByteOffset is the byte offset of the response-type
// byte that precedes the Current Weather payload.
const CurrentResponseByteOffset = HeaderSize

// CurrentChecksumByteOffset and CurrentFrameLen are filled in by init().
var CurrentChecksumByteOffset int
var CurrentFrameLen int

func init() {
	c := &cursor{idx: nibbleIndex(CurrentResponseByteOffset+1, true)}
	currentPayloadStartNibble = c.idx

	curTempIndoor = c.take(5)
	curTempOutdoor = c.take(5)
	curDewpoint = c.take(5)
	curWindchill = c.take(5)
	curHumidityIndoor = c.take(2)
	curHumidityOutdoor = c.take(2)
	curWindSpeed = c.take(6)
	curGustSpeed = c.take(6)
	curWindDirHist = c.take(5)
	curWindDir = c.take(1)
	curGustDirHist = c.take(5)
	curGustDir = c.take(1)
	curRainCounter = c.take(7)
	curRain24h = c.take(7)
	curRainWeek = c.take(7)
	curRainMonth = c.take(7)
	curRainTotal = c.take(7)
	curLastRainReset = c.take(10)
	curPressureHPa = c.take(5)
	curPressureInHg = c.take(5)
	curBattery = c.take(2)
	curSignalQuality = c.take(2)
	curWeatherState = c.take(1)
	curWeatherTendency = c.take(1)
	curAlarmRinging = c.take(8)

	curTIMinVal = c.take(5)
	curTIMinTs = c.take(10)
	curTIMaxVal = c.take(5)
	curTIMaxTs = c.take(10)
	curTOMinVal = c.take(5)
	curTOMinTs = c.take(10)
	curTOMaxVal = c.take(5)
	curTOMaxTs = c.take(10)

	curHIMinVal = c.take(2)
	curHIMinTs = c.take(10)
	curHIMaxVal = c.take(2)
	curHIMaxTs = c.take(10)
	curHOMinVal = c.take(2)
	curHOMinTs = c.take(10)
	curHOMaxVal = c.take(2)
	curHOMaxTs = c.take(10)

	curPMinVal = c.take(5)
	curPMinTs = c.take(10)
	curPMaxVal = c.take(5)
	curPMaxTs = c.take(10)

	c.take(1) // pad to a byte boundary

	currentPayloadEndNibble = c.idx
	CurrentChecksumByteOffset = currentPayloadEndNibble / 2
	CurrentFrameLen = CurrentChecksumByteOffset + 2
}

// DecodeCurrent decodes a Current Weather frame. The caller (the
// service loop) stamps Observation.Timestamp with its own receive
// time, the same way a Davis station sets Reading.Timestamp after
// unpacking a LOOP packet.
func DecodeCurrent(buf []byte) (*Observation, DeviceId, error) {
	if len(buf) < CurrentFrameLen {
		return nil, 0, ErrBadLength
	}
	_, deviceID, err := DecodeHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if ResponseType(buf[CurrentResponseByteOffset]) != ResponseCurrent {
		return nil, 0, ErrUnknownResponseType
	}
	if !verifyWeatherChecksum(buf, CurrentChecksumByteOffset) {
		return nil, 0, ErrChecksum
	}

	o := &Observation{}
	o.TempIndoor, o.TempIndoorValid = decodeTemperature(buf, curTempIndoor)
	o.TempOutdoor, o.TempOutdoorValid = decodeTemperature(buf, curTempOutdoor)
	o.Dewpoint, o.DewpointValid = decodeTemperature(buf, curDewpoint)
	o.Windchill, o.WindchillValid = decodeTemperature(buf, curWindchill)
	o.HumidityIndoor, _ = decodeHumidity(buf, curHumidityIndoor)
	o.HumidityOutdoor, _ = decodeHumidity(buf, curHumidityOutdoor)
	o.WindSpeed, o.WindSpeedValid = decodeSpeed(buf, curWindSpeed)
	o.GustSpeed, o.GustSpeedValid = decodeSpeed(buf, curGustSpeed)
	o.WindDirection = decodeDirection(buf, curWindDir)
	o.WindDirHistory = decodeDirectionHistory(buf, curWindDir)
	o.GustDirection = decodeDirection(buf, curGustDir)
	o.GustDirHistory = decodeDirectionHistory(buf, curGustDir)
	o.RainCounter = decodeRainCounter(buf, curRainCounter)
	o.Rain24H = decodeRainCounter(buf, curRain24h)
	o.RainWeek = decodeRainCounter(buf, curRainWeek)
	o.RainMonth = decodeRainCounter(buf, curRainMonth)
	o.RainTotal = decodeRainCounter(buf, curRainTotal)
	o.RainTentative = true // RainLastWeekMax/RainLastMonthMax reliability is an open question (§9)
	o.LastRainReset = decodeTimestampField(buf, curLastRainReset).toTime()
	o.PressureRelHPa = decodePressureHPa(buf, curPressureHPa)
	o.PressureRelInHg = decodePressureInHg(buf, curPressureInHg)
	o.Battery = BatteryFlags(readNibbles(buf, curBattery, 2))
	o.SignalQuality = int(readNibbles(buf, curSignalQuality, 2))
	o.WeatherState = WeatherState(nibbleAt(buf, curWeatherState))
	o.Tendency = WeatherTendency(nibbleAt(buf, curWeatherTendency))
	o.AlarmRinging = uint32(readNibbles(buf, curAlarmRinging, 8))

	o.TempIndoorMin = decodeMinMaxTemp(buf, curTIMinVal, curTIMinTs)
	o.TempIndoorMax = decodeMinMaxTemp(buf, curTIMaxVal, curTIMaxTs)
	o.TempOutdoorMin = decodeMinMaxTemp(buf, curTOMinVal, curTOMinTs)
	o.TempOutdoorMax = decodeMinMaxTemp(buf, curTOMaxVal, curTOMaxTs)
	o.HumidityIndoorMin = decodeMinMaxHumidity(buf, curHIMinVal, curHIMinTs)
	o.HumidityIndoorMax = decodeMinMaxHumidity(buf, curHIMaxVal, curHIMaxTs)
	o.HumidityOutdoorMin = decodeMinMaxHumidity(buf, curHOMinVal, curHOMinTs)
	o.HumidityOutdoorMax = decodeMinMaxHumidity(buf, curHOMaxVal, curHOMaxTs)
	o.PressureMin = decodeMinMaxPressure(buf, curPMinVal, curPMinTs)
	o.PressureMax = decodeMinMaxPressure(buf, curPMaxVal, curPMaxTs)

	return o, deviceID, nil
}

// EncodeCurrent is the inverse of DecodeCurrent. It is primarily used
// by tests (the codec round-trip property of §8) and by the
// console emulator.
func EncodeCurrent(deviceID DeviceId, o *Observation) []byte {
	buf := make([]byte, CurrentFrameLen)
	EncodeHeader(buf, CurrentFrameLen-HeaderSize, deviceID)
	buf[CurrentResponseByteOffset] = byte(ResponseCurrent)

	encodeTemperature(buf, curTempIndoor, o.TempIndoor, o.TempIndoorValid)
	encodeTemperature(buf, curTempOutdoor, o.TempOutdoor, o.TempOutdoorValid)
	encodeTemperature(buf, curDewpoint, o.Dewpoint, o.DewpointValid)
	encodeTemperature(buf, curWindchill, o.Windchill, o.WindchillValid)
	encodeHumidity(buf, curHumidityIndoor, o.HumidityIndoor, true)
	encodeHumidity(buf, curHumidityOutdoor, o.HumidityOutdoor, true)
	encodeSpeed(buf, curWindSpeed, o.WindSpeed, o.WindSpeedValid)
	encodeSpeed(buf, curGustSpeed, o.GustSpeed, o.GustSpeedValid)
	encodeDirection(buf, curWindDir, o.WindDirection)
	encodeDirectionHistory(buf, curWindDir, o.WindDirHistory)
	encodeDirection(buf, curGustDir, o.GustDirection)
	encodeDirectionHistory(buf, curGustDir, o.GustDirHistory)
	encodeRainCounter(buf, curRainCounter, o.RainCounter)
	encodeRainCounter(buf, curRain24h, o.Rain24H)
	encodeRainCounter(buf, curRainWeek, o.RainWeek)
	encodeRainCounter(buf, curRainMonth, o.RainMonth)
	encodeRainCounter(buf, curRainTotal, o.RainTotal)
	encodeTimestampField(buf, curLastRainReset, timeFieldsFromTime(o.LastRainReset))
	encodePressureHPa(buf, curPressureHPa, o.PressureRelHPa)
	encodePressureInHg(buf, curPressureInHg, o.PressureRelInHg)
	writeNibbles(buf, curBattery, 2, uint64(o.Battery))
	writeNibbles(buf, curSignalQuality, 2, uint64(o.SignalQuality))
	setNibbleAt(buf, curWeatherState, byte(o.WeatherState))
	setNibbleAt(buf, curWeatherTendency, byte(o.Tendency))
	writeNibbles(buf, curAlarmRinging, 8, uint64(o.AlarmRinging))

	encodeMinMaxTemp(buf, curTIMinVal, curTIMinTs, o.TempIndoorMin)
	encodeMinMaxTemp(buf, curTIMaxVal, curTIMaxTs, o.TempIndoorMax)
	encodeMinMaxTemp(buf, curTOMinVal, curTOMinTs, o.TempOutdoorMin)
	encodeMinMaxTemp(buf, curTOMaxVal, curTOMaxTs, o.TempOutdoorMax)
	encodeMinMaxHumidity(buf, curHIMinVal, curHIMinTs, o.HumidityIndoorMin)
	encodeMinMaxHumidity(buf, curHIMaxVal, curHIMaxTs, o.HumidityIndoorMax)
	encodeMinMaxHumidity(buf, curHOMinVal, curHOMinTs, o.HumidityOutdoorMin)
	encodeMinMaxHumidity(buf, curHOMaxVal, curHOMaxTs, o.HumidityOutdoorMax)
	encodeMinMaxPressure(buf, curPMinVal, curPMinTs, o.PressureMin)
	encodeMinMaxPressure(buf, curPMaxVal, curPMaxTs, o.PressureMax)

	writeChecksum(buf, CurrentChecksumByteOffset, weatherChecksum(buf[:CurrentChecksumByteOffset]))
	return buf
}
