package protocol

// Config frame layout (§3, §4.3). The checksum law covers exactly
// the first 43 payload bytes; ResetMinMaxFlags is a 3-byte write-only
// field that follows and is excluded from the sum (§4.3, §9).
var (
	cfgTempIndoorMinAlarm, cfgTempIndoorMaxAlarm   int
	cfgTempOutdoorMinAlarm, cfgTempOutdoorMaxAlarm int
	cfgHumidityIndoorMinAlarm, cfgHumidityIndoorMaxAlarm   int
	cfgHumidityOutdoorMinAlarm, cfgHumidityOutdoorMaxAlarm int
	cfgRain24HMax   int
	cfgGustMax      int
	cfgPressureMinAlarm, cfgPressureMaxAlarm int
	cfgWeatherThreshold, cfgStormThreshold   int
	cfgLCDContrast  int
	cfgWindUnit, cfgRainUnit, cfgPressureUnit, cfgTempUnit, cfgClock int
	cfgLowBatteryFlags int
	cfgAlarmWindDirMask, cfgAlarmOtherMask int
	cfgHistoryInterval int
)

// ConfigResponseByteOffset is the byte offset of the response-type
// byte preceding the Config payload.
const ConfigResponseByteOffset = HeaderSize

// configChecksumSpan is the number of payload bytes the checksum
// covers (§4.3): everything up to, but not including,
// ResetMinMaxFlags.
const configChecksumSpan = 43

// configResetMinMaxFlagsLen is ResetMinMaxFlags' width in bytes.
const configResetMinMaxFlagsLen = 3

var configPayloadStartByte int
var ConfigResetMinMaxFlagsByteOffset int
var ConfigChecksumByteOffset int
var ConfigFrameLen int

func init() {
	configPayloadStartByte = ConfigResponseByteOffset + 1
	c := &cursor{idx: nibbleIndex(configPayloadStartByte, true)}

	cfgTempIndoorMinAlarm = c.take(5)
	cfgTempIndoorMaxAlarm = c.take(5)
	cfgTempOutdoorMinAlarm = c.take(5)
	cfgTempOutdoorMaxAlarm = c.take(5)
	cfgHumidityIndoorMinAlarm = c.take(2)
	cfgHumidityIndoorMaxAlarm = c.take(2)
	cfgHumidityOutdoorMinAlarm = c.take(2)
	cfgHumidityOutdoorMaxAlarm = c.take(2)
	cfgRain24HMax = c.take(7)
	cfgGustMax = c.take(6)
	cfgPressureMinAlarm = c.take(5)
	cfgPressureMaxAlarm = c.take(5)
	cfgWeatherThreshold = c.take(3)
	cfgStormThreshold = c.take(3)
	cfgLCDContrast = c.take(1)
	cfgWindUnit = c.take(1)
	cfgRainUnit = c.take(1)
	cfgPressureUnit = c.take(1)
	cfgTempUnit = c.take(1)
	cfgClock = c.take(1)
	cfgLowBatteryFlags = c.take(2)
	cfgAlarmWindDirMask = c.take(4)
	cfgAlarmOtherMask = c.take(4)
	cfgHistoryInterval = c.take(1)

	used := c.idx - nibbleIndex(configPayloadStartByte, true)
	c.take(configChecksumSpan*2 - used) // reserved padding to the checksum boundary

	ConfigResetMinMaxFlagsByteOffset = configPayloadStartByte + configChecksumSpan
	ConfigChecksumByteOffset = ConfigResetMinMaxFlagsByteOffset + configResetMinMaxFlagsLen
	ConfigFrameLen = ConfigChecksumByteOffset + 2
}

// setConfigReversedField is one entry of the SetConfig reverse-nibble
// rule (§4.3, §9): on a write, the nibbles of these fields are
// byte-reversed on the wire relative to how DecodeConfig/EncodeConfig
// lay them out for a GetConfig response. Getting this table wrong
// silently corrupts the console, so it is the single place the
// reversal is described.
type setConfigReversedField struct {
	idx   int
	width int
}

var setConfigReversedFields []setConfigReversedField

func init() {
	setConfigReversedFields = []setConfigReversedField{
		{cfgTempIndoorMinAlarm, 5},
		{cfgTempIndoorMaxAlarm, 5},
		{cfgTempOutdoorMinAlarm, 5},
		{cfgTempOutdoorMaxAlarm, 5},
		{cfgHumidityIndoorMinAlarm, 2},
		{cfgHumidityIndoorMaxAlarm, 2},
		{cfgHumidityOutdoorMinAlarm, 2},
		{cfgHumidityOutdoorMaxAlarm, 2},
		{cfgRain24HMax, 7},
		{cfgGustMax, 6},
		{cfgPressureMinAlarm, 5},
		{cfgPressureMaxAlarm, 5},
		{cfgAlarmWindDirMask, 4},
		{cfgAlarmOtherMask, 4},
	}
}

// reverseFieldNibbles reverses the nibble order within a field's span
// in place. The operation is its own inverse, so the same call both
// applies and undoes the SetConfig reversal.
func reverseFieldNibbles(buf []byte, idx, width int) {
	for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
		a, b := nibbleAt(buf, idx+i), nibbleAt(buf, idx+j)
		setNibbleAt(buf, idx+i, b)
		setNibbleAt(buf, idx+j, a)
	}
}

// applySetConfigReversal toggles the SetConfig reverse-nibble rule on
// buf, a GetConfig-layout buffer already populated by EncodeConfig or
// DecodeConfig. It must run after any checksum covering these bytes is
// stale-able -- i.e. before writeConfigChecksum on encode, and before
// DecodeConfig on decode of a captured SetConfig request.
func applySetConfigReversal(buf []byte) {
	for _, f := range setConfigReversedFields {
		reverseFieldNibbles(buf, f.idx, f.width)
	}
}

func verifyConfigChecksum(buf []byte) bool {
	want := readChecksum(buf, ConfigChecksumByteOffset)
	got := configChecksum(buf[configPayloadStartByte:])
	return want == got
}

func writeConfigChecksum(buf []byte) {
	writeChecksum(buf, ConfigChecksumByteOffset, configChecksum(buf[configPayloadStartByte:]))
}

// DecodeConfig decodes a GetConfig response frame.
func DecodeConfig(buf []byte) (*Config, DeviceId, error) {
	if len(buf) < ConfigFrameLen {
		return nil, 0, ErrBadLength
	}
	_, deviceID, err := DecodeHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if ResponseType(buf[ConfigResponseByteOffset]) != ResponseGetConfig {
		return nil, 0, ErrUnknownResponseType
	}
	if !verifyConfigChecksum(buf) {
		return nil, 0, ErrChecksum
	}

	cfg := &Config{}
	cfg.TempIndoorMinAlarm, _ = decodeTemperature(buf, cfgTempIndoorMinAlarm)
	cfg.TempIndoorMaxAlarm, _ = decodeTemperature(buf, cfgTempIndoorMaxAlarm)
	cfg.TempOutdoorMinAlarm, _ = decodeTemperature(buf, cfgTempOutdoorMinAlarm)
	cfg.TempOutdoorMaxAlarm, _ = decodeTemperature(buf, cfgTempOutdoorMaxAlarm)
	cfg.HumidityIndoorMinAlarm, _ = decodeHumidity(buf, cfgHumidityIndoorMinAlarm)
	cfg.HumidityIndoorMaxAlarm, _ = decodeHumidity(buf, cfgHumidityIndoorMaxAlarm)
	cfg.HumidityOutdoorMinAlarm, _ = decodeHumidity(buf, cfgHumidityOutdoorMinAlarm)
	cfg.HumidityOutdoorMaxAlarm, _ = decodeHumidity(buf, cfgHumidityOutdoorMaxAlarm)
	cfg.Rain24HMax = decodeRainCounter(buf, cfgRain24HMax)
	cfg.GustMax, _ = decodeSpeed(buf, cfgGustMax)
	cfg.PressureMinAlarm = decodePressureHPa(buf, cfgPressureMinAlarm)
	cfg.PressureMaxAlarm = decodePressureHPa(buf, cfgPressureMaxAlarm)
	cfg.WeatherThreshold = float64(bcdDigits(buf, cfgWeatherThreshold, 3)) / 10.0
	cfg.StormThreshold = float64(bcdDigits(buf, cfgStormThreshold, 3)) / 10.0
	cfg.LCDContrast = int(nibbleAt(buf, cfgLCDContrast))
	cfg.WindUnit = WindUnit(nibbleAt(buf, cfgWindUnit))
	cfg.RainUnit = RainUnit(nibbleAt(buf, cfgRainUnit))
	cfg.PressureUnit = PressureUnit(nibbleAt(buf, cfgPressureUnit))
	cfg.TempUnit = TempUnit(nibbleAt(buf, cfgTempUnit))
	cfg.Clock = ClockFormat(nibbleAt(buf, cfgClock))
	cfg.LowBatteryFlags = BatteryFlags(readNibbles(buf, cfgLowBatteryFlags, 2))
	cfg.AlarmWindDirMask = uint16(readNibbles(buf, cfgAlarmWindDirMask, 4))
	cfg.AlarmOtherMask = uint16(readNibbles(buf, cfgAlarmOtherMask, 4))
	cfg.HistoryInterval = HistoryInterval(nibbleAt(buf, cfgHistoryInterval))
	cfg.ResetMinMaxFlags = uint32(buf[ConfigResetMinMaxFlagsByteOffset])<<16 |
		uint32(buf[ConfigResetMinMaxFlagsByteOffset+1])<<8 |
		uint32(buf[ConfigResetMinMaxFlagsByteOffset+2])
	cfg.Checksum = readChecksum(buf, ConfigChecksumByteOffset)

	return cfg, deviceID, nil
}

// EncodeConfig is the inverse of DecodeConfig, used for SetConfig
// writes, tests, and the console emulator. It recomputes the checksum
// and always zeroes ResetMinMaxFlags on the wire -- the console never
// accepts a non-zero value for it on a write (§9).
func EncodeConfig(deviceID DeviceId, cfg *Config) []byte {
	buf := make([]byte, ConfigFrameLen)
	EncodeHeader(buf, ConfigFrameLen-HeaderSize, deviceID)
	buf[ConfigResponseByteOffset] = byte(ResponseGetConfig)

	encodeTemperature(buf, cfgTempIndoorMinAlarm, cfg.TempIndoorMinAlarm, true)
	encodeTemperature(buf, cfgTempIndoorMaxAlarm, cfg.TempIndoorMaxAlarm, true)
	encodeTemperature(buf, cfgTempOutdoorMinAlarm, cfg.TempOutdoorMinAlarm, true)
	encodeTemperature(buf, cfgTempOutdoorMaxAlarm, cfg.TempOutdoorMaxAlarm, true)
	encodeHumidity(buf, cfgHumidityIndoorMinAlarm, cfg.HumidityIndoorMinAlarm, true)
	encodeHumidity(buf, cfgHumidityIndoorMaxAlarm, cfg.HumidityIndoorMaxAlarm, true)
	encodeHumidity(buf, cfgHumidityOutdoorMinAlarm, cfg.HumidityOutdoorMinAlarm, true)
	encodeHumidity(buf, cfgHumidityOutdoorMaxAlarm, cfg.HumidityOutdoorMaxAlarm, true)
	encodeRainCounter(buf, cfgRain24HMax, cfg.Rain24HMax)
	encodeSpeed(buf, cfgGustMax, cfg.GustMax, true)
	encodePressureHPa(buf, cfgPressureMinAlarm, cfg.PressureMinAlarm)
	encodePressureHPa(buf, cfgPressureMaxAlarm, cfg.PressureMaxAlarm)
	writeBCDDigits(buf, cfgWeatherThreshold, 3, int(cfg.WeatherThreshold*10))
	writeBCDDigits(buf, cfgStormThreshold, 3, int(cfg.StormThreshold*10))
	setNibbleAt(buf, cfgLCDContrast, byte(cfg.LCDContrast))
	setNibbleAt(buf, cfgWindUnit, byte(cfg.WindUnit))
	setNibbleAt(buf, cfgRainUnit, byte(cfg.RainUnit))
	setNibbleAt(buf, cfgPressureUnit, byte(cfg.PressureUnit))
	setNibbleAt(buf, cfgTempUnit, byte(cfg.TempUnit))
	setNibbleAt(buf, cfgClock, byte(cfg.Clock))
	writeNibbles(buf, cfgLowBatteryFlags, 2, uint64(cfg.LowBatteryFlags))
	writeNibbles(buf, cfgAlarmWindDirMask, 4, uint64(cfg.AlarmWindDirMask))
	writeNibbles(buf, cfgAlarmOtherMask, 4, uint64(cfg.AlarmOtherMask))
	setNibbleAt(buf, cfgHistoryInterval, byte(cfg.HistoryInterval))

	buf[ConfigResetMinMaxFlagsByteOffset] = 0
	buf[ConfigResetMinMaxFlagsByteOffset+1] = 0
	buf[ConfigResetMinMaxFlagsByteOffset+2] = 0

	writeConfigChecksum(buf)
	cfg.Checksum = readChecksum(buf, ConfigChecksumByteOffset)
	return buf
}
