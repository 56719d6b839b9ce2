// Package protocol implements the WS-28xx frame codec and the protocol
// state machine that decides what frame to send next.
package protocol

import "time"

// DeviceId is the 16-bit identifier the console assigns at pair time.
// Every frame on the wire carries it; no frame is ever emitted while
// it is zero.
type DeviceId uint16

// TransceiverInfo is immutable once the transceiver controller has
// completed its one-shot init sequence.
type TransceiverInfo struct {
	Serial            string // 14 BCD digits
	DeviceId          DeviceId
	FrequencyCorrection int32 // 24-bit signed offset, sign-extended
}

// WindDirection is one of the 16 compass points, or Invalid.
type WindDirection uint8

const InvalidWindDirection WindDirection = 16

// String returns the compass abbreviation, or "--" for Invalid.
func (d WindDirection) String() string {
	names := [...]string{
		"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
	}
	if int(d) >= len(names) {
		return "--"
	}
	return names[d]
}

// MinMax carries a value along with the timestamp at which it was observed.
type MinMax struct {
	Value float64
	At    time.Time
	Valid bool
}

// BatteryFlags is a 5-bit mask: console, THP, rain, wind, sun.
type BatteryFlags uint8

const (
	BatteryConsole BatteryFlags = 1 << iota
	BatteryTHP
	BatteryRain
	BatteryWind
	BatterySun
)

// WeatherState is 0..2 (fair/changing/rain, per console convention).
type WeatherState uint8

// WeatherTendency is 0..2 (steady/rising/falling).
type WeatherTendency uint8

// Observation is a fully decoded snapshot of the console's current
// weather frame.
type Observation struct {
	Timestamp time.Time

	TempIndoor       float64
	TempIndoorValid  bool
	TempOutdoor      float64
	TempOutdoorValid bool
	Dewpoint         float64
	DewpointValid    bool
	Windchill        float64
	WindchillValid   bool

	HumidityIndoor  int
	HumidityOutdoor int

	WindSpeed        float64
	WindSpeedValid   bool
	GustSpeed        float64
	GustSpeedValid   bool
	WindDirection    WindDirection
	WindDirHistory   [5]WindDirection
	GustDirection    WindDirection
	GustDirHistory   [5]WindDirection

	RainCounter   float64 // raw counter, mm
	Rain24H       float64
	RainWeek      float64
	RainMonth     float64
	RainTotal     float64
	RainTentative bool // see §9 open question: RainLastWeekMax/RainLastMonthMax reliability
	LastRainReset time.Time

	PressureRelHPa  float64
	PressureRelInHg float64

	Battery       BatteryFlags
	SignalQuality int // 0..100, steps of 5
	WeatherState  WeatherState
	Tendency      WeatherTendency
	AlarmRinging  uint32

	TempIndoorMin    MinMax
	TempIndoorMax    MinMax
	TempOutdoorMin   MinMax
	TempOutdoorMax   MinMax
	HumidityIndoorMin  MinMax
	HumidityIndoorMax  MinMax
	HumidityOutdoorMin MinMax
	HumidityOutdoorMax MinMax
	PressureMin      MinMax
	PressureMax      MinMax
}

// HistoryRecord is one archived sample from the console's ring buffer.
// Records are immutable once decoded.
type HistoryRecord struct {
	Index HistoryIndex
	Timestamp time.Time

	TempIndoor      float64
	TempIndoorValid bool
	TempOutdoor      float64
	TempOutdoorValid bool
	HumidityIndoor  int
	HumidityOutdoor int

	PressureRelHPa float64

	RainCounter float64

	WindDirection WindDirection
	WindSpeed     float64
	WindSpeedValid bool
	GustSpeed     float64
	GustSpeedValid bool
}

// HistoryIndex is a 12-bit ring pointer (0..1796) into the console's
// circular archive buffer.
type HistoryIndex uint16

const HistoryRingSize HistoryIndex = 1797

// Next returns the following ring slot, wrapping at HistoryRingSize.
func (i HistoryIndex) Next() HistoryIndex {
	return (i + 1) % HistoryRingSize
}

// WindUnit, RainUnit, PressureUnit, TempUnit, ClockFormat are the
// console's display-format choices.
type WindUnit uint8

const (
	WindUnitMS WindUnit = iota
	WindUnitKnots
	WindUnitBft
	WindUnitKmh
	WindUnitMph
)

type RainUnit uint8

const (
	RainUnitMM RainUnit = iota
	RainUnitInch
)

type PressureUnit uint8

const (
	PressureUnitInHg PressureUnit = iota
	PressureUnitHPa
)

type TempUnit uint8

const (
	TempUnitF TempUnit = iota
	TempUnitC
)

type ClockFormat uint8

const (
	Clock24h ClockFormat = iota
	Clock12h
)

// HistoryInterval enumerates the console's archive-interval choices.
type HistoryInterval uint8

const (
	Interval1Min HistoryInterval = iota
	Interval5Min
	Interval10Min
	Interval15Min
	Interval20Min
	Interval30Min
	Interval60Min
	Interval120Min
	Interval1Hour
	Interval2Hour
	Interval4Hour
	Interval6Hour
	Interval8Hour
	Interval12Hour
	Interval24Hour
)

// Minutes returns the interval duration in minutes.
func (h HistoryInterval) Minutes() int {
	switch h {
	case Interval1Min:
		return 1
	case Interval5Min:
		return 5
	case Interval10Min:
		return 10
	case Interval15Min:
		return 15
	case Interval20Min:
		return 20
	case Interval30Min:
		return 30
	case Interval60Min:
		return 60
	case Interval120Min:
		return 120
	case Interval1Hour:
		return 60
	case Interval2Hour:
		return 120
	case Interval4Hour:
		return 240
	case Interval6Hour:
		return 360
	case Interval8Hour:
		return 480
	case Interval12Hour:
		return 720
	case Interval24Hour:
		return 1440
	}
	return 0
}

// Config is the mutable image of the console's settings (§3).
type Config struct {
	WindUnit     WindUnit
	RainUnit     RainUnit
	PressureUnit PressureUnit
	TempUnit     TempUnit
	Clock        ClockFormat

	WeatherThreshold float64
	StormThreshold   float64

	LCDContrast int // 1..8

	LowBatteryFlags BatteryFlags

	AlarmWindDirMask uint16
	AlarmOtherMask   uint16

	TempIndoorMinAlarm    float64
	TempIndoorMaxAlarm    float64
	TempOutdoorMinAlarm   float64
	TempOutdoorMaxAlarm   float64
	HumidityIndoorMinAlarm  int
	HumidityIndoorMaxAlarm  int
	HumidityOutdoorMinAlarm int
	HumidityOutdoorMaxAlarm int

	Rain24HMax float64
	GustMax    float64

	PressureMinAlarm float64
	PressureMaxAlarm float64

	HistoryInterval HistoryInterval

	// ResetMinMaxFlags is output-only: the console always reports it as
	// zero, and it is excluded from the config checksum (§4.3).
	ResetMinMaxFlags uint32

	Checksum uint16
}

// TransceiverState drives the §4 state machine. Transitions happen
// only inside the service loop.
type TransceiverState int

const (
	StateUninitialised TransceiverState = iota
	StateInitialising
	StateIdle
	StatePairing
	StatePaired
	StateShuttingDown
)

func (s TransceiverState) String() string {
	switch s {
	case StateUninitialised:
		return "Uninitialised"
	case StateInitialising:
		return "Initialising"
	case StateIdle:
		return "Idle"
	case StatePairing:
		return "Pairing"
	case StatePaired:
		return "Paired"
	case StateShuttingDown:
		return "Shutting-down"
	}
	return "Unknown"
}

// PendingWrites tracks the at-most-one-each outstanding writes the
// state machine may owe the console.
type PendingWrites struct {
	SetTime       bool
	SetConfig     *Config
	HistoryCatchup bool
}

func (p *PendingWrites) Empty() bool {
	return p == nil || (!p.SetTime && p.SetConfig == nil && !p.HistoryCatchup)
}
