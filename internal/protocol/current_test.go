package protocol

import (
	"testing"
	"time"
)

func sampleObservation() *Observation {
	return &Observation{
		TempIndoor: 21.5, TempIndoorValid: true,
		TempOutdoor: 18.3, TempOutdoorValid: true,
		Dewpoint: 12.1, DewpointValid: true,
		Windchill: 17.9, WindchillValid: true,
		HumidityIndoor:  45,
		HumidityOutdoor: 62,
		WindSpeed:       3.4, WindSpeedValid: true,
		GustSpeed: 7.2, GustSpeedValid: true,
		WindDirection:  WindDirection(5),
		WindDirHistory: [5]WindDirection{4, 3, 2, 1, 0},
		GustDirection:  WindDirection(6),
		GustDirHistory: [5]WindDirection{5, 4, 3, 2, 1},
		RainCounter:    123.45,
		Rain24H:        5.5,
		RainWeek:       10.25,
		RainMonth:      40.0,
		RainTotal:      999.99,
		LastRainReset:  time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC),
		PressureRelHPa: 1013.2,
		PressureRelInHg: 29.92,
		Battery:        BatteryTHP | BatteryWind,
		SignalQuality:  80,
		WeatherState:   WeatherState(1),
		Tendency:       WeatherTendency(2),
		AlarmRinging:   0xdeadbeef,
		TempIndoorMin:  MinMax{Value: 18.0, At: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		TempIndoorMax:  MinMax{Value: 26.0, At: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), Valid: true},
		TempOutdoorMin: MinMax{Value: -5.0, At: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC), Valid: true},
		TempOutdoorMax: MinMax{Value: 33.0, At: time.Date(2025, 7, 15, 16, 0, 0, 0, time.UTC), Valid: true},
		HumidityIndoorMin:  MinMax{Value: 30, At: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		HumidityIndoorMax:  MinMax{Value: 60, At: time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), Valid: true},
		HumidityOutdoorMin: MinMax{Value: 20, At: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), Valid: true},
		HumidityOutdoorMax: MinMax{Value: 95, At: time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC), Valid: true},
		PressureMin: MinMax{Value: 990.0, At: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		PressureMax: MinMax{Value: 1030.0, At: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), Valid: true},
	}
}

func TestCurrentRoundTrip(t *testing.T) {
	want := sampleObservation()
	buf := EncodeCurrent(DeviceId(0x1234), want)

	if len(buf) != CurrentFrameLen {
		t.Fatalf("encoded frame length = %d, want %d", len(buf), CurrentFrameLen)
	}

	got, deviceID, err := DecodeCurrent(buf)
	if err != nil {
		t.Fatalf("DecodeCurrent: %v", err)
	}
	if deviceID != 0x1234 {
		t.Errorf("deviceID = %#x, want 0x1234", deviceID)
	}

	if got.TempIndoor != want.TempIndoor || got.TempIndoorValid != want.TempIndoorValid {
		t.Errorf("TempIndoor = %v/%v, want %v/%v", got.TempIndoor, got.TempIndoorValid, want.TempIndoor, want.TempIndoorValid)
	}
	if got.TempOutdoor != want.TempOutdoor {
		t.Errorf("TempOutdoor = %v, want %v", got.TempOutdoor, want.TempOutdoor)
	}
	if got.HumidityIndoor != want.HumidityIndoor || got.HumidityOutdoor != want.HumidityOutdoor {
		t.Errorf("humidity = %d/%d, want %d/%d", got.HumidityIndoor, got.HumidityOutdoor, want.HumidityIndoor, want.HumidityOutdoor)
	}
	if got.WindSpeed != want.WindSpeed || got.GustSpeed != want.GustSpeed {
		t.Errorf("wind speeds = %v/%v, want %v/%v", got.WindSpeed, got.GustSpeed, want.WindSpeed, want.GustSpeed)
	}
	if got.WindDirection != want.WindDirection || got.WindDirHistory != want.WindDirHistory {
		t.Errorf("wind direction = %v %v, want %v %v", got.WindDirection, got.WindDirHistory, want.WindDirection, want.WindDirHistory)
	}
	if got.GustDirection != want.GustDirection || got.GustDirHistory != want.GustDirHistory {
		t.Errorf("gust direction = %v %v, want %v %v", got.GustDirection, got.GustDirHistory, want.GustDirection, want.GustDirHistory)
	}
	if got.RainCounter != want.RainCounter || got.RainTotal != want.RainTotal {
		t.Errorf("rain counters mismatch: got %+v want %+v", got, want)
	}
	if !got.LastRainReset.Equal(want.LastRainReset) {
		t.Errorf("LastRainReset = %v, want %v", got.LastRainReset, want.LastRainReset)
	}
	if got.PressureRelHPa != want.PressureRelHPa || got.PressureRelInHg != want.PressureRelInHg {
		t.Errorf("pressure = %v/%v, want %v/%v", got.PressureRelHPa, got.PressureRelInHg, want.PressureRelHPa, want.PressureRelInHg)
	}
	if got.Battery != want.Battery || got.SignalQuality != want.SignalQuality {
		t.Errorf("battery/signal = %v/%d, want %v/%d", got.Battery, got.SignalQuality, want.Battery, want.SignalQuality)
	}
	if got.WeatherState != want.WeatherState || got.Tendency != want.Tendency {
		t.Errorf("state/tendency = %v/%v, want %v/%v", got.WeatherState, got.Tendency, want.WeatherState, want.Tendency)
	}
	if got.AlarmRinging != want.AlarmRinging {
		t.Errorf("AlarmRinging = %#x, want %#x", got.AlarmRinging, want.AlarmRinging)
	}
	if got.TempIndoorMin != want.TempIndoorMin {
		t.Errorf("TempIndoorMin = %+v, want %+v", got.TempIndoorMin, want.TempIndoorMin)
	}
	if got.PressureMax != want.PressureMax {
		t.Errorf("PressureMax = %+v, want %+v", got.PressureMax, want.PressureMax)
	}
}

func TestCurrentInvalidSentinels(t *testing.T) {
	o := sampleObservation()
	o.TempOutdoorValid = false
	o.WindSpeedValid = false
	o.GustSpeedValid = false

	buf := EncodeCurrent(DeviceId(1), o)
	got, _, err := DecodeCurrent(buf)
	if err != nil {
		t.Fatalf("DecodeCurrent: %v", err)
	}
	if got.TempOutdoorValid {
		t.Error("TempOutdoorValid should decode false for the sentinel encoding")
	}
	if got.WindSpeedValid || got.GustSpeedValid {
		t.Error("wind/gust speed should decode invalid for the sentinel encoding")
	}
}

func TestCurrentChecksumMismatch(t *testing.T) {
	o := sampleObservation()
	buf := EncodeCurrent(DeviceId(1), o)
	buf[CurrentResponseByteOffset+1]++ // corrupt the first payload byte, inside the checksum span

	if _, _, err := DecodeCurrent(buf); err != ErrChecksum {
		t.Errorf("DecodeCurrent with corrupted frame = %v, want ErrChecksum", err)
	}
}

func TestCurrentBadLength(t *testing.T) {
	if _, _, err := DecodeCurrent(make([]byte, 4)); err != ErrBadLength {
		t.Errorf("DecodeCurrent with short buffer = %v, want ErrBadLength", err)
	}
}

func TestCurrentWrongResponseType(t *testing.T) {
	o := sampleObservation()
	buf := EncodeCurrent(DeviceId(1), o)
	buf[CurrentResponseByteOffset] = byte(ResponseAck)
	// the checksum is left stale; DecodeCurrent checks the response type
	// before the checksum, so the failure comes from the response type
	if _, _, err := DecodeCurrent(buf); err == nil {
		t.Error("DecodeCurrent with wrong response type should fail")
	}
}
