package protocol

import (
	"testing"
	"time"
)

func sampleHistoryRecord() *HistoryRecord {
	return &HistoryRecord{
		Index:           HistoryIndex(42),
		Timestamp:       time.Date(2025, 11, 3, 14, 22, 0, 0, time.UTC),
		TempIndoor:      22.1, TempIndoorValid: true,
		TempOutdoor:     9.8, TempOutdoorValid: true,
		HumidityIndoor:  40,
		HumidityOutdoor: 70,
		PressureRelHPa:  1005.3,
		RainCounter:     88.8,
		WindDirection:   WindDirection(12),
		WindSpeed:       2.1, WindSpeedValid: true,
		GustSpeed: 5.9, GustSpeedValid: true,
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	want := sampleHistoryRecord()
	buf := EncodeHistory(DeviceId(0xabcd), want)

	if len(buf) != HistoryFrameLen {
		t.Fatalf("encoded frame length = %d, want %d", len(buf), HistoryFrameLen)
	}

	got, deviceID, err := DecodeHistory(buf)
	if err != nil {
		t.Fatalf("DecodeHistory: %v", err)
	}
	if deviceID != 0xabcd {
		t.Errorf("deviceID = %#x, want 0xabcd", deviceID)
	}
	if got.Index != want.Index {
		t.Errorf("Index = %d, want %d", got.Index, want.Index)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	if got.TempIndoor != want.TempIndoor || got.TempOutdoor != want.TempOutdoor {
		t.Errorf("temps = %v/%v, want %v/%v", got.TempIndoor, got.TempOutdoor, want.TempIndoor, want.TempOutdoor)
	}
	if got.HumidityIndoor != want.HumidityIndoor || got.HumidityOutdoor != want.HumidityOutdoor {
		t.Errorf("humidity mismatch: got %+v want %+v", got, want)
	}
	if got.PressureRelHPa != want.PressureRelHPa {
		t.Errorf("PressureRelHPa = %v, want %v", got.PressureRelHPa, want.PressureRelHPa)
	}
	if got.RainCounter != want.RainCounter {
		t.Errorf("RainCounter = %v, want %v", got.RainCounter, want.RainCounter)
	}
	if got.WindDirection != want.WindDirection {
		t.Errorf("WindDirection = %v, want %v", got.WindDirection, want.WindDirection)
	}
	if got.WindSpeed != want.WindSpeed || got.GustSpeed != want.GustSpeed {
		t.Errorf("speeds = %v/%v, want %v/%v", got.WindSpeed, got.GustSpeed, want.WindSpeed, want.GustSpeed)
	}
}

// TestHistoryTimestampWireOrder pins the History timestamp field to
// §8.2's worked example: a record timestamped 2013-06-24 09:10:00
// must appear on the wire as the literal byte-pair sequence
// 13 06 24 09 10 (year,month,day,hour,minute), positioned as the last
// five payload bytes, immediately before the checksum.
func TestHistoryTimestampWireOrder(t *testing.T) {
	r := sampleHistoryRecord()
	r.Timestamp = time.Date(2013, 6, 24, 9, 10, 0, 0, time.UTC)
	r.TempOutdoor, r.TempOutdoorValid = 13.7, true
	r.PressureRelHPa = 1019.2

	buf := EncodeHistory(DeviceId(0xabcd), r)

	wantTimestampBytes := []byte{0x13, 0x06, 0x24, 0x09, 0x10}
	gotTimestampBytes := buf[histTimestamp/2 : histTimestamp/2+5]
	if string(gotTimestampBytes) != string(wantTimestampBytes) {
		t.Errorf("timestamp bytes = % x, want % x", gotTimestampBytes, wantTimestampBytes)
	}

	got, _, err := DecodeHistory(buf)
	if err != nil {
		t.Fatalf("DecodeHistory: %v", err)
	}
	if !got.Timestamp.Equal(r.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, r.Timestamp)
	}

	// §8.2 also pins these fields as literal decimal BCD digit
	// sequences, not raw hex nibbles: 13.7 degC is digits 5,3,7
	// (raw 537) and 1019.2 hPa is digits 1,0,1,9,2 (raw 10192).
	if raw := bcdDigits(buf, histTempOutdoor, 5); raw != 537 {
		t.Errorf("outdoor temp BCD digits = %d, want 537", raw)
	}
	if raw := bcdDigits(buf, histPressureHPa, 5); raw != 10192 {
		t.Errorf("pressure BCD digits = %d, want 10192", raw)
	}
}

func TestHistoryRingIndexWrap(t *testing.T) {
	last := HistoryIndex(HistoryRingSize - 1)
	if got := last.Next(); got != 0 {
		t.Errorf("Next() at ring end = %d, want 0", got)
	}
}

func TestHistoryChecksumMismatch(t *testing.T) {
	buf := EncodeHistory(DeviceId(1), sampleHistoryRecord())
	buf[HeaderSize+1]++
	if _, _, err := DecodeHistory(buf); err != ErrChecksum {
		t.Errorf("DecodeHistory with corrupted frame = %v, want ErrChecksum", err)
	}
}
