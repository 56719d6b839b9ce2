package protocol

// Nibble addressing, per §4.3 and the descriptor-table design note
// of §9: a byte has a "hi" nibble (bits 7..4) and a "lo" nibble (bits
// 3..0). Fields are addressed by a starting nibble and a nibble count;
// multi-nibble fields read big-endian, one nibble at a time, advancing
// hi->lo->hi... across byte boundaries.

// nibbleIndex converts a (byteOffset, hi) pair into a linear nibble
// index: the hi nibble of byte N is index 2N, the lo nibble is 2N+1.
func nibbleIndex(byteOffset int, hi bool) int {
	if hi {
		return byteOffset * 2
	}
	return byteOffset*2 + 1
}

// nibbleAt returns the 4-bit value at linear nibble index idx.
func nibbleAt(buf []byte, idx int) byte {
	b := buf[idx/2]
	if idx%2 == 0 {
		return b >> 4
	}
	return b & 0x0f
}

// setNibbleAt writes a 4-bit value at linear nibble index idx.
func setNibbleAt(buf []byte, idx int, v byte) {
	bi := idx / 2
	if idx%2 == 0 {
		buf[bi] = (buf[bi] & 0x0f) | (v << 4)
	} else {
		buf[bi] = (buf[bi] & 0xf0) | (v & 0x0f)
	}
}

// readNibbles concatenates count nibbles starting at idx, most
// significant first, into a big-endian unsigned value.
func readNibbles(buf []byte, idx, count int) uint64 {
	var v uint64
	for i := 0; i < count; i++ {
		v = v<<4 | uint64(nibbleAt(buf, idx+i))
	}
	return v
}

// writeNibbles is the inverse of readNibbles.
func writeNibbles(buf []byte, idx, count int, v uint64) {
	for i := count - 1; i >= 0; i-- {
		setNibbleAt(buf, idx+i, byte(v&0xf))
		v >>= 4
	}
}

// allNibblesSet reports whether all count nibbles starting at idx are
// the sentinel 0xF ("overflow"/"invalid").
func allNibblesSet(buf []byte, idx, count int) bool {
	for i := 0; i < count; i++ {
		if nibbleAt(buf, idx+i) != 0xf {
			return false
		}
	}
	return true
}

// bcdDigits interprets count nibbles as count decimal digits (one
// digit per nibble) and returns the decoded integer.
func bcdDigits(buf []byte, idx, count int) int {
	v := 0
	for i := 0; i < count; i++ {
		v = v*10 + int(nibbleAt(buf, idx+i))
	}
	return v
}

// writeBCDDigits is the inverse of bcdDigits: it writes value as count
// decimal digits, most significant first.
func writeBCDDigits(buf []byte, idx, count int, value int) {
	for i := count - 1; i >= 0; i-- {
		setNibbleAt(buf, idx+i, byte(value%10))
		value /= 10
	}
}

// fieldKind enumerates the value-encoding rules of §4.3.
type fieldKind int

const (
	kindTemperature fieldKind = iota // 5 nibbles, value*10+400, sentinel 0xFFFFF
	kindHumidity                     // 2 BCD digits, 0-99; 10=underflow, ">=100 impossible at this width"=overflow marker only conceptually
	kindSpeed                        // 6 nibbles, value*100, m/s; sentinel 0xFFFFFF
	kindPressureHPa                  // 5 nibbles, value*10
	kindPressureInHg                 // 5 nibbles, value*100
	kindRainCounter                  // 7 nibbles, value*100
	kindDirection                    // 1 nibble, 0..15, 16=invalid
	kindBCDRaw                       // plain BCD digits, no scaling
)

const temperatureSentinel = 0xfffff // 5 nibbles all set

// decodeTemperature reads a 5-BCD-digit temperature field: raw maps
// 0..1000 to -40.0..+60.0 degC. Sentinel all-F means invalid.
func decodeTemperature(buf []byte, idx int) (value float64, valid bool) {
	if allNibblesSet(buf, idx, 5) {
		return 0, false
	}
	raw := bcdDigits(buf, idx, 5)
	return float64(raw-400) / 10.0, true
}

func encodeTemperature(buf []byte, idx int, value float64, valid bool) {
	if !valid {
		writeNibbles(buf, idx, 5, temperatureSentinel)
		return
	}
	raw := int((value + 40.0) * 10.0)
	writeBCDDigits(buf, idx, 5, raw)
}

// decodeHumidity reads a 2-BCD-digit humidity field. 10 is the
// underflow sentinel. 110 (overflow, per §3) cannot be represented
// in 2 digits; see §4.3 for the resolved ambiguity.
func decodeHumidity(buf []byte, idx int) (value int, valid bool) {
	v := bcdDigits(buf, idx, 2)
	if v == 10 {
		return 0, false
	}
	return v, true
}

func encodeHumidity(buf []byte, idx int, value int, valid bool) {
	if !valid {
		writeBCDDigits(buf, idx, 2, 10)
		return
	}
	writeBCDDigits(buf, idx, 2, value)
}

// decodeSpeed reads a 6-BCD-digit speed field (value*100, m/s).
func decodeSpeed(buf []byte, idx int) (value float64, valid bool) {
	if allNibblesSet(buf, idx, 6) {
		return 0, false
	}
	raw := bcdDigits(buf, idx, 6)
	return float64(raw) / 100.0, true
}

func encodeSpeed(buf []byte, idx int, value float64, valid bool) {
	if !valid {
		writeNibbles(buf, idx, 6, 0xffffff)
		return
	}
	writeBCDDigits(buf, idx, 6, int(value*100.0))
}

// decodePressureHPa reads a 5-BCD-digit pressure field (hPa*10).
func decodePressureHPa(buf []byte, idx int) float64 {
	return float64(bcdDigits(buf, idx, 5)) / 10.0
}

func encodePressureHPa(buf []byte, idx int, value float64) {
	writeBCDDigits(buf, idx, 5, int(value*10.0))
}

// decodePressureInHg reads a 5-BCD-digit pressure field (inHg*100).
func decodePressureInHg(buf []byte, idx int) float64 {
	return float64(bcdDigits(buf, idx, 5)) / 100.0
}

func encodePressureInHg(buf []byte, idx int, value float64) {
	writeBCDDigits(buf, idx, 5, int(value*100.0))
}

// decodeRainCounter reads a 7-BCD-digit rain counter (mm*100).
func decodeRainCounter(buf []byte, idx int) float64 {
	return float64(bcdDigits(buf, idx, 7)) / 100.0
}

func encodeRainCounter(buf []byte, idx int, value float64) {
	writeBCDDigits(buf, idx, 7, int(value*100.0))
}

// decodeDirection reads a single compass nibble.
func decodeDirection(buf []byte, idx int) WindDirection {
	return WindDirection(nibbleAt(buf, idx))
}

func encodeDirection(buf []byte, idx int, d WindDirection) {
	setNibbleAt(buf, idx, byte(d))
}

// decodeDirectionHistory reads the 5 nibbles immediately preceding idx,
// in reverse chronological order (nibble at idx-1 is most recent).
func decodeDirectionHistory(buf []byte, idx int) [5]WindDirection {
	var hist [5]WindDirection
	for i := 0; i < 5; i++ {
		hist[i] = WindDirection(nibbleAt(buf, idx-1-i))
	}
	return hist
}

func encodeDirectionHistory(buf []byte, idx int, hist [5]WindDirection) {
	for i := 0; i < 5; i++ {
		setNibbleAt(buf, idx-1-i, byte(hist[i]))
	}
}

// timestamp fields are 10 nibbles = 5 BCD-digit-pairs in the order
// year-since-2000, month, day, hour, minute (§8.2's worked History
// example decodes correctly only in this order).
func decodeTimestampField(buf []byte, idx int) (t timeFields) {
	t.Year = 2000 + bcdDigits(buf, idx, 2)
	t.Month = bcdDigits(buf, idx+2, 2)
	t.Day = bcdDigits(buf, idx+4, 2)
	t.Hour = bcdDigits(buf, idx+6, 2)
	t.Minute = bcdDigits(buf, idx+8, 2)
	return t
}

func encodeTimestampField(buf []byte, idx int, t timeFields) {
	writeBCDDigits(buf, idx, 2, t.Year%100)
	writeBCDDigits(buf, idx+2, 2, t.Month)
	writeBCDDigits(buf, idx+4, 2, t.Day)
	writeBCDDigits(buf, idx+6, 2, t.Hour)
	writeBCDDigits(buf, idx+8, 2, t.Minute)
}

type timeFields struct {
	Year, Month, Day, Hour, Minute int
}
