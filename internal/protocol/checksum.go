package protocol

import "encoding/binary"

// weatherChecksum implements the Current Weather / History checksum
// law of §4.3: the trailing two bytes equal the sum of the
// payload bytes from offset 0 up to the checksum's own offset, modulo
// 0x10000. Stored big-endian, consistent with the rest of this
// wire format's multi-byte integers.
func weatherChecksum(payload []byte) uint16 {
	var sum uint32
	for _, b := range payload {
		sum += uint32(b)
	}
	return uint16(sum & 0xffff)
}

func readChecksum(buf []byte, offset int) uint16 {
	return binary.BigEndian.Uint16(buf[offset : offset+2])
}

func writeChecksum(buf []byte, offset int, checksum uint16) {
	binary.BigEndian.PutUint16(buf[offset:offset+2], checksum)
}

// verifyWeatherChecksum reports whether the frame's stored checksum
// matches the recomputed sum over buf[0:checksumOffset].
func verifyWeatherChecksum(buf []byte, checksumOffset int) bool {
	want := readChecksum(buf, checksumOffset)
	got := weatherChecksum(buf[:checksumOffset])
	return want == got
}

// configChecksum implements the Config checksum law of §4.3:
// sum of bytes 0..42 plus 7. ResetMinMaxFlags (bytes 43..45) are
// excluded.
func configChecksum(buf []byte) uint16 {
	var sum uint32
	for _, b := range buf[0:43] {
		sum += uint32(b)
	}
	return uint16((sum + 7) & 0xffff)
}
