package protocol

// FrameSize is the maximum USB HID payload exchanged with the
// transceiver (§6): the 273-byte read_frame/write_frame buffer.
const FrameSize = 273

// Header layout (§4.3): every frame starts with a 3-byte
// preamble "00 00 <length>" followed by a 2-byte device id.
const (
	headerPreambleLen = 3
	headerLengthOffset = 2
	headerDeviceIDOffset = 3
	HeaderSize = 5
)

// Action is the first payload byte the driver writes after the header.
type Action byte

const (
	ActionGetHistory  Action = 0x00
	ActionSetTime     Action = 0x01
	ActionSetConfig   Action = 0x02
	ActionGetConfig   Action = 0x03
	ActionGetCurrent  Action = 0x05
	ActionSendTime    Action = 0xc0
)

// ResponseType is the first post-header byte of a console-to-driver frame.
type ResponseType byte

const (
	ResponseAck             ResponseType = 0x20
	ResponseGetConfig       ResponseType = 0x40
	ResponseCurrent         ResponseType = 0x60
	ResponseHistory         ResponseType = 0x80
	ResponseRequestSetConfig ResponseType = 0xa2
	ResponseRequestSetTime  ResponseType = 0xa3
)

// DecodeHeader reads the 3-byte preamble and 2-byte device id shared
// by every frame. It returns the declared payload length (excluding
// the header) and the device id.
func DecodeHeader(buf []byte) (length int, deviceID DeviceId, err error) {
	if len(buf) < HeaderSize {
		return 0, 0, ErrBadLength
	}
	if buf[0] != 0x00 || buf[1] != 0x00 {
		return 0, 0, NewCodecFault("bad preamble")
	}
	length = int(buf[headerLengthOffset])
	deviceID = DeviceId(uint16(buf[headerDeviceIDOffset])<<8 | uint16(buf[headerDeviceIDOffset+1]))
	return length, deviceID, nil
}

// EncodeHeader writes the shared preamble and device id into buf.
func EncodeHeader(buf []byte, length int, deviceID DeviceId) {
	buf[0] = 0x00
	buf[1] = 0x00
	buf[headerLengthOffset] = byte(length)
	buf[headerDeviceIDOffset] = byte(deviceID >> 8)
	buf[headerDeviceIDOffset+1] = byte(deviceID)
}
