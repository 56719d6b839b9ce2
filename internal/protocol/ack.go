package protocol

// Ack is the transceiver's acknowledgement of a completed RF exchange
// with the console (§3, §4). It carries the console's reported
// TransceiverState-adjacent response type so the state machine can
// decide what, if anything, to send next.
type Ack struct {
	DeviceId     DeviceId
	ResponseType ResponseType
}

const AckByteOffset = HeaderSize

// DecodeAck decodes the short Ack frame the transceiver emits after
// every poll, regardless of whether the console had anything to report.
func DecodeAck(buf []byte) (*Ack, error) {
	if len(buf) < AckByteOffset+1 {
		return nil, ErrBadLength
	}
	_, deviceID, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	return &Ack{DeviceId: deviceID, ResponseType: ResponseType(buf[AckByteOffset])}, nil
}
