package protocol

import "errors"

// CodecFault covers bad length, bad checksum, unknown response type,
// and out-of-range nibble values (§7). A CodecFault is always
// recovered locally: the frame is discarded and the loop continues.
type CodecFault struct {
	Reason string
}

func (e *CodecFault) Error() string { return "codec fault: " + e.Reason }

func NewCodecFault(reason string) error { return &CodecFault{Reason: reason} }

// ErrChecksum is the specific CodecFault the checksum law names in
// §8 ("decode fails with CodecFault::Checksum").
var ErrChecksum = NewCodecFault("checksum mismatch")

// ErrBadLength is returned when a buffer is shorter than the frame
// being decoded requires. The header's declared length is not
// compared against it.
var ErrBadLength = NewCodecFault("bad frame length")

// ErrUnknownResponseType is returned for a response-type byte the
// decoder does not expect: one the service loop has no decoder for,
// or a frame kind other than the one a frame-specific decoder handles.
var ErrUnknownResponseType = NewCodecFault("unknown response type")

// IsCodecFault reports whether err is (or wraps) a CodecFault.
func IsCodecFault(err error) bool {
	var cf *CodecFault
	return errors.As(err, &cf)
}
