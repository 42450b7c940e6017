package stcp

import (
	"encoding/binary"
	"errors"
)

// HeaderLen is the fixed header size in bytes: data offset is always 5
// 32-bit words (spec §6).
const HeaderLen = 20

const dataOffsetWords = 5

// ErrMalformedSegment is returned by Decode when a buffer is shorter than
// HeaderLen (spec §7).
var ErrMalformedSegment = errors.New("stcp: malformed segment: shorter than header")

// Header is the host-order, decoded form of the fixed 20-byte segment
// header described in spec §6. SrcPort/DstPort are opaque to the core and
// passed through unchanged.
type Header struct {
	SrcPort uint16
	DstPort uint16
	Seq     Value
	Ack     Value
	Flags   Flags
	Window  uint16
}

// Encode renders h and payload to a wire-format byte slice. Encode never
// fails (spec §4.1): callers are expected to have validated payload length
// against MSS before calling it. Checksum and urgent-pointer fields are
// always zero on output, per spec §6.
func Encode(h Header, payload []byte) []byte {
	buf := make([]byte, HeaderLen+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.DstPort)
	binary.BigEndian.PutUint32(buf[4:8], uint32(h.Seq))
	binary.BigEndian.PutUint32(buf[8:12], uint32(h.Ack))
	buf[12] = dataOffsetWords << 4
	buf[13] = byte(h.Flags)
	binary.BigEndian.PutUint16(buf[14:16], h.Window)
	// buf[16:18] checksum, buf[18:20] urgent pointer: left zero.
	copy(buf[HeaderLen:], payload)
	return buf
}

// Decode parses a wire-format byte slice into a Header and the remaining
// payload slice (which aliases buf). It returns ErrMalformedSegment if buf
// is shorter than HeaderLen. Unknown flag bits are preserved but ignored by
// every handler above the codec (spec §4.1).
func Decode(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderLen {
		return Header{}, nil, ErrMalformedSegment
	}
	h := Header{
		SrcPort: binary.BigEndian.Uint16(buf[0:2]),
		DstPort: binary.BigEndian.Uint16(buf[2:4]),
		Seq:     Value(binary.BigEndian.Uint32(buf[4:8])),
		Ack:     Value(binary.BigEndian.Uint32(buf[8:12])),
		Flags:   Flags(buf[13]),
		Window:  binary.BigEndian.Uint16(buf[14:16]),
	}
	return h, buf[HeaderLen:], nil
}
