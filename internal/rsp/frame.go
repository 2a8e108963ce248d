package rsp

import (
	"strconv"
)

// Wire markers.
const (
	StartMarker  byte = '$'
	EndMarker    byte = '#'
	EscapeMarker byte = '}'
	EscapeMask   byte = 0x20
	Ack          byte = '+'
)

const hexDigits = "0123456789abcdef"

// AppendHex appends v to dst in lowercase hexadecimal. With width >= 0 the
// output is zero-padded (or truncated to the low digits) to exactly width
// digits. With a negative width the minimal number of digits is used, and
// zero still produces a single "0".
func AppendHex(dst []byte, v uint64, width int) []byte {
	if width < 0 {
		width = 1
		for x := v >> 4; x != 0; x >>= 4 {
			width++
		}
	}
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, hexDigits[(v>>(4*uint(i)))&0x0f])
	}
	return dst
}

func needsEscape(b byte) bool {
	return b == StartMarker || b == EndMarker || b == EscapeMarker
}

// Checksum returns the modulo-256 sum of payload.
func Checksum(payload []byte) uint8 {
	var sum uint8
	for _, b := range payload {
		sum += b
	}
	return sum
}

// AppendFrame appends the framed, escaped form of payload to dst.
// The checksum covers the unescaped payload bytes.
func AppendFrame(dst, payload []byte) []byte {
	dst = append(dst, StartMarker)
	for _, b := range payload {
		if needsEscape(b) {
			dst = append(dst, EscapeMarker, b^EscapeMask)
		} else {
			dst = append(dst, b)
		}
	}
	dst = append(dst, EndMarker)
	return AppendHex(dst, uint64(Checksum(payload)), 2)
}

type decodeState int

const (
	stateStart decodeState = iota
	statePayload
	stateEscape
	stateChecksum
	stateDone
)

// Decoder reassembles one packet from a sequence of stream chunks.
// The zero value is ready to use; call Reset before decoding another packet.
type Decoder struct {
	state   decodeState
	payload []byte
	sum     uint8
	digits  []byte
}

// Reset prepares the decoder for a new packet.
func (d *Decoder) Reset() {
	d.state = stateStart
	d.payload = nil
	d.sum = 0
	d.digits = d.digits[:0]
}

// Payload returns the unescaped payload of the last complete packet.
func (d *Decoder) Payload() []byte {
	return d.payload
}

// Feed consumes the next chunk read from the stream and reports whether a
// complete, checksum-verified packet is now available.
//
// The first byte of the first chunk must be the start marker. Once the end
// marker has been seen the decoder waits for exactly two checksum digits; a
// chunk carrying more than that is a framing error.
func (d *Decoder) Feed(chunk []byte) (bool, error) {
	if d.state == stateDone {
		return false, &FrameError{Reason: "data after complete packet", Data: chunk}
	}
	if len(chunk) == 0 {
		return false, nil
	}
	if d.state == stateStart {
		if chunk[0] != StartMarker {
			return false, &FrameError{Reason: "missing start marker", Data: chunk}
		}
		d.payload = make([]byte, 0, len(chunk))
		d.state = statePayload
		chunk = chunk[1:]
	}

	for _, b := range chunk {
		switch d.state {
		case statePayload:
			switch b {
			case EndMarker:
				d.state = stateChecksum
			case EscapeMarker:
				d.state = stateEscape
			default:
				d.appendPayload(b)
			}
		case stateEscape:
			if b == EndMarker {
				// A dangling escape right before the terminator is literal.
				d.appendPayload(EscapeMarker)
				d.state = stateChecksum
				continue
			}
			d.appendPayload(b ^ EscapeMask)
			d.state = statePayload
		case stateChecksum:
			d.digits = append(d.digits, b)
		}
	}

	if d.state != stateChecksum || len(d.digits) < 2 {
		return false, nil
	}
	if len(d.digits) > 2 {
		return false, &FrameError{Reason: "too many checksum bytes", Data: d.digits}
	}

	want, err := strconv.ParseUint(string(d.digits), 16, 8)
	if err != nil {
		return false, &FrameError{Reason: "malformed checksum", Data: d.digits}
	}
	if uint8(want) != d.sum {
		return false, &ChecksumError{Expected: uint8(want), Computed: d.sum}
	}

	d.state = stateDone
	return true, nil
}

func (d *Decoder) appendPayload(b byte) {
	d.payload = append(d.payload, b)
	d.sum += b
}
