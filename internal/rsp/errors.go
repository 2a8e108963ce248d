package rsp

import (
	"errors"
	"fmt"
)

// ErrBrokenStream reports a zero-length read or write on the stub connection.
var ErrBrokenStream = errors.New("socket broke")

// FrameError represents a packet that does not follow the $...#cc layout.
type FrameError struct {
	// Reason names the framing rule that was violated
	Reason string
	// Data is the offending part of the stream, for diagnostics
	Data []byte
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("invalid response (%s): %s", e.Reason, Printable(e.Data))
}

// ChecksumError represents a packet whose trailing checksum does not match
// the sum of its unescaped payload.
type ChecksumError struct {
	Expected uint8
	Computed uint8
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("incorrect checksum: packet says %02x, payload sums to %02x", e.Expected, e.Computed)
}

// AckError represents a missing or unexpected acknowledgement byte.
type AckError struct {
	// Got is the byte received in place of '+' (meaningless if Err is set)
	Got byte
	// Underlying error when no byte could be read
	Err error
}

func (e *AckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no acknowledgement: %v", e.Err)
	}
	return fmt.Sprintf("invalid ack: 0x%02X", e.Got)
}

func (e *AckError) Unwrap() error {
	return e.Err
}
