package stub

import (
	"fmt"

	"github.com/muurk/ramload/internal/rsp"
)

// CommandError represents a reply that does not match what the command expects.
type CommandError struct {
	// Command is a short name such as "reset" or "write memory"
	Command string
	// Expected describes the reply the command needed
	Expected string
	// Response is the raw reply payload
	Response []byte
	// Addr and Length locate the failing chunk for memory commands
	Addr   uint32
	Length int
	// Err is set when the reply could not be decoded
	Err error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Command)
	if e.Length > 0 {
		msg += fmt.Sprintf(" (addr=0x%08X len=0x%08X)", e.Addr, e.Length)
	}
	msg += fmt.Sprintf(": expected %s, got %q", e.Expected, rsp.Printable(e.Response))
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// AlignmentError represents a memory transfer st-util would reject.
type AlignmentError struct {
	Addr   uint32
	Length int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("unaligned memory transfer: addr=0x%08X len=0x%08X (both must be multiples of 4)",
		e.Addr, e.Length)
}

// TransferError wraps a transport failure with the memory range being transferred.
type TransferError struct {
	Op     string
	Addr   uint32
	Length int
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s at 0x%08X (len 0x%08X): %v", e.Op, e.Addr, e.Length, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
