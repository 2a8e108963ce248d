package image

import (
	"errors"
	"fmt"
)

// Header validation failures. Each is wrapped in a *FormatError.
var (
	ErrTooShort        = errors.New("no ELF header (too short)")
	ErrBadMagic        = errors.New("ELF magic missing")
	ErrWordSize        = errors.New("not 32-bit ELF")
	ErrEndianness      = errors.New("not little-endian ELF")
	ErrNotExecutable   = errors.New("ELF type is not ET_EXEC")
	ErrNoEntry         = errors.New("ELF has no entry point")
	ErrNoProgramHeader = errors.New("ELF has no program header")
)

// Program header failures. Each is wrapped in a *SegmentError, except
// ErrProgHeaderSize which concerns the whole table.
var (
	ErrProgHeaderSize  = errors.New("ELF program header entries are too small")
	ErrProgHeaderRange = errors.New("ELF program header entry out of range")
	ErrDynamicSegment  = errors.New("cannot process dynamic linking segment")
	ErrArchSegment     = errors.New("architecture-specific segment rejected by policy")
	ErrUnknownSegment  = errors.New("unrecognized segment type")
	ErrUnloadable      = errors.New("unloadable segment")
)

// FormatError reports an invalid ELF header field.
type FormatError struct {
	// Err is one of the header sentinel errors
	Err error
	// Detail shows the offending value
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (%s)", e.Err, e.Detail)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// SegmentError reports a program header entry that cannot be loaded.
type SegmentError struct {
	// Index is the entry's position in the program header table
	Index int
	// Type is the raw p_type value
	Type uint32
	// Err is one of the program header sentinel errors
	Err error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("program header %d (type 0x%08x): %v", e.Index, e.Type, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}
