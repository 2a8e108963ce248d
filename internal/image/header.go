package image

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// Layout of the 32-bit ELF file header and program header entry.
const (
	HeaderSize        = 52
	MinProgHeaderSize = 32

	offType      = 16
	offMachine   = 18
	offEntry     = 24
	offPhOff     = 28
	offShOff     = 32
	offPhEntSize = 42
	offPhNum     = 44
	offShEntSize = 46
	offShNum     = 48
)

// Header holds the file header fields ramload consumes.
type Header struct {
	Type      elf.Type
	Machine   elf.Machine
	Entry     uint32
	PhOff     uint32
	ShOff     uint32
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
}

// ParseHeader validates and decodes the ELF file header at the start of buf.
// Checks run in a fixed order and the first failure is returned.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, &FormatError{Err: ErrTooShort, Detail: fmt.Sprintf("%d bytes, need %d", len(buf), HeaderSize)}
	}
	if !bytes.Equal(buf[:4], []byte(elf.ELFMAG)) {
		return nil, &FormatError{Err: ErrBadMagic, Detail: fmt.Sprintf("got % x", buf[:4])}
	}
	if class := elf.Class(buf[elf.EI_CLASS]); class != elf.ELFCLASS32 {
		return nil, &FormatError{Err: ErrWordSize, Detail: class.String()}
	}
	if data := elf.Data(buf[elf.EI_DATA]); data != elf.ELFDATA2LSB {
		return nil, &FormatError{Err: ErrEndianness, Detail: data.String()}
	}

	le := binary.LittleEndian
	h := &Header{
		Type:      elf.Type(le.Uint16(buf[offType:])),
		Machine:   elf.Machine(le.Uint16(buf[offMachine:])),
		Entry:     le.Uint32(buf[offEntry:]),
		PhOff:     le.Uint32(buf[offPhOff:]),
		ShOff:     le.Uint32(buf[offShOff:]),
		PhEntSize: le.Uint16(buf[offPhEntSize:]),
		PhNum:     le.Uint16(buf[offPhNum:]),
		ShEntSize: le.Uint16(buf[offShEntSize:]),
		ShNum:     le.Uint16(buf[offShNum:]),
	}

	if h.Type != elf.ET_EXEC {
		return nil, &FormatError{Err: ErrNotExecutable, Detail: h.Type.String()}
	}
	if h.Entry == 0 {
		return nil, &FormatError{Err: ErrNoEntry}
	}
	if h.PhOff == 0 {
		return nil, &FormatError{Err: ErrNoProgramHeader}
	}

	return h, nil
}
