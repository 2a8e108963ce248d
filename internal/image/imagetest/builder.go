// Package imagetest builds small 32-bit little-endian ELF executables for tests.
package imagetest

import (
	"debug/elf"
	"encoding/binary"
)

// Segment describes one program header entry to emit. Data is placed in the
// file after the program header table.
type Segment struct {
	Type  elf.ProgType
	PAddr uint32
	Data  []byte
}

// Builder assembles an ELF image. Zero values produce a valid ET_EXEC for
// ARM with entry point 0x00000189.
type Builder struct {
	Entry    uint32
	Type     elf.Type
	Segments []Segment
}

// Build returns the encoded image.
func (b Builder) Build() []byte {
	const (
		ehsize    = 52
		phentsize = 32
	)
	entry := b.Entry
	if entry == 0 {
		entry = 0x00000189
	}
	typ := b.Type
	if typ == 0 {
		typ = elf.ET_EXEC
	}

	phoff := uint32(ehsize)
	dataOff := phoff + uint32(len(b.Segments))*phentsize

	le := binary.LittleEndian
	buf := make([]byte, dataOff)
	copy(buf, elf.ELFMAG)
	buf[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	buf[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	buf[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	le.PutUint16(buf[16:], uint16(typ))
	le.PutUint16(buf[18:], uint16(elf.EM_ARM))
	le.PutUint32(buf[20:], uint32(elf.EV_CURRENT))
	le.PutUint32(buf[24:], entry)
	le.PutUint32(buf[28:], phoff)
	le.PutUint16(buf[40:], ehsize)
	le.PutUint16(buf[42:], phentsize)
	le.PutUint16(buf[44:], uint16(len(b.Segments)))

	off := dataOff
	for i, seg := range b.Segments {
		ph := buf[phoff+uint32(i)*phentsize:]
		le.PutUint32(ph[0:], uint32(seg.Type))
		le.PutUint32(ph[4:], off)
		le.PutUint32(ph[8:], seg.PAddr)
		le.PutUint32(ph[12:], seg.PAddr)
		le.PutUint32(ph[16:], uint32(len(seg.Data)))
		le.PutUint32(ph[20:], uint32(len(seg.Data)))
		le.PutUint32(ph[24:], uint32(elf.PF_R|elf.PF_X))
		le.PutUint32(ph[28:], 4)
		buf = append(buf, seg.Data...)
		off += uint32(len(seg.Data))
	}
	return buf
}

// VectorTable returns n bytes whose first word is sp and second word is the
// reset handler address, the layout Cortex-M expects at address 0.
func VectorTable(sp, reset uint32, n int) []byte {
	if n < 8 {
		n = 8
	}
	data := make([]byte, n)
	binary.LittleEndian.PutUint32(data[0:], sp)
	binary.LittleEndian.PutUint32(data[4:], reset)
	for i := 8; i < n; i++ {
		data[i] = byte(i)
	}
	return data
}
