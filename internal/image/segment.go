package image

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// Class is what the loader does with a program header entry.
type Class int

const (
	ClassSkip Class = iota
	ClassLoad
	ClassRejectDynamic
	ClassLoadWithCaveat
	ClassRejectUnknown
)

func (c Class) String() string {
	switch c {
	case ClassSkip:
		return "skip"
	case ClassLoad:
		return "load"
	case ClassRejectDynamic:
		return "reject-dynamic"
	case ClassLoadWithCaveat:
		return "load-with-caveat"
	case ClassRejectUnknown:
		return "reject-unknown"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Loadable reports whether segments of this class are written to the target.
func (c Class) Loadable() bool {
	return c == ClassLoad || c == ClassLoadWithCaveat
}

// ClassTable maps the program header types ramload recognizes to their class.
// Types outside this table fall back to the architecture-range rule, then
// to ClassRejectUnknown.
var ClassTable = map[elf.ProgType]Class{
	elf.PT_NULL:    ClassSkip,
	elf.PT_NOTE:    ClassSkip,
	elf.PT_LOAD:    ClassLoad,
	elf.PT_DYNAMIC: ClassRejectDynamic,
	elf.PT_INTERP:  ClassRejectDynamic,
	elf.PT_SHLIB:   ClassRejectDynamic,
	elf.PT_PHDR:    ClassRejectDynamic,
}

// ArchPolicy decides what happens to segments in the processor-specific
// range (PT_LOPROC..PT_HIPROC), e.g. ARM_EXIDX.
type ArchPolicy int

const (
	// ArchLoad loads them like PT_LOAD and logs a caveat.
	ArchLoad ArchPolicy = iota
	// ArchReject refuses the image.
	ArchReject
)

func (p ArchPolicy) String() string {
	if p == ArchReject {
		return "reject"
	}
	return "load"
}

// ParseArchPolicy accepts "load" or "reject"; the empty string means load.
func ParseArchPolicy(s string) (ArchPolicy, error) {
	switch s {
	case "", "load":
		return ArchLoad, nil
	case "reject":
		return ArchReject, nil
	default:
		return ArchLoad, fmt.Errorf("unknown architecture segment policy %q (want load or reject)", s)
	}
}

// Classify returns the class of program header type t under policy p.
func Classify(t elf.ProgType, p ArchPolicy) Class {
	if c, ok := ClassTable[t]; ok {
		return c
	}
	if t >= elf.PT_LOPROC && t <= elf.PT_HIPROC {
		if p == ArchReject {
			return ClassRejectUnknown
		}
		return ClassLoadWithCaveat
	}
	return ClassRejectUnknown
}

// Segment is one program header entry, resolved against the image buffer.
type Segment struct {
	Index    int
	Type     elf.ProgType
	Class    Class
	Offset   uint32
	PAddr    uint32
	FileSize uint32
	// Data aliases the image buffer; it is nil for skipped entries.
	Data []byte
}

// Table walks the program header table of a parsed image.
type Table struct {
	buf    []byte
	hdr    *Header
	policy ArchPolicy
}

// NewTable prepares iteration over the program headers described by hdr.
func NewTable(buf []byte, hdr *Header, policy ArchPolicy) (*Table, error) {
	if hdr.PhEntSize < MinProgHeaderSize {
		return nil, &FormatError{Err: ErrProgHeaderSize, Detail: fmt.Sprintf("e_phentsize=%d", hdr.PhEntSize)}
	}
	return &Table{buf: buf, hdr: hdr, policy: policy}, nil
}

// Len returns the number of program header entries.
func (t *Table) Len() int {
	return int(t.hdr.PhNum)
}

// Entry decodes and classifies entry i. Rejected types and segments whose
// file range falls outside the image return a *SegmentError.
func (t *Table) Entry(i int) (Segment, error) {
	off := uint64(t.hdr.PhOff) + uint64(i)*uint64(t.hdr.PhEntSize)
	if off+uint64(t.hdr.PhEntSize) > uint64(len(t.buf)) {
		return Segment{}, &SegmentError{Index: i, Err: ErrProgHeaderRange}
	}

	le := binary.LittleEndian
	ph := t.buf[off:]
	raw := le.Uint32(ph[0:])
	seg := Segment{
		Index: i,
		Type:  elf.ProgType(raw),
		Class: Classify(elf.ProgType(raw), t.policy),
	}

	switch seg.Class {
	case ClassSkip:
		return seg, nil
	case ClassRejectDynamic:
		return seg, &SegmentError{Index: i, Type: raw, Err: ErrDynamicSegment}
	case ClassRejectUnknown:
		err := ErrUnknownSegment
		if seg.Type >= elf.PT_LOPROC && seg.Type <= elf.PT_HIPROC {
			err = ErrArchSegment
		}
		return seg, &SegmentError{Index: i, Type: raw, Err: err}
	}

	seg.Offset = le.Uint32(ph[4:])
	seg.PAddr = le.Uint32(ph[12:])
	seg.FileSize = le.Uint32(ph[16:])

	end := uint64(seg.Offset) + uint64(seg.FileSize)
	if end > uint64(len(t.buf)) {
		return seg, &SegmentError{Index: i, Type: raw, Err: ErrUnloadable}
	}
	seg.Data = t.buf[seg.Offset:end]
	return seg, nil
}

// Image is a fully validated executable.
type Image struct {
	Header   *Header
	Segments []Segment
}

// Parse validates the header and every program header entry up front.
// It performs no I/O; the loader walks the table itself so that it can
// interleave validation with target writes.
func Parse(buf []byte, policy ArchPolicy) (*Image, error) {
	hdr, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	table, err := NewTable(buf, hdr, policy)
	if err != nil {
		return nil, err
	}

	img := &Image{Header: hdr}
	for i := 0; i < table.Len(); i++ {
		seg, err := table.Entry(i)
		if err != nil {
			return nil, err
		}
		img.Segments = append(img.Segments, seg)
	}
	return img, nil
}

// LoadSize returns the total number of bytes that loading img writes.
func (img *Image) LoadSize() int {
	total := 0
	for _, seg := range img.Segments {
		if seg.Class.Loadable() {
			total += len(seg.Data)
		}
	}
	return total
}

// StackSeed returns the initial stack pointer stored in the first word of
// seg, if seg is loaded at address 0 (the vector table) and holds at least
// one word.
func StackSeed(seg Segment) (uint32, bool) {
	if !seg.Class.Loadable() || seg.PAddr != 0 || seg.FileSize < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(seg.Data), true
}
