// Package image parses just enough of a 32-bit little-endian ELF executable
// to load it into target RAM: the file header and the program header table.
//
// Parsing is done by hand rather than with debug/elf so that every
// structural problem is reported with its own error (ErrTooShort,
// ErrBadMagic, ErrWordSize, ...) and so that segment classification stays
// an explicit table. The debug/elf constants are reused for type codes.
//
// Segments are classified once per program header entry:
//
//	PT_NULL, PT_NOTE                 skip
//	PT_LOAD                          load
//	PT_DYNAMIC, PT_INTERP,
//	PT_SHLIB, PT_PHDR                reject (dynamic linking)
//	0x70000000-0x7fffffff            load with caveat (or reject, per Policy)
//	anything else                    reject as unrecognized
//
// Only the physical address (p_paddr) and file size are used: the start-up
// code copies .data and clears .bss itself, so memory beyond p_filesz is
// never written.
package image
