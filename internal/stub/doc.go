// Package stub issues the debug-stub commands ramload needs on top of the
// rsp packet layer: extended mode, reset, memory read/write, register
// read/write and continue.
//
// Each command validates the stub's reply against what that command
// expects. Most expect the literal "OK"; a mismatch is reported as a
// *CommandError carrying the printable form of the reply. Memory transfers
// are split into chunks of at most ChunkSize bytes, as st-util refuses
// larger packets, and must be 4-byte aligned in both address and length.
//
// Continue is the only command that may block indefinitely: it returns once
// the target stops and the stub reports why.
package stub
