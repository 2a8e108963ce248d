package loader

import (
	"fmt"
)

// StepError reports which load step failed.
type StepError struct {
	// Step is the step title, e.g. "Resetting target"
	Step string
	// Err is the underlying failure
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ReadbackError means the target memory did not hold what was just written.
type ReadbackError struct {
	// Segment is the program header index of the segment being loaded
	Segment int
	// Addr is the target address of the first differing byte
	Addr uint32
	// Offset is the position of that byte within the segment
	Offset int
	// Want is the byte that was written
	Want byte
	// Got is the byte read back
	Got byte
}

func (e *ReadbackError) Error() string {
	return fmt.Sprintf("readback mismatch in segment %d at 0x%08X (offset %d): wrote 0x%02X, read 0x%02X",
		e.Segment, e.Addr, e.Offset, e.Want, e.Got)
}
