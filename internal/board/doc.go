// Package board provides the catalog of supported target boards.
//
// Loading into RAM needs two pieces of board knowledge that the executable
// image does not carry: the register write that remaps RAM to address zero,
// and a fallback initial stack pointer. Both live in boards.yaml, which is
// embedded in the binary.
//
// Usage:
//
//	b, err := board.Lookup("stm32f4-discovery")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("remap 0x%08x <- 0x%08x\n", b.Remap.Address, b.Remap.Value)
package board
