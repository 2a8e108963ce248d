package stub

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Core register indices as numbered by the stub.
const (
	RegSP = 13
	RegLR = 14
	RegPC = 15

	NumCoreRegisters = 16
)

// Registers holds r0-r15 of an ARMv7-M core.
type Registers [NumCoreRegisters]uint32

// Decode fills r from a 'g' reply. The reply is a stream of hex digit
// pairs in target byte order; only the first 16 words are used and any
// trailing registers (FPA, xPSR) are ignored.
func (r *Registers) Decode(resp []byte) error {
	need := 8 * NumCoreRegisters
	if len(resp) < need {
		return fmt.Errorf("reply has %d hex digits, need %d", len(resp), need)
	}

	raw := make([]byte, 4*NumCoreRegisters)
	if _, err := hex.Decode(raw, resp[:need]); err != nil {
		return err
	}
	for i := range r {
		r[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return nil
}

func (r Registers) SP() uint32 { return r[RegSP] }
func (r Registers) LR() uint32 { return r[RegLR] }
func (r Registers) PC() uint32 { return r[RegPC] }

// String formats the registers four per line.
func (r Registers) String() string {
	var b strings.Builder
	for row := 0; row < NumCoreRegisters/4; row++ {
		for col := 0; col < 4; col++ {
			i := 4*row + col
			if col > 0 {
				b.WriteString("   ")
			}
			fmt.Fprintf(&b, "%-4s %08X", fmt.Sprintf("r%d:", i), r[i])
		}
		if row < NumCoreRegisters/4-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RegisterName returns the conventional name of register idx.
func RegisterName(idx int) string {
	switch idx {
	case RegSP:
		return "SP"
	case RegLR:
		return "LR"
	case RegPC:
		return "PC"
	default:
		return fmt.Sprintf("r%d", idx)
	}
}
