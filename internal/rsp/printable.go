package rsp

import (
	"fmt"
	"strings"
)

// Printable renders a stub reply for humans: printable ASCII is kept as is,
// every other byte (and the backslash) becomes \xHH.
func Printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 && c != '\\' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02X", c)
		}
	}
	return b.String()
}
