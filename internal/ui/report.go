package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Report is a titled box of preformatted text, such as a register dump or
// the stop reply from the target.
type Report struct {
	Title   string
	Content string
	Width   int
	// MaxLines truncates the content; 0 means unlimited
	MaxLines int
}

// NewReport creates a report box sized to the terminal.
func NewReport(title, content string) *Report {
	return &Report{Title: title, Content: content, Width: GetTerminalWidth()}
}

// Render returns the styled box.
func (r *Report) Render() string {
	content := strings.TrimRight(r.Content, "\n")
	if r.MaxLines > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > r.MaxLines {
			hidden := len(lines) - r.MaxLines
			lines = append(lines[:r.MaxLines], noteStyle.Render(fmt.Sprintf("... %d more lines", hidden)))
			content = strings.Join(lines, "\n")
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(clampWidth(r.Width)-4).
		Padding(0, 1).
		Render(reportTitleStyle.Render(r.Title) + "\n" + valueStyle.Render(content))
}

func (r *Report) String() string {
	return r.Render()
}

// HexDump formats data in 16-byte rows labelled with target addresses.
func HexDump(addr uint32, data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		row := data[off:min(off+16, len(data))]
		fmt.Fprintf(&b, "%08X  ", addr+uint32(off))
		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Fprintf(&b, "%02X ", row[i])
			} else {
				b.WriteString("   ")
			}
			if i == 7 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(" |")
		for _, c := range row {
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}
	return b.String()
}
