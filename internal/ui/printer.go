package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer writes styled output for the non-interactive parts of a command.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer that writes to w. If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box followed by a blank line.
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	h := NewHeader(title, command, params...)
	h.Width = p.width
	p.Println(h.Render())
	p.Newline()
}

// PrintStep prints a finished step. Running steps are not printed; without
// a terminal there is no way to overwrite them later.
func (p *Printer) PrintStep(s StepLine) {
	if s.Status == StepRunning || s.Status == StepPending {
		return
	}
	p.Println(s.Render(""))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	r := NewSuccessResult(title, details...)
	r.Width = p.width
	p.Newline()
	p.Println(r.Render())
}

// PrintFailure prints a failure result box with troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, troubleshooting []string) {
	r := NewFailureResult(title, err, troubleshooting)
	r.Width = p.width
	p.Newline()
	p.Println(r.Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	r := NewWarningResult(title, details...)
	r.Width = p.width
	p.Newline()
	p.Println(r.Render())
}

// PrintReport prints a titled box of preformatted text.
func (p *Printer) PrintReport(title, content string) {
	r := NewReport(title, content)
	r.Width = p.width
	p.Println(r.Render())
}
