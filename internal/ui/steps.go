package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// StepLine is one entry of a step list.
type StepLine struct {
	Number  int // 1-based
	Total   int
	Name    string
	Status  StepStatus
	Message string // e.g. "2 segments, 4096 bytes"
}

// Render returns the step as a single line. marker overrides the status
// marker when non-empty; the live tracker uses it for its spinner.
func (s StepLine) Render(marker string) string {
	var style lipgloss.Style
	def := markerPending
	switch s.Status {
	case StepComplete:
		style, def = stepDoneStyle, markerDone
	case StepRunning:
		style, def = stepRunningStyle, markerRunning
	case StepFailed:
		style, def = stepFailedStyle, markerFailed
	case StepSkipped:
		style, def = stepPendingStyle, markerSkipped
	default:
		style = stepPendingStyle
	}
	if marker == "" {
		marker = style.Render(def)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", s.Number, s.Total)
	b.WriteString(style.Render(s.Name))
	b.WriteString(strings.Repeat(" ", max(stepNameColumn-lipgloss.Width(s.Name), 1)))
	b.WriteString(marker)
	if s.Message != "" {
		b.WriteString("  ")
		b.WriteString(noteStyle.Render("(" + s.Message + ")"))
	}
	return b.String()
}
