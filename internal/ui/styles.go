package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // headers, borders
	SuccessColor = lipgloss.Color("#43BF6D")
	ErrorColor   = lipgloss.Color("#FF5555")
	WarningColor = lipgloss.Color("#FFA500")
	MutedColor   = lipgloss.Color("#626262") // secondary info
	TextColor    = lipgloss.Color("#FFFFFF")
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
	stepNameColumn   = 40
)

var (
	headerTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	headerCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	paramKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	valueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	stepDoneStyle    = lipgloss.NewStyle().Foreground(SuccessColor)
	stepRunningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	stepPendingStyle = lipgloss.NewStyle().Foreground(MutedColor)
	stepFailedStyle  = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	successTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	warningTitleStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	detailKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(16)

	tipTitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Bold(true)

	tipStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	reportTitleStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Bold(true)
)

// Step and result markers
const (
	markerDone    = "✓"
	markerRunning = "●"
	markerPending = "·"
	markerFailed  = "✗"
	markerSkipped = "⊘"
)

// GetTerminalWidth returns the stdout width clamped to the supported range.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return min(width, MaxContentWidth)
}

// IsTerminal reports whether f is attached to a terminal. Interactive
// output (spinners, live progress) is only used when it is.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func clampWidth(width int) int {
	return max(width, MinTerminalWidth)
}
