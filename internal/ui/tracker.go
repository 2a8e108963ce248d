package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StepMsg updates one step of a Tracker.
type StepMsg struct {
	Index   int // 0-based
	Status  StepStatus
	Message string
}

// ProgressMsg reports bytes written out of the planned total.
type ProgressMsg struct {
	Written int
	Total   int
}

type doneMsg struct{ err error }

// trackModel renders a live step list with a byte progress bar and a
// spinner on the running step.
type trackModel struct {
	steps   []StepLine
	bar     progress.Model
	spin    spinner.Model
	written int
	total   int
	started time.Time

	onInterrupt func()
	interrupted bool

	done bool
	err  error
}

func newTrackModel(names []string, onInterrupt func()) trackModel {
	steps := make([]StepLine, len(names))
	for i, name := range names {
		steps[i] = StepLine{Number: i + 1, Total: len(names), Name: name}
	}
	return trackModel{
		steps:       steps,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spin:        spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(stepRunningStyle)),
		started:     time.Now(),
		onInterrupt: onInterrupt,
	}
}

func (m trackModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m trackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.interrupted {
			m.interrupted = true
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-30, 20), 50)
		return m, nil

	case StepMsg:
		if msg.Index >= 0 && msg.Index < len(m.steps) {
			m.steps[msg.Index].Status = msg.Status
			m.steps[msg.Index].Message = msg.Message
		}
		return m, nil

	case ProgressMsg:
		m.written, m.total = msg.Written, msg.Total
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m trackModel) View() string {
	var b strings.Builder
	running := false
	for _, s := range m.steps {
		marker := ""
		if s.Status == StepRunning && !m.done {
			marker = m.spin.View()
			running = true
		}
		b.WriteString(s.Render(marker))
		b.WriteByte('\n')
	}

	if m.total > 0 {
		pct := float64(m.written) / float64(m.total)
		fmt.Fprintf(&b, "\n  %s  %d/%d bytes\n", m.bar.ViewAs(pct), m.written, m.total)
	}

	if running {
		hint := "Ctrl-C to detach; the target keeps running"
		if m.interrupted {
			hint = "detaching..."
		}
		fmt.Fprintf(&b, "\n  %s\n", noteStyle.Render(fmt.Sprintf("%s (%s)", hint, time.Since(m.started).Round(time.Second))))
	}
	return b.String()
}

// Tracker forwards progress from a running operation to the live view.
// Its methods are safe to call from any goroutine.
type Tracker struct {
	program *tea.Program
}

// Step updates step index (0-based).
func (t *Tracker) Step(index int, status StepStatus, message string) {
	t.program.Send(StepMsg{Index: index, Status: status, Message: message})
}

// Progress updates the byte progress bar.
func (t *Tracker) Progress(written, total int) {
	t.program.Send(ProgressMsg{Written: written, Total: total})
}

// Track runs op while rendering a live step list to out. Ctrl-C calls
// onInterrupt once; op is still waited for, so onInterrupt must make it
// return (for example by closing its connection). Track returns op's error.
//
// If the terminal UI fails, onInterrupt is called and Track still waits for
// op before returning.
func Track(out io.Writer, in io.Reader, names []string, onInterrupt func(), op func(*Tracker) error) error {
	var interruptOnce sync.Once
	interrupt := func() {
		interruptOnce.Do(func() {
			if onInterrupt != nil {
				onInterrupt()
			}
		})
	}

	p := tea.NewProgram(newTrackModel(names, interrupt),
		tea.WithOutput(out),
		tea.WithInput(in),
		tea.WithoutSignalHandler(),
	)
	t := &Tracker{program: p}

	result := make(chan error, 1)
	go func() {
		err := op(t)
		result <- err
		p.Send(doneMsg{err: err})
	}()

	_, runErr := p.Run()
	if runErr != nil {
		interrupt()
		opErr := <-result
		if opErr != nil {
			return fmt.Errorf("terminal UI failed: %w (operation: %v)", runErr, opErr)
		}
		return fmt.Errorf("terminal UI failed: %w", runErr)
	}
	return <-result
}
