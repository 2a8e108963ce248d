package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ramload/internal/board"
	"github.com/muurk/ramload/internal/image"
	"github.com/muurk/ramload/internal/logging"
	"github.com/muurk/ramload/internal/stub"
)

// Commander is the subset of *stub.Client the loader needs.
type Commander interface {
	EnableExtendedMode() error
	Reset() error
	WriteMemory(addr uint32, data []byte) error
	ReadMemory(addr uint32, n int) ([]byte, error)
	WriteRegister(idx int, value uint32) error
	Continue() (string, error)
}

// Status is the state of a load step.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Step is a progress report for one load step.
type Step struct {
	// Index is the 0-based position of the step in the sequence
	Index int
	// Name is the numbered step title, e.g. "[2/7] Resetting target"
	Name string
	// Status is the step outcome
	Status Status
	// Message provides detail such as byte counts or the error text
	Message string
}

const (
	stepExtendedMode = iota
	stepReset
	stepRemap
	stepValidate
	stepSegments
	stepRegisters
	stepResume
)

var stepTitles = [...]string{
	stepExtendedMode: "Enabling extended mode",
	stepReset:        "Resetting target",
	stepRemap:        "Remapping RAM to address 0",
	stepValidate:     "Validating image header",
	stepSegments:     "Loading segments",
	stepRegisters:    "Setting SP and PC",
	stepResume:       "Resuming target",
}

// StepName returns the numbered title of step i (0-based).
func StepName(i int) string {
	return fmt.Sprintf("[%d/%d] %s", i+1, len(stepTitles), stepTitles[i])
}

// StepTitles returns the unnumbered titles of all steps in order.
func StepTitles() []string {
	return append([]string(nil), stepTitles[:]...)
}

// Config controls a load.
type Config struct {
	// Board supplies the remap write and default stack pointer.
	// Nil selects board.Default.
	Board *board.Board

	// ArchSpecific decides whether processor-specific segments are loaded
	// or rejected.
	ArchSpecific image.ArchPolicy

	// ValidateFirst parses the whole image before touching the target.
	ValidateFirst bool

	// OnStep is called when a step starts and when it finishes.
	OnStep func(Step)

	// OnProgress is called after each segment is written and verified.
	OnProgress func(written, total int)
}

// Result describes a completed load.
type Result struct {
	// Entry is the image entry point written to PC
	Entry uint32
	// StackPointer is the value written to SP
	StackPointer uint32
	// StackFromImage is true when StackPointer came from the vector table
	StackFromImage bool
	// Segments lists every program header entry visited
	Segments []image.Segment
	// BytesWritten counts segment bytes written and verified
	BytesWritten int
	// TrapReport is the stop reply returned by continue
	TrapReport string
	// Duration is the wall time of the whole load
	Duration time.Duration
	// Steps holds the final status of every step
	Steps []Step
}

// Loader runs the load sequence over a Commander.
type Loader struct {
	cmd    Commander
	cfg    Config
	logger *zap.Logger
}

// New returns a Loader. If logger is nil a no-op logger is used.
func New(cmd Commander, cfg Config, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cmd: cmd, cfg: cfg, logger: logger}
}

// Run loads buf and starts it. It returns after the target reports a stop,
// which for a program that runs forever means it blocks until ctx's
// connection is closed by the caller.
//
// On failure the returned Result holds the steps completed so far and the
// error is a *StepError.
func (l *Loader) Run(ctx context.Context, buf []byte) (*Result, error) {
	start := time.Now()
	res := &Result{}
	defer func() { res.Duration = time.Since(start) }()

	b := l.cfg.Board
	if b == nil {
		var err error
		if b, err = board.Lookup(board.Default); err != nil {
			return res, err
		}
	}
	res.StackPointer = b.DefaultStackPointer

	l.logger.Info("starting load",
		zap.String("board", b.Name),
		zap.Int("image_size", len(buf)),
		zap.Stringer("arch_segments", l.cfg.ArchSpecific),
		zap.Bool("validate_first", l.cfg.ValidateFirst),
	)

	if l.cfg.ValidateFirst {
		if _, err := image.Parse(buf, l.cfg.ArchSpecific); err != nil {
			for i := 0; i < stepValidate; i++ {
				l.report(res, Step{Index: i, Name: StepName(i), Status: StatusSkipped})
			}
			return res, l.abort(res, stepValidate, err)
		}
	}

	var (
		hdr   *image.Header
		table *image.Table
	)

	steps := [...]func() (string, error){
		stepExtendedMode: func() (string, error) {
			return "", l.cmd.EnableExtendedMode()
		},
		stepReset: func() (string, error) {
			return "", l.cmd.Reset()
		},
		stepRemap: func() (string, error) {
			if err := l.cmd.WriteMemory(b.Remap.Address, b.Remap.Bytes()); err != nil {
				return "", err
			}
			return fmt.Sprintf("0x%08X <- 0x%08X", b.Remap.Address, b.Remap.Value), nil
		},
		stepValidate: func() (string, error) {
			var err error
			if hdr, err = image.ParseHeader(buf); err != nil {
				return "", err
			}
			if table, err = image.NewTable(buf, hdr, l.cfg.ArchSpecific); err != nil {
				return "", err
			}
			res.Entry = hdr.Entry
			return fmt.Sprintf("entry 0x%08X, %d program headers", hdr.Entry, hdr.PhNum), nil
		},
		stepSegments: func() (string, error) {
			return l.loadSegments(ctx, table, res)
		},
		stepRegisters: func() (string, error) {
			if err := l.cmd.WriteRegister(stub.RegSP, res.StackPointer); err != nil {
				return "", err
			}
			if err := l.cmd.WriteRegister(stub.RegPC, res.Entry); err != nil {
				return "", err
			}
			return fmt.Sprintf("SP=0x%08X PC=0x%08X", res.StackPointer, res.Entry), nil
		},
		stepResume: func() (string, error) {
			report, err := l.cmd.Continue()
			if err != nil {
				return "", err
			}
			res.TrapReport = report
			return report, nil
		},
	}

	for i, fn := range steps {
		if err := ctx.Err(); err != nil {
			return res, l.abort(res, i, err)
		}

		l.report(res, Step{Index: i, Name: StepName(i), Status: StatusInProgress})
		msg, err := fn()
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				err = fmt.Errorf("%w (%v)", cerr, err)
			}
			return res, l.abort(res, i, err)
		}
		l.report(res, Step{Index: i, Name: StepName(i), Status: StatusSuccess, Message: msg})
	}

	l.logger.Info("load complete",
		logging.Addr("entry", res.Entry),
		logging.Addr("sp", res.StackPointer),
		zap.Int("bytes", res.BytesWritten),
		zap.String("trap", res.TrapReport),
	)
	return res, nil
}

// loadSegments walks the program header table, writing and verifying each
// loadable segment as soon as it has been validated.
func (l *Loader) loadSegments(ctx context.Context, table *image.Table, res *Result) (string, error) {
	total := plannedBytes(table)
	loaded := 0

	for i := 0; i < table.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		seg, err := table.Entry(i)
		if err != nil {
			return "", err
		}
		res.Segments = append(res.Segments, seg)

		if !seg.Class.Loadable() {
			l.logger.Debug("skipping segment", zap.Int("index", i), zap.Stringer("type", seg.Type))
			continue
		}
		if seg.Class == image.ClassLoadWithCaveat {
			l.logger.Warn("loading processor-specific segment as plain data; results may vary",
				zap.Int("index", i),
				zap.Stringer("type", seg.Type),
				logging.Addr("paddr", seg.PAddr),
			)
		}

		if err := l.loadSegment(seg); err != nil {
			return "", err
		}
		loaded++
		res.BytesWritten += len(seg.Data)

		if sp, ok := image.StackSeed(seg); ok {
			l.logger.Info("stack pointer taken from vector table", logging.Addr("sp", sp))
			res.StackPointer = sp
			res.StackFromImage = true
		}

		if l.cfg.OnProgress != nil {
			l.cfg.OnProgress(res.BytesWritten, total)
		}
	}

	return fmt.Sprintf("%d segments, %d bytes", loaded, res.BytesWritten), nil
}

// loadSegment writes seg and reads it back. The stub only transfers whole
// words, so a ragged tail is padded with zeros.
func (l *Loader) loadSegment(seg image.Segment) error {
	if len(seg.Data) == 0 {
		l.logger.Debug("empty segment", zap.Int("index", seg.Index))
		return nil
	}

	data := seg.Data
	if pad := len(data) % 4; pad != 0 {
		data = make([]byte, len(seg.Data)+4-pad)
		copy(data, seg.Data)
	}

	l.logger.Info("loading segment",
		zap.Int("index", seg.Index),
		logging.Addr("paddr", seg.PAddr),
		zap.Int("size", len(seg.Data)),
	)

	if err := l.cmd.WriteMemory(seg.PAddr, data); err != nil {
		return err
	}
	got, err := l.cmd.ReadMemory(seg.PAddr, len(data))
	if err != nil {
		return err
	}
	for i := range data {
		if i >= len(got) || got[i] != data[i] {
			rb := &ReadbackError{Segment: seg.Index, Addr: seg.PAddr + uint32(i), Offset: i, Want: data[i]}
			if i < len(got) {
				rb.Got = got[i]
			}
			return rb
		}
	}
	return nil
}

// plannedBytes sums the loadable segments for progress reporting. Entries
// that fail validation are ignored here; the load loop reports them.
func plannedBytes(table *image.Table) int {
	total := 0
	for i := 0; i < table.Len(); i++ {
		seg, err := table.Entry(i)
		if err != nil {
			break
		}
		if seg.Class.Loadable() {
			total += len(seg.Data)
		}
	}
	return total
}

func (l *Loader) report(res *Result, step Step) {
	if step.Status != StatusInProgress {
		res.Steps = append(res.Steps, step)
	}
	if l.cfg.OnStep != nil {
		l.cfg.OnStep(step)
	}
}

// abort records step i as failed and every later step as skipped.
func (l *Loader) abort(res *Result, i int, err error) error {
	l.logger.Error("load failed", zap.String("step", stepTitles[i]), zap.Error(err))

	l.report(res, Step{Index: i, Name: StepName(i), Status: StatusFailed, Message: err.Error()})
	for j := i + 1; j < len(stepTitles); j++ {
		l.report(res, Step{Index: j, Name: StepName(j), Status: StatusSkipped})
	}
	return &StepError{Step: stepTitles[i], Err: err}
}
