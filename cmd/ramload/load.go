package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ramload/internal/image"
	"github.com/muurk/ramload/internal/loader"
	"github.com/muurk/ramload/internal/rsp"
	"github.com/muurk/ramload/internal/stub"
	"github.com/muurk/ramload/internal/ui"
)

var loadCmd = &cobra.Command{
	Use:   "load <image.elf>",
	Short: "Load an ELF image into target RAM and run it",
	Long: `Load a statically linked 32-bit ARM ELF executable into target RAM and start it.

This command will:
  1. Enable extended mode so st-util keeps running after this session
  2. Reset the target
  3. Remap RAM to address 0 (board specific)
  4. Validate the ELF header
  5. Write every loadable segment and read it back for comparison
  6. Set SP (from the vector table, or the board default) and PC (entry point)
  7. Resume the target and wait for it to stop

Most programs never stop on their own. Press Ctrl-C to detach; the target
keeps running.`,
	Example: `  # Load onto the default board
  ramload load bench.elf

  # Refuse images with processor-specific segments
  ramload load --arch-segments reject bench.elf

  # Do not touch the target if the image is invalid
  ramload load --validate-first bench.elf`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	addImageFlags(loadCmd)
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	path := args[0]
	buf, err := os.ReadFile(path)
	if err != nil {
		p.PrintFailure("Cannot read image", err, nil)
		return err
	}

	p.PrintHeader("Load image", "ramload load "+filepath.Base(path),
		ui.Param{Key: "Stub", Value: s.address()},
		ui.Param{Key: "Board", Value: s.board.String()},
		ui.Param{Key: "Image", Value: fmt.Sprintf("%s (%d bytes)", path, len(buf))},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := rsp.Dial(ctx, s.address(), s.logger)
	if err != nil {
		p.PrintFailure("Cannot connect to st-util", err, connectTips(s))
		return err
	}
	defer conn.Close()
	defer conn.CloseOnDone(ctx)()

	cfg := loader.Config{
		Board:         s.board,
		ArchSpecific:  s.arch,
		ValidateFirst: s.validateFirst,
	}
	client := stub.NewClient(conn, s.logger)
	titles := loader.StepTitles()

	var res *loader.Result
	if ui.IsTerminal(os.Stdout) {
		err = ui.Track(os.Stdout, os.Stdin, titles, cancel, func(t *ui.Tracker) error {
			cfg.OnStep = func(st loader.Step) {
				t.Step(st.Index, stepStatus(st.Status), st.Message)
			}
			cfg.OnProgress = t.Progress

			var err error
			res, err = loader.New(client, cfg, s.logger).Run(ctx, buf)
			return err
		})
	} else {
		cfg.OnStep = func(st loader.Step) {
			p.PrintStep(ui.StepLine{
				Number:  st.Index + 1,
				Total:   len(titles),
				Name:    titles[st.Index],
				Status:  stepStatus(st.Status),
				Message: st.Message,
			})
		}
		res, err = loader.New(client, cfg, s.logger).Run(ctx, buf)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			p.PrintWarning("Detached from st-util",
				ui.Param{Key: "Target", Value: "left as is; a started program keeps running"},
				ui.Param{Key: "st-util", Value: "still in extended mode, ready for another load"},
			)
			return nil
		}
		p.PrintFailure("Load failed", err, loadTips(err, s))
		return err
	}

	spSource := "board default"
	if res.StackFromImage {
		spSource = "vector table"
	}
	p.PrintSuccess("Image loaded and run",
		ui.Param{Key: "Entry", Value: fmt.Sprintf("0x%08X", res.Entry)},
		ui.Param{Key: "Stack", Value: fmt.Sprintf("0x%08X (%s)", res.StackPointer, spSource)},
		ui.Param{Key: "Bytes", Value: fmt.Sprintf("%d", res.BytesWritten)},
		ui.Param{Key: "Stop reply", Value: res.TrapReport},
		ui.Param{Key: "Duration", Value: res.Duration.Round(time.Millisecond).String()},
	)
	return nil
}

func stepStatus(s loader.Status) ui.StepStatus {
	switch s {
	case loader.StatusSuccess:
		return ui.StepComplete
	case loader.StatusFailed:
		return ui.StepFailed
	case loader.StatusSkipped:
		return ui.StepSkipped
	case loader.StatusInProgress:
		return ui.StepRunning
	default:
		return ui.StepPending
	}
}

func connectTips(s *settings) []string {
	return []string{
		fmt.Sprintf("Start st-util: st-util -p %d", s.port),
		"Check the ST-LINK is connected and the board is powered",
		"Try: ramload verify-setup",
	}
}

// loadTips picks troubleshooting hints for a failed load.
func loadTips(err error, s *settings) []string {
	var (
		formatErr *image.FormatError
		segErr    *image.SegmentError
		readback  *loader.ReadbackError
		cmdErr    *stub.CommandError
		alignErr  *stub.AlignmentError
		ackErr    *rsp.AckError
		frameErr  *rsp.FrameError
		sumErr    *rsp.ChecksumError
	)
	switch {
	case errors.As(err, &formatErr), errors.As(err, &segErr):
		tips := []string{
			"Link a static 32-bit little-endian ARM executable (ET_EXEC)",
			"Inspect the image: ramload inspect <image.elf>",
		}
		if errors.Is(err, image.ErrArchSegment) {
			tips = append(tips, "Allow processor-specific segments: --arch-segments load")
		}
		if s.validateFirst {
			tips = append(tips, "The target was not touched (--validate-first)")
		}
		return tips
	case errors.As(err, &readback):
		return []string{
			"The target did not keep the written data",
			fmt.Sprintf("Check the board profile (--board %s) remaps RAM to 0", s.board.Name),
			"Make sure segments are linked for RAM, not flash",
		}
	case errors.As(err, &alignErr):
		return []string{"st-util only transfers whole words; align segment load addresses to 4 bytes"}
	case errors.As(err, &cmdErr):
		return []string{
			"st-util rejected a command; check its console output",
			"Power-cycle the board and restart st-util",
		}
	case errors.Is(err, rsp.ErrBrokenStream), errors.As(err, &ackErr), errors.As(err, &frameErr), errors.As(err, &sumErr):
		return append([]string{"The connection to st-util broke or was corrupted"}, connectTips(s)...)
	}
	return []string{"Run with --verbose to trace every packet"}
}
