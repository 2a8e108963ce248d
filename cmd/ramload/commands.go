package main

import (
	"context"
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/muurk/ramload/internal/board"
	"github.com/muurk/ramload/internal/config"
	"github.com/muurk/ramload/internal/image"
	"github.com/muurk/ramload/internal/rsp"
	"github.com/muurk/ramload/internal/stub"
	"github.com/muurk/ramload/internal/ui"
)

// Command flags
var (
	dumpAddr    string
	dumpLength  string
	dumpOutput  string
	probeWait   time.Duration
	forceConfig bool
)

func init() {
	addImageFlags(inspectCmd)
	addImageFlags(configInitCmd)

	dumpCmd.Flags().StringVar(&dumpAddr, "addr", "0x20000000", "Start address (word aligned)")
	dumpCmd.Flags().StringVar(&dumpLength, "length", "256", "Number of bytes to read (multiple of 4)")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Write raw bytes to this file instead of printing a hex dump")

	verifySetupCmd.Flags().DurationVar(&probeWait, "timeout", 3*time.Second, "Connection timeout")

	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(regsCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(verifySetupCmd)
	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(configCmd)
}

// inspectCmd implements the 'inspect' command
var inspectCmd = &cobra.Command{
	Use:   "inspect <image.elf>",
	Short: "Show how an image would be loaded, without touching the target",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	buf, err := os.ReadFile(args[0])
	if err != nil {
		p.PrintFailure("Cannot read image", err, nil)
		return err
	}

	hdr, err := image.ParseHeader(buf)
	if err != nil {
		p.PrintFailure("Invalid ELF header", err, nil)
		return err
	}

	p.PrintHeader("Image", "ramload inspect "+args[0],
		ui.Param{Key: "Machine", Value: hdr.Machine.String()},
		ui.Param{Key: "Entry", Value: fmt.Sprintf("0x%08X", hdr.Entry)},
		ui.Param{Key: "Program headers", Value: fmt.Sprintf("%d at 0x%X (%d bytes each)", hdr.PhNum, hdr.PhOff, hdr.PhEntSize)},
		ui.Param{Key: "Section headers", Value: fmt.Sprintf("%d at 0x%X", hdr.ShNum, hdr.ShOff)},
	)

	tbl, planErr := segmentTable(buf, hdr, s.arch, s.board)
	if tbl != "" {
		p.Println(tbl)
	}
	if planErr != nil {
		p.PrintFailure("Image cannot be loaded", planErr, []string{
			"Link a static executable; dynamic segments are not supported",
		})
		return planErr
	}
	if hdr.Machine != elf.EM_ARM {
		p.PrintWarning("Not an ARM image", ui.Param{Key: "Machine", Value: hdr.Machine.String()})
	}
	return nil
}

// segmentTable renders every program header entry up to the first one that
// cannot be loaded, and returns that entry's error.
func segmentTable(buf []byte, hdr *image.Header, arch image.ArchPolicy, b *board.Board) (string, error) {
	tbl, err := image.NewTable(buf, hdr, arch)
	if err != nil {
		return "", err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.MutedColor)).
		Headers("#", "TYPE", "ACTION", "PADDR", "OFFSET", "FILESZ")

	sp := b.DefaultStackPointer
	spSource := "board default"
	var failure error
	for i := 0; i < tbl.Len(); i++ {
		seg, err := tbl.Entry(i)
		if err != nil {
			typ := seg.Type.String()
			if errors.Is(err, image.ErrProgHeaderRange) {
				typ = "?"
			}
			t.Row(strconv.Itoa(i), typ, "error", "", "", "")
			failure = err
			break
		}
		t.Row(
			strconv.Itoa(i),
			seg.Type.String(),
			seg.Class.String(),
			fmt.Sprintf("0x%08X", seg.PAddr),
			fmt.Sprintf("0x%X", seg.Offset),
			strconv.Itoa(int(seg.FileSize)),
		)
		if v, ok := image.StackSeed(seg); ok {
			sp, spSource = v, "vector table"
		}
	}

	out := t.Render()
	if failure != nil {
		return out, failure
	}
	img, err := image.Parse(buf, arch)
	if err != nil {
		return out, err
	}
	out += fmt.Sprintf("\n  Total:      %d bytes in RAM\n", img.LoadSize())
	out += fmt.Sprintf("  Initial SP: 0x%08X (%s)\n", sp, spSource)
	return out, nil
}

// regsCmd implements the 'regs' command
var regsCmd = &cobra.Command{
	Use:   "regs",
	Short: "Print the target's core registers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return withClient(cmd, "Registers", "ramload regs", func(c *stub.Client, p *ui.Printer) error {
			regs, err := c.ReadRegisters()
			if err != nil {
				return err
			}
			p.PrintReport("Core registers", regs.String())
			return nil
		})
	},
}

// dumpCmd implements the 'dump' command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Read target memory",
	Example: `  # Hex dump the first 64 bytes of RAM
  ramload dump --addr 0x20000000 --length 64

  # Save 64 KiB of CCM RAM to a file
  ramload dump --addr 0x10000000 --length 0x10000 -o ccm.bin`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	addr, err := strconv.ParseUint(dumpAddr, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid --addr: %w", err)
	}
	length, err := strconv.ParseUint(dumpLength, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid --length: %w", err)
	}

	return withClient(cmd, "Memory dump", "ramload dump", func(c *stub.Client, p *ui.Printer) error {
		data, err := c.ReadMemory(uint32(addr), int(length))
		if err != nil {
			return err
		}
		if dumpOutput == "" {
			r := ui.NewReport(fmt.Sprintf("0x%08X, %d bytes", addr, len(data)), ui.HexDump(uint32(addr), data))
			r.MaxLines = 64
			p.Println(r.Render())
			return nil
		}
		if err := os.WriteFile(dumpOutput, data, 0644); err != nil {
			return err
		}
		p.PrintSuccess("Memory dumped",
			ui.Param{Key: "Range", Value: fmt.Sprintf("0x%08X-0x%08X", addr, addr+uint64(len(data)))},
			ui.Param{Key: "Output", Value: dumpOutput},
		)
		return nil
	})
}

// withClient connects to st-util, enables extended mode and runs fn. The
// target is not reset.
func withClient(cmd *cobra.Command, title, command string, fn func(*stub.Client, *ui.Printer) error) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	p.PrintHeader(title, command, ui.Param{Key: "Stub", Value: s.address()})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	conn, err := rsp.Dial(ctx, s.address(), s.logger)
	if err != nil {
		p.PrintFailure("Cannot connect to st-util", err, connectTips(s))
		return err
	}
	defer conn.Close()

	client := stub.NewClient(conn, s.logger)
	if err := client.EnableExtendedMode(); err != nil {
		p.PrintFailure(title+" failed", err, connectTips(s))
		return err
	}
	if err := fn(client, p); err != nil {
		p.PrintFailure(title+" failed", err, nil)
		return err
	}
	return nil
}

// verifySetupCmd implements the 'verify-setup' command
var verifySetupCmd = &cobra.Command{
	Use:   "verify-setup",
	Short: "Check that st-util is accepting connections",
	Long: `Check that st-util is listening on the configured host and port.

No packet is sent, so a program already running on the target is not disturbed.`,
	Args: cobra.NoArgs,
	RunE: runVerifySetup,
}

func runVerifySetup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	p.PrintHeader("Setup verification", "ramload verify-setup",
		ui.Param{Key: "Stub", Value: s.address()},
		ui.Param{Key: "Board", Value: s.board.String()},
	)

	res := stub.Probe(cmd.Context(), s.host, s.port, probeWait)
	if !res.Reachable {
		p.PrintFailure("Setup verification failed", res.Error, append([]string{res.Message}, connectTips(s)...))
		return fmt.Errorf("setup verification failed")
	}

	p.PrintSuccess("Setup verification complete",
		ui.Param{Key: "st-util", Value: res.Address + " (listening)"},
		ui.Param{Key: "Latency", Value: res.Latency.Round(time.Microsecond).String()},
		ui.Param{Key: "Board", Value: s.board.Name},
	)
	return nil
}

// boardsCmd implements the 'boards' command
var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List supported board profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		catalog, err := board.Load()
		if err != nil {
			return err
		}
		fmt.Print(boardList(catalog))
		return nil
	},
}

// boardList renders the catalog as a table followed by each board's notes.
func boardList(catalog *board.Catalog) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.MutedColor)).
		Headers("NAME", "DESCRIPTION", "REMAP", "DEFAULT SP")

	var notes strings.Builder
	for _, name := range catalog.Names() {
		b, _ := catalog.Get(name)
		marker := ""
		if name == board.Default {
			marker = " (default)"
		}
		t.Row(
			name+marker,
			b.Description,
			fmt.Sprintf("0x%08X <- 0x%08X", b.Remap.Address, b.Remap.Value),
			fmt.Sprintf("0x%08X", b.DefaultStackPointer),
		)
		if n := strings.Join(strings.Fields(b.Notes), " "); n != "" {
			fmt.Fprintf(&notes, "\n  %s: %s\n", name, n)
		}
	}
	return t.Render() + "\n" + notes.String()
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the ramload config file",
}

// configInitCmd implements the 'config init' command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	Long: `Write a config file holding the effective host, port, board and image
policy, so later commands can omit those flags.`,
	Example: `  # Save a non-default board and port
  ramload config init --board nucleo-f446re --port 4243`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !forceConfig {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	prefs := config.Defaults()
	prefs.Stub.Host = s.host
	prefs.Stub.Port = s.port
	prefs.Board = s.board.Name
	prefs.ArchSpecificSegments = s.arch.String()
	prefs.ValidateFirst = s.validateFirst

	if err := config.Save(path, prefs); err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	p.PrintSuccess("Config written",
		ui.Param{Key: "Path", Value: path},
		ui.Param{Key: "Stub", Value: s.address()},
		ui.Param{Key: "Board", Value: s.board.Name},
	)
	return nil
}
