// Ramload loads a bare-metal executable into the RAM of an STM32 target and
// starts it, using a running st-util as the debug stub.
//
// The target is reset, RAM is remapped to address 0, every loadable segment
// of the ELF image is written and read back, SP and PC are set, and the core
// is resumed. Nothing is written to flash.
//
// Prerequisites:
//
//   - st-util (from stlink) running and attached to the board
//   - a statically linked 32-bit ARM ELF executable linked for RAM
//
// See 'ramload --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/ramload/internal/logging"
	"github.com/muurk/ramload/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ramload",
	Short: "Load and run ELF images in microcontroller RAM via st-util",
	Long: `Load a bare-metal ELF executable into target RAM through st-util and run it.

ramload talks the GDB remote serial protocol directly to st-util on
localhost:4242. It enables extended mode so st-util survives the session,
resets the target, remaps RAM to address 0, writes and verifies each
loadable segment, sets SP and PC, and resumes the core.

Board-specific details (the remap register and default stack pointer) come
from a built-in catalog; see 'ramload boards'.

Defaults for host, port and board can be stored in the config file; see
'ramload config init'.`,
	Version: version.Version,
	Example: `  # Check that st-util is listening
  ramload verify-setup

  # Load and run an image on the default board
  ramload load bench.elf

  # Show what would be loaded without touching the target
  ramload inspect bench.elf

  # Read back 256 bytes of RAM
  ramload dump --addr 0x20000000 --length 256`,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ramload %s\n", version.Full())
	},
}
