// Package config manages the optional ramload preferences file.
//
// The file holds defaults for the stub endpoint, the board profile and the
// image policy switches so they need not be repeated on every invocation.
// Command-line flags always win over file values.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/ramload/config.yaml or $HOME/.config/ramload/config.yaml
//   - macOS: $HOME/.config/ramload/config.yaml
//   - Windows: %LOCALAPPDATA%\ramload\config.yaml
//
// # Example
//
//	version: 1
//	stub:
//	  host: localhost
//	  port: 4242
//	board: stm32f4-discovery
//	arch_specific_segments: load
//	validate_first: false
package config
