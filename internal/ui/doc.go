// Package ui provides terminal output components for the ramload CLI.
//
// Components are rendered with Lipgloss:
//
//   - Header: command banner with ordered parameters
//   - StepLine: one line of a step list
//   - Result: success, failure or warning box with troubleshooting tips
//   - Report: box of preformatted text (registers, stop reply, hex dumps)
//
// When stdout is a terminal, Track renders the load steps live with Bubble
// Tea: a spinner marks the running step, a bar tracks bytes written, and
// Ctrl-C detaches. Otherwise commands print finished steps through Printer.
//
// # Logging Integration
//
// zap logging is silent unless RAMLOAD_LOG_LEVEL or --log-level is set, so
// the styled output is not interleaved with log lines by default.
package ui
