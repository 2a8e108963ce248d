// Package logging provides structured logging for ramload.
//
// This package wraps a zap logger with convenience functions. Library packages
// (rsp, stub, loader) take a *zap.Logger by injection; the CLI obtains it from
// GetLogger after calling Initialize.
//
// # Log Levels
//
//   - Debug: every packet sent and received, with hex and ascii dumps
//   - Info: load steps (reset, remap, segment writes, register setup)
//   - Warn: non-fatal caveats (architecture-specific segments)
//   - Error: failures reported before exit
//
// # Configuration
//
// Logging is silent unless a level is given, either with --log-level or the
// RAMLOAD_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in console format so it never mixes with the trap
// report printed on stdout.
package logging
