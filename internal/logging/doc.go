// Package logging is the debug log layer for tandem runs.
//
// Every run appends JSON lines to debug.log in the configured log
// directory, via log/slog with a JSON handler. The same package reads
// those files back: [AggregateLogs] merges the live file with its
// rotated backups, [FilterLogs] narrows entries by level, run, agent,
// iteration, time window, or message substring, and [ExportLogEntries]
// writes a selection as JSON, text, or CSV. The logs subcommand is
// built entirely on these three calls.
//
// # Writing
//
//	logger, err := logging.NewLogger(".tandem", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("run started", "prd", "PRD.md")
//	logger.Warn("tests failed, retrying", "attempt", 2)
//
// Child loggers attach run context that every subsequent line carries:
//
//	iterLogger := logger.WithRun("8f14e45f").WithIteration(3).WithAgent("worker")
//	iterLogger.Info("marked item done", "item", "implement auth")
//
// produces
//
//	{"time":"...","level":"INFO","msg":"marked item done","run_id":"8f14e45f","iteration":3,"agent":"worker","item":"implement auth"}
//
// Children share the parent's file handle; closing any of them closes
// the file once. [NopLogger] returns a logger that discards everything,
// which is what dry runs and most tests use.
//
// # Rotation
//
// [NewLoggerWithRotation] bounds disk usage. When a write would push
// debug.log past MaxSizeMB, the file rotates: backups shift to
// debug.log.2, debug.log.3, ... and the live file becomes debug.log.1
// (or debug.log.1.gz with Compress). The numbering runs newest to
// oldest. MaxBackups caps how many survive, and 0 keeps none: the live
// file is simply truncated on rotation. MaxSizeMB of 0 disables
// rotation entirely.
//
//	logger, err := logging.NewLoggerWithRotation(".tandem", "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	})
//
// # Reading
//
// [AggregateLogs] decodes every entry from the live file and its
// uncompressed numbered backups, sorted by timestamp. Compressed
// backups are retention only; they are not read back. Unknown JSON
// keys land in LogEntry.Attrs, and malformed lines are skipped rather
// than failing the whole read, so a crash mid-write never makes
// history unreadable.
//
// Levels are the four strings [LevelDebug], [LevelInfo], [LevelWarn],
// and [LevelError]. [ParseLevel] normalizes user input and
// [ValidLevels] lists the accepted spellings, which is what config
// validation reports on a typo.
//
// All types here are safe for concurrent use; the rotating writer
// serializes file access behind a mutex.
package logging
