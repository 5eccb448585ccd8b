// Package log provides a structured logging interface for the ingestion pipeline.
//
// The interface is slog-compatible in shape so the backend can be swapped. The
// production backend is zerolog (see logger.go) writing human-readable lines to
// the console and to a log file; tests use TestLogger, which captures JSON lines
// in memory.
//
// Loggers are created once by Setup and passed explicitly to every component:
//
//	logger, closer, err := log.Setup(log.Options{Name: "data_ingestion", Level: "debug"})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	logger.With(log.StageKey, log.StageLoad).Debug("Data loaded",
//	    log.SourceKey, src,
//	    log.RowsKey, df.Nrow(),
//	)

package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key-value pairs. An error value passed under the
// ErrAttrKey key (or as the first field of Error) is rendered with its
// stack trace when one was recorded by cockroachdb/errors.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("Failed to parse the CSV file",
	//       err,
	//       log.SourceKey, src,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// nop discards everything. Components fall back to it when no logger is injected.
type nop struct{}

// Nop returns a Logger that discards all records.
func Nop() Logger { return nop{} }

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any) {}
func (nop) Warn(string, ...any) {}
func (nop) Error(string, ...any) {}
func (n nop) With(...any) Logger { return n }
func (nop) Enabled(context.Context, Level) bool { return false }
