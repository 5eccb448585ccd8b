package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	ingesterrors "github.com/YuminosukeSato/dataingest/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "error.stacktrace"

	// NameKey carries the logger name; it is rendered as its own part of the line.
	NameKey = "logger"

	timeLayout = "2006-01-02 15:04:05"
)

// Options configures Setup.
type Options struct {
	// Name appears in every line, e.g. "data_ingestion".
	Name string
	// Level is one of debug, info, warn, error.
	Level string
	// Dir is created if absent. Empty disables the file sink.
	Dir string
	// File is the log file name inside Dir.
	File string
	// Console defaults to os.Stdout.
	Console io.Writer
}

// Setup builds the process logger: human-readable lines of the form
//
//	2026-02-01 10:20:12 - data_ingestion - DEBUG - Data loaded source=spam.csv
//
// written to the console and appended to Dir/File. Warnings raised through
// errors.Warn are routed to the returned logger. The closer releases the log file.
func Setup(opts Options) (Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	writers := []io.Writer{newLineWriter(console, true)}

	closer := io.Closer(nopCloser{})
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, ingesterrors.NewIOError("mkdir", opts.Dir, err)
		}
		path := filepath.Join(opts.Dir, opts.File)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, ingesterrors.NewIOError("open", path, err)
		}
		writers = append(writers, newLineWriter(f, false))
		closer = f
	}

	logger := NewZerologLogger(zerolog.MultiLevelWriter(writers...), opts.Name, level)
	ingesterrors.SetZerologWarnFunc(func(w error) {
		logger.Warn(w.Error(), ErrAttrKey, w)
	})
	return logger, closer, nil
}

// ParseLevel converts a config string into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, ingesterrors.NewValidationError("logging.level", "must be one of debug, info, warn, error", level)
	}
}

// newLineWriter renders zerolog JSON events as "time - name - LEVEL - message fields".
// The console variant omits stack traces; the file keeps them.
func newLineWriter(out io.Writer, console bool) zerolog.ConsoleWriter {
	w := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		PartsOrder: []string{zerolog.TimestampFieldName, NameKey, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatTimestamp: func(i interface{}) string {
			s := fmt.Sprint(i)
			if t, err := time.Parse(zerolog.TimeFieldFormat, s); err == nil {
				s = t.Local().Format(timeLayout)
			}
			return s + " -"
		},
		FormatPartValueByName: func(i interface{}, _ string) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i) + " -"
		},
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprint(i)) + " -"
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
		FieldsExclude: []string{NameKey},
	}
	if console {
		w.FieldsExclude = append(w.FieldsExclude, StacktraceAttrKey)
	}
	return w
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// zerologLogger implements Logger on top of zerolog.
type zerologLogger struct {
	zl     zerolog.Logger
	fields []any
}

// NewZerologLogger creates a Logger writing zerolog events to w.
func NewZerologLogger(w io.Writer, name string, level Level) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	if name != "" {
		zl = zl.With().Str(NameKey, name).Logger()
	}
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	merged := make([]any, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &zerologLogger{zl: l.zl, fields: merged}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= l.zl.GetLevel()
}

func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	appendFields(e, l.fields)
	appendFields(e, fields)
	e.Msg(msg)
}

// appendFields adds key-value pairs to e. A bare error in key position is
// logged under ErrAttrKey, matching the Error(msg, err, ...) call style.
func appendFields(e *zerolog.Event, fields []any) {
	for i := 0; i < len(fields); i++ {
		if err, ok := fields[i].(error); ok {
			addError(e, ErrAttrKey, err)
			continue
		}
		if i+1 >= len(fields) {
			e.Interface("!BADKEY", fields[i])
			break
		}
		key := fmt.Sprint(fields[i])
		i++
		switch v := fields[i].(type) {
		case error:
			addError(e, key, v)
		case zerolog.LogObjectMarshaler:
			e.Object(key, v)
		case string:
			e.Str(key, v)
		case int:
			e.Int(key, v)
		case float64:
			e.Float64(key, v)
		case []string:
			e.Strs(key, v)
		case time.Duration:
			e.Dur(key, v)
		default:
			e.Interface(key, v)
		}
	}
}

func addError(e *zerolog.Event, key string, err error) {
	e.AnErr(key, err)
	var typed zerolog.LogObjectMarshaler
	if errors.As(err, &typed) {
		e.Object(key+".detail", typed)
	}
	if st := extractStacktrace(err); st != "" {
		e.Str(StacktraceAttrKey, st)
	}
}

// extractStacktrace returns the first stack recorded by cockroachdb/errors
// along the wrap chain.
func extractStacktrace(err error) string {
	for ; err != nil; err = errors.UnwrapOnce(err) {
		if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 && details[0] != "" {
			return details[0]
		}
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
