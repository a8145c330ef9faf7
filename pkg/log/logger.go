package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// SetupLogger installs a JSON slog handler on stdout as the process default.
// Records carrying an ErrAttr get a stacktrace attribute.
func SetupLogger(loglevel string) {
	level, err := ParseLevel(loglevel)
	if err != nil {
		panic(err)
	}
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(level),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level name to slog.Level. It panics on unknown names.
func ToLogLevel(level string) slog.Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(err)
	}
	return slog.Level(l)
}

// ParseLevel converts "debug", "info", "warn" or "error" to a Level.
func ParseLevel(level string) (Level, error) {
	switch level {
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level :%s", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// ---------------------------------------------------------------------------
// zerolog backend
// ---------------------------------------------------------------------------

type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger returns a Logger writing JSON lines to w at the given minimum level.
// Writes are serialized, so w need not be safe for concurrent use.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(zerolog.SyncWriter(w)).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return &zerologLogger{zl: zerolog.Nop()}
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

func (l *zerologLogger) Debug(msg string, fields ...any) { emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { emit(l.zl.Warn(), msg, fields) }

func (l *zerologLogger) Error(msg string, fields ...any) {
	e := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = e.Err(err)
			if obj, ok := err.(zerolog.LogObjectMarshaler); ok {
				e = e.Object("error_detail", obj)
			}
			fields = fields[1:]
		}
	}
	emit(e, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.zl.GetLevel() <= toZerologLevel(level)
}

// emit is a no-op for disabled levels since zerolog hands out a nil event.
func emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}

// ---------------------------------------------------------------------------
// global logger
// ---------------------------------------------------------------------------

var (
	globalMu     sync.RWMutex
	globalLogger = NewNopLogger()
)

// GetLogger returns the process-wide logger. It discards output until SetLogger
// or SetupZerolog is called.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger. A nil logger restores the no-op logger.
func SetLogger(l Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// SetupZerolog installs a zerolog logger writing to w as the process-wide logger and
// routes errors.Warn through it.
func SetupZerolog(w io.Writer, level Level) Logger {
	l := NewZerologLogger(w, level)
	SetLogger(l)
	zl := l.(*zerologLogger).zl
	errors.SetZerologWarnFunc(func(warning error) {
		e := zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			e = e.EmbedObject(obj)
		}
		e.Msg(warning.Error())
	})
	return l
}

// LogError logs err on the process-wide logger at error level.
func LogError(err error, msg string, fields ...any) {
	if err == nil {
		return
	}
	fields = append([]any{err, ErrorKindKey, errors.KindOf(err).String()}, fields...)
	GetLogger().Error(msg, fields...)
}

// Provider hands out component loggers derived from one base logger.
type Provider struct {
	mu   sync.Mutex
	w    io.Writer
	base Logger
}

// NewProvider returns a Provider writing to w at level.
func NewProvider(w io.Writer, level Level) *Provider {
	return &Provider{w: w, base: NewZerologLogger(w, level)}
}

// GetLogger implements LoggerProvider.
func (p *Provider) GetLogger() Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base
}

// GetLoggerWithName implements LoggerProvider.
func (p *Provider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider. Loggers handed out earlier keep their level.
func (p *Provider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = NewZerologLogger(p.w, level)
}
