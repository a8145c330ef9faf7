// Package log は stackreg の構造化ログを扱う。
//
// 各ステージ (split, families, evaluate, ensemble, forecast) は Logger に
// 1 行ずつ記録し、キーは attributes.go の定数を使う。実装は zerolog
// (NewZerologLogger)、テストでは TestLogger で JSON 行を捕まえる。
//
//	logger := log.GetLogger().With(log.RunIDKey, runID)
//	logger.Info("Models evaluated",
//	    log.StageKey, log.StageEvaluate,
//	    log.ModelsKey, len(reports),
//	    log.UnfitKey, len(unfit),
//	)

package log

import (
	"context"
	"fmt"
)

// Logger is the sink every stage writes to. Fields are alternating key-value
// pairs; values implementing zerolog.LogObjectMarshaler, such as *linear.Report,
// are written as nested objects.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error takes an optional leading error before the key-value pairs:
	//
	//	logger.Error("Ensemble failed", err, log.PairsKey, len(pairs))
	Error(msg string, fields ...any)

	// With binds fields to every later record, e.g. the run ID or a model ID.
	With(fields ...any) Logger

	// Enabled lets callers skip building expensive fields, such as
	// per-model reports, when the level is filtered out.
	Enabled(ctx context.Context, level Level) bool
}

// Level shares its numeric values with slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the name accepted by ParseLevel and the log_level setting.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// LoggerProvider hands out loggers sharing one writer and level, one component
// name per package.
type LoggerProvider interface {
	GetLogger() Logger
	// GetLoggerWithName tags the logger with ComponentKey = name.
	GetLoggerWithName(name string) Logger
	// SetLevel affects loggers created afterwards.
	SetLevel(level Level)
}
