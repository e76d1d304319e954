package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// fieldsContextKey is the context key used to carry Fields across API boundaries.
type fieldsContextKey struct{}

// ContextWithFields returns a context carrying structured fields that
// WithContext-derived loggers will attach to every entry.
func ContextWithFields(ctx context.Context, fields Fields) context.Context {
	return context.WithValue(ctx, fieldsContextKey{}, fields)
}

// DefaultLogger is the zap-backed Logger implementation.
// Debug/Info go to stdout, Warn and above to stderr, per zap's
// console encoder defaults.
type DefaultLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewDefaultLogger creates a zap-backed logger at Info level
func NewDefaultLogger() *DefaultLogger {
	return NewDefaultLoggerAt(InfoLevel)
}

// NewDefaultLoggerAt creates a zap-backed logger at the given minimum level
func NewDefaultLoggerAt(level Level) *DefaultLogger {
	atomic := zap.NewAtomicLevelAt(zapLevel(level))

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = atomic
	cfg.DisableStacktrace = true

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Config above is static; Build only fails on invalid output paths.
		zl = zap.NewNop()
	}

	return &DefaultLogger{
		sugar: zl.Sugar(),
		level: atomic,
	}
}

// NewLoggerFromZap wraps an existing zap logger so applications can route
// library output through their own logging setup.
func NewLoggerFromZap(zl *zap.Logger) *DefaultLogger {
	return &DefaultLogger{
		sugar: zl.Sugar(),
		level: zap.NewAtomicLevelAt(zl.Level()),
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// flatten converts variadic Fields into zap's alternating key/value form
func flatten(fields []Fields) []any {
	var kvs []any
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			kvs = append(kvs, k, v)
		}
	}
	return kvs
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.sugar.Debugw(msg, flatten(fields)...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.sugar.Infow(msg, flatten(fields)...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.sugar.Warnw(msg, flatten(fields)...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	kvs := flatten(fields)
	if err != nil {
		kvs = append(kvs, "error", err)
	}
	d.sugar.Errorw(msg, kvs...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	kvs := flatten(fields)
	if err != nil {
		kvs = append(kvs, "error", err)
	}
	d.sugar.Fatalw(msg, kvs...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	return &DefaultLogger{
		sugar: d.sugar.With(flatten([]Fields{fields})...),
		level: d.level,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := ctx.Value(fieldsContextKey{}).(Fields); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level.SetLevel(zapLevel(level))
}
