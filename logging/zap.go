package logging

import (
	"context"
	"maps"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.Logger to the engine's Logger interface so host
// applications already running zap can route engine logs through it.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	fields Fields
}

// NewZapLogger wraps an existing zap logger. Passing nil builds a
// production-configured logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if logger == nil {
		config := zap.NewProductionConfig()
		config.Level = level
		logger, _ = config.Build(zap.AddCallerSkip(1))
	}

	return &ZapLogger{
		logger: logger,
		level:  level,
		fields: make(Fields),
	}
}

func (z *ZapLogger) zapFields(fields ...Fields) []zap.Field {
	allFields := make(Fields)
	maps.Copy(allFields, z.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	zfs := make([]zap.Field, 0, len(allFields))
	for k, v := range allFields {
		zfs = append(zfs, zap.Any(k, v))
	}
	return zfs
}

func (z *ZapLogger) Debug(msg string, fields ...Fields) {
	if z.level.Enabled(zapcore.DebugLevel) {
		z.logger.Debug(msg, z.zapFields(fields...)...)
	}
}

func (z *ZapLogger) Info(msg string, fields ...Fields) {
	if z.level.Enabled(zapcore.InfoLevel) {
		z.logger.Info(msg, z.zapFields(fields...)...)
	}
}

func (z *ZapLogger) Warn(msg string, fields ...Fields) {
	if z.level.Enabled(zapcore.WarnLevel) {
		z.logger.Warn(msg, z.zapFields(fields...)...)
	}
}

func (z *ZapLogger) Error(err error, msg string, fields ...Fields) {
	if z.level.Enabled(zapcore.ErrorLevel) {
		zfs := append(z.zapFields(fields...), zap.Error(err))
		z.logger.Error(msg, zfs...)
	}
}

func (z *ZapLogger) Fatal(err error, msg string, fields ...Fields) {
	zfs := append(z.zapFields(fields...), zap.Error(err))
	z.logger.Fatal(msg, zfs...)
}

func (z *ZapLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, z.fields)
	maps.Copy(newFields, fields)

	return &ZapLogger{
		logger: z.logger,
		level:  z.level,
		fields: newFields,
	}
}

func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := ctx.Value(fieldsContextKey{}).(Fields); ok {
		return z.WithFields(fields)
	}
	return z
}

func (z *ZapLogger) SetLevel(level Level) {
	switch level {
	case DebugLevel:
		z.level.SetLevel(zapcore.DebugLevel)
	case InfoLevel:
		z.level.SetLevel(zapcore.InfoLevel)
	case WarnLevel:
		z.level.SetLevel(zapcore.WarnLevel)
	case ErrorLevel:
		z.level.SetLevel(zapcore.ErrorLevel)
	case FatalLevel:
		z.level.SetLevel(zapcore.FatalLevel)
	}
}
