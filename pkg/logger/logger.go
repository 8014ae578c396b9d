package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds configuration for the logger
type Config struct {
	Environment string
	LogLevel    string
	ServiceName string
	SubService  string
	// Output receives encoded entries. Defaults to stdout.
	Output io.Writer
}

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	// subServiceKey is the context key for sub-service name
	subServiceKey = contextKey("sub_service")
)

// encoderConfig is shared by every logger built here.
var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     zapcore.EpochNanosTimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// New creates a JSON logger with the given configuration. Unknown levels are
// rejected.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(out)),
		zap.NewAtomicLevelAt(level),
	)

	opts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if cfg.Environment == "development" {
		opts = append(opts, zap.Development())
	}

	fields := []zap.Field{
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	}
	if cfg.SubService != "" {
		fields = append(fields, zap.String("sub_service", cfg.SubService))
	}

	return zap.New(core, opts...).With(fields...), nil
}

// FromContext creates a logger with sub-service information from context
func FromContext(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	if subService, ok := ctx.Value(subServiceKey).(string); ok && subService != "" {
		return baseLogger.With(zap.String("sub_service", subService))
	}
	return baseLogger
}

// WithContext adds sub-service information to context
func WithContext(ctx context.Context, subService string) context.Context {
	if subService == "" {
		return ctx
	}
	return context.WithValue(ctx, subServiceKey, subService)
}

// ParseLevel converts a level name (debug, info, warn, error) to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
