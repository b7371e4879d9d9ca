// Package logger builds the zap loggers used by the truscanner CLI.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contains logger configuration
type Config struct {
	Level  string
	Format string    // json or console
	Output io.Writer // defaults to stderr, keeping stdout for reports
}

// New creates a new logger instance
func New(config Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if config.Format == "json" {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)

	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// WithComponent adds a component name to the logger context
func WithComponent(l *zap.Logger, component string) *zap.Logger {
	return l.With(zap.String("component", component))
}
