package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported log level names.
const (
	LogLevelError = "error"
	LogLevelWarn  = "warn"
	LogLevelInfo  = "info"
	LogLevelDebug = "debug"
)

// ParseLogLevel maps a configured level name onto a zap level.
// Unknown or empty names fall back to info.
func ParseLogLevel(levelName string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelName)) {
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarn, "warning":
		return zapcore.WarnLevel
	case LogLevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output
// at the provided level.
func NewApplicationLogger(levelName string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(ParseLogLevel(levelName))
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	config.OutputPaths = []string{"stderr"}
	logger, buildErr := config.Build()
	if buildErr != nil {
		return nil, fmt.Errorf("build logger: %w", buildErr)
	}
	return logger, nil
}
