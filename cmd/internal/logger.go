package internal

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds the diagnostic logger. Singer reserves stdout for messages,
// so w is normally stderr.
func NewZapLogger(w io.Writer, level string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		parseLevel(level),
	)
	return zap.New(core).Named(TapName)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case LOGLEVEL_DEBUG:
		return zapcore.DebugLevel
	case LOGLEVEL_WARN:
		return zapcore.WarnLevel
	case LOGLEVEL_ERROR:
		return zapcore.ErrorLevel
	case LOGLEVEL_FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
